package realtime

import (
	"context"

	"github.com/Skotchmaster/food_order/internal/querycache"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

// Invalidator drops cached order queries when order events arrive.
type Invalidator struct {
	hub   *Hub
	cache *querycache.Cache
}

func NewInvalidator(hub *Hub, cache *querycache.Cache) *Invalidator {
	return &Invalidator{hub: hub, cache: cache}
}

// Run blocks until ctx is done.
func (i *Invalidator) Run(ctx context.Context) {
	l := logging.FromContext(ctx).With("component", "realtime.invalidator")

	sub := i.hub.Subscribe(Filter{})
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if err := i.cache.Invalidate(ctx, KeysFor(e)...); err != nil {
				l.Warn("invalidate_failed", "type", e.Type, "order_id", e.OrderID, "error", err)
			}
		}
	}
}

// KeysFor maps an event to the cached queries it makes stale.
func KeysFor(e Event) []querycache.Key {
	switch e.Type {
	case EventInsert:
		return []querycache.Key{querycache.OrdersKey()}
	case EventUpdate:
		return []querycache.Key{querycache.OrderKey(e.OrderID)}
	}
	return nil
}
