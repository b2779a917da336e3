package realtime

import (
	"context"
	"sync"

	"github.com/Skotchmaster/food_order/pkg/logging"
)

const DefaultBuffer = 16

// Subscription receives matching events on C until Cancel is called.
type Subscription struct {
	C <-chan Event

	id     uint64
	ch     chan Event
	filter Filter
	hub    *Hub
	once   sync.Once
}

// Cancel unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() { s.hub.remove(s.id) })
}

// Hub delivers each event to every matching subscriber without blocking the publisher.
// A subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[uint64]*Subscription), buffer: buffer}
}

func (h *Hub) Subscribe(f Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, id: h.nextID, ch: ch, filter: f, hub: h}
	h.subs[s.id] = s
	return s
}

func (h *Hub) Publish(ctx context.Context, e Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if !s.filter.Match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			logging.FromContext(ctx).Warn("realtime_event_dropped",
				"reason", "subscriber buffer full", "order_id", e.OrderID, "type", e.Type)
		}
	}
	return nil
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}
