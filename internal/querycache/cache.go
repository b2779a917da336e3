// Package querycache is a keyed read cache with prefix invalidation.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/food_order/pkg/logging"
)

var ErrMiss = errors.New("cache miss")

// Store keeps encoded values. DeletePrefix removes every key starting with prefix.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type Cache struct {
	store Store
	ttl   time.Duration
	sfg   singleflight.Group
	gen   atomic.Uint64
}

func New(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Fetch returns the cached value for key or loads it with fn.
// Concurrent misses on the same key share one fn call. A nil cache always calls fn.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return fn(ctx)
	}

	l := logging.FromContext(ctx).With("component", "querycache")

	enc, err := key.Encode()
	if err != nil {
		return zero, err
	}

	raw, err := c.store.Get(ctx, enc)
	switch {
	case err == nil:
		var out T
		uerr := json.Unmarshal(raw, &out)
		if uerr == nil {
			return out, nil
		}
		l.Warn("cache_decode_failed", "key", enc, "error", uerr)
	case errors.Is(err, ErrMiss):
	default:
		l.Warn("cache_get_failed", "key", enc, "error", err)
	}

	// loads started before an invalidation are not shared with readers after it
	gen := c.gen.Load()
	v, err, _ := c.sfg.Do(enc+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", enc, err)
		}

		// an invalidation ran while loading, the value may already be stale
		if c.gen.Load() == gen {
			if serr := c.store.Set(ctx, enc, b, c.ttl); serr != nil {
				l.Warn("cache_set_failed", "key", enc, "error", serr)
			}
		}
		return b, nil
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(v.([]byte), &out); err != nil {
		return zero, fmt.Errorf("decode %s: %w", enc, err)
	}
	return out, nil
}

// Invalidate drops every cached entry under each of keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) error {
	if c == nil {
		return nil
	}
	c.gen.Add(1)

	var errs []error
	for _, k := range keys {
		enc, err := k.Encode()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := c.store.DeletePrefix(ctx, enc); err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", enc, err))
		}
	}
	return errors.Join(errs...)
}
