package cache

import (
	"context"
	"sync"
	"time"

	"github.com/autoparts/backend/internal/domain/shared"
)

// ComputeFunc produces the value for a cache key
type ComputeFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// entry is one cache slot. While the computation is in flight, ready is
// open and waiters block on it; once closed, value/err are immutable.
type entry[V any] struct {
	ready chan struct{}
	value V
	err   error
	// expiresAt is set when the computation succeeds; zero means no expiry
	expiresAt time.Time
}

// Cache deduplicates concurrent computations per key: for any key, at most
// one compute runs at a time and every concurrent caller receives its
// result. Failures propagate to all waiters and are not cached, so the
// next request retries.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	compute ComputeFunc[K, V]
	ttl     time.Duration
}

// NewCache creates a coalescing cache. A zero ttl means entries never
// expire until invalidated.
func NewCache[K comparable, V any](compute ComputeFunc[K, V], ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[V]),
		compute: compute,
		ttl:     ttl,
	}
}

// Get returns the cached value for key, computing it if absent. Concurrent
// callers for the same key share one computation.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !c.expired(e) {
		c.mu.Unlock()
		return c.wait(ctx, e)
	}

	e := &entry[V]{ready: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.value, e.err = c.compute(ctx, key)
	if e.err != nil {
		e.err = shared.ErrComputationFailed.WithCause(e.err)
		// Drop the failed entry before releasing waiters so a new
		// Get starts a fresh computation.
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	} else if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	close(e.ready)

	return e.value, e.err
}

func (c *Cache[K, V]) wait(ctx context.Context, e *entry[V]) (V, error) {
	select {
	case <-e.ready:
		return e.value, e.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *Cache[K, V]) expired(e *entry[V]) bool {
	select {
	case <-e.ready:
		return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
	default:
		// In-flight entries are never expired
		return false
	}
}

// Warm precomputes values for the given keys. Each key goes through the
// same entry claim as Get, so a warm-up racing a concurrent Get for the
// same key joins the in-flight computation instead of starting a second
// one. Stops at the first failed key.
func (c *Cache[K, V]) Warm(ctx context.Context, keys []K) error {
	for _, key := range keys {
		if _, err := c.Get(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate removes a key. An in-flight computation still delivers to its
// current waiters, but new Gets recompute.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all keys
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]*entry[V])
	c.mu.Unlock()
}

// EvictExpired removes completed entries past their TTL and returns how
// many were dropped
func (c *Cache[K, V]) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of entries, including in-flight ones
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
