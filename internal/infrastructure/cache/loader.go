package cache

import (
	"context"
	"sync"
	"time"

	"github.com/autoparts/backend/internal/domain/shared"
)

// BatchFunc resolves a set of keys in one round trip. The result map may
// omit keys that do not exist; callers of those keys get ErrNotFound.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type pending[V any] struct {
	ready chan struct{}
	value V
	err   error
}

// Loader collects keys requested within a short window and resolves them
// with a single batch call, deduplicating repeated keys. Results are not
// retained between batches; pair it with a Cache when reuse matters.
type Loader[K comparable, V any] struct {
	mu      sync.Mutex
	batch   map[K]*pending[V]
	timer   *time.Timer
	fn      BatchFunc[K, V]
	window  time.Duration
	maxSize int
}

// NewLoader creates a batching loader. The window bounds how long the
// first key of a batch waits for company; maxSize flushes early when the
// batch fills up (0 means unbounded).
func NewLoader[K comparable, V any](fn BatchFunc[K, V], window time.Duration, maxSize int) *Loader[K, V] {
	return &Loader[K, V]{
		fn:      fn,
		window:  window,
		maxSize: maxSize,
	}
}

// Load requests one key, joining the current batch window
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	p := l.enqueue(key)
	select {
	case <-p.ready:
		return p.value, p.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// LoadMany requests several keys at once. All of them join the same batch,
// so callers pay one round trip regardless of the slice length. The result
// preserves input order; the first per-key failure aborts.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) ([]V, error) {
	ps := make([]*pending[V], len(keys))
	for i, key := range keys {
		ps[i] = l.enqueue(key)
	}

	out := make([]V, len(keys))
	for i, p := range ps {
		select {
		case <-p.ready:
			if p.err != nil {
				return nil, p.err
			}
			out[i] = p.value
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

// enqueue registers a key in the open batch, starting the flush timer when
// it opens a new one
func (l *Loader[K, V]) enqueue(key K) *pending[V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.batch[key]; ok {
		return p
	}

	if l.batch == nil {
		l.batch = make(map[K]*pending[V])
		l.timer = time.AfterFunc(l.window, l.flush)
	}

	p := &pending[V]{ready: make(chan struct{})}
	l.batch[key] = p

	if l.maxSize > 0 && len(l.batch) >= l.maxSize {
		// Disarm the window timer so it cannot truncate the next
		// batch's accumulation window.
		l.timer.Stop()
		l.timer = nil
		batch := l.batch
		l.batch = nil
		go l.dispatch(batch)
	}
	return p
}

func (l *Loader[K, V]) flush() {
	l.mu.Lock()
	batch := l.batch
	l.batch = nil
	l.timer = nil
	l.mu.Unlock()

	if len(batch) > 0 {
		l.dispatch(batch)
	}
}

func (l *Loader[K, V]) dispatch(batch map[K]*pending[V]) {
	keys := make([]K, 0, len(batch))
	for key := range batch {
		keys = append(keys, key)
	}

	results, err := l.fn(context.Background(), keys)

	for key, p := range batch {
		if err != nil {
			p.err = err
		} else if v, ok := results[key]; ok {
			p.value = v
		} else {
			p.err = shared.ErrNotFound
		}
		close(p.ready)
	}
}
