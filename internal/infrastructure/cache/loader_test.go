package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Run("keys in one window share one batch call", func(t *testing.T) {
		var batches atomic.Int32
		var lastSize atomic.Int32
		l := NewLoader(func(_ context.Context, keys []int) (map[int]string, error) {
			batches.Add(1)
			lastSize.Store(int32(len(keys)))
			out := make(map[int]string, len(keys))
			for _, k := range keys {
				out[k] = "v"
			}
			return out, nil
		}, 10*time.Millisecond, 0)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := l.Load(context.Background(), i)
				assert.NoError(t, err)
				assert.Equal(t, "v", v)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), batches.Load())
		assert.Equal(t, int32(8), lastSize.Load())
	})

	t.Run("duplicate keys are deduplicated within a batch", func(t *testing.T) {
		var seen atomic.Int32
		l := NewLoader(func(_ context.Context, keys []int) (map[int]string, error) {
			seen.Store(int32(len(keys)))
			return map[int]string{1: "one"}, nil
		}, 10*time.Millisecond, 0)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = l.Load(context.Background(), 1)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), seen.Load())
	})

	t.Run("missing key resolves to not found", func(t *testing.T) {
		l := NewLoader(func(_ context.Context, keys []int) (map[int]string, error) {
			return map[int]string{}, nil
		}, time.Millisecond, 0)

		_, err := l.Load(context.Background(), 404)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("batch error propagates to every caller", func(t *testing.T) {
		boom := errors.New("db gone")
		l := NewLoader(func(_ context.Context, keys []int) (map[int]string, error) {
			return nil, boom
		}, time.Millisecond, 0)

		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := l.Load(context.Background(), i)
				assert.ErrorIs(t, err, boom)
			}(i)
		}
		wg.Wait()
	})

	t.Run("max size flushes the batch early", func(t *testing.T) {
		var batches atomic.Int32
		l := NewLoader(func(_ context.Context, keys []int) (map[int]string, error) {
			batches.Add(1)
			out := make(map[int]string, len(keys))
			for _, k := range keys {
				out[k] = "v"
			}
			return out, nil
		}, time.Hour, 2)

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := l.Load(context.Background(), i)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), batches.Load())
	})

	t.Run("early flush disarms the window timer", func(t *testing.T) {
		var batches atomic.Int32
		l := NewLoader(func(_ context.Context, keys []int) (map[int]string, error) {
			batches.Add(1)
			out := make(map[int]string, len(keys))
			for _, k := range keys {
				out[k] = "v"
			}
			return out, nil
		}, 300*time.Millisecond, 2)

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := l.Load(context.Background(), i)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
		require.Equal(t, int32(1), batches.Load())

		// Open the next batch while the first window's deadline is still
		// ahead; a timer left over from the flushed batch would cut this
		// batch's accumulation short.
		time.Sleep(100 * time.Millisecond)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := l.Load(context.Background(), 99)
			assert.NoError(t, err)
		}()

		time.Sleep(250 * time.Millisecond)
		assert.Equal(t, int32(1), batches.Load(), "second batch must keep its full window")

		<-done
		assert.Equal(t, int32(2), batches.Load())
	})
}

func TestLoader_LoadMany(t *testing.T) {
	t.Run("preserves input order in one batch", func(t *testing.T) {
		var batches atomic.Int32
		l := NewLoader(func(_ context.Context, keys []int) (map[int]string, error) {
			batches.Add(1)
			out := make(map[int]string, len(keys))
			for _, k := range keys {
				out[k] = string(rune('a' + k))
			}
			return out, nil
		}, 5*time.Millisecond, 0)

		got, err := l.LoadMany(context.Background(), []int{2, 0, 1})

		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, got)
		assert.Equal(t, int32(1), batches.Load())
	})

	t.Run("missing key fails the call", func(t *testing.T) {
		l := NewLoader(func(_ context.Context, keys []int) (map[int]string, error) {
			return map[int]string{1: "one"}, nil
		}, time.Millisecond, 0)

		_, err := l.LoadMany(context.Background(), []int{1, 2})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
