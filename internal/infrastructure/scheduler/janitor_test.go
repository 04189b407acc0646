package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingEvictor parks inside EvictExpired until released, so a sweep can
// be held in flight.
type blockingEvictor struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newBlockingEvictor() *blockingEvictor {
	return &blockingEvictor{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (e *blockingEvictor) EvictExpired() int {
	e.calls.Add(1)
	close(e.entered)
	<-e.release
	return 0
}

type countingEvictor struct {
	calls atomic.Int32
}

func (e *countingEvictor) EvictExpired() int {
	e.calls.Add(1)
	return 0
}

func TestJanitor_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("expires overdue reservations and restores availability", func(t *testing.T) {
		ledger := persistence.NewMemoryLedger(nil)
		repo := persistence.NewMemoryReservationRepository()
		manager := inventory.NewReservationManager(ledger, repo, nil)
		productID := uuid.New()
		require.NoError(t, ledger.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))

		res, err := manager.Reserve(ctx, productID, decimal.NewFromInt(4), uuid.New(), time.Millisecond)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		evictor := &countingEvictor{}
		j := NewJanitor(manager, evictor, time.Minute, time.Hour, nil)
		j.Sweep(ctx)

		available, err := ledger.Available(ctx, productID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(10).Equal(available))

		stored, err := repo.FindByID(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.ReservationStatusExpired, stored.Status)
		assert.Equal(t, int32(1), evictor.calls.Load())
	})

	t.Run("purges terminal reservations past retention", func(t *testing.T) {
		ledger := persistence.NewMemoryLedger(nil)
		repo := persistence.NewMemoryReservationRepository()
		manager := inventory.NewReservationManager(ledger, repo, nil)
		productID := uuid.New()
		require.NoError(t, ledger.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))

		res, err := manager.Reserve(ctx, productID, decimal.NewFromInt(1), uuid.New(), time.Hour)
		require.NoError(t, err)
		require.NoError(t, manager.Release(ctx, res.ID))

		j := NewJanitor(manager, nil, time.Minute, time.Nanosecond, nil)
		time.Sleep(time.Millisecond)
		j.Sweep(ctx)

		_, err = repo.FindByID(ctx, res.ID)
		assert.Error(t, err)
	})

	t.Run("concurrent sweep is skipped", func(t *testing.T) {
		ledger := persistence.NewMemoryLedger(nil)
		repo := persistence.NewMemoryReservationRepository()
		manager := inventory.NewReservationManager(ledger, repo, nil)

		evictor := newBlockingEvictor()
		j := NewJanitor(manager, evictor, time.Minute, 0, nil)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.Sweep(ctx)
		}()
		<-evictor.entered

		// Second sweep while the first is parked inside the evictor.
		j.Sweep(ctx)
		assert.Equal(t, int32(1), evictor.calls.Load())

		close(evictor.release)
		wg.Wait()

		// With the first sweep done, the next one runs again.
		evictor.release = make(chan struct{})
		evictor.entered = make(chan struct{})
		close(evictor.release)
		j.Sweep(ctx)
		assert.Equal(t, int32(2), evictor.calls.Load())
	})
}

func TestJanitor_StartStop(t *testing.T) {
	ctx := context.Background()
	ledger := persistence.NewMemoryLedger(nil)
	repo := persistence.NewMemoryReservationRepository()
	manager := inventory.NewReservationManager(ledger, repo, nil)
	productID := uuid.New()
	require.NoError(t, ledger.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))

	_, err := manager.Reserve(ctx, productID, decimal.NewFromInt(4), uuid.New(), time.Millisecond)
	require.NoError(t, err)

	j := NewJanitor(manager, nil, 5*time.Millisecond, 0, nil)
	j.Start(ctx)
	defer j.Stop()

	assert.Eventually(t, func() bool {
		available, err := ledger.Available(ctx, productID)
		return err == nil && decimal.NewFromInt(10).Equal(available)
	}, time.Second, 5*time.Millisecond, "sweep loop must release the expired hold")
}

func TestJanitor_StopIsIdempotent(t *testing.T) {
	ledger := persistence.NewMemoryLedger(nil)
	repo := persistence.NewMemoryReservationRepository()
	manager := inventory.NewReservationManager(ledger, repo, nil)

	j := NewJanitor(manager, nil, time.Minute, 0, nil)
	j.Start(context.Background())

	j.Stop()
	j.Stop()
}
