package persistence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_TryReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves within available stock", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		productID := uuid.New()
		require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))

		require.NoError(t, l.TryReserve(ctx, productID, decimal.NewFromInt(4), "r1"))

		available, err := l.Available(ctx, productID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(6).Equal(available))
	})

	t.Run("rejects when quantity exceeds available", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		productID := uuid.New()
		require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(3), "initial"))

		err := l.TryReserve(ctx, productID, decimal.NewFromInt(4), "r1")

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		available, _ := l.Available(ctx, productID)
		assert.True(t, decimal.NewFromInt(3).Equal(available), "failed reserve must leave no partial effect")
	})

	t.Run("counts reserved stock against availability", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		productID := uuid.New()
		require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))
		require.NoError(t, l.TryReserve(ctx, productID, decimal.NewFromInt(7), "r1"))

		err := l.TryReserve(ctx, productID, decimal.NewFromInt(4), "r2")

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		assert.Error(t, l.TryReserve(ctx, uuid.New(), decimal.Zero, "r"))
	})
}

func TestMemoryLedger_NoOversellUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(nil)
	productID := uuid.New()
	require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(100), "initial"))

	const workers = 50
	var succeeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.TryReserve(ctx, productID, decimal.NewFromInt(3), "r"); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, shared.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	// 100 / 3 = 33 reservations fit; the rest must be rejected.
	assert.Equal(t, int32(33), succeeded.Load())

	snap, err := l.Snapshot(ctx, productID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(99).Equal(snap.Reserved))
	assert.True(t, decimal.NewFromInt(1).Equal(snap.Available))
}

func TestMemoryLedger_CommitReleaseRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("commit drops both counters", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		productID := uuid.New()
		require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))
		require.NoError(t, l.TryReserve(ctx, productID, decimal.NewFromInt(4), "r"))

		require.NoError(t, l.Commit(ctx, productID, decimal.NewFromInt(4), "r"))

		snap, _ := l.Snapshot(ctx, productID)
		assert.True(t, decimal.NewFromInt(6).Equal(snap.OnHand))
		assert.True(t, snap.Reserved.IsZero())
	})

	t.Run("release returns stock to the pool", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		productID := uuid.New()
		require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))
		require.NoError(t, l.TryReserve(ctx, productID, decimal.NewFromInt(4), "r"))

		require.NoError(t, l.Release(ctx, productID, decimal.NewFromInt(4), "r"))

		snap, _ := l.Snapshot(ctx, productID)
		assert.True(t, decimal.NewFromInt(10).Equal(snap.OnHand))
		assert.True(t, decimal.NewFromInt(10).Equal(snap.Available))
	})

	t.Run("release beyond reserved fails", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		productID := uuid.New()
		require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))

		err := l.Release(ctx, productID, decimal.NewFromInt(1), "r")
		assert.ErrorIs(t, err, shared.ErrInvalidReservationState)
	})

	t.Run("restore adds back to on-hand", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		productID := uuid.New()
		require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(10), "initial"))
		require.NoError(t, l.TryReserve(ctx, productID, decimal.NewFromInt(4), "r"))
		require.NoError(t, l.Commit(ctx, productID, decimal.NewFromInt(4), "r"))

		require.NoError(t, l.Restore(ctx, productID, decimal.NewFromInt(4), "refund"))

		snap, _ := l.Snapshot(ctx, productID)
		assert.True(t, decimal.NewFromInt(10).Equal(snap.OnHand))
	})
}

func TestMemoryLedger_MovementAuditTrail(t *testing.T) {
	ctx := context.Background()
	movements := NewMemoryMovementRepository()
	l := NewMemoryLedger(movements)
	productID := uuid.New()

	require.NoError(t, l.Receive(ctx, productID, decimal.NewFromInt(10), "po-1"))
	require.NoError(t, l.TryReserve(ctx, productID, decimal.NewFromInt(2), "res-1"))
	require.NoError(t, l.Commit(ctx, productID, decimal.NewFromInt(2), "res-1"))

	rows, err := movements.FindByProduct(ctx, productID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// Newest first.
	assert.Equal(t, inventory.MovementCommitted, rows[0].Kind)
	assert.Equal(t, inventory.MovementReserved, rows[1].Kind)
	assert.Equal(t, inventory.MovementReceived, rows[2].Kind)
	assert.Equal(t, "po-1", rows[2].Reference)
}

func TestMemoryReservationRepository_CompareAndSetStatus(t *testing.T) {
	ctx := context.Background()

	newActive := func(t *testing.T, repo *MemoryReservationRepository) *inventory.Reservation {
		t.Helper()
		res, err := inventory.NewReservation(uuid.New(), decimal.NewFromInt(1), uuid.New(), inventory.DefaultHoldDuration)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, res))
		return res
	}

	t.Run("exactly one concurrent caller wins", func(t *testing.T) {
		repo := NewMemoryReservationRepository()
		res := newActive(t, repo)

		const contenders = 20
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				to := inventory.ReservationStatusCommitted
				if i%2 == 0 {
					to = inventory.ReservationStatusExpired
				}
				won, err := repo.CompareAndSetStatus(ctx, res.ID, inventory.ReservationStatusActive, to)
				assert.NoError(t, err)
				if won {
					wins.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("not found fails with error", func(t *testing.T) {
		repo := NewMemoryReservationRepository()
		won, err := repo.CompareAndSetStatus(ctx, uuid.New(), inventory.ReservationStatusActive, inventory.ReservationStatusExpired)
		assert.False(t, won)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestMemoryStockRecordRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStockRecordRepository()

	record, err := inventory.NewStockRecord(uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, record))

	t.Run("save with matching version succeeds", func(t *testing.T) {
		loaded, err := repo.FindByProduct(ctx, record.ProductID)
		require.NoError(t, err)
		require.NoError(t, loaded.TryReserve(decimal.NewFromInt(2)))

		assert.NoError(t, repo.SaveWithLock(ctx, loaded))
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		stale, err := repo.FindByProduct(ctx, record.ProductID)
		require.NoError(t, err)
		fresh, err := repo.FindByProduct(ctx, record.ProductID)
		require.NoError(t, err)

		require.NoError(t, fresh.TryReserve(decimal.NewFromInt(1)))
		require.NoError(t, repo.SaveWithLock(ctx, fresh))

		require.NoError(t, stale.TryReserve(decimal.NewFromInt(1)))
		err = repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}
