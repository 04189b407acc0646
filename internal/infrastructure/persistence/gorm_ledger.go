package persistence

import (
	"context"
	"errors"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxLedgerRetries bounds how often a counter update is retried after
// losing an optimistic-lock race before the conflict surfaces to the caller
const maxLedgerRetries = 3

// GormLedger implements the stock ledger on top of version-checked stock
// records. Lost optimistic-lock races are retried with a fresh read, which
// keeps the per-product counters linearizable without row locks.
type GormLedger struct {
	records   inventory.StockRecordRepository
	movements inventory.MovementRepository
	logger    *zap.Logger
}

// NewGormLedger creates a ledger over the given repositories. The movement
// repository may be nil when no audit trail is needed.
func NewGormLedger(records inventory.StockRecordRepository, movements inventory.MovementRepository, logger *zap.Logger) *GormLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormLedger{
		records:   records,
		movements: movements,
		logger:    logger,
	}
}

func (l *GormLedger) record(ctx context.Context, productID uuid.UUID, kind inventory.MovementKind, qty decimal.Decimal, reference string) {
	if l.movements == nil {
		return
	}
	if err := l.movements.Append(ctx, inventory.NewMovement(productID, kind, qty, reference)); err != nil {
		l.logger.Warn("Failed to append inventory movement",
			zap.String("product_id", productID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// mutate loads the product's stock record, applies fn and saves with the
// version check, retrying on conflict
func (l *GormLedger) mutate(ctx context.Context, productID uuid.UUID, createMissing bool, fn func(*inventory.StockRecord) error) error {
	var lastErr error
	for attempt := 0; attempt < maxLedgerRetries; attempt++ {
		record, err := l.records.FindByProduct(ctx, productID)
		if errors.Is(err, shared.ErrNotFound) && createMissing {
			record, err = inventory.NewStockRecord(productID, decimal.Zero)
		}
		if err != nil {
			return err
		}

		if err := fn(record); err != nil {
			return err
		}

		err = l.records.SaveWithLock(ctx, record)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		lastErr = err
	}

	l.logger.Warn("Stock counter update lost all optimistic lock retries",
		zap.String("product_id", productID.String()),
		zap.Int("attempts", maxLedgerRetries),
	)
	return lastErr
}

// TryReserve atomically checks availability and reserves the quantity
func (l *GormLedger) TryReserve(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	err := l.mutate(ctx, productID, false, func(r *inventory.StockRecord) error {
		return r.TryReserve(qty)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrInsufficientStock
		}
		return err
	}
	l.record(ctx, productID, inventory.MovementReserved, qty, reference)
	return nil
}

// Commit finalizes a reservation: both on-hand and reserved drop
func (l *GormLedger) Commit(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := l.mutate(ctx, productID, false, func(r *inventory.StockRecord) error {
		return r.Commit(qty)
	}); err != nil {
		return err
	}
	l.record(ctx, productID, inventory.MovementCommitted, qty, reference)
	return nil
}

// Release returns reserved quantity to availability
func (l *GormLedger) Release(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := l.mutate(ctx, productID, false, func(r *inventory.StockRecord) error {
		return r.Release(qty)
	}); err != nil {
		return err
	}
	l.record(ctx, productID, inventory.MovementReleased, qty, reference)
	return nil
}

// Restore puts committed quantity back on hand
func (l *GormLedger) Restore(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := l.mutate(ctx, productID, true, func(r *inventory.StockRecord) error {
		return r.Restore(qty)
	}); err != nil {
		return err
	}
	l.record(ctx, productID, inventory.MovementRestored, qty, reference)
	return nil
}

// Receive adds newly received stock, creating the record on first receipt
func (l *GormLedger) Receive(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := l.mutate(ctx, productID, true, func(r *inventory.StockRecord) error {
		return r.Receive(qty)
	}); err != nil {
		return err
	}
	l.record(ctx, productID, inventory.MovementReceived, qty, reference)
	return nil
}

// Available returns on-hand minus reserved for a product
func (l *GormLedger) Available(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	record, err := l.records.FindByProduct(ctx, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return record.Available(), nil
}

// Snapshot returns a copy of the product's counters
func (l *GormLedger) Snapshot(ctx context.Context, productID uuid.UUID) (inventory.StockSnapshot, error) {
	record, err := l.records.FindByProduct(ctx, productID)
	if errors.Is(err, shared.ErrNotFound) {
		return inventory.StockSnapshot{
			ProductID: productID,
			OnHand:    decimal.Zero,
			Reserved:  decimal.Zero,
			Available: decimal.Zero,
		}, nil
	}
	if err != nil {
		return inventory.StockSnapshot{}, err
	}
	return inventory.StockSnapshot{
		ProductID: productID,
		OnHand:    record.OnHand,
		Reserved:  record.Reserved,
		Available: record.Available(),
	}, nil
}
