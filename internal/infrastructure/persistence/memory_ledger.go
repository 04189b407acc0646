package persistence

import (
	"context"
	"sync"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type counters struct {
	mu       sync.Mutex
	onHand   decimal.Decimal
	reserved decimal.Decimal
}

// MemoryLedger is an in-process stock ledger. Each product has its own
// mutex, so counter updates are linearizable per product and independent
// products never contend.
type MemoryLedger struct {
	mu        sync.RWMutex
	products  map[uuid.UUID]*counters
	movements inventory.MovementRepository
}

// NewMemoryLedger creates an empty in-memory ledger. The movement
// repository may be nil when no audit trail is needed.
func NewMemoryLedger(movements inventory.MovementRepository) *MemoryLedger {
	return &MemoryLedger{
		products:  make(map[uuid.UUID]*counters),
		movements: movements,
	}
}

func (l *MemoryLedger) get(productID uuid.UUID) *counters {
	l.mu.RLock()
	c, ok := l.products[productID]
	l.mu.RUnlock()
	if ok {
		return c
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok = l.products[productID]; ok {
		return c
	}
	c = &counters{onHand: decimal.Zero, reserved: decimal.Zero}
	l.products[productID] = c
	return c
}

func (l *MemoryLedger) record(ctx context.Context, productID uuid.UUID, kind inventory.MovementKind, qty decimal.Decimal, reference string) {
	if l.movements == nil {
		return
	}
	_ = l.movements.Append(ctx, inventory.NewMovement(productID, kind, qty, reference))
}

func validQuantity(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return nil
}

// TryReserve atomically checks availability and reserves, or returns
// ErrInsufficientStock leaving the counters untouched
func (l *MemoryLedger) TryReserve(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := validQuantity(qty); err != nil {
		return err
	}
	c := l.get(productID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onHand.Sub(c.reserved).LessThan(qty) {
		return shared.ErrInsufficientStock
	}
	c.reserved = c.reserved.Add(qty)
	l.record(ctx, productID, inventory.MovementReserved, qty, reference)
	return nil
}

// Commit finalizes a reservation: both on-hand and reserved drop
func (l *MemoryLedger) Commit(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := validQuantity(qty); err != nil {
		return err
	}
	c := l.get(productID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reserved.LessThan(qty) || c.onHand.LessThan(qty) {
		return shared.ErrInvalidReservationState
	}
	c.reserved = c.reserved.Sub(qty)
	c.onHand = c.onHand.Sub(qty)
	l.record(ctx, productID, inventory.MovementCommitted, qty, reference)
	return nil
}

// Release returns reserved units to availability without touching on-hand
func (l *MemoryLedger) Release(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := validQuantity(qty); err != nil {
		return err
	}
	c := l.get(productID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reserved.LessThan(qty) {
		return shared.ErrInvalidReservationState
	}
	c.reserved = c.reserved.Sub(qty)
	l.record(ctx, productID, inventory.MovementReleased, qty, reference)
	return nil
}

// Restore puts committed units back on hand, used when a confirmed order
// is cancelled or refunded
func (l *MemoryLedger) Restore(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := validQuantity(qty); err != nil {
		return err
	}
	c := l.get(productID)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onHand = c.onHand.Add(qty)
	l.record(ctx, productID, inventory.MovementRestored, qty, reference)
	return nil
}

// Receive adds new stock from a supplier delivery
func (l *MemoryLedger) Receive(ctx context.Context, productID uuid.UUID, qty decimal.Decimal, reference string) error {
	if err := validQuantity(qty); err != nil {
		return err
	}
	c := l.get(productID)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onHand = c.onHand.Add(qty)
	l.record(ctx, productID, inventory.MovementReceived, qty, reference)
	return nil
}

// Available returns on-hand minus reserved for a product
func (l *MemoryLedger) Available(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	c := l.get(productID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onHand.Sub(c.reserved), nil
}

// Snapshot returns a consistent view of a product's counters
func (l *MemoryLedger) Snapshot(_ context.Context, productID uuid.UUID) (inventory.StockSnapshot, error) {
	c := l.get(productID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return inventory.StockSnapshot{
		ProductID: productID,
		OnHand:    c.onHand,
		Reserved:  c.reserved,
		Available: c.onHand.Sub(c.reserved),
	}, nil
}
