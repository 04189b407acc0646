package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockSnapshot is a point-in-time copy of one product's counters,
// safe to hand to pricing or display code without further locking.
type StockSnapshot struct {
	ProductID uuid.UUID
	OnHand    decimal.Decimal
	Reserved  decimal.Decimal
	Available decimal.Decimal
}

// Ledger is the single source of truth for available stock. Every
// implementation must make the four mutations linearizable per product id:
// concurrent calls for the same product never interleave in a way that lets
// reservations exceed on-hand stock. Calls for different products must not
// block each other.
type Ledger interface {
	// TryReserve atomically checks available stock and claims the quantity.
	// Fails with shared.ErrInsufficientStock and no partial effect otherwise.
	TryReserve(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, reference string) error

	// Commit turns a reserved quantity into a permanent sale
	Commit(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, reference string) error

	// Release returns a reserved quantity to the available pool
	Release(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, reference string) error

	// Restore returns previously sold quantity to on-hand stock
	Restore(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, reference string) error

	// Receive adds newly received stock for a product, creating the
	// record if this is the first receipt (catalog write path)
	Receive(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, reference string) error

	// Available returns on-hand minus reserved for a product
	Available(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)

	// Snapshot returns a copy of the product's counters
	Snapshot(ctx context.Context, productID uuid.UUID) (StockSnapshot, error)
}
