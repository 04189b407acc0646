package inventory

import (
	"time"

	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecord holds the authoritative stock counters for one product.
// It is the aggregate root for ledger operations; the invariant
// OnHand - Reserved >= 0 must hold after every mutation.
type StockRecord struct {
	shared.BaseAggregateRoot
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	OnHand    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // physically held quantity
	Reserved  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // held by active reservations
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// NewStockRecord creates a stock record for a product
func NewStockRecord(productID uuid.UUID, onHand decimal.Decimal) (*StockRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if onHand.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "On-hand quantity cannot be negative")
	}

	return &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		OnHand:            onHand,
		Reserved:          decimal.Zero,
	}, nil
}

// Available returns the quantity not yet claimed by a reservation
func (r *StockRecord) Available() decimal.Decimal {
	return r.OnHand.Sub(r.Reserved)
}

// TryReserve increments the reserved counter if enough stock is available.
// Returns ErrInsufficientStock without any partial effect otherwise.
func (r *StockRecord) TryReserve(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if r.Available().LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	r.Reserved = r.Reserved.Add(quantity)
	r.touch()
	r.AddDomainEvent(NewStockReservedEvent(r, quantity))
	return nil
}

// Commit converts a reserved quantity into a permanent sale: both on-hand
// and reserved drop by the quantity.
func (r *StockRecord) Commit(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Commit quantity must be positive")
	}
	if r.Reserved.LessThan(quantity) || r.OnHand.LessThan(quantity) {
		return shared.NewDomainError("INVALID_QUANTITY", "Commit quantity exceeds reserved stock")
	}

	r.OnHand = r.OnHand.Sub(quantity)
	r.Reserved = r.Reserved.Sub(quantity)
	r.touch()
	r.AddDomainEvent(NewStockCommittedEvent(r, quantity))
	return nil
}

// Release abandons a hold: the reserved counter drops, on-hand is untouched.
func (r *StockRecord) Release(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}
	if r.Reserved.LessThan(quantity) {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity exceeds reserved stock")
	}

	r.Reserved = r.Reserved.Sub(quantity)
	r.touch()
	r.AddDomainEvent(NewStockReleasedEvent(r, quantity))
	return nil
}

// Restore returns previously sold quantity to on-hand stock
// (cancellation after commit, or a refund).
func (r *StockRecord) Restore(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Restore quantity must be positive")
	}

	r.OnHand = r.OnHand.Add(quantity)
	r.touch()
	r.AddDomainEvent(NewStockRestoredEvent(r, quantity))
	return nil
}

// Receive adds newly received stock (catalog write path)
func (r *StockRecord) Receive(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Receive quantity must be positive")
	}

	r.OnHand = r.OnHand.Add(quantity)
	r.touch()
	return nil
}

func (r *StockRecord) touch() {
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}
