package inventory

import (
	"time"

	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus represents the lifecycle state of a stock reservation
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCommitted ReservationStatus = "COMMITTED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
)

// IsTerminal returns true for statuses that can never change again
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCommitted || s == ReservationStatusReleased || s == ReservationStatusExpired
}

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// Reservation is a time-bounded hold against a product's available stock.
// One row per line item per checkout attempt; rows are append-only and kept
// for audit until the retention sweep removes terminal ones.
type Reservation struct {
	shared.BaseEntity
	ProductID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Quantity     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	OrderDraftID uuid.UUID         `gorm:"type:uuid;not null;index"`
	ExpiresAt    time.Time         `gorm:"not null;index"`
	Status       ReservationStatus `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (Reservation) TableName() string {
	return "stock_reservations"
}

// NewReservation creates an active reservation expiring after the hold duration
func NewReservation(productID uuid.UUID, quantity decimal.Decimal, orderDraftID uuid.UUID, hold time.Duration) (*Reservation, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}
	if hold <= 0 {
		return nil, shared.NewDomainError("INVALID_HOLD", "Hold duration must be positive")
	}

	base := shared.NewBaseEntity()
	return &Reservation{
		BaseEntity:   base,
		ProductID:    productID,
		Quantity:     quantity,
		OrderDraftID: orderDraftID,
		ExpiresAt:    base.CreatedAt.Add(hold),
		Status:       ReservationStatusActive,
	}, nil
}

// IsActive returns true while the hold can still be committed or released
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// IsExpiredAt returns true if the hold deadline has passed at the given time
func (r *Reservation) IsExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
