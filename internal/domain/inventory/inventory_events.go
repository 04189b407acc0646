package inventory

import (
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the inventory ledger
const (
	EventTypeStockReserved      = "inventory.stock_reserved"
	EventTypeStockCommitted     = "inventory.stock_committed"
	EventTypeStockReleased      = "inventory.stock_released"
	EventTypeStockRestored      = "inventory.stock_restored"
	EventTypeReservationExpired = "inventory.reservation_expired"
)

// StockCounterEvent carries the counter change for any ledger mutation
type StockCounterEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Reserved  decimal.Decimal `json:"reserved"`
}

func newStockCounterEvent(eventType string, r *StockRecord, quantity decimal.Decimal) *StockCounterEvent {
	return &StockCounterEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "StockRecord", r.ID),
		ProductID:       r.ProductID,
		Quantity:        quantity,
		OnHand:          r.OnHand,
		Reserved:        r.Reserved,
	}
}

// NewStockReservedEvent is emitted when a hold claims available stock
func NewStockReservedEvent(r *StockRecord, quantity decimal.Decimal) *StockCounterEvent {
	return newStockCounterEvent(EventTypeStockReserved, r, quantity)
}

// NewStockCommittedEvent is emitted when a hold becomes a permanent sale
func NewStockCommittedEvent(r *StockRecord, quantity decimal.Decimal) *StockCounterEvent {
	return newStockCounterEvent(EventTypeStockCommitted, r, quantity)
}

// NewStockReleasedEvent is emitted when a hold is abandoned
func NewStockReleasedEvent(r *StockRecord, quantity decimal.Decimal) *StockCounterEvent {
	return newStockCounterEvent(EventTypeStockReleased, r, quantity)
}

// NewStockRestoredEvent is emitted when sold stock returns to on-hand
func NewStockRestoredEvent(r *StockRecord, quantity decimal.Decimal) *StockCounterEvent {
	return newStockCounterEvent(EventTypeStockRestored, r, quantity)
}

// ReservationExpiredEvent is emitted by the expiry sweep for each hold it releases
type ReservationExpiredEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID       `json:"product_id"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// NewReservationExpiredEvent creates an expiry event for a reservation
func NewReservationExpiredEvent(res *Reservation) *ReservationExpiredEvent {
	return &ReservationExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationExpired, "Reservation", res.ID),
		ProductID:       res.ProductID,
		ReservationID:   res.ID,
		Quantity:        res.Quantity,
	}
}
