package order

import (
	"fmt"
	"time"

	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/autoparts/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the fulfillment status of an order
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// The happy path is strictly forward; cancellation is allowed only before
// processing starts, and refund only after delivery.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipped
	case StatusShipped:
		return target == StatusDelivered
	case StatusDelivered:
		return target == StatusRefunded
	case StatusCancelled, StatusRefunded:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for states that can never change again
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// PaymentStatus tracks payment separately from fulfillment
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Item is one line of an order. UnitPrice is the dynamic price frozen when
// the order was created and is never recomputed.
type Item struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReservationID uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// Amount returns quantity times the frozen unit price
func (i Item) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Order is the aggregate root governing an order's lifecycle
type Order struct {
	shared.BaseAggregateRoot
	Items         []Item          `gorm:"foreignKey:OrderID;references:ID"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Tax           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status        Status          `gorm:"type:varchar(20);not null;index"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null"`
	CancelReason  string          `gorm:"type:varchar(255)"`
	ConfirmedAt   *time.Time
	ShippedAt     *time.Time
	DeliveredAt   *time.Time
	CancelledAt   *time.Time
	RefundedAt    *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewItem builds an order line with its frozen unit price and the
// reservation backing it
func NewItem(orderID, productID uuid.UUID, quantity decimal.Decimal, unitPrice valueobject.Money, reservationID uuid.UUID) (Item, error) {
	if productID == uuid.Nil {
		return Item{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return Item{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return Item{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if reservationID == uuid.Nil {
		return Item{}, shared.NewDomainError("INVALID_RESERVATION", "Reservation ID cannot be empty")
	}

	return Item{
		ID:            uuid.New(),
		OrderID:       orderID,
		ProductID:     productID,
		Quantity:      quantity,
		UnitPrice:     unitPrice.Amount(),
		ReservationID: reservationID,
	}, nil
}

// NewOrder creates an order in PENDING with totals computed from the
// (already priced) items and the tax rate
func NewOrder(items []Item, taxRate decimal.Decimal) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order must contain at least one item")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Items:             items,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Amount())
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(taxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax)

	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// transition moves the order to the target status or fails with
// ErrInvalidStateTransition, leaving the order unchanged
func (o *Order) transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Confirm moves PENDING to CONFIRMED after all reservations committed
func (o *Order) Confirm() error {
	if err := o.transition(StatusConfirmed); err != nil {
		return err
	}
	now := time.Now()
	o.ConfirmedAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, StatusPending))
	return nil
}

// StartProcessing moves CONFIRMED to PROCESSING (picking/packing started)
func (o *Order) StartProcessing() error {
	prev := o.Status
	if err := o.transition(StatusProcessing); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, prev))
	return nil
}

// MarkShipped moves PROCESSING to SHIPPED
func (o *Order) MarkShipped() error {
	prev := o.Status
	if err := o.transition(StatusShipped); err != nil {
		return err
	}
	now := time.Now()
	o.ShippedAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, prev))
	return nil
}

// MarkDelivered moves SHIPPED to DELIVERED
func (o *Order) MarkDelivered() error {
	prev := o.Status
	if err := o.transition(StatusDelivered); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, prev))
	return nil
}

// Cancel moves PENDING or CONFIRMED to CANCELLED, recording the reason.
// Stock compensation is handled by the checkout service.
func (o *Order) Cancel(reason string) error {
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	prev := o.Status
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	o.AddDomainEvent(NewOrderCancelledEvent(o, prev))
	return nil
}

// Refund moves DELIVERED to REFUNDED
func (o *Order) Refund() error {
	prev := o.Status
	if err := o.transition(StatusRefunded); err != nil {
		return err
	}
	now := time.Now()
	o.RefundedAt = &now
	o.PaymentStatus = PaymentRefunded
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, prev))
	return nil
}

// MarkPaid records that payment succeeded for this order
func (o *Order) MarkPaid() error {
	if o.PaymentStatus != PaymentPending {
		return shared.NewDomainError("INVALID_PAYMENT_STATE", "Order payment is not pending")
	}
	o.PaymentStatus = PaymentPaid
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// WasConfirmed reports whether the order's reservations were committed,
// which decides the compensation path on cancellation
func (o *Order) WasConfirmed() bool {
	return o.ConfirmedAt != nil
}

// ItemByProduct returns the line for a product, or nil
func (o *Order) ItemByProduct(productID uuid.UUID) *Item {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}

// TotalMoney returns the order total as Money
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.NewMoneySAR(o.Total)
}
