package order

import (
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
)

// OrderCreatedEvent fires when an order is created in PENDING
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// NewOrderCreatedEvent creates an OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCreated, "Order", o.ID),
		ItemCount:       len(o.Items),
		Total:           o.Total,
	}
}

// OrderStatusChangedEvent fires on every fulfillment transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	From Status `json:"from"`
	To   Status `json:"to"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderStatusChanged, "Order", o.ID),
		From:            from,
		To:              o.Status,
	}
}

// OrderCancelledEvent fires when an order is cancelled, carrying the reason
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	From   Status `json:"from"`
	Reason string `json:"reason"`
}

// NewOrderCancelledEvent creates an OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, from Status) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCancelled, "Order", o.ID),
		From:            from,
		Reason:          o.CancelReason,
	}
}
