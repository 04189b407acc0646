package checkout

import (
	"time"

	"github.com/autoparts/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a checkout attempt
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderItem is one requested line
type CreateOrderItem struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required,gt=0"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	ReservationID uuid.UUID       `json:"reservation_id"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Items         []OrderItemResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Tax           decimal.Decimal     `json:"tax"`
	Total         decimal.Decimal     `json:"total"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	CancelReason  string              `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CancelOrderRequest carries the cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ToOrderResponse converts an order aggregate to its API representation
func ToOrderResponse(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Amount:        item.Amount(),
			ReservationID: item.ReservationID,
		}
	}
	return &OrderResponse{
		ID:            o.ID,
		Items:         items,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		Total:         o.Total,
		Status:        o.Status.String(),
		PaymentStatus: string(o.PaymentStatus),
		CancelReason:  o.CancelReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
