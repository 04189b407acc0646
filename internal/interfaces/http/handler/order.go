package handler

import (
	"context"
	"strconv"

	"github.com/autoparts/backend/internal/application/checkout"
	"github.com/autoparts/backend/internal/domain/order"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles order lifecycle HTTP requests
type OrderHandler struct {
	BaseHandler
	service *checkout.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *checkout.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req checkout.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	resp, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /api/v1/orders?status=PENDING&limit=50
func (h *OrderHandler) List(c *gin.Context) {
	status := order.Status(c.DefaultQuery("status", string(order.StatusPending)))

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	resp, err := h.service.ListOrdersByStatus(c.Request.Context(), status, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Confirm handles POST /api/v1/orders/:id/confirm
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.lifecycle(c, h.service.ConfirmOrder)
}

// Cancel handles POST /api/v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req checkout.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Pay handles POST /api/v1/orders/:id/pay
func (h *OrderHandler) Pay(c *gin.Context) {
	h.lifecycle(c, h.service.MarkPaid)
}

// Process handles POST /api/v1/orders/:id/process
func (h *OrderHandler) Process(c *gin.Context) {
	h.lifecycle(c, h.service.StartProcessing)
}

// Ship handles POST /api/v1/orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	h.lifecycle(c, h.service.MarkShipped)
}

// Deliver handles POST /api/v1/orders/:id/deliver
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.lifecycle(c, h.service.MarkDelivered)
}

// Refund handles POST /api/v1/orders/:id/refund
func (h *OrderHandler) Refund(c *gin.Context) {
	h.lifecycle(c, h.service.RefundOrder)
}

func (h *OrderHandler) lifecycle(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*checkout.OrderResponse, error)) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	resp, err := op(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
