package handler

import (
	"github.com/autoparts/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles catalog HTTP requests
type ProductHandler struct {
	BaseHandler
	service *catalog.Service
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service *catalog.Service) *ProductHandler {
	return &ProductHandler{service: service}
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	resp, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Quote handles GET /api/v1/products/:id/quote
func (h *ProductHandler) Quote(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	quote, err := h.service.Quote(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalog.ToQuoteResponse(quote))
}

// ReceiveStock handles POST /api/v1/products/:id/stock
func (h *ProductHandler) ReceiveStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req catalog.ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.ReceiveStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByShop handles GET /api/v1/shops/:id/products
func (h *ProductHandler) ListByShop(c *gin.Context) {
	shopID := c.Param("id")

	resp, err := h.service.ListShopProducts(c.Request.Context(), shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
