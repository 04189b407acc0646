package catalog

import (
	"time"

	"github.com/autoparts/backend/internal/domain/catalog"
	"github.com/autoparts/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a new product listing
type CreateProductRequest struct {
	SKU          string          `json:"sku" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	ShopID       string          `json:"shop_id" binding:"required"`
	BasePrice    decimal.Decimal `json:"base_price" binding:"required,gt=0"`
	Cost         decimal.Decimal `json:"cost" binding:"required,gte=0"`
	MinQuantity  decimal.Decimal `json:"min_quantity"`
	InitialStock decimal.Decimal `json:"initial_stock"`
}

// ReceiveStockRequest adds stock for an existing product
type ReceiveStockRequest struct {
	Quantity  decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	Reference string          `json:"reference"`
}

// ProductResponse represents a product with its live price and availability
type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	ShopID       string          `json:"shop_id"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Price        decimal.Decimal `json:"price"`
	Available    decimal.Decimal `json:"available"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Reserved     decimal.Decimal `json:"reserved"`
	ViewCount    int64           `json:"view_count"`
	SaleVelocity decimal.Decimal `json:"sale_velocity"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductSummary is the compact listing row used by shop pages and
// recommendations
type ProductSummary struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available decimal.Decimal `json:"available"`
}

// QuoteResponse exposes a price quote with its factors
type QuoteResponse struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Price          decimal.Decimal `json:"price"`
	BasePrice      decimal.Decimal `json:"base_price"`
	ScarcityFactor decimal.Decimal `json:"scarcity_factor"`
	DemandFactor   decimal.Decimal `json:"demand_factor"`
	Clamped        bool            `json:"clamped"`
}

// ToQuoteResponse converts a pricing quote to its API representation
func ToQuoteResponse(q pricing.Quote) *QuoteResponse {
	return &QuoteResponse{
		ProductID:      q.ProductID,
		Price:          q.Price,
		BasePrice:      q.BasePrice,
		ScarcityFactor: q.ScarcityFactor,
		DemandFactor:   q.DemandFactor,
		Clamped:        q.Clamped,
	}
}

func toProductResponse(p *catalog.Product, price, onHand, reserved decimal.Decimal) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		ShopID:       p.ShopID,
		BasePrice:    p.BasePrice,
		Price:        price,
		Available:    onHand.Sub(reserved),
		OnHand:       onHand,
		Reserved:     reserved,
		ViewCount:    p.ViewCount,
		SaleVelocity: p.SaleVelocity,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
