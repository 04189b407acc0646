package catalog

import (
	"time"

	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is the catalog aggregate holding the pricing inputs for a sellable
// part. Stock counters (on-hand, reserved) are owned by the inventory ledger
// and never mutated through this aggregate.
type Product struct {
	shared.BaseAggregateRoot
	SKU          string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name         string          `gorm:"type:varchar(255);not null"`
	ShopID       string          `gorm:"type:varchar(64);index"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Cost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MinQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // scarcity threshold
	ViewCount    int64           `gorm:"not null;default:0"`
	SaleVelocity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // units sold per day, rolling
	Active       bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new catalog product
func NewProduct(sku, name, shopID string, basePrice, cost decimal.Decimal) (*Product, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if basePrice.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_PRICE", "Base price must be positive")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}
	if cost.GreaterThan(basePrice) {
		return nil, shared.NewDomainError("INVALID_COST", "Cost cannot exceed base price")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		ShopID:            shopID,
		BasePrice:         basePrice,
		Cost:              cost,
		MinQuantity:       decimal.Zero,
		SaleVelocity:      decimal.Zero,
		Active:            true,
	}, nil
}

// SetMinQuantity sets the scarcity threshold used by dynamic pricing
func (p *Product) SetMinQuantity(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum quantity cannot be negative")
	}
	p.MinQuantity = quantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// UpdatePricing updates the base price and cost together so the
// cost-below-price invariant holds at every point
func (p *Product) UpdatePricing(basePrice, cost decimal.Decimal) error {
	if basePrice.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_PRICE", "Base price must be positive")
	}
	if cost.IsNegative() || cost.GreaterThan(basePrice) {
		return shared.NewDomainError("INVALID_COST", "Cost must be between zero and base price")
	}
	p.BasePrice = basePrice
	p.Cost = cost
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// RecordView increments the view counter
func (p *Product) RecordView() {
	p.ViewCount++
	p.UpdatedAt = time.Now()
}

// UpdateSaleVelocity replaces the rolling sale velocity
func (p *Product) UpdateSaleVelocity(unitsPerDay decimal.Decimal) error {
	if unitsPerDay.IsNegative() {
		return shared.NewDomainError("INVALID_VELOCITY", "Sale velocity cannot be negative")
	}
	p.SaleVelocity = unitsPerDay
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate removes the product from sale without deleting it
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
