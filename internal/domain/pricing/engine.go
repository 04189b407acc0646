package pricing

import (
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds the dynamic pricing knobs. All multipliers are applied to
// the base price; the result is clamped so it never undercuts margin and
// never gouges above the configured ceiling.
type Config struct {
	ScarcitySurcharge decimal.Decimal
	DemandSurcharge   decimal.Decimal
	DemandThreshold   decimal.Decimal
	FloorMargin       decimal.Decimal
	MaxMultiplier     decimal.Decimal
}

// DefaultConfig returns the marketplace defaults: 15% scarcity surcharge,
// 10% demand surcharge above 5 sales/day, 1.2x cost floor, 1.5x ceiling.
func DefaultConfig() Config {
	return Config{
		ScarcitySurcharge: decimal.NewFromFloat(1.15),
		DemandSurcharge:   decimal.NewFromFloat(1.10),
		DemandThreshold:   decimal.NewFromInt(5),
		FloorMargin:       decimal.NewFromFloat(1.20),
		MaxMultiplier:     decimal.NewFromFloat(1.50),
	}
}

// Validate checks the config is internally coherent
func (c Config) Validate() error {
	one := decimal.NewFromInt(1)
	if c.ScarcitySurcharge.LessThan(one) || c.DemandSurcharge.LessThan(one) {
		return shared.NewDomainError("INVALID_PRICING_CONFIG", "Surcharges must be at least 1")
	}
	if c.FloorMargin.LessThan(one) {
		return shared.NewDomainError("INVALID_PRICING_CONFIG", "Floor margin must be at least 1")
	}
	if c.MaxMultiplier.LessThan(one) {
		return shared.NewDomainError("INVALID_PRICING_CONFIG", "Max multiplier must be at least 1")
	}
	if c.DemandThreshold.IsNegative() {
		return shared.NewDomainError("INVALID_PRICING_CONFIG", "Demand threshold cannot be negative")
	}
	return nil
}

// Snapshot is the point-in-time input to a price computation. It carries
// everything the engine reads so the same snapshot always prices the same.
type Snapshot struct {
	ProductID    uuid.UUID
	BasePrice    decimal.Decimal
	Cost         decimal.Decimal
	OnHand       decimal.Decimal
	MinQuantity  decimal.Decimal
	SaleVelocity decimal.Decimal
}

// Quote is the priced result with the factors that produced it
type Quote struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Price          decimal.Decimal `json:"price"`
	BasePrice      decimal.Decimal `json:"base_price"`
	ScarcityFactor decimal.Decimal `json:"scarcity_factor"`
	DemandFactor   decimal.Decimal `json:"demand_factor"`
	Clamped        bool            `json:"clamped"`
}

// Engine computes dynamic prices. It is pure: no clocks, no I/O, no
// stored state, so quotes are safe to cache and replay.
type Engine struct {
	cfg Config
}

// NewEngine creates a pricing engine with the given config
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Price computes the quote for a snapshot. Scarcity applies when on-hand
// stock is at or below the product's minimum quantity; demand applies when
// sale velocity exceeds the threshold. The raw price is clamped to
// [cost * floor_margin, base_price * max_multiplier].
func (e *Engine) Price(s Snapshot) Quote {
	one := decimal.NewFromInt(1)

	scarcity := one
	if s.OnHand.LessThanOrEqual(s.MinQuantity) {
		scarcity = e.cfg.ScarcitySurcharge
	}

	demand := one
	if s.SaleVelocity.GreaterThan(e.cfg.DemandThreshold) {
		demand = e.cfg.DemandSurcharge
	}

	raw := s.BasePrice.Mul(scarcity).Mul(demand)

	floor := s.Cost.Mul(e.cfg.FloorMargin)
	ceiling := s.BasePrice.Mul(e.cfg.MaxMultiplier)

	price := raw
	clamped := false
	// Floor wins when the band is inverted (cost floor above the
	// ceiling); the marketplace never sells below margin.
	if price.GreaterThan(ceiling) {
		price = ceiling
		clamped = true
	}
	if price.LessThan(floor) {
		price = floor
		clamped = true
	}

	return Quote{
		ProductID:      s.ProductID,
		Price:          price.Round(2),
		BasePrice:      s.BasePrice,
		ScarcityFactor: scarcity,
		DemandFactor:   demand,
		Clamped:        clamped,
	}
}
