package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func snapshot(basePrice, cost float64, onHand, minQty int64, velocity float64) Snapshot {
	return Snapshot{
		ProductID:    uuid.New(),
		BasePrice:    decimal.NewFromFloat(basePrice),
		Cost:         decimal.NewFromFloat(cost),
		OnHand:       decimal.NewFromInt(onHand),
		MinQuantity:  decimal.NewFromInt(minQty),
		SaleVelocity: decimal.NewFromFloat(velocity),
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("rejects surcharge below one", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScarcitySurcharge = decimal.NewFromFloat(0.9)
		_, err := NewEngine(cfg)
		require.Error(t, err)
	})

	t.Run("rejects floor margin below one", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FloorMargin = decimal.NewFromFloat(0.5)
		_, err := NewEngine(cfg)
		require.Error(t, err)
	})
}

func TestEngine_Price(t *testing.T) {
	e := newTestEngine(t)

	t.Run("base price when stock is plentiful and demand is calm", func(t *testing.T) {
		q := e.Price(snapshot(100, 60, 50, 5, 2))

		assert.True(t, decimal.NewFromInt(100).Equal(q.Price), "got %s", q.Price)
		assert.True(t, decimal.NewFromInt(1).Equal(q.ScarcityFactor))
		assert.True(t, decimal.NewFromInt(1).Equal(q.DemandFactor))
		assert.False(t, q.Clamped)
	})

	t.Run("scarcity surcharge at or below min quantity", func(t *testing.T) {
		q := e.Price(snapshot(100, 60, 5, 5, 0))

		assert.True(t, decimal.NewFromFloat(1.15).Equal(q.ScarcityFactor))
		assert.True(t, decimal.NewFromInt(115).Equal(q.Price), "got %s", q.Price)
	})

	t.Run("demand surcharge above velocity threshold", func(t *testing.T) {
		q := e.Price(snapshot(100, 60, 50, 5, 6))

		assert.True(t, decimal.NewFromFloat(1.10).Equal(q.DemandFactor))
		assert.True(t, decimal.NewFromInt(110).Equal(q.Price), "got %s", q.Price)
	})

	t.Run("velocity exactly at threshold stays calm", func(t *testing.T) {
		q := e.Price(snapshot(100, 60, 50, 5, 5))

		assert.True(t, decimal.NewFromInt(1).Equal(q.DemandFactor))
	})

	t.Run("both surcharges stack", func(t *testing.T) {
		q := e.Price(snapshot(100, 60, 3, 5, 10))

		// 100 * 1.15 * 1.10 = 126.5, within [72, 150]
		assert.True(t, decimal.NewFromFloat(126.5).Equal(q.Price), "got %s", q.Price)
		assert.False(t, q.Clamped)
	})

	t.Run("price never exceeds base times max multiplier", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScarcitySurcharge = decimal.NewFromFloat(1.4)
		cfg.DemandSurcharge = decimal.NewFromFloat(1.3)
		e, err := NewEngine(cfg)
		require.NoError(t, err)

		// 100 * 1.4 * 1.3 = 182, ceiling 150
		q := e.Price(snapshot(100, 60, 1, 5, 10))

		assert.True(t, decimal.NewFromInt(150).Equal(q.Price), "got %s", q.Price)
		assert.True(t, q.Clamped)
	})

	t.Run("price never undercuts cost floor", func(t *testing.T) {
		// floor = 90 * 1.2 = 108, base price without surcharges is 100
		q := e.Price(snapshot(100, 90, 50, 5, 0))

		assert.True(t, decimal.NewFromFloat(108).Equal(q.Price), "got %s", q.Price)
		assert.True(t, q.Clamped)
	})

	t.Run("floor wins over ceiling when the band inverts", func(t *testing.T) {
		// floor = 95 * 1.2 = 114; ceiling with max 1.1 would be 110
		cfg := DefaultConfig()
		cfg.MaxMultiplier = decimal.NewFromFloat(1.1)
		e, err := NewEngine(cfg)
		require.NoError(t, err)

		q := e.Price(snapshot(100, 95, 50, 5, 0))

		assert.True(t, decimal.NewFromFloat(114).Equal(q.Price), "got %s", q.Price)
		assert.True(t, q.Clamped)
	})

	t.Run("same snapshot always prices the same", func(t *testing.T) {
		s := snapshot(100, 60, 3, 5, 10)
		first := e.Price(s)
		for i := 0; i < 10; i++ {
			assert.True(t, first.Price.Equal(e.Price(s).Price))
		}
	})

	t.Run("lower stock never lowers the price", func(t *testing.T) {
		prev := e.Price(snapshot(100, 60, 100, 5, 3)).Price
		for _, onHand := range []int64{50, 20, 10, 5, 1, 0} {
			cur := e.Price(snapshot(100, 60, onHand, 5, 3)).Price
			assert.True(t, cur.GreaterThanOrEqual(prev),
				"price dropped from %s to %s at on-hand %d", prev, cur, onHand)
			prev = cur
		}
	})
}
