package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates an active product", func(t *testing.T) {
		p, err := NewProduct("BRK-100", "Front Brake Pad", "shop-1",
			decimal.NewFromInt(100), decimal.NewFromInt(60))

		require.NoError(t, err)
		assert.Equal(t, "BRK-100", p.SKU)
		assert.Equal(t, "shop-1", p.ShopID)
		assert.True(t, p.Active)
		assert.True(t, p.MinQuantity.IsZero())
		assert.True(t, p.SaleVelocity.IsZero())
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name      string
			sku       string
			prodName  string
			basePrice decimal.Decimal
			cost      decimal.Decimal
		}{
			{"empty sku", "", "Pad", decimal.NewFromInt(100), decimal.NewFromInt(60)},
			{"empty name", "BRK-100", "", decimal.NewFromInt(100), decimal.NewFromInt(60)},
			{"zero price", "BRK-100", "Pad", decimal.Zero, decimal.Zero},
			{"negative cost", "BRK-100", "Pad", decimal.NewFromInt(100), decimal.NewFromInt(-1)},
			{"cost above price", "BRK-100", "Pad", decimal.NewFromInt(100), decimal.NewFromInt(120)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewProduct(tt.sku, tt.prodName, "shop-1", tt.basePrice, tt.cost)
				assert.Error(t, err)
			})
		}
	})
}

func TestProduct_UpdatePricing(t *testing.T) {
	p, err := NewProduct("BRK-100", "Pad", "shop-1", decimal.NewFromInt(100), decimal.NewFromInt(60))
	require.NoError(t, err)
	version := p.Version

	require.NoError(t, p.UpdatePricing(decimal.NewFromInt(120), decimal.NewFromInt(70)))
	assert.True(t, decimal.NewFromInt(120).Equal(p.BasePrice))
	assert.Equal(t, version+1, p.Version)

	assert.Error(t, p.UpdatePricing(decimal.NewFromInt(50), decimal.NewFromInt(70)),
		"cost must never exceed base price")
	assert.True(t, decimal.NewFromInt(120).Equal(p.BasePrice), "failed update leaves pricing unchanged")
}

func TestProduct_SetMinQuantity(t *testing.T) {
	p, err := NewProduct("BRK-100", "Pad", "shop-1", decimal.NewFromInt(100), decimal.NewFromInt(60))
	require.NoError(t, err)

	require.NoError(t, p.SetMinQuantity(decimal.NewFromInt(5)))
	assert.True(t, decimal.NewFromInt(5).Equal(p.MinQuantity))

	assert.Error(t, p.SetMinQuantity(decimal.NewFromInt(-1)))
}

func TestProduct_DemandTracking(t *testing.T) {
	p, err := NewProduct("BRK-100", "Pad", "shop-1", decimal.NewFromInt(100), decimal.NewFromInt(60))
	require.NoError(t, err)

	p.RecordView()
	p.RecordView()
	assert.Equal(t, int64(2), p.ViewCount)

	require.NoError(t, p.UpdateSaleVelocity(decimal.NewFromFloat(7.5)))
	assert.True(t, decimal.NewFromFloat(7.5).Equal(p.SaleVelocity))
	assert.Error(t, p.UpdateSaleVelocity(decimal.NewFromInt(-1)))
}

func TestProduct_Deactivate(t *testing.T) {
	p, err := NewProduct("BRK-100", "Pad", "shop-1", decimal.NewFromInt(100), decimal.NewFromInt(60))
	require.NoError(t, err)

	p.Deactivate()
	assert.False(t, p.Active)
}
