package catalog_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	appcatalog "github.com/autoparts/backend/internal/application/catalog"
	"github.com/autoparts/backend/internal/domain/catalog"
	"github.com/autoparts/backend/internal/domain/pricing"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/autoparts/backend/internal/infrastructure/cache"
	"github.com/autoparts/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProductRepo counts batch reads to observe caching and batching.
type countingProductRepo struct {
	catalog.ProductRepository
	batchCalls atomic.Int32
}

func (r *countingProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	r.batchCalls.Add(1)
	return r.ProductRepository.FindByIDs(ctx, ids)
}

type catalogFixture struct {
	products   *countingProductRepo
	ledger     *persistence.MemoryLedger
	popularity *cache.MemoryPopularityStore
	service    *appcatalog.Service
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.DefaultConfig())
	require.NoError(t, err)

	products := &countingProductRepo{ProductRepository: persistence.NewMemoryProductRepository()}
	ledger := persistence.NewMemoryLedger(nil)
	popularity := cache.NewMemoryPopularityStore()
	service := appcatalog.NewService(products, ledger, popularity, engine, appcatalog.CacheOptions{
		QuoteTTL:     time.Minute,
		LoaderWindow: time.Millisecond,
	}, nil)
	return &catalogFixture{
		products:   products,
		ledger:     ledger,
		popularity: popularity,
		service:    service,
	}
}

func (f *catalogFixture) createProduct(t *testing.T, sku string, basePrice, cost float64, stock int64) *appcatalog.ProductResponse {
	t.Helper()
	resp, err := f.service.CreateProduct(context.Background(), appcatalog.CreateProductRequest{
		SKU:          sku,
		Name:         "Part " + sku,
		ShopID:       "shop-1",
		BasePrice:    decimal.NewFromFloat(basePrice),
		Cost:         decimal.NewFromFloat(cost),
		MinQuantity:  decimal.NewFromInt(5),
		InitialStock: decimal.NewFromInt(stock),
	})
	require.NoError(t, err)
	return resp
}

func TestService_CreateProduct(t *testing.T) {
	f := newCatalogFixture(t)

	resp := f.createProduct(t, "BRK-100", 100, 50, 20)

	assert.Equal(t, "BRK-100", resp.SKU)
	assert.True(t, decimal.NewFromInt(100).Equal(resp.BasePrice))
	assert.True(t, decimal.NewFromInt(20).Equal(resp.OnHand))
	assert.True(t, decimal.NewFromInt(20).Equal(resp.Available))
	assert.True(t, decimal.NewFromInt(100).Equal(resp.Price), "ample stock prices at base")
	assert.True(t, resp.Active)

	t.Run("duplicate sku is rejected", func(t *testing.T) {
		_, err := f.service.CreateProduct(context.Background(), appcatalog.CreateProductRequest{
			SKU:       "BRK-100",
			Name:      "Duplicate",
			ShopID:    "shop-1",
			BasePrice: decimal.NewFromInt(10),
			Cost:      decimal.NewFromInt(5),
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestService_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("stale quote is served until invalidated", func(t *testing.T) {
		f := newCatalogFixture(t)
		resp := f.createProduct(t, "FLT-200", 100, 50, 20)

		quote, err := f.service.Quote(ctx, resp.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(quote.Price))

		// Drop on-hand below the scarcity threshold behind the cache's back.
		require.NoError(t, f.ledger.TryReserve(ctx, resp.ID, decimal.NewFromInt(16), "r"))
		require.NoError(t, f.ledger.Commit(ctx, resp.ID, decimal.NewFromInt(16), "r"))

		cached, err := f.service.Quote(ctx, resp.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(cached.Price), "cached quote ignores the stock change")

		f.service.InvalidateQuote(resp.ID)

		fresh, err := f.service.Quote(ctx, resp.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(115).Equal(fresh.Price), "scarcity surcharge applies after invalidation")
		assert.True(t, decimal.NewFromFloat(1.15).Equal(fresh.ScarcityFactor))
	})

	t.Run("demand signal from the popularity store overrides the product row", func(t *testing.T) {
		f := newCatalogFixture(t)
		resp := f.createProduct(t, "SPK-300", 100, 50, 20)

		require.NoError(t, f.popularity.SetSaleVelocity(ctx, resp.ID, decimal.NewFromInt(8)))
		f.service.InvalidateQuote(resp.ID)

		quote, err := f.service.Quote(ctx, resp.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(110).Equal(quote.Price), "demand surcharge from live velocity")
	})

	t.Run("quote for unknown product fails and is retried", func(t *testing.T) {
		f := newCatalogFixture(t)
		missing := uuid.New()

		_, err := f.service.Quote(ctx, missing)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrComputationFailed)

		// The failure was not cached; the next call hits the repository again.
		before := f.products.batchCalls.Load()
		_, err = f.service.Quote(ctx, missing)
		require.Error(t, err)
		assert.Greater(t, f.products.batchCalls.Load(), before)
	})

	t.Run("warm primes the cache without a lookup on read", func(t *testing.T) {
		f := newCatalogFixture(t)
		resp := f.createProduct(t, "WRM-400", 100, 50, 20)

		require.NoError(t, f.service.WarmQuotes(ctx, []uuid.UUID{resp.ID}))

		before := f.products.batchCalls.Load()
		quote, err := f.service.Quote(ctx, resp.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(quote.Price))
		assert.Equal(t, before, f.products.batchCalls.Load(), "warmed quote served without recompute")
	})
}

func TestService_GetProducts(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)

	a := f.createProduct(t, "A-1", 100, 50, 10)
	b := f.createProduct(t, "B-2", 200, 90, 10)
	c := f.createProduct(t, "C-3", 300, 120, 10)

	before := f.products.batchCalls.Load()
	out, err := f.service.GetProducts(ctx, []uuid.UUID{a.ID, b.ID, c.ID})

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, a.ID, out[0].ID)
	assert.Equal(t, b.ID, out[1].ID)
	assert.Equal(t, c.ID, out[2].ID)
	assert.Equal(t, before+1, f.products.batchCalls.Load(), "one batched read for all products")

	t.Run("unknown id fails the whole read", func(t *testing.T) {
		_, err := f.service.GetProducts(ctx, []uuid.UUID{a.ID, uuid.New()})
		assert.Error(t, err)
	})
}

func TestService_GetProduct(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)
	resp := f.createProduct(t, "VW-500", 100, 50, 10)

	got, err := f.service.GetProduct(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)

	_, err = f.service.GetProduct(ctx, resp.ID)
	require.NoError(t, err)

	views, err := f.popularity.Views(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), views)
}

func TestService_ListShopProducts(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)
	f.createProduct(t, "SH-1", 100, 50, 10)
	f.createProduct(t, "SH-2", 200, 90, 3)

	listing, err := f.service.ListShopProducts(ctx, "shop-1")
	require.NoError(t, err)
	require.Len(t, listing, 2)
	for _, row := range listing {
		assert.NotEmpty(t, row.SKU)
		assert.False(t, row.Price.IsZero())
	}

	t.Run("empty shop id is rejected", func(t *testing.T) {
		_, err := f.service.ListShopProducts(ctx, "")
		assert.Error(t, err)
	})

	t.Run("unknown shop lists empty", func(t *testing.T) {
		listing, err := f.service.ListShopProducts(ctx, "shop-404")
		require.NoError(t, err)
		assert.Empty(t, listing)
	})
}

func TestService_ReceiveStock(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)
	resp := f.createProduct(t, "RCV-600", 100, 50, 2)

	// Scarce at creation time.
	quote, err := f.service.Quote(ctx, resp.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(115).Equal(quote.Price))

	updated, err := f.service.ReceiveStock(ctx, resp.ID, appcatalog.ReceiveStockRequest{
		Quantity: decimal.NewFromInt(18),
	})

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(updated.OnHand))
	assert.True(t, decimal.NewFromInt(100).Equal(updated.Price), "restock clears the scarcity surcharge")
}

func TestService_UpdateSaleVelocity(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)
	resp := f.createProduct(t, "VEL-700", 100, 50, 20)

	quote, err := f.service.Quote(ctx, resp.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(quote.Price))

	require.NoError(t, f.service.UpdateSaleVelocity(ctx, resp.ID, decimal.NewFromInt(9)))

	fresh, err := f.service.Quote(ctx, resp.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(110).Equal(fresh.Price), "velocity update reprices immediately")
}
