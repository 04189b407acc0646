package catalog

import (
	"context"
	"time"

	"github.com/autoparts/backend/internal/domain/catalog"
	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/pricing"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/autoparts/backend/internal/infrastructure/cache"
	"github.com/autoparts/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CacheOptions tunes the quote cache and the product batch loader
type CacheOptions struct {
	QuoteTTL     time.Duration
	LoaderWindow time.Duration
	LoaderBatch  int
}

// Service serves product reads: live availability, dynamic price quotes
// and shop listings. Quotes are expensive to assemble, so they flow
// through a coalescing cache; product rows for concurrent requests are
// collected into batched repository queries.
type Service struct {
	products   catalog.ProductRepository
	ledger     inventory.Ledger
	popularity cache.PopularityStore
	engine     *pricing.Engine
	metrics    *telemetry.BusinessMetrics
	logger     *zap.Logger

	quotes   *cache.Cache[uuid.UUID, pricing.Quote]
	listings *cache.Cache[string, []ProductSummary]
	loader   *cache.Loader[uuid.UUID, catalog.Product]
}

// NewService creates a catalog service with its caches wired
func NewService(
	products catalog.ProductRepository,
	ledger inventory.Ledger,
	popularity cache.PopularityStore,
	engine *pricing.Engine,
	opts CacheOptions,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.QuoteTTL == 0 {
		opts.QuoteTTL = 5 * time.Minute
	}
	if opts.LoaderWindow == 0 {
		opts.LoaderWindow = 2 * time.Millisecond
	}

	s := &Service{
		products:   products,
		ledger:     ledger,
		popularity: popularity,
		engine:     engine,
		logger:     logger,
	}

	s.loader = cache.NewLoader(s.batchLoadProducts, opts.LoaderWindow, opts.LoaderBatch)
	s.quotes = cache.NewCache(s.computeQuote, opts.QuoteTTL)
	s.listings = cache.NewCache(s.computeListing, opts.QuoteTTL)
	return s
}

// SetMetrics attaches business metrics recording
func (s *Service) SetMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

func (s *Service) batchLoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error) {
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]catalog.Product, len(found))
	for _, p := range found {
		out[p.ID] = p
	}
	return out, nil
}

// computeQuote assembles the pricing snapshot for one product: the product
// row, live stock counters and the demand signal, then prices it
func (s *Service) computeQuote(ctx context.Context, productID uuid.UUID) (pricing.Quote, error) {
	s.metrics.RecordPriceCacheMiss(ctx)

	p, err := s.loader.Load(ctx, productID)
	if err != nil {
		s.metrics.RecordPriceComputeFailure(ctx)
		return pricing.Quote{}, err
	}

	snap, err := s.ledger.Snapshot(ctx, productID)
	if err != nil {
		s.metrics.RecordPriceComputeFailure(ctx)
		return pricing.Quote{}, err
	}

	velocity := p.SaleVelocity
	if s.popularity != nil {
		if v, err := s.popularity.SaleVelocity(ctx, productID); err == nil && v.GreaterThan(decimal.Zero) {
			velocity = v
		}
	}

	return s.engine.Price(pricing.Snapshot{
		ProductID:    productID,
		BasePrice:    p.BasePrice,
		Cost:         p.Cost,
		OnHand:       snap.OnHand,
		MinQuantity:  p.MinQuantity,
		SaleVelocity: velocity,
	}), nil
}

func (s *Service) computeListing(ctx context.Context, shopID string) ([]ProductSummary, error) {
	found, err := s.products.FindByShop(ctx, shopID, 100)
	if err != nil {
		return nil, err
	}

	out := make([]ProductSummary, 0, len(found))
	for _, p := range found {
		quote, err := s.Quote(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		available, err := s.ledger.Available(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ProductSummary{
			ID:        p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Price:     quote.Price,
			Available: available,
		})
	}
	return out, nil
}

// Quote returns the dynamic price for a product. Concurrent callers for
// the same product share one computation; a failed computation is not
// cached, so the next call retries.
func (s *Service) Quote(ctx context.Context, productID uuid.UUID) (pricing.Quote, error) {
	s.metrics.RecordPriceLookup(ctx)
	return s.quotes.Get(ctx, productID)
}

// InvalidateQuote drops the cached quote for a product after its stock or
// pricing inputs changed
func (s *Service) InvalidateQuote(productID uuid.UUID) {
	s.quotes.Invalidate(productID)
}

// InvalidateAllQuotes drops every cached quote, used after bulk pricing
// config changes
func (s *Service) InvalidateAllQuotes() {
	s.quotes.Clear()
	s.listings.Clear()
}

// EvictExpired drops completed cache entries past their TTL, returning how
// many were removed. Called by the janitor sweep.
func (s *Service) EvictExpired() int {
	return s.quotes.EvictExpired() + s.listings.EvictExpired()
}

// WarmQuotes precomputes and caches quotes for the given products, used at
// startup or ahead of a sale event. Warm-up shares in-flight computations
// with concurrent quote requests.
func (s *Service) WarmQuotes(ctx context.Context, productIDs []uuid.UUID) error {
	if err := s.quotes.Warm(ctx, productIDs); err != nil {
		return err
	}
	s.logger.Info("Price quotes warmed", zap.Int("count", len(productIDs)))
	return nil
}

// CreateProduct registers a new listing and receives its initial stock
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	p, err := catalog.NewProduct(req.SKU, req.Name, req.ShopID, req.BasePrice, req.Cost)
	if err != nil {
		return nil, err
	}
	if req.MinQuantity.GreaterThan(decimal.Zero) {
		if err := p.SetMinQuantity(req.MinQuantity); err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}

	if req.InitialStock.GreaterThan(decimal.Zero) {
		if err := s.ledger.Receive(ctx, p.ID, req.InitialStock, "initial"); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Product created",
		zap.String("product_id", p.ID.String()),
		zap.String("sku", p.SKU),
		zap.String("shop_id", p.ShopID),
	)
	return s.productResponse(ctx, p)
}

// ReceiveStock adds stock for a product and invalidates its quote
func (s *Service) ReceiveStock(ctx context.Context, productID uuid.UUID, req ReceiveStockRequest) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = "receipt"
	}
	if err := s.ledger.Receive(ctx, productID, req.Quantity, reference); err != nil {
		return nil, err
	}
	s.InvalidateQuote(productID)

	return s.productResponse(ctx, p)
}

// GetProduct returns one product with its live price and availability,
// counting the view for demand tracking
func (s *Service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	p, err := s.loader.Load(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.popularity != nil {
		if _, err := s.popularity.IncrementViews(ctx, productID); err != nil {
			s.logger.Warn("Failed to record product view",
				zap.String("product_id", productID.String()),
				zap.Error(err),
			)
		}
	}

	return s.productResponse(ctx, &p)
}

// GetProducts returns several products in one batched read
func (s *Service) GetProducts(ctx context.Context, productIDs []uuid.UUID) ([]*ProductResponse, error) {
	found, err := s.loader.LoadMany(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*ProductResponse, 0, len(found))
	for i := range found {
		resp, err := s.productResponse(ctx, &found[i])
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// ListShopProducts returns a shop's active listings through the cache
func (s *Service) ListShopProducts(ctx context.Context, shopID string) ([]ProductSummary, error) {
	if shopID == "" {
		return nil, shared.NewDomainError("INVALID_SHOP", "Shop ID cannot be empty")
	}
	return s.listings.Get(ctx, shopID)
}

// UpdateSaleVelocity records the rolling sales-per-day figure for a
// product and refreshes its quote
func (s *Service) UpdateSaleVelocity(ctx context.Context, productID uuid.UUID, perDay decimal.Decimal) error {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := p.UpdateSaleVelocity(perDay); err != nil {
		return err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return err
	}
	if s.popularity != nil {
		if err := s.popularity.SetSaleVelocity(ctx, productID, perDay); err != nil {
			s.logger.Warn("Failed to store sale velocity",
				zap.String("product_id", productID.String()),
				zap.Error(err),
			)
		}
	}
	s.InvalidateQuote(productID)
	return nil
}

func (s *Service) productResponse(ctx context.Context, p *catalog.Product) (*ProductResponse, error) {
	quote, err := s.Quote(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	snap, err := s.ledger.Snapshot(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return toProductResponse(p, quote.Price, snap.OnHand, snap.Reserved), nil
}
