package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/autoparts/backend/internal/domain/catalog"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MemoryProductRepository is an in-process product store
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*catalog.Product
	bySKU    map[string]uuid.UUID
}

// NewMemoryProductRepository creates an empty in-memory product store
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[uuid.UUID]*catalog.Product),
		bySKU:    make(map[string]uuid.UUID),
	}
}

// FindByID finds a product by its ID
func (r *MemoryProductRepository) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// FindByIDs finds multiple products by their IDs; missing ids are simply
// absent from the result
func (r *MemoryProductRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// FindBySKU finds a product by SKU
func (r *MemoryProductRepository) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySKU[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *r.products[id]
	return &cp, nil
}

// FindByShop lists a shop's active products, newest first
func (r *MemoryProductRepository) FindByShop(_ context.Context, shopID string, limit int) ([]catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []catalog.Product
	for _, p := range r.products {
		if p.ShopID == shopID && p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Save creates or updates a product
func (r *MemoryProductRepository) Save(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.bySKU[p.SKU]; ok && existing != p.ID {
		return shared.ErrAlreadyExists
	}
	cp := *p
	r.products[p.ID] = &cp
	r.bySKU[p.SKU] = p.ID
	return nil
}
