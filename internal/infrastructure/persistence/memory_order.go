package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/autoparts/backend/internal/domain/order"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-process order store with version-checked
// saves
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*order.Order
}

// NewMemoryOrderRepository creates an empty in-memory order store
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[uuid.UUID]*order.Order),
	}
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = make([]order.Item, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}

// Create persists a new order with its items
func (r *MemoryOrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return shared.ErrAlreadyExists
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

// FindByID retrieves an order with its items
func (r *MemoryOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneOrder(o), nil
}

// FindByStatus lists orders in a given status, newest first
func (r *MemoryOrderRepository) FindByStatus(_ context.Context, status order.Status, limit int) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*order.Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, cloneOrder(o))
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

// Save persists changes only when the stored version matches what the
// caller read
func (r *MemoryOrderRepository) Save(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[o.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != o.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}
