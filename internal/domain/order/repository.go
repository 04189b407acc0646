package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for orders
type Repository interface {
	// Create persists a new order with its items
	Create(ctx context.Context, o *Order) error

	// FindByID retrieves an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByStatus lists orders in a given status, newest first
	FindByStatus(ctx context.Context, status Status, limit int) ([]*Order, error)

	// Save persists changes using optimistic locking; returns
	// shared.ErrConcurrencyConflict when the version check fails
	Save(ctx context.Context, o *Order) error
}
