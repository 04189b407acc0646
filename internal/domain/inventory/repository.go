package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReservationRepository defines the interface for reservation persistence.
// Status changes go through CompareAndSetStatus so a race between expiry and
// commit/release resolves to exactly one winner.
type ReservationRepository interface {
	// Create persists a new reservation
	Create(ctx context.Context, res *Reservation) error

	// FindByID finds a reservation by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindByOrderDraft finds all reservations created for an order draft
	FindByOrderDraft(ctx context.Context, orderDraftID uuid.UUID) ([]Reservation, error)

	// CompareAndSetStatus transitions the reservation's status from `from`
	// to `to` and reports whether this call won the transition. A false
	// return with nil error means another caller transitioned it first.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to ReservationStatus) (bool, error)

	// FindExpired returns ACTIVE reservations whose deadline has passed
	FindExpired(ctx context.Context, now time.Time) ([]Reservation, error)

	// DeleteTerminalBefore garbage-collects terminal reservations older
	// than the cutoff and returns how many were removed
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MovementRepository persists the append-only inventory audit trail
type MovementRepository interface {
	// Append stores one movement row
	Append(ctx context.Context, movement *Movement) error

	// FindByProduct returns movements for a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]Movement, error)
}

// StockRecordRepository defines the interface for stock record persistence
type StockRecordRepository interface {
	// FindByProduct finds the stock record for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) (*StockRecord, error)

	// Save creates or updates a stock record
	Save(ctx context.Context, record *StockRecord) error

	// SaveWithLock saves with optimistic locking (checks version);
	// returns shared.ErrConcurrencyConflict when the version check fails
	SaveWithLock(ctx context.Context, record *StockRecord) error
}
