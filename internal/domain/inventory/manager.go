package inventory

import (
	"context"
	"time"

	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultHoldDuration is the default reservation hold (30 minutes)
	DefaultHoldDuration = 30 * time.Minute
)

// ReservationManager creates, commits, releases and expires time-bounded
// holds against the stock ledger. Every status change is a compare-and-set
// on the reservation row, so a race between expiry and commit/release
// resolves to exactly one winner with no double effect on the ledger.
type ReservationManager struct {
	ledger Ledger
	repo   ReservationRepository
	logger *zap.Logger
}

// NewReservationManager creates a new ReservationManager
func NewReservationManager(ledger Ledger, repo ReservationRepository, logger *zap.Logger) *ReservationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationManager{
		ledger: ledger,
		repo:   repo,
		logger: logger,
	}
}

// Reserve claims stock for one line item and records an ACTIVE reservation
// expiring after the hold duration. Fails with shared.ErrInsufficientStock
// when the ledger cannot cover the quantity; no partial effect remains.
func (m *ReservationManager) Reserve(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, orderDraftID uuid.UUID, hold time.Duration) (*Reservation, error) {
	if hold <= 0 {
		hold = DefaultHoldDuration
	}

	res, err := NewReservation(productID, quantity, orderDraftID, hold)
	if err != nil {
		return nil, err
	}

	if err := m.ledger.TryReserve(ctx, productID, quantity, res.ID.String()); err != nil {
		return nil, err
	}

	if err := m.repo.Create(ctx, res); err != nil {
		// The hold was taken but the row cannot be recorded; give the
		// stock back so the ledger stays consistent.
		if relErr := m.ledger.Release(ctx, productID, quantity, res.ID.String()); relErr != nil {
			m.logger.Error("Failed to release stock after reservation create failure",
				zap.String("product_id", productID.String()),
				zap.String("reservation_id", res.ID.String()),
				zap.Error(relErr),
			)
		}
		return nil, err
	}

	m.logger.Debug("Reservation created",
		zap.String("reservation_id", res.ID.String()),
		zap.String("product_id", productID.String()),
		zap.String("quantity", quantity.String()),
		zap.Time("expires_at", res.ExpiresAt),
	)

	return res, nil
}

// Commit converts an ACTIVE reservation into a permanent sale.
// Committing a non-ACTIVE reservation fails without side effects.
func (m *ReservationManager) Commit(ctx context.Context, reservationID uuid.UUID) error {
	res, err := m.repo.FindByID(ctx, reservationID)
	if err != nil {
		return err
	}

	won, err := m.repo.CompareAndSetStatus(ctx, reservationID, ReservationStatusActive, ReservationStatusCommitted)
	if err != nil {
		return err
	}
	if !won {
		return shared.ErrInvalidReservationState
	}

	return m.ledger.Commit(ctx, res.ProductID, res.Quantity, res.ID.String())
}

// Release abandons an ACTIVE reservation, returning the hold to available
// stock. A second release of the same reservation fails cleanly with no
// double decrement.
func (m *ReservationManager) Release(ctx context.Context, reservationID uuid.UUID) error {
	res, err := m.repo.FindByID(ctx, reservationID)
	if err != nil {
		return err
	}

	won, err := m.repo.CompareAndSetStatus(ctx, reservationID, ReservationStatusActive, ReservationStatusReleased)
	if err != nil {
		return err
	}
	if !won {
		return shared.ErrInvalidReservationState
	}

	return m.ledger.Release(ctx, res.ProductID, res.Quantity, res.ID.String())
}

// ExpireDue finds ACTIVE reservations past their deadline, releases their
// stock and marks them EXPIRED. Safe to call concurrently with reserve,
// commit and release: each reservation transitions through the same
// compare-and-set, so a hold that commits while the sweep runs is skipped.
// Returns the number of reservations expired.
func (m *ReservationManager) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := m.repo.FindExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	expired := 0
	for i := range due {
		res := &due[i]
		won, err := m.repo.CompareAndSetStatus(ctx, res.ID, ReservationStatusActive, ReservationStatusExpired)
		if err != nil {
			m.logger.Error("Failed to expire reservation",
				zap.String("reservation_id", res.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !won {
			// Lost the race to a commit or release; nothing to undo.
			continue
		}

		if err := m.ledger.Release(ctx, res.ProductID, res.Quantity, res.ID.String()); err != nil {
			m.logger.Error("Failed to release stock for expired reservation",
				zap.String("reservation_id", res.ID.String()),
				zap.String("product_id", res.ProductID.String()),
				zap.Error(err),
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		m.logger.Info("Expired stale reservations",
			zap.Int("count", expired),
			zap.Int("due", len(due)),
		)
	}

	return expired, nil
}

// PurgeTerminal garbage-collects terminal reservations older than the
// retention window. Returns how many rows were removed.
func (m *ReservationManager) PurgeTerminal(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return m.repo.DeleteTerminalBefore(ctx, now.Add(-retention))
}
