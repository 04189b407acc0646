package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MemoryReservationRepository is an in-process ReservationRepository.
// CompareAndSetStatus holds the store mutex across check and write, which
// gives the same one-winner guarantee the SQL implementation gets from a
// conditional UPDATE.
type MemoryReservationRepository struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]*inventory.Reservation
}

// NewMemoryReservationRepository creates an empty in-memory reservation store
func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		reservations: make(map[uuid.UUID]*inventory.Reservation),
	}
}

// Create persists a new reservation
func (r *MemoryReservationRepository) Create(_ context.Context, res *inventory.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reservations[res.ID]; exists {
		return shared.ErrAlreadyExists
	}
	cp := *res
	r.reservations[res.ID] = &cp
	return nil
}

// FindByID finds a reservation by its ID
func (r *MemoryReservationRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.reservations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

// FindByOrderDraft finds all reservations created for an order draft
func (r *MemoryReservationRepository) FindByOrderDraft(_ context.Context, orderDraftID uuid.UUID) ([]inventory.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []inventory.Reservation
	for _, res := range r.reservations {
		if res.OrderDraftID == orderDraftID {
			out = append(out, *res)
		}
	}
	return out, nil
}

// CompareAndSetStatus transitions status from `from` to `to` atomically
func (r *MemoryReservationRepository) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to inventory.ReservationStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.reservations[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if res.Status != from {
		return false, nil
	}
	res.Status = to
	res.UpdatedAt = time.Now()
	return true, nil
}

// FindExpired returns ACTIVE reservations whose deadline has passed
func (r *MemoryReservationRepository) FindExpired(_ context.Context, now time.Time) ([]inventory.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []inventory.Reservation
	for _, res := range r.reservations {
		if res.Status == inventory.ReservationStatusActive && res.IsExpiredAt(now) {
			out = append(out, *res)
		}
	}
	return out, nil
}

// DeleteTerminalBefore garbage-collects old terminal reservations
func (r *MemoryReservationRepository) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, res := range r.reservations {
		if res.Status.IsTerminal() && res.UpdatedAt.Before(cutoff) {
			delete(r.reservations, id)
			removed++
		}
	}
	return removed, nil
}

// MemoryMovementRepository is an in-process append-only movement log
type MemoryMovementRepository struct {
	mu        sync.RWMutex
	movements []inventory.Movement
}

// NewMemoryMovementRepository creates an empty in-memory movement log
func NewMemoryMovementRepository() *MemoryMovementRepository {
	return &MemoryMovementRepository{}
}

// Append stores one movement row
func (r *MemoryMovementRepository) Append(_ context.Context, movement *inventory.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *movement)
	return nil
}

// FindByProduct returns movements for a product, newest first
func (r *MemoryMovementRepository) FindByProduct(_ context.Context, productID uuid.UUID, limit int) ([]inventory.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []inventory.Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == productID {
			out = append(out, r.movements[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// MemoryStockRecordRepository is an in-process StockRecordRepository with
// version-checked saves
type MemoryStockRecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*inventory.StockRecord // keyed by product id
}

// NewMemoryStockRecordRepository creates an empty in-memory stock record store
func NewMemoryStockRecordRepository() *MemoryStockRecordRepository {
	return &MemoryStockRecordRepository{
		records: make(map[uuid.UUID]*inventory.StockRecord),
	}
}

// FindByProduct finds the stock record for a product
func (r *MemoryStockRecordRepository) FindByProduct(_ context.Context, productID uuid.UUID) (*inventory.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Save creates or updates a stock record without a version check
func (r *MemoryStockRecordRepository) Save(_ context.Context, record *inventory.StockRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *record
	r.records[record.ProductID] = &cp
	return nil
}

// SaveWithLock saves only when the stored version matches the version the
// caller read, mirroring the SQL optimistic lock
func (r *MemoryStockRecordRepository) SaveWithLock(_ context.Context, record *inventory.StockRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[record.ProductID]
	if !ok {
		cp := *record
		r.records[record.ProductID] = &cp
		return nil
	}
	// The caller incremented the version before saving; the stored row
	// must still be one behind.
	if current.Version != record.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	cp := *record
	r.records[record.ProductID] = &cp
	return nil
}
