package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GORM-based reservation repository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Create persists a new reservation
func (r *GormReservationRepository) Create(ctx context.Context, res *inventory.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// FindByID finds a reservation by its ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Reservation, error) {
	var res inventory.Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FindByOrderDraft finds all reservations created for an order draft
func (r *GormReservationRepository) FindByOrderDraft(ctx context.Context, orderDraftID uuid.UUID) ([]inventory.Reservation, error) {
	var out []inventory.Reservation
	err := r.db.WithContext(ctx).
		Where("order_draft_id = ?", orderDraftID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompareAndSetStatus transitions the status with a conditional UPDATE;
// zero rows affected means another caller transitioned the row first
func (r *GormReservationRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to inventory.ReservationStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&inventory.Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindExpired returns ACTIVE reservations whose deadline has passed
func (r *GormReservationRepository) FindExpired(ctx context.Context, now time.Time) ([]inventory.Reservation, error) {
	var out []inventory.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", inventory.ReservationStatusActive, now).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTerminalBefore garbage-collects old terminal reservations
func (r *GormReservationRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []inventory.ReservationStatus{
			inventory.ReservationStatusCommitted,
			inventory.ReservationStatusReleased,
			inventory.ReservationStatusExpired,
		}, cutoff).
		Delete(&inventory.Reservation{})
	return result.RowsAffected, result.Error
}

// GormMovementRepository implements the append-only movement log using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GORM-based movement repository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append stores one movement row
func (r *GormMovementRepository) Append(ctx context.Context, movement *inventory.Movement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByProduct returns movements for a product, newest first
func (r *GormMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]inventory.Movement, error) {
	var out []inventory.Movement
	q := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
