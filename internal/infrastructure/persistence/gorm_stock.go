package persistence

import (
	"context"
	"errors"

	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockRecordRepository implements StockRecordRepository using GORM
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GORM-based stock record repository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// FindByProduct finds the stock record for a product
func (r *GormStockRecordRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*inventory.StockRecord, error) {
	var record inventory.StockRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save creates or updates a stock record without a version check
func (r *GormStockRecordRepository) Save(ctx context.Context, record *inventory.StockRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// SaveWithLock updates the record only when the stored version is the one
// the caller read. Zero rows affected means a concurrent writer won.
func (r *GormStockRecordRepository) SaveWithLock(ctx context.Context, record *inventory.StockRecord) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.StockRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]interface{}{
			"on_hand":    record.OnHand,
			"reserved":   record.Reserved,
			"version":    record.Version,
			"updated_at": record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&inventory.StockRecord{}).
			Where("product_id = ?", record.ProductID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrConcurrencyConflict
		}
		// First write for this product. A concurrent first write trips
		// the unique index; surface it as a conflict so callers retry.
		if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
			return shared.ErrConcurrencyConflict.WithCause(err)
		}
	}
	return nil
}
