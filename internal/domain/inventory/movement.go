package inventory

import (
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementKind classifies a ledger mutation for the audit trail
type MovementKind string

const (
	MovementReserved  MovementKind = "RESERVED"
	MovementCommitted MovementKind = "COMMITTED"
	MovementReleased  MovementKind = "RELEASED"
	MovementRestored  MovementKind = "RESTORED"
	MovementReceived  MovementKind = "RECEIVED"
)

// Movement is one append-only audit row per ledger mutation
type Movement struct {
	shared.BaseEntity
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind      MovementKind    `gorm:"type:varchar(20);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reference string          `gorm:"type:varchar(100)"` // order or reservation id
}

// TableName returns the table name for GORM
func (Movement) TableName() string {
	return "inventory_movements"
}

// NewMovement creates an audit row for a ledger mutation
func NewMovement(productID uuid.UUID, kind MovementKind, quantity decimal.Decimal, reference string) *Movement {
	return &Movement{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Kind:       kind,
		Quantity:   quantity,
		Reference:  reference,
	}
}
