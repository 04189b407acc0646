package persistence

import (
	"context"
	"testing"

	"github.com/autoparts/backend/internal/domain/order"
	"github.com/autoparts/backend/internal/domain/shared"
	"github.com/autoparts/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&order.Order{}, &order.Item{})
	require.NoError(t, err)
	return db
}

func buildOrder(t *testing.T, lines int) *order.Order {
	t.Helper()
	items := make([]order.Item, 0, lines)
	for i := 0; i < lines; i++ {
		item, err := order.NewItem(uuid.Nil, uuid.New(), decimal.NewFromInt(2),
			valueobject.NewMoneySAR(decimal.NewFromInt(100)), uuid.New())
		require.NoError(t, err)
		items = append(items, item)
	}
	o, err := order.NewOrder(items, decimal.NewFromFloat(0.15))
	require.NoError(t, err)
	return o
}

func TestGormOrderRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find loads the items", func(t *testing.T) {
		repo := NewGormOrderRepository(setupOrderTestDB(t))
		o := buildOrder(t, 2)

		require.NoError(t, repo.Create(ctx, o))

		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, found.Status)
		assert.True(t, o.Total.Equal(found.Total))
		require.Len(t, found.Items, 2)
		for _, item := range found.Items {
			assert.Equal(t, o.ID, item.OrderID)
			assert.True(t, decimal.NewFromInt(100).Equal(item.UnitPrice))
		}

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find by status filters", func(t *testing.T) {
		repo := NewGormOrderRepository(setupOrderTestDB(t))
		pending := buildOrder(t, 1)
		require.NoError(t, repo.Create(ctx, pending))

		confirmed := buildOrder(t, 1)
		require.NoError(t, confirmed.Confirm())
		require.NoError(t, repo.Create(ctx, confirmed))

		found, err := repo.FindByStatus(ctx, order.StatusPending, 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, pending.ID, found[0].ID)
		require.Len(t, found[0].Items, 1)
	})

	t.Run("save persists a transition with the version check", func(t *testing.T) {
		repo := NewGormOrderRepository(setupOrderTestDB(t))
		o := buildOrder(t, 1)
		require.NoError(t, repo.Create(ctx, o))

		require.NoError(t, o.Confirm())
		require.NoError(t, repo.Save(ctx, o))

		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusConfirmed, found.Status)
		assert.NotNil(t, found.ConfirmedAt)
		assert.Equal(t, o.Version, found.Version)
	})

	t.Run("stale save loses to a concurrent writer", func(t *testing.T) {
		repo := NewGormOrderRepository(setupOrderTestDB(t))
		o := buildOrder(t, 1)
		require.NoError(t, repo.Create(ctx, o))

		first, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)

		require.NoError(t, first.Confirm())
		require.NoError(t, repo.Save(ctx, first))

		require.NoError(t, second.Cancel("changed my mind"))
		err = repo.Save(ctx, second)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusConfirmed, found.Status)
	})
}
