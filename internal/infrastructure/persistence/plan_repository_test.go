package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/hostpanel/backend/internal/domain/shared"
)

func TestGormPlanRepository(t *testing.T) {
	t.Run("saves and finds a plan", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormPlanRepository(db)
		ctx := context.Background()

		plan, err := catalog.NewPlan("vm-medium", "Medium VM",
			decimal.RequireFromString("20.00"), decimal.RequireFromString("9.20"))
		require.NoError(t, err)
		require.NoError(t, repo.SavePlan(ctx, plan))

		found, err := repo.FindPlan(ctx, plan.ID)
		require.NoError(t, err)

		assert.Equal(t, plan.ID, found.ID)
		assert.Equal(t, "vm-medium", found.Code)
		assert.True(t, found.BasePrice.Equal(decimal.RequireFromString("20.00")))
		assert.True(t, found.MonthlyTotal().Equal(decimal.RequireFromString("29.20")))
	})

	t.Run("saves and finds a backup add-on", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormPlanRepository(db)
		ctx := context.Background()

		addon, err := catalog.NewBackupAddOn("backup-std", "Standard Backups",
			decimal.RequireFromString("0.008"), decimal.RequireFromString("0.002"))
		require.NoError(t, err)
		require.NoError(t, repo.SaveBackupAddOn(ctx, addon))

		found, err := repo.FindBackupAddOn(ctx, addon.ID)
		require.NoError(t, err)

		assert.Equal(t, "backup-std", found.Code)
		assert.True(t, found.HourlyBase().Equal(decimal.RequireFromString("0.01")))
	})

	t.Run("missing plan returns not found", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormPlanRepository(db)

		_, err := repo.FindPlan(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindBackupAddOn(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
