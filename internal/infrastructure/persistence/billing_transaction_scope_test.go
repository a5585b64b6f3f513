package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	appbilling "github.com/hostpanel/backend/internal/application/billing"
	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/infrastructure/persistence/models"
)

func newLedgerEntryForVM(t *testing.T, db *gorm.DB, id uuid.UUID) *billing.LedgerEntry {
	t.Helper()

	var row models.VirtualMachineModel
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	res := row.ToBillable()

	rate := billing.FallbackRate(decimal.RequireFromString("0.0274"))
	entry, err := billing.NewBilledEntry(res, res.CreatedAt, 2, rate, rate.AmountFor(2), nil)
	require.NoError(t, err)
	return entry
}

func TestGormBillingTransactionScope(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("commits checkpoint and ledger entry together", func(t *testing.T) {
		db := setupBillingTestDB(t)
		scope := NewGormBillingTransactionScope(db)
		id := insertVM(t, db, now.Add(-3*time.Hour), nil)
		entry := newLedgerEntryForVM(t, db, id)
		checkpoint := now.Add(-time.Hour)

		err := scope.Execute(context.Background(), func(repos appbilling.TransactionalRepositories) error {
			if err := repos.Ledger().Append(context.Background(), entry); err != nil {
				return err
			}
			return repos.Resources(billing.KindVirtualMachine).AdvanceCheckpoint(context.Background(), id, checkpoint)
		})
		require.NoError(t, err)

		var entries int64
		require.NoError(t, db.Model(&models.LedgerEntryModel{}).Count(&entries).Error)
		assert.Equal(t, int64(1), entries)

		var row models.VirtualMachineModel
		require.NoError(t, db.First(&row, "id = ?", id).Error)
		require.NotNil(t, row.BillingCheckpoint)
		assert.True(t, row.BillingCheckpoint.Equal(checkpoint))
	})

	t.Run("rolls back everything when the callback fails", func(t *testing.T) {
		db := setupBillingTestDB(t)
		scope := NewGormBillingTransactionScope(db)
		id := insertVM(t, db, now.Add(-3*time.Hour), nil)
		entry := newLedgerEntryForVM(t, db, id)

		err := scope.Execute(context.Background(), func(repos appbilling.TransactionalRepositories) error {
			if err := repos.Ledger().Append(context.Background(), entry); err != nil {
				return err
			}
			if err := repos.Resources(billing.KindVirtualMachine).AdvanceCheckpoint(context.Background(), id, now); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		var entries int64
		require.NoError(t, db.Model(&models.LedgerEntryModel{}).Count(&entries).Error)
		assert.Zero(t, entries)

		var row models.VirtualMachineModel
		require.NoError(t, db.First(&row, "id = ?", id).Error)
		assert.Nil(t, row.BillingCheckpoint)
	})
}
