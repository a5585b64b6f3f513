package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupFrequency(t *testing.T) {
	t.Run("daily multiplier is 1.5", func(t *testing.T) {
		assert.True(t, BackupFrequencyDaily.Multiplier().Equal(decimal.NewFromFloat(1.5)))
	})

	t.Run("weekly multiplier is 1.0", func(t *testing.T) {
		assert.True(t, BackupFrequencyWeekly.Multiplier().Equal(decimal.NewFromInt(1)))
	})

	t.Run("unknown tier defaults to 1.0", func(t *testing.T) {
		assert.True(t, BackupFrequency("hourly").Multiplier().Equal(decimal.NewFromInt(1)))
	})

	t.Run("validity", func(t *testing.T) {
		assert.True(t, BackupFrequencyDaily.IsValid())
		assert.True(t, BackupFrequencyWeekly.IsValid())
		assert.False(t, BackupFrequency("monthly").IsValid())
		assert.False(t, BackupFrequency("").IsValid())
	})
}

func TestNewPlan(t *testing.T) {
	t.Run("creates valid plan", func(t *testing.T) {
		plan, err := NewPlan("vm-small", "Small VM", decimal.NewFromInt(15), decimal.NewFromInt(5))

		require.NoError(t, err)
		assert.Equal(t, "vm-small", plan.Code)
		assert.True(t, plan.Active)
		assert.True(t, plan.MonthlyTotal().Equal(decimal.NewFromInt(20)))
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewPlan("", "x", decimal.Zero, decimal.Zero)

		assert.Error(t, err)
	})

	t.Run("rejects negative prices", func(t *testing.T) {
		_, err := NewPlan("vm-small", "x", decimal.NewFromInt(-1), decimal.Zero)

		assert.Error(t, err)
	})
}

func TestNewBackupAddOn(t *testing.T) {
	t.Run("creates valid add-on", func(t *testing.T) {
		addon, err := NewBackupAddOn("backup-std", "Standard Backup",
			decimal.NewFromFloat(0.01), decimal.NewFromFloat(0.002))

		require.NoError(t, err)
		assert.True(t, addon.HourlyBase().Equal(decimal.NewFromFloat(0.012)))
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewBackupAddOn("", "x", decimal.Zero, decimal.Zero)

		assert.Error(t, err)
	})
}
