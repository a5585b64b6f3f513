package billing

import (
	"testing"

	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateFromPlan(t *testing.T) {
	plan, err := catalog.NewPlan("vm-small", "Small VM", decimal.NewFromInt(15), decimal.NewFromFloat(5.006))
	require.NoError(t, err)

	t.Run("base hourly divides monthly total by 730", func(t *testing.T) {
		rc := RateFromPlan(plan, nil, "")

		expected := decimal.NewFromFloat(20.006).Div(decimal.NewFromInt(730))
		assert.True(t, rc.BaseHourly.Equal(expected), rc.BaseHourly.String())
		assert.True(t, rc.AddOnHourly.IsZero())
		assert.False(t, rc.UsedFallback)
	})

	t.Run("add-on applies frequency multiplier", func(t *testing.T) {
		addon, err := catalog.NewBackupAddOn("backup-std", "Backup",
			decimal.NewFromFloat(0.01), decimal.NewFromFloat(0.002))
		require.NoError(t, err)

		rc := RateFromPlan(plan, addon, catalog.BackupFrequencyDaily)

		assert.True(t, rc.AddOnHourly.Equal(decimal.NewFromFloat(0.012)))
		assert.True(t, rc.Multiplier.Equal(decimal.NewFromFloat(1.5)))

		// total = base + addon * multiplier
		expected := rc.BaseHourly.Add(decimal.NewFromFloat(0.018))
		assert.True(t, rc.TotalHourly().Equal(expected))
	})

	t.Run("nil plan prices a standalone add-on subscription", func(t *testing.T) {
		addon, _ := catalog.NewBackupAddOn("backup-std", "Backup",
			decimal.NewFromFloat(0.01), decimal.Zero)

		rc := RateFromPlan(nil, addon, catalog.BackupFrequencyWeekly)

		assert.True(t, rc.BaseHourly.IsZero())
		assert.True(t, rc.TotalHourly().Equal(decimal.NewFromFloat(0.01)))
	})
}

func TestFallbackRate(t *testing.T) {
	rc := FallbackRate(decimal.NewFromFloat(0.04))

	assert.True(t, rc.UsedFallback)
	assert.True(t, rc.TotalHourly().Equal(decimal.NewFromFloat(0.04)))
}

func TestRateComponents_AmountFor(t *testing.T) {
	t.Run("amount determinism at 4 decimal places", func(t *testing.T) {
		rc := FallbackRate(decimal.NewFromFloat(0.0274))

		amount := rc.AmountFor(5)

		assert.Equal(t, "0.1370", amount.StringFixed(4))
	})

	t.Run("rounds once at total computation", func(t *testing.T) {
		// 20/730 per hour carries a repeating expansion; only the product
		// is rounded.
		plan, _ := catalog.NewPlan("vm-small", "Small VM", decimal.NewFromInt(20), decimal.Zero)
		rc := RateFromPlan(plan, nil, "")

		amount := rc.AmountFor(730)

		assert.Equal(t, "20.0000", amount.StringFixed(4))
	})

	t.Run("zero rate charges nothing", func(t *testing.T) {
		rc := RateFromPlan(nil, nil, "")

		assert.True(t, rc.IsZero())
		assert.True(t, rc.AmountFor(10).IsZero())
	})
}
