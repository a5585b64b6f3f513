package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepResult_Recording(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := NewSweepResult(started)

	amount, err := valueobject.NewMoneyUSDFromString("0.1370")
	require.NoError(t, err)

	result.RecordBilled(5, amount)
	result.RecordBilled(2, amount)
	result.RecordSkipped()
	result.RecordFailed(uuid.New(), KindManagedApp, FailureWalletMissing.String())

	assert.Equal(t, 2, result.Billed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, int64(7), result.TotalHours)
	assert.Equal(t, "0.2740", result.TotalAmount.StringFixed(4))
	assert.Equal(t, 4, result.Processed())

	require.Len(t, result.Errors, 1)
	assert.Equal(t, KindManagedApp, result.Errors[0].Kind)
	assert.Equal(t, "wallet_missing", result.Errors[0].Reason)
}

func TestSweepResult_Merge(t *testing.T) {
	early := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	late := early.Add(10 * time.Minute)

	a := NewSweepResult(early)
	a.FinishedAt = early.Add(time.Minute)
	a.RecordBilled(1, valueobject.ZeroUSD())

	b := NewSweepResult(late)
	b.FinishedAt = late.Add(time.Minute)
	b.RecordFailed(uuid.New(), KindAddOnSubscription, FailureUnexpected.String())

	b.Merge(a)

	assert.Equal(t, 1, b.Billed)
	assert.Equal(t, 1, b.Failed)
	assert.Equal(t, early, b.StartedAt)
	assert.Equal(t, late.Add(time.Minute), b.FinishedAt)

	t.Run("nil merge is a no-op", func(t *testing.T) {
		before := *b
		b.Merge(nil)
		assert.Equal(t, before.Processed(), b.Processed())
	})
}
