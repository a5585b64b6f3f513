package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpanel/backend/internal/domain/billing"
)

func TestGormLedgerRepository(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	res := &billing.BillableResource{
		ID:        uuid.New(),
		Kind:      billing.KindVirtualMachine,
		AccountID: uuid.New(),
		Name:      "web-1",
		CreatedAt: base,
	}
	rate := billing.FallbackRate(decimal.RequireFromString("0.0274"))

	t.Run("appends and reads back billed entries in period order", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)
		ctx := context.Background()

		second, err := billing.NewBilledEntry(res, base.Add(2*time.Hour), 3, rate, rate.AmountFor(3), nil)
		require.NoError(t, err)
		first, err := billing.NewBilledEntry(res, base, 2, rate, rate.AmountFor(2), nil)
		require.NoError(t, err)

		require.NoError(t, repo.Append(ctx, second))
		require.NoError(t, repo.Append(ctx, first))

		entries, err := repo.FindByResource(ctx, res.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.True(t, entries[0].PeriodStart.Equal(base))
		assert.True(t, entries[0].PeriodEnd.Equal(base.Add(2*time.Hour)))
		assert.Equal(t, int64(2), entries[0].HoursCharged)
		assert.Equal(t, "0.0548", entries[0].Amount.StringFixed(4))
		assert.Equal(t, billing.OutcomeBilled, entries[0].Outcome)
		assert.True(t, entries[0].Rate.UsedFallback)

		assert.True(t, entries[1].PeriodStart.Equal(base.Add(2*time.Hour)))
	})

	t.Run("round-trips failed entries with reason", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)
		ctx := context.Background()

		entry, err := billing.NewFailedEntry(res, base, 5, rate, rate.AmountFor(5), billing.FailureInsufficientBalance)
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, entry))

		entries, err := repo.FindByResource(ctx, res.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		assert.Equal(t, billing.OutcomeFailed, entries[0].Outcome)
		require.NotNil(t, entries[0].FailureReason)
		assert.Equal(t, billing.FailureInsufficientBalance, *entries[0].FailureReason)
		assert.Nil(t, entries[0].PaymentReference)
	})

	t.Run("keeps payment reference on billed entries", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)
		ctx := context.Background()

		ref := uuid.New()
		entry, err := billing.NewBilledEntry(res, base, 1, rate, rate.AmountFor(1), &ref)
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, entry))

		entries, err := repo.FindByResource(ctx, res.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.NotNil(t, entries[0].PaymentReference)
		assert.Equal(t, ref, *entries[0].PaymentReference)
	})

	t.Run("returns empty slice for unknown resource", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)

		entries, err := repo.FindByResource(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
