package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/catalog"
)

type executorFixture struct {
	store    *memStore
	wallet   *fakeWallet
	payments *fakePayments
	plans    *fakePlans
	clock    *fakeClock
	executor *Executor
}

func newExecutorFixture(t *testing.T, now time.Time) *executorFixture {
	t.Helper()

	store := newMemStore()
	wallet := newFakeWallet()
	payments := &fakePayments{wallet: wallet}
	plans := newFakePlans()
	clock := newFakeClock(now)

	resolver := NewRateResolver(plans, decimal.RequireFromString("0.05"), zap.NewNop())
	executor := NewExecutor(&fakeScope{store: store}, wallet, payments, resolver, zap.NewNop(), clock)

	return &executorFixture{
		store:    store,
		wallet:   wallet,
		payments: payments,
		plans:    plans,
		clock:    clock,
		executor: executor,
	}
}

func (f *executorFixture) addLegacyVM(accountID uuid.UUID, hourly string, createdAt time.Time) *billing.BillableResource {
	rate := decimal.RequireFromString(hourly)
	res := &billing.BillableResource{
		ID:               uuid.New(),
		Kind:             billing.KindVirtualMachine,
		AccountID:        accountID,
		Name:             "web-1",
		LegacyHourlyRate: &rate,
		CreatedAt:        createdAt,
	}
	f.store.add(res)
	return res
}

func (f *executorFixture) addPlannedVM(t *testing.T, accountID uuid.UUID, createdAt time.Time) *billing.BillableResource {
	t.Helper()

	// 20.00 + 9.20 = 29.20/month -> exactly 0.04/hour
	plan, err := catalog.NewPlan("vm-medium", "Medium VM",
		decimal.RequireFromString("20.00"), decimal.RequireFromString("9.20"))
	require.NoError(t, err)
	f.plans.plans[plan.ID] = plan

	res := &billing.BillableResource{
		ID:        uuid.New(),
		Kind:      billing.KindVirtualMachine,
		AccountID: accountID,
		Name:      "web-1",
		PlanID:    &plan.ID,
		CreatedAt: createdAt,
	}
	f.store.add(res)
	return res
}

func TestExecutorCharge(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	t.Run("under one hour is no charge due", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(59*time.Minute))
		account := uuid.New()
		f.wallet.setBalance(account, "100.00")
		res := f.addLegacyVM(account, "0.0274", base)

		result, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		assert.Equal(t, StateNoChargeDue, result.State)
		assert.Empty(t, f.store.entriesFor(res.ID))
		assert.Nil(t, f.store.checkpoint(res.ID))
		assert.Equal(t, "100.0000", f.wallet.balance(account))
	})

	t.Run("bills whole hours and advances checkpoint to anchor plus hours", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(5*time.Hour+30*time.Minute))
		account := uuid.New()
		f.wallet.setBalance(account, "100.00")
		res := f.addLegacyVM(account, "0.0274", base)

		result, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		assert.Equal(t, StateBilled, result.State)
		assert.Equal(t, int64(5), result.Hours)
		assert.Equal(t, "0.1370", result.Amount.StringFixed(4))
		assert.Equal(t, "99.8630", f.wallet.balance(account))

		// checkpoint lands on the hour boundary, not on wall-clock now
		cp := f.store.checkpoint(res.ID)
		require.NotNil(t, cp)
		assert.True(t, cp.Equal(base.Add(5*time.Hour)))

		entries := f.store.entriesFor(res.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, billing.OutcomeBilled, entries[0].Outcome)
		assert.True(t, entries[0].PeriodStart.Equal(base))
		assert.True(t, entries[0].PeriodEnd.Equal(base.Add(5*time.Hour)))
		require.NotNil(t, entries[0].PaymentReference)
	})

	t.Run("immediate rerun does not double charge", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(2*time.Hour))
		account := uuid.New()
		f.wallet.setBalance(account, "100.00")
		res := f.addLegacyVM(account, "0.0274", base)

		first, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)
		require.Equal(t, StateBilled, first.State)

		second, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		assert.Equal(t, StateNoChargeDue, second.State)
		assert.Len(t, f.store.entriesFor(res.ID), 1)
		assert.Equal(t, "99.9452", f.wallet.balance(account))
	})

	t.Run("plan rate with backup add-on", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(2*time.Hour))
		account := uuid.New()
		f.wallet.setBalance(account, "100.00")
		res := f.addPlannedVM(t, account, base)

		// 0.008 + 0.002 = 0.01/hour, daily multiplier 1.5
		addon, err := catalog.NewBackupAddOn("backup-std", "Standard Backups",
			decimal.RequireFromString("0.008"), decimal.RequireFromString("0.002"))
		require.NoError(t, err)
		f.plans.addons[addon.ID] = addon

		f.store.mu.Lock()
		stored := f.store.resources[res.ID]
		stored.BackupAddOnID = &addon.ID
		stored.BackupFrequency = catalog.BackupFrequencyDaily
		f.store.mu.Unlock()

		result, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		// (0.04 + 0.01*1.5) * 2h = 0.11
		assert.Equal(t, StateBilled, result.State)
		assert.Equal(t, "0.1100", result.Amount.StringFixed(4))
	})

	t.Run("insufficient balance keeps hours owed until topped up", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(3*time.Hour))
		account := uuid.New()
		f.wallet.setBalance(account, "0.05")
		res := f.addLegacyVM(account, "0.0274", base)

		result, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		assert.Equal(t, StateInsufficientFunds, result.State)
		require.NotNil(t, result.Reason)
		assert.Equal(t, billing.FailureInsufficientBalance, *result.Reason)
		assert.Nil(t, f.store.checkpoint(res.ID))
		assert.Equal(t, "0.0500", f.wallet.balance(account))

		entries := f.store.entriesFor(res.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, billing.OutcomeFailed, entries[0].Outcome)

		// after a top-up the same three hours are collected in full
		f.wallet.setBalance(account, "10.00")
		retry, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		assert.Equal(t, StateBilled, retry.State)
		assert.Equal(t, int64(3), retry.Hours)
		assert.Equal(t, "0.0822", retry.Amount.StringFixed(4))
		cp := f.store.checkpoint(res.ID)
		require.NotNil(t, cp)
		assert.True(t, cp.Equal(base.Add(3*time.Hour)))
	})

	t.Run("missing wallet records failure without advancing", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(2*time.Hour))
		res := f.addLegacyVM(uuid.New(), "0.0274", base)

		result, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		assert.Equal(t, StateDebitFailed, result.State)
		require.NotNil(t, result.Reason)
		assert.Equal(t, billing.FailureWalletMissing, *result.Reason)
		assert.Nil(t, f.store.checkpoint(res.ID))
		require.Len(t, f.store.entriesFor(res.ID), 1)
	})

	t.Run("rejected debit records failure without advancing", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(2*time.Hour))
		account := uuid.New()
		f.wallet.setBalance(account, "100.00")
		f.wallet.failDebit = true
		res := f.addLegacyVM(account, "0.0274", base)

		result, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		assert.Equal(t, StateDebitFailed, result.State)
		require.NotNil(t, result.Reason)
		assert.Equal(t, billing.FailureWalletDeduction, *result.Reason)
		assert.Nil(t, f.store.checkpoint(res.ID))
		assert.Equal(t, "100.0000", f.wallet.balance(account))
	})

	t.Run("payment lookup failure does not fail the charge", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(2*time.Hour))
		account := uuid.New()
		f.wallet.setBalance(account, "100.00")
		f.payments.fail = true
		res := f.addLegacyVM(account, "0.0274", base)

		result, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, res.ID)
		require.NoError(t, err)

		assert.Equal(t, StateBilled, result.State)
		assert.Nil(t, result.Entry.PaymentReference)
	})

	t.Run("unknown resource is an error", func(t *testing.T) {
		f := newExecutorFixture(t, base.Add(2*time.Hour))

		_, err := f.executor.Charge(context.Background(), billing.KindVirtualMachine, uuid.New())
		assert.Error(t, err)
	})
}
