package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ChargeState is the terminal state of one charge attempt.
type ChargeState string

const (
	// StateNoChargeDue: less than one whole hour outstanding; nothing happened
	StateNoChargeDue ChargeState = "NO_CHARGE_DUE"
	// StateBilled: wallet debited, ledger written, checkpoint advanced
	StateBilled ChargeState = "BILLED"
	// StateInsufficientFunds: balance below the computed amount
	StateInsufficientFunds ChargeState = "INSUFFICIENT_FUNDS"
	// StateDebitFailed: wallet missing or the gateway rejected the debit
	StateDebitFailed ChargeState = "DEBIT_FAILED"
)

// ChargeResult reports the outcome of one charge attempt.
type ChargeResult struct {
	State  ChargeState
	Hours  int64
	Amount valueobject.Money
	Entry  *billing.LedgerEntry
	Reason *billing.FailureReason
}

// Failed returns true for the failure states
func (r *ChargeResult) Failed() bool {
	return r.State == StateInsufficientFunds || r.State == StateDebitFailed
}

// Executor runs the per-resource charge state machine:
//
//	Selected -> HoursComputed -> (NoChargeDue | RateComputed)
//	         -> (InsufficientFunds | DebitFailed | Billed)
//
// All steps for one resource run inside a single transaction holding a row
// lock on the resource, so a crash leaves checkpoint and ledger consistent
// and two overlapping sweeps cannot commit the same hours twice. Elapsed
// hours are recomputed under the lock: a racing sweep observes the advanced
// checkpoint and lands in NoChargeDue.
type Executor struct {
	scope    TransactionScope
	wallet   billing.WalletGateway
	payments billing.PaymentLookup
	rates    *RateResolver
	logger   *zap.Logger
	clock    Clock
}

// NewExecutor creates a billing executor with explicit dependencies.
// payments may be nil; ledger linkage is then skipped.
func NewExecutor(
	scope TransactionScope,
	wallet billing.WalletGateway,
	payments billing.PaymentLookup,
	rates *RateResolver,
	logger *zap.Logger,
	clock Clock,
) *Executor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Executor{
		scope:    scope,
		wallet:   wallet,
		payments: payments,
		rates:    rates,
		logger:   logger,
		clock:    clock,
	}
}

// Charge attempts to bill all whole hours outstanding on one resource.
// Failure states (insufficient funds, wallet missing, debit rejected) are
// normal results carrying a failed ledger entry; an error return means the
// attempt itself could not run and nothing was persisted.
func (e *Executor) Charge(ctx context.Context, kind billing.ResourceKind, resourceID uuid.UUID) (*ChargeResult, error) {
	now := e.clock.Now()

	var result *ChargeResult
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		resources := repos.Resources(kind)

		res, err := resources.FindForUpdate(ctx, resourceID)
		if err != nil {
			return fmt.Errorf("lock resource %s: %w", resourceID, err)
		}

		hours := res.ElapsedWholeHours(now)
		if hours < 1 {
			result = &ChargeResult{State: StateNoChargeDue}
			return nil
		}

		rate := e.rates.Resolve(ctx, res)
		amount := rate.AmountFor(hours)
		periodStart := res.BillingAnchor()

		balance, err := e.wallet.GetBalance(ctx, res.AccountID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				result, err = e.recordFailure(ctx, repos, res, periodStart, hours, rate, amount,
					StateDebitFailed, billing.FailureWalletMissing)
				return err
			}
			return fmt.Errorf("wallet balance for account %s: %w", res.AccountID, err)
		}

		covered, err := balance.GreaterThanOrEqual(amount)
		if err != nil {
			return fmt.Errorf("compare balance: %w", err)
		}
		if !covered {
			result, err = e.recordFailure(ctx, repos, res, periodStart, hours, rate, amount,
				StateInsufficientFunds, billing.FailureInsufficientBalance)
			return err
		}

		description := res.Describe(hours)
		if err := e.wallet.Debit(ctx, res.AccountID, amount, description); err != nil {
			e.logger.Warn("Wallet debit failed",
				zap.String("resource_id", res.ID.String()),
				zap.String("account_id", res.AccountID.String()),
				zap.String("amount", amount.String()),
				zap.Error(err))
			result, err = e.recordFailure(ctx, repos, res, periodStart, hours, rate, amount,
				StateDebitFailed, billing.FailureWalletDeduction)
			return err
		}

		paymentRef := e.lookupPaymentRef(ctx, res, description)

		entry, err := billing.NewBilledEntry(res, periodStart, hours, rate, amount, paymentRef)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		if err := resources.AdvanceCheckpoint(ctx, res.ID, entry.PeriodEnd); err != nil {
			return fmt.Errorf("advance checkpoint: %w", err)
		}

		e.logger.Info("Resource billed",
			zap.String("resource_id", res.ID.String()),
			zap.String("kind", res.Kind.String()),
			zap.Int64("hours", hours),
			zap.String("amount", amount.String()),
			zap.Time("checkpoint", entry.PeriodEnd))

		result = &ChargeResult{State: StateBilled, Hours: hours, Amount: amount, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recordFailure writes a failed ledger entry. The checkpoint is left alone:
// the unpaid hours stay owed and the next sweep retries them naturally.
func (e *Executor) recordFailure(
	ctx context.Context,
	repos TransactionalRepositories,
	res *billing.BillableResource,
	periodStart time.Time,
	hours int64,
	rate billing.RateComponents,
	amount valueobject.Money,
	state ChargeState,
	reason billing.FailureReason,
) (*ChargeResult, error) {
	entry, err := billing.NewFailedEntry(res, periodStart, hours, rate, amount, reason)
	if err != nil {
		return nil, err
	}
	if err := repos.Ledger().Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append failed ledger entry: %w", err)
	}

	e.logger.Info("Charge attempt failed",
		zap.String("resource_id", res.ID.String()),
		zap.String("kind", res.Kind.String()),
		zap.Int64("hours", hours),
		zap.String("amount", amount.String()),
		zap.String("reason", reason.String()))

	return &ChargeResult{
		State:  state,
		Hours:  hours,
		Amount: amount,
		Entry:  entry,
		Reason: &reason,
	}, nil
}

func (e *Executor) lookupPaymentRef(ctx context.Context, res *billing.BillableResource, description string) *uuid.UUID {
	if e.payments == nil {
		return nil
	}
	id, err := e.payments.LatestCompletedTransaction(ctx, res.AccountID, description)
	if err != nil {
		// Cosmetic linkage only; never fails the charge.
		e.logger.Warn("Payment transaction lookup failed",
			zap.String("resource_id", res.ID.String()),
			zap.String("account_id", res.AccountID.String()),
			zap.Error(err))
		return nil
	}
	return &id
}
