package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LifecycleService handles the creation and termination billing hooks.
// Both are invoked synchronously by the provisioning flow and must never
// block it: a failed creation charge is reported and retried by the next
// sweep, a termination stamp is best-effort.
type LifecycleService struct {
	scope    TransactionScope
	wallet   billing.WalletGateway
	payments billing.PaymentLookup
	rates    *RateResolver
	stampers map[billing.ResourceKind]billing.CheckpointStamper
	logger   *zap.Logger
	clock    Clock
}

// NewLifecycleService creates the lifecycle hook service. stampers maps each
// resource kind to its checkpoint stamper; payments may be nil.
func NewLifecycleService(
	scope TransactionScope,
	wallet billing.WalletGateway,
	payments billing.PaymentLookup,
	rates *RateResolver,
	stampers map[billing.ResourceKind]billing.CheckpointStamper,
	logger *zap.Logger,
	clock Clock,
) *LifecycleService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &LifecycleService{
		scope:    scope,
		wallet:   wallet,
		payments: payments,
		rates:    rates,
		stampers: stampers,
		logger:   logger,
		clock:    clock,
	}
}

// OnResourceCreated charges the first hour immediately. On success the
// checkpoint is stamped to the creation instant; on failure it stays nil so
// the next sweep collects the accrued time from CreatedAt. The returned
// result reports what happened; the error return is reserved for attempts
// that could not run at all.
func (s *LifecycleService) OnResourceCreated(ctx context.Context, res *billing.BillableResource) (*ChargeResult, error) {
	if res == nil || !res.Kind.IsValid() {
		return nil, shared.ErrInvalidInput
	}

	rate := s.rates.Resolve(ctx, res)
	amount := rate.AmountFor(1)
	description := res.Describe(1)

	if err := s.wallet.Debit(ctx, res.AccountID, amount, description); err != nil {
		reason := classifyDebitError(err)
		s.logger.Warn("Creation charge failed, resource will be billed by the next sweep",
			zap.String("resource_id", res.ID.String()),
			zap.String("kind", res.Kind.String()),
			zap.String("amount", amount.String()),
			zap.String("reason", reason.String()),
			zap.Error(err))

		var result *ChargeResult
		scopeErr := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			entry, entryErr := billing.NewFailedEntry(res, res.CreatedAt, 1, rate, amount, reason)
			if entryErr != nil {
				return entryErr
			}
			if appendErr := repos.Ledger().Append(ctx, entry); appendErr != nil {
				return fmt.Errorf("append failed ledger entry: %w", appendErr)
			}
			state := StateDebitFailed
			if reason == billing.FailureInsufficientBalance {
				state = StateInsufficientFunds
			}
			result = &ChargeResult{State: state, Hours: 1, Amount: amount, Entry: entry, Reason: &reason}
			return nil
		})
		if scopeErr != nil {
			return nil, scopeErr
		}
		return result, nil
	}

	paymentRef := s.lookupPaymentRef(ctx, res, description)

	var result *ChargeResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, entryErr := billing.NewBilledEntry(res, res.CreatedAt, 1, rate, amount, paymentRef)
		if entryErr != nil {
			return entryErr
		}
		if appendErr := repos.Ledger().Append(ctx, entry); appendErr != nil {
			return fmt.Errorf("append ledger entry: %w", appendErr)
		}
		// The creation hook stamps the creation instant: the first hour is
		// prepaid and accrual continues from the moment of provisioning.
		if advErr := repos.Resources(res.Kind).AdvanceCheckpoint(ctx, res.ID, res.CreatedAt); advErr != nil {
			return fmt.Errorf("stamp creation checkpoint: %w", advErr)
		}
		result = &ChargeResult{State: StateBilled, Hours: 1, Amount: amount, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Creation charge collected",
		zap.String("resource_id", res.ID.String()),
		zap.String("kind", res.Kind.String()),
		zap.String("amount", amount.String()))

	return result, nil
}

// OnResourceTerminated stamps the checkpoint to now so no further hours
// accrue once the underlying resource is torn down. Stopping (powering off)
// a resource is not a termination event: reserved capacity accrues until
// actual deletion. Best-effort; the error is advisory.
func (s *LifecycleService) OnResourceTerminated(ctx context.Context, kind billing.ResourceKind, resourceID uuid.UUID) error {
	stamper, ok := s.stampers[kind]
	if !ok {
		return shared.ErrInvalidInput
	}

	now := s.clock.Now()
	if err := stamper.StampCheckpoint(ctx, resourceID, now); err != nil {
		s.logger.Error("Failed to stamp termination checkpoint",
			zap.String("resource_id", resourceID.String()),
			zap.String("kind", kind.String()),
			zap.Time("at", now),
			zap.Error(err))
		return err
	}

	s.logger.Info("Termination checkpoint stamped",
		zap.String("resource_id", resourceID.String()),
		zap.String("kind", kind.String()),
		zap.Time("at", now))
	return nil
}

func (s *LifecycleService) lookupPaymentRef(ctx context.Context, res *billing.BillableResource, description string) *uuid.UUID {
	if s.payments == nil {
		return nil
	}
	id, err := s.payments.LatestCompletedTransaction(ctx, res.AccountID, description)
	if err != nil {
		s.logger.Warn("Payment transaction lookup failed",
			zap.String("resource_id", res.ID.String()),
			zap.Error(err))
		return nil
	}
	return &id
}

// classifyDebitError maps gateway errors onto the closed failure-reason set
func classifyDebitError(err error) billing.FailureReason {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return billing.FailureWalletMissing
	case errors.Is(err, shared.ErrInsufficientBalance):
		return billing.FailureInsufficientBalance
	default:
		return billing.FailureWalletDeduction
	}
}
