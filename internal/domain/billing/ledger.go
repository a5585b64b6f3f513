package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
)

// ChargeOutcome is the terminal result of one charge attempt.
type ChargeOutcome string

const (
	// OutcomeBilled means the wallet was debited and the checkpoint advanced
	OutcomeBilled ChargeOutcome = "BILLED"
	// OutcomeFailed means the attempt did not collect; checkpoint unchanged
	OutcomeFailed ChargeOutcome = "FAILED"
)

// IsValid returns true if the outcome is known
func (o ChargeOutcome) IsValid() bool {
	return o == OutcomeBilled || o == OutcomeFailed
}

// FailureReason is the closed set of reasons a charge attempt can fail.
type FailureReason string

const (
	// FailureWalletMissing: the owner has no credit wallet
	FailureWalletMissing FailureReason = "wallet_missing"
	// FailureInsufficientBalance: wallet balance below the computed amount
	FailureInsufficientBalance FailureReason = "insufficient_balance"
	// FailureWalletDeduction: the gateway rejected or failed the debit
	FailureWalletDeduction FailureReason = "wallet_deduction_failed"
	// FailureUnexpected: any other error during one resource's processing
	FailureUnexpected FailureReason = "unexpected_error"
)

// IsValid returns true if the reason is part of the closed set
func (r FailureReason) IsValid() bool {
	switch r {
	case FailureWalletMissing, FailureInsufficientBalance, FailureWalletDeduction, FailureUnexpected:
		return true
	default:
		return false
	}
}

// String returns the string representation of FailureReason
func (r FailureReason) String() string {
	return string(r)
}

// LedgerEntry is the immutable record of a single charge attempt. Entries are
// append-only; corrections are new entries. For one resource the billed
// entries, ordered by PeriodStart, form a contiguous non-overlapping timeline.
// Failed entries are informational and never advance the timeline.
type LedgerEntry struct {
	shared.BaseEntity
	ResourceID   uuid.UUID
	ResourceKind ResourceKind
	AccountID    uuid.UUID
	PeriodStart  time.Time
	PeriodEnd    time.Time
	HoursCharged int64
	Rate         RateComponents
	Amount       valueobject.Money
	Outcome      ChargeOutcome
	// FailureReason is set iff Outcome is OutcomeFailed
	FailureReason *FailureReason
	// PaymentReference links the wallet-debit transaction when it could be
	// resolved. Cosmetic: its absence never fails a charge.
	PaymentReference *uuid.UUID
}

// NewBilledEntry creates a ledger entry for a successful charge.
func NewBilledEntry(res *BillableResource, periodStart time.Time, hours int64, rate RateComponents, amount valueobject.Money, paymentRef *uuid.UUID) (*LedgerEntry, error) {
	entry, err := newEntry(res, periodStart, hours, rate, amount)
	if err != nil {
		return nil, err
	}
	entry.Outcome = OutcomeBilled
	entry.PaymentReference = paymentRef
	return entry, nil
}

// NewFailedEntry creates a ledger entry for a failed charge attempt.
func NewFailedEntry(res *BillableResource, periodStart time.Time, hours int64, rate RateComponents, amount valueobject.Money, reason FailureReason) (*LedgerEntry, error) {
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_FAILURE_REASON", "Unknown failure reason")
	}
	entry, err := newEntry(res, periodStart, hours, rate, amount)
	if err != nil {
		return nil, err
	}
	entry.Outcome = OutcomeFailed
	entry.FailureReason = &reason
	return entry, nil
}

func newEntry(res *BillableResource, periodStart time.Time, hours int64, rate RateComponents, amount valueobject.Money) (*LedgerEntry, error) {
	if res == nil {
		return nil, shared.NewDomainError("INVALID_RESOURCE", "Resource cannot be nil")
	}
	if hours < 1 {
		return nil, shared.NewDomainError("INVALID_HOURS", "Ledger entries cover at least one whole hour")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Charge amount cannot be negative")
	}
	return &LedgerEntry{
		BaseEntity:   shared.NewBaseEntity(),
		ResourceID:   res.ID,
		ResourceKind: res.Kind,
		AccountID:    res.AccountID,
		PeriodStart:  periodStart,
		PeriodEnd:    periodStart.Add(time.Duration(hours) * time.Hour),
		HoursCharged: hours,
		Rate:         rate,
		Amount:       amount,
	}, nil
}

// IsBilled returns true for a successful charge
func (e *LedgerEntry) IsBilled() bool {
	return e.Outcome == OutcomeBilled
}

// Period returns the half-open interval covered by the entry
func (e *LedgerEntry) Period() (start, end time.Time) {
	return e.PeriodStart, e.PeriodEnd
}
