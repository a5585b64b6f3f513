package dto

import (
	"time"

	"github.com/google/uuid"

	appbilling "github.com/hostpanel/backend/internal/application/billing"
	"github.com/hostpanel/backend/internal/domain/billing"
)

// SweepResultResponse reports one reconciliation run
type SweepResultResponse struct {
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Billed      int                  `json:"billed"`
	Failed      int                  `json:"failed"`
	Skipped     int                  `json:"skipped"`
	TotalHours  int64                `json:"total_hours"`
	TotalAmount string               `json:"total_amount"`
	Currency    string               `json:"currency"`
	Errors      []SweepErrorResponse `json:"errors,omitempty"`
}

// SweepErrorResponse describes one resource's failure within a sweep
type SweepErrorResponse struct {
	ResourceID uuid.UUID `json:"resource_id"`
	Kind       string    `json:"kind"`
	Reason     string    `json:"reason"`
}

// FromSweepResult converts a domain sweep result to its API shape
func FromSweepResult(result *billing.SweepResult) SweepResultResponse {
	resp := SweepResultResponse{
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Billed:      result.Billed,
		Failed:      result.Failed,
		Skipped:     result.Skipped,
		TotalHours:  result.TotalHours,
		TotalAmount: result.TotalAmount.StringFixed(4),
		Currency:    string(result.TotalAmount.Currency()),
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, SweepErrorResponse{
			ResourceID: e.ResourceID,
			Kind:       e.Kind.String(),
			Reason:     e.Reason,
		})
	}
	return resp
}

// ChargeResultResponse reports one charge attempt
type ChargeResultResponse struct {
	State         string     `json:"state"`
	Hours         int64      `json:"hours"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	EntryID       *uuid.UUID `json:"entry_id,omitempty"`
}

// FromChargeResult converts an application charge result to its API shape
func FromChargeResult(result *appbilling.ChargeResult) ChargeResultResponse {
	resp := ChargeResultResponse{
		State:    string(result.State),
		Hours:    result.Hours,
		Amount:   result.Amount.StringFixed(4),
		Currency: string(result.Amount.Currency()),
	}
	if result.Reason != nil {
		reason := result.Reason.String()
		resp.FailureReason = &reason
	}
	if result.Entry != nil {
		id := result.Entry.ID
		resp.EntryID = &id
	}
	return resp
}

// LedgerEntryResponse is the API shape of one billing ledger entry
type LedgerEntryResponse struct {
	ID               uuid.UUID  `json:"id"`
	ResourceID       uuid.UUID  `json:"resource_id"`
	ResourceKind     string     `json:"resource_kind"`
	AccountID        uuid.UUID  `json:"account_id"`
	PeriodStart      time.Time  `json:"period_start"`
	PeriodEnd        time.Time  `json:"period_end"`
	HoursCharged     int64      `json:"hours_charged"`
	RateBaseHourly   string     `json:"rate_base_hourly"`
	RateAddOnHourly  string     `json:"rate_addon_hourly"`
	RateMultiplier   string     `json:"rate_multiplier"`
	RateUsedFallback bool       `json:"rate_used_fallback"`
	Amount           string     `json:"amount"`
	Currency         string     `json:"currency"`
	Outcome          string     `json:"outcome"`
	FailureReason    *string    `json:"failure_reason,omitempty"`
	PaymentReference *uuid.UUID `json:"payment_reference,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// FromLedgerEntry converts a domain ledger entry to its API shape
func FromLedgerEntry(entry *billing.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:               entry.ID,
		ResourceID:       entry.ResourceID,
		ResourceKind:     entry.ResourceKind.String(),
		AccountID:        entry.AccountID,
		PeriodStart:      entry.PeriodStart,
		PeriodEnd:        entry.PeriodEnd,
		HoursCharged:     entry.HoursCharged,
		RateBaseHourly:   entry.Rate.BaseHourly.String(),
		RateAddOnHourly:  entry.Rate.AddOnHourly.String(),
		RateMultiplier:   entry.Rate.Multiplier.String(),
		RateUsedFallback: entry.Rate.UsedFallback,
		Amount:           entry.Amount.StringFixed(4),
		Currency:         string(entry.Amount.Currency()),
		Outcome:          string(entry.Outcome),
		PaymentReference: entry.PaymentReference,
		CreatedAt:        entry.CreatedAt,
	}
	if entry.FailureReason != nil {
		reason := entry.FailureReason.String()
		resp.FailureReason = &reason
	}
	return resp
}

// FromLedgerEntries converts a slice of ledger entries
func FromLedgerEntries(entries []*billing.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromLedgerEntry(entry))
	}
	return out
}

// ResourceProvisionedRequest is the creation hook payload sent by the
// provisioning pipeline once a resource is live.
type ResourceProvisionedRequest struct {
	ResourceID       uuid.UUID  `json:"resource_id" binding:"required"`
	Kind             string     `json:"kind" binding:"required"`
	AccountID        uuid.UUID  `json:"account_id" binding:"required"`
	Name             string     `json:"name" binding:"required"`
	PlanID           *uuid.UUID `json:"plan_id,omitempty"`
	BackupAddOnID    *uuid.UUID `json:"backup_addon_id,omitempty"`
	BackupFrequency  string     `json:"backup_frequency,omitempty"`
	LegacyHourlyRate *string    `json:"legacy_hourly_rate,omitempty"`
	CreatedAt        time.Time  `json:"created_at" binding:"required"`
}

// ResourceDeprovisionedRequest is the termination hook payload
type ResourceDeprovisionedRequest struct {
	ResourceID uuid.UUID `json:"resource_id" binding:"required"`
	Kind       string    `json:"kind" binding:"required"`
}
