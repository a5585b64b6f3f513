package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
)

// SweepResult aggregates one reconciliation run. It is ephemeral: returned to
// the caller for logging and alerting, never persisted.
type SweepResult struct {
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Billed      int                  `json:"billed"`
	Failed      int                  `json:"failed"`
	Skipped     int                  `json:"skipped"`
	TotalHours  int64                `json:"total_hours"`
	TotalAmount valueobject.Money    `json:"total_amount"`
	Errors      []SweepResourceError `json:"errors,omitempty"`
}

// SweepResourceError describes one resource's failure within a sweep.
type SweepResourceError struct {
	ResourceID uuid.UUID    `json:"resource_id"`
	Kind       ResourceKind `json:"kind"`
	Reason     string       `json:"reason"`
}

// NewSweepResult creates an empty result stamped with the start time.
func NewSweepResult(startedAt time.Time) *SweepResult {
	return &SweepResult{
		StartedAt:   startedAt,
		TotalAmount: valueobject.ZeroUSD(),
		Errors:      make([]SweepResourceError, 0),
	}
}

// RecordBilled counts a successful charge
func (r *SweepResult) RecordBilled(hours int64, amount valueobject.Money) {
	r.Billed++
	r.TotalHours += hours
	r.TotalAmount = r.TotalAmount.MustAdd(amount)
}

// RecordFailed counts a failed charge with its reason
func (r *SweepResult) RecordFailed(resourceID uuid.UUID, kind ResourceKind, reason string) {
	r.Failed++
	r.Errors = append(r.Errors, SweepResourceError{
		ResourceID: resourceID,
		Kind:       kind,
		Reason:     reason,
	})
}

// RecordSkipped counts a resource with no whole hour outstanding
func (r *SweepResult) RecordSkipped() {
	r.Skipped++
}

// Merge folds another result into this one, keeping the earliest start and
// latest finish.
func (r *SweepResult) Merge(other *SweepResult) {
	if other == nil {
		return
	}
	r.Billed += other.Billed
	r.Failed += other.Failed
	r.Skipped += other.Skipped
	r.TotalHours += other.TotalHours
	r.TotalAmount = r.TotalAmount.MustAdd(other.TotalAmount)
	r.Errors = append(r.Errors, other.Errors...)
	if other.StartedAt.Before(r.StartedAt) {
		r.StartedAt = other.StartedAt
	}
	if other.FinishedAt.After(r.FinishedAt) {
		r.FinishedAt = other.FinishedAt
	}
}

// Processed returns the number of resources the sweep touched
func (r *SweepResult) Processed() int {
	return r.Billed + r.Failed + r.Skipped
}
