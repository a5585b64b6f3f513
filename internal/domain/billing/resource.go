package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// MinimumBillableAge is the threshold below which a resource has no whole
// hour outstanding and is not selected for billing.
const MinimumBillableAge = time.Hour

// ResourceKind identifies which catalog a billable resource belongs to.
type ResourceKind string

const (
	// KindVirtualMachine is a provisioned virtual machine
	KindVirtualMachine ResourceKind = "VIRTUAL_MACHINE"
	// KindManagedApp is a managed application instance
	KindManagedApp ResourceKind = "MANAGED_APP"
	// KindAddOnSubscription is a standalone add-on subscription (e.g. backups)
	KindAddOnSubscription ResourceKind = "ADDON_SUBSCRIPTION"
)

// AllResourceKinds lists every kind in sweep order.
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{KindVirtualMachine, KindManagedApp, KindAddOnSubscription}
}

// IsValid returns true if the kind is known
func (k ResourceKind) IsValid() bool {
	switch k {
	case KindVirtualMachine, KindManagedApp, KindAddOnSubscription:
		return true
	default:
		return false
	}
}

// String returns the string representation of ResourceKind
func (k ResourceKind) String() string {
	return string(k)
}

// BillableResource is the uniform billing view of a resource, independent of
// which catalog stores it.
//
// Checkpoint is nil for a resource that has never been billed; billing then
// starts from CreatedAt. A non-nil checkpoint is always a value previously
// computed as previousCheckpoint + wholeHours, never "now"; only the
// termination hook stamps wall-clock time, which is what stops accrual.
type BillableResource struct {
	ID        uuid.UUID
	Kind      ResourceKind
	AccountID uuid.UUID
	Name      string

	// Rate inputs for the calculator
	PlanID           *uuid.UUID
	BackupAddOnID    *uuid.UUID
	BackupFrequency  catalog.BackupFrequency
	LegacyHourlyRate *decimal.Decimal

	CreatedAt  time.Time
	Checkpoint *time.Time
}

// BillingAnchor returns the instant billing starts from: the checkpoint when
// set, otherwise the creation time.
func (r *BillableResource) BillingAnchor() time.Time {
	if r.Checkpoint != nil {
		return *r.Checkpoint
	}
	return r.CreatedAt
}

// ElapsedWholeHours returns the number of complete hours between the billing
// anchor and now. Fractional remainders are dropped; a clock behind the
// anchor yields zero.
func (r *BillableResource) ElapsedWholeHours(now time.Time) int64 {
	elapsed := now.Sub(r.BillingAnchor())
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / time.Hour)
}

// IsDue returns true if at least one whole hour is outstanding at now
func (r *BillableResource) IsDue(now time.Time) bool {
	return r.ElapsedWholeHours(now) >= 1
}

// Describe returns the human-readable tag attached to wallet debits,
// identifying the resource and the hour count being charged.
func (r *BillableResource) Describe(hours int64) string {
	return fmt.Sprintf("%s %s (%s): %d hour(s) of usage", kindLabel(r.Kind), r.Name, r.ID, hours)
}

func kindLabel(k ResourceKind) string {
	switch k {
	case KindVirtualMachine:
		return "virtual machine"
	case KindManagedApp:
		return "managed app"
	case KindAddOnSubscription:
		return "add-on subscription"
	default:
		return "resource"
	}
}
