package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
)

// ErrSchemaUnavailable is returned by the pre-flight schema guard when the
// billing columns are not in place. A sweep seeing it aborts before touching
// any resource.
var ErrSchemaUnavailable = errors.New("billing schema unavailable")

// ResourceSource yields the resources of one kind that are due for billing:
// checkpoint null or at least an hour old, ordered by creation time ascending
// (fairness, not correctness).
type ResourceSource interface {
	Kind() ResourceKind
	DueResources(ctx context.Context, now time.Time) ([]*BillableResource, error)
}

// ResourceRepository mutates a resource's checkpoint. FindForUpdate must
// serialize concurrent callers on the same resource for the duration of the
// enclosing transaction (row-level lock or equivalent); this is what makes
// overlapping sweeps safe.
type ResourceRepository interface {
	FindForUpdate(ctx context.Context, id uuid.UUID) (*BillableResource, error)
	AdvanceCheckpoint(ctx context.Context, id uuid.UUID, to time.Time) error
}

// CheckpointStamper stamps a checkpoint outside the reconciliation path.
// Used by the termination hook, which is the only caller allowed to stamp
// wall-clock time.
type CheckpointStamper interface {
	StampCheckpoint(ctx context.Context, id uuid.UUID, at time.Time) error
}

// LedgerRepository appends and reads immutable charge records.
type LedgerRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
	FindByResource(ctx context.Context, resourceID uuid.UUID) ([]*LedgerEntry, error)
}

// WalletGateway is the external prepaid-balance service. The core reads
// balances and requests debits; it never touches wallet storage directly.
// GetBalance returns shared.ErrNotFound when the account has no wallet.
type WalletGateway interface {
	GetBalance(ctx context.Context, accountID uuid.UUID) (valueobject.Money, error)
	Debit(ctx context.Context, accountID uuid.UUID, amount valueobject.Money, description string) error
}

// PaymentLookup resolves the wallet-debit transaction created for a charge,
// for cosmetic ledger linkage. Best-effort: failures are logged, never block
// a charge.
type PaymentLookup interface {
	LatestCompletedTransaction(ctx context.Context, accountID uuid.UUID, description string) (uuid.UUID, error)
}
