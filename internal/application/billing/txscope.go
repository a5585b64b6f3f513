package billing

import (
	"context"

	"github.com/hostpanel/backend/internal/domain/billing"
)

// TransactionalRepositories provides the repositories scoped to one database
// transaction. The resource repository returned for a kind holds the row lock
// acquired by FindForUpdate until the transaction ends.
type TransactionalRepositories interface {
	Resources(kind billing.ResourceKind) billing.ResourceRepository
	Ledger() billing.LedgerRepository
}

// TransactionScope runs a function inside a single isolated transaction.
// If the function returns an error the transaction is rolled back; otherwise
// it is committed. One charge attempt (lock, ledger write, checkpoint
// advance) runs entirely inside one Execute call.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// SchemaGuard is the pre-flight capability guaranteeing the billing columns
// exist before a sweep runs. When it fails the sweep aborts cleanly with zero
// side effects.
type SchemaGuard interface {
	EnsureBillingSchema(ctx context.Context) error
}
