package persistence

import (
	"context"

	"gorm.io/gorm"

	appbilling "github.com/hostpanel/backend/internal/application/billing"
	"github.com/hostpanel/backend/internal/domain/billing"
)

// GormBillingTransactionScope implements the application TransactionScope
// using GORM transactions. Everything the charge state machine persists for
// one resource commits or rolls back together.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new transaction scope
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBillingRepositories{tx: tx})
	})
}

// gormBillingRepositories provides repositories scoped to one transaction
type gormBillingRepositories struct {
	tx *gorm.DB
}

// Resources returns the catalog repository for the given kind, bound to the
// current transaction
func (r *gormBillingRepositories) Resources(kind billing.ResourceKind) billing.ResourceRepository {
	return NewResourceRepositoryForKind(r.tx, kind)
}

// Ledger returns the ledger repository bound to the current transaction
func (r *gormBillingRepositories) Ledger() billing.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

// Interface guards
var (
	_ appbilling.TransactionScope          = (*GormBillingTransactionScope)(nil)
	_ appbilling.TransactionalRepositories = (*gormBillingRepositories)(nil)
)
