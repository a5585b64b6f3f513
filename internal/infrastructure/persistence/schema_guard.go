package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	appbilling "github.com/hostpanel/backend/internal/application/billing"
	"github.com/hostpanel/backend/internal/infrastructure/persistence/models"
)

// GormSchemaGuard verifies that the billing tables and checkpoint columns
// exist before a sweep touches anything. A half-migrated database aborts the
// run instead of producing partial writes.
type GormSchemaGuard struct {
	db *gorm.DB
}

// NewGormSchemaGuard creates a new schema guard
func NewGormSchemaGuard(db *gorm.DB) *GormSchemaGuard {
	return &GormSchemaGuard{db: db}
}

// EnsureBillingSchema checks every table and column the billing engine
// writes to
func (g *GormSchemaGuard) EnsureBillingSchema(ctx context.Context) error {
	migrator := g.db.WithContext(ctx).Migrator()

	tables := []any{
		&models.VirtualMachineModel{},
		&models.ManagedAppModel{},
		&models.AddOnSubscriptionModel{},
		&models.LedgerEntryModel{},
		&models.PlanModel{},
		&models.BackupAddOnModel{},
		&models.CreditWalletModel{},
		&models.PaymentTransactionModel{},
	}
	for _, table := range tables {
		if !migrator.HasTable(table) {
			return fmt.Errorf("missing table for %T", table)
		}
	}

	checkpointed := []any{
		&models.VirtualMachineModel{},
		&models.ManagedAppModel{},
		&models.AddOnSubscriptionModel{},
	}
	for _, table := range checkpointed {
		if !migrator.HasColumn(table, "billing_checkpoint") {
			return fmt.Errorf("missing billing_checkpoint column on %T", table)
		}
	}

	return nil
}

// Ensure GormSchemaGuard implements SchemaGuard
var _ appbilling.SchemaGuard = (*GormSchemaGuard)(nil)
