package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements billing.LedgerRepository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new ledger repository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts one ledger entry. Entries are never updated or deleted.
func (r *GormLedgerRepository) Append(ctx context.Context, entry *billing.LedgerEntry) error {
	var model models.LedgerEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByResource returns all entries for a resource ordered by period start
func (r *GormLedgerRepository) FindByResource(ctx context.Context, resourceID uuid.UUID) ([]*billing.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("period_start ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]*billing.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormLedgerRepository implements LedgerRepository
var _ billing.LedgerRepository = (*GormLedgerRepository)(nil)
