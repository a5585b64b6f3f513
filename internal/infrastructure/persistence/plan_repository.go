package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/hostpanel/backend/internal/infrastructure/persistence/models"
)

// GormPlanRepository implements catalog.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new plan repository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindPlan retrieves a plan by ID
func (r *GormPlanRepository) FindPlan(ctx context.Context, id uuid.UUID) (*catalog.Plan, error) {
	var model models.PlanModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBackupAddOn retrieves a backup add-on by ID
func (r *GormPlanRepository) FindBackupAddOn(ctx context.Context, id uuid.UUID) (*catalog.BackupAddOn, error) {
	var model models.BackupAddOnModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SavePlan inserts or updates a plan
func (r *GormPlanRepository) SavePlan(ctx context.Context, plan *catalog.Plan) error {
	var model models.PlanModel
	model.FromDomain(plan)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveBackupAddOn inserts or updates a backup add-on
func (r *GormPlanRepository) SaveBackupAddOn(ctx context.Context, addon *catalog.BackupAddOn) error {
	var model models.BackupAddOnModel
	model.FromDomain(addon)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Ensure GormPlanRepository implements PlanRepository
var _ catalog.PlanRepository = (*GormPlanRepository)(nil)
