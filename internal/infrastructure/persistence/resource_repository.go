package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/hostpanel/backend/internal/infrastructure/persistence/models"
)

// dueCondition selects rows with at least one whole unbilled hour at now:
// never billed and older than an hour, or checkpoint at least an hour old.
// Soft-deleted rows are excluded by GORM before this condition applies.
const dueCondition = "(billing_checkpoint IS NULL AND created_at <= ?) OR billing_checkpoint <= ?"

func dueCutoff(now time.Time) time.Time {
	return now.Add(-billing.MinimumBillableAge)
}

// advanceCheckpoint updates the billing checkpoint of one row in the given
// catalog table
func advanceCheckpoint(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, to time.Time) error {
	result := db.WithContext(ctx).Model(model).
		Where("id = ?", id).
		Update("billing_checkpoint", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormVirtualMachineRepository provides the billing view over the virtual
// machine catalog
type GormVirtualMachineRepository struct {
	db *gorm.DB
}

// NewGormVirtualMachineRepository creates a new virtual machine repository
func NewGormVirtualMachineRepository(db *gorm.DB) *GormVirtualMachineRepository {
	return &GormVirtualMachineRepository{db: db}
}

// Kind implements billing.ResourceSource
func (r *GormVirtualMachineRepository) Kind() billing.ResourceKind {
	return billing.KindVirtualMachine
}

// DueResources returns the virtual machines with billable hours outstanding,
// oldest first
func (r *GormVirtualMachineRepository) DueResources(ctx context.Context, now time.Time) ([]*billing.BillableResource, error) {
	var rows []models.VirtualMachineModel
	cutoff := dueCutoff(now)
	if err := r.db.WithContext(ctx).
		Where(dueCondition, cutoff, cutoff).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	resources := make([]*billing.BillableResource, len(rows))
	for i := range rows {
		resources[i] = rows[i].ToBillable()
	}
	return resources, nil
}

// FindForUpdate loads one virtual machine holding a row lock for the
// enclosing transaction
func (r *GormVirtualMachineRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*billing.BillableResource, error) {
	var row models.VirtualMachineModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToBillable(), nil
}

// AdvanceCheckpoint moves the billing checkpoint forward
func (r *GormVirtualMachineRepository) AdvanceCheckpoint(ctx context.Context, id uuid.UUID, to time.Time) error {
	return advanceCheckpoint(ctx, r.db, &models.VirtualMachineModel{}, id, to)
}

// StampCheckpoint implements billing.CheckpointStamper for the termination
// hook
func (r *GormVirtualMachineRepository) StampCheckpoint(ctx context.Context, id uuid.UUID, at time.Time) error {
	return advanceCheckpoint(ctx, r.db, &models.VirtualMachineModel{}, id, at)
}

// GormManagedAppRepository provides the billing view over the managed app
// catalog
type GormManagedAppRepository struct {
	db *gorm.DB
}

// NewGormManagedAppRepository creates a new managed app repository
func NewGormManagedAppRepository(db *gorm.DB) *GormManagedAppRepository {
	return &GormManagedAppRepository{db: db}
}

// Kind implements billing.ResourceSource
func (r *GormManagedAppRepository) Kind() billing.ResourceKind {
	return billing.KindManagedApp
}

// DueResources returns the managed apps with billable hours outstanding,
// oldest first
func (r *GormManagedAppRepository) DueResources(ctx context.Context, now time.Time) ([]*billing.BillableResource, error) {
	var rows []models.ManagedAppModel
	cutoff := dueCutoff(now)
	if err := r.db.WithContext(ctx).
		Where(dueCondition, cutoff, cutoff).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	resources := make([]*billing.BillableResource, len(rows))
	for i := range rows {
		resources[i] = rows[i].ToBillable()
	}
	return resources, nil
}

// FindForUpdate loads one managed app holding a row lock for the enclosing
// transaction
func (r *GormManagedAppRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*billing.BillableResource, error) {
	var row models.ManagedAppModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToBillable(), nil
}

// AdvanceCheckpoint moves the billing checkpoint forward
func (r *GormManagedAppRepository) AdvanceCheckpoint(ctx context.Context, id uuid.UUID, to time.Time) error {
	return advanceCheckpoint(ctx, r.db, &models.ManagedAppModel{}, id, to)
}

// StampCheckpoint implements billing.CheckpointStamper for the termination
// hook
func (r *GormManagedAppRepository) StampCheckpoint(ctx context.Context, id uuid.UUID, at time.Time) error {
	return advanceCheckpoint(ctx, r.db, &models.ManagedAppModel{}, id, at)
}

// GormAddOnSubscriptionRepository provides the billing view over standalone
// add-on subscriptions
type GormAddOnSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormAddOnSubscriptionRepository creates a new add-on subscription
// repository
func NewGormAddOnSubscriptionRepository(db *gorm.DB) *GormAddOnSubscriptionRepository {
	return &GormAddOnSubscriptionRepository{db: db}
}

// Kind implements billing.ResourceSource
func (r *GormAddOnSubscriptionRepository) Kind() billing.ResourceKind {
	return billing.KindAddOnSubscription
}

// DueResources returns the add-on subscriptions with billable hours
// outstanding, oldest first
func (r *GormAddOnSubscriptionRepository) DueResources(ctx context.Context, now time.Time) ([]*billing.BillableResource, error) {
	var rows []models.AddOnSubscriptionModel
	cutoff := dueCutoff(now)
	if err := r.db.WithContext(ctx).
		Where(dueCondition, cutoff, cutoff).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	resources := make([]*billing.BillableResource, len(rows))
	for i := range rows {
		resources[i] = rows[i].ToBillable()
	}
	return resources, nil
}

// FindForUpdate loads one add-on subscription holding a row lock for the
// enclosing transaction
func (r *GormAddOnSubscriptionRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*billing.BillableResource, error) {
	var row models.AddOnSubscriptionModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToBillable(), nil
}

// AdvanceCheckpoint moves the billing checkpoint forward
func (r *GormAddOnSubscriptionRepository) AdvanceCheckpoint(ctx context.Context, id uuid.UUID, to time.Time) error {
	return advanceCheckpoint(ctx, r.db, &models.AddOnSubscriptionModel{}, id, to)
}

// StampCheckpoint implements billing.CheckpointStamper for the termination
// hook
func (r *GormAddOnSubscriptionRepository) StampCheckpoint(ctx context.Context, id uuid.UUID, at time.Time) error {
	return advanceCheckpoint(ctx, r.db, &models.AddOnSubscriptionModel{}, id, at)
}

// NewResourceRepositoryForKind returns the catalog repository for the given
// kind
func NewResourceRepositoryForKind(db *gorm.DB, kind billing.ResourceKind) billing.ResourceRepository {
	switch kind {
	case billing.KindManagedApp:
		return NewGormManagedAppRepository(db)
	case billing.KindAddOnSubscription:
		return NewGormAddOnSubscriptionRepository(db)
	default:
		return NewGormVirtualMachineRepository(db)
	}
}

// Interface guards
var (
	_ billing.ResourceSource     = (*GormVirtualMachineRepository)(nil)
	_ billing.ResourceRepository = (*GormVirtualMachineRepository)(nil)
	_ billing.CheckpointStamper  = (*GormVirtualMachineRepository)(nil)
	_ billing.ResourceSource     = (*GormManagedAppRepository)(nil)
	_ billing.ResourceRepository = (*GormManagedAppRepository)(nil)
	_ billing.CheckpointStamper  = (*GormManagedAppRepository)(nil)
	_ billing.ResourceSource     = (*GormAddOnSubscriptionRepository)(nil)
	_ billing.ResourceRepository = (*GormAddOnSubscriptionRepository)(nil)
	_ billing.CheckpointStamper  = (*GormAddOnSubscriptionRepository)(nil)
)
