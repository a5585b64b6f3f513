package catalog

import (
	"context"

	"github.com/google/uuid"
)

// PlanRepository provides read-only access to plan and add-on pricing.
// Implementations return shared.ErrNotFound when the referenced pricing
// row does not exist.
type PlanRepository interface {
	FindPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	FindBackupAddOn(ctx context.Context, id uuid.UUID) (*BackupAddOn, error)
}
