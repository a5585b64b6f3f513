package billing

import (
	"context"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateResolver turns a resource's plan references into rate components.
// A failed plan lookup never stops billing: the resolver degrades to the
// resource's legacy hourly rate, or the configured platform default, and
// surfaces the substitution as a warning so catalog drift is visible.
type RateResolver struct {
	plans          catalog.PlanRepository
	fallbackHourly decimal.Decimal
	logger         *zap.Logger
}

// NewRateResolver creates a rate resolver
func NewRateResolver(plans catalog.PlanRepository, fallbackHourly decimal.Decimal, logger *zap.Logger) *RateResolver {
	return &RateResolver{
		plans:          plans,
		fallbackHourly: fallbackHourly,
		logger:         logger,
	}
}

// Resolve computes the hourly rate for a resource.
func (r *RateResolver) Resolve(ctx context.Context, res *billing.BillableResource) billing.RateComponents {
	var plan *catalog.Plan
	if res.PlanID != nil {
		p, err := r.plans.FindPlan(ctx, *res.PlanID)
		if err != nil {
			return r.fallback(res, err)
		}
		plan = p
	} else if res.Kind != billing.KindAddOnSubscription {
		// VMs and managed apps are expected to reference a plan
		return r.fallback(res, nil)
	}

	var addon *catalog.BackupAddOn
	if res.BackupAddOnID != nil {
		a, err := r.plans.FindBackupAddOn(ctx, *res.BackupAddOnID)
		if err != nil {
			if res.Kind == billing.KindAddOnSubscription {
				// the add-on IS the product here; degrade like a plan miss
				return r.fallback(res, err)
			}
			r.logger.Warn("Backup add-on lookup failed, billing without add-on component",
				zap.String("resource_id", res.ID.String()),
				zap.String("addon_id", res.BackupAddOnID.String()),
				zap.Error(err))
		} else {
			addon = a
		}
	}

	return billing.RateFromPlan(plan, addon, res.BackupFrequency)
}

func (r *RateResolver) fallback(res *billing.BillableResource, cause error) billing.RateComponents {
	hourly := r.fallbackHourly
	source := "platform_default"
	if res.LegacyHourlyRate != nil {
		hourly = *res.LegacyHourlyRate
		source = "legacy_resource_rate"
	}

	fields := []zap.Field{
		zap.String("resource_id", res.ID.String()),
		zap.String("kind", res.Kind.String()),
		zap.String("fallback_source", source),
		zap.String("hourly_rate", hourly.String()),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	r.logger.Warn("Plan lookup failed, using fallback hourly rate", fields...)

	return billing.FallbackRate(hourly)
}
