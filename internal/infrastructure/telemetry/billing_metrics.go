package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/hostpanel/backend/internal/domain/billing"
)

// BillingMetrics records per-sweep billing telemetry: charge outcomes,
// billed hours, billed amounts, and sweep duration, all keyed by resource
// kind.
type BillingMetrics struct {
	logger *zap.Logger

	resourcesBilled  *Counter
	resourcesFailed  *Counter
	resourcesSkipped *Counter
	hoursCharged     *Counter
	amountCharged    *FloatCounter
	sweepDuration    *Histogram
}

// NewBillingMetrics creates billing metrics on the given meter
func NewBillingMetrics(meter metric.Meter, logger *zap.Logger) (*BillingMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BillingMetrics{logger: logger}

	var err error
	if bm.resourcesBilled, err = NewCounter(meter,
		"hostpanel_billing_resources_billed_total",
		"Total resources successfully charged by billing sweeps",
		"{resources}"); err != nil {
		return nil, err
	}
	if bm.resourcesFailed, err = NewCounter(meter,
		"hostpanel_billing_resources_failed_total",
		"Total resources whose charge attempt failed",
		"{resources}"); err != nil {
		return nil, err
	}
	if bm.resourcesSkipped, err = NewCounter(meter,
		"hostpanel_billing_resources_skipped_total",
		"Total resources selected but with no whole hour outstanding",
		"{resources}"); err != nil {
		return nil, err
	}
	if bm.hoursCharged, err = NewCounter(meter,
		"hostpanel_billing_hours_charged_total",
		"Total whole hours of usage charged",
		"{hours}"); err != nil {
		return nil, err
	}
	if bm.amountCharged, err = NewFloatCounter(meter,
		"hostpanel_billing_amount_charged_total",
		"Total amount charged in USD",
		"{usd}"); err != nil {
		return nil, err
	}
	if bm.sweepDuration, err = NewHistogram(meter,
		"hostpanel_billing_sweep_duration_seconds",
		"Duration of billing sweep runs",
		"s"); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordSweep records the outcome of one sweep run
func (bm *BillingMetrics) RecordSweep(ctx context.Context, kind string, result *billing.SweepResult, duration time.Duration) {
	if result == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("resource_kind", kind)}

	bm.resourcesBilled.Add(ctx, int64(result.Billed), attrs...)
	bm.resourcesFailed.Add(ctx, int64(result.Failed), attrs...)
	bm.resourcesSkipped.Add(ctx, int64(result.Skipped), attrs...)
	bm.hoursCharged.Add(ctx, result.TotalHours, attrs...)

	amount, ok := result.TotalAmount.Amount().Float64()
	if !ok {
		bm.logger.Debug("Sweep amount lost precision in metric conversion",
			zap.String("amount", result.TotalAmount.String()))
	}
	bm.amountCharged.Add(ctx, amount, attrs...)
	bm.sweepDuration.RecordDuration(ctx, duration, attrs...)
}
