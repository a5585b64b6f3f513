package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/hostpanel/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MetricsRecorder receives per-run sweep telemetry. Implementations must be
// safe for concurrent use; a nil recorder disables recording.
type MetricsRecorder interface {
	RecordSweep(ctx context.Context, kind string, result *billing.SweepResult, duration time.Duration)
}

// SweepServiceConfig holds sweep tuning knobs
type SweepServiceConfig struct {
	// Workers is the number of resources processed concurrently per sweep
	Workers int
}

// DefaultSweepServiceConfig returns default configuration
func DefaultSweepServiceConfig() SweepServiceConfig {
	return SweepServiceConfig{Workers: 4}
}

// SweepService orchestrates reconciliation runs. Each due resource is charged
// independently: one resource's failure, whether an error or a panic, is recorded in the
// result and never aborts the sweep for the others. Only the pre-flight
// schema check can abort a run, and it does so before any resource is
// touched.
type SweepService struct {
	executor *Executor
	sources  map[billing.ResourceKind]billing.ResourceSource
	schema   SchemaGuard
	metrics  MetricsRecorder
	logger   *zap.Logger
	clock    Clock
	workers  int
}

// NewSweepService creates a sweep orchestrator over the given per-kind
// resource sources. metrics may be nil.
func NewSweepService(
	executor *Executor,
	sources []billing.ResourceSource,
	schema SchemaGuard,
	metrics MetricsRecorder,
	logger *zap.Logger,
	clock Clock,
	config SweepServiceConfig,
) *SweepService {
	if config.Workers <= 0 {
		config.Workers = DefaultSweepServiceConfig().Workers
	}
	if clock == nil {
		clock = SystemClock{}
	}

	byKind := make(map[billing.ResourceKind]billing.ResourceSource, len(sources))
	for _, src := range sources {
		byKind[src.Kind()] = src
	}

	return &SweepService{
		executor: executor,
		sources:  byKind,
		schema:   schema,
		metrics:  metrics,
		logger:   logger,
		clock:    clock,
		workers:  config.Workers,
	}
}

// RunSweep reconciles all due resources of one kind and returns the run
// summary.
func (s *SweepService) RunSweep(ctx context.Context, kind billing.ResourceKind) (*billing.SweepResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "billing.sweep",
		telemetry.WithAttribute("resource_kind", kind.String()))
	defer span.End()

	if err := s.preflight(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result, err := s.sweepKind(ctx, kind)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, "billed", result.Billed)
	telemetry.SetAttribute(span, "failed", result.Failed)
	return result, nil
}

// RunAllSweeps reconciles every kind in turn and returns the merged summary.
// The add-on subscription pass runs through the identical executor against
// its own catalog.
func (s *SweepService) RunAllSweeps(ctx context.Context) (*billing.SweepResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "billing.sweep_all")
	defer span.End()

	if err := s.preflight(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	total := billing.NewSweepResult(s.clock.Now())
	total.FinishedAt = total.StartedAt
	for _, kind := range billing.AllResourceKinds() {
		if _, ok := s.sources[kind]; !ok {
			continue
		}
		result, err := s.sweepKind(ctx, kind)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		total.Merge(result)
	}
	telemetry.SetAttribute(span, "billed", total.Billed)
	telemetry.SetAttribute(span, "failed", total.Failed)
	return total, nil
}

// preflight verifies the billing schema before anything is selected
func (s *SweepService) preflight(ctx context.Context) error {
	if s.schema == nil {
		return nil
	}
	if err := s.schema.EnsureBillingSchema(ctx); err != nil {
		s.logger.Error("Billing schema pre-flight failed, aborting sweep", zap.Error(err))
		return fmt.Errorf("%w: %v", billing.ErrSchemaUnavailable, err)
	}
	return nil
}

func (s *SweepService) sweepKind(ctx context.Context, kind billing.ResourceKind) (*billing.SweepResult, error) {
	source, ok := s.sources[kind]
	if !ok {
		return nil, shared.ErrInvalidInput
	}

	now := s.clock.Now()
	due, err := source.DueResources(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("select due resources for %s: %w", kind, err)
	}

	s.logger.Info("Billing sweep started",
		zap.String("kind", kind.String()),
		zap.Int("due", len(due)),
		zap.Int("workers", s.workers))

	result := billing.NewSweepResult(now)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	jobs := make(chan *billing.BillableResource)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for res := range jobs {
				charge, err := s.chargeSafely(ctx, kind, res)

				mu.Lock()
				s.apply(result, kind, res, charge, err)
				mu.Unlock()
			}
		}()
	}

	for _, res := range due {
		jobs <- res
	}
	close(jobs)
	wg.Wait()

	result.FinishedAt = s.clock.Now()
	duration := result.FinishedAt.Sub(result.StartedAt)

	s.logger.Info("Billing sweep completed",
		zap.String("kind", kind.String()),
		zap.Int("billed", result.Billed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Int64("total_hours", result.TotalHours),
		zap.String("total_amount", result.TotalAmount.String()),
		zap.Duration("duration", duration))

	if s.metrics != nil {
		s.metrics.RecordSweep(ctx, kind.String(), result, duration)
	}

	return result, nil
}

// chargeSafely contains one resource's processing, converting panics into
// errors so a misbehaving resource cannot take down the sweep.
func (s *SweepService) chargeSafely(ctx context.Context, kind billing.ResourceKind, res *billing.BillableResource) (result *ChargeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during charge: %v", r)
			s.logger.Error("Recovered panic while charging resource",
				zap.String("resource_id", res.ID.String()),
				zap.String("kind", kind.String()),
				zap.Any("panic", r))
		}
	}()
	return s.executor.Charge(ctx, kind, res.ID)
}

// apply folds one charge outcome into the result. Caller holds the lock.
func (s *SweepService) apply(result *billing.SweepResult, kind billing.ResourceKind, res *billing.BillableResource, charge *ChargeResult, err error) {
	switch {
	case err != nil:
		result.RecordFailed(res.ID, kind, fmt.Sprintf("%s: %v", billing.FailureUnexpected, err))
	case charge.State == StateBilled:
		result.RecordBilled(charge.Hours, charge.Amount)
	case charge.State == StateNoChargeDue:
		result.RecordSkipped()
	default:
		reason := billing.FailureUnexpected
		if charge.Reason != nil {
			reason = *charge.Reason
		}
		result.RecordFailed(res.ID, kind, reason.String())
	}
}
