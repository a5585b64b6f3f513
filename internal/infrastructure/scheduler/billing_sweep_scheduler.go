package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appbilling "github.com/hostpanel/backend/internal/application/billing"
	"github.com/hostpanel/backend/internal/domain/billing"
)

// SweepRunner is the slice of the sweep service the scheduler needs
type SweepRunner interface {
	RunAllSweeps(ctx context.Context) (*billing.SweepResult, error)
}

var _ SweepRunner = (*appbilling.SweepService)(nil)

// BillingSweepSchedulerConfig holds configuration for the periodic billing sweep
type BillingSweepSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval is the time between sweep runs
	Interval time.Duration

	// SweepTimeout is the maximum time a single sweep run may take
	SweepTimeout time.Duration
}

// DefaultBillingSweepSchedulerConfig returns default configuration: hourly
// sweeps matching the whole-hour billing granularity.
func DefaultBillingSweepSchedulerConfig() BillingSweepSchedulerConfig {
	return BillingSweepSchedulerConfig{
		Enabled:      true,
		Interval:     time.Hour,
		SweepTimeout: 30 * time.Minute,
	}
}

// BillingSweepScheduler runs the billing sweep at a fixed interval. Sweeps
// never overlap: a tick that arrives while a sweep is still running is
// dropped, and the next tick picks up whatever the skipped one would have
// billed, since charges are computed from checkpoints rather than tick times.
type BillingSweepScheduler struct {
	runner    SweepRunner
	logger    *zap.Logger
	config    BillingSweepSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  bool
}

// NewBillingSweepScheduler creates a new billing sweep scheduler
func NewBillingSweepScheduler(runner SweepRunner, logger *zap.Logger, config BillingSweepSchedulerConfig) *BillingSweepScheduler {
	return &BillingSweepScheduler{
		runner: runner,
		logger: logger,
		config: config,
	}
}

// Start starts the periodic sweep loop
func (s *BillingSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Billing sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Billing sweep scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("sweep_timeout", s.config.SweepTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight sweep
func (s *BillingSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Billing sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerImmediate runs a sweep now, outside the normal interval. Used by
// the admin endpoint. Returns ErrSweepInProgress if a sweep is running.
func (s *BillingSweepScheduler) TriggerImmediate(ctx context.Context) (*billing.SweepResult, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil, ErrSchedulerNotRunning
	}
	if s.sweeping {
		s.mu.Unlock()
		return nil, ErrSweepInProgress
	}
	s.sweeping = true
	s.mu.Unlock()

	defer s.clearSweeping()
	return s.runner.RunAllSweeps(ctx)
}

func (s *BillingSweepScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *BillingSweepScheduler) sweep(ctx context.Context) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		s.logger.Warn("Skipping scheduled sweep, previous sweep still running")
		return
	}
	s.sweeping = true
	s.mu.Unlock()
	defer s.clearSweeping()

	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.runner.RunAllSweeps(sweepCtx)
	if err != nil {
		s.logger.Error("Scheduled billing sweep failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}

	s.logger.Info("Scheduled billing sweep completed",
		zap.Int("billed", result.Billed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Int64("total_hours", result.TotalHours),
		zap.String("total_amount", result.TotalAmount.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *BillingSweepScheduler) clearSweeping() {
	s.mu.Lock()
	s.sweeping = false
	s.mu.Unlock()
}
