package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a sweep on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSweepInProgress is returned when a manual trigger overlaps a running sweep
	ErrSweepInProgress = errors.New("billing sweep already in progress")
)
