package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsRelay/internal/ports"
)

// Cycle is the job the scheduler triggers.
type Cycle interface {
	RunCycle(ctx context.Context) (PublishReport, error)
}

// Scheduler wires the interval driver with the publisher.
type Scheduler struct {
	driver ports.Scheduler
	cycle  Cycle
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, cycle Cycle, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, cycle: cycle, logger: logger}
}

// Start registers the cycle with the driver. Aborted cycles are logged and the next tick retries.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.cycle == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.cycle.RunCycle(ctx); err != nil {
			s.logger.Warn("cycle failed, waiting for next tick", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
