package usecase

import (
	"context"
	"log/slog"
	"time"

	"PoliticianEvaluator/internal/ports"
)

// Scheduler wires the cron driver with roster re-evaluation.
type Scheduler struct {
	driver     ports.Scheduler
	pipeline   *Pipeline
	categories []int
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring roster runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, categories []int, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, categories: categories, logger: logger}
}

// Start registers roster evaluation with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		reports, err := s.pipeline.EvaluateRoster(ctx, s.categories)
		if s.logger == nil {
			return
		}
		if err != nil {
			s.logger.Error("scheduled roster run", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("scheduled roster run done", "trigger", trigger, "runs", len(reports))
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
