package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"

	"PoliticianEvaluator/internal/ports"
)

// CronScheduler runs a job on a standard five-field cron expression.
type CronScheduler struct {
	schedule cron.Schedule
	location *time.Location

	mu     sync.Mutex
	runner *cron.Cron
	busy   sync.Mutex
	now    func() time.Time
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler parses spec ("0 6 * * 1") in the given location.
func NewCronScheduler(spec string, loc *time.Location) (*CronScheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{schedule: sched, location: loc, now: time.Now}, nil
}

// Next reports the first activation after t.
func (c *CronScheduler) Next(t time.Time) time.Time {
	return c.schedule.Next(t.In(c.location))
}

// Start registers job and begins the cron loop. Overlapping activations are skipped.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runner != nil {
		return nil
	}

	runner := cron.NewWithLocation(c.location)
	runner.Schedule(c.schedule, cron.FuncJob(func() {
		if !c.busy.TryLock() {
			return
		}
		defer c.busy.Unlock()
		if ctx.Err() != nil {
			return
		}
		job(c.now().In(c.location))
	}))
	runner.Start()
	c.runner = runner

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts the cron loop. Running jobs are not interrupted.
func (c *CronScheduler) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runner == nil {
		return nil
	}
	c.runner.Stop()
	c.runner = nil
	return nil
}
