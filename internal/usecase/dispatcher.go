package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/evaluator"
)

// DefaultWorkers runs every category of a run in one batch.
const DefaultWorkers = domain.TotalCategories

// DispatcherOptions tunes the worker pool.
type DispatcherOptions struct {
	Workers int
	Logger  *slog.Logger
	Now     func() time.Time
	// OnResult is called once per finished category, serialized.
	OnResult func(domain.CategoryResult)
}

// Dispatcher fans a run out to the category evaluators and collects every outcome.
type Dispatcher struct {
	registry *evaluator.Registry
	workers  int
	logger   *slog.Logger
	now      func() time.Time
	onResult func(domain.CategoryResult)
}

// NewDispatcher validates the registry and pool size.
func NewDispatcher(registry *evaluator.Registry, opts DispatcherOptions) (*Dispatcher, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, errors.New("dispatcher needs at least one registered evaluator")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		registry: registry,
		workers:  opts.Workers,
		logger:   opts.Logger,
		now:      opts.Now,
		onResult: opts.OnResult,
	}, nil
}

// Run evaluates every requested category concurrently and waits for all of them.
// The map holds exactly one entry per distinct requested id; a category that
// fails is recorded as a Failure and never stops its siblings.
func (d *Dispatcher) Run(ctx context.Context, subject domain.Subject, categoryIDs []int) (map[int]domain.CategoryResult, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if len(categoryIDs) == 0 {
		return nil, fmt.Errorf("%w: no categories requested", domain.ErrInvalidCategory)
	}

	var (
		mu      sync.Mutex
		results = make(map[int]domain.CategoryResult, len(categoryIDs))
		g       errgroup.Group
	)
	g.SetLimit(d.workers)

	d.info("dispatch", "politician", subject.PoliticianID, "categories", categoryIDs, "workers", d.workers)

	for _, id := range categoryIDs {
		mu.Lock()
		_, dup := results[id]
		if !dup {
			results[id] = domain.CategoryResult{Category: id}
		}
		mu.Unlock()
		if dup {
			continue
		}

		g.Go(func() error {
			res := d.evaluate(ctx, subject, id)

			mu.Lock()
			defer mu.Unlock()
			results[id] = res
			if d.onResult != nil {
				d.onResult(res)
			}
			return nil
		})
	}

	_ = g.Wait()
	return results, nil
}

func (d *Dispatcher) evaluate(ctx context.Context, subject domain.Subject, id int) (res domain.CategoryResult) {
	started := d.now()
	defer func() {
		if r := recover(); r != nil {
			res = domain.FailedResult(id, fmt.Errorf("evaluator panic: %v", r))
		}
		if !res.Succeeded() && res.Failure == nil {
			res = domain.FailedResult(id, errors.New("evaluator returned neither score nor failure"))
		}
		res.Category = id
		res.Duration = d.now().Sub(started)
		d.logResult(res)
	}()

	ev, err := d.registry.Resolve(id)
	if err != nil {
		return domain.FailedResult(id, err)
	}
	return ev.Evaluate(ctx, subject)
}

func (d *Dispatcher) logResult(res domain.CategoryResult) {
	if d.logger == nil {
		return
	}
	if res.Succeeded() {
		d.logger.Info("category done", "category", res.Category, "score", res.Score.Score,
			"items", res.Score.ItemCount, "duration", res.Duration)
		return
	}
	d.logger.Warn("category failed", "category", res.Category, "kind", res.Failure.Kind,
		"error", res.Failure.Message, "raw", res.Failure.Raw, "duration", res.Duration)
}

func (d *Dispatcher) info(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}
