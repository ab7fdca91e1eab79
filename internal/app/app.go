package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"PoliticianEvaluator/internal/collector"
	"PoliticianEvaluator/internal/config"
	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/evaluator"
	"PoliticianEvaluator/internal/infrastructure/artifact"
	"PoliticianEvaluator/internal/infrastructure/cache"
	"PoliticianEvaluator/internal/infrastructure/llm"
	"PoliticianEvaluator/internal/infrastructure/scheduler"
	"PoliticianEvaluator/internal/infrastructure/storage"
	"PoliticianEvaluator/internal/infrastructure/telegram"
	"PoliticianEvaluator/internal/logging"
	"PoliticianEvaluator/internal/ports"
	"PoliticianEvaluator/internal/usecase"
)

// ErrNoCollectors is returned when collect mode has no provider with credentials.
var ErrNoCollectors = errors.New("no collector has an API key configured")

// Options adjust a single invocation on top of the loaded configuration.
type Options struct {
	Mode     evaluator.Mode
	Workers  int
	OnResult func(domain.CategoryResult)
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	repo     *storage.Repository
	pipeline *usecase.Pipeline
	closers  []func() error
}

// New builds the evaluation pipeline from configuration.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	if cfg.Database.Enabled() {
		repo, closeDB, err := OpenRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.repo = repo
		a.closers = append(a.closers, closeDB)
		if err := repo.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	mode := opts.Mode
	if mode == "" {
		mode = evaluator.Mode(cfg.Evaluation.Mode)
	}

	var source ports.ItemSource
	switch mode {
	case evaluator.ModeCollect:
		registry, err := a.collectors(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		source = collector.NewSource(registry, baseLogger.With("component", "source"))
	case evaluator.ModeRescore:
		if a.repo == nil {
			_ = a.Close()
			return nil, errors.New("rescore needs a database (set DATABASE_DSN)")
		}
	default:
		_ = a.Close()
		return nil, fmt.Errorf("unknown evaluation mode %q", mode)
	}

	evalOpts := evaluator.Options{
		Mode:         mode,
		Source:       source,
		PersistItems: cfg.Evaluation.PersistsItems(),
		TargetItems:  cfg.Evaluation.TargetItems,
		Scoring: evaluator.ScoringParams{
			Scale:       cfg.Evaluation.RatingScale,
			PriorMean:   cfg.Evaluation.PriorMean,
			PriorWeight: cfg.Evaluation.PriorWeight,
		},
		Logger: baseLogger.With("component", "evaluator"),
		Now:    time.Now,
	}
	sinkDeps := usecase.SinkDeps{
		Artifacts:     artifact.NewFileWriter(cfg.Evaluation.OutputDir),
		ResultVersion: cfg.Evaluation.ResultVersion,
		Logger:        baseLogger.With("component", "sink"),
	}
	var politicians ports.PoliticianRepository
	if a.repo != nil {
		evalOpts.Items = a.repo
		sinkDeps.Scores = a.repo
		politicians = a.repo
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Evaluation.Workers
	}
	dispatcher, err := usecase.NewDispatcher(
		evaluator.BuildRegistry(evaluator.Definitions(cfg.InstructionOverrides()), evalOpts),
		usecase.DispatcherOptions{
			Workers:  workers,
			Logger:   baseLogger.With("component", "dispatcher"),
			OnResult: opts.OnResult,
		},
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	a.pipeline, err = usecase.NewPipeline(usecase.PipelineDeps{
		Dispatcher:  dispatcher,
		Sink:        usecase.NewSink(sinkDeps),
		Politicians: politicians,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "pipeline"),
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) collectors(ctx context.Context) (*collector.Registry, error) {
	var responses ports.ResponseCache
	rc, closeCache, err := cache.NewRedisCache(ctx, a.cfg.Cache, a.logger.With("component", "cache"))
	switch {
	case err != nil:
		a.logger.Warn("response cache disabled", "error", err)
	case rc != nil:
		responses = rc
		a.closers = append(a.closers, closeCache)
	}

	registry := collector.NewRegistry()
	for _, col := range a.cfg.ActiveCollectors() {
		client, err := llm.NewClient(col, llm.Options{
			RatingScale:     a.cfg.Evaluation.RatingScale,
			OfficialDomains: a.cfg.Evaluation.OfficialDomains,
			Cache:           responses,
			Logger:          a.logger.With("component", "collector."+col.Name),
		})
		if err != nil {
			return nil, err
		}
		registry.Register(client)
	}
	if registry.Len() == 0 {
		return nil, ErrNoCollectors
	}
	a.logger.Info("collectors ready", "collectors", registry.Names())
	return registry, nil
}

// OpenRepository connects to the configured database.
func OpenRepository(ctx context.Context, cfg config.Config) (*storage.Repository, func() error, error) {
	if !cfg.Database.Enabled() {
		return nil, nil, errors.New("database is not configured (set DATABASE_DSN)")
	}
	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	driver := cfg.Database.Driver
	if driver == "" {
		driver = storage.DriverPostgres
	}
	return storage.NewRepository(db, driver), db.Close, nil
}

// Repository returns the store, nil when no database is configured.
func (a *Application) Repository() *storage.Repository {
	return a.repo
}

// Pipeline exposes the evaluation use case.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Schedule runs roster evaluation on the configured cron expression until ctx ends.
func (a *Application) Schedule(ctx context.Context) error {
	if a.repo == nil {
		return errors.New("scheduled runs need a database with registered politicians")
	}
	categories, err := domain.ParseCategorySet(a.cfg.Scheduler.Categories)
	if err != nil {
		return err
	}
	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	if err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, a.pipeline, categories, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression,
		"next", driver.Next(time.Now()), "categories", categories)

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
