package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/ports"
)

// PipelineDeps wires all driven adapters into the evaluation pipeline.
type PipelineDeps struct {
	Dispatcher  *Dispatcher
	Sink        *Sink
	Politicians ports.PoliticianRepository
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Now         func() time.Time
	NewRunID    func() string
}

// Pipeline implements one evaluation run: dispatch, aggregate, store, notify.
type Pipeline struct {
	dispatcher  *Dispatcher
	sink        *Sink
	politicians ports.PoliticianRepository
	notifier    ports.Notifier
	logger      *slog.Logger
	now         func() time.Time
	newRunID    func() string
}

// EvaluateRequest names the politician and the categories to evaluate.
// An empty category list means all of them.
type EvaluateRequest struct {
	PoliticianID   string
	PoliticianName string
	Categories     []int
}

// RunReport is what a finished run hands back to its caller.
type RunReport struct {
	Final        domain.FinalScore
	Results      map[int]domain.CategoryResult
	ArtifactPath string
	PersistErr   error
	EmitErr      error
}

// Err reports an incomplete run; nil when every requested category scored.
func (r RunReport) Err() error {
	return r.Final.Err()
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.Dispatcher == nil {
		return nil, errors.New("pipeline needs a dispatcher")
	}
	if deps.Sink == nil {
		deps.Sink = NewSink(SinkDeps{})
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	return &Pipeline{
		dispatcher:  deps.Dispatcher,
		sink:        deps.Sink,
		politicians: deps.Politicians,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		now:         deps.Now,
		newRunID:    deps.NewRunID,
	}, nil
}

// Evaluate runs every requested category for one politician. The returned
// error is reserved for runs that cannot start; category failures live in the
// report.
func (p *Pipeline) Evaluate(ctx context.Context, req EvaluateRequest) (RunReport, error) {
	subject, err := p.resolveSubject(ctx, req)
	if err != nil {
		return RunReport{}, err
	}

	categories := req.Categories
	if len(categories) == 0 {
		categories = domain.AllCategoryIDs()
	}

	started := p.now()
	results, err := p.dispatcher.Run(ctx, subject, categories)
	if err != nil {
		return RunReport{}, fmt.Errorf("dispatch: %w", err)
	}

	return p.finish(ctx, domain.RunResult{
		RunID:      p.newRunID(),
		Subject:    subject,
		Requested:  categories,
		Results:    results,
		StartedAt:  started,
		FinishedAt: p.now(),
	}), nil
}

// Retry re-dispatches only the failed categories of a previous report, merges
// the new outcomes into its results and stores the merged run as a new artifact.
func (p *Pipeline) Retry(ctx context.Context, prev RunReport) (RunReport, error) {
	if len(prev.Final.Failed) == 0 {
		return prev, nil
	}

	subject := domain.Subject{PoliticianID: prev.Final.PoliticianID, PoliticianName: prev.Final.PoliticianName}
	p.info("retry failed categories", "politician", subject.PoliticianID, "categories", prev.Final.Failed)

	started := p.now()
	retried, err := p.dispatcher.Run(ctx, subject, prev.Final.Failed)
	if err != nil {
		return prev, fmt.Errorf("dispatch retry: %w", err)
	}

	merged := make(map[int]domain.CategoryResult, len(prev.Results))
	maps.Copy(merged, prev.Results)
	maps.Copy(merged, retried)

	return p.finish(ctx, domain.RunResult{
		RunID:      prev.Final.RunID,
		Subject:    subject,
		Requested:  prev.Final.Requested,
		Results:    merged,
		StartedAt:  started,
		FinishedAt: p.now(),
	}), nil
}

// EvaluateRoster evaluates every stored politician in turn. Runs that fail to
// start are logged and skipped.
func (p *Pipeline) EvaluateRoster(ctx context.Context, categories []int) ([]RunReport, error) {
	if p.politicians == nil {
		return nil, errors.New("roster evaluation needs a politician repository")
	}

	roster, err := p.politicians.ListPoliticians(ctx)
	if err != nil {
		return nil, fmt.Errorf("list politicians: %w", err)
	}

	reports := make([]RunReport, 0, len(roster))
	for _, pol := range roster {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		report, err := p.Evaluate(ctx, EvaluateRequest{
			PoliticianID:   pol.ID,
			PoliticianName: pol.Name,
			Categories:     categories,
		})
		if err != nil {
			p.warn("roster run failed to start", "politician", pol.ID, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (p *Pipeline) finish(ctx context.Context, run domain.RunResult) RunReport {
	final := Aggregate(run)
	stored := p.sink.Store(ctx, final, run.Results)

	p.info("run finished", "politician", final.PoliticianID, "status", final.Status,
		"overall", final.OverallScore, "succeeded", final.Succeeded, "requested", len(final.Requested),
		"artifact", stored.ArtifactPath)

	if p.notifier != nil {
		if err := p.notifier.PublishSummary(ctx, SummaryText(final)); err != nil {
			p.warn("publish summary", "error", err)
		}
	}

	return RunReport{
		Final:        final,
		Results:      run.Results,
		ArtifactPath: stored.ArtifactPath,
		PersistErr:   stored.PersistErr,
		EmitErr:      stored.EmitErr,
	}
}

func (p *Pipeline) resolveSubject(ctx context.Context, req EvaluateRequest) (domain.Subject, error) {
	subject := domain.Subject{
		PoliticianID:   strings.TrimSpace(req.PoliticianID),
		PoliticianName: strings.TrimSpace(req.PoliticianName),
	}
	if subject.PoliticianID == "" {
		return domain.Subject{}, fmt.Errorf("%w: politician id is empty", domain.ErrInvalidSubject)
	}

	if p.politicians != nil {
		pol, err := p.politicians.GetPolitician(ctx, subject.PoliticianID)
		if err != nil {
			return domain.Subject{}, fmt.Errorf("resolve politician %s: %w", subject.PoliticianID, err)
		}
		stored := pol.Subject()
		if subject.PoliticianName == "" {
			subject.PoliticianName = stored.PoliticianName
		} else if subject.PoliticianName != stored.PoliticianName {
			p.warn("politician name differs from stored record", "id", pol.ID, "given", subject.PoliticianName, "stored", pol.Name)
		}
	}

	if err := subject.Validate(); err != nil {
		return domain.Subject{}, err
	}
	return subject, nil
}

// SummaryText renders a short plain-text report of a run.
func SummaryText(final domain.FinalScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", final.PoliticianName, final.PoliticianID)
	fmt.Fprintf(&b, "Overall: %.2f\n", final.OverallScore)

	switch final.Status {
	case domain.RunComplete:
		b.WriteString("All categories succeeded\n")
	case domain.RunSubset:
		fmt.Fprintf(&b, "All %d requested categories succeeded (subset of %d)\n", final.Succeeded, len(domain.AllCategoryIDs()))
	default:
		fmt.Fprintf(&b, "%d of %d categories succeeded\n", final.Succeeded, len(final.Requested))
	}

	for _, id := range final.Requested {
		cat, _ := domain.CategoryByID(id)
		if score, ok := final.PerCategory[id]; ok {
			fmt.Fprintf(&b, "- %d %s: %.2f\n", id, cat.Name, score)
		} else {
			fmt.Fprintf(&b, "- %d %s: failed\n", id, cat.Name)
		}
	}

	if !final.Complete {
		fmt.Fprintf(&b, "Incomplete: missing categories %v\n", final.Missing)
	}
	return b.String()
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
