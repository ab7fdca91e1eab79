package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/ports"
)

// Mode selects where an evaluator gets its items.
type Mode string

const (
	// ModeCollect asks the collectors for fresh findings.
	ModeCollect Mode = "collect"
	// ModeRescore scores findings already stored for the politician.
	ModeRescore Mode = "rescore"
)

// Options are shared by every evaluator of a registry.
type Options struct {
	Mode         Mode
	Source       ports.ItemSource
	Items        ports.ItemRepository
	PersistItems bool
	TargetItems  int
	Scoring      ScoringParams
	Logger       *slog.Logger
	Now          func() time.Time
}

// PromptEvaluator scores a category from findings gathered with its instruction text.
type PromptEvaluator struct {
	def  Definition
	opts Options
}

var _ Evaluator = (*PromptEvaluator)(nil)

// NewPromptEvaluator binds a category definition to the shared options.
func NewPromptEvaluator(def Definition, opts Options) *PromptEvaluator {
	if opts.Mode == "" {
		opts.Mode = ModeCollect
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scoring == (ScoringParams{}) {
		opts.Scoring = DefaultScoringParams()
	}
	return &PromptEvaluator{def: def, opts: opts}
}

// Category returns the evaluated category.
func (e *PromptEvaluator) Category() domain.Category {
	return e.def.Category
}

// Prompt renders the category instructions for one politician.
func (e *PromptEvaluator) Prompt(subject domain.Subject) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category %d: %s.\n", e.def.Category.ID, e.def.Category.Name)
	b.WriteString(strings.TrimSpace(e.def.Instructions))
	fmt.Fprintf(&b, "\nPolitician: %s.", subject.PoliticianName)
	return b.String()
}

// Evaluate gathers items, optionally stores them, and scores the category.
func (e *PromptEvaluator) Evaluate(ctx context.Context, subject domain.Subject) domain.CategoryResult {
	cat := e.def.Category

	items, err := e.gather(ctx, subject)
	if err != nil {
		e.debug("category failed", "category", cat.ID, "error", err)
		return domain.FailedResult(cat.ID, err)
	}

	if e.opts.Mode == ModeCollect && e.opts.PersistItems && e.opts.Items != nil && len(items) > 0 {
		if err := e.opts.Items.SaveItems(ctx, items); err != nil {
			e.warn("store collected items", "category", cat.ID, "error", err)
		}
	}

	score, err := ScoreItems(subject, cat, items, e.opts.Scoring, e.opts.Now())
	if err != nil {
		return domain.FailedResult(cat.ID, err)
	}

	e.debug("category scored", "category", cat.ID, "items", score.ItemCount, "score", score.Score)
	return domain.ScoredResult(score, items)
}

func (e *PromptEvaluator) gather(ctx context.Context, subject domain.Subject) ([]domain.CollectedItem, error) {
	switch e.opts.Mode {
	case ModeRescore:
		if e.opts.Items == nil {
			return nil, errors.New("rescore requires an item repository")
		}
		items, err := e.opts.Items.ItemsFor(ctx, subject.PoliticianID, e.def.Category.ID)
		if err != nil {
			return nil, fmt.Errorf("load stored items: %w", err)
		}
		return items, nil
	default:
		if e.opts.Source == nil {
			return nil, errors.New("no item source configured")
		}
		return e.opts.Source.FetchItems(ctx, ports.CollectRequest{
			Subject:      subject,
			Category:     e.def.Category,
			Instructions: e.Prompt(subject),
			TargetItems:  e.opts.TargetItems,
		})
	}
}

func (e *PromptEvaluator) debug(msg string, args ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Debug(msg, args...)
	}
}

func (e *PromptEvaluator) warn(msg string, args ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Warn(msg, args...)
	}
}
