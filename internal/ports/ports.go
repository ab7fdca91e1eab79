package ports

import (
	"context"
	"time"

	"PoliticianEvaluator/internal/domain"
)

// CollectRequest carries everything a collector needs to produce findings for one category.
type CollectRequest struct {
	Subject      domain.Subject
	Category     domain.Category
	Instructions string
	TargetItems  int
}

// Collector asks one content-generation provider for rated findings.
type Collector interface {
	Name() string
	Collect(ctx context.Context, req CollectRequest) ([]domain.CollectedItem, error)
}

// ItemSource produces the findings a category evaluator scores.
type ItemSource interface {
	FetchItems(ctx context.Context, req CollectRequest) ([]domain.CollectedItem, error)
}

// ItemRepository stores raw findings and reads them back for rescoring.
type ItemRepository interface {
	SaveItems(ctx context.Context, items []domain.CollectedItem) error
	ItemsFor(ctx context.Context, politicianID string, category int) ([]domain.CollectedItem, error)
}

// ScoreRepository upserts category and final scores.
type ScoreRepository interface {
	UpsertCategoryScore(ctx context.Context, score domain.CategoryScore) error
	UpsertFinalScore(ctx context.Context, score domain.FinalScore) error
}

// PoliticianRepository resolves and lists politician records.
type PoliticianRepository interface {
	GetPolitician(ctx context.Context, id string) (domain.Politician, error)
	ListPoliticians(ctx context.Context) ([]domain.Politician, error)
	UpsertPolitician(ctx context.Context, p domain.Politician) error
}

// ArtifactWriter emits run artifacts that are never overwritten.
type ArtifactWriter interface {
	Write(name string, payload any) (string, error)
}

// ResponseCache keeps raw provider answers between runs.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
