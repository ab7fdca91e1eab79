package domain

import "time"

// CategoryScore is the aggregated score for one (politician, category) pair.
// Re-running a category overwrites it.
type CategoryScore struct {
	PoliticianID       string      `json:"politician_id" validate:"required"`
	CategoryNum        int         `json:"category_num" validate:"min=1,max=10"`
	CategoryName       string      `json:"category_name"`
	Score              float64     `json:"score" validate:"min=0,max=100"`
	RawMean            float64     `json:"raw_mean"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	ItemCount          int         `json:"item_count"`
	OfficialCount      int         `json:"official_count"`
	PublicCount        int         `json:"public_count"`
	AvgReliability     float64     `json:"avg_reliability"`
	EvaluatedAt        time.Time   `json:"evaluated_at"`
}

// FailureKind enumerates why a category produced no score.
type FailureKind string

const (
	FailureProvider     FailureKind = "provider"
	FailureParse        FailureKind = "parse"
	FailureZeroItems    FailureKind = "zero_items"
	FailureInvalidInput FailureKind = "invalid_input"
	FailureInternal     FailureKind = "internal"
)

// Failure is the recorded outcome of a category that did not score.
type Failure struct {
	Category  int         `json:"category"`
	Kind      FailureKind `json:"kind"`
	Message   string      `json:"message"`
	Raw       string      `json:"raw,omitempty"`
	Retryable bool        `json:"retryable"`
}

// CategoryResult holds either a Score or a Failure for one requested category.
type CategoryResult struct {
	Category int             `json:"category"`
	Score    *CategoryScore  `json:"score,omitempty"`
	Items    []CollectedItem `json:"items,omitempty"`
	Failure  *Failure        `json:"failure,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
}

// Succeeded reports whether the category produced a score.
func (r CategoryResult) Succeeded() bool {
	return r.Score != nil && r.Failure == nil
}

// ScoredResult builds a successful result.
func ScoredResult(score CategoryScore, items []CollectedItem) CategoryResult {
	return CategoryResult{Category: score.CategoryNum, Score: &score, Items: items}
}

// FailedResult builds a failed result from err.
func FailedResult(category int, err error) CategoryResult {
	failure := FailureFromError(category, err)
	return CategoryResult{Category: category, Failure: &failure}
}

// RunResult is everything the dispatcher produced for one evaluation run.
type RunResult struct {
	RunID      string
	Subject    Subject
	Requested  []int
	Results    map[int]CategoryResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunStatus is the outcome of a run.
type RunStatus string

const (
	// RunComplete means all ten categories scored.
	RunComplete RunStatus = "complete"
	// RunSubset means every requested category scored but the request did
	// not cover the full category set.
	RunSubset  RunStatus = "subset"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// FinalScore aggregates every category of one run.
type FinalScore struct {
	RunID              string          `json:"run_id"`
	PoliticianID       string          `json:"politician_id"`
	PoliticianName     string          `json:"politician_name"`
	PerCategory        map[int]float64 `json:"per_category_scores"`
	OverallScore       float64         `json:"overall_score"`
	Status             RunStatus       `json:"status"`
	Complete           bool            `json:"complete"`
	Succeeded          int             `json:"succeeded"`
	Requested          []int           `json:"requested"`
	Failed             []int           `json:"failed"`
	Missing            []int           `json:"missing"`
	RatingDistribution map[int]int     `json:"rating_distribution"`
	TotalItems         int             `json:"total_items"`
	OfficialRatio      float64         `json:"official_ratio"`
	PublicRatio        float64         `json:"public_ratio"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// Err returns the reported condition for a run that did not fully succeed.
func (f FinalScore) Err() error {
	if len(f.Failed) == 0 {
		return nil
	}
	return &IncompleteRunError{
		Succeeded: f.Succeeded,
		Requested: len(f.Requested),
		Failed:    append([]int(nil), f.Failed...),
	}
}
