package evaluator

import (
	"fmt"
	"math"
	"time"

	"PoliticianEvaluator/internal/domain"
)

// ScoringParams tunes how item ratings become a category score.
// PriorMean is the baseline rating; PriorWeight is how many pseudo-items of
// full reliability it counts as.
type ScoringParams struct {
	Scale       int
	PriorMean   float64
	PriorWeight float64
}

// DefaultScoringParams uses a 0..10 scale with a neutral prior worth two items.
func DefaultScoringParams() ScoringParams {
	return ScoringParams{Scale: 10, PriorMean: 5, PriorWeight: 2}
}

func (p ScoringParams) normalized() ScoringParams {
	if p.Scale <= 0 {
		p.Scale = 10
	}
	if p.PriorWeight < 0 {
		p.PriorWeight = 0
	}
	p.PriorMean = math.Max(0, math.Min(p.PriorMean, float64(p.Scale)))
	return p
}

// ScoreItems computes the category score from rated items: a reliability-weighted
// mean rating shrunk toward the prior, expressed on 0..100. When every item has
// zero reliability each one weighs 1.
func ScoreItems(subject domain.Subject, category domain.Category, items []domain.CollectedItem, params ScoringParams, at time.Time) (domain.CategoryScore, error) {
	if len(items) == 0 {
		return domain.CategoryScore{}, fmt.Errorf("category %d: %w", category.ID, domain.ErrZeroItems)
	}
	params = params.normalized()

	var (
		weighted, weights, reliability float64
		official, public               int
		dist                           = make(map[int]int)
	)
	for _, item := range items {
		weighted += float64(item.Rating) * item.Reliability
		weights += item.Reliability
		reliability += item.Reliability
		dist[item.Rating]++
		if item.DataType == domain.DataTypeOfficial {
			official++
		} else {
			public++
		}
	}

	if weights == 0 {
		weighted = 0
		for _, item := range items {
			weighted += float64(item.Rating)
		}
		weights = float64(len(items))
	}

	rawMean := weighted / weights
	shrunk := (weighted + params.PriorMean*params.PriorWeight) / (weights + params.PriorWeight)
	score := math.Max(0, math.Min(100, shrunk/float64(params.Scale)*100))

	return domain.CategoryScore{
		PoliticianID:       subject.PoliticianID,
		CategoryNum:        category.ID,
		CategoryName:       category.Name,
		Score:              round(score, 2),
		RawMean:            round(rawMean, 3),
		RatingDistribution: dist,
		ItemCount:          len(items),
		OfficialCount:      official,
		PublicCount:        public,
		AvgReliability:     round(reliability/float64(len(items)), 3),
		EvaluatedAt:        at.UTC(),
	}, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
