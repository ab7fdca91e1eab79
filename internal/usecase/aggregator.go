package usecase

import (
	"math"
	"sort"

	"PoliticianEvaluator/internal/domain"
)

// Aggregate merges per-category results into the run's FinalScore.
//
// It is a pure function of run: the overall score is the mean of the scored
// categories only, failed requested categories are listed in Failed, and every
// category of the full set without a score is listed in Missing. The record is
// Complete only when all ten categories scored; a fully successful request for
// fewer categories is RunSubset.
func Aggregate(run domain.RunResult) domain.FinalScore {
	requested := requestedIDs(run)

	final := domain.FinalScore{
		RunID:              run.RunID,
		PoliticianID:       run.Subject.PoliticianID,
		PoliticianName:     run.Subject.PoliticianName,
		PerCategory:        make(map[int]float64, len(requested)),
		Requested:          requested,
		Failed:             []int{},
		Missing:            []int{},
		RatingDistribution: map[int]int{},
		GeneratedAt:        run.FinishedAt,
	}

	var (
		sum              float64
		official, public int
	)
	for _, id := range requested {
		res, ok := run.Results[id]
		if !ok || !res.Succeeded() {
			final.Failed = append(final.Failed, id)
			continue
		}

		score := res.Score
		final.PerCategory[id] = score.Score
		sum += score.Score
		final.TotalItems += score.ItemCount
		official += score.OfficialCount
		public += score.PublicCount
		for rating, count := range score.RatingDistribution {
			final.RatingDistribution[rating] += count
		}
	}

	final.Succeeded = len(final.PerCategory)
	if final.Succeeded > 0 {
		final.OverallScore = roundTo(sum/float64(final.Succeeded), 2)
	}

	for _, id := range domain.AllCategoryIDs() {
		if _, ok := final.PerCategory[id]; !ok {
			final.Missing = append(final.Missing, id)
		}
	}
	final.Complete = len(final.Missing) == 0

	if sources := official + public; sources > 0 {
		final.OfficialRatio = roundTo(float64(official)/float64(sources), 4)
		final.PublicRatio = roundTo(float64(public)/float64(sources), 4)
	}

	switch {
	case final.Succeeded == 0:
		final.Status = domain.RunFailed
	case len(final.Failed) > 0:
		final.Status = domain.RunPartial
	case !final.Complete:
		final.Status = domain.RunSubset
	default:
		final.Status = domain.RunComplete
	}

	return final
}

func requestedIDs(run domain.RunResult) []int {
	seen := map[int]struct{}{}
	ids := make([]int, 0, len(run.Requested))
	add := func(id int) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(run.Requested) > 0 {
		for _, id := range run.Requested {
			add(id)
		}
	} else {
		for id := range run.Results {
			add(id)
		}
	}

	sort.Ints(ids)
	return ids
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
