package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoliticianEvaluator/internal/domain"
)

func TestSinkArtifactName(t *testing.T) {
	t.Parallel()

	sink := NewSink(SinkDeps{ResultVersion: 3})
	name := sink.ArtifactName(domain.FinalScore{
		PoliticianID: "seoul/42 kim",
		GeneratedAt:  time.Date(2026, 10, 19, 7, 5, 9, 0, time.UTC),
	})
	assert.Equal(t, "evaluation_result_v3_seoul-42-kim_20261019_070509.json", name)

	assert.Contains(t, NewSink(SinkDeps{}).ArtifactName(domain.FinalScore{PoliticianID: "p"}), "evaluation_result_v1_p_")
}

func TestSinkPersistsOnlyScoredCategories(t *testing.T) {
	t.Parallel()

	results := dispatchAll(t, func(id int, f *fakeEvaluator) {
		if id == 6 {
			f.err = &domain.ProviderError{Provider: "fake", StatusCode: 500}
		}
	})
	final := Aggregate(runFor(t, results, domain.AllCategoryIDs()))

	scores := newMemoryScores()
	sink := NewSink(SinkDeps{Scores: scores, Artifacts: newMemoryArtifacts()})
	require.NoError(t, sink.Persist(context.Background(), final, results))

	assert.Len(t, scores.categories, 9)
	assert.NotContains(t, scores.categories, "p-7/6")
	assert.Equal(t, final, scores.finals["p-7"])
}

func TestSinkRejectsOutOfRangeScore(t *testing.T) {
	t.Parallel()

	results := dispatchAll(t, nil)
	bad := *results[2].Score
	bad.Score = 140
	results[2] = domain.ScoredResult(bad, nil)
	final := Aggregate(runFor(t, results, domain.AllCategoryIDs()))

	scores := newMemoryScores()
	err := NewSink(SinkDeps{Scores: scores}).Persist(context.Background(), final, results)
	require.Error(t, err)
	var persistErr *domain.PersistenceError
	require.True(t, errors.As(err, &persistErr))
	assert.Equal(t, "category score 2", persistErr.Op)

	assert.Len(t, scores.categories, 9)
	assert.NotContains(t, scores.categories, "p-7/2")
	assert.Contains(t, scores.finals, "p-7")
}

func TestSinkStoreFallsBackToFileWhenPersistenceFails(t *testing.T) {
	t.Parallel()

	results := dispatchAll(t, nil)
	final := Aggregate(runFor(t, results, domain.AllCategoryIDs()))

	scores := newMemoryScores()
	scores.failFinal = errors.New("connection reset")
	artifacts := newMemoryArtifacts()
	sink := NewSink(SinkDeps{Scores: scores, Artifacts: artifacts})

	out := sink.Store(context.Background(), final, results)
	require.Error(t, out.PersistErr)
	var persistErr *domain.PersistenceError
	require.True(t, errors.As(out.PersistErr, &persistErr))
	assert.Equal(t, "final score", persistErr.Op)

	require.NoError(t, out.EmitErr)
	require.Len(t, artifacts.order, 1)
	artifact, ok := artifacts.files[artifacts.order[0]].(Artifact)
	require.True(t, ok)
	assert.Equal(t, final, artifact.FinalScore)
	assert.Len(t, artifact.Results, 10)
}

func TestSinkWithoutAdapters(t *testing.T) {
	t.Parallel()

	out := NewSink(SinkDeps{}).Store(context.Background(), domain.FinalScore{PoliticianID: "p"}, nil)
	assert.NoError(t, out.PersistErr)
	assert.NoError(t, out.EmitErr)
	assert.Empty(t, out.ArtifactPath)
}
