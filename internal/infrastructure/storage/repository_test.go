package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoliticianEvaluator/internal/config"
	"PoliticianEvaluator/internal/domain"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, config.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(db, DriverSQLite)
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Migrate(ctx), "migration is idempotent")
	return repo
}

func TestPoliticianUpsertAndList(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPolitician(ctx, domain.Politician{ID: "p-2", Name: "Yoon", Party: "A"}))
	require.NoError(t, repo.UpsertPolitician(ctx, domain.Politician{ID: "p-1", Name: "Kang"}))
	require.NoError(t, repo.UpsertPolitician(ctx, domain.Politician{ID: "p-2", Name: "Yoon Seo-yeon", Party: "B"}))

	got, err := repo.GetPolitician(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, "Yoon Seo-yeon", got.Name)
	assert.Equal(t, "B", got.Party)

	list, err := repo.ListPoliticians(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p-1", list[0].ID)

	_, err = repo.GetPolitician(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrPoliticianNotFound)

	assert.Error(t, repo.UpsertPolitician(ctx, domain.Politician{ID: "p-3"}), "name is required")
}

func TestSaveItemsAndItemsFor(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	items := []domain.CollectedItem{
		{ID: "i-1", PoliticianID: "p-1", Category: 2, CollectorSource: "openai", Title: "Vote", URL: "https://a",
			DataType: domain.DataTypeOfficial, Rating: 8, Reliability: 0.9, CreatedAt: at},
		{ID: "i-2", PoliticianID: "p-1", Category: 2, CollectorSource: "gemini", Title: "Speech",
			DataType: domain.DataTypePublic, Rating: 4, Reliability: 0.5, CreatedAt: at.Add(time.Minute)},
		{ID: "i-3", PoliticianID: "p-1", Category: 3, CollectorSource: "openai", Title: "Plan",
			DataType: domain.DataTypePublic, Rating: 6, Reliability: 0.7, CreatedAt: at},
	}
	require.NoError(t, repo.SaveItems(ctx, items))
	require.NoError(t, repo.SaveItems(ctx, items[:1]), "saving an item twice is a no-op")

	got, err := repo.ItemsFor(ctx, "p-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "i-1", got[0].ID)
	assert.Equal(t, domain.DataTypeOfficial, got[0].DataType)
	assert.Equal(t, 8, got[0].Rating)
	assert.True(t, at.Equal(got[0].CreatedAt))
	assert.Equal(t, "gemini", got[1].CollectorSource)

	none, err := repo.ItemsFor(ctx, "p-9", 2)
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.Error(t, repo.SaveItems(ctx, []domain.CollectedItem{{Title: "no id"}}))
}

func TestUpsertCategoryScoreTwiceKeepsOneRow(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	first := domain.CategoryScore{
		PoliticianID: "p-1", CategoryNum: 4, CategoryName: "Integrity", Score: 61.5, RawMean: 6.2,
		RatingDistribution: map[int]int{6: 2, 7: 1}, ItemCount: 3, OfficialCount: 1, PublicCount: 2,
		AvgReliability: 0.7, EvaluatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	second := first
	second.Score = 82
	second.RatingDistribution = map[int]int{9: 4}
	second.ItemCount = 4
	second.EvaluatedAt = first.EvaluatedAt.Add(time.Hour)

	require.NoError(t, repo.UpsertCategoryScore(ctx, first))
	require.NoError(t, repo.UpsertCategoryScore(ctx, second))

	scores, err := repo.CategoryScoresFor(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 82, scores[0].Score, 1e-9)
	assert.Equal(t, map[int]int{9: 4}, scores[0].RatingDistribution)
	assert.Equal(t, 4, scores[0].ItemCount)
	assert.True(t, second.EvaluatedAt.Equal(scores[0].EvaluatedAt))
}

func TestUpsertFinalScoreOverwrites(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	partial := domain.FinalScore{
		RunID: "run-1", PoliticianID: "p-1", PoliticianName: "Kang",
		PerCategory: map[int]float64{1: 70, 2: 50}, OverallScore: 60,
		Status: domain.RunPartial, Succeeded: 2, Requested: []int{1, 2, 3}, Failed: []int{3},
		Missing: []int{3, 4, 5, 6, 7, 8, 9, 10}, RatingDistribution: map[int]int{7: 1, 5: 1},
		TotalItems: 2, OfficialRatio: 0.5, PublicRatio: 0.5,
		GeneratedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.UpsertFinalScore(ctx, partial))

	complete := partial
	complete.RunID = "run-2"
	complete.Status = domain.RunComplete
	complete.Complete = true
	complete.Failed = nil
	complete.Missing = nil
	complete.OverallScore = 75
	require.NoError(t, repo.UpsertFinalScore(ctx, complete))

	got, err := repo.GetFinalScore(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, domain.RunComplete, got.Status)
	assert.True(t, got.Complete)
	assert.Empty(t, got.Failed)
	assert.Equal(t, []int{1, 2, 3}, got.Requested)
	assert.Equal(t, map[int]float64{1: 70, 2: 50}, got.PerCategory)
	assert.InDelta(t, 75, got.OverallScore, 1e-9)

	_, err = repo.GetFinalScore(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrScoreNotFound)

	require.NoError(t, repo.UpsertPolitician(ctx, domain.Politician{ID: "p-unscored", Name: "Yoon"}))
	_, err = repo.GetFinalScore(ctx, "p-unscored")
	assert.ErrorIs(t, err, domain.ErrScoreNotFound)
	assert.NotErrorIs(t, err, domain.ErrPoliticianNotFound)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}
