package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoliticianEvaluator/internal/config"
	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/evaluator"
	"PoliticianEvaluator/internal/usecase"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "polieval.db")}
	cfg.Evaluation.OutputDir = filepath.Join(t.TempDir(), "results")
	cfg.Collectors = nil
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCollectRunEndToEnd(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		content := `{"items":[
			{"title":"Committee record","content":"Chaired hearings","source":"Assembly","url":"https://www.assembly.go.kr/r","rating":8,"reliability":0.9},
			{"title":"Interview","content":"Answered questions","source":"Daily","rating":6,"reliability":0.5}
		]}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		})
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Collectors = []config.CollectorConfig{{
		Name: "fake-openai", Provider: config.ProviderOpenAI, Endpoint: srv.URL, Model: "m", APIKey: "k",
		Timeout: 5 * time.Second,
	}}

	ctx := context.Background()
	var streamed int
	application, err := New(ctx, cfg, quietLogger(), Options{OnResult: func(domain.CategoryResult) { streamed++ }})
	require.NoError(t, err)
	defer application.Close()

	require.NoError(t, application.Repository().UpsertPolitician(ctx, domain.Politician{ID: "p-1", Name: "Jung"}))

	report, err := application.Pipeline().Evaluate(ctx, usecase.EvaluateRequest{PoliticianID: "p-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.RunComplete, report.Final.Status)
	assert.Equal(t, 10, report.Final.Succeeded)
	assert.Equal(t, 10, streamed)
	assert.NoError(t, report.Err())
	assert.NoError(t, report.PersistErr)
	assert.InDelta(t, 0.5, report.Final.OfficialRatio, 1e-9)

	_, err = os.Stat(report.ArtifactPath)
	require.NoError(t, err)

	stored, err := application.Repository().GetFinalScore(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, report.Final.RunID, stored.RunID)

	items, err := application.Repository().ItemsFor(ctx, "p-1", 5)
	require.NoError(t, err)
	assert.Len(t, items, 2, "collected items are persisted")
}

func TestRescoreRunUsesStoredItems(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	ctx := context.Background()

	application, err := New(ctx, cfg, quietLogger(), Options{Mode: evaluator.ModeRescore, Workers: 2})
	require.NoError(t, err)
	defer application.Close()

	repo := application.Repository()
	require.NoError(t, repo.UpsertPolitician(ctx, domain.Politician{ID: "p-2", Name: "Seo"}))
	require.NoError(t, repo.SaveItems(ctx, []domain.CollectedItem{
		{ID: "a", PoliticianID: "p-2", Category: 1, CollectorSource: "openai", Title: "t1",
			DataType: domain.DataTypePublic, Rating: 9, Reliability: 1, CreatedAt: time.Now()},
		{ID: "b", PoliticianID: "p-2", Category: 2, CollectorSource: "openai", Title: "t2",
			DataType: domain.DataTypeOfficial, Rating: 3, Reliability: 1, CreatedAt: time.Now()},
	}))

	report, err := application.Pipeline().Evaluate(ctx, usecase.EvaluateRequest{PoliticianID: "p-2", Categories: []int{1, 2, 3}})
	require.NoError(t, err)

	assert.Equal(t, domain.RunPartial, report.Final.Status)
	assert.Equal(t, []int{3}, report.Final.Failed)
	require.NotNil(t, report.Results[3].Failure)
	assert.Equal(t, domain.FailureZeroItems, report.Results[3].Failure.Kind)
}

func TestNewWithoutCollectors(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), testConfig(t), quietLogger(), Options{Mode: evaluator.ModeCollect})
	assert.ErrorIs(t, err, ErrNoCollectors)
}

func TestRescoreNeedsDatabase(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Database.DSN = ""
	_, err := New(context.Background(), cfg, quietLogger(), Options{Mode: evaluator.ModeRescore})
	assert.Error(t, err)
}
