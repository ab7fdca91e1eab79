package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"PoliticianEvaluator/internal/domain"
	"PoliticianEvaluator/internal/ports"
)

const artifactTimeLayout = "20060102_150405"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Artifact is the JSON document written for every run.
type Artifact struct {
	FinalScore domain.FinalScore             `json:"final_score"`
	Results    map[int]domain.CategoryResult `json:"results"`
}

// SinkDeps wires the storage adapters behind the result sink.
type SinkDeps struct {
	Scores        ports.ScoreRepository
	Artifacts     ports.ArtifactWriter
	ResultVersion int
	Logger        *slog.Logger
}

// Sink persists aggregated runs and emits their artifact files.
type Sink struct {
	scores    ports.ScoreRepository
	artifacts ports.ArtifactWriter
	version   int
	logger    *slog.Logger
}

// StoreResult reports where a run ended up. Either error may be set while the
// other side still succeeded.
type StoreResult struct {
	ArtifactPath string
	PersistErr   error
	EmitErr      error
}

// NewSink builds a sink; a nil repository disables persistence and a nil
// writer disables artifact files.
func NewSink(deps SinkDeps) *Sink {
	if deps.ResultVersion <= 0 {
		deps.ResultVersion = 1
	}
	return &Sink{
		scores:    deps.Scores,
		artifacts: deps.Artifacts,
		version:   deps.ResultVersion,
		logger:    deps.Logger,
	}
}

// Persist validates and upserts every scored category and then the final score.
// Writes keep going after a failure; all failures are returned joined, each a
// PersistenceError.
func (s *Sink) Persist(ctx context.Context, final domain.FinalScore, results map[int]domain.CategoryResult) error {
	if s.scores == nil {
		return nil
	}

	var errs []error
	for _, id := range sortedKeys(results) {
		res := results[id]
		if !res.Succeeded() {
			continue
		}
		if err := domain.ValidateScore(*res.Score); err != nil {
			errs = append(errs, &domain.PersistenceError{Op: fmt.Sprintf("category score %d", id), Err: err})
			continue
		}
		if err := s.scores.UpsertCategoryScore(ctx, *res.Score); err != nil {
			errs = append(errs, &domain.PersistenceError{Op: fmt.Sprintf("category score %d", id), Err: err})
		}
	}

	if err := s.scores.UpsertFinalScore(ctx, final); err != nil {
		errs = append(errs, &domain.PersistenceError{Op: "final score", Err: err})
	}

	return errors.Join(errs...)
}

// ArtifactName renders evaluation_result_v<major>_<politician_id>_<YYYYMMDD>_<HHMMSS>.json.
func (s *Sink) ArtifactName(final domain.FinalScore) string {
	id := unsafeNameChars.ReplaceAllString(final.PoliticianID, "-")
	return fmt.Sprintf("evaluation_result_v%d_%s_%s.json", s.version, id, final.GeneratedAt.Format(artifactTimeLayout))
}

// EmitFile writes the run artifact and returns its path.
func (s *Sink) EmitFile(final domain.FinalScore, results map[int]domain.CategoryResult) (string, error) {
	if s.artifacts == nil {
		return "", nil
	}
	path, err := s.artifacts.Write(s.ArtifactName(final), Artifact{FinalScore: final, Results: results})
	if err != nil {
		return "", fmt.Errorf("emit artifact: %w", err)
	}
	return path, nil
}

// Store persists the run and always emits the artifact, which doubles as the
// fallback record when persistence fails.
func (s *Sink) Store(ctx context.Context, final domain.FinalScore, results map[int]domain.CategoryResult) StoreResult {
	var out StoreResult

	out.PersistErr = s.Persist(ctx, final, results)
	if out.PersistErr != nil && s.logger != nil {
		s.logger.Error("persist run", "politician", final.PoliticianID, "error", out.PersistErr)
	}

	out.ArtifactPath, out.EmitErr = s.EmitFile(final, results)
	if out.EmitErr != nil && s.logger != nil {
		s.logger.Error("emit artifact", "politician", final.PoliticianID, "error", out.EmitErr)
	}

	return out
}

func sortedKeys(results map[int]domain.CategoryResult) []int {
	ids := make([]int, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
