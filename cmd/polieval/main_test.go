package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoliticianEvaluator/internal/domain"
)

func TestRunExit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitComplete, exitCode(runExit(domain.FinalScore{Status: domain.RunComplete})))
	assert.Equal(t, exitComplete, exitCode(runExit(domain.FinalScore{Status: domain.RunSubset, Succeeded: 2, Requested: []int{1, 2}})))

	partial := domain.FinalScore{Status: domain.RunPartial, Succeeded: 9, Requested: make([]int, 10), Failed: []int{6}}
	err := runExit(partial)
	assert.Equal(t, exitPartial, exitCode(err))
	var incomplete *domain.IncompleteRunError
	assert.True(t, errors.As(err, &incomplete))

	failed := domain.FinalScore{Status: domain.RunFailed, Requested: []int{1}, Failed: []int{1}}
	assert.Equal(t, exitStartFailure, exitCode(runExit(failed)))

	assert.Equal(t, exitStartFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitComplete, exitCode(nil))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandsAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POLIEVAL_CONFIG", "")
	t.Setenv("POLIEVAL_DOTENV", filepath.Join(dir, "none.env"))
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "polieval.db"))
	t.Setenv("POLIEVAL_OUTPUT_DIR", filepath.Join(dir, "results"))
	t.Setenv("LOG_LEVEL", "error")

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	out, err := execute(t, "politician", "add", "--id", "p-1", "--name", "Moon", "--party", "Green")
	require.NoError(t, err)
	assert.Contains(t, out, "saved Moon (p-1)")

	out, err = execute(t, "politician", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Moon")

	out, err = execute(t, "evaluate", "--id", "p-1", "--rescore", "--categories", "1,2")
	assert.Equal(t, exitStartFailure, exitCode(err), "no stored items means no category succeeded")
	assert.Contains(t, out, "0 of 2 categories succeeded")
	assert.Contains(t, out, "zero_items")

	out, err = execute(t, "evaluate", "--id", "ghost", "--rescore")
	assert.Equal(t, exitStartFailure, exitCode(err))
	assert.Contains(t, out, "Run failed to start")

	_, err = execute(t, "evaluate", "--id", "p-1", "--categories", "0-3")
	assert.Equal(t, exitStartFailure, exitCode(err))
}
