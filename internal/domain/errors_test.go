package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		kind      FailureKind
		retryable bool
		raw       string
	}{
		{
			name:      "provider server error",
			err:       fmt.Errorf("collect: %w", &ProviderError{Provider: "openai", StatusCode: 503, Message: "overloaded"}),
			kind:      FailureProvider,
			retryable: true,
		},
		{
			name: "provider auth error",
			err:  &ProviderError{Provider: "openai", StatusCode: 401, Message: "bad key"},
			kind: FailureProvider,
		},
		{
			name: "parse error keeps payload",
			err:  &ParseError{Provider: "gemini", Raw: "not json", Err: errors.New("no JSON found")},
			kind: FailureParse,
			raw:  "not json",
		},
		{
			name:      "zero items",
			err:       fmt.Errorf("category 3: %w", ErrZeroItems),
			kind:      FailureZeroItems,
			retryable: true,
		},
		{
			name:      "deadline",
			err:       context.DeadlineExceeded,
			kind:      FailureProvider,
			retryable: true,
		},
		{
			name: "invalid category",
			err:  fmt.Errorf("%w: 12", ErrInvalidCategory),
			kind: FailureInvalidInput,
		},
		{
			name: "anything else",
			err:  errors.New("boom"),
			kind: FailureInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := FailureFromError(4, tt.err)
			assert.Equal(t, 4, f.Category)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.retryable, f.Retryable)
			assert.Equal(t, tt.raw, f.Raw)
			assert.Equal(t, tt.err.Error(), f.Message)
		})
	}
}

func TestFinalScoreErr(t *testing.T) {
	t.Parallel()

	complete := FinalScore{Status: RunComplete, Succeeded: 10, Requested: AllCategoryIDs()}
	require.NoError(t, complete.Err())

	partial := FinalScore{Status: RunPartial, Succeeded: 9, Requested: AllCategoryIDs(), Failed: []int{6}}
	err := partial.Err()
	require.Error(t, err)

	var incomplete *IncompleteRunError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, 9, incomplete.Succeeded)
	assert.Equal(t, 10, incomplete.Requested)
	assert.Equal(t, []int{6}, incomplete.Failed)
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &PersistenceError{Op: "final score", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "final score")
}
