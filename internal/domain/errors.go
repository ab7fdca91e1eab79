package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrZeroItems reports a provider answer that parsed but held no usable findings.
	ErrZeroItems = errors.New("zero items returned")

	// ErrPoliticianNotFound reports an id with no politician record.
	ErrPoliticianNotFound = errors.New("politician not found")

	// ErrScoreNotFound reports a politician that has no stored final score yet.
	ErrScoreNotFound = errors.New("final score not found")

	// ErrInvalidCategory reports a category id outside 1..TotalCategories.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidSubject reports a run request without a usable politician identity.
	ErrInvalidSubject = errors.New("invalid evaluation subject")
)

// ProviderError captures a failed exchange with a content-generation provider:
// transport errors, timeouts, authentication and HTTP status failures.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Timeout    bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether re-invoking the category may succeed.
func (e *ProviderError) Retryable() bool {
	switch {
	case e.Timeout, e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// ParseError reports a provider answer that did not match the structured item shape.
// Raw keeps the payload for diagnosis.
type ParseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response parse error: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed storage write. The in-memory result stays valid.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IncompleteRunError is the reported (non-fatal) condition of a run where some
// requested categories failed.
type IncompleteRunError struct {
	Succeeded int
	Requested int
	Failed    []int
}

func (e *IncompleteRunError) Error() string {
	return fmt.Sprintf("incomplete run: %d of %d categories succeeded (failed %v)", e.Succeeded, e.Requested, e.Failed)
}

// FailureFromError classifies err into a per-category Failure.
func FailureFromError(category int, err error) Failure {
	failure := Failure{Category: category, Kind: FailureInternal}
	if err == nil {
		return failure
	}
	failure.Message = err.Error()

	var (
		providerErr *ProviderError
		parseErr    *ParseError
	)
	switch {
	case errors.As(err, &parseErr):
		failure.Kind = FailureParse
		failure.Raw = parseErr.Raw
	case errors.As(err, &providerErr):
		failure.Kind = FailureProvider
		failure.Retryable = providerErr.Retryable()
	case errors.Is(err, context.DeadlineExceeded):
		failure.Kind = FailureProvider
		failure.Retryable = true
	case errors.Is(err, ErrZeroItems):
		failure.Kind = FailureZeroItems
		failure.Retryable = true
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrInvalidSubject):
		failure.Kind = FailureInvalidInput
	}
	return failure
}
