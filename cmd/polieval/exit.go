package main

import (
	"fmt"

	"PoliticianEvaluator/internal/domain"
)

// Process exit statuses.
const (
	exitComplete     = 0
	exitStartFailure = 1
	exitPartial      = 2
)

// exitError carries a process exit status through cobra's RunE.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// runExit maps a finished run to its exit status: 0 when every requested
// category scored (a subset included), 2 when some did, 1 when none did.
func runExit(final domain.FinalScore) error {
	switch {
	case final.Status == domain.RunComplete, final.Status == domain.RunSubset:
		return nil
	case final.Succeeded > 0:
		return &exitError{code: exitPartial, err: final.Err(), reported: true}
	default:
		return &exitError{code: exitStartFailure, err: final.Err(), reported: true}
	}
}
