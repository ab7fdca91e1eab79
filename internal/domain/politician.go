package domain

import (
	"fmt"
	"strings"
)

// Politician is the identity record every collected item and score refers to.
type Politician struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Party    string `json:"party,omitempty"`
	Region   string `json:"region,omitempty"`
	Position string `json:"position,omitempty"`
}

// Subject identifies the politician an evaluation run is about.
type Subject struct {
	PoliticianID   string `json:"politician_id"`
	PoliticianName string `json:"politician_name"`
}

// Subject narrows the record to what evaluators need.
func (p Politician) Subject() Subject {
	return Subject{PoliticianID: p.ID, PoliticianName: p.Name}
}

// Validate rejects subjects without an id or name.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.PoliticianID) == "" {
		return fmt.Errorf("%w: politician id is empty", ErrInvalidSubject)
	}
	if strings.TrimSpace(s.PoliticianName) == "" {
		return fmt.Errorf("%w: politician %s has no name", ErrInvalidSubject, s.PoliticianID)
	}
	return nil
}
