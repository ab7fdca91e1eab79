package evaluator

import (
	"context"
	"fmt"

	"PoliticianEvaluator/internal/domain"
)

// Evaluator scores one category for a politician. Failures are reported inside
// the result, never returned.
type Evaluator interface {
	Category() domain.Category
	Evaluate(ctx context.Context, subject domain.Subject) domain.CategoryResult
}

// Registry maps category ids to their evaluator.
type Registry struct {
	evaluators map[int]Evaluator
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: map[int]Evaluator{}}
}

// Register adds or replaces the evaluator for its category.
func (r *Registry) Register(e Evaluator) {
	if r.evaluators == nil {
		r.evaluators = map[int]Evaluator{}
	}
	r.evaluators[e.Category().ID] = e
}

// Resolve returns the evaluator for a category or an error if it is absent.
func (r *Registry) Resolve(id int) (Evaluator, error) {
	if e, ok := r.evaluators[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: no evaluator registered for category %d", domain.ErrInvalidCategory, id)
}

// Len reports how many evaluators are registered.
func (r *Registry) Len() int {
	return len(r.evaluators)
}

// BuildRegistry registers one PromptEvaluator per definition, all sharing opts.
func BuildRegistry(defs []Definition, opts Options) *Registry {
	reg := NewRegistry()
	for _, def := range defs {
		reg.Register(NewPromptEvaluator(def, opts))
	}
	return reg
}
