package experiment

import (
	"context"
	"fmt"
)

// EvaluationContext is the ordered set of evaluators of one evalContext
// node. It is read-only once constructed and shared by every case that
// references it; the rows it computes are stored on the descriptor.
type EvaluationContext struct {
	ID         string
	evaluators []Evaluator
}

// NewEvaluationContext creates an evaluation context.
func NewEvaluationContext(id string, evaluators ...Evaluator) *EvaluationContext {
	return &EvaluationContext{ID: id, evaluators: evaluators}
}

// Evaluators returns the evaluators in declared order.
func (ec *EvaluationContext) Evaluators() []Evaluator {
	return ec.evaluators
}

// Evaluate runs every evaluator against the trained model and concatenates
// their rows.
func (ec *EvaluationContext) Evaluate(ctx context.Context, model Model, split Split) ([]ResultRow, error) {
	var rows []ResultRow
	for i, ev := range ec.evaluators {
		r, err := ev.Evaluate(ctx, model, split)
		if err != nil {
			return nil, fmt.Errorf("evaluation context '%s': evaluator %d (%T): %w", ec.ID, i+1, ev, err)
		}
		rows = append(rows, r...)
	}
	return rows, nil
}
