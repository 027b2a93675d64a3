package evaluators

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/experiment"
)

// TypeRMSE is the registered name of RMSE.
const TypeRMSE = "rmse"

// RMSE measures rating prediction error on the test ratings. The model must
// implement experiment.RatingPredictor. It emits one row with RMSE, MAE and
// the number of predicted ratings.
type RMSE struct{}

// NewRMSE creates the evaluator.
func NewRMSE() *RMSE { return &RMSE{} }

// Configure implements experiment.Evaluator.
func (e *RMSE) Configure(params config.Attributes) error {
	if names := params.Without("id", "class").Names(); len(names) > 0 {
		return fmt.Errorf("evaluator %s: unknown parameters %v", TypeRMSE, names)
	}
	return nil
}

// Evaluate implements experiment.Evaluator.
func (e *RMSE) Evaluate(ctx context.Context, model experiment.Model, split experiment.Split) ([]experiment.ResultRow, error) {
	predictor, ok := model.(experiment.RatingPredictor)
	if !ok {
		return nil, fmt.Errorf("model '%s' (%T) cannot predict ratings", model.ID(), model)
	}

	var sqErr, absErr float64
	n := 0
	for _, r := range split.Test() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, ok := predictor.PredictRating(r.User.ID, r.Item.ID)
		if !ok {
			continue
		}
		d := p - r.Value
		sqErr += d * d
		absErr += math.Abs(d)
		n++
	}
	if n == 0 {
		return nil, errors.New("no test rating could be predicted")
	}

	return []experiment.ResultRow{{
		{Name: "RMSE", Value: formatFloat(math.Sqrt(sqErr / float64(n)))},
		{Name: "MAE", Value: formatFloat(absErr / float64(n))},
		{Name: "Predicted", Value: strconv.Itoa(n)},
	}}, nil
}
