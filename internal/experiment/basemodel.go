package experiment

import (
	"time"

	"github.com/vk/recgrid/internal/config"
)

// BaseModel implements the bookkeeping part of Model. Concrete models
// embed it and add Setup, Train and their prediction capabilities.
type BaseModel struct {
	id     string
	params config.Attributes
	stats  ModelStats
}

// Configure stores id and parameters. Models that accept parameters
// override it and call Bind.
func (b *BaseModel) Configure(id string, params config.Attributes) error {
	b.Bind(id, params)
	return nil
}

// Bind stores id and parameters.
func (b *BaseModel) Bind(id string, params config.Attributes) {
	b.id = id
	b.params = params
}

// ID implements Model.
func (b *BaseModel) ID() string { return b.id }

// Parameters implements Model.
func (b *BaseModel) Parameters() config.Attributes { return b.params }

// Stats implements Model.
func (b *BaseModel) Stats() ModelStats { return b.stats }

// RecordTrain adds to the pure training time.
func (b *BaseModel) RecordTrain(d time.Duration) { b.stats.PureTrainTime += d }

// RecordEvaluation adds to the pure evaluation time.
func (b *BaseModel) RecordEvaluation(d time.Duration) { b.stats.PureEvaluationTime += d }

// ResetStats zeroes the timings.
func (b *BaseModel) ResetStats() { b.stats = ModelStats{} }
