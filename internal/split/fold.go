package split

import (
	"context"
	"errors"

	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/experiment"
)

// Fold is one partition of a cross-validation split.
type Fold struct {
	parent *Feedback
	index  int
	id     string
	train  []*data.Rating
	test   []*data.Rating
}

// Configure implements experiment.Split. Folds are configured by their parent.
func (f *Fold) Configure(experiment.SplitSpec) error {
	return errors.New("folds are created by their cross-validation split")
}

// ID implements experiment.Split.
func (f *Fold) ID() string { return f.id }

// Index returns the zero based fold number.
func (f *Fold) Index() int { return f.index }

// Type implements experiment.Split.
func (f *Fold) Type() experiment.SplitType { return experiment.SplitCrossValidation }

// Store implements experiment.Split.
func (f *Fold) Store() data.Store { return f.parent.Store() }

// Setup implements experiment.Split.
func (f *Fold) Setup(context.Context) error { return nil }

// SubSplits implements experiment.Split.
func (f *Fold) SubSplits() []experiment.Split { return nil }

// Load implements experiment.Split. The parent partitions every fold at once.
func (f *Fold) Load(ctx context.Context) error { return f.parent.Load(ctx) }

// Train implements experiment.Split.
func (f *Fold) Train() []*data.Rating { return f.train }

// Test implements experiment.Split.
func (f *Fold) Test() []*data.Rating { return f.test }

// Statistics implements experiment.Split.
func (f *Fold) Statistics() []data.Stat {
	return statistics(f.id, experiment.SplitCrossValidation, f.train, f.test)
}
