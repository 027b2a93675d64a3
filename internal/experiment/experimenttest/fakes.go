// Package experimenttest provides in-memory implementations of the
// experiment contracts for tests.
package experimenttest

import (
	"context"
	"errors"
	"time"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/experiment"
)

// Model is a configurable fake model.
type Model struct {
	experiment.BaseModel

	// SetupErr, TrainErr are returned by the matching calls.
	SetupErr error
	TrainErr error
	// PanicOnTrain makes Train panic with the given value when non-nil.
	PanicOnTrain any
	// TrainTime is recorded as pure training time on every Train.
	TrainTime time.Duration

	Setups, Trains, Clears int
}

// NewModel returns a model bound to id and params.
func NewModel(id string, params ...config.Attribute) *Model {
	m := &Model{}
	m.Bind(id, params)
	return m
}

func (m *Model) Setup(context.Context, experiment.Split) error {
	m.Setups++
	return m.SetupErr
}

func (m *Model) Train(context.Context, experiment.Split) error {
	m.Trains++
	if m.PanicOnTrain != nil {
		panic(m.PanicOnTrain)
	}
	if m.TrainErr != nil {
		return m.TrainErr
	}
	m.RecordTrain(m.TrainTime)
	return nil
}

func (m *Model) Clear() {
	m.Clears++
	m.ResetStats()
}

// Split is a leaf split over a fixed store.
type Split struct {
	SplitID string
	Data    data.Store
	Stats   []data.Stat
	LoadErr error
	Loads   int
}

// NewSplit returns a split over an empty container.
func NewSplit(id, containerID string) *Split {
	return &Split{
		SplitID: id,
		Data:    data.NewContainer(containerID, false),
		Stats:   []data.Stat{{Name: "SplitId", Value: id}},
	}
}

func (s *Split) Configure(experiment.SplitSpec) error {
	return errors.New("fake split cannot be configured")
}
func (s *Split) ID() string                    { return s.SplitID }
func (s *Split) Type() experiment.SplitType    { return experiment.SplitStatic }
func (s *Split) Store() data.Store             { return s.Data }
func (s *Split) Setup(context.Context) error   { return nil }
func (s *Split) SubSplits() []experiment.Split { return nil }
func (s *Split) Train() []*data.Rating         { return nil }
func (s *Split) Test() []*data.Rating          { return nil }
func (s *Split) Statistics() []data.Stat       { return s.Stats }
func (s *Split) Load(ctx context.Context) error {
	s.Loads++
	return s.LoadErr
}

// Evaluator returns Rows, or Err when set.
type Evaluator struct {
	Rows []experiment.ResultRow
	Err  error
}

func (e *Evaluator) Configure(config.Attributes) error { return nil }

func (e *Evaluator) Evaluate(context.Context, experiment.Model, experiment.Split) ([]experiment.ResultRow, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Rows, nil
}

// Row builds a result row from name/value pairs.
func Row(pairs ...string) experiment.ResultRow {
	var r experiment.ResultRow
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}
