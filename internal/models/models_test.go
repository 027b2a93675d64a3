package models

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/experiment"
)

// listSplit serves fixed train and test ratings.
type listSplit struct {
	train, test []*data.Rating
}

func (s *listSplit) Configure(experiment.SplitSpec) error { return nil }
func (s *listSplit) ID() string                           { return "list" }
func (s *listSplit) Type() experiment.SplitType           { return experiment.SplitStatic }
func (s *listSplit) Store() data.Store                    { return nil }
func (s *listSplit) Setup(context.Context) error          { return nil }
func (s *listSplit) SubSplits() []experiment.Split        { return nil }
func (s *listSplit) Load(context.Context) error           { return nil }
func (s *listSplit) Train() []*data.Rating                { return s.train }
func (s *listSplit) Test() []*data.Rating                 { return s.test }
func (s *listSplit) Statistics() []data.Stat              { return nil }

func ratings(t *testing.T, rows ...[3]string) []*data.Rating {
	t.Helper()
	c := data.NewContainer("c", true)
	for _, r := range rows {
		var v float64
		switch r[2] {
		case "1":
			v = 1
		case "3":
			v = 3
		case "5":
			v = 5
		}
		_, err := c.AddRating(r[0], r[1], v, time.Time{}, data.NotApplicable)
		require.NoError(t, err)
	}
	return c.Ratings()
}

func TestPopularity_Recommend(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	train := ratings(t,
		[3]string{"u1", "a", "5"}, [3]string{"u2", "a", "5"}, [3]string{"u3", "a", "1"},
		[3]string{"u1", "b", "5"}, [3]string{"u2", "b", "5"},
		[3]string{"u1", "c", "1"},
	)
	p := NewPopularity()
	require.NoError(t, p.Configure("pop", nil))

	// --- Act ---
	require.NoError(t, p.Train(context.Background(), &listSplit{train: train}))

	// --- Assert ---
	require.Equal(t, []string{"a", "b"}, p.Recommend("u9", 2, nil))
	require.Equal(t, []string{"b", "c"}, p.Recommend("u1", 5, map[string]struct{}{"a": {}}))
}

func TestPopularity_Weighted(t *testing.T) {
	t.Parallel()

	train := ratings(t,
		[3]string{"u1", "a", "1"}, [3]string{"u2", "a", "1"}, [3]string{"u3", "a", "1"},
		[3]string{"u1", "b", "5"},
	)
	p := NewPopularity()
	require.NoError(t, p.Configure("pop", config.Attributes{{Name: "weighted", Value: "true"}}))
	require.NoError(t, p.Train(context.Background(), &listSplit{train: train}))

	require.Equal(t, []string{"b", "a"}, p.Recommend("u9", 2, nil))
}

func TestPopularity_Configure(t *testing.T) {
	t.Parallel()

	require.ErrorContains(t, NewPopularity().Configure("pop", config.Attributes{{Name: "dim", Value: "8"}}), "unknown parameter")
	require.ErrorContains(t, NewPopularity().Configure("pop", config.Attributes{{Name: "maxItems", Value: "0"}}), "positive")
}

func TestBaseline_PredictRating(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	train := ratings(t,
		[3]string{"u1", "a", "5"}, [3]string{"u1", "b", "3"},
		[3]string{"u2", "a", "3"}, [3]string{"u2", "b", "1"},
	)
	b := NewBaseline()
	require.NoError(t, b.Configure("base", config.Attributes{{Name: "regUser", Value: "0"}, {Name: "regItem", Value: "0"}}))

	// --- Act ---
	require.NoError(t, b.Train(context.Background(), &listSplit{train: train}))

	// --- Assert ---
	// mu = 3, b_a = 1, b_b = -1, b_u1 = 1, b_u2 = -1
	got, ok := b.PredictRating("u1", "a")
	require.True(t, ok)
	assert.InDelta(t, 5.0, got, 1e-9)
	got, _ = b.PredictRating("u2", "b")
	assert.InDelta(t, 1.0, got, 1e-9)
	got, _ = b.PredictRating("stranger", "unknown")
	assert.InDelta(t, 3.0, got, 1e-9)

	require.Equal(t, []string{"a", "b"}, b.Recommend("u1", 10, nil))
	require.Equal(t, []string{"b"}, b.Recommend("u1", 10, map[string]struct{}{"a": {}}))
}

func TestBaseline_Clamp(t *testing.T) {
	t.Parallel()

	train := ratings(t, [3]string{"u1", "a", "5"}, [3]string{"u2", "b", "1"})
	b := NewBaseline()
	require.NoError(t, b.Configure("base", config.Attributes{
		{Name: "regUser", Value: "0"}, {Name: "regItem", Value: "0"},
		{Name: "minRating", Value: "2"}, {Name: "maxRating", Value: "4"},
	}))
	require.NoError(t, b.Train(context.Background(), &listSplit{train: train}))

	got, _ := b.PredictRating("u1", "a")
	require.Equal(t, 4.0, got)
}

func TestBaseline_ClearAndErrors(t *testing.T) {
	t.Parallel()

	b := NewBaseline()
	require.NoError(t, b.Configure("base", nil))
	require.ErrorContains(t, b.Train(context.Background(), &listSplit{}), "no training ratings")

	require.NoError(t, b.Train(context.Background(), &listSplit{train: ratings(t, [3]string{"u", "i", "3"})}))
	b.Clear()
	_, ok := b.PredictRating("u", "i")
	require.False(t, ok)
	require.Zero(t, b.Stats())

	require.ErrorContains(t, NewBaseline().Configure("b", config.Attributes{{Name: "regUser", Value: "-1"}}), "negative")
	require.ErrorContains(t, NewBaseline().Configure("b", config.Attributes{{Name: "regItem", Value: "x"}}), "not a number")
}
