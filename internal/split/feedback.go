package split

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/experiment"
)

// TypeFeedback is the registered name of Feedback.
const TypeFeedback = "feedback"

const (
	defaultTrainRatio = 0.75
	defaultSeed       = 1
	defaultNumFolds   = 5
)

// Feedback is the default split. See the package documentation.
type Feedback struct {
	spec       experiment.SplitSpec
	trainRatio float64
	seed       uint64
	numFolds   int

	folds []*Fold
	train []*data.Rating
	test  []*data.Rating

	loaded  bool
	loadErr error
}

// New creates an unconfigured split.
func New() *Feedback {
	return &Feedback{}
}

// Configure implements experiment.Split.
func (s *Feedback) Configure(spec experiment.SplitSpec) error {
	if spec.Store == nil {
		return fmt.Errorf("split '%s': a data container is required", spec.ID)
	}
	s.spec = spec

	var err error
	switch spec.Type {
	case experiment.SplitStatic:
	case experiment.SplitRandom, experiment.SplitTemporal:
		if s.trainRatio, err = config.ParseFloat(spec.Params, "trainRatio", defaultTrainRatio); err != nil {
			return fmt.Errorf("split '%s': %w", spec.ID, err)
		}
		if s.trainRatio <= 0 || s.trainRatio >= 1 {
			return fmt.Errorf("split '%s': trainRatio must be between 0 and 1, got %v", spec.ID, s.trainRatio)
		}
	case experiment.SplitCrossValidation:
		if s.numFolds, err = config.ParseInt(spec.Params, "numFolds", defaultNumFolds); err != nil {
			return fmt.Errorf("split '%s': %w", spec.ID, err)
		}
		if s.numFolds < 2 {
			return fmt.Errorf("split '%s': numFolds must be at least 2, got %d", spec.ID, s.numFolds)
		}
	default:
		return fmt.Errorf("split '%s': type %s needs a dedicated split class", spec.ID, spec.Type)
	}

	seed, err := config.ParseInt(spec.Params, "seed", defaultSeed)
	if err != nil {
		return fmt.Errorf("split '%s': %w", spec.ID, err)
	}
	s.seed = uint64(seed)
	return nil
}

// ID implements experiment.Split.
func (s *Feedback) ID() string { return s.spec.ID }

// Type implements experiment.Split.
func (s *Feedback) Type() experiment.SplitType { return s.spec.Type }

// Store implements experiment.Split.
func (s *Feedback) Store() data.Store { return s.spec.Store }

// Setup implements experiment.Split.
func (s *Feedback) Setup(ctx context.Context) error {
	if s.spec.Type != experiment.SplitCrossValidation || s.folds != nil {
		return nil
	}
	s.folds = make([]*Fold, s.numFolds)
	for i := range s.folds {
		s.folds[i] = &Fold{parent: s, index: i, id: fmt.Sprintf("%s.fold%d", s.spec.ID, i+1)}
	}
	ctxlog.FromContext(ctx).Debug("Cross-validation folds created.", "split", s.spec.ID, "folds", s.numFolds)
	return nil
}

// SubSplits implements experiment.Split.
func (s *Feedback) SubSplits() []experiment.Split {
	if len(s.folds) == 0 {
		return nil
	}
	out := make([]experiment.Split, len(s.folds))
	for i, f := range s.folds {
		out[i] = f
	}
	return out
}

// Load implements experiment.Split.
func (s *Feedback) Load(ctx context.Context) error {
	if s.loaded {
		return s.loadErr
	}
	s.loaded = true
	if err := s.spec.Store.Load(ctx); err != nil {
		s.loadErr = err
		return err
	}

	ratings := s.spec.Store.Ratings()
	switch s.spec.Type {
	case experiment.SplitStatic:
		for _, r := range ratings {
			if r.Slice == data.Test {
				s.test = append(s.test, r)
			} else {
				s.train = append(s.train, r)
			}
		}
	case experiment.SplitRandom:
		shuffled := s.shuffled(ratings)
		cut := cutIndex(len(shuffled), s.trainRatio)
		s.train, s.test = shuffled[:cut], shuffled[cut:]
	case experiment.SplitTemporal:
		ordered := slices.Clone(ratings)
		slices.SortStableFunc(ordered, func(a, b *data.Rating) int { return a.Timestamp.Compare(b.Timestamp) })
		cut := cutIndex(len(ordered), s.trainRatio)
		s.train, s.test = ordered[:cut], ordered[cut:]
	case experiment.SplitCrossValidation:
		s.partitionFolds(s.shuffled(ratings))
	}

	ctxlog.FromContext(ctx).Debug("Split partitioned.", "split", s.spec.ID, "type", s.spec.Type, "train", len(s.train), "test", len(s.test))
	return nil
}

func (s *Feedback) partitionFolds(shuffled []*data.Rating) {
	k := len(s.folds)
	for i, f := range s.folds {
		f.train, f.test = nil, nil
		for j, r := range shuffled {
			if j%k == i {
				f.test = append(f.test, r)
			} else {
				f.train = append(f.train, r)
			}
		}
	}
}

func (s *Feedback) shuffled(ratings []*data.Rating) []*data.Rating {
	out := slices.Clone(ratings)
	rng := rand.New(rand.NewPCG(s.seed, s.seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Train implements experiment.Split.
func (s *Feedback) Train() []*data.Rating { return s.train }

// Test implements experiment.Split.
func (s *Feedback) Test() []*data.Rating { return s.test }

// Statistics implements experiment.Split.
func (s *Feedback) Statistics() []data.Stat {
	return statistics(s.spec.ID, s.spec.Type, s.train, s.test)
}

func cutIndex(n int, ratio float64) int {
	return int(math.Round(float64(n) * ratio))
}

func statistics(id string, t experiment.SplitType, train, test []*data.Rating) []data.Stat {
	return []data.Stat{
		{Name: "SplitId", Value: id},
		{Name: "SplitType", Value: t.String()},
		{Name: "TrainRatings", Value: strconv.Itoa(len(train))},
		{Name: "TestRatings", Value: strconv.Itoa(len(test))},
		{Name: "TrainUsers", Value: strconv.Itoa(distinctUsers(train))},
		{Name: "TestUsers", Value: strconv.Itoa(distinctUsers(test))},
	}
}

func distinctUsers(ratings []*data.Rating) int {
	seen := make(map[*data.User]struct{})
	for _, r := range ratings {
		seen[r.User] = struct{}{}
	}
	return len(seen)
}
