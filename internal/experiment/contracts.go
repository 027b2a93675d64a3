// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package experiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/registry"
)

// Contracts resolved from configuration.
const (
	ContractModel      registry.Contract = "Model"
	ContractSplit      registry.Contract = "Split"
	ContractReader     registry.Contract = "DatasetReader"
	ContractEvaluator  registry.Contract = "Evaluator"
	ContractExperiment registry.Contract = "Experiment"
)

// ModelStats are the timings a model measures itself, excluding engine
// overhead such as data preparation.
type ModelStats struct {
	PureTrainTime      time.Duration
	PureEvaluationTime time.Duration
}

// Model is a recommendation model configured with one point of its
// parameter grid.
type Model interface {
	// Configure binds the group-scoped id and the parameter values. It is
	// called during resolution; a returned error aborts the run.
	Configure(id string, params config.Attributes) error
	ID() string
	Parameters() config.Attributes
	Setup(ctx context.Context, split Split) error
	Train(ctx context.Context, split Split) error
	Stats() ModelStats
	// Clear releases trained state.
	Clear()
}

// RatingPredictor is implemented by models that predict explicit ratings.
type RatingPredictor interface {
	PredictRating(userID, itemID string) (float64, bool)
}

// Ranker is implemented by models that produce top-n recommendations.
type Ranker interface {
	// Recommend returns up to n item ids for the user, best first,
	// excluding the ids in seen.
	Recommend(userID string, n int, seen map[string]struct{}) []string
}

// SplitType is the declared partitioning strategy of a split.
type SplitType int

const (
	SplitStatic SplitType = iota
	SplitRandom
	SplitTemporal
	SplitCrossValidation
	SplitCustom
)

func (t SplitType) String() string {
	switch t {
	case SplitStatic:
		return "static"
	case SplitRandom:
		return "random"
	case SplitTemporal:
		return "temporal"
	case SplitCrossValidation:
		return "cv"
	default:
		return "custom"
	}
}

// ParseSplitType parses the type attribute of a split node.
func ParseSplitType(s string) (SplitType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return SplitStatic, nil
	case "random":
		return SplitRandom, nil
	case "temporal", "dynamic":
		return SplitTemporal, nil
	case "cv", "crossvalidation", "cross-validation", "cross_validation":
		return SplitCrossValidation, nil
	case "custom":
		return SplitCustom, nil
	case "":
		return 0, fmt.Errorf("split type is required")
	default:
		return 0, fmt.Errorf("unknown split type %q", s)
	}
}

// SplitSpec is the resolved configuration of a split node.
type SplitSpec struct {
	ID     string
	Type   SplitType
	Store  data.Store
	Params config.Attributes
}

// Split partitions the ratings of a data container into train and test.
type Split interface {
	Configure(spec SplitSpec) error
	ID() string
	Type() SplitType
	Store() data.Store
	// Setup materializes SubSplits. It runs synchronously during
	// resolution and must not read data.
	Setup(ctx context.Context) error
	// SubSplits returns the ordered sub-splits, or nil for a leaf split.
	SubSplits() []Split
	// Load reads the container and partitions it. It is idempotent.
	Load(ctx context.Context) error
	Train() []*data.Rating
	Test() []*data.Rating
	Statistics() []data.Stat
}

// Evaluator computes metric rows for a trained model on a split.
type Evaluator interface {
	Configure(params config.Attributes) error
	Evaluate(ctx context.Context, model Model, split Split) ([]ResultRow, error)
}

// Experiment is the behavior behind a descriptor.
type Experiment interface {
	Setup(ctx context.Context, d *Descriptor) error
	Run(ctx context.Context, d *Descriptor) error
	Clear(d *Descriptor)
}
