// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package experiment

import (
	"fmt"
	"time"

	"github.com/vk/recgrid/internal/config"
)

// Kind distinguishes evaluation cases from arbitrary runnable tasks.
type Kind int

const (
	KindEvaluation Kind = iota
	KindOther
)

func (k Kind) String() string {
	if k == KindOther {
		return "other"
	}
	return "evaluation"
}

// State is the lifecycle state of a descriptor.
type State int

const (
	StateCreated State = iota
	StateSetup
	StateRunning
	StateCompleted
	StateFailed
	StateCleared
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSetup:
		return "setup"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCleared:
		return "cleared"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State][]State{
	StateCreated:   {StateSetup, StateRunning, StateFailed},
	StateSetup:     {StateRunning, StateFailed},
	StateRunning:   {StateCompleted, StateFailed},
	StateCompleted: {StateCleared},
	StateFailed:    {StateCleared},
}

// Descriptor is one fully resolved, executable case.
type Descriptor struct {
	// GroupID is the id of the experiment node the case was expanded from.
	GroupID string
	Kind    Kind
	// Class is the registered name of Experiment.
	Class      string
	Experiment Experiment

	// Evaluation kind only.
	Model       Model
	Split       Split
	EvalContext *EvaluationContext

	// Params holds the raw group attributes handed to Other kind cases.
	Params config.Attributes
	// Workspace is the folder results are written to.
	Workspace string

	TrainTime      time.Duration
	EvaluationTime time.Duration
	Results        []ResultRow
	Err            error

	state State
}

// State returns the current lifecycle state.
func (d *Descriptor) State() State { return d.state }

// Transition moves the descriptor to the next state.
func (d *Descriptor) Transition(to State) error {
	for _, allowed := range transitions[d.state] {
		if allowed == to {
			d.state = to
			return nil
		}
	}
	return fmt.Errorf("case %s: invalid state transition %s -> %s", d.Name(), d.state, to)
}

// ModelID returns the model id, or "" for Other kind cases.
func (d *Descriptor) ModelID() string {
	if d.Model == nil {
		return ""
	}
	return d.Model.ID()
}

// SplitID returns the split id, or "" for Other kind cases.
func (d *Descriptor) SplitID() string {
	if d.Split == nil {
		return ""
	}
	return d.Split.ID()
}

// ContainerID returns the id of the split's data container.
func (d *Descriptor) ContainerID() string {
	if d.Split == nil || d.Split.Store() == nil {
		return ""
	}
	return d.Split.Store().ID()
}

// Name identifies the case in logs and errors.
func (d *Descriptor) Name() string {
	if d.Kind == KindOther {
		return d.GroupID
	}
	return fmt.Sprintf("%s/%s/%s", d.GroupID, d.ModelID(), d.SplitID())
}
