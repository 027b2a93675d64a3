// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/recgrid/internal/ctxlog"
)

// Evaluation is the default experiment: load the split, train the model,
// evaluate it with the case's evaluation context.
type Evaluation struct{}

// Setup implements Experiment.
func (Evaluation) Setup(ctx context.Context, d *Descriptor) error {
	if d.Model == nil || d.Split == nil {
		return errors.New("evaluation case needs a model and a split")
	}
	if err := d.Split.Load(ctx); err != nil {
		return fmt.Errorf("loading split '%s': %w", d.Split.ID(), err)
	}
	if err := d.Model.Setup(ctx, d.Split); err != nil {
		return fmt.Errorf("setting up model '%s': %w", d.Model.ID(), err)
	}
	return nil
}

// Run implements Experiment.
func (Evaluation) Run(ctx context.Context, d *Descriptor) error {
	logger := ctxlog.FromContext(ctx)

	start := time.Now()
	if err := d.Model.Train(ctx, d.Split); err != nil {
		return fmt.Errorf("training model '%s': %w", d.Model.ID(), err)
	}
	d.TrainTime = time.Since(start)
	logger.Debug("Model trained.", "duration", d.TrainTime)

	if d.EvalContext == nil {
		logger.Warn("Case has no evaluation context, no metrics recorded.")
		return nil
	}

	start = time.Now()
	rows, err := d.EvalContext.Evaluate(ctx, d.Model, d.Split)
	if err != nil {
		return err
	}
	d.EvaluationTime = time.Since(start)
	d.Results = rows
	logger.Debug("Model evaluated.", "duration", d.EvaluationTime, "rows", len(rows))
	return nil
}

// Clear implements Experiment.
func (Evaluation) Clear(d *Descriptor) {
	if d.Model != nil {
		d.Model.Clear()
	}
}
