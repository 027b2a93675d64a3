package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/metrics"
)

// Sink receives case outcomes. *results.Aggregator implements it.
type Sink interface {
	WriteSplitStatistics(d *experiment.Descriptor) error
	WriteResults(ctx context.Context, d *experiment.Descriptor) error
	WriteError(d *experiment.Descriptor, err error) error
	Close() error
}

// Recorder receives per-case measurements. *metrics.Collector implements it.
type Recorder interface {
	RecordCase(group, status string, d time.Duration)
	RecordTimings(group string, train, evaluation time.Duration)
	RecordJoinFailure()
}

// Plan is the fully resolved work of a run.
type Plan struct {
	Cases []*experiment.Descriptor
	// Join runs after the result streams are closed. Optional.
	Join *experiment.Descriptor
}

// GroupSummary counts the outcomes of one group.
type GroupSummary struct {
	ID        string `json:"id"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Summary is the outcome of a run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// Skipped counts cases never started because the context was done.
	Skipped  int
	Groups   []GroupSummary
	JoinErr  error
	Duration time.Duration
}

// Executor is the sequential case driver.
type Executor struct {
	sink    Sink
	metrics Recorder
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics records case outcomes in r.
func WithMetrics(r Recorder) Option {
	return func(e *Executor) { e.metrics = r }
}

// New creates an executor writing outcomes to sink.
func New(sink Sink, opts ...Option) *Executor {
	e := &Executor{sink: sink}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every case of the plan in order. Case failures are counted
// in the summary, not returned. The returned error reports a failure to
// close the result streams, which happens regardless of case outcomes.
func (e *Executor) Execute(ctx context.Context, plan Plan) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	s := &Summary{Total: len(plan.Cases)}
	groups := make(map[string]int)
	for _, d := range plan.Cases {
		if _, ok := groups[d.GroupID]; !ok {
			groups[d.GroupID] = len(s.Groups)
			s.Groups = append(s.Groups, GroupSummary{ID: d.GroupID})
		}
	}

	logger.Info("Number of experiment cases to be done.", "cases", len(plan.Cases))
	for i, d := range plan.Cases {
		if err := ctx.Err(); err != nil {
			s.Skipped = len(plan.Cases) - i
			logger.Warn("Run interrupted, skipping remaining cases.", "skipped", s.Skipped, "error", err)
			break
		}

		caseCtx := ctxlog.With(ctx, "case", d.Name())
		ctxlog.FromContext(caseCtx).Info(fmt.Sprintf("▶️ Case %d of %d", i+1, len(plan.Cases)))

		caseStart := time.Now()
		err := e.runCase(caseCtx, d)
		elapsed := time.Since(caseStart)

		status := metrics.StatusSucceeded
		if err != nil {
			status = metrics.StatusFailed
			s.Failed++
			s.Groups[groups[d.GroupID]].Failed++
			e.fail(caseCtx, d, err)
		} else {
			s.Succeeded++
			s.Groups[groups[d.GroupID]].Succeeded++
			e.complete(caseCtx, d)
		}
		e.clear(caseCtx, d)

		if e.metrics != nil {
			e.metrics.RecordCase(d.GroupID, status, elapsed)
			e.metrics.RecordTimings(d.GroupID, d.TrainTime, d.EvaluationTime)
		}
	}

	closeErr := e.sink.Close()
	if closeErr != nil {
		logger.Error("Failed to close result streams.", "error", closeErr)
	}

	if plan.Join != nil {
		logger.Info("Joining the results...")
		if err := e.runCase(ctx, plan.Join); err != nil {
			s.JoinErr = &JoinError{Err: err}
			logger.Error("Joining the results failed.", "error", err)
			if e.metrics != nil {
				e.metrics.RecordJoinFailure()
			}
		}
	}

	s.Duration = time.Since(start)
	logger.Info("✅ Run finished.", "succeeded", s.Succeeded, "failed", s.Failed, "skipped", s.Skipped, "duration", s.Duration)
	return s, closeErr
}

// runCase drives one case up to Completed-ready. A panic in any plugin is
// returned as *PanicError.
func (e *Executor) runCase(ctx context.Context, d *experiment.Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	if d.Kind == experiment.KindOther {
		if err := d.Transition(experiment.StateRunning); err != nil {
			return err
		}
		return d.Experiment.Run(ctx, d)
	}

	if err := d.Transition(experiment.StateSetup); err != nil {
		return err
	}
	if err := d.Experiment.Setup(ctx, d); err != nil {
		return err
	}
	if err := e.sink.WriteSplitStatistics(d); err != nil {
		return err
	}

	if err := d.Transition(experiment.StateRunning); err != nil {
		return err
	}
	if err := d.Experiment.Run(ctx, d); err != nil {
		return err
	}
	return e.sink.WriteResults(ctx, d)
}

func (e *Executor) complete(ctx context.Context, d *experiment.Descriptor) {
	logger := ctxlog.FromContext(ctx)
	if err := d.Transition(experiment.StateCompleted); err != nil {
		logger.Error("Invalid case state.", "error", err)
	}
	logger.Info("✅ Case completed.", "train_time", d.TrainTime, "evaluation_time", d.EvaluationTime)
	for _, row := range d.Results {
		logger.Debug("Result row.", "metrics", fmt.Sprint(row))
	}
}

func (e *Executor) fail(ctx context.Context, d *experiment.Descriptor, err error) {
	logger := ctxlog.FromContext(ctx)
	d.Err = err
	if terr := d.Transition(experiment.StateFailed); terr != nil {
		logger.Error("Invalid case state.", "error", terr)
	}
	logger.Error("❌ Case failed.", "error", err)
	if werr := e.sink.WriteError(d, err); werr != nil {
		logger.Error("Failed to record case error.", "error", werr)
	}
}

// clear releases case resources. A panic here is logged and swallowed.
func (e *Executor) clear(ctx context.Context, d *experiment.Descriptor) {
	logger := ctxlog.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Clearing case panicked.", "panic", r)
		}
	}()
	d.Experiment.Clear(d)
	if err := d.Transition(experiment.StateCleared); err != nil {
		logger.Error("Invalid case state.", "error", err)
	}
}
