package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/experiment/experimenttest"
	"github.com/vk/recgrid/internal/results"
)

// memorySink records every call.
type memorySink struct {
	calls    []string
	closed   int
	closeErr error
	failOn   string
}

func (s *memorySink) WriteSplitStatistics(d *experiment.Descriptor) error {
	s.calls = append(s.calls, "stats "+d.Name())
	return nil
}

func (s *memorySink) WriteResults(_ context.Context, d *experiment.Descriptor) error {
	s.calls = append(s.calls, "results "+d.Name())
	if s.failOn == d.Name() {
		return errors.New("write failed")
	}
	return nil
}

func (s *memorySink) WriteError(d *experiment.Descriptor, err error) error {
	s.calls = append(s.calls, "error "+d.Name())
	return nil
}

func (s *memorySink) Close() error {
	s.closed++
	s.calls = append(s.calls, "close")
	return s.closeErr
}

type memoryRecorder struct {
	cases       map[string]int
	joinFailure int
}

func (r *memoryRecorder) RecordCase(group, status string, _ time.Duration) {
	if r.cases == nil {
		r.cases = make(map[string]int)
	}
	r.cases[group+"/"+status]++
}
func (r *memoryRecorder) RecordTimings(string, time.Duration, time.Duration) {}
func (r *memoryRecorder) RecordJoinFailure()                                 { r.joinFailure++ }

// otherCase runs fn as an Other kind experiment.
type otherCase func(ctx context.Context, d *experiment.Descriptor) error

func (f otherCase) Setup(context.Context, *experiment.Descriptor) error { return nil }
func (f otherCase) Run(ctx context.Context, d *experiment.Descriptor) error {
	return f(ctx, d)
}
func (f otherCase) Clear(*experiment.Descriptor) {}

func evalCase(group string, m *experimenttest.Model, s *experimenttest.Split, ec *experiment.EvaluationContext) *experiment.Descriptor {
	return &experiment.Descriptor{
		GroupID:     group,
		Kind:        experiment.KindEvaluation,
		Experiment:  experiment.Evaluation{},
		Model:       m,
		Split:       s,
		EvalContext: ec,
	}
}

func TestExecutor_Execute_CaseLifecycle(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sink := &memorySink{}
	m := experimenttest.NewModel("m")
	s := experimenttest.NewSplit("s", "ml")
	ec := experiment.NewEvaluationContext("ctx", &experimenttest.Evaluator{Rows: []experiment.ResultRow{experimenttest.Row("RMSE", "1")}})
	d := evalCase("g", m, s, ec)

	// --- Act ---
	summary, err := New(sink).Execute(context.Background(), Plan{Cases: []*experiment.Descriptor{d}})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 1, summary.Total)
	require.Equal(t, 1, summary.Succeeded)
	require.Zero(t, summary.Failed)
	require.Equal(t, []GroupSummary{{ID: "g", Succeeded: 1}}, summary.Groups)
	require.Equal(t, experiment.StateCleared, d.State())
	require.NoError(t, d.Err)
	require.Len(t, d.Results, 1)
	require.Equal(t, 1, s.Loads)
	require.Equal(t, 1, m.Setups)
	require.Equal(t, 1, m.Trains)
	require.Equal(t, 1, m.Clears)
	require.Equal(t, []string{"stats g/m/s", "results g/m/s", "close"}, sink.calls)
}

func TestExecutor_Execute_FaultIsolation(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Ten cases of one group; the third one fails while running.
	dir := t.TempDir()
	agg := results.NewAggregator(dir, ',')
	ec := experiment.NewEvaluationContext("ctx", &experimenttest.Evaluator{Rows: []experiment.ResultRow{experimenttest.Row("RMSE", "0.5")}})
	split := experimenttest.NewSplit("s", "ml")

	var cases []*experiment.Descriptor
	for i := 1; i <= 10; i++ {
		m := experimenttest.NewModel(fmt.Sprintf("m%d", i))
		if i == 3 {
			m.TrainErr = errors.New("diverged")
		}
		cases = append(cases, evalCase("g", m, split, ec))
	}
	recorder := &memoryRecorder{}

	// --- Act ---
	summary, err := New(agg, WithMetrics(recorder)).Execute(context.Background(), Plan{Cases: cases})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 9, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, map[string]int{"g/succeeded": 9, "g/failed": 1}, recorder.cases)

	for i, d := range cases {
		require.Equal(t, experiment.StateCleared, d.State(), "case %d", i+1)
	}
	require.ErrorContains(t, cases[2].Err, "diverged")

	errText, err := os.ReadFile(filepath.Join(dir, "g.err.txt"))
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(errText), "Error in experiment"))
	require.Contains(t, string(errText), "model 'm3', split 's'")

	csv, err := os.ReadFile(filepath.Join(dir, "g.csv"))
	require.NoError(t, err)
	for i := 1; i <= 10; i++ {
		has := strings.Contains(string(csv), fmt.Sprintf("g,m%d,s,", i))
		assert.Equal(t, i != 3, has, "model m%d", i)
	}

	splits, err := os.ReadFile(filepath.Join(dir, "g.splits.csv"))
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(string(splits)), "\n"), 2, "split statistics are written once")
}

func TestExecutor_Execute_RecoversPanics(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sink := &memorySink{}
	bad := experimenttest.NewModel("bad")
	bad.PanicOnTrain = "index out of range"
	good := experimenttest.NewModel("good")
	s := experimenttest.NewSplit("s", "ml")
	cases := []*experiment.Descriptor{evalCase("g", bad, s, nil), evalCase("g", good, s, nil)}

	// --- Act ---
	summary, err := New(sink).Execute(context.Background(), Plan{Cases: cases})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 1, summary.Succeeded)

	var perr *PanicError
	require.ErrorAs(t, cases[0].Err, &perr)
	require.Equal(t, "index out of range", perr.Value)
	require.Contains(t, perr.Error(), "goroutine")
	require.Equal(t, 1, bad.Clears, "failed cases are cleared too")
	require.Contains(t, sink.calls, "error g/bad/s")
}

func TestExecutor_Execute_FailureStages(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		configure func(m *experimenttest.Model, s *experimenttest.Split, sink *memorySink)
		wantErr   string
		wantCalls []string
	}{
		{
			name: "split load",
			configure: func(_ *experimenttest.Model, s *experimenttest.Split, _ *memorySink) {
				s.LoadErr = errors.New("no file")
			},
			wantErr:   "loading split 's': no file",
			wantCalls: []string{"error g/m/s", "close"},
		},
		{
			name: "model setup",
			configure: func(m *experimenttest.Model, _ *experimenttest.Split, _ *memorySink) {
				m.SetupErr = errors.New("bad dims")
			},
			wantErr:   "setting up model 'm': bad dims",
			wantCalls: []string{"error g/m/s", "close"},
		},
		{
			name:      "result write",
			configure: func(_ *experimenttest.Model, _ *experimenttest.Split, sink *memorySink) { sink.failOn = "g/m/s" },
			wantErr:   "write failed",
			wantCalls: []string{"stats g/m/s", "results g/m/s", "error g/m/s", "close"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			sink := &memorySink{}
			m := experimenttest.NewModel("m")
			s := experimenttest.NewSplit("s", "ml")
			tc.configure(m, s, sink)
			d := evalCase("g", m, s, nil)

			// --- Act ---
			summary, err := New(sink).Execute(context.Background(), Plan{Cases: []*experiment.Descriptor{d}})

			// --- Assert ---
			require.NoError(t, err)
			require.Equal(t, 1, summary.Failed)
			require.EqualError(t, d.Err, tc.wantErr)
			require.Equal(t, tc.wantCalls, sink.calls)
			require.Equal(t, experiment.StateCleared, d.State())
		})
	}
}

func TestExecutor_Execute_OtherKindAndJoin(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sink := &memorySink{}
	var order []string
	other := &experiment.Descriptor{
		GroupID: "post",
		Kind:    experiment.KindOther,
		Experiment: otherCase(func(context.Context, *experiment.Descriptor) error {
			order = append(order, "other")
			return nil
		}),
	}
	join := &experiment.Descriptor{
		GroupID: "all",
		Kind:    experiment.KindOther,
		Experiment: otherCase(func(context.Context, *experiment.Descriptor) error {
			order = append(order, fmt.Sprintf("join after %d closes", sink.closed))
			return nil
		}),
	}

	// --- Act ---
	summary, err := New(sink).Execute(context.Background(), Plan{Cases: []*experiment.Descriptor{other}, Join: join})

	// --- Assert ---
	require.NoError(t, err)
	require.NoError(t, summary.JoinErr)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, []string{"other", "join after 1 closes"}, order)
	require.Equal(t, []string{"close"}, sink.calls, "other cases write no statistics or results")
	require.Equal(t, experiment.StateCleared, other.State())
}

func TestExecutor_Execute_JoinFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sink := &memorySink{}
	recorder := &memoryRecorder{}
	join := &experiment.Descriptor{
		GroupID: "all",
		Kind:    experiment.KindOther,
		Experiment: otherCase(func(context.Context, *experiment.Descriptor) error {
			return errors.New("missing source")
		}),
	}
	d := evalCase("g", experimenttest.NewModel("m"), experimenttest.NewSplit("s", "ml"), nil)

	// --- Act ---
	summary, err := New(sink, WithMetrics(recorder)).Execute(context.Background(), Plan{Cases: []*experiment.Descriptor{d}, Join: join})

	// --- Assert ---
	require.NoError(t, err)
	var jerr *JoinError
	require.ErrorAs(t, summary.JoinErr, &jerr)
	require.ErrorContains(t, jerr, "missing source")
	require.Equal(t, 1, summary.Succeeded, "join failures do not change counts")
	require.Zero(t, summary.Failed)
	require.Equal(t, 1, recorder.joinFailure)
}

func TestExecutor_Execute_CloseError(t *testing.T) {
	t.Parallel()

	sink := &memorySink{closeErr: errors.New("disk full")}
	summary, err := New(sink).Execute(context.Background(), Plan{})

	require.EqualError(t, err, "disk full")
	require.NotNil(t, summary)
	require.Equal(t, 1, sink.closed)
}

func TestExecutor_Execute_CancelledContext(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sink := &memorySink{}
	ctx, cancel := context.WithCancel(context.Background())
	s := experimenttest.NewSplit("s", "ml")
	first := evalCase("g", experimenttest.NewModel("a"), s, nil)
	first.Experiment = otherCase(func(context.Context, *experiment.Descriptor) error {
		cancel()
		return nil
	})
	first.Kind = experiment.KindOther
	cases := []*experiment.Descriptor{first, evalCase("g", experimenttest.NewModel("b"), s, nil), evalCase("g", experimenttest.NewModel("c"), s, nil)}

	// --- Act ---
	summary, err := New(sink).Execute(ctx, Plan{Cases: cases})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, 2, summary.Skipped)
	require.Equal(t, experiment.StateCreated, cases[1].State())
	require.Equal(t, 1, sink.closed)
}
