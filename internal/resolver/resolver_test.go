package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/evaluators"
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/hcl"
	"github.com/vk/recgrid/internal/models"
	"github.com/vk/recgrid/internal/registry"
	"github.com/vk/recgrid/internal/split"
)

// gridModel accepts any parameters.
type gridModel struct {
	experiment.BaseModel
}

func (m *gridModel) Setup(context.Context, experiment.Split) error { return nil }
func (m *gridModel) Train(context.Context, experiment.Split) error { return nil }
func (m *gridModel) Clear()                                        {}

type joinStub struct{}

func (joinStub) Setup(context.Context, *experiment.Descriptor) error { return nil }
func (joinStub) Run(context.Context, *experiment.Descriptor) error   { return nil }
func (joinStub) Clear(*experiment.Descriptor)                        {}

func newTestRegistry() *registry.Registry {
	reg := registry.New()
	modules := []registry.Module{
		&experiment.Module{},
		&data.Module{},
		&split.Module{},
		&models.Module{},
		&evaluators.Module{},
	}
	for _, m := range modules {
		m.Register(reg)
	}
	reg.Register("grid", func() any { return &gridModel{} })
	reg.Register(experiment.TypeJoinResults, func() any { return joinStub{} })
	return reg
}

const datasets = `
reader "train" {
  path      = "train.csv"
  dataType  = "ratings"
  sliceType = "train"
}
reader "test" {
  path      = "test.csv"
  dataType  = "ratings"
  sliceType = "test"
}
dataContainer "ml" { dataReaders = "train,test" }
split "cv" {
  type          = "cv"
  dataContainer = "ml"
  numFolds      = 5
}
split "holdout" {
  type          = "static"
  dataContainer = "ml"
}
evalContext "ctx" {
  evaluator { class = "rmse" }
  evaluator {
    class   = "ranking"
    cutoffs = "5,10"
  }
}
`

func newTestResolver(t *testing.T, src string) *Resolver {
	t.Helper()
	doc, err := hcl.NewLoader().Parse([]byte(datasets+src), "test.hcl")
	require.NoError(t, err)
	return New(doc, newTestRegistry())
}

func caseNames(ds []*experiment.Descriptor) []string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name()
	}
	return names
}

func TestResolver_Describe_ParameterGrid(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := newTestResolver(t, `
model "m" {
  class = "grid"
  parameters {
    a = "1,2"
    b = "x,y"
  }
}
experiment "exp" {
  models = "m"
  splits = "holdout"
}
`)

	// --- Act ---
	ds, err := r.Describe(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, ds, 4)
	var got []string
	for _, d := range ds {
		require.Equal(t, experiment.KindEvaluation, d.Kind)
		require.Equal(t, "m", d.ModelID())
		require.Equal(t, "holdout", d.SplitID())
		require.Nil(t, d.EvalContext)
		got = append(got, d.Model.Parameters().Value("a", "")+d.Model.Parameters().Value("b", ""))
	}
	require.Equal(t, []string{"1x", "1y", "2x", "2y"}, got)
}

func TestResolver_Describe_CrossValidationFolds(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := newTestResolver(t, `
model "m" {
  class = "grid"
  parameters { p = "1,2,3" }
}
experiment "exp" {
  models      = "m"
  splits      = "cv"
  evalContext = "ctx"
}
`)

	// --- Act ---
	ds, err := r.Describe(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, ds, 15)

	// Splits are outermost, models innermost.
	for i, d := range ds {
		assert.Equal(t, fmt.Sprintf("cv.fold%d", i/3+1), d.SplitID())
		assert.Equal(t, fmt.Sprint(i%3+1), d.Model.Parameters().Value("p", ""))
		assert.Same(t, ds[0].EvalContext, d.EvalContext)
		assert.Same(t, ds[0].Split.Store(), d.Split.Store())
		assert.Equal(t, experiment.StateCreated, d.State())
	}
	require.Len(t, ds[0].EvalContext.Evaluators(), 2)
	// Model instances are shared across sub-splits of one group.
	assert.Same(t, ds[0].Model, ds[3].Model)
}

func TestResolver_Describe_MemoizesContainersAndContexts(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := newTestResolver(t, `
model "m" { class = "baseline" }
experiment "a" {
  models      = "m"
  splits      = "holdout"
  evalContext = "ctx"
}
experiment "b" {
  models      = "m"
  splits      = "cv,holdout"
  evalContext = "ctx"
}
`)

	// --- Act ---
	ds, err := r.Describe(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, ds, 7)
	store := ds[0].Split.Store()
	for _, d := range ds {
		require.Same(t, store, d.Split.Store())
		require.Same(t, ds[0].EvalContext, d.EvalContext)
	}
	require.Len(t, r.containers, 1)
	require.Len(t, r.contexts, 1)
	require.Equal(t, "a", ds[0].GroupID)
	require.Equal(t, "b/m/cv.fold1", ds[1].Name())
	require.Equal(t, "b/m/holdout", ds[6].Name())
}

func TestResolver_Describe_Deterministic(t *testing.T) {
	t.Parallel()

	src := `
model "m1" {
  class = "grid"
  parameters {
    x = "1,2"
    y = "3,4,5"
  }
}
model "m2" { class = "popularity" }
experiment "exp" {
  models = "m2,m1"
  splits = "cv,holdout"
}
`
	// --- Act ---
	first, err := newTestResolver(t, src).Describe(context.Background())
	require.NoError(t, err)
	second, err := newTestResolver(t, src).Describe(context.Background())
	require.NoError(t, err)

	// --- Assert ---
	require.Len(t, first, 6*7)
	require.Equal(t, caseNames(first), caseNames(second))
	require.Equal(t, "exp/m2/cv.fold1", first[0].Name())
	require.Equal(t, "exp/m1/cv.fold1", first[1].Name())
}

func TestResolver_Describe_OtherGroup(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := newTestResolver(t, `
experiment "merge" {
  type        = "other"
  class       = "joinResults"
  outputFile  = "out.csv"
  sourceFiles = ["a.csv", "b.csv"]
}
`)

	// --- Act ---
	ds, err := r.Describe(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, ds, 1)
	d := ds[0]
	require.Equal(t, experiment.KindOther, d.Kind)
	require.Equal(t, "merge", d.Name())
	require.Nil(t, d.Model)
	require.Nil(t, d.Split)
	require.Equal(t, "out.csv", d.Params.Value("outputFile", ""))
	require.Equal(t, []string{"a.csv", "b.csv"}, d.Params.Values("sourceFiles"))
}

func TestResolver_Groups_RunFilter(t *testing.T) {
	t.Parallel()

	const groups = `
model "m" { class = "baseline" }
experiment "a" {
  models = "m"
  splits = "holdout"
}
experiment "b" {
  models = "m"
  splits = "holdout"
}
experiment "c" {
  models = "m"
  splits = "holdout"
}
`
	testCases := []struct {
		name     string
		settings string
		want     []string
		wantErr  error
	}{
		{name: "no settings runs everything", want: []string{"a", "b", "c"}},
		{name: "run list keeps document order", settings: `experiments { run = "c,a" }`, want: []string{"a", "c"}},
		{name: "unknown run id", settings: `experiments { run = "a,zzz" }`, wantErr: config.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			r := newTestResolver(t, tc.settings+groups)

			// --- Act ---
			ds, err := r.Describe(context.Background())

			// --- Assert ---
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				var rerr *ResolutionError
				require.ErrorAs(t, err, &rerr)
				require.Equal(t, config.KindExperiment, rerr.Kind)
				require.Equal(t, "zzz", rerr.ID)
				return
			}
			require.NoError(t, err)
			var got []string
			for _, d := range ds {
				got = append(got, d.GroupID)
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestResolver_Describe_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		src     string
		wantErr error
		wantAs  any
		msg     string
	}{
		{
			name: "unknown evaluator class",
			src: `
model "m" { class = "baseline" }
evalContext "bad" {
  evaluator { class = "nope" }
}
experiment "e" {
  models      = "m"
  splits      = "holdout"
  evalContext = "bad"
}`,
			wantAs: new(*registry.TypeNotFoundError),
			msg:    "resolving evalContext 'bad'",
		},
		{
			name: "class registered for another contract",
			src: `
model "m" { class = "feedback" }
experiment "e" {
  models = "m"
  splits = "holdout"
}`,
			wantAs: new(*registry.TypeMismatchError),
			msg:    "resolving model 'm'",
		},
		{
			name: "missing split",
			src: `
model "m" { class = "baseline" }
experiment "e" {
  models = "m"
  splits = "nowhere"
}`,
			wantErr: config.ErrNotFound,
			msg:     "resolving split 'nowhere'",
		},
		{
			name: "missing data container",
			src: `
split "orphan" {
  type          = "random"
  dataContainer = "void"
}
model "m" { class = "baseline" }
experiment "e" {
  models = "m"
  splits = "orphan"
}`,
			wantErr: config.ErrNotFound,
			msg:     "resolving dataContainer 'void'",
		},
		{
			name: "split without type",
			src: `
split "untyped" { dataContainer = "ml" }
model "m" { class = "baseline" }
experiment "e" {
  models = "m"
  splits = "untyped"
}`,
			msg: "split type is required",
		},
		{
			name: "duplicate model definition",
			src: `
model "m" { class = "baseline" }
model "m" { class = "popularity" }
experiment "e" {
  models = "m"
  splits = "holdout"
}`,
			wantErr: config.ErrAmbiguous,
		},
		{
			name: "two parameters blocks",
			src: `
model "m" {
  class = "grid"
  parameters { a = 1 }
  parameters { b = 2 }
}
experiment "e" {
  models = "m"
  splits = "holdout"
}`,
			wantErr: config.ErrAmbiguous,
		},
		{
			name: "invalid model parameter",
			src: `
model "m" {
  class = "baseline"
  parameters { regUser = "abc" }
}
experiment "e" {
  models = "m"
  splits = "holdout"
}`,
			msg: "resolving model 'm'",
		},
		{
			name: "unknown group type",
			src: `
experiment "e" { type = "bogus" }`,
			msg: `unknown experiment type "bogus"`,
		},
		{
			name: "other group without class",
			src: `
experiment "post" { type = "other" }`,
			msg: "resolving experiment 'post': other experiment needs a class",
		},
		{
			name: "other group running the evaluation experiment",
			src: `
experiment "post" {
  type  = "other"
  class = "Evaluation"
}`,
			msg: `class "Evaluation" cannot run as an other experiment`,
		},
		{
			name: "group without models",
			src: `
experiment "e" { splits = "holdout" }`,
			msg: "no models given",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			r := newTestResolver(t, tc.src)

			// --- Act ---
			ds, err := r.Describe(context.Background())

			// --- Assert ---
			require.Error(t, err)
			require.Nil(t, ds)
			var rerr *ResolutionError
			require.ErrorAs(t, err, &rerr)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantAs != nil {
				require.ErrorAs(t, err, tc.wantAs)
			}
			if tc.msg != "" {
				require.ErrorContains(t, err, tc.msg)
			}
		})
	}
}

func TestResolver_Descriptors_StopsEarly(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := newTestResolver(t, `
model "m" { class = "baseline" }
experiment "e" {
  models = "m"
  splits = "cv"
}
`)

	// --- Act ---
	var seen int
	for d, err := range r.Descriptors(context.Background()) {
		require.NoError(t, err)
		require.NotNil(t, d)
		seen++
		if seen == 2 {
			break
		}
	}

	// --- Assert ---
	require.Equal(t, 2, seen)
}

func TestResolver_Settings(t *testing.T) {
	t.Parallel()

	t.Run("defaults without experiments node", func(t *testing.T) {
		t.Parallel()
		s, err := newTestResolver(t, "").Settings()
		require.NoError(t, err)
		require.Equal(t, ',', s.Separator)
		require.Equal(t, config.DefaultResultsFolder, s.ResultsFolder)
	})

	t.Run("two experiments nodes are ambiguous", func(t *testing.T) {
		t.Parallel()
		_, err := newTestResolver(t, "experiments {}\nexperiments {}\n").Settings()
		require.ErrorIs(t, err, config.ErrAmbiguous)
	})

	t.Run("invalid separator", func(t *testing.T) {
		t.Parallel()
		_, err := newTestResolver(t, `experiments { separator = ";;" }`).Settings()
		var rerr *ResolutionError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, config.KindSettings, rerr.Kind)
	})
}

func TestResolver_JoinDescriptor(t *testing.T) {
	t.Parallel()

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		d, err := newTestResolver(t, "").JoinDescriptor([]string{"a"}, "out")
		require.NoError(t, err)
		require.Nil(t, d)
	})

	t.Run("configured", func(t *testing.T) {
		t.Parallel()

		// --- Arrange ---
		r := newTestResolver(t, `
experiments {
  separator    = "\t"
  jointResults = "all.csv"
}`)

		// --- Act ---
		d, err := r.JoinDescriptor([]string{"a", "b"}, "out")

		// --- Assert ---
		require.NoError(t, err)
		require.NotNil(t, d)
		require.Equal(t, experiment.KindOther, d.Kind)
		require.Equal(t, "all", d.GroupID)
		require.Equal(t, "out", d.Workspace)
		require.Equal(t, []string{"a.csv", "b.csv"}, d.Params.Values("sourceFiles"))
		require.Equal(t, "all.csv", d.Params.Value("outputFile", ""))
		require.Equal(t, "\t", d.Params.Value("delimiter", ""))
	})
}

func TestResolutionError(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	err := wrap(config.KindSplit, "s", inner)

	require.EqualError(t, err, "resolving split 's': boom")
	require.ErrorIs(t, err, inner)
	require.NoError(t, wrap("x", "y", nil))
}
