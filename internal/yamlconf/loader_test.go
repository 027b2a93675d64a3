package yamlconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/recgrid/internal/config"
)

const sample = `
experiments:
  separator: ","
  run: [exp1]
model:
  mf:
    class: baseline
    parameters:
      regUser: "1,2"
      regItem: 10
      dim: ["1,1,8"]
evalContext:
  ctx:
    evaluator:
      - class: rmse
      - class: ranking
        cutoffs: [5, 10]
experiment:
  exp1:
    models: mf
    evalContext: ctx
`

func TestLoader_Parse(t *testing.T) {
	t.Parallel()

	// --- Act ---
	doc, err := NewLoader().Parse([]byte(sample), "main.yaml")

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 4, doc.Len())

	settings, err := doc.Settings()
	require.NoError(t, err)
	require.Equal(t, []string{"exp1"}, settings.Attrs.Values("run"))

	model, err := doc.Lookup(config.KindModel, "mf")
	require.NoError(t, err)
	require.Equal(t, "main.yaml:6", model.Source)
	params := model.ChildrenOf(config.KindParameters)
	require.Len(t, params, 1)
	want := config.Attributes{
		{Name: "regUser", Value: "1,2"},
		{Name: "regItem", Value: "10"},
		{Name: "dim", Value: "1,1,8", List: []string{"1,1,8"}},
	}
	if diff := cmp.Diff(want, params[0].Attrs); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}

	ec, err := doc.Lookup(config.KindEvalContext, "ctx")
	require.NoError(t, err)
	evaluators := ec.ChildrenOf(config.KindEvaluator)
	require.Len(t, evaluators, 2)
	class, _ := evaluators[1].Attrs.Get("class")
	require.Equal(t, "ranking", class)
}

func TestLoader_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "syntax error", src: "model: [", wantErr: "failed to parse"},
		{name: "root is a list", src: "- a\n- b\n", wantErr: "document root must be a mapping"},
		{name: "unknown kind", src: "pipeline:\n  a: {}\n", wantErr: `unsupported node kind "pipeline"`},
		{name: "definitions not a mapping", src: "model: [a, b]\n", wantErr: "must map ids to definitions"},
		{name: "id attribute", src: "model:\n  a:\n    id: b\n", wantErr: "given by its key"},
		{name: "mixed list", src: "model:\n  a:\n    x: [1, {b: 2}]\n", wantErr: "mixes values and definitions"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLoader().Parse([]byte(tc.src), "bad.yaml")
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoader_LoadMultipleFilesAndDocuments(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("model:\n  a: {}\n---\nmodel:\n  b: ~\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yml"), []byte("model:\n  c:\n    class: popularity\n"), 0o644))

	// --- Act ---
	doc, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	models := doc.Nodes(config.KindModel)
	require.Len(t, models, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{models[0].ID, models[1].ID, models[2].ID})
}
