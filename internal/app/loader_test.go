package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/recgrid/internal/config"
)

func TestLoader_MergesHCLAndYAML(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.hcl"), []byte(`model "bl" { class = "baseline" }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "experiments.yml"), []byte("experiment:\n  g:\n    models: bl\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	// --- Act ---
	doc, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Len())
	_, err = doc.Lookup(config.KindModel, "bl")
	require.NoError(t, err)
	g, err := doc.Lookup(config.KindExperiment, "g")
	require.NoError(t, err)
	assert.Equal(t, "bl", g.Attrs.Value("models", ""))
}

func TestLoader_NoFiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	// --- Act ---
	_, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration files found")
}
