package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/recgrid/internal/cli"
)

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	invalidHCL := `
		model "m" {
			class = "baseline"
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600), "failed to set up test file")
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{filePath})

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "failed to load configuration")
	require.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	// --- Assert ---
	require.Error(t, err)
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	test := filepath.Join(dir, "test.csv")
	require.NoError(t, os.WriteFile(train, []byte("u1,i1,4\nu1,i2,3\nu2,i1,5\n"), 0o600))
	require.NoError(t, os.WriteFile(test, []byte("u2,i2,4\n"), 0o600))
	doc := `
reader "train" {
  path      = "` + filepath.ToSlash(train) + `"
  dataType  = "ratings"
  sliceType = "train"
}
reader "test" {
  path      = "` + filepath.ToSlash(test) + `"
  dataType  = "ratings"
  sliceType = "test"
}
dataContainer "ml" { dataReaders = "train,test" }
split "holdout" {
  type          = "static"
  dataContainer = "ml"
}
model "bl" { class = "baseline" }
evalContext "ctx" {
  evaluator { class = "rmse" }
}
experiment "g" {
  models      = "bl"
  splits      = "holdout"
  evalContext = "ctx"
}
`
	docPath := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(docPath, []byte(doc), 0o600))
	resultsDir := filepath.Join(dir, "out")
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{
		"--results-folder", resultsDir,
		"--metrics-file", "metrics.prom",
		"--log-level", "warn",
		docPath,
	})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "Experiments done: 1 succeeded, 0 failed.")
	require.FileExists(t, filepath.Join(resultsDir, "g.csv"))
	require.FileExists(t, filepath.Join(resultsDir, "summary.json"))
	require.FileExists(t, filepath.Join(resultsDir, "metrics.prom"))
}
