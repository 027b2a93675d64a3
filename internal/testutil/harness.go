package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/recgrid/internal/app"
	"github.com/vk/recgrid/internal/executor"
	"github.com/vk/recgrid/internal/registry"
)

// RootPlaceholder is replaced with the test's root directory in every file
// written by the harness, so documents can reference data files.
const RootPlaceholder = "$ROOT"

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput  string
	Err        error
	App        *app.App
	Summary    *executor.Summary
	Root       string
	ResultsDir string
}

// ReadResult returns the content of a file in the results folder, or an
// empty string when it does not exist.
func (r *HarnessResult) ReadResult(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(r.ResultsDir, name))
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(b)
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules...)
}

// RunIntegrationTestWithContext writes files into a temporary root, points
// the application at the "grid" directory inside it and runs it to
// completion. The given modules are registered after the core modules.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	// 1. Create a temporary root directory for the test.
	tmpDir := t.TempDir()
	gridDir := filepath.Join(tmpDir, "grid")
	resultsDir := filepath.Join(tmpDir, "results")
	require.NoError(t, os.Mkdir(gridDir, 0o755))

	// 2. Write all files. Names are relative to the root, e.g.
	//    "grid/main.hcl" or "data/train.csv".
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		content = strings.ReplaceAll(content, RootPlaceholder, tmpDir)
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	appConfig := &app.Config{
		ConfigPath:    gridDir,
		LogLevel:      "debug",
		LogFormat:     "text",
		ResultsFolder: resultsDir,
		SummaryFile:   "summary.json",
	}

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{Root: tmpDir, ResultsDir: resultsDir}

	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("RECGRID_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				panicErr = r
			}
		}()
		result.App, result.Err = app.NewApp(logBuffer, appConfig, app.NewLoader(), append(app.CoreModules(), modules...)...)
	}()

	if panicErr != nil {
		result.LogOutput = logBuffer.String()
		result.Err = fmt.Errorf("application startup panicked | %v", panicErr)
		return result
	}

	if result.Err == nil {
		result.Summary, result.Err = result.App.Run(ctx)
	}

	if os.Getenv("RECGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	result.LogOutput = logBuffer.String()
	return result
}
