package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/executor"
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/metrics"
	"github.com/vk/recgrid/internal/resolver"
	"github.com/vk/recgrid/internal/results"
)

// subFolderLayout names the per-run folder created when subFolder is set.
const subFolderLayout = "2006-01-02_15-04-05"

// Run resolves every case of the document, executes them and writes the
// run reports. A returned error means nothing ran (resolution or setup
// failed) or the result streams could not be closed; failed cases are
// reported in the summary only.
func (a *App) Run(ctx context.Context) (*executor.Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	started := time.Now()

	res := resolver.New(a.doc, a.registry)
	settings, err := res.Settings()
	if err != nil {
		return nil, err
	}
	a.applyVerbosity(settings.Verbosity)

	cases, err := res.Describe(ctx)
	if err != nil {
		return nil, err
	}
	groups := evaluationGroups(cases)
	a.logger.Info("Configuration resolved.", "cases", len(cases), "groups", len(groups))

	folder, err := a.resultsFolder(settings, started)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	a.logger.Info("🚀 Starting experiments...", "run_id", runID, "results_folder", folder)

	var opts []results.Option
	if settings.ResultsDatabase != "" {
		db, err := results.OpenDatabase(inFolder(folder, settings.ResultsDatabase), runID)
		if err != nil {
			return nil, err
		}
		opts = append(opts, results.WithMirror(db))
	}
	agg := results.NewAggregator(folder, settings.Separator, opts...)
	if err := agg.Open(groups...); err != nil {
		agg.Close()
		return nil, err
	}

	for _, d := range cases {
		d.Workspace = folder
	}
	join, err := res.JoinDescriptor(groups, folder)
	if err != nil {
		agg.Close()
		return nil, err
	}

	collector := metrics.NewCollector(nil)
	exec := executor.New(agg, executor.WithMetrics(collector))
	summary, execErr := exec.Execute(ctx, executor.Plan{Cases: cases, Join: join})

	if a.config.MetricsFile != "" {
		path := inFolder(folder, a.config.MetricsFile)
		if err := collector.WriteTextfile(path); err != nil {
			a.logger.Error("Failed to write metrics file.", "path", path, "error", err)
		}
	}
	if a.config.SummaryFile != "" {
		path := inFolder(folder, a.config.SummaryFile)
		if err := writeSummary(path, newRunSummary(runID, folder, started, summary)); err != nil {
			a.logger.Error("Failed to write summary file.", "path", path, "error", err)
		}
	}

	a.logger.Info("🏁 Experiments finished.", "total", summary.Total, "succeeded", summary.Succeeded, "failed", summary.Failed)
	a.logger.Debug("App.Run method finished.")
	return summary, execErr
}

// applyVerbosity lowers the log level when the document asks for more
// detail than the process was started with.
func (a *App) applyVerbosity(verbosity string) {
	if verbosity == "" {
		return
	}
	if level := parseLevel(verbosity); level < a.level.Level() {
		a.level.Set(level)
		a.logger.Debug("Log level lowered by document verbosity.", "verbosity", verbosity)
	}
}

func (a *App) resultsFolder(s *config.Settings, started time.Time) (string, error) {
	folder := s.ResultsFolder
	if a.config.ResultsFolder != "" {
		folder = a.config.ResultsFolder
	}
	if s.SubFolder {
		folder = filepath.Join(folder, started.Format(subFolderLayout))
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results folder: %w", err)
	}
	return folder, nil
}

// evaluationGroups returns the ids of the groups with evaluation cases, in
// case order.
func evaluationGroups(cases []*experiment.Descriptor) []string {
	var groups []string
	seen := make(map[string]bool)
	for _, d := range cases {
		if d.Kind == experiment.KindEvaluation && !seen[d.GroupID] {
			seen[d.GroupID] = true
			groups = append(groups, d.GroupID)
		}
	}
	return groups
}

func inFolder(folder, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(folder, path)
}
