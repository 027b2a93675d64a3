package app

import (
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/vk/recgrid/internal/executor"
)

// runSummary is the machine-readable report of one run.
type runSummary struct {
	RunID         string                  `json:"run_id"`
	ResultsFolder string                  `json:"results_folder"`
	StartedAt     time.Time               `json:"started_at"`
	DurationMS    int64                   `json:"duration_ms"`
	Total         int                     `json:"total"`
	Succeeded     int                     `json:"succeeded"`
	Failed        int                     `json:"failed"`
	Skipped       int                     `json:"skipped"`
	Groups        []executor.GroupSummary `json:"groups"`
	JoinError     string                  `json:"join_error,omitempty"`
}

func newRunSummary(runID, folder string, started time.Time, s *executor.Summary) runSummary {
	rs := runSummary{
		RunID:         runID,
		ResultsFolder: folder,
		StartedAt:     started.UTC(),
		DurationMS:    s.Duration.Milliseconds(),
		Total:         s.Total,
		Succeeded:     s.Succeeded,
		Failed:        s.Failed,
		Skipped:       s.Skipped,
		Groups:        s.Groups,
	}
	if s.JoinErr != nil {
		rs.JoinError = s.JoinErr.Error()
	}
	return rs
}

func writeSummary(path string, s runSummary) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
