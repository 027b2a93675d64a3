package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/recgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"config":         "config_path",
	"c":              "config_path",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"results-folder": "results_folder",
	"metrics-file":   "metrics_file",
	"summary-file":   "summary_file",
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
//
// Flags win over RECGRID_* environment variables, which win over the
// built-in defaults. Only flags given on the command line override.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("recgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
recgrid - Runs grids of recommender system experiments.

Usage:
  recgrid [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a .hcl/.yaml experiment document or a directory of them.

Options:
`)
		flagSet.PrintDefaults()
	}

	defaults := app.DefaultConfig()
	values := map[string]*string{
		"config":         flagSet.String("config", "", "Path to the experiment document or directory."),
		"c":              flagSet.String("c", "", "Path to the experiment document or directory (shorthand)."),
		"log-level":      flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'trace', 'debug', 'info', 'warn', 'error'."),
		"log-format":     flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'."),
		"results-folder": flagSet.String("results-folder", "", "Override the document's results folder."),
		"metrics-file":   flagSet.String("metrics-file", defaults.MetricsFile, "Write Prometheus metrics in textfile format to this file."),
		"summary-file":   flagSet.String("summary-file", defaults.SummaryFile, "Write the JSON run summary to this file. Empty disables it."),
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	overrides := make(map[string]any)
	flagSet.Visit(func(f *flag.Flag) {
		overrides[flagKeys[f.Name]] = *values[f.Name]
	})
	if _, ok := overrides["config_path"]; !ok && flagSet.NArg() > 0 {
		overrides["config_path"] = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %v", flagSet.Args()[1:])}
	}

	config, err := app.LoadConfig(overrides)
	if err != nil {
		if _, ok := overrides["config_path"]; !ok {
			slog.Debug("No config path provided, printing usage.")
			flagSet.Usage()
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
