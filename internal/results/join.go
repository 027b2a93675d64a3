package results

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/experiment"
)

// JoinResults merges result files into one. Its parameters are
// sourceFiles (list), outputFile and delimiter (default ","). Relative
// paths are taken against the case workspace.
//
// A source row whose first field is ExperimentId starts a new header; the
// output header is the union of all header columns in first-seen order and
// absent values are written as NA.
type JoinResults struct{}

// Setup implements experiment.Experiment.
func (JoinResults) Setup(context.Context, *experiment.Descriptor) error { return nil }

// Clear implements experiment.Experiment.
func (JoinResults) Clear(*experiment.Descriptor) {}

// Run implements experiment.Experiment.
func (JoinResults) Run(ctx context.Context, d *experiment.Descriptor) error {
	logger := ctxlog.FromContext(ctx)

	sources := nonEmpty(d.Params.Values("sourceFiles"))
	if len(sources) == 0 {
		return errors.New("joinResults: sourceFiles is required")
	}
	output := d.Params.Value("outputFile", "")
	if output == "" {
		return errors.New("joinResults: outputFile is required")
	}
	sep, err := config.ParseSeparator(d.Params.Value("delimiter", ","))
	if err != nil {
		return fmt.Errorf("joinResults: %w", err)
	}

	t := newTable()
	for _, src := range sources {
		path := inWorkspace(d.Workspace, src)
		if err := t.readFile(path, sep); err != nil {
			return fmt.Errorf("joinResults: %w", err)
		}
	}

	out := inWorkspace(d.Workspace, output)
	if err := t.writeFile(out, sep); err != nil {
		return fmt.Errorf("joinResults: %w", err)
	}
	logger.Info("Results joined.", "sources", len(sources), "rows", len(t.rows), "columns", len(t.columns), "output", out)
	return nil
}

type table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

func newTable() *table {
	return &table{index: make(map[string]int)}
}

func (t *table) readFile(path string, sep rune) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = sep
	r.FieldsPerRecord = -1

	var header []int
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		if record[0] == HeaderLead {
			header = make([]int, len(record))
			for i, name := range record {
				header[i] = t.column(name)
			}
			continue
		}
		if header == nil {
			line, _ := r.FieldPos(0)
			return fmt.Errorf("%s:%d: data row before any header", path, line)
		}

		row := make([]string, len(t.columns))
		for i, v := range record {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		t.rows = append(t.rows, row)
	}
}

func (t *table) column(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	return len(t.columns) - 1
}

func (t *table) writeFile(path string, sep rune) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	w.Comma = sep
	if len(t.columns) > 0 {
		if err := w.Write(t.columns); err != nil {
			return err
		}
	}
	for _, row := range t.rows {
		record := make([]string, len(t.columns))
		for i := range record {
			if i < len(row) && row[i] != "" {
				record[i] = row[i]
			} else {
				record[i] = NA
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func inWorkspace(workspace, path string) string {
	if workspace == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workspace, path)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
