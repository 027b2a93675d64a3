package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/vk/recgrid/internal/experiment"

	_ "modernc.org/sqlite" // SQLite driver
)

// Database mirrors every written metric value into a SQLite table, one row
// per (case, result row, metric), tagged with the run id.
type Database struct {
	db     *sql.DB
	runID  string
	insert *sql.Stmt
}

// StoredMetric is one row of the results table.
type StoredMetric struct {
	RunID        string
	ExperimentID string
	ModelID      string
	SplitID      string
	ContainerID  string
	Params       map[string]string
	RowIndex     int
	Metric       string
	Value        string
}

// OpenDatabase opens or creates the database at path.
func OpenDatabase(path, runID string) (*Database, error) {
	if path == "" {
		return nil, errors.New("results database path cannot be empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	db.SetMaxOpenConns(1)

	d := &Database{db: db, runID: runID}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	d.insert, err = db.Prepare(`
		INSERT INTO results (run_id, experiment_id, model_id, split_id, container_id, params, row_index, metric, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return d, nil
}

func (d *Database) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		run_id TEXT NOT NULL,
		experiment_id TEXT NOT NULL,
		model_id TEXT NOT NULL,
		split_id TEXT NOT NULL,
		container_id TEXT NOT NULL,
		params TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		metric TEXT NOT NULL,
		value TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id, experiment_id);
	`
	_, err := d.db.Exec(schema)
	return err
}

// RunID returns the id rows are tagged with.
func (d *Database) RunID() string { return d.runID }

// Record implements Mirror.
func (d *Database) Record(ctx context.Context, desc *experiment.Descriptor) error {
	params := make(map[string]string)
	if desc.Model != nil {
		for _, p := range desc.Model.Parameters() {
			params[p.Name] = p.Value
		}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	stmt := tx.StmtContext(ctx, d.insert)

	now := time.Now().Unix()
	for i, row := range desc.Results {
		for _, m := range row {
			_, err := stmt.ExecContext(ctx, d.runID, desc.GroupID, desc.ModelID(), desc.SplitID(), desc.ContainerID(),
				string(encoded), i, m.Name, m.Value, now)
			if err != nil {
				return fmt.Errorf("inserting metric %q: %w", m.Name, err)
			}
		}
	}
	return tx.Commit()
}

// Metrics returns the stored rows of the run in insertion order.
func (d *Database) Metrics(ctx context.Context) ([]StoredMetric, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT run_id, experiment_id, model_id, split_id, container_id, params, row_index, metric, value
		FROM results WHERE run_id = ? ORDER BY rowid`, d.runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredMetric
	for rows.Next() {
		var m StoredMetric
		var params string
		if err := rows.Scan(&m.RunID, &m.ExperimentID, &m.ModelID, &m.SplitID, &m.ContainerID, &params, &m.RowIndex, &m.Metric, &m.Value); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(params), &m.Params); err != nil {
			return nil, fmt.Errorf("decoding parameters: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close implements Mirror.
func (d *Database) Close() error {
	return errors.Join(d.insert.Close(), d.db.Close())
}
