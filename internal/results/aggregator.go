package results

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/experiment"
)

// NA is written for a metric a result row does not carry.
const NA = "NA"

// HeaderLead is the first column of every results header row.
const HeaderLead = "ExperimentId"

const errorDelimiter = "----------------------------------------------------------------------------------------"

var (
	identityColumns = []string{HeaderLead, "ModelId", "SplitId", "ContainerId", "AllowDuplicates"}
	timingColumns   = []string{"TrainTime", "EvaluationTime", "PureTrainTime", "PureEvaluationTime", "TotalTime", "PureTotalTime"}
)

// Mirror receives every completed case in addition to the CSV streams.
type Mirror interface {
	Record(ctx context.Context, d *experiment.Descriptor) error
	Close() error
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMirror mirrors written results into m. The aggregator closes m.
func WithMirror(m Mirror) Option {
	return func(a *Aggregator) { a.mirror = m }
}

// Aggregator writes case outcomes to per-group files. It is used from the
// single execution goroutine and is not safe for concurrent use.
type Aggregator struct {
	folder string
	sep    rune
	mirror Mirror

	groups map[string]*groupStreams
	order  []string
	closed bool
}

type groupStreams struct {
	results, splits, errs *os.File
	resultsW, splitsW     *csv.Writer

	headerModels map[string]bool
	loggedSplits map[string]bool
	statNames    []string
}

// NewAggregator creates an aggregator writing into folder with the given
// field separator. The folder must exist.
func NewAggregator(folder string, sep rune, opts ...Option) *Aggregator {
	a := &Aggregator{
		folder: folder,
		sep:    sep,
		groups: make(map[string]*groupStreams),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Folder returns the results folder.
func (a *Aggregator) Folder() string { return a.folder }

// Groups returns the ids of the opened groups in opening order.
func (a *Aggregator) Groups() []string { return slices.Clone(a.order) }

// Open creates the output files of the given groups. Groups are otherwise
// opened on first use.
func (a *Aggregator) Open(groups ...string) error {
	for _, g := range groups {
		if _, err := a.group(g); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) group(id string) (*groupStreams, error) {
	g, err := a.errorStream(id)
	if err != nil {
		return nil, err
	}
	if g.results != nil {
		return g, nil
	}
	if g.results, err = a.create(id, ".csv"); err != nil {
		return nil, err
	}
	if g.splits, err = a.create(id, ".splits.csv"); err != nil {
		g.results.Close()
		g.results = nil
		return nil, err
	}
	g.resultsW = a.newWriter(g.results)
	g.splitsW = a.newWriter(g.splits)
	return g, nil
}

// errorStream opens only the error stream of a group. Other-kind cases
// never produce result rows and use it alone.
func (a *Aggregator) errorStream(id string) (*groupStreams, error) {
	if a.closed {
		return nil, errors.New("aggregator is closed")
	}
	if g, ok := a.groups[id]; ok {
		return g, nil
	}
	errs, err := a.create(id, ".err.txt")
	if err != nil {
		return nil, err
	}
	g := &groupStreams{
		errs:         errs,
		headerModels: make(map[string]bool),
		loggedSplits: make(map[string]bool),
	}
	a.groups[id] = g
	a.order = append(a.order, id)
	return g, nil
}

func (a *Aggregator) create(id, suffix string) (*os.File, error) {
	f, err := os.Create(filepath.Join(a.folder, id+suffix))
	if err != nil {
		return nil, fmt.Errorf("opening %s stream of group '%s': %w", suffix, id, err)
	}
	return f, nil
}

func (a *Aggregator) newWriter(f *os.File) *csv.Writer {
	w := csv.NewWriter(f)
	w.Comma = a.sep
	return w
}

// WriteSplitStatistics writes the statistics of the case's split and its
// container, once per split id within the group. The header is repeated
// whenever the statistic names differ from the previous header.
func (a *Aggregator) WriteSplitStatistics(d *experiment.Descriptor) error {
	g, err := a.group(d.GroupID)
	if err != nil {
		return err
	}
	if d.Split == nil || g.loggedSplits[d.SplitID()] {
		return nil
	}

	stats := slices.Concat(d.Split.Statistics(), d.Split.Store().Statistics())
	names := make([]string, len(stats))
	values := make([]string, len(stats))
	for i, s := range stats {
		names[i] = s.Name
		values[i] = s.Value
	}

	if !slices.Equal(names, g.statNames) {
		if err := g.splitsW.Write(names); err != nil {
			return fmt.Errorf("writing split statistics header: %w", err)
		}
		g.statNames = names
	}
	if err := g.splitsW.Write(values); err != nil {
		return fmt.Errorf("writing split statistics: %w", err)
	}
	g.splitsW.Flush()
	if err := g.splitsW.Error(); err != nil {
		return fmt.Errorf("writing split statistics: %w", err)
	}
	g.loggedSplits[d.SplitID()] = true
	return nil
}

// WriteResults writes one row per result row of a completed case. The
// header is written on the first case of each model id within the group
// only, so a later parameter grid reusing the id keeps the earlier header.
func (a *Aggregator) WriteResults(ctx context.Context, d *experiment.Descriptor) error {
	g, err := a.group(d.GroupID)
	if err != nil {
		return err
	}
	if len(d.Results) == 0 {
		return nil
	}

	// A case the mirror rejects leaves no rows in the CSV.
	if a.mirror != nil {
		if err := a.mirror.Record(ctx, d); err != nil {
			return fmt.Errorf("mirroring results: %w", err)
		}
	}

	params := d.Model.Parameters()
	metrics := experiment.MetricNames(d.Results)

	if !g.headerModels[d.ModelID()] {
		header := slices.Concat(identityColumns, params.Names(), timingColumns, metrics)
		if err := g.resultsW.Write(header); err != nil {
			return fmt.Errorf("writing results header: %w", err)
		}
		g.headerModels[d.ModelID()] = true
	}

	stats := d.Model.Stats()
	lead := []string{
		d.GroupID,
		d.ModelID(),
		d.SplitID(),
		d.ContainerID(),
		strconv.FormatBool(allowsDuplicates(d.Split.Store())),
	}
	for _, p := range params {
		lead = append(lead, p.Value)
	}
	lead = append(lead,
		millis(d.TrainTime),
		millis(d.EvaluationTime),
		millis(stats.PureTrainTime),
		millis(stats.PureEvaluationTime),
		millis(d.TrainTime+d.EvaluationTime),
		millis(stats.PureTrainTime+stats.PureEvaluationTime),
	)

	for _, row := range d.Results {
		record := slices.Clone(lead)
		for _, m := range metrics {
			v, ok := row.Get(m)
			if !ok {
				v = NA
			}
			record = append(record, v)
		}
		if err := g.resultsW.Write(record); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}
	g.resultsW.Flush()
	if err := g.resultsW.Error(); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	return nil
}

// WriteError appends a failure block to the group's error stream.
func (a *Aggregator) WriteError(d *experiment.Descriptor, cause error) error {
	open := a.group
	if d.Kind != experiment.KindEvaluation {
		open = a.errorStream
	}
	g, err := open(d.GroupID)
	if err != nil {
		return err
	}
	var b strings.Builder
	if d.Kind == experiment.KindEvaluation {
		fmt.Fprintf(&b, "Error in experiment '%s', model '%s', split '%s':\n", d.GroupID, d.ModelID(), d.SplitID())
	} else {
		fmt.Fprintf(&b, "Error in experiment '%s':\n", d.GroupID)
	}
	b.WriteString(strings.TrimRight(cause.Error(), "\n"))
	b.WriteString("\n" + errorDelimiter + "\n")

	if _, err := g.errs.WriteString(b.String()); err != nil {
		return fmt.Errorf("writing error of case %s: %w", d.Name(), err)
	}
	return nil
}

// Close flushes and closes every stream and the mirror. It is safe to call
// more than once.
func (a *Aggregator) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	for _, id := range a.order {
		if err := a.groups[id].close(); err != nil {
			errs = append(errs, fmt.Errorf("closing streams of group '%s': %w", id, err))
		}
	}
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing results mirror: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (g *groupStreams) close() error {
	var errs []error
	for _, w := range []*csv.Writer{g.resultsW, g.splitsW} {
		if w != nil {
			w.Flush()
			errs = append(errs, w.Error())
		}
	}
	for _, f := range []*os.File{g.results, g.splits, g.errs} {
		if f != nil {
			errs = append(errs, f.Close())
		}
	}
	return errors.Join(errs...)
}

func allowsDuplicates(s data.Store) bool {
	return s != nil && s.AllowDuplicates()
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
