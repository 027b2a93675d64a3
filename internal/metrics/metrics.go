// Package metrics records run outcomes as Prometheus collectors on a
// private registry and exports them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "recgrid"

// Case outcome labels.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Collector holds the run metrics:
//   - recgrid_cases_total: cases by group and status
//   - recgrid_case_duration_seconds: wall time per case by group
//   - recgrid_train_seconds_total, recgrid_evaluation_seconds_total: model timings by group
//   - recgrid_join_failures_total: failed joint result merges
type Collector struct {
	registry *prometheus.Registry

	cases          *prometheus.CounterVec
	caseDuration   *prometheus.HistogramVec
	trainTime      *prometheus.CounterVec
	evaluationTime *prometheus.CounterVec
	joinFailures   prometheus.Counter
}

// NewCollector registers the run metrics on registry, or on a new private
// registry when registry is nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: registry,
		cases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cases_total",
				Help:      "Number of executed cases",
			},
			[]string{"group", "status"},
		),
		caseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "case_duration_seconds",
				Help:      "Wall time of a case from setup to clear",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"group"},
		),
		trainTime: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "train_seconds_total",
				Help:      "Time spent training models",
			},
			[]string{"group"},
		),
		evaluationTime: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluation_seconds_total",
				Help:      "Time spent evaluating models",
			},
			[]string{"group"},
		),
		joinFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "join_failures_total",
				Help:      "Number of failed joint result merges",
			},
		),
	}
	registry.MustRegister(c.cases, c.caseDuration, c.trainTime, c.evaluationTime, c.joinFailures)
	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordCase records the outcome and wall time of one case.
func (c *Collector) RecordCase(group, status string, d time.Duration) {
	c.cases.WithLabelValues(group, status).Inc()
	c.caseDuration.WithLabelValues(group).Observe(d.Seconds())
}

// RecordTimings adds the train and evaluation time of one case.
func (c *Collector) RecordTimings(group string, train, evaluation time.Duration) {
	c.trainTime.WithLabelValues(group).Add(train.Seconds())
	c.evaluationTime.WithLabelValues(group).Add(evaluation.Seconds())
}

// RecordJoinFailure counts a failed joint result merge.
func (c *Collector) RecordJoinFailure() {
	c.joinFailures.Inc()
}

// WriteTextfile writes every gathered metric to path.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
