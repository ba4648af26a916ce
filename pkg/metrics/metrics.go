// Package metrics defines the Prometheus collectors for evaluation runs and
// writes them in the node-exporter textfile format once a run finishes.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for an evaluation process. Each
// instance owns its registry so that repeated runs in one process (and tests)
// never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	ScorerDuration     prometheus.Histogram
	ScorerFailures     *prometheus.CounterVec
	SegmentsScored     prometheus.Counter
	Score              *prometheus.GaugeVec
	MeanLength         prometheus.Gauge
	SinkPublishTotal   *prometheus.CounterVec
	LastRunTimestamp   prometheus.Gauge
}

// Outcome labels for EvaluationsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlgeval_evaluations_total",
				Help: "Total evaluation runs by outcome.",
			},
			[]string{"outcome"},
		),
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nlgeval_evaluation_duration_seconds",
				Help:    "Wall-clock time of a full evaluation run.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		ScorerDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nlgeval_scorer_duration_seconds",
				Help:    "Time spent in the external NIST/BLEU scorer.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		ScorerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlgeval_scorer_failures_total",
				Help: "External scorer failures by reason (protocol, timeout, exec).",
			},
			[]string{"reason"},
		),
		SegmentsScored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nlgeval_segments_scored_total",
				Help: "Total hypothesis segments evaluated.",
			},
		),
		Score: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nlgeval_score",
				Help: "Most recent score by metric (nist, bleu, entropy, distinct) and n-gram order.",
			},
			[]string{"metric", "order"},
		),
		MeanLength: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nlgeval_mean_length_tokens",
				Help: "Mean hypothesis length in tokens for the most recent run.",
			},
		),
		SinkPublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlgeval_sink_publish_total",
				Help: "Result sink publish attempts by sink and status.",
			},
			[]string{"sink", "status"},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nlgeval_last_run_timestamp_seconds",
				Help: "Unix time at which the most recent run finished.",
			},
		),
	}

	m.Registry.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.ScorerDuration,
		m.ScorerFailures,
		m.SegmentsScored,
		m.Score,
		m.MeanLength,
		m.SinkPublishTotal,
		m.LastRunTimestamp,
	)

	return m
}

// ObserveScores records one metric's per-order scores, order 1 first.
func (m *Metrics) ObserveScores(metric string, scores []float64) {
	for i, v := range scores {
		m.Score.WithLabelValues(metric, strconv.Itoa(i+1)).Set(v)
	}
}

// MarkRunFinished stamps the completion time of a run.
func (m *Metrics) MarkRunFinished(at time.Time) {
	m.LastRunTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry to path in the Prometheus text format.
// The file is replaced atomically so a collector never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
