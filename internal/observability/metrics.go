package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the gate's Prometheus metrics.
//
// Tracked series:
//   - Evaluation decisions by outcome and reject reason
//   - Evaluation latency (a single utterance should stay under ~200ms)
//   - Per-sample failures during runs
//   - Whole-run duration
//
// Metrics register on their own Registry so tests and embedders can scrape
// or discard them independently of the global default.
type Metrics struct {
	Registry *prometheus.Registry

	// Decisions counts evaluations by decision ("accept"/"reject") and
	// reason ("", "below_threshold", "phatic").
	Decisions *prometheus.CounterVec

	// EvalDuration observes single-evaluation latency in seconds.
	EvalDuration prometheus.Histogram

	// SampleFailures counts samples whose evaluation returned an error.
	SampleFailures prometheus.Counter

	// RunDuration observes whole-dataset run latency in seconds.
	RunDuration prometheus.Histogram
}

// NewMetrics creates and registers the gate's metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		Registry: registry,
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_eval_decisions_total",
			Help: "Evaluation decisions by outcome and reject reason.",
		}, []string{"decision", "reason"}),
		EvalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_eval_duration_seconds",
			Help:    "Latency of a single utterance evaluation.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1, 2},
		}),
		SampleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sift_run_sample_failures_total",
			Help: "Samples whose evaluation failed during a run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_run_duration_seconds",
			Help:    "Latency of a whole dataset run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	registry.MustRegister(m.Decisions, m.EvalDuration, m.SampleFailures, m.RunDuration)
	return m
}

// ObserveDecision records one evaluation outcome.
func (m *Metrics) ObserveDecision(accepted bool, reason string) {
	decision := "reject"
	if accepted {
		decision = "accept"
		reason = ""
	}
	m.Decisions.WithLabelValues(decision, reason).Inc()
}
