// Package metrics exposes Prometheus instrumentation for the estimator.
//
// All collectors are registered on the Registry passed to New so tests can
// use an isolated registry. Methods are nil-safe: components built without
// metrics simply skip observation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the estimator.
type Metrics struct {
	registry *prometheus.Registry

	// Rule evaluations by profile and input shape ("validated", "raw")
	Evaluations *prometheus.CounterVec

	// Failed evaluations by reason ("invalid_intake", "not_found", "config")
	EvaluationFailures *prometheus.CounterVec

	// Evaluation latency by input shape
	EvaluateLatency *prometheus.HistogramVec

	// Configuration loads by document and result
	CatalogLoads *prometheus.CounterVec

	// Intake snapshots written by status
	SnapshotsCreated *prometheus.CounterVec
}

// New creates a Metrics instance with every collector registered on reg.
// A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_intake_evaluations_total",
			Help: "Total intake rule evaluations by location profile and input shape",
		}, []string{"profile", "shape"}),

		EvaluationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_intake_evaluation_failures_total",
			Help: "Total failed intake rule evaluations by reason",
		}, []string{"reason"}),

		EvaluateLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "estimator_intake_evaluate_duration_seconds",
			Help:    "Duration of intake rule evaluation including normalization",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}, []string{"shape"}),

		CatalogLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_catalog_loads_total",
			Help: "Total configuration document loads by document and result",
		}, []string{"document", "result"}),

		SnapshotsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estimator_intake_snapshots_created_total",
			Help: "Total intake snapshots persisted by status",
		}, []string{"status"}),
	}
}

// ObserveEvaluation records a successful evaluation and its latency.
func (m *Metrics) ObserveEvaluation(profile, shape string, d time.Duration) {
	if m != nil {
		m.Evaluations.WithLabelValues(profile, shape).Inc()
		m.EvaluateLatency.WithLabelValues(shape).Observe(d.Seconds())
	}
}

// IncrementEvaluationFailure records a failed evaluation.
func (m *Metrics) IncrementEvaluationFailure(reason string) {
	if m != nil {
		m.EvaluationFailures.WithLabelValues(reason).Inc()
	}
}

// IncrementCatalogLoad records a configuration document load.
func (m *Metrics) IncrementCatalogLoad(document string, err error) {
	if m != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		m.CatalogLoads.WithLabelValues(document, result).Inc()
	}
}

// IncrementSnapshotCreated records a persisted snapshot.
func (m *Metrics) IncrementSnapshotCreated(status string) {
	if m != nil {
		m.SnapshotsCreated.WithLabelValues(status).Inc()
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
