package pass

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	resolvePassTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depstage_resolve_pass_total",
			Help: "Number of resolution passes by outcome.",
		},
		[]string{"outcome"},
	)

	resolveConflictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depstage_resolve_conflict_total",
			Help: "Total number of suppressed declarations across all passes.",
		},
	)

	resolvedDependencies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "depstage_resolved_dependencies",
			Help: "Number of dependencies in the resolved set of the last pass.",
		},
	)

	artifactFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depstage_artifact_fetch_total",
			Help: "Number of artifact materializations by outcome.",
		},
		[]string{"outcome"},
	)

	descriptorPatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depstage_descriptor_patch_total",
			Help: "Number of descriptor patches by resulting state.",
		},
		[]string{"state"},
	)

	resolvePassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "depstage_resolve_pass_duration_seconds",
			Help:    "Time taken by one full resolution pass.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// registry is private so the host's metric namespace stays clean.
var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		resolvePassTotal,
		resolveConflictTotal,
		resolvedDependencies,
		artifactFetchTotal,
		descriptorPatchTotal,
		resolvePassDuration,
	)
}

// MetricsHandler serves the pass metrics, for watch mode's /metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
