package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wsconfig_hardware_probe_duration_seconds",
		Help:    "Duration of hardware detection probes grouped by probe and outcome",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"probe", "outcome"})

	probeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wsconfig_hardware_probe_failures_total",
		Help: "Total hardware probe failures grouped by probe",
	}, []string{"probe"})

	pipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wsconfig_pipeline_stage_duration_seconds",
		Help:    "Duration of each recommendation pipeline stage",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
	}, []string{"stage"})

	recommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wsconfig_recommendations_total",
		Help: "Total recommendation runs grouped by outcome",
	}, []string{"outcome"})

	recommendationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wsconfig_recommendation_duration_seconds",
		Help:    "End-to-end duration of a full recommendation run",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wsconfig_candidate_rejections_total",
		Help: "Total CSP candidate rejections grouped by constraint",
	}, []string{"constraint"})

	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wsconfig_cascade_resolutions_total",
		Help: "Total resolution cascade outcomes grouped by kind",
	}, []string{"kind"})

	catalogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wsconfig_catalog_entries",
		Help: "Number of model entries currently loaded in the catalog",
	})

	sseConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wsconfig_sse_connections",
		Help: "Current active SSE connections",
	})
)

// ObserveProbe records the duration and outcome of a single hardware probe
// (cpu, ram, storage, gpu).
func ObserveProbe(probe string, duration time.Duration, failed bool) {
	if probe == "" {
		probe = "unknown"
	}
	outcome := "ok"
	if failed {
		outcome = "failed"
		probeFailuresTotal.WithLabelValues(probe).Inc()
	}
	probeDuration.WithLabelValues(probe, outcome).Observe(duration.Seconds())
}

// ObservePipelineStage records how long one pipeline stage
// (constraint/content/topsis/cascade/spacefit/explain) took.
func ObservePipelineStage(stage string, duration time.Duration) {
	if stage == "" {
		stage = "unknown"
	}
	pipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveRecommendation records the outcome and total duration of a
// Recommend call (outcome is "ok", "no_viable_candidates", "invariant_violated", etc).
func ObserveRecommendation(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	recommendationsTotal.WithLabelValues(outcome).Inc()
	recommendationDuration.Observe(duration.Seconds())
}

// ObserveRejection increments the rejection counter for a CSP constraint.
func ObserveRejection(constraint string) {
	if constraint == "" {
		constraint = "unknown"
	}
	rejectionsTotal.WithLabelValues(constraint).Inc()
}

// ObserveResolution increments the cascade-resolution counter for a kind.
func ObserveResolution(kind string) {
	if kind == "" {
		kind = "none"
	}
	resolutionsTotal.WithLabelValues(kind).Inc()
}

// SetCatalogEntries updates the loaded-catalog-size gauge.
func SetCatalogEntries(count int) {
	if count < 0 {
		return
	}
	catalogEntries.Set(float64(count))
}

// TrackSSEConnection increments the SSE connection gauge and returns a cleanup function.
func TrackSSEConnection() func() {
	sseConnections.Inc()
	return func() {
		sseConnections.Dec()
	}
}
