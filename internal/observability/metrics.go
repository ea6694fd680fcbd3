package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "snowline"

// Metrics holds the Prometheus counters and histograms for pipeline runs,
// provider calls, the cache layer and geocoding.
type Metrics struct {
	// Pipeline run metrics.
	PipelineRuns       *prometheus.CounterVec   // labels: pipeline, status={completed,completed_with_errors,failed}
	ItemsProcessed     *prometheus.CounterVec   // labels: pipeline
	RowsUpserted       *prometheus.CounterVec   // labels: pipeline
	ItemErrors         *prometheus.CounterVec   // labels: pipeline
	ValidationWarnings *prometheus.CounterVec   // labels: pipeline
	RunDuration        *prometheus.HistogramVec // labels: pipeline

	// External API metrics.
	ExternalRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ExternalDuration *prometheus.HistogramVec // labels: provider

	// Cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,error}

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty,open}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Orchestrator runs by pipeline and exit status.",
		}, []string{"pipeline", "status"}),
		ItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_items_processed_total",
			Help:      "Work items attempted by each pipeline.",
		}, []string{"pipeline"}),
		RowsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_rows_upserted_total",
			Help:      "Rows written to the store by each pipeline.",
		}, []string{"pipeline"}),
		ItemErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_item_errors_total",
			Help:      "Work items that failed within a run.",
		}, []string{"pipeline"}),
		ValidationWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_validation_warnings_total",
			Help:      "Range-check violations observed on persisted rows.",
		}, []string{"pipeline"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Wall-clock duration of one orchestrator run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"pipeline"}),
		ExternalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_total",
			Help:      "Third-party API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ExternalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "Third-party API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache-aside lookups by result.",
		}, []string{"result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when free-text drive-time origins are geocoded, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PipelineRuns,
		m.ItemsProcessed,
		m.RowsUpserted,
		m.ItemErrors,
		m.ValidationWarnings,
		m.RunDuration,
		m.ExternalRequests,
		m.ExternalDuration,
		m.CacheLookups,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeEnabled,
	}
}
