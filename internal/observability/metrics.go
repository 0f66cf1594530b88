package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forest_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	DatasetRows *prometheus.GaugeVec // labels: table={climate,forest,forest_normalized,joined}
	DataReady   prometheus.Gauge

	// Country resolution metrics.
	CountryLookups *prometheus.CounterVec // labels: outcome={resolved,unresolved}
	CountryCache   *prometheus.CounterVec // labels: result={hit,miss}

	// Render metrics.
	Renders        *prometheus.CounterVec // labels: surface={page,api,chart,export,cli}
	RenderDuration prometheus.Histogram
	FilteredRows   prometheus.Histogram

	SnapshotMessages prometheus.Counter
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatasetRows,
		m.DataReady,
		m.CountryLookups,
		m.CountryCache,
		m.Renders,
		m.RenderDuration,
		m.FilteredRows,
		m.SnapshotMessages,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewDetachedMetrics creates unregistered Metrics for one-shot commands that
// never serve /metrics.
func NewDetachedMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Row count of each loaded or derived table.",
		}, []string{"table"}),
		DataReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "data_ready",
			Help:      "1 once the data context has been built, 0 otherwise.",
		}),
		CountryLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "country_lookups_total",
			Help:      "ISO3 code resolutions by outcome.",
		}, []string{"outcome"}),
		CountryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "country_cache_total",
			Help:      "Country resolver cache lookups by result.",
		}, []string{"result"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Dashboard pipeline runs by output surface.",
		}, []string{"surface"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of one filter/aggregate/shape pipeline run.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		FilteredRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_rows",
			Help:      "Rows remaining after the four dashboard filters.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		SnapshotMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_messages_total",
			Help:      "Normalized forest records published to the snapshot topic.",
		}),
	}
}
