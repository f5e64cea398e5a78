package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the web
// frontend: map lifecycle outcomes, analytics delivery, summary serving, and
// the refresh consumer.
type Metrics struct {
	MapLoads        *prometheus.CounterVec // labels: city, outcome={loaded,error}
	MapLoadDuration prometheus.Histogram

	AnalyticsEvents  *prometheus.CounterVec // labels: event
	AnalyticsDropped prometheus.Counter

	// Summary serving metrics.
	SummaryRequests *prometheus.CounterVec // labels: city, status
	SummaryCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Upstream forecast-core metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,error,breaker_open}
	UpstreamDuration prometheus.Histogram

	// Refresh consumer metrics.
	RefreshProcessed prometheus.Counter
	RefreshErrors    prometheus.Counter
	RefreshRunning   prometheus.Gauge
}

// NewMetrics creates and registers all frontend metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MapLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_web",
			Name:      "map_loads_total",
			Help:      "Map load attempts by city and terminal outcome.",
		}, []string{"city", "outcome"}),
		MapLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_web",
			Name:      "map_load_duration_seconds",
			Help:      "Elapsed time from visibility trigger to a terminal load phase.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AnalyticsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_web",
			Name:      "analytics_events_total",
			Help:      "Analytics events accepted for delivery, by event name.",
		}, []string{"event"}),
		AnalyticsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_web",
			Name:      "analytics_dropped_total",
			Help:      "Analytics events dropped because the dispatch buffer was full.",
		}),
		SummaryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_web",
			Name:      "summary_requests_total",
			Help:      "Zone summary API requests by city and response status.",
		}, []string{"city", "status"}),
		SummaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_web",
			Name:      "summary_cache_total",
			Help:      "Summary cache lookups by result.",
		}, []string{"result"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_web",
			Name:      "upstream_requests_total",
			Help:      "Forecast-core fetches by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_web",
			Name:      "upstream_duration_seconds",
			Help:      "Forecast-core request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RefreshProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_web",
			Name:      "refresh_notifications_total",
			Help:      "Summary refresh notifications applied to the cache.",
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_web",
			Name:      "refresh_errors_total",
			Help:      "Refresh notifications that could not be decoded or applied.",
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_web",
			Name:      "refresh_consumer_running",
			Help:      "1 when the refresh consumer loop is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.MapLoads,
		m.MapLoadDuration,
		m.AnalyticsEvents,
		m.AnalyticsDropped,
		m.SummaryRequests,
		m.SummaryCache,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.RefreshProcessed,
		m.RefreshErrors,
		m.RefreshRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MapLoads:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_web", Name: "map_loads_total"}, []string{"city", "outcome"}),
		MapLoadDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_web", Name: "map_load_duration_seconds"}),
		AnalyticsEvents:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_web", Name: "analytics_events_total"}, []string{"event"}),
		AnalyticsDropped: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_web", Name: "analytics_dropped_total"}),
		SummaryRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_web", Name: "summary_requests_total"}, []string{"city", "status"}),
		SummaryCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_web", Name: "summary_cache_total"}, []string{"result"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_web", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_web", Name: "upstream_duration_seconds"}),
		RefreshProcessed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_web", Name: "refresh_notifications_total"}),
		RefreshErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_web", Name: "refresh_errors_total"}),
		RefreshRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_web", Name: "refresh_consumer_running"}),
	}
}
