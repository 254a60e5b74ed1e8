// Package metrics provides Prometheus metrics for the imobrank ranking service.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the ranking service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ranking
	rankingComputations *prometheus.CounterVec
	rankingLatency      *prometheus.HistogramVec
	rankingRows         prometheus.Histogram
	consistencyRetries  prometheus.Counter

	// Action log
	eventsRecorded     prometheus.Counter
	eventsRejected     *prometheus.CounterVec
	idempotentReplays  prometheus.Counter
	catalogLookups     *prometheus.CounterVec
	storeQueryLatency  *prometheus.HistogramVec
	storeQueryErrors   *prometheus.CounterVec
	dbOpenConnections  prometheus.Gauge
	dbInUseConnections prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager and its registry. Call it once at
// startup, before anything records.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "imobrank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string { return m.metricPrefix + n }

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.rankingComputations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("computations_total"),
			Help:        "Total number of ranking computations by scope and outcome",
			ConstLabels: labels,
		},
		[]string{"scope", "outcome"},
	)

	m.rankingLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("compute_latency_milliseconds"),
			Help:        "Ranking computation latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"scope"},
	)

	m.rankingRows = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows"),
		Help:        "Number of agency rows returned per ranking",
		Buckets:     []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})

	m.consistencyRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("consistency_retries_total"),
		Help:        "Ranking recomputations caused by reads observing different snapshots",
		ConstLabels: labels,
	})

	m.eventsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("events_recorded_total"),
		Help:        "Total number of action events recorded",
		ConstLabels: labels,
	})

	m.eventsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("events_rejected_total"),
			Help:        "Total number of action events rejected by reason",
			ConstLabels: labels,
		},
		[]string{"reason"},
	)

	m.idempotentReplays = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("idempotent_replays_total"),
		Help:        "Registrations answered from the idempotency cache",
		ConstLabels: labels,
	})

	m.catalogLookups = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("catalog_lookups_total"),
			Help:        "Action catalog lookups by outcome",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)

	m.storeQueryLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("store_query_latency_milliseconds"),
			Help:        "Store query latency in milliseconds by operation",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"op"},
	)

	m.storeQueryErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("store_query_errors_total"),
			Help:        "Store query failures by operation",
			ConstLabels: labels,
		},
		[]string{"op"},
	)

	m.dbOpenConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("db_open_connections"),
		Help:        "Open database connections",
		ConstLabels: labels,
	})

	m.dbInUseConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("db_in_use_connections"),
		Help:        "Database connections currently in use",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})
}

// Ranking metrics.

// RecordRankingComputed counts a ranking computation and observes its latency.
func RecordRankingComputed(scope, outcome string, latency time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.rankingComputations.WithLabelValues(scope, outcome).Inc()
	globalManager.rankingLatency.WithLabelValues(scope).Observe(float64(latency.Microseconds()) / 1000)
}

// RecordRankingRows observes how many agency rows a ranking returned.
func RecordRankingRows(rows int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rankingRows.Observe(float64(rows))
}

// RecordConsistencyRetry increments the consistency retry counter.
func RecordConsistencyRetry() {
	if !globalManager.enabled {
		return
	}
	globalManager.consistencyRetries.Inc()
}

// Action log metrics.

// RecordEventRecorded increments the recorded events counter.
func RecordEventRecorded() {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsRecorded.Inc()
}

// RecordEventRejected increments the rejected events counter for reason.
func RecordEventRejected(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsRejected.WithLabelValues(reason).Inc()
}

// RecordIdempotentReplay increments the idempotent replay counter.
func RecordIdempotentReplay() {
	if !globalManager.enabled {
		return
	}
	globalManager.idempotentReplays.Inc()
}

// RecordCatalogLookup counts a catalog lookup by outcome (hit, not_found, error).
func RecordCatalogLookup(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.catalogLookups.WithLabelValues(outcome).Inc()
}

// Store metrics.

// RecordStoreQuery observes one store query; failed queries are also counted.
func RecordStoreQuery(op string, latency time.Duration, err error) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeQueryLatency.WithLabelValues(op).Observe(float64(latency.Microseconds()) / 1000)
	if err != nil {
		globalManager.storeQueryErrors.WithLabelValues(op).Inc()
	}
}

// UpdateDBConnections sets the connection pool gauges.
func UpdateDBConnections(open, inUse int) {
	if !globalManager.enabled {
		return
	}
	globalManager.dbOpenConnections.Set(float64(open))
	globalManager.dbInUseConnections.Set(float64(inUse))
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// SampleSystem refreshes the memory and goroutine gauges from the runtime.
func SampleSystem() {
	if !globalManager.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.Alloc))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// RefreshInterval returns the sampling interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
