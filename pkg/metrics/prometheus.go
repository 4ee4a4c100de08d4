// Package metrics provides Prometheus metrics for the tournify match validation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Outcome labels for validations.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeHostError = "host_error"
	OutcomeFailed    = "failed"
	OutcomeError     = "error"
)

// Manager manages all Prometheus metrics for the tournify service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Validation metrics
	validations           *prometheus.CounterVec
	validationLatency     prometheus.Histogram
	matchedFraction       prometheus.Histogram
	detailChecks          *prometheus.CounterVec
	leaderboardsGenerated prometheus.Counter

	// Provider metrics
	providerRequests     *prometheus.CounterVec
	providerLatency      *prometheus.HistogramVec
	providerRetries      *prometheus.CounterVec
	historyFetchFailures *prometheus.CounterVec

	// Details cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheSize   prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	customRegistry.MustRegister(collectors.NewBuildInfoCollector())
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tournify",
		subsystem:        "matches",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// RefreshInterval is how often gauge-style system metrics should be sampled.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// Enabled reports whether recorders on this manager do anything.
func (m *Manager) Enabled() bool {
	return m.enabled
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.validations = auto.NewCounterVec(
		m.counterOpts("validations_total", "Total number of match validations by outcome"),
		[]string{"outcome"},
	)
	m.validationLatency = auto.NewHistogram(
		m.histogramOpts("validation_latency_milliseconds", "End-to-end validation latency in milliseconds", m.histogramBuckets),
	)
	m.matchedFraction = auto.NewHistogram(
		m.histogramOpts("matched_fraction", "Fraction of the roster whose history contains the claimed match",
			[]float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}),
	)
	m.detailChecks = auto.NewCounterVec(
		m.counterOpts("detail_checks_total", "Detail checks by check name and status"),
		[]string{"check", "status"},
	)
	m.leaderboardsGenerated = auto.NewCounter(
		m.counterOpts("leaderboards_generated_total", "Total number of leaderboards produced"),
	)

	m.providerRequests = auto.NewCounterVec(
		m.counterOpts("provider_requests_total", "Outbound provider requests by operation and result"),
		[]string{"op", "result"},
	)
	m.providerLatency = auto.NewHistogramVec(
		m.histogramOpts("provider_latency_milliseconds", "Outbound provider latency in milliseconds", m.histogramBuckets),
		[]string{"op"},
	)
	m.providerRetries = auto.NewCounterVec(
		m.counterOpts("provider_retries_total", "Outbound provider retries by operation"),
		[]string{"op"},
	)
	m.historyFetchFailures = auto.NewCounterVec(
		m.counterOpts("history_fetch_failures_total", "Player history fetches counted as absent, by reason"),
		[]string{"reason"},
	)

	m.cacheHits = auto.NewCounter(m.counterOpts("details_cache_hits_total", "Match details cache hits"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("details_cache_misses_total", "Match details cache misses"))
	m.cacheSize = auto.NewGauge(m.gaugeOpts("details_cache_entries", "Entries currently held by the match details cache"))

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)

	// System Performance Metrics - Resource utilization
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Current system memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Current number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Garbage collection pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordValidation counts a validation outcome and its latency.
func (m *Manager) RecordValidation(outcome string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.validations.WithLabelValues(outcome).Inc()
	m.validationLatency.Observe(latencyMs)
}

// RecordMatchedFraction observes the claimed match's roster fraction.
func (m *Manager) RecordMatchedFraction(fraction float64) {
	if !m.enabled {
		return
	}
	m.matchedFraction.Observe(fraction)
}

// RecordDetailCheck counts a detail check result.
func (m *Manager) RecordDetailCheck(check, status string) {
	if !m.enabled {
		return
	}
	m.detailChecks.WithLabelValues(check, status).Inc()
}

// RecordLeaderboardGenerated counts a produced leaderboard.
func (m *Manager) RecordLeaderboardGenerated() {
	if !m.enabled {
		return
	}
	m.leaderboardsGenerated.Inc()
}

// RecordProviderRequest counts one outbound call and observes its latency.
func (m *Manager) RecordProviderRequest(op, result string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.providerRequests.WithLabelValues(op, result).Inc()
	m.providerLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordProviderRetry counts a retried outbound call.
func (m *Manager) RecordProviderRetry(op string) {
	if !m.enabled {
		return
	}
	m.providerRetries.WithLabelValues(op).Inc()
}

// RecordHistoryFetchFailure counts a history fetch treated as absent.
func (m *Manager) RecordHistoryFetchFailure(reason string) {
	if !m.enabled {
		return
	}
	m.historyFetchFailures.WithLabelValues(reason).Inc()
}

// RecordCacheHit increments details cache hits.
func (m *Manager) RecordCacheHit() {
	if !m.enabled {
		return
	}
	m.cacheHits.Inc()
}

// RecordCacheMiss increments details cache misses.
func (m *Manager) RecordCacheMiss() {
	if !m.enabled {
		return
	}
	m.cacheMisses.Inc()
}

// UpdateCacheSize sets the details cache entry count.
func (m *Manager) UpdateCacheSize(n int) {
	if !m.enabled {
		return
	}
	m.cacheSize.Set(float64(n))
}

// RecordHTTPRequest counts an HTTP request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an HTTP error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystem sets the sampled runtime gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int, gcPauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if gcPauseMs > 0 {
		m.systemGCPauseTime.Observe(gcPauseMs)
	}
}

// Default returns the process-wide manager bound to GetRegistry.
func Default() *Manager {
	return globalManager
}

// RecordValidation records on the global manager.
func RecordValidation(outcome string, latencyMs float64) {
	globalManager.RecordValidation(outcome, latencyMs)
}

// RecordMatchedFraction records on the global manager.
func RecordMatchedFraction(fraction float64) { globalManager.RecordMatchedFraction(fraction) }

// RecordDetailCheck records on the global manager.
func RecordDetailCheck(check, status string) { globalManager.RecordDetailCheck(check, status) }

// RecordLeaderboardGenerated records on the global manager.
func RecordLeaderboardGenerated() { globalManager.RecordLeaderboardGenerated() }

// RecordProviderRequest records on the global manager.
func RecordProviderRequest(op, result string, latencyMs float64) {
	globalManager.RecordProviderRequest(op, result, latencyMs)
}

// RecordProviderRetry records on the global manager.
func RecordProviderRetry(op string) { globalManager.RecordProviderRetry(op) }

// RecordHistoryFetchFailure records on the global manager.
func RecordHistoryFetchFailure(reason string) { globalManager.RecordHistoryFetchFailure(reason) }

// RecordCacheHit records on the global manager.
func RecordCacheHit() { globalManager.RecordCacheHit() }

// RecordCacheMiss records on the global manager.
func RecordCacheMiss() { globalManager.RecordCacheMiss() }

// UpdateCacheSize records on the global manager.
func UpdateCacheSize(n int) { globalManager.UpdateCacheSize(n) }

// RecordHTTPRequest records on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records on the global manager.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity)
}

// UpdateSystem records on the global manager.
func UpdateSystem(memBytes uint64, goroutines int, gcPauseMs float64) {
	globalManager.UpdateSystem(memBytes, goroutines, gcPauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
