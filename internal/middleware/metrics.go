// Package middleware provides metrics for HTTP middleware components.
package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricHTTPRequestDuration   = "http_request_duration_seconds"
	MetricHTTPRequestsTotal     = "http_requests_total"
	MetricHTTPResponseSizeBytes = "http_response_size_bytes"
	MetricRateLimitRedisErrors  = "rate_limit_redis_errors_total"
	MetricCacheHits             = "response_cache_hits_total"
	MetricCacheMisses           = "response_cache_misses_total"
)

// Metrics contains Prometheus metrics for middleware operations.
// All operations are thread-safe.
type Metrics struct {
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	httpResponseSize     *prometheus.HistogramVec
	rateLimitRedisErrors prometheus.Counter
	cacheHits            *prometheus.CounterVec
	cacheMisses          *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPResponseSizeBytes,
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(128, 4, 6),
			},
			[]string{"method", "path"},
		),
		rateLimitRedisErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRateLimitRedisErrors,
				Help: "Total number of Redis errors during rate limiting (fail-open events)",
			},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheHits,
				Help: "Total number of response cache hits by key prefix",
			},
			[]string{"prefix"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheMisses,
				Help: "Total number of response cache misses by key prefix",
			},
			[]string{"prefix"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveHTTPRequest records duration and count for a completed request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	m.httpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveHTTPResponseSize records the response size for a completed request.
func (m *Metrics) ObserveHTTPResponseSize(method, path string, bytes float64) {
	m.httpResponseSize.WithLabelValues(method, path).Observe(bytes)
}

// IncRateLimitRedisErrors increments the rate limit fail-open counter.
func (m *Metrics) IncRateLimitRedisErrors() {
	m.rateLimitRedisErrors.Inc()
}

// IncCacheHits increments the cache hit counter for a key prefix.
func (m *Metrics) IncCacheHits(prefix string) {
	m.cacheHits.WithLabelValues(prefix).Inc()
}

// IncCacheMisses increments the cache miss counter for a key prefix.
func (m *Metrics) IncCacheMisses(prefix string) {
	m.cacheMisses.WithLabelValues(prefix).Inc()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.httpResponseSize,
		m.rateLimitRedisErrors,
		m.cacheHits,
		m.cacheMisses,
	}
}
