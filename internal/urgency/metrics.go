package urgency

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRankTotal          = "urgency_rank_total"
	MetricRankStoreErrors    = "urgency_rank_store_errors_total"
	MetricRankFallbackTotal  = "urgency_rank_ai_fallback_total"
	MetricRankDuration       = "urgency_rank_duration_seconds"
	MetricLastCandidateCount = "urgency_last_candidate_count"
	MetricLastResultCount    = "urgency_last_result_count"
)

// Metrics contains Prometheus metrics for urgency ranking invocations.
// All operations are thread-safe.
type Metrics struct {
	rankTotal          prometheus.Counter
	storeErrors        prometheus.Counter
	fallbackTotal      prometheus.Counter
	rankDuration       prometheus.Histogram
	lastCandidateCount prometheus.Gauge
	lastResultCount    prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rankTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankTotal,
			Help: "Total number of urgency ranking invocations",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankStoreErrors,
			Help: "Total number of task store errors during urgency ranking",
		}),
		fallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankFallbackTotal,
			Help: "Total number of rankings that fell back to local-only scoring",
		}),
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of urgency ranking duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}),
		lastCandidateCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastCandidateCount,
			Help: "Number of candidates selected in the last ranking invocation",
		}),
		lastResultCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastResultCount,
			Help: "Number of entries returned by the last ranking invocation",
		}),
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

// IncRankTotal increments the ranking invocation counter.
func (m *Metrics) IncRankTotal() {
	m.rankTotal.Inc()
}

// IncStoreErrors increments the task store error counter.
func (m *Metrics) IncStoreErrors() {
	m.storeErrors.Inc()
}

// IncFallbackTotal increments the AI fallback counter.
func (m *Metrics) IncFallbackTotal() {
	m.fallbackTotal.Inc()
}

// ObserveRankDuration records a ranking duration sample.
func (m *Metrics) ObserveRankDuration(seconds float64) {
	m.rankDuration.Observe(seconds)
}

// SetLastCandidateCount sets the last candidate count gauge.
func (m *Metrics) SetLastCandidateCount(count float64) {
	m.lastCandidateCount.Set(count)
}

// SetLastResultCount sets the last result count gauge.
func (m *Metrics) SetLastResultCount(count float64) {
	m.lastResultCount.Set(count)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rankTotal,
		m.storeErrors,
		m.fallbackTotal,
		m.rankDuration,
		m.lastCandidateCount,
		m.lastResultCount,
	}
}
