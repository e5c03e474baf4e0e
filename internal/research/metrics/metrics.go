package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the research module.
type Metrics struct {
	// Provider lookup latencies by source category
	SourceLatency *prometheus.HistogramVec

	// Terminal run outcomes
	RunOutcome *prometheus.CounterVec

	// Provider failures by source and failure category
	ProviderFailures *prometheus.CounterVec

	// Cache lookups by tag and hit/miss
	CacheLookups *prometheus.CounterVec

	// Overall run latency including all stages
	RunLatency prometheus.Histogram
}

// New creates a Metrics instance with all research module metrics registered.
func New() *Metrics {
	return &Metrics{
		SourceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tailtrace_research_source_duration_seconds",
			Help:    "Duration of provider lookups by source category",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),

		RunOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tailtrace_research_runs_total",
			Help: "Total research runs by terminal outcome",
		}, []string{"outcome"}),

		ProviderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tailtrace_research_provider_failures_total",
			Help: "Provider failures recorded per source and category",
		}, []string{"source", "category"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tailtrace_research_cache_lookups_total",
			Help: "Cache lookups by key tag and result",
		}, []string{"tag", "result"}),

		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tailtrace_research_run_duration_seconds",
			Help:    "Duration of a full research run",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// ObserveSourceLatency records the duration of one provider lookup.
func (m *Metrics) ObserveSourceLatency(source string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementOutcome records a terminal run outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.RunOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementProviderFailure records a categorized provider failure.
func (m *Metrics) IncrementProviderFailure(source, category string) {
	if m != nil {
		m.ProviderFailures.WithLabelValues(source, category).Inc()
	}
}

// IncrementCacheLookup records a cache hit or miss for a key tag.
func (m *Metrics) IncrementCacheLookup(tag string, hit bool) {
	if m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheLookups.WithLabelValues(tag, result).Inc()
	}
}

// ObserveRunLatency records the duration of a full run.
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}
