package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addecision_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "addecision_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// decisions by outcome (eligible, targeting_rejected, frequency_capped, store_error)
	DecisionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addecision_decisions_total",
			Help: "Total ad decisions by outcome",
		},
		[]string{"outcome"},
	)

	// distribution of overall targeting scores
	TargetingScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "addecision_targeting_score",
			Help:    "Distribution of overall targeting match scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// frequency cap checks by outcome (allowed, denied)
	FrequencyCheckCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addecision_frequency_checks_total",
			Help: "Total frequency cap checks by outcome",
		},
		[]string{"outcome"},
	)

	// frequency events recorded, labelled by type
	FrequencyEventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addecision_frequency_events_total",
			Help: "Total frequency events recorded",
		},
		[]string{"type"},
	)

	// counter store failures (timeouts included)
	StoreErrorCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "addecision_store_errors_total",
			Help: "Total frequency store errors",
		},
	)

	// rate limit requests per organization
	RateLimitRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addecision_ratelimit_requests_total",
			Help: "Total rate limit requests per organization",
		},
		[]string{"org_id"},
	)

	// rate limit hits per organization
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addecision_ratelimit_hits_total",
			Help: "Total rate limit hits per organization",
		},
		[]string{"org_id"},
	)
)

// RegisterMetrics registers all metrics with the default Prometheus registry.
// It must be called exactly once at startup.
func RegisterMetrics() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		DecisionCount,
		TargetingScore,
		FrequencyCheckCount,
		FrequencyEventCount,
		StoreErrorCount,
		RateLimitRequests,
		RateLimitHits,
	)
}
