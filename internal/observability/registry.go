package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Components receive it by injection instead of touching the global
// Prometheus collectors directly, which keeps tests free of global state.
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Decision metrics
	IncrementDecisions(outcome string)
	RecordTargetingScore(score float64)

	// Frequency capping metrics
	IncrementFrequencyChecks(outcome string)
	IncrementFrequencyEvents(eventType string)
	IncrementStoreErrors()

	// Rate limiting metrics
	IncrementRateLimitRequests(orgID string)
	IncrementRateLimitHits(orgID string)
}

// PrometheusRegistry implements MetricsRegistry on the package collectors.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementDecisions(outcome string) {
	DecisionCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordTargetingScore(score float64) {
	TargetingScore.Observe(score)
}

func (r *PrometheusRegistry) IncrementFrequencyChecks(outcome string) {
	FrequencyCheckCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementFrequencyEvents(eventType string) {
	FrequencyEventCount.WithLabelValues(eventType).Inc()
}

func (r *PrometheusRegistry) IncrementStoreErrors() {
	StoreErrorCount.Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitRequests(orgID string) {
	RateLimitRequests.WithLabelValues(orgID).Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitHits(orgID string) {
	RateLimitHits.WithLabelValues(orgID).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementDecisions(outcome string)                                    {}
func (r *NoOpRegistry) RecordTargetingScore(score float64)                                   {}
func (r *NoOpRegistry) IncrementFrequencyChecks(outcome string)                              {}
func (r *NoOpRegistry) IncrementFrequencyEvents(eventType string)                            {}
func (r *NoOpRegistry) IncrementStoreErrors()                                                {}
func (r *NoOpRegistry) IncrementRateLimitRequests(orgID string)                              {}
func (r *NoOpRegistry) IncrementRateLimitHits(orgID string)                                  {}
