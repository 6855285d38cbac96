package observability

import "time"

// MetricsRegistry abstracts metric recording so components take an injected
// dependency instead of touching global Prometheus collectors, and tests can
// run with a no-op.
type MetricsRegistry interface {
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	IncrementNoInventory()
	IncrementEvent(eventType string)
	AddSpend(campaign string, amount float64)

	IncrementAdCopyRequests(outcome string)
	RecordAdCopyLatency(duration time.Duration)
}

// PrometheusRegistry implements MetricsRegistry on the package collectors.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry.
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementNoInventory() {
	NoInventoryCount.Inc()
}

func (r *PrometheusRegistry) IncrementEvent(eventType string) {
	EventCount.WithLabelValues(eventType).Inc()
}

func (r *PrometheusRegistry) AddSpend(campaign string, amount float64) {
	SpendTotal.WithLabelValues(campaign).Add(amount)
}

func (r *PrometheusRegistry) IncrementAdCopyRequests(outcome string) {
	AdCopyRequests.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordAdCopyLatency(duration time.Duration) {
	AdCopyLatency.Observe(duration.Seconds())
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing.
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry.
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementNoInventory()                                                {}
func (r *NoOpRegistry) IncrementEvent(eventType string)                                      {}
func (r *NoOpRegistry) AddSpend(campaign string, amount float64)                             {}
func (r *NoOpRegistry) IncrementAdCopyRequests(outcome string)                               {}
func (r *NoOpRegistry) RecordAdCopyLatency(duration time.Duration)                           {}
