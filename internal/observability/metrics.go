package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsim_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adsim_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// ad requests that found no eligible campaign
	NoInventoryCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adsim_no_inventory_total",
			Help: "Total ad requests with no eligible campaign",
		},
	)

	// serving and billing events, labelled by type
	EventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsim_events_total",
			Help: "Total serving events recorded",
		},
		[]string{"type"},
	)

	// cumulative spend per campaign
	SpendTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsim_spend_total",
			Help: "Cumulative spend recorded per campaign",
		},
		[]string{"campaign"},
	)

	// ad-copy generation requests labelled by outcome
	AdCopyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsim_adcopy_requests_total",
			Help: "Total ad copy generation attempts",
		},
		[]string{"outcome"},
	)

	// latency of ad-copy service calls
	AdCopyLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsim_adcopy_duration_seconds",
			Help:    "Duration of ad copy generation requests",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RegisterMetrics registers all collectors with the default registry. Must be
// called once at startup before the metrics endpoint is exposed.
func RegisterMetrics() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		NoInventoryCount,
		EventCount,
		SpendTotal,
		AdCopyRequests,
		AdCopyLatency,
	)
}
