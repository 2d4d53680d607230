package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/catalog-console/pkg/metrics"
)

// Metrics are the Prometheus collectors for product API calls.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. Collectors that are
// already registered (a second client in the same process) are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_gateway_requests_total",
				Help: "Total number of calls to the product API",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_gateway_request_duration_seconds",
				Help:    "Duration of product API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}

	m.requests = metrics.Register(reg, m.requests)
	m.duration = metrics.Register(reg, m.duration)
	return m
}
