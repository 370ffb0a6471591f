// Package metrics defines the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors. Registering happens
// once via promauto, so New must be called a single time per process.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	URLsCreatedTotal  prometheus.Counter
	RedirectsTotal    prometheus.Counter
	ExpiredHitsTotal  prometheus.Counter
	NotFoundHitsTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method"},
		),
		URLsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urls_created_total",
			Help: "Total number of URLs shortened.",
		}),
		RedirectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "url_redirects_total",
			Help: "Total number of redirects served.",
		}),
		ExpiredHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "url_expired_hits_total",
			Help: "Total number of redirect requests for expired or deactivated URLs.",
		}),
		NotFoundHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "url_not_found_hits_total",
			Help: "Total number of redirect requests for unknown short codes.",
		}),
	}
}
