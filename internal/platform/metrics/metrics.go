package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared across the application.
// Module-specific metrics (donation lifecycle) live in their own packages.
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
	OutboxPublished     prometheus.Counter
	OutboxFailed        prometheus.Counter
}

// New creates and registers all application-level Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hopecycle_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hopecycle_notification_outbox_published_total",
			Help: "Notification outbox entries successfully published",
		}),
		OutboxFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hopecycle_notification_outbox_failed_total",
			Help: "Notification outbox publish attempts that failed",
		}),
	}
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path, statusLabel(status)).Observe(d.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
