package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	StoreRequestsTotal *prometheus.CounterVec
	StoreLatency       *prometheus.HistogramVec

	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a dedicated registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of http requests",
			},
			[]string{"path", "method", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of the http request",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method", "status_code"},
		),
		HTTPErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_errors_total",
				Help:      "Total number of failed http requests by error code",
			},
			[]string{"path", "method", "code"},
		),
		StoreRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_requests_total",
				Help:      "Total number of store operations",
			},
			[]string{"store", "operation", "result"},
		),
		StoreLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_latency_seconds",
				Help:      "Duration of store operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"store", "operation"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of dispatched notifications",
			},
			[]string{"audience", "result"},
		),
	}
	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPErrorsTotal,
		m.StoreRequestsTotal,
		m.StoreLatency,
		m.NotificationsTotal,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(path, method, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(path, method, code).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(path, method, code).Inc()
}

// ObserveStore records one store operation. Use as
// defer m.ObserveStore("postgres", "get_ticket")(&err).
func (m *Metrics) ObserveStore(store, operation string) func(*error) {
	if m == nil {
		return func(*error) {}
	}
	timer := prometheus.NewTimer(m.StoreLatency.WithLabelValues(store, operation))
	return func(errp *error) {
		timer.ObserveDuration()
		result := "ok"
		if errp != nil && *errp != nil {
			result = "error"
		}
		m.StoreRequestsTotal.WithLabelValues(store, operation, result).Inc()
	}
}

// RecordNotification counts a notification dispatch attempt.
func (m *Metrics) RecordNotification(audience string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.NotificationsTotal.WithLabelValues(audience, result).Inc()
}
