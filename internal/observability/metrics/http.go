package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics covers the API server and outbound collaborator requests.
type HTTPMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec

	outboundTotal    *prometheus.CounterVec
	outboundDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers the HTTP collectors.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HTTPMetrics) initMetrics() {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releasewatch_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "releasewatch_http_request_duration_seconds",
			Help:    "Time taken to serve API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.authFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releasewatch_http_auth_failures_total",
			Help: "Total number of rejected shared-secret checks",
		},
		[]string{"reason"}, // missing, invalid, not_configured
	)

	m.outboundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releasewatch_outbound_requests_total",
			Help: "Total number of outbound collaborator requests",
		},
		[]string{"host", "status"},
	)

	m.outboundDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "releasewatch_outbound_request_duration_seconds",
			Help:    "Latency of outbound collaborator requests",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount15),
		},
		[]string{"host"},
	)
}

func (m *HTTPMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.authFailures,
		m.outboundTotal,
		m.outboundDuration,
	}
}

// Describe implements the Collector interface
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordRequest records a served API request. route is the registered path pattern.
func (m *HTTPMetrics) RecordRequest(method, route string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthFailure records a rejected shared-secret check.
func (m *HTTPMetrics) RecordAuthFailure(reason string) {
	m.authFailures.WithLabelValues(reason).Inc()
}

// RecordOutbound records one outbound request; statusCode 0 means a transport error.
func (m *HTTPMetrics) RecordOutbound(host string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.outboundTotal.WithLabelValues(host, status).Inc()
	m.outboundDuration.WithLabelValues(host).Observe(duration.Seconds())
}
