// Package observability wires the Prometheus registry shared by the checker,
// the outbound HTTP client and the API server.
package observability

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/releasewatch/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Checker  *metrics.CheckerMetrics
	HTTP     *metrics.HTTPMetrics
}

// NewMetrics creates a registry with process and Go runtime collectors plus
// the application collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	checkerMetrics, err := metrics.NewCheckerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create checker metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Checker:  checkerMetrics,
		HTTP:     httpMetrics,
	}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// OutboundHook returns a callback for httpclient.Client.SetAfterResponseHook.
func (m *Metrics) OutboundHook() func(*http.Request, *http.Response, error, time.Duration) {
	return func(req *http.Request, resp *http.Response, _ error, elapsed time.Duration) {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		m.HTTP.RecordOutbound(hostOf(req.URL), status, elapsed)
	}
}

func hostOf(u *url.URL) string {
	if u == nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}
