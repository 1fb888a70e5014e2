// Package metrics holds the Prometheus collectors for the client and the
// gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors registered on their own registry.
//
// Metrics:
//   - pressroom_api_requests_total{method,route,status}
//   - pressroom_api_request_duration_seconds{method,route}
//   - pressroom_optimistic_events_total{kind,outcome}
//   - pressroom_guard_denials_total{reason}
//   - pressroom_session_refreshes_total{result}
type Metrics struct {
	registry *prometheus.Registry

	APIRequests       *prometheus.CounterVec
	APIRequestSeconds *prometheus.HistogramVec
	OptimisticEvents  *prometheus.CounterVec
	GuardDenials      *prometheus.CounterVec
	SessionRefreshes  *prometheus.CounterVec
}

// New creates the collectors. Each call gets a fresh registry, so tests can
// build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pressroom_api_requests_total",
				Help: "Requests sent to the portal API by method, route template and status code",
			},
			[]string{"method", "route", "status"},
		),
		APIRequestSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pressroom_api_request_duration_seconds",
				Help:    "Portal API round trip time in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		OptimisticEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pressroom_optimistic_events_total",
				Help: "Optimistic mutation outcomes by kind (post_like, comment_like, share, bookmark)",
			},
			[]string{"kind", "outcome"},
		),
		GuardDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pressroom_guard_denials_total",
				Help: "Gated requests turned away by reason",
			},
			[]string{"reason"},
		),
		SessionRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pressroom_session_refreshes_total",
				Help: "Access token refresh attempts by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(
		m.APIRequests,
		m.APIRequestSeconds,
		m.OptimisticEvents,
		m.GuardDenials,
		m.SessionRefreshes,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAPI records one API round trip. A nil receiver is a no-op.
func (m *Metrics) ObserveAPI(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.APIRequests.WithLabelValues(method, route, code).Inc()
	m.APIRequestSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Optimistic counts an optimistic mutation event. A nil receiver is a no-op.
func (m *Metrics) Optimistic(kind, outcome string) {
	if m == nil {
		return
	}
	m.OptimisticEvents.WithLabelValues(kind, outcome).Inc()
}

// GuardDenied counts a gate denial. A nil receiver is a no-op.
func (m *Metrics) GuardDenied(reason string) {
	if m == nil {
		return
	}
	m.GuardDenials.WithLabelValues(reason).Inc()
}

// Refresh counts a token refresh attempt. A nil receiver is a no-op.
func (m *Metrics) Refresh(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "ok"
	}
	m.SessionRefreshes.WithLabelValues(result).Inc()
}
