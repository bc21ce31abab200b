// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "peakflow"

// Metrics is a registry with the RPC and domain collectors registered.
type Metrics struct {
	Registry *prometheus.Registry

	rpcRequests  *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	rpcInFlight  prometheus.Gauge
	rateLimited  *prometheus.CounterVec
	readingsAdd  prometheus.Counter
	alertsRaised prometheus.Counter
	resetCodes   *prometheus.CounterVec
}

// New builds a fresh registry, including Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Total number of unary RPCs handled.",
		}, []string{"method", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of unary RPCs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method"}),
		rpcInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight RPCs.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "rate_limited_total",
			Help:      "RPCs rejected by the per-peer rate limiter.",
		}, []string{"method"}),
		readingsAdd: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "readings_added_total",
			Help:      "Readings stored.",
		}),
		alertsRaised: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "alerts_total",
			Help:      "Summaries returned with a below-threshold alert.",
		}),
		resetCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "password_resets_total",
			Help:      "Password reset steps by outcome.",
		}, []string{"step", "outcome"}),
	}
	m.Registry.MustRegister(
		m.rpcRequests,
		m.rpcDuration,
		m.rpcInFlight,
		m.rateLimited,
		m.readingsAdd,
		m.alertsRaised,
		m.resetCodes,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// RPCStarted marks one RPC in flight and returns the function that records its outcome.
func (m *Metrics) RPCStarted(method string) func(code string) {
	start := time.Now()
	m.rpcInFlight.Inc()
	return func(code string) {
		m.rpcInFlight.Dec()
		m.rpcRequests.WithLabelValues(method, code).Inc()
		m.rpcDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}

// RateLimited counts a rejected RPC.
func (m *Metrics) RateLimited(method string) { m.rateLimited.WithLabelValues(method).Inc() }

// ReadingAdded counts a stored reading.
func (m *Metrics) ReadingAdded() { m.readingsAdd.Inc() }

// AlertRaised counts a summary carrying an alert.
func (m *Metrics) AlertRaised() { m.alertsRaised.Inc() }

// PasswordReset counts a reset step ("request" or "confirm") with its outcome.
func (m *Metrics) PasswordReset(step, outcome string) {
	m.resetCodes.WithLabelValues(step, outcome).Inc()
}
