package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/gateway"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector records HTTP and gateway metrics on its own registry.
type MetricsCollector struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	decisions *prometheus.CounterVec
}

// NewMetricsCollector creates a collector and registers its metrics.
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_decisions_total",
				Help: "Gateway decisions by host class, outcome and reason",
			},
			[]string{"class", "outcome", "reason"},
		),
	}
	mc.registry.MustRegister(mc.requests, mc.duration, mc.decisions)
	return mc
}

// Middleware counts requests and observes their latency.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		mc.requests.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		mc.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveDecision counts one gateway decision.
func (mc *MetricsCollector) ObserveDecision(d gateway.Decision) {
	mc.decisions.WithLabelValues(d.Route.Kind.String(), d.Outcome.String(), d.Reason).Inc()
}

// Handler exposes the collector's registry in the Prometheus text format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}
