// Package metrics exposes run and node execution statistics in the
// Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/portflow/internal/engine"
)

const (
	namespace = "portflow"
	unmatched = "unmatched"

	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Observer is an engine observer that records Prometheus metrics. Each
// Observer owns its registry, so several can coexist in one process.
type Observer struct {
	registry *prometheus.Registry

	nodesTotal   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var (
	_ engine.Observer    = (*Observer)(nil)
	_ engine.RunObserver = (*Observer)(nil)
)

// New creates an Observer with all collectors registered, including the Go
// runtime and process collectors.
func New() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		nodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_executions_total",
				Help:      "Total number of node handler executions.",
			},
			[]string{"node_type"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_duration_seconds",
				Help:      "Node handler duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"node_type"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of graph runs by outcome.",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Graph run duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	o.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		o.nodesTotal,
		o.nodeDuration,
		o.runsTotal,
		o.runDuration,
		o.httpRequestsTotal,
		o.httpRequestDuration,
	)
	return o
}

// NodeFinished implements engine.Observer.
func (o *Observer) NodeFinished(_ context.Context, rec engine.Record) {
	nodeType := string(rec.NodeType)
	o.nodesTotal.WithLabelValues(nodeType).Inc()
	o.nodeDuration.WithLabelValues(nodeType).Observe(rec.Elapsed.Seconds())
}

// RunFinished implements engine.RunObserver.
func (o *Observer) RunFinished(_ context.Context, rec engine.RunRecord) {
	status := StatusSucceeded
	if rec.Err != nil {
		status = StatusFailed
	}
	o.runsTotal.WithLabelValues(status).Inc()
	o.runDuration.Observe(rec.Elapsed.Seconds())
}

// Registry returns the underlying Prometheus registry.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry})
}

// Middleware records request count and duration for every HTTP request.
// It labels by chi route pattern rather than raw path to keep cardinality
// bounded.
func (o *Observer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := routePattern(r)
		o.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		o.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatched
}
