// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	// Registry owns every collector below and backs the /metrics endpoint.
	Registry *prometheus.Registry

	storeOps       *prometheus.CounterVec
	storeDuration  *prometheus.HistogramVec
	storeBytes     *prometheus.CounterVec
	mutations      *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	eventsHandled  *prometheus.CounterVec
}

// New creates a private registry and registers all collectors in it, so calling
// New more than once (tests) never panics on duplicate registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		storeOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alugueis_store_operations_total",
				Help: "Record store operations by backend, operation and outcome.",
			},
			[]string{"backend", "operation", "status"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alugueis_store_operation_duration_seconds",
				Help:    "Duration of record store operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		storeBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alugueis_store_bytes_total",
				Help: "Bytes read from and written to the record store.",
			},
			[]string{"backend", "direction"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alugueis_ledger_mutations_total",
				Help: "Ledger mutations by table, operation and outcome.",
			},
			[]string{"table", "operation", "status"},
		),
		renderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alugueis_report_render_duration_seconds",
				Help:    "Duration of artifact rendering.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"artifact"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alugueis_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alugueis_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		eventsHandled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alugueis_worker_events_total",
				Help: "Ledger change events handled by the worker.",
			},
			[]string{"status"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStore records one record store operation.
func (m *Metrics) ObserveStore(backend, operation string, d time.Duration, err error) {
	m.storeOps.WithLabelValues(backend, operation, status(err)).Inc()
	m.storeDuration.WithLabelValues(backend, operation).Observe(d.Seconds())
}

// AddStoreBytes counts payload bytes; direction is "read" or "write".
func (m *Metrics) AddStoreBytes(backend, direction string, n int) {
	m.storeBytes.WithLabelValues(backend, direction).Add(float64(n))
}

// IncMutation counts a ledger mutation.
func (m *Metrics) IncMutation(table, operation string, err error) {
	m.mutations.WithLabelValues(table, operation, status(err)).Inc()
}

// ObserveRender records the rendering time of one artifact.
func (m *Metrics) ObserveRender(artifact string, d time.Duration) {
	m.renderDuration.WithLabelValues(artifact).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// IncEvent counts a handled change event.
func (m *Metrics) IncEvent(err error) {
	m.eventsHandled.WithLabelValues(status(err)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
