package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/address-compare/internal/model"
	"github.com/sells-group/address-compare/internal/resilience"
)

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics holds the Prometheus collectors of the web layer.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Lookups         *prometheus.CounterVec
	LookupFailures  *prometheus.CounterVec
	LookupDuration  *prometheus.HistogramVec
	Rows            *prometheus.CounterVec
	CircuitState    prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "addrcmp_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "method", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "addrcmp_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: durationBuckets,
		}, []string{"route"}),
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "addrcmp_lookups_total",
			Help: "Lookups by source",
		}, []string{"source"}),
		LookupFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "addrcmp_lookup_failures_total",
			Help: "Failed lookups by source and error kind",
		}, []string{"source", "kind"}),
		LookupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "addrcmp_lookup_duration_seconds",
			Help:    "Lookup latency by source",
			Buckets: durationBuckets,
		}, []string{"source"}),
		Rows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "addrcmp_rows_total",
			Help: "Flat address rows produced by source",
		}, []string{"source"}),
		CircuitState: f.NewGauge(prometheus.GaugeOpts{
			Name: "addrcmp_cds_circuit_state",
			Help: "CDS circuit breaker state (0 closed, 1 open, 2 half-open)",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveLookup records one lookup started at start.
func (m *Metrics) ObserveLookup(source string, start time.Time, rows int, err error) {
	m.Lookups.WithLabelValues(source).Inc()
	m.LookupDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		m.LookupFailures.WithLabelValues(source, model.ErrorKind(err)).Inc()
		return
	}
	m.Rows.WithLabelValues(source).Add(float64(rows))
}

// CircuitStateChanged is a resilience.CircuitBreakerConfig.OnStateChange hook.
func (m *Metrics) CircuitStateChanged(_, to resilience.CircuitState) {
	m.CircuitState.Set(float64(to))
}

// instrument counts requests by matched chi route pattern.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
