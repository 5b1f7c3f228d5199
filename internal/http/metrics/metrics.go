// Package metrics expone las métricas Prometheus del servicio: HTTP,
// lookups por store, veredictos de introspección y el pool de postgres.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-introspect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-introspect/internal/introspection"
)

// Metrics agrupa los instrumentos. Implementa introspection.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	requestsTotal  *prometheus.CounterVec
	lookupsTotal   *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
}

var _ introspection.Observer = (*Metrics)(nil)

// New crea y registra las métricas en reg. Con reg nil usa un registry propio
// con los collectors de proceso y Go.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}
	m := &Metrics{
		gatherer: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "introspection_requests_total",
			Help: "Veredictos de introspección por resultado y kind resuelto",
		}, []string{"result", "kind"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "introspection_store_lookups_total",
			Help: "Lookups a token stores por kind y outcome (hit|miss|error)",
		}, []string{"kind", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "introspection_store_lookup_seconds",
			Help:    "Latencia de lookups a token stores",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
		m.requestsTotal, m.lookupsTotal, m.lookupDuration,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterPool agrega gauges del pool pgx.
func (m *Metrics) RegisterPool(reg prometheus.Registerer, pool func() *pgxpool.Pool) error {
	return registerCollector(reg, newPoolCollector(pool))
}

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveLookup implementa introspection.Observer.
func (m *Metrics) ObserveLookup(kind repository.TokenKind, outcome introspection.LookupOutcome, elapsed time.Duration) {
	m.lookupsTotal.WithLabelValues(string(kind), string(outcome)).Inc()
	m.lookupDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// ObserveVerdict implementa introspection.Observer.
func (m *Metrics) ObserveVerdict(_ context.Context, v introspection.Verdict) {
	result := "inactive"
	if v.Active {
		result = "active"
	}
	kind := "none"
	if v.Resolved != "" {
		kind = string(v.Resolved)
	}
	m.requestsTotal.WithLabelValues(result, kind).Inc()
}

// Middleware instrumenta requests HTTP. El label path es el patrón de chi,
// nunca el path crudo.
func (m *Metrics) Middleware() middlewares.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.httpInflight.Inc()
			start := time.Now()
			rec := middlewares.NewStatusRecorder(w)
			defer func() {
				m.httpInflight.Dec()
				method := strings.ToUpper(r.Method)
				path := routePattern(r)
				m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
				m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(rec.Status())).Inc()
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// poolCollector expone gauges del pool de postgres.
type poolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(pool func() *pgxpool.Pool) *poolCollector {
	return &poolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
