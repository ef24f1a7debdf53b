// Package metrics owns the Prometheus registry of the service and the
// collectors recorded by the stats service, the report cache and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "service_desk_analytics"

// Registry bundles the collectors registered on a dedicated Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	recomputes      *prometheus.CounterVec
	recomputeErrors *prometheus.CounterVec
	recomputeTime   *prometheus.HistogramVec
	inconsistencies *prometheus.CounterVec
	sweepProcessed  prometheus.Counter
	sweepFailed     prometheus.Counter

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheErrors prometheus.Counter
	cacheSets   prometheus.Counter
	cacheDrops  prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with the Go and process collectors and the
// service's own metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Stats recomputes by kind",
		}, []string{"kind"}),
		recomputeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recompute_errors_total",
			Help:      "Failed stats recomputes by kind",
		}, []string{"kind"}),
		recomputeTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Duration of stats recomputes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		inconsistencies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_inconsistencies_total",
			Help:      "Timeline events that could not be applied as recorded",
		}, []string{"action"}),
		sweepProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_items_processed_total",
			Help:      "Items recomputed by bulk sweeps",
		}),
		sweepFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_items_failed_total",
			Help:      "Items that failed during bulk sweeps",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_hits_total",
			Help:      "Report cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_misses_total",
			Help:      "Report cache misses",
		}),
		cacheErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_errors_total",
			Help:      "Report cache errors",
		}),
		cacheSets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_sets_total",
			Help:      "Reports written to the cache",
		}),
		cacheDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_invalidated_keys_total",
			Help:      "Cache keys dropped by invalidation",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Stats returns the recorder used by the stats service.
func (r *Registry) Stats() ports.StatsMetrics {
	return statsMetrics{r}
}

// Cache returns the recorder used by the report cache.
func (r *Registry) Cache() *CacheMetrics {
	return &CacheMetrics{r: r}
}

// ObserveHTTP records one served request.
func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

type statsMetrics struct {
	r *Registry
}

func (m statsMetrics) ObserveRecompute(kind string, elapsed time.Duration, err error) {
	m.r.recomputes.WithLabelValues(kind).Inc()
	m.r.recomputeTime.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		m.r.recomputeErrors.WithLabelValues(kind).Inc()
	}
}

func (m statsMetrics) IncInconsistency(action string) {
	if action == "" {
		action = "none"
	}
	m.r.inconsistencies.WithLabelValues(action).Inc()
}

func (m statsMetrics) ObserveSweep(summary domain.SweepSummary) {
	m.r.sweepProcessed.Add(float64(summary.Processed))
	m.r.sweepFailed.Add(float64(summary.Failed))
}

// CacheMetrics counts report cache activity. A nil *CacheMetrics records nothing.
type CacheMetrics struct {
	r *Registry
}

func (c *CacheMetrics) Hit() {
	if c != nil {
		c.r.cacheHits.Inc()
	}
}

func (c *CacheMetrics) Miss() {
	if c != nil {
		c.r.cacheMisses.Inc()
	}
}

func (c *CacheMetrics) Error() {
	if c != nil {
		c.r.cacheErrors.Inc()
	}
}

func (c *CacheMetrics) Set() {
	if c != nil {
		c.r.cacheSets.Inc()
	}
}

func (c *CacheMetrics) Dropped(n int) {
	if c != nil {
		c.r.cacheDrops.Add(float64(n))
	}
}
