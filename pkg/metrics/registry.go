// Package metrics holds the gateway's process-wide counters.
//
// Counters are plain atomics so the JSON snapshot served on /metrics is cheap
// and exact. The same values are exported to Prometheus through CounterFuncs,
// alongside upstream latency histograms and any gauges the caller registers.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pario-ai/pokegate/pkg/models"
)

const namespace = "pokegate"

// Registry counts requests, cache outcomes and generative failures.
type Registry struct {
	totalRequests atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	aiErrors      atomic.Int64
	fallbacksUsed atomic.Int64

	prom     *prometheus.Registry
	upstream *prometheus.HistogramVec
}

// New creates a Registry with its own Prometheus registry.
func New() *Registry {
	r := &Registry{
		prom: prometheus.NewRegistry(),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls to upstream providers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
	}

	counter := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}

	r.prom.MustRegister(
		counter("requests_total", "Requests to the details and insight endpoints.", &r.totalRequests),
		counter("cache_hits_total", "Response cache hits.", &r.cacheHits),
		counter("cache_misses_total", "Response cache misses.", &r.cacheMisses),
		counter("ai_errors_total", "Failed generative provider calls.", &r.aiErrors),
		counter("fallbacks_total", "Insights served from the fallback template.", &r.fallbacksUsed),
		r.upstream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) IncRequests()  { r.totalRequests.Add(1) }
func (r *Registry) IncCacheHit()  { r.cacheHits.Add(1) }
func (r *Registry) IncCacheMiss() { r.cacheMisses.Add(1) }
func (r *Registry) IncAIError()   { r.aiErrors.Add(1) }
func (r *Registry) IncFallback()  { r.fallbacksUsed.Add(1) }

// Snapshot returns the current counter values.
func (r *Registry) Snapshot() models.MetricsSnapshot {
	return models.MetricsSnapshot{
		TotalRequests: r.totalRequests.Load(),
		CacheHits:     r.cacheHits.Load(),
		CacheMisses:   r.cacheMisses.Load(),
		AIErrors:      r.aiErrors.Load(),
		FallbacksUsed: r.fallbacksUsed.Load(),
	}
}

// Reset zeroes every counter. Histograms are left untouched.
func (r *Registry) Reset() {
	r.totalRequests.Store(0)
	r.cacheHits.Store(0)
	r.cacheMisses.Store(0)
	r.aiErrors.Store(0)
	r.fallbacksUsed.Store(0)
}

// ObserveUpstream records the latency of one upstream call.
func (r *Registry) ObserveUpstream(provider string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.upstream.WithLabelValues(provider, outcome).Observe(time.Since(start).Seconds())
}

// RegisterGaugeFunc exports fn as a gauge, e.g. the cache size.
func (r *Registry) RegisterGaugeFunc(name, help string, fn func() float64) error {
	return r.prom.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// RegisterCounterFunc exports fn as a counter, e.g. cache evictions.
func (r *Registry) RegisterCounterFunc(name, help string, fn func() float64) error {
	return r.prom.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prom
}

// Handler serves the Prometheus text exposition.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
