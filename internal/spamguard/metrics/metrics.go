// Package metrics exposes SpamGuard's Prometheus collectors.
//
// Each Metrics owns its registry so tests and multiple instances never collide
// on global registration.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/spamguard/internal/spamguard/domain"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist"
	"github.com/haukened/spamguard/internal/spamguard/services/scorer"
)

const namespace = "spamguard"

// maxPathLabelLength bounds the path label for unmatched routes.
const maxPathLabelLength = 128

type Metrics struct {
	registry      *prometheus.Registry
	verdicts      *prometheus.CounterVec
	disposable    *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	reqDuration   *prometheus.HistogramVec
}

// New builds the collectors and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Scored addresses by recommended action.",
		}, []string{"action"}),
		disposable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disposable_total",
			Help:      "Addresses blocked by a blocklist, by list.",
		}, []string{"list"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_fetch_total",
			Help:      "Remote blocklist fetch attempts by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_fetch_duration_seconds",
			Help:      "Duration of remote blocklist fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.01, 0.1, 0.3, 1.2, 5},
		}, []string{"path", "method", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.verdicts,
		m.disposable,
		m.fetches,
		m.fetchDuration,
		m.reqDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveVerdict counts a completed verdict.
func (m *Metrics) ObserveVerdict(v domain.Verdict) {
	m.verdicts.WithLabelValues(v.Action.String()).Inc()
	if !v.IsDisposable || len(v.Flags) == 0 {
		return
	}
	list := "remote"
	if v.Flags[0] == scorer.FlagPriorityBlocklist {
		list = "priority"
	}
	m.disposable.WithLabelValues(list).Inc()
}

// ObserveFetch records one remote fetch attempt.
func (m *Metrics) ObserveFetch(outcome string, elapsed time.Duration) {
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

// RegisterListCache exports the remote list cache counters.
func (m *Metrics) RegisterListCache(cache blocklist.ListCache) {
	stat := func(name, help string, get func(blocklist.CacheStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "list_cache",
			Name:      name,
			Help:      help,
		}, func() float64 { return get(cache.Stats()) })
	}
	m.registry.MustRegister(
		stat("entries", "Cached remote lists.", func(s blocklist.CacheStats) float64 { return float64(s.Size) }),
		stat("hits", "Cache hits since start.", func(s blocklist.CacheStats) float64 { return float64(s.Hits) }),
		stat("misses", "Cache misses since start.", func(s blocklist.CacheStats) float64 { return float64(s.Misses) }),
		stat("evictions", "Evictions and expiries since start.", func(s blocklist.CacheStats) float64 { return float64(s.Evictions) }),
	)
}

// HTTPMetrics is a middleware that records request durations labeled by chi
// route pattern, so path parameters never create new series.
func (m *Metrics) HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		if len(path) > maxPathLabelLength {
			path = path[:maxPathLabelLength] + "..."
		}

		m.reqDuration.WithLabelValues(path, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
