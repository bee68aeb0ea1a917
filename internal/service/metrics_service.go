package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Solve outcomes used as metric labels.
const (
	OutcomeSolved     = "solved"
	OutcomeDegraded   = "degraded"
	OutcomeStructural = "structural_infeasibility"
	OutcomeTotal      = "total_infeasibility"
	OutcomeInvalid    = "invalid_input"
	OutcomePersist    = "persistence_failure"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	solveDuration   *prometheus.HistogramVec
	solveTotal      *prometheus.CounterVec
	solveReductions prometheus.Histogram
	solveBacktracks prometheus.Histogram
	meetingsPlaced  prometheus.Gauge
	queueDepth      prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Wall time of solver runs including relaxation iterations",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"outcome"})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solve_total",
		Help: "Solver runs by outcome",
	}, []string{"outcome"})

	solveReductions := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_solve_reductions",
		Help:    "Frequency reductions applied before a schedule was found",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})

	solveBacktracks := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_solve_backtracks",
		Help:    "Backtracks performed per solver run",
		Buckets: prometheus.ExponentialBuckets(1, 10, 8),
	})

	meetingsPlaced := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_meetings_placed",
		Help: "Meetings placed by the latest successful run",
	})

	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_solve_queue_depth",
		Help: "Solve runs waiting in the background queue",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		solveDuration, solveTotal, solveReductions, solveBacktracks, meetingsPlaced, queueDepth, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		solveReductions: solveReductions,
		solveBacktracks: solveBacktracks,
		meetingsPlaced:  meetingsPlaced,
		queueDepth:      queueDepth,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSolve records one solver run.
func (m *MetricsService) ObserveSolve(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.solveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.solveTotal.WithLabelValues(outcome).Inc()
}

// ObserveSearch records the search effort of a successful run.
func (m *MetricsService) ObserveSearch(reductions, backtracks, meetings int) {
	if m == nil {
		return
	}
	m.solveReductions.Observe(float64(reductions))
	m.solveBacktracks.Observe(float64(backtracks))
	m.meetingsPlaced.Set(float64(meetings))
}

// SetQueueDepth publishes the number of pending background runs.
func (m *MetricsService) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
