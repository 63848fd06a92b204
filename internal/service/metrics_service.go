package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the attendance engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	checkInsTotal   *prometheus.CounterVec
	checkOutsTotal  prometheus.Counter
	lateMinutes     prometheus.Histogram
	autoFillCreated prometheus.Counter
	autoFillSkipped prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
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

	checkInsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_check_ins_total",
		Help: "Total number of recorded check-ins",
	}, []string{"scan_method"})

	checkOutsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_check_outs_total",
		Help: "Total number of recorded check-outs",
	})

	lateMinutes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_late_minutes",
		Help:    "Lateness in minutes recorded at check-in",
		Buckets: []float64{0, 5, 15, 30, 60, 120},
	})

	autoFillCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autofill_records_created_total",
		Help: "Attendance records created by the auto-fill job",
	})

	autoFillSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autofill_records_skipped_total",
		Help: "Users skipped by the auto-fill job",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, checkInsTotal, checkOutsTotal,
		lateMinutes, autoFillCreated, autoFillSkipped, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		checkInsTotal:   checkInsTotal,
		checkOutsTotal:  checkOutsTotal,
		lateMinutes:     lateMinutes,
		autoFillCreated: autoFillCreated,
		autoFillSkipped: autoFillSkipped,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCheckIn counts a check-in and its lateness.
func (m *MetricsService) RecordCheckIn(scanMethod string, minutesLate int) {
	if m == nil {
		return
	}
	m.checkInsTotal.WithLabelValues(scanMethod).Inc()
	m.lateMinutes.Observe(float64(minutesLate))
}

// RecordCheckOut counts a check-out.
func (m *MetricsService) RecordCheckOut() {
	if m == nil {
		return
	}
	m.checkOutsTotal.Inc()
}

// RecordAutoFill counts one auto-fill batch outcome.
func (m *MetricsService) RecordAutoFill(created, skipped int) {
	if m == nil {
		return
	}
	m.autoFillCreated.Add(float64(created))
	m.autoFillSkipped.Add(float64(skipped))
}

// RecordCacheOperation counts a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
