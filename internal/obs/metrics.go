// Package obs exposes the Prometheus metrics of the HTTP surface and the
// analytics engine.
package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fluxo_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxo_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxo_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	computationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxo_analytics_computations_total",
			Help: "Analytics computations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	computationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxo_analytics_computation_duration_seconds",
			Help:    "Time spent loading entries and computing an analytics result.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	sheetsCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxo_sheets_calls_total",
			Help: "Google Sheets calls made by the sync worker.",
		},
		[]string{"operation", "result"},
	)

	suspiciousTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxo_http_suspicious_requests_total",
			Help: "Requests flagged by the security detector.",
		},
		[]string{"reason"},
	)

	cacheExpiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxo_cache_expired_items_total",
			Help: "Items dropped by the periodic cache sweep.",
		},
		[]string{"cache"},
	)
)

// Init registers the collectors in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			computationsTotal, computationDuration, sheetsCallsTotal,
			suspiciousTotal, cacheExpiredTotal,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records count, latency and in-flight requests.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	})
}

// CanonicalPath collapses entry ids so label cardinality stays bounded.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "entries" && parts[2] != "" {
		return "/api/entries/:id"
	}
	return p
}

// ObserveComputation records one analytics operation started at start.
func ObserveComputation(operation string, start time.Time, err error) {
	computationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	computationsTotal.WithLabelValues(operation, result(err)).Inc()
}

// ObserveSheetsCall counts one outbound Sheets call.
func ObserveSheetsCall(operation string, err error) {
	sheetsCallsTotal.WithLabelValues(operation, result(err)).Inc()
}

// ObserveSuspicious counts one request flagged for reason.
func ObserveSuspicious(reason string) {
	suspiciousTotal.WithLabelValues(reason).Inc()
}

func ObserveCacheExpired(cache string, n int) {
	cacheExpiredTotal.WithLabelValues(cache).Add(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
