package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Cache metrics
	cacheRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_cache_refreshes_total",
			Help: "Total number of record cache refreshes by kind and result",
		},
		[]string{"kind", "result"},
	)

	cacheRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "record_cache_records",
			Help: "Number of records in the current cache snapshot",
		},
		[]string{"kind"},
	)

	cacheLastRefresh = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "record_cache_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		},
		[]string{"kind"},
	)

	// Ward API metrics
	wardAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ward_api_requests_total",
			Help: "Total number of requests sent to the ward API",
		},
		[]string{"resource", "status"},
	)

	wardAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ward_api_request_duration_seconds",
			Help:    "Ward API request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"resource"},
	)

	// Report metrics
	reportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_duration_seconds",
			Help:    "Report computation time in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"report"},
	)

	reportSkippedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_skipped_records_total",
			Help: "Records left out of a report because of unusable data",
		},
		[]string{"report", "reason"},
	)

	feedbackEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_entries_total",
			Help: "Total number of usability feedback entries recorded",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath prefers the matched chi route pattern so ids do not explode
// label cardinality.
func normalizePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	if len(r.URL.Path) > 100 {
		return "/api/..."
	}
	return r.URL.Path
}

// --- Domain metric helpers ---

// RecordCacheRefresh records the outcome of one slot refresh
func RecordCacheRefresh(kind string, ok bool, records int) {
	if !ok {
		cacheRefreshesTotal.WithLabelValues(kind, "failure").Inc()
		return
	}
	cacheRefreshesTotal.WithLabelValues(kind, "success").Inc()
	cacheRecords.WithLabelValues(kind).Set(float64(records))
	cacheLastRefresh.WithLabelValues(kind).SetToCurrentTime()
}

// RecordWardAPIRequest records a request to the ward API
func RecordWardAPIRequest(resource string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	wardAPIRequestsTotal.WithLabelValues(resource, label).Inc()
	wardAPIRequestDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordReport records the computation time of a report
func RecordReport(report string, duration time.Duration) {
	reportDuration.WithLabelValues(report).Observe(duration.Seconds())
}

// RecordSkippedRecord records a record a report could not use
func RecordSkippedRecord(report, reason string) {
	reportSkippedRecords.WithLabelValues(report, reason).Inc()
}

// RecordFeedbackEntry records a stored feedback entry
func RecordFeedbackEntry() {
	feedbackEntriesTotal.Inc()
}
