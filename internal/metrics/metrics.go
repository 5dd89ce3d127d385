package metrics

import (
	"net/http"
	"time"

	"sentinelscan/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ScansTotal    *prometheus.CounterVec
	ScanDuration  prometheus.Histogram
	FilesScanned  prometheus.Counter
	FilesSkipped  prometheus.Counter
	FindingsTotal *prometheus.CounterVec
	ParseFallback prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// uses a private registry, which keeps repeated construction in tests safe.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_scans_total",
			Help: "Total number of scans by final status",
		},
		[]string{"status"},
	)

	m.ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_scan_duration_seconds",
			Help:    "Wall time of completed scans in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		},
	)

	m.FilesScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_files_scanned_total",
			Help: "Total number of files run through the detection engine",
		},
	)

	m.FilesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_files_skipped_total",
			Help: "Total number of files skipped because they could not be decoded",
		},
	)

	m.FindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_findings_total",
			Help: "Total number of findings by rule and severity",
		},
		[]string{"rule_id", "severity"},
	)

	m.ParseFallback = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_parse_fallbacks_total",
			Help: "Python files that failed to parse and were scanned line by line only",
		},
	)

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ScansTotal,
		m.ScanDuration,
		m.FilesScanned,
		m.FilesSkipped,
		m.FindingsTotal,
		m.ParseFallback,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}

	return m
}

// ObserveReport records a finished scan.
func (m *Metrics) ObserveReport(report *model.ScanReport, elapsed time.Duration) {
	m.ScansTotal.WithLabelValues(report.Status).Inc()
	if report.Failed() {
		return
	}
	m.ScanDuration.Observe(elapsed.Seconds())
	m.FilesScanned.Add(float64(report.FilesScanned))
	for _, f := range report.Vulnerabilities {
		m.FindingsTotal.WithLabelValues(f.RuleID, string(f.Severity)).Inc()
	}
}

// Middleware for tracking HTTP requests
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// route patterns keep report ids out of the label set
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, http.StatusText(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Handler returns the Prometheus HTTP handler for the registry the metrics live in.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
