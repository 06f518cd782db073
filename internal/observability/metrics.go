package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API, worker, and watcher.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal        *prometheus.CounterVec
	httpRequestDuration      *prometheus.HistogramVec
	submissionsTotal         *prometheus.CounterVec
	submissionDuration       *prometheus.HistogramVec
	batchesFinishedTotal     *prometheus.CounterVec
	completionsIngestedTotal *prometheus.CounterVec
	workerInflight           *prometheus.GaugeVec
	archivePurgedTotal       prometheus.Counter
	watcherFilesTotal        prometheus.Counter
	watcherStabilityTimeouts prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fax_relay",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fax_relay",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		submissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fax_relay",
				Name:      "submissions_total",
				Help:      "Total number of fax submission attempts by channel and outcome.",
			},
			[]string{"channel", "outcome"},
		),
		submissionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fax_relay",
				Name:      "submission_duration_seconds",
				Help:      "Submission duration in seconds grouped by channel.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"channel"},
		),
		batchesFinishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fax_relay",
				Name:      "batches_finished_total",
				Help:      "Total number of batches that reached a terminal state.",
			},
			[]string{"status"},
		),
		completionsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fax_relay",
				Name:      "completions_ingested_total",
				Help:      "Total number of completion documents processed by outcome.",
			},
			[]string{"outcome"},
		),
		workerInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fax_relay",
				Name:      "worker_inflight",
				Help:      "Current number of in-flight worker operations grouped by queue.",
			},
			[]string{"queue"},
		),
		archivePurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fax_relay",
				Name:      "archive_purged_files_total",
				Help:      "Total number of archived documents removed by the retention sweeper.",
			},
		),
		watcherFilesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fax_relay",
				Name:      "watcher_files_detected_total",
				Help:      "Total number of completion documents detected by the directory watcher.",
			},
		),
		watcherStabilityTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fax_relay",
				Name:      "watcher_stability_timeouts_total",
				Help:      "Total number of detected files that never stopped growing within the stability window.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.submissionsTotal,
		m.submissionDuration,
		m.batchesFinishedTotal,
		m.completionsIngestedTotal,
		m.workerInflight,
		m.archivePurgedTotal,
		m.watcherFilesTotal,
		m.watcherStabilityTimeouts,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncSubmission(channel string, outcome string) {
	if m == nil {
		return
	}
	outcomeLabel := strings.TrimSpace(strings.ToLower(outcome))
	if outcomeLabel == "" {
		outcomeLabel = "unknown"
	}
	m.submissionsTotal.WithLabelValues(normalizeLabel(channel), outcomeLabel).Inc()
}

func (m *Metrics) ObserveSubmissionDuration(channel string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.submissionDuration.WithLabelValues(normalizeLabel(channel)).Observe(seconds)
}

func (m *Metrics) IncBatchFinished(status string) {
	if m == nil {
		return
	}
	m.batchesFinishedTotal.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Metrics) IncCompletionIngested(outcome string) {
	if m == nil {
		return
	}
	m.completionsIngestedTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncWorkerInFlight(queue string) {
	if m == nil {
		return
	}
	m.workerInflight.WithLabelValues(normalizeLabel(queue)).Inc()
}

func (m *Metrics) DecWorkerInFlight(queue string) {
	if m == nil {
		return
	}
	m.workerInflight.WithLabelValues(normalizeLabel(queue)).Dec()
}

func (m *Metrics) AddArchivePurged(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.archivePurgedTotal.Add(float64(count))
}

func (m *Metrics) IncWatcherFileDetected() {
	if m == nil {
		return
	}
	m.watcherFilesTotal.Inc()
}

func (m *Metrics) IncWatcherStabilityTimeout() {
	if m == nil {
		return
	}
	m.watcherStabilityTimeouts.Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
