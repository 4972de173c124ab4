package prometheus

import (
	"time"

	"order-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Catalog metrics
	CatalogOperationsCounter prometheus.CounterVec

	// Draft engine metrics
	DraftsOpenedCounter     prometheus.CounterVec
	DraftLineMergesCounter  prometheus.Counter
	QuantityClampsCounter   prometheus.Counter
	DraftSubmissionsCounter prometheus.CounterVec
	OpenDraftsGauge         prometheus.Gauge
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	CatalogOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_catalog_operations_total",
			Help: "Total number of catalog administration operations",
		},
		[]string{"entity", "operation"},
	)

	DraftsOpenedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_drafts_opened_total",
			Help: "Total number of draft sessions opened",
		},
		[]string{"kind"},
	)

	DraftLineMergesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_draft_line_merges_total",
			Help: "Total number of line additions merged into an existing line",
		},
	)

	QuantityClampsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_draft_quantity_clamps_total",
			Help: "Total number of quantities clamped to the stock ceiling",
		},
	)

	DraftSubmissionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_draft_submissions_total",
			Help: "Total number of draft submissions by outcome",
		},
		[]string{"kind", "outcome"},
	)

	OpenDraftsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_open_drafts",
			Help: "Number of draft sessions currently open",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordCatalogOperation increments the counter for catalog administration operations
func RecordCatalogOperation(entity, operation string) {
	CatalogOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// RecordDraftOpened increments the counter for opened draft sessions
func RecordDraftOpened(kind string) {
	DraftsOpenedCounter.WithLabelValues(kind).Inc()
}

// RecordSubmission increments the submissions counter for one outcome
func RecordSubmission(kind, outcome string) {
	DraftSubmissionsCounter.WithLabelValues(kind, outcome).Inc()
}
