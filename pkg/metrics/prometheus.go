// Package metrics provides Prometheus metrics for the medalist import service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the medalist service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	latencyBuckets   []float64
	registry         prometheus.Registerer

	// Pipeline Metrics - rows and batches flowing through the importer
	rowsProcessed  *prometheus.CounterVec
	rowErrors      *prometheus.CounterVec
	batches        *prometheus.CounterVec
	batchDuration  *prometheus.HistogramVec
	batchSize      *prometheus.HistogramVec
	medalsAwarded  *prometheus.CounterVec
	ageWarnings    prometheus.Counter
	recordsTotal   *prometheus.GaugeVec
	criteriaLoaded prometheus.Gauge

	// Repository Metrics
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Worker Metrics - row pool
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerSkipped           prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "medalist",
		subsystem:        "import",
		histogramBuckets: prometheus.DefBuckets,
		latencyBuckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.rowsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_processed_total",
		Help:      "Rows processed by record type and outcome (created, updated, failed)",
	}, []string{"record", "outcome"})

	m.rowErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "row_errors_total",
		Help:      "Rows diverted to the error report by error kind",
	}, []string{"record", "kind"})

	m.batches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_total",
		Help:      "Batches by record type and result (completed, rejected, fatal)",
	}, []string{"record", "result"})

	m.batchDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_duration_seconds",
		Help:      "Wall time to process one batch",
		Buckets:   m.histogramBuckets,
	}, []string{"record"})

	m.batchSize = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_rows",
		Help:      "Number of data rows per batch",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"record"})

	m.medalsAwarded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "medals_awarded_total",
		Help:      "Medals computed for persisted or submitted performances",
	}, []string{"medal"})

	m.ageWarnings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "age_warnings_total",
		Help:      "Persisted performances reported outside their discipline's age band",
	})

	m.recordsTotal = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_total",
		Help:      "Records held by the store by entity",
	}, []string{"entity"})

	m.criteriaLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "criteria_loaded",
		Help:      "Number of disciplines with medal criteria",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Store call latency in milliseconds by operation",
		Buckets:   m.latencyBuckets,
	}, []string{"operation"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Store call failures by operation and error",
	}, []string{"operation", "error"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Configured row worker pool size",
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Row tasks currently running",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time spent on a single row task in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.workerSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_skipped_total",
		Help:      "Row tasks never dispatched because the batch was cancelled",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// Pipeline Metrics Functions.

// RecordRow increments the processed rows counter.
func RecordRow(record, outcome string) {
	globalManager.rowsProcessed.WithLabelValues(record, outcome).Inc()
}

// RecordRowError increments the row error counter for an error kind.
func RecordRowError(record, kind string) {
	globalManager.rowErrors.WithLabelValues(record, kind).Inc()
}

// RecordBatch records a finished batch, its size and duration.
func RecordBatch(record, result string, rows int, seconds float64) {
	globalManager.batches.WithLabelValues(record, result).Inc()
	globalManager.batchSize.WithLabelValues(record).Observe(float64(rows))
	globalManager.batchDuration.WithLabelValues(record).Observe(seconds)
}

// RecordMedal increments the medal counter.
func RecordMedal(medal string) {
	globalManager.medalsAwarded.WithLabelValues(medal).Inc()
}

// RecordAgeWarning increments the advisory age warning counter.
func RecordAgeWarning() {
	globalManager.ageWarnings.Inc()
}

// UpdateRecordsTotal sets the number of stored records of an entity.
func UpdateRecordsTotal(entity string, count int) {
	globalManager.recordsTotal.WithLabelValues(entity).Set(float64(count))
}

// UpdateCriteriaLoaded sets the number of configured criteria.
func UpdateCriteriaLoaded(count int) {
	globalManager.criteriaLoaded.Set(float64(count))
}

// Repository Metrics Functions.

// RecordStoreLatency records store call latency.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError increments the store error counter.
func RecordStoreError(operation, errorType string) {
	globalManager.storeErrors.WithLabelValues(operation, errorType).Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the pool size.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the number of running row tasks.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerSkipped counts tasks dropped by cancellation.
func RecordWorkerSkipped(n int) {
	globalManager.workerSkipped.Add(float64(n))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
