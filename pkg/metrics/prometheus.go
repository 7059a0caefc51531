// Package metrics provides Prometheus metrics for the LaunchIt service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rate limiter
	rateLimitDecisions *prometheus.CounterVec
	rateLimitErrors    *prometheus.CounterVec
	rateLimitEntries   prometheus.Gauge
	rateLimitSwept     prometheus.Counter

	// Analytics
	eventsTracked      *prometheus.CounterVec
	summariesComputed  prometheus.Counter
	summaryEventsInput prometheus.Histogram

	// Leads and agents
	leadsCaptured    prometheus.Counter
	agentRuns        *prometheus.CounterVec
	agentRunDuration *prometheus.HistogramVec

	// Notification queue and workers
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueErrs  *prometheus.CounterVec
	workerActiveCount prometheus.Gauge
	notificationsSent *prometheus.CounterVec
	deliveryLatency   prometheus.Histogram

	// Repository
	repositoryErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "launchit",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.rateLimitDecisions = m.counterVec("rate_limit_decisions_total",
		"Rate limit decisions by policy and outcome", "policy", "outcome")
	m.rateLimitErrors = m.counterVec("rate_limit_store_errors_total",
		"Rate limit store failures by backend", "backend")
	m.rateLimitEntries = m.gauge("rate_limit_entries",
		"Live entries held by the in-memory rate limit store")
	m.rateLimitSwept = m.counter("rate_limit_swept_total",
		"Expired rate limit entries removed by the sweep")

	m.eventsTracked = m.counterVec("analytics_events_tracked_total",
		"Analytics events accepted from the beacon by type", "event_type")
	m.summariesComputed = m.counter("analytics_summaries_total",
		"Analytics summaries computed")
	m.summaryEventsInput = m.histogram("analytics_summary_input_events",
		"Number of events reduced per summary", []float64{0, 10, 50, 100, 500, 1000, 5000, 10000})

	m.leadsCaptured = m.counter("leads_captured_total", "Leads captured from public forms")
	m.agentRuns = m.counterVec("agent_runs_total", "Agent runs by kind and outcome", "kind", "outcome")
	m.agentRunDuration = m.histogramVec("agent_run_duration_seconds", "Agent completion latency", "kind")

	m.queueSize = m.gauge("notify_queue_size", "Current size of the notification queue")
	m.queueCapacity = m.gauge("notify_queue_capacity", "Maximum notification queue capacity")
	m.queueEnqueued = m.counter("notify_queue_enqueue_total", "Notifications enqueued")
	m.queueDequeued = m.counter("notify_queue_dequeue_total", "Notifications dequeued")
	m.queueEnqueueErrs = m.counterVec("notify_queue_enqueue_errors_total",
		"Notifications rejected by the queue", "reason")
	m.workerActiveCount = m.gauge("notify_worker_active_count", "Number of running notification workers")
	m.notificationsSent = m.counterVec("notifications_total", "Notification deliveries by outcome", "outcome")
	m.deliveryLatency = m.histogram("notification_delivery_seconds", "Notification delivery latency", m.histogramBuckets)

	m.repositoryErrors = m.counterVec("repository_errors_total",
		"Datastore failures by table and operation", "table", "op")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds",
		"HTTP request duration in seconds", "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordRateLimitDecision counts one limiter decision for policy.
func RecordRateLimitDecision(policy string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	globalManager.rateLimitDecisions.WithLabelValues(policy, outcome).Inc()
}

// RecordRateLimitStoreError counts a failed check against backend.
func RecordRateLimitStoreError(backend string) {
	globalManager.rateLimitErrors.WithLabelValues(backend).Inc()
}

// UpdateRateLimitEntries sets the number of live limiter entries.
func UpdateRateLimitEntries(n int) {
	globalManager.rateLimitEntries.Set(float64(n))
}

// RecordRateLimitSwept adds n removed entries.
func RecordRateLimitSwept(n int) {
	globalManager.rateLimitSwept.Add(float64(n))
}

// RecordEventTracked counts an accepted beacon event.
func RecordEventTracked(eventType string) {
	globalManager.eventsTracked.WithLabelValues(eventType).Inc()
}

// RecordSummary records one computed summary over n events.
func RecordSummary(n int) {
	globalManager.summariesComputed.Inc()
	globalManager.summaryEventsInput.Observe(float64(n))
}

// RecordLeadCaptured counts a stored lead.
func RecordLeadCaptured() {
	globalManager.leadsCaptured.Inc()
}

// RecordAgentRun records an agent completion.
func RecordAgentRun(kind, outcome string, seconds float64) {
	globalManager.agentRuns.WithLabelValues(kind, outcome).Inc()
	globalManager.agentRunDuration.WithLabelValues(kind).Observe(seconds)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrs.WithLabelValues(reason).Inc()
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordNotification records a delivery attempt.
func RecordNotification(outcome string, seconds float64) {
	globalManager.notificationsSent.WithLabelValues(outcome).Inc()
	globalManager.deliveryLatency.Observe(seconds)
}

// RecordRepositoryError counts a failed datastore operation.
func RecordRepositoryError(table, op string) {
	globalManager.repositoryErrors.WithLabelValues(table, op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
