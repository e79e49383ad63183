package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Load pipeline
	rowsNormalized     prometheus.Counter
	rowsMalformed      prometheus.Counter
	fieldsMissing      *prometheus.CounterVec
	aggregationLatency *prometheus.HistogramVec
	groupsBuilt        *prometheus.CounterVec
	chartsLoaded       prometheus.Gauge

	// Playback
	framesEmitted *prometheus.CounterVec
	frameChanges  *prometheus.CounterVec
	framesEmpty   *prometheus.CounterVec
	ticks         *prometheus.CounterVec
	playing       *prometheus.GaugeVec

	// Frame queue and dispatcher
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueDropped       prometheus.Counter
	dispatchLatency    prometheus.Histogram
	sinkErrors         *prometheus.CounterVec
	framesStored       prometheus.Gauge
	streamSubscribers  prometheus.Gauge
	errorsByComponent  *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec

	// Process
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Gauge
}

// Global metrics manager and the registry it writes to. Configure swaps both.
var (
	globalManager  atomic.Pointer[Manager]            //nolint:gochecknoglobals // intentional global for singleton metrics manager
	customRegistry atomic.Pointer[prometheus.Registry] //nolint:gochecknoglobals // intentional global for metrics registry
)

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure rebuilds the global manager on a fresh registry with opts.
// Call it before serving /metrics; collectors recorded earlier are dropped.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts[:len(opts):len(opts)], WithPrometheusRegistry(reg))...)
	customRegistry.Store(reg)
	globalManager.Store(m)
}

func current() *Manager {
	return globalManager.Load()
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "aqframes",
		subsystem:        "charts",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.rowsNormalized = m.counter("rows_normalized_total", "Rows turned into records by the normalizer")
	m.rowsMalformed = m.counter("rows_malformed_total", "Rows skipped because the date could not be parsed")
	m.fieldsMissing = m.counterVec("fields_missing_total", "Numeric fields marked missing, by column", "field")
	m.aggregationLatency = m.histogramVec("aggregation_latency_milliseconds", "Time to aggregate records into groups", "reducer")
	m.groupsBuilt = m.counterVec("groups_built_total", "Leaf groups produced by the aggregation engine", "reducer")
	m.chartsLoaded = m.gauge("charts_loaded", "Number of chart controllers currently loaded")

	m.framesEmitted = m.counterVec("frames_emitted_total", "Frames handed to the renderer", "chart")
	m.frameChanges = m.counterVec("frame_changes_total", "Keys per reconciliation class", "chart", "change")
	m.framesEmpty = m.counterVec("frames_empty_total", "Frames emitted for periods without data", "chart")
	m.ticks = m.counterVec("ticks_total", "Playback timer ticks handled", "chart")
	m.playing = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "playing",
		Help:        "1 when the chart's playback is running",
		ConstLabels: m.customLabels,
	}, []string{"chart"})

	m.queueSize = m.gauge("queue_size", "Frames waiting for dispatch")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum frames the queue holds")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Frames accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Frames taken from the queue")
	m.queueDropped = m.counter("queue_dropped_total", "Frames rejected because the queue was full or closed")
	m.dispatchLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "dispatch_latency_milliseconds",
		Help:        "Time for one frame to pass through every sink",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
	m.sinkErrors = m.counterVec("sink_errors_total", "Frame sink failures", "sink")
	m.framesStored = m.gauge("frames_stored", "Charts with a stored last frame")
	m.streamSubscribers = m.gauge("stream_subscribers", "Open frame stream connections")
	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestLatency = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.systemMemory = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPause = m.gauge("system_gc_pause_milliseconds", "Average GC pause")
}

// RecordRowsNormalized adds normalizer output to the counters.
func (m *Manager) RecordRowsNormalized(records, malformed int, missing map[string]int) {
	m.rowsNormalized.Add(float64(records))
	m.rowsMalformed.Add(float64(malformed))
	for field, n := range missing {
		m.fieldsMissing.WithLabelValues(field).Add(float64(n))
	}
}

// RecordAggregation records one aggregation run.
func (m *Manager) RecordAggregation(reducer string, groups int, latencyMs float64) {
	m.groupsBuilt.WithLabelValues(reducer).Add(float64(groups))
	m.aggregationLatency.WithLabelValues(reducer).Observe(latencyMs)
}

// RecordFrame records an emitted frame and its key counts.
func (m *Manager) RecordFrame(chart string, entering, updating, exiting int, empty bool) {
	m.framesEmitted.WithLabelValues(chart).Inc()
	m.frameChanges.WithLabelValues(chart, "entering").Add(float64(entering))
	m.frameChanges.WithLabelValues(chart, "updating").Add(float64(updating))
	m.frameChanges.WithLabelValues(chart, "exiting").Add(float64(exiting))
	if empty {
		m.framesEmpty.WithLabelValues(chart).Inc()
	}
}

// Global helpers. Components call these; tests may use a private Manager.

// RecordRowsNormalized adds normalizer output to the global counters.
func RecordRowsNormalized(records, malformed int, missing map[string]int) {
	current().RecordRowsNormalized(records, malformed, missing)
}

// RecordAggregation records one aggregation run.
func RecordAggregation(reducer string, groups int, latencyMs float64) {
	current().RecordAggregation(reducer, groups, latencyMs)
}

// UpdateChartsLoaded sets the number of loaded charts.
func UpdateChartsLoaded(n int) {
	current().chartsLoaded.Set(float64(n))
}

// RecordFrame records an emitted frame.
func RecordFrame(chart string, entering, updating, exiting int, empty bool) {
	current().RecordFrame(chart, entering, updating, exiting, empty)
}

// RecordTick increments the tick counter of a chart.
func RecordTick(chart string) {
	current().ticks.WithLabelValues(chart).Inc()
}

// UpdatePlaying sets the playback gauge of a chart.
func UpdatePlaying(chart string, playing bool) {
	v := 0.0
	if playing {
		v = 1
	}
	current().playing.WithLabelValues(chart).Set(v)
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	current().queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	current().queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	current().queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	current().queueDequeued.Inc()
}

// RecordQueueDropped increments the dropped frame counter.
func RecordQueueDropped() {
	current().queueDropped.Inc()
}

// RecordDispatchLatency records how long one frame took to reach every sink.
func RecordDispatchLatency(latencyMs float64) {
	current().dispatchLatency.Observe(latencyMs)
}

// RecordSinkError increments the failure counter of a sink.
func RecordSinkError(sink string) {
	current().sinkErrors.WithLabelValues(sink).Inc()
}

// UpdateFramesStored sets the number of charts with a stored frame.
func UpdateFramesStored(n int) {
	current().framesStored.Set(float64(n))
}

// AddStreamSubscribers adjusts the open stream gauge by delta.
func AddStreamSubscribers(delta int) {
	current().streamSubscribers.Add(float64(delta))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	current().errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	current().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	current().httpRequestLatency.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry.Load()
}

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	current().systemMemory.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	current().systemGoroutines.Set(float64(n))
}

// RecordSystemGCPauseTime sets the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	current().systemGCPause.Set(ms)
}
