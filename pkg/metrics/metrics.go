package metrics

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"movie-recommend-engine/pkg/logging"
)

// MetricType represents the type of metric
type MetricType string

const (
	CounterType   MetricType = "counter"
	GaugeType     MetricType = "gauge"
	HistogramType MetricType = "histogram"
	TimerType     MetricType = "timer"
)

// Metric represents a single metric
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Unit      string            `json:"unit"`
	Tags      map[string]string `json:"tags"`
	Timestamp time.Time         `json:"timestamp"`
}

// Metrics holds the recommendation pipeline's in-process metrics. There is
// no scrape endpoint: the MCP pipeline_stats resource reads GetSummary
// directly in-process, so every value here lives for the process lifetime.
type Metrics struct {
	mu             sync.RWMutex
	counters       map[string]*int64
	gauges         map[string]*float64
	histograms     map[string]*Histogram
	logger         *logging.Logger
	startTime      time.Time
	lastReportTime time.Time
	reportInterval time.Duration

	// Built-in metrics
	RequestsTotal        *int64
	RequestsInFlight     *int64
	RequestDuration      *Histogram // whole recommend() call, end to end
	EmbeddingCallsTotal  *int64
	EmbeddingCallErrors  *int64
	MemoryUsage          *float64
	GoroutineCount       *float64

	// Per-stage timing and candidate-set-size tracking. The orchestrator
	// reports five named stages (feature, querygen, embedding, filter,
	// scoring); each gets its own duration
	// histogram and in/out candidate-count gauges, created lazily the
	// first time that stage reports.
	stageDurations map[string]*Histogram
	stageInCount   map[string]*float64
	stageOutCount  map[string]*float64
}

// Histogram tracks distribution of values
type Histogram struct {
	mu      sync.RWMutex
	buckets map[float64]int64
	count   int64
	sum     float64
}

// Timer tracks timing information
type Timer struct {
	histogram *Histogram
	startTime time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics(logger *logging.Logger, reportInterval time.Duration) *Metrics {
	m := &Metrics{
		counters:       make(map[string]*int64),
		gauges:         make(map[string]*float64),
		histograms:     make(map[string]*Histogram),
		logger:         logger,
		startTime:      time.Now(),
		lastReportTime: time.Now(),
		reportInterval: reportInterval,
		stageDurations: make(map[string]*Histogram),
		stageInCount:   make(map[string]*float64),
		stageOutCount:  make(map[string]*float64),
	}

	// Initialize built-in metrics
	m.RequestsTotal = m.NewCounter("requests_total", "Total number of recommend() calls")
	m.RequestsInFlight = m.NewCounter("requests_in_flight", "Number of recommend() calls currently being processed")
	m.RequestDuration = m.NewHistogram("request_duration_ms", "End-to-end recommend() duration in milliseconds")
	m.EmbeddingCallsTotal = m.NewCounter("embedding_calls_total", "Total calls to the embedding provider")
	m.EmbeddingCallErrors = m.NewCounter("embedding_call_errors_total", "Total embedding provider call failures")
	m.MemoryUsage = m.NewGauge("memory_usage_bytes", "Memory usage in bytes")
	m.GoroutineCount = m.NewGauge("goroutine_count", "Number of active goroutines")

	// Start background metric collection
	go m.collectSystemMetrics()
	go m.periodicReport()

	return m
}

// NewCounter creates a new counter metric
func (m *Metrics) NewCounter(name, description string) *int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	counter := new(int64)
	m.counters[name] = counter
	return counter
}

// NewGauge creates a new gauge metric
func (m *Metrics) NewGauge(name, description string) *float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	gauge := new(float64)
	m.gauges[name] = gauge
	return gauge
}

// NewHistogram creates a new histogram metric
func (m *Metrics) NewHistogram(name, description string) *Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	histogram := &Histogram{
		buckets: make(map[float64]int64),
	}
	m.histograms[name] = histogram
	return histogram
}

// IncCounter increments a counter
func (m *Metrics) IncCounter(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// AddCounter adds a value to a counter
func (m *Metrics) AddCounter(counter *int64, value int64) {
	atomic.AddInt64(counter, value)
}

// SetGauge sets a gauge value
func (m *Metrics) SetGauge(gauge *float64, value float64) {
	// Use atomic operations for float64 (requires some conversion)
	atomic.StoreUint64((*uint64)(unsafe.Pointer(gauge)), *(*uint64)(unsafe.Pointer(&value)))
}

// GetGauge gets a gauge value
func (m *Metrics) GetGauge(gauge *float64) float64 {
	bits := atomic.LoadUint64((*uint64)(unsafe.Pointer(gauge)))
	return *(*float64)(unsafe.Pointer(&bits))
}

// Observe adds a value to a histogram
func (h *Histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += value

	// Define bucket boundaries (exponential buckets)
	buckets := []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

	for _, bucket := range buckets {
		if value <= bucket {
			h.buckets[bucket]++
		}
	}
}

// GetStats returns histogram statistics
func (h *Histogram) GetStats() (count int64, sum float64, buckets map[float64]int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	bucketsCopy := make(map[float64]int64)
	for k, v := range h.buckets {
		bucketsCopy[k] = v
	}

	return h.count, h.sum, bucketsCopy
}

// Stop stops a timer and records the duration
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.startTime)
	t.histogram.Observe(float64(duration.Milliseconds()))
	return duration
}

// StartRequestTimer starts a timer for a recommend() call
func (m *Metrics) StartRequestTimer() *Timer {
	m.IncCounter(m.RequestsTotal)
	m.IncCounter(m.RequestsInFlight)
	return &Timer{
		histogram: m.RequestDuration,
		startTime: time.Now(),
	}
}

// FinishRequestTimer finishes a request timer
func (m *Metrics) FinishRequestTimer(timer *Timer) {
	timer.Stop()
	atomic.AddInt64(m.RequestsInFlight, -1)
}

// RecordEmbeddingCall records a single call to the embedding provider.
func (m *Metrics) RecordEmbeddingCall(err error) {
	m.IncCounter(m.EmbeddingCallsTotal)
	if err != nil {
		m.IncCounter(m.EmbeddingCallErrors)
	}
}

// stageHistogram returns (creating if necessary) the duration histogram and
// in/out candidate-count gauges for a named pipeline stage.
func (m *Metrics) stageHistogram(stage string) (*Histogram, *float64, *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.stageDurations[stage]
	if !ok {
		h = &Histogram{buckets: make(map[float64]int64)}
		m.stageDurations[stage] = h
	}
	in, ok := m.stageInCount[stage]
	if !ok {
		in = new(float64)
		m.stageInCount[stage] = in
	}
	out, ok := m.stageOutCount[stage]
	if !ok {
		out = new(float64)
		m.stageOutCount[stage] = out
	}
	return h, in, out
}

// RecordStage records one pass of a named pipeline stage (feature,
// querygen, embedding, filter, scoring):
// how many candidates it received, how many it passed on, and how long it
// took. This is the data the MCP pipeline_stats resource surfaces.
func (m *Metrics) RecordStage(stage string, inCount, outCount int, duration time.Duration) {
	h, in, out := m.stageHistogram(stage)
	h.Observe(float64(duration.Milliseconds()))
	m.SetGauge(in, float64(inCount))
	m.SetGauge(out, float64(outCount))

	m.logger.LogPipelineStage(stage, inCount, outCount, duration)
}

// StageSummary is one pipeline stage's aggregated stats, as surfaced by the
// pipeline_stats MCP resource.
type StageSummary struct {
	Stage          string  `json:"stage"`
	CallCount      int64   `json:"call_count"`
	AvgDurationMs  float64 `json:"avg_duration_ms"`
	LastInCount    int     `json:"last_in_count"`
	LastOutCount   int     `json:"last_out_count"`
}

// collectSystemMetrics collects system-level metrics
func (m *Metrics) collectSystemMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		m.SetGauge(m.MemoryUsage, float64(memStats.Alloc))
		m.SetGauge(m.GoroutineCount, float64(runtime.NumGoroutine()))
	}
}

// periodicReport periodically reports metrics
func (m *Metrics) periodicReport() {
	if m.reportInterval == 0 {
		return // Reporting disabled
	}

	ticker := time.NewTicker(m.reportInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.ReportMetrics()
	}
}

// ReportMetrics reports all current metrics
func (m *Metrics) ReportMetrics() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()

	// Report counters
	for name, counter := range m.counters {
		value := atomic.LoadInt64(counter)
		m.logger.LogPerformanceMetric(name, float64(value), "count", map[string]string{
			"type": "counter",
		})
	}

	// Report gauges
	for name, gauge := range m.gauges {
		value := m.GetGauge(gauge)
		m.logger.LogPerformanceMetric(name, value, "value", map[string]string{
			"type": "gauge",
		})
	}

	// Report per-stage histograms
	for stage, histogram := range m.stageDurations {
		count, sum, _ := histogram.GetStats()
		if count == 0 {
			continue
		}
		avg := sum / float64(count)
		m.logger.LogPerformanceMetric(fmt.Sprintf("stage_%s_avg_ms", stage), avg, "ms", map[string]string{
			"type":  "histogram",
			"stage": stage,
		})
	}

	m.lastReportTime = now
}

// GetSummary returns the full pipeline_stats snapshot: recommend() call
// counts and durations, embedding-provider reachability stats, and one
// StageSummary per pipeline stage that has reported at least once.
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := make(map[string]interface{})

	summary["uptime_seconds"] = time.Since(m.startTime).Seconds()
	summary["last_report"] = m.lastReportTime.Format(time.RFC3339)

	summary["requests_total"] = atomic.LoadInt64(m.RequestsTotal)
	summary["requests_in_flight"] = atomic.LoadInt64(m.RequestsInFlight)
	summary["embedding_calls_total"] = atomic.LoadInt64(m.EmbeddingCallsTotal)
	summary["embedding_call_errors_total"] = atomic.LoadInt64(m.EmbeddingCallErrors)
	summary["memory_usage_bytes"] = m.GetGauge(m.MemoryUsage)
	summary["goroutine_count"] = m.GetGauge(m.GoroutineCount)

	if count, sum, _ := m.RequestDuration.GetStats(); count > 0 {
		summary["avg_request_duration_ms"] = sum / float64(count)
	}

	stages := make([]StageSummary, 0, len(m.stageDurations))
	for stage, histogram := range m.stageDurations {
		count, sum, _ := histogram.GetStats()
		avg := 0.0
		if count > 0 {
			avg = sum / float64(count)
		}
		stages = append(stages, StageSummary{
			Stage:         stage,
			CallCount:     count,
			AvgDurationMs: avg,
			LastInCount:   int(m.GetGauge(m.stageInCount[stage])),
			LastOutCount:  int(m.GetGauge(m.stageOutCount[stage])),
		})
	}
	summary["stages"] = stages

	return summary
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, counter := range m.counters {
		atomic.StoreInt64(counter, 0)
	}

	for _, gauge := range m.gauges {
		m.SetGauge(gauge, 0)
	}

	for _, histogram := range m.histograms {
		histogram.mu.Lock()
		histogram.count = 0
		histogram.sum = 0
		histogram.buckets = make(map[float64]int64)
		histogram.mu.Unlock()
	}

	for stage, histogram := range m.stageDurations {
		histogram.mu.Lock()
		histogram.count = 0
		histogram.sum = 0
		histogram.buckets = make(map[float64]int64)
		histogram.mu.Unlock()
		m.SetGauge(m.stageInCount[stage], 0)
		m.SetGauge(m.stageOutCount[stage], 0)
	}
}

// RequestContext holds request-specific metrics context
type RequestContext struct {
	RequestID string
	Method    string
	StartTime time.Time
	Metrics   *Metrics
}

// NewRequestContext creates a new request context
func NewRequestContext(requestID, method string, metrics *Metrics) *RequestContext {
	return &RequestContext{
		RequestID: requestID,
		Method:    method,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

// Finish completes the request context and records metrics
func (rc *RequestContext) Finish(err error) {
	duration := time.Since(rc.StartTime)

	rc.Metrics.RequestDuration.Observe(float64(duration.Milliseconds()))

	tags := map[string]string{
		"method":     rc.Method,
		"request_id": rc.RequestID,
	}

	if err != nil {
		tags["status"] = "error"
	} else {
		tags["status"] = "success"
	}

	rc.Metrics.logger.LogPerformanceMetric(
		"request_duration",
		float64(duration.Milliseconds()),
		"ms",
		tags,
	)
}
