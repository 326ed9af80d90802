// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"validator-bench/internal/service/bench"
)

const namespace = "validator_bench"

// Metrics holds all Prometheus metrics for the benchmark. Values are
// recorded once per run, never per message.
type Metrics struct {
	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunsActive  prometheus.Gauge
	RunDuration prometheus.Histogram

	// Per-library tallies
	MessagesReceived  *prometheus.CounterVec
	MessagesProcessed *prometheus.CounterVec
	RecordsDispatched *prometheus.CounterVec
	ValidationErrors  *prometheus.CounterVec

	// Last-run gauges
	Throughput       *prometheus.GaugeVec
	CPUUserSeconds   *prometheus.GaugeVec
	CPUSystemSeconds *prometheus.GaugeVec
	MemoryUsedBytes  *prometheus.GaugeVec

	// Result publish metrics
	ResultPublishTotal   *prometheus.CounterVec
	ResultPublishErrors  *prometheus.CounterVec
	ResultPublishLatency *prometheus.HistogramVec

	// Bus metrics
	BusErrors *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of benchmark runs by outcome",
		}, []string{"outcome"}),
		RunsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of benchmark runs in progress",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Measured window length of completed runs",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		MessagesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages taken off the bus inside run windows",
		}, []string{"library"}),
		MessagesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Messages that produced at least one dispatch",
		}, []string{"library"}),
		RecordsDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dispatched_total",
			Help:      "Validated records handed to the dispatch callback",
		}, []string{"library"}),
		ValidationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Messages rejected by a validator",
		}, []string{"library"}),

		Throughput: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "messages_per_second",
			Help:      "Throughput of the last completed run",
		}, []string{"library"}),
		CPUUserSeconds: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_user_seconds",
			Help:      "User CPU time consumed by the last completed run",
		}, []string{"library"}),
		CPUSystemSeconds: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_system_seconds",
			Help:      "System CPU time consumed by the last completed run",
		}, []string{"library"}),
		MemoryUsedBytes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_used_bytes",
			Help:      "Heap delta of the last completed run",
		}, []string{"library"}),

		ResultPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_publish_total",
			Help:      "Total number of result events published",
		}, []string{"topic"}),
		ResultPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_publish_errors_total",
			Help:      "Total number of result publish errors",
		}, []string{"topic"}),
		ResultPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "result_publish_latency_seconds",
			Help:      "Result publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		BusErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_errors_total",
			Help:      "Asynchronous bus connection errors",
		}, []string{"driver"}),
	}
}

// RecordRunStart records a run starting.
func (m *Metrics) RecordRunStart() {
	m.RunsActive.Inc()
}

// RecordRunResult records a completed run.
func (m *Metrics) RecordRunResult(r bench.Result) {
	m.RunsActive.Dec()
	m.RunsTotal.WithLabelValues("success").Inc()
	m.RunDuration.Observe(r.ElapsedSeconds)

	m.MessagesReceived.WithLabelValues(r.Library).Add(float64(r.MessagesReceived))
	m.MessagesProcessed.WithLabelValues(r.Library).Add(float64(r.MessagesProcessed))
	m.RecordsDispatched.WithLabelValues(r.Library).Add(float64(r.RecordsDispatched))
	m.ValidationErrors.WithLabelValues(r.Library).Add(float64(r.ValidationErrors))

	m.Throughput.WithLabelValues(r.Library).Set(r.MessagesPerSecond)
	m.CPUUserSeconds.WithLabelValues(r.Library).Set(r.CPUUserMs / 1000)
	m.CPUSystemSeconds.WithLabelValues(r.Library).Set(r.CPUSystemMs / 1000)
	m.MemoryUsedBytes.WithLabelValues(r.Library).Set(float64(r.MemoryUsed))
}

// RecordRunFailed records a run that aborted the benchmark.
func (m *Metrics) RecordRunFailed() {
	m.RunsActive.Dec()
	m.RunsTotal.WithLabelValues("failed").Inc()
}

// RecordResultPublish records a result publish attempt.
func (m *Metrics) RecordResultPublish(topic string, err error, latencySeconds float64) {
	m.ResultPublishTotal.WithLabelValues(topic).Inc()
	m.ResultPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.ResultPublishErrors.WithLabelValues(topic).Inc()
	}
}

// RecordBusError records an asynchronous bus error.
func (m *Metrics) RecordBusError(driver string) {
	m.BusErrors.WithLabelValues(driver).Inc()
}
