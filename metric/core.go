package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the recorder's core metrics (not component-specific)
type Metrics struct {
	// Stream lifecycle metrics
	StreamsActive     prometheus.Gauge
	StreamsDiscovered prometheus.Counter
	StreamsLost       prometheus.Counter
	InletOpenFailures prometheus.Counter

	// Recording metrics
	RecordingActive   prometheus.Gauge
	SamplesDrained    *prometheus.CounterVec
	RowsWritten       *prometheus.CounterVec
	WriteErrors       prometheus.Counter
	SessionsStarted   prometheus.Counter
	ReconcileDuration prometheus.Histogram
	DrainBatchSize    prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all core metrics
func NewMetrics() *Metrics {
	return &Metrics{
		StreamsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lsl2logs",
				Subsystem: "streams",
				Name:      "active",
				Help:      "Number of streams currently held in the registry",
			},
		),

		StreamsDiscovered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lsl2logs",
				Subsystem: "streams",
				Name:      "discovered_total",
				Help:      "Total number of streams added to the registry",
			},
		),

		StreamsLost: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lsl2logs",
				Subsystem: "streams",
				Name:      "lost_total",
				Help:      "Total number of streams removed from the registry",
			},
		),

		InletOpenFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lsl2logs",
				Subsystem: "streams",
				Name:      "inlet_open_failures_total",
				Help:      "Total number of failed inlet subscriptions",
			},
		),

		RecordingActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lsl2logs",
				Subsystem: "recorder",
				Name:      "recording",
				Help:      "Recording state (0=idle, 1=recording)",
			},
		),

		SamplesDrained: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lsl2logs",
				Subsystem: "recorder",
				Name:      "samples_drained_total",
				Help:      "Total number of samples drained, by stream type",
			},
			[]string{"type"},
		),

		RowsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lsl2logs",
				Subsystem: "recorder",
				Name:      "rows_written_total",
				Help:      "Total number of CSV rows written, by file kind",
			},
			[]string{"file"},
		),

		WriteErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lsl2logs",
				Subsystem: "recorder",
				Name:      "write_errors_total",
				Help:      "Total number of CSV write errors",
			},
		),

		SessionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lsl2logs",
				Subsystem: "recorder",
				Name:      "sessions_started_total",
				Help:      "Total number of recording sessions started",
			},
		),

		ReconcileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "lsl2logs",
				Subsystem: "recorder",
				Name:      "reconcile_duration_seconds",
				Help:      "Duration of one reconciliation pass",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),

		DrainBatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "lsl2logs",
				Subsystem: "recorder",
				Name:      "drain_batch_size",
				Help:      "Samples drained from one stream in one pass",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
			},
		),
	}
}

// RecordStreamAdded updates stream counters after a registry insertion
func (m *Metrics) RecordStreamAdded(active int) {
	m.StreamsDiscovered.Inc()
	m.StreamsActive.Set(float64(active))
}

// RecordStreamRemoved updates stream counters after a registry removal
func (m *Metrics) RecordStreamRemoved(active int) {
	m.StreamsLost.Inc()
	m.StreamsActive.Set(float64(active))
}

// RecordInletOpenFailure increments the inlet subscription failure counter
func (m *Metrics) RecordInletOpenFailure() {
	m.InletOpenFailures.Inc()
}

// RecordRecordingState updates the recording gauge
func (m *Metrics) RecordRecordingState(recording bool) {
	value := 0.0
	if recording {
		value = 1.0
	}
	m.RecordingActive.Set(value)
}

// RecordSampleDrained increments the drained sample counter for a stream type
func (m *Metrics) RecordSampleDrained(streamType string) {
	m.SamplesDrained.WithLabelValues(streamType).Inc()
}

// RecordRowWritten increments the row counter for a file kind ("data" or "metadata")
func (m *Metrics) RecordRowWritten(file string) {
	m.RowsWritten.WithLabelValues(file).Inc()
}

// RecordWriteError increments the CSV write error counter
func (m *Metrics) RecordWriteError() {
	m.WriteErrors.Inc()
}

// RecordSessionStarted increments the session counter
func (m *Metrics) RecordSessionStarted() {
	m.SessionsStarted.Inc()
}

// RecordReconcileDuration records the duration of one reconciliation pass
func (m *Metrics) RecordReconcileDuration(d time.Duration) {
	m.ReconcileDuration.Observe(d.Seconds())
}

// RecordDrainBatch records how many samples one stream yielded in one pass
func (m *Metrics) RecordDrainBatch(count int) {
	m.DrainBatchSize.Observe(float64(count))
}
