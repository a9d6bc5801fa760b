package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	require.NotNil(t, registry)
	require.NotNil(t, registry.PrometheusRegistry())
	require.NotNil(t, registry.CoreMetrics())

	// Core metrics must be gatherable without error
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRegistry_RegisterCounter(t *testing.T) {
	registry := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lsl2logs",
		Subsystem: "test",
		Name:      "events_total",
		Help:      "test counter",
	})

	err := registry.RegisterCounter("natsbridge", "events", counter)
	require.NoError(t, err)

	// Same key again is rejected
	err = registry.RegisterCounter("natsbridge", "events", counter)
	assert.Error(t, err)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lsl2logs",
		Subsystem: "test",
		Name:      "depth",
		Help:      "test gauge",
	})

	require.NoError(t, registry.RegisterGauge("bridge", "depth", gauge))
	assert.True(t, registry.Unregister("bridge", "depth"))
	assert.False(t, registry.Unregister("bridge", "depth"))

	// Re-registration after unregister is allowed
	require.NoError(t, registry.RegisterGauge("bridge", "depth", gauge))
}

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics()

	m.RecordStreamAdded(1)
	m.RecordStreamAdded(2)
	m.RecordStreamRemoved(1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StreamsDiscovered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsLost))

	m.RecordRecordingState(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordingActive))
	m.RecordRecordingState(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RecordingActive))

	m.RecordSampleDrained("EEG")
	m.RecordSampleDrained("EEG")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SamplesDrained.WithLabelValues("EEG")))

	m.RecordRowWritten("data")
	m.RecordRowWritten("metadata")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsWritten.WithLabelValues("data")))

	m.RecordWriteError()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteErrors))

	m.RecordSessionStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStarted))

	// Histograms just need to accept observations
	m.RecordReconcileDuration(2 * time.Millisecond)
	m.RecordDrainBatch(7)
	m.RecordInletOpenFailure()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InletOpenFailures))
}
