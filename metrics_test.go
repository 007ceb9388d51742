package xhr

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.Observe(OutcomeSuccess, 2*time.Millisecond)
	m.Observe(OutcomeSuccess, 4*time.Millisecond)
	m.Observe(OutcomeError, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeStatus)))

	snap := m.Snapshot()
	assert.EqualValues(t, 3, snap.Count)
	assert.InDelta(t, float64(time.Millisecond), float64(snap.Min), float64(10*time.Microsecond))
	assert.InDelta(t, float64(4*time.Millisecond), float64(snap.Max), float64(10*time.Microsecond))
	assert.True(t, snap.Min <= snap.P50 && snap.P50 <= snap.P99 && snap.P99 <= snap.Max)
}

func TestMetricsReuseRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	m1, err := NewMetrics(reg)
	require.NoError(t, err)
	m2, err := NewMetrics(reg)
	require.NoError(t, err)

	m1.Observe(OutcomeStatus, time.Millisecond)
	m2.Observe(OutcomeStatus, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m1.requests.WithLabelValues(OutcomeStatus)))

	n, err := testutil.GatherAndCount(reg, "xhr_requests_total", "xhr_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetricsNil(t *testing.T) {
	var m *Metrics
	m.Observe(OutcomeSuccess, time.Second)
	assert.Equal(t, LatencySnapshot{}, m.Snapshot())

	m, err := NewMetrics(nil)
	require.NoError(t, err)
	m.Observe(OutcomeSuccess, time.Second)
	assert.EqualValues(t, 1, m.Snapshot().Count)
}
