package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ActiveSessions.Inc()
	m.FallbackRuns.WithLabelValues(ReasonUnknownType).Inc()
	m.Evictions.WithLabelValues("timeout").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackRuns.WithLabelValues(ReasonUnknownType)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackRuns.WithLabelValues(ReasonAdapterError)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewNopIsIsolated(t *testing.T) {
	// Two instances must not collide on metric registration.
	a := NewNop()
	b := NewNop()
	a.StreamsStarted.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.StreamsStarted))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.StreamsStarted))
}
