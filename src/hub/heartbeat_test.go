package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/streamgate/src/generate"
	"github.com/contentpulse/streamgate/src/types"
)

// fakeClock is an adjustable clock for supervisor tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSweepProbesAliveSession(t *testing.T) {
	h := newTestHub(t, nil, Options{})
	s, conn := connectSession(t, h, "s1", "u1")

	h.Sweep()

	assert.Equal(t, 1, conn.pingCount())
	assert.False(t, s.Alive(), "probe should clear the liveness flag")
	assert.Equal(t, 1, h.SessionCount())
}

func TestSweepEvictsSilentSession(t *testing.T) {
	h := newTestHub(t, nil, Options{})
	_, conn := connectSession(t, h, "s1", "u1")

	// First sweep probes; no pong arrives before the second sweep.
	h.Sweep()
	h.Sweep()

	closed, code, reason := conn.closeInfo()
	assert.True(t, closed)
	assert.Equal(t, types.CloseNormal, code)
	assert.Equal(t, "connection timeout", reason)
	assert.Equal(t, 0, h.SessionCount())
	assert.Empty(t, h.Stats().PerSession)
}

func TestSweepKeepsPongingSession(t *testing.T) {
	h := newTestHub(t, nil, Options{})
	s, conn := connectSession(t, h, "s1", "u1")

	for i := 0; i < 3; i++ {
		h.Sweep()
		s.MarkAlive() // simulated pong
	}

	assert.Equal(t, 3, conn.pingCount())
	assert.Equal(t, 1, h.SessionCount())
}

func TestSweepEvictsOnStaleHeartbeat(t *testing.T) {
	clock := newFakeClock()
	h := newTestHub(t, nil, Options{
		HeartbeatInterval: time.Hour,
		HeartbeatTimeout:  60 * time.Second,
		Clock:             clock.Now,
	})
	s, conn := connectSession(t, h, "s1", "u1")

	// The session keeps answering probes but its heartbeat timestamp
	// goes stale past the timeout threshold.
	s.MarkAlive()
	clock.Advance(61 * time.Second)

	h.Sweep()

	closed, code, reason := conn.closeInfo()
	assert.True(t, closed)
	assert.Equal(t, types.CloseNormal, code)
	assert.Equal(t, "connection timeout", reason)
	assert.Equal(t, 0, h.SessionCount())
}

func TestSweepEvictsOnPingFailure(t *testing.T) {
	h := newTestHub(t, nil, Options{})
	_, conn := connectSession(t, h, "s1", "u1")
	conn.setPingErr(errors.New("broken pipe"))

	h.Sweep()

	closed, code, _ := conn.closeInfo()
	assert.True(t, closed)
	assert.Equal(t, types.CloseInternalError, code)
	assert.Equal(t, 0, h.SessionCount())
}

func TestEvictionCancelsRunningStreams(t *testing.T) {
	adapters := generate.NewRegistry()
	adapters.Register("trend_monitoring", chunkAdapter(10*time.Millisecond, textChunks(100, "trend")))
	h := newTestHub(t, adapters, Options{})
	s, conn := connectSession(t, h, "s1", "u1")

	conn.readCh <- types.Envelope{
		Type:       types.MsgStartStream,
		StreamType: "trend_monitoring",
		Config:     map[string]any{"topic": "cats"},
	}
	waitFor(t, time.Second, func() bool {
		return len(framesOfType(conn.getWritten(), types.MsgStreamStarted)) == 1
	})
	require.Equal(t, 1, s.StreamCount())

	conn.setPingErr(errors.New("broken pipe"))
	h.Sweep()

	assert.Equal(t, 0, s.StreamCount())
	assert.Equal(t, 0, h.SessionCount())

	// No frames for the cancelled stream after teardown settles.
	time.Sleep(20 * time.Millisecond)
	before := len(framesOfType(conn.getWritten(), "trend_monitoring"))
	time.Sleep(20 * time.Millisecond)
	after := len(framesOfType(conn.getWritten(), "trend_monitoring"))
	assert.Equal(t, before, after)
	assert.False(t, hasTerminalFrame(conn.getWritten(), "trend_monitoring"))
}

func TestSweepFinishesLingeringClosedSession(t *testing.T) {
	h := newTestHub(t, nil, Options{})
	s, _ := connectSession(t, h, "s1", "u1")

	// Simulate a session whose teardown began but which lingers with a
	// dead socket.
	require.True(t, s.beginClose())

	h.Sweep()
	assert.Equal(t, 0, h.SessionCount())
}
