package hub

import (
	"time"

	"github.com/contentpulse/streamgate/src/types"
)

// Eviction reasons recorded on the eviction counter.
const (
	evictSocketNotOpen = "socket_not_open"
	evictTimeout       = "timeout"
	evictPingFailed    = "ping_failed"
)

// RunSupervisor sweeps all sessions on the heartbeat interval, probing
// liveness and evicting dead or silent connections. Call in a goroutine;
// it exits when the hub stops.
func (h *Hub) RunSupervisor() {
	ticker := time.NewTicker(h.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Sweep()
		case <-h.done:
			return
		}
	}
}

// Sweep runs one supervisor pass over every registered session.
func (h *Hub) Sweep() {
	now := h.now()
	for _, s := range h.snapshot() {
		h.sweepSession(s, now)
	}
}

func (h *Hub) sweepSession(s *Session, now time.Time) {
	// A session that already began closing but lingers in the registry has
	// a dead socket; finish the teardown.
	if s.Closed() {
		h.evict(s, types.CloseNormal, "socket not open", evictSocketNotOpen)
		return
	}

	// Stale check independent of the probe cycle, guarding against lost
	// pong delivery.
	if now.Sub(s.LastHeartbeat()) > h.opts.HeartbeatTimeout {
		h.evict(s, types.CloseNormal, "connection timeout", evictTimeout)
		return
	}

	// No pong since the previous probe: the connection is gone.
	if !s.Alive() {
		h.evict(s, types.CloseNormal, "connection timeout", evictTimeout)
		return
	}

	// Probe. The pong handler resets the flag before the next sweep.
	s.expectPong()
	if err := s.Ping(); err != nil {
		h.evict(s, types.CloseInternalError, "ping failed", evictPingFailed)
	}
}

func (h *Hub) evict(s *Session, code int, reason, label string) {
	h.metrics.Evictions.WithLabelValues(label).Inc()
	s.logger.Warn().Str("reason", reason).Msg("evicting session")
	h.teardown(s, code, reason)
}
