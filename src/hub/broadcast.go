package hub

import (
	"github.com/contentpulse/streamgate/src/types"
)

// Broadcast queues an envelope for delivery to every session the filter
// accepts. A nil filter matches all sessions. Delivery is best-effort:
// attempted only while the session's channel is open.
func (h *Hub) Broadcast(env types.Envelope, filter types.BroadcastFilter) {
	h.broadcast <- broadcastMsg{env: env, filter: filter}
}

// BroadcastToLocal delivers an envelope from the bridge to local sessions
// only. It does not re-publish, preventing infinite relay loops.
func (h *Hub) BroadcastToLocal(env types.Envelope) {
	h.localCast <- broadcastMsg{env: env}
}

func (h *Hub) fanOut(bm broadcastMsg) {
	h.metrics.Broadcasts.Inc()
	for _, s := range h.snapshot() {
		if bm.filter != nil && !bm.filter(s.Summary()) {
			continue
		}
		s.Send(bm.env)
	}
}

// publishToBridge relays an envelope to peer instances. Filtered
// broadcasts stay local: a filter function cannot cross the wire.
func (h *Hub) publishToBridge(bm broadcastMsg) {
	if bm.filter != nil {
		return
	}
	h.mu.RLock()
	b := h.bridge
	h.mu.RUnlock()

	if b == nil || !b.Available() {
		return
	}
	if err := b.Publish(bm.env); err != nil {
		h.logger.Error().Err(err).Msg("bridge publish failed")
	}
}
