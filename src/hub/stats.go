package hub

import (
	"sort"

	"github.com/contentpulse/streamgate/src/types"
)

// Stats returns a read-only snapshot of all live sessions and their
// running streams. It never mutates session state.
func (h *Hub) Stats() types.StatsSnapshot {
	sessions := h.snapshot()

	snap := types.StatsSnapshot{
		Sessions:   len(sessions),
		PerSession: make([]types.SessionSummary, 0, len(sessions)),
	}
	for _, s := range sessions {
		summary := s.Summary()
		snap.ActiveStreams += summary.ActiveStreams
		snap.PerSession = append(snap.PerSession, summary)
	}
	sort.Slice(snap.PerSession, func(i, j int) bool {
		return snap.PerSession[i].ID < snap.PerSession[j].ID
	})
	return snap
}

// SessionCount returns the number of registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
