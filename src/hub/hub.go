package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/contentpulse/streamgate/src/generate"
	"github.com/contentpulse/streamgate/src/metrics"
	"github.com/contentpulse/streamgate/src/types"
)

var errSessionClosed = errors.New("session closed")

// MessageBridge publishes broadcast envelopes to other server instances.
// Defined here to avoid circular imports with the bridge package.
type MessageBridge interface {
	Publish(env types.Envelope) error
	Available() bool
}

// Options tune hub behavior. Zero values fall back to defaults.
type Options struct {
	SendQueueSize     int
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = 256
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 30 * time.Second
	}
	if o.HeartbeatTimeout <= 0 {
		o.HeartbeatTimeout = 60 * time.Second
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Hub owns the set of live sessions and multiplexes generation streams
// over them. It is the single source of truth for session state.
type Hub struct {
	adapters *generate.Registry
	fallback *generate.Fallback
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	opts     Options

	broadcast chan broadcastMsg
	localCast chan broadcastMsg // envelopes from the bridge, no re-publish
	done      chan struct{}

	mu       sync.RWMutex
	sessions map[string]*Session
	bridge   MessageBridge
	stopOnce sync.Once
}

type broadcastMsg struct {
	env    types.Envelope
	filter types.BroadcastFilter
}

// New creates a hub. Call Run and RunSupervisor in goroutines to start it.
func New(adapters *generate.Registry, fallback *generate.Fallback, m *metrics.Metrics, logger zerolog.Logger, opts Options) *Hub {
	return &Hub{
		adapters:  adapters,
		fallback:  fallback,
		metrics:   m,
		logger:    logger.With().Str("component", "hub").Logger(),
		opts:      opts.withDefaults(),
		broadcast: make(chan broadcastMsg, 256),
		localCast: make(chan broadcastMsg, 256),
		done:      make(chan struct{}),
		sessions:  make(map[string]*Session),
	}
}

func (h *Hub) now() time.Time { return h.opts.Clock() }

// SetBridge attaches a cross-instance broadcast bridge.
func (h *Hub) SetBridge(b MessageBridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridge = b
}

// Run starts the broadcast fan-out loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case bm := <-h.broadcast:
			h.publishToBridge(bm)
			h.fanOut(bm)
		case bm := <-h.localCast:
			h.fanOut(bm)
		case <-h.done:
			return
		}
	}
}

// Stop closes every session with a normal close code and halts the hub
// and its supervisor.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		for _, s := range h.snapshot() {
			h.teardown(s, types.CloseNormal, "server shutting down")
		}
		close(h.done)
	})
}

// CreateSession constructs a session, registers it, and returns it. The
// caller owns starting the pumps and sending connection_established first.
func (h *Hub) CreateSession(id, userID string, conn types.Conn) *Session {
	s := newSession(id, userID, conn, h)

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	h.metrics.ActiveSessions.Inc()
	h.logger.Info().Str("session_id", s.ID).Str("user_id", s.UserID).Msg("session registered")
	return s
}

// Session returns a live session by id, or nil.
func (h *Hub) Session(id string) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// teardown runs the closing sequence exactly once per session: cancel all
// streams, remove from the registry, close the connection.
func (h *Hub) teardown(s *Session, code int, reason string) {
	first := s.beginClose()
	if first {
		if n := s.clearStreams(); n > 0 {
			h.metrics.ActiveStreams.Sub(float64(n))
		}
	}

	// Registry removal runs even when close already began elsewhere, so a
	// lingering dead session always leaves the map.
	h.mu.Lock()
	_, registered := h.sessions[s.ID]
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	if registered {
		h.metrics.ActiveSessions.Dec()
	}

	if !first {
		return
	}
	if err := s.conn.CloseWithCode(code, reason); err != nil {
		s.logger.Debug().Err(err).Msg("close failed")
	}
	s.logger.Info().Int("code", code).Str("reason", reason).Msg("session closed")
}

// snapshot copies the session list so callers can iterate without holding
// the registry lock.
func (h *Hub) snapshot() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}
