package hub

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/contentpulse/streamgate/src/types"
)

// Session represents one authenticated WebSocket connection and its state.
// The connection is exclusively owned by the session; all outbound frames
// flow through the send queue so the write pump serializes them.
type Session struct {
	ID     string
	UserID string

	conn   types.Conn
	hub    *Hub
	logger zerolog.Logger

	send chan types.Envelope
	done chan struct{}

	mu            sync.RWMutex
	isAlive       bool
	connectedAt   time.Time
	lastHeartbeat time.Time
	activeStreams map[string]bool
	closed        bool
}

func newSession(id, userID string, conn types.Conn, h *Hub) *Session {
	now := h.now()
	return &Session{
		ID:            id,
		UserID:        userID,
		conn:          conn,
		hub:           h,
		logger:        h.logger.With().Str("session_id", id).Str("user_id", userID).Logger(),
		send:          make(chan types.Envelope, h.opts.SendQueueSize),
		done:          make(chan struct{}),
		isAlive:       true,
		connectedAt:   now,
		lastHeartbeat: now,
		activeStreams: make(map[string]bool),
	}
}

// MarkAlive records a liveness signal (pong or heartbeat message).
func (s *Session) MarkAlive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isAlive = true
	s.lastHeartbeat = s.hub.now()
}

// Alive reports whether a liveness signal arrived since the last probe.
func (s *Session) Alive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAlive
}

// LastHeartbeat returns the time of the last observed liveness signal.
func (s *Session) LastHeartbeat() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastHeartbeat
}

// expectPong clears the liveness flag ahead of a probe. A pong must arrive
// before the next sweep or the session is considered dead.
func (s *Session) expectPong() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isAlive = false
}

// AddStream registers a stream id as running within this session.
func (s *Session) AddStream(streamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeStreams[streamID] = true
}

// RemoveStream deletes a stream id and reports whether it was present.
func (s *Session) RemoveStream(streamID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeStreams[streamID] {
		return false
	}
	delete(s.activeStreams, streamID)
	return true
}

// StreamActive reports whether a stream id is still running. Generators
// check this before every chunk emission; absence is the cancellation
// signal.
func (s *Session) StreamActive(streamID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeStreams[streamID]
}

// clearStreams cancels all streams by emptying the set and returns how
// many were running.
func (s *Session) clearStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.activeStreams)
	s.activeStreams = make(map[string]bool)
	return n
}

// StreamCount returns the number of running streams.
func (s *Session) StreamCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activeStreams)
}

// Summary returns the stats view of this session.
func (s *Session) Summary() types.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.SessionSummary{
		ID:            s.ID,
		UserID:        s.UserID,
		ActiveStreams: len(s.activeStreams),
		ConnectedAt:   s.connectedAt,
		LastHeartbeat: s.lastHeartbeat,
	}
}

// Send enqueues an envelope for delivery. It reports false if the session
// is closed or the queue is full; a full queue drops the frame rather than
// blocking the producer.
func (s *Session) Send(env types.Envelope) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- env:
		return true
	default:
		s.logger.Warn().Str("type", env.Type).Msg("send queue full, dropping frame")
		return false
	}
}

// Ping sends a liveness probe control frame.
func (s *Session) Ping() error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return errSessionClosed
	}
	return s.conn.Ping()
}

// beginClose transitions the session into closing exactly once.
func (s *Session) beginClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.done)
	return true
}

// Closed reports whether teardown has begun.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// ReadPump reads envelopes from the connection and dispatches them to the
// multiplexer. It runs on the connection's goroutine, so per-session
// message handling is serialized. A read error tears the session down.
func (s *Session) ReadPump() {
	defer s.hub.teardown(s, types.CloseNormal, "connection closed")

	for {
		var env types.Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			return
		}
		s.hub.handleMessage(s, env)
	}
}

// WritePump drains the send queue onto the connection. A write error tears
// the session down.
func (s *Session) WritePump() {
	for {
		select {
		case env := <-s.send:
			if err := s.conn.WriteJSON(env); err != nil {
				s.hub.teardown(s, types.CloseInternalError, "write failed")
				return
			}
		case <-s.done:
			return
		}
	}
}
