package types

import "time"

// Inbound message types accepted by the stream multiplexer.
const (
	MsgStartStream = "start_stream"
	MsgStopStream  = "stop_stream"
	MsgHeartbeat   = "heartbeat"
)

// Outbound message types.
const (
	MsgConnectionEstablished = "connection_established"
	MsgStreamStarted         = "stream_started"
	MsgStreamStopped         = "stream_stopped"
	MsgHeartbeatAck          = "heartbeat_ack"
	MsgError                 = "error"
)

// WebSocket close codes used by the gateway and supervisor.
const (
	CloseNormal          = 1000
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

// Envelope is the wire-level unit exchanged in both directions.
// Data frames use the stream type as their Type discriminator and carry
// the same StreamID until the terminal frame.
type Envelope struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"sessionId,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	StreamID   string         `json:"streamId,omitempty"`
	StreamType string         `json:"streamType,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
	Data       any            `json:"data,omitempty"`
	Progress   int            `json:"progress,omitempty"`
	IsComplete bool           `json:"isComplete,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	// Ping sends a liveness probe control frame.
	Ping() error
	// CloseWithCode writes a close frame with the given status code and
	// reason, then closes the connection. Calling it on an already-closed
	// connection is a no-op.
	CloseWithCode(code int, reason string) error
	Close() error
}

// SessionSummary describes one live session for stats reporting.
type SessionSummary struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ActiveStreams int       `json:"active_streams"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// StatsSnapshot is the introspection view exposed to the REST layer.
type StatsSnapshot struct {
	Sessions      int              `json:"sessions"`
	ActiveStreams int              `json:"active_streams"`
	PerSession    []SessionSummary `json:"per_session"`
}

// BroadcastFilter selects which sessions receive a broadcast envelope.
// A nil filter matches every session.
type BroadcastFilter func(summary SessionSummary) bool
