package gateway

import (
	"sync"
	"time"

	"github.com/fasthttp/websocket"
)

// wsConn wraps fasthttp/websocket.Conn to satisfy types.Conn.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

func newWSConn(conn *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{conn: conn, writeTimeout: writeTimeout}
}

func (w *wsConn) WriteJSON(v any) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.conn.WriteJSON(v)
}

func (w *wsConn) ReadJSON(v any) error {
	return w.conn.ReadJSON(v)
}

// Ping sends a ping control frame. WriteControl is safe to call
// concurrently with WriteJSON.
func (w *wsConn) Ping() error {
	deadline := time.Now().Add(w.writeTimeout)
	if w.writeTimeout <= 0 {
		deadline = time.Now().Add(10 * time.Second)
	}
	return w.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

// CloseWithCode writes a close frame with the given status and reason,
// then closes the underlying connection. Repeat calls are no-ops.
func (w *wsConn) CloseWithCode(code int, reason string) error {
	w.closeMu.Lock()
	defer w.closeMu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	msg := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(time.Second)
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	return w.conn.Close()
}

func (w *wsConn) Close() error {
	w.closeMu.Lock()
	defer w.closeMu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.conn.Close()
}
