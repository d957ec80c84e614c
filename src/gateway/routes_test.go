package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/streamgate/config"
	"github.com/contentpulse/streamgate/src/auth"
	"github.com/contentpulse/streamgate/src/generate"
	"github.com/contentpulse/streamgate/src/hub"
	"github.com/contentpulse/streamgate/src/metrics"
	"github.com/contentpulse/streamgate/src/service"
	"github.com/contentpulse/streamgate/src/types"
)

func newTestApp(t *testing.T) (*fiber.App, *hub.Hub) {
	t.Helper()
	h := hub.New(generate.NewRegistry(), generate.NewFallback(nil, time.Millisecond),
		metrics.NewNop(), zerolog.Nop(), hub.Options{})
	go h.Run()
	t.Cleanup(h.Stop)

	svc := service.New(h, zerolog.Nop())
	gw := New(h, svc, auth.NewStaticVerifier(nil), config.Default().Socket, zerolog.Nop())

	app := fiber.New()
	gw.RegisterRoutes(app)
	return app, h
}

func TestInfoRoute(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/info", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["websocket"])
	assert.Equal(t, "/ws", body["endpoint"])
}

func TestStatsRoute(t *testing.T) {
	app, h := newTestApp(t)

	s := h.CreateSession("s1", "alice", nopConn{})
	s.AddStream("script_generation_1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/stats", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap types.StatsSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 1, snap.Sessions)
	assert.Equal(t, 1, snap.ActiveStreams)
	require.Len(t, snap.PerSession, 1)
	assert.Equal(t, "alice", snap.PerSession[0].UserID)
}

func TestBroadcastRoute(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/ws/broadcast",
		strings.NewReader(`{"type":"announcement","data":{"text":"hi"}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBroadcastRouteRequiresType(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/ws/broadcast", strings.NewReader(`{"data":1}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// nopConn satisfies types.Conn for registry-only tests.
type nopConn struct{}

func (nopConn) WriteJSON(any) error             { return nil }
func (nopConn) ReadJSON(any) error              { select {} }
func (nopConn) Ping() error                     { return nil }
func (nopConn) CloseWithCode(int, string) error { return nil }
func (nopConn) Close() error                    { return nil }
