package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/contentpulse/streamgate/config"
	"github.com/contentpulse/streamgate/src/auth"
	"github.com/contentpulse/streamgate/src/hub"
	"github.com/contentpulse/streamgate/src/service"
	"github.com/contentpulse/streamgate/src/types"
)

// Gateway performs the WebSocket handshake: extract token, verify, create
// session, send the connection_established ack, then run the pumps.
type Gateway struct {
	hub      *hub.Hub
	svc      *service.Service
	verifier auth.Verifier
	cfg      config.SocketConfig
	logger   zerolog.Logger
	upgrader websocket.FastHTTPUpgrader
}

// New creates a gateway.
func New(h *hub.Hub, svc *service.Service, verifier auth.Verifier, cfg config.SocketConfig, logger zerolog.Logger) *Gateway {
	return &Gateway{
		hub:      h,
		svc:      svc,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger.With().Str("component", "gateway").Logger(),
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
		},
	}
}

// FastHTTPHandler returns a raw fasthttp handler for WebSocket upgrades.
// Register this on the fasthttp server at the "/ws" path.
func (g *Gateway) FastHTTPHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}

		if g.cfg.MaxConnections > 0 && g.hub.SessionCount() >= g.cfg.MaxConnections {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(`{"error":"capacity","message":"connection limit reached"}`)
			return
		}

		token := extractToken(ctx)
		err := g.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			g.Handshake(conn, token)
		})
		if err != nil {
			g.logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}

// Handshake authenticates the freshly upgraded connection and runs the
// session until the connection ends. Unauthenticated connections are
// closed with a policy-violation code and never enter the registry.
func (g *Gateway) Handshake(raw *websocket.Conn, token string) {
	conn := newWSConn(raw, time.Duration(g.cfg.WriteTimeout)*time.Second)

	if token == "" {
		_ = conn.CloseWithCode(types.ClosePolicyViolation, "authentication required")
		return
	}

	identity, err := g.verifier.Verify(context.Background(), token)
	if err != nil || identity == nil {
		if err != nil && err != auth.ErrInvalidToken {
			g.logger.Error().Err(err).Msg("verifier failure")
		}
		_ = conn.CloseWithCode(types.ClosePolicyViolation, "invalid token")
		return
	}

	sessionID := uuid.New().String()
	s := g.hub.CreateSession(sessionID, identity.UserID, conn)

	raw.SetPongHandler(func(string) error {
		s.MarkAlive()
		return nil
	})

	// Enqueued before the write pump starts, so it is always the first
	// outbound frame for the session.
	s.Send(types.Envelope{
		Type:      types.MsgConnectionEstablished,
		SessionID: sessionID,
		UserID:    identity.UserID,
		Timestamp: time.Now(),
	})

	go s.WritePump()
	s.ReadPump()
}

// extractToken pulls the bearer token from the "token" query parameter or
// the Authorization header ("Bearer x" or a raw token).
func extractToken(ctx *fasthttp.RequestCtx) string {
	if token := string(ctx.QueryArgs().Peek("token")); token != "" {
		return token
	}
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return rest
	}
	return header
}
