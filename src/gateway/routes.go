package gateway

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers the REST-facing routes via Fiber. The actual
// WebSocket upgrade uses FastHTTPHandler, registered at the app level
// since Fiber v3 does not expose *fasthttp.RequestCtx.
func (g *Gateway) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/info", g.handleInfo)
	router.Get("/ws/stats", g.handleStats)
	router.Post("/ws/broadcast", g.handleBroadcast)
}

func (g *Gateway) handleInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"websocket": true,
		"endpoint":  "/ws",
		"sessions":  g.hub.SessionCount(),
	})
}

// handleStats exposes the stats snapshot for monitoring.
func (g *Gateway) handleStats(c fiber.Ctx) error {
	return c.JSON(g.svc.Stats())
}

type broadcastRequest struct {
	Type   string `json:"type"`
	Data   any    `json:"data"`
	UserID string `json:"userId"`
}

// handleBroadcast queues a server-initiated notification, optionally
// restricted to one user's sessions.
func (g *Gateway) handleBroadcast(c fiber.Ctx) error {
	var req broadcastRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type is required"})
	}

	if req.UserID != "" {
		g.svc.BroadcastToUser(req.UserID, req.Type, req.Data)
	} else {
		g.svc.Broadcast(req.Type, req.Data)
	}
	return c.JSON(fiber.Map{"queued": true})
}
