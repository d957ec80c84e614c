package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/contentpulse/streamgate/src/hub"
	"github.com/contentpulse/streamgate/src/types"
)

// Service is the streaming gateway facade exposed to the REST layer.
type Service struct {
	hub    *hub.Hub
	logger zerolog.Logger
}

// New creates a service backed by the given hub.
func New(h *hub.Hub, logger zerolog.Logger) *Service {
	return &Service{hub: h, logger: logger}
}

// Hub returns the underlying hub.
func (s *Service) Hub() *hub.Hub { return s.hub }

// Stats returns the current session and stream counts with per-session
// summaries, for the monitoring endpoint.
func (s *Service) Stats() types.StatsSnapshot {
	return s.hub.Stats()
}

// Broadcast sends a server-initiated notification to every session.
func (s *Service) Broadcast(msgType string, data any) {
	s.hub.Broadcast(types.Envelope{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}, nil)
	s.logger.Debug().Str("type", msgType).Msg("broadcast queued")
}

// BroadcastToUser sends a notification to every session bound to userID.
func (s *Service) BroadcastToUser(userID, msgType string, data any) {
	s.hub.Broadcast(types.Envelope{
		Type:      msgType,
		UserID:    userID,
		Data:      data,
		Timestamp: time.Now(),
	}, func(summary types.SessionSummary) bool {
		return summary.UserID == userID
	})
	s.logger.Debug().Str("type", msgType).Str("user_id", userID).Msg("user broadcast queued")
}
