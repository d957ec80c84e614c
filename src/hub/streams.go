package hub

import (
	"context"
	"fmt"

	"github.com/contentpulse/streamgate/src/generate"
	"github.com/contentpulse/streamgate/src/metrics"
	"github.com/contentpulse/streamgate/src/types"
)

// handleMessage interprets one inbound envelope for a session. It runs on
// the session's read goroutine, so handlers for a given session never run
// concurrently with each other.
func (h *Hub) handleMessage(s *Session, env types.Envelope) {
	switch env.Type {
	case types.MsgStartStream:
		h.startStream(s, env)
	case types.MsgStopStream:
		h.stopStream(s, env.StreamID)
	case types.MsgHeartbeat:
		s.MarkAlive()
		s.Send(types.Envelope{Type: types.MsgHeartbeatAck, Timestamp: h.now()})
	default:
		h.sendError(s, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

// startStream validates the request, registers the stream id, acks with
// stream_started, and launches the generator as its own goroutine so the
// session keeps processing stop_stream and heartbeat messages.
func (h *Hub) startStream(s *Session, env types.Envelope) {
	if env.StreamType == "" {
		h.sendError(s, "start_stream requires a streamType")
		return
	}
	topic := topicFrom(env.Config)
	if topic == "" {
		h.sendError(s, "start_stream config requires a non-empty topic")
		return
	}

	streamID := fmt.Sprintf("%s_%d", env.StreamType, h.now().UnixMilli())
	s.AddStream(streamID)
	h.metrics.StreamsStarted.Inc()
	h.metrics.ActiveStreams.Inc()

	s.Send(types.Envelope{
		Type:       types.MsgStreamStarted,
		StreamID:   streamID,
		StreamType: env.StreamType,
		Timestamp:  h.now(),
	})

	go h.runStream(s, streamID, env.StreamType, topic, env.Config)
}

// stopStream removes the stream id if present. Unknown ids are a silent
// no-op so stop requests are idempotent.
func (h *Hub) stopStream(s *Session, streamID string) {
	if streamID == "" || !s.RemoveStream(streamID) {
		return
	}
	h.metrics.ActiveStreams.Dec()
	h.metrics.StreamsStopped.Inc()
	s.Send(types.Envelope{
		Type:      types.MsgStreamStopped,
		StreamID:  streamID,
		Timestamp: h.now(),
	})
}

// runStream drives one stream to completion. Known stream types go through
// their adapter; unknown types and failed adapters degrade to the fallback
// generator under the same stream id.
func (h *Hub) runStream(s *Session, streamID, streamType, topic string, cfg map[string]any) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter, known := h.adapters.Lookup(streamType)
	if !known {
		h.metrics.FallbackRuns.WithLabelValues(metrics.ReasonUnknownType).Inc()
		h.playFallback(ctx, s, streamID, streamType, topic)
		return
	}

	ch, err := adapter.Generate(ctx, streamID, cfg)
	if err != nil {
		s.logger.Warn().Err(err).Str("stream_id", streamID).Msg("adapter failed to start, degrading to fallback")
		h.metrics.FallbackRuns.WithLabelValues(metrics.ReasonAdapterError).Inc()
		h.playFallback(ctx, s, streamID, streamType, topic)
		return
	}

	if failed := h.pump(s, streamID, streamType, ch); failed {
		if !s.StreamActive(streamID) {
			return
		}
		s.logger.Warn().Str("stream_id", streamID).Msg("adapter failed mid-stream, degrading to fallback")
		h.metrics.FallbackRuns.WithLabelValues(metrics.ReasonAdapterError).Inc()
		h.playFallback(ctx, s, streamID, streamType, topic)
	}
}

// playFallback substitutes the deterministic fallback sequence for a
// stream, honoring stop requests identically to a real adapter.
func (h *Hub) playFallback(ctx context.Context, s *Session, streamID, streamType, topic string) {
	if !s.StreamActive(streamID) {
		return
	}
	h.pump(s, streamID, streamType, h.fallback.Run(ctx, streamType, topic))
}

// pump forwards chunks to the session as data frames, re-checking stream
// membership immediately before each send. Membership removal (explicit
// stop or session teardown) halts the stream silently. It reports whether
// the generator failed before reaching a terminal chunk.
func (h *Hub) pump(s *Session, streamID, streamType string, ch <-chan generate.Chunk) (failed bool) {
	for chunk := range ch {
		if !s.StreamActive(streamID) {
			return false
		}
		if chunk.Err != nil {
			return true
		}

		s.Send(types.Envelope{
			Type:       streamType,
			StreamID:   streamID,
			Data:       chunk.Data,
			Progress:   chunk.Progress,
			IsComplete: chunk.Done,
			Timestamp:  h.now(),
		})

		if chunk.Done {
			if s.RemoveStream(streamID) {
				h.metrics.ActiveStreams.Dec()
			}
			return false
		}
	}
	// Channel closed without a terminal chunk.
	return true
}

func (h *Hub) sendError(s *Session, msg string) {
	h.metrics.ProtocolErrors.Inc()
	s.Send(types.Envelope{Type: types.MsgError, Error: msg, Timestamp: h.now()})
}

// topicFrom extracts the stream subject from config; "topic" is canonical
// and "subject" is accepted as an alias.
func topicFrom(cfg map[string]any) string {
	if cfg == nil {
		return ""
	}
	if topic, ok := cfg["topic"].(string); ok && topic != "" {
		return topic
	}
	if subject, ok := cfg["subject"].(string); ok && subject != "" {
		return subject
	}
	return ""
}
