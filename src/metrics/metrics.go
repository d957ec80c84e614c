package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fallback reasons recorded on the fallback counter.
const (
	ReasonUnknownType  = "unknown_type"
	ReasonAdapterError = "adapter_error"
)

// Metrics contains all Prometheus metrics for the streaming gateway.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	ActiveStreams  prometheus.Gauge

	StreamsStarted prometheus.Counter
	StreamsStopped prometheus.Counter
	FallbackRuns   *prometheus.CounterVec
	Evictions      *prometheus.CounterVec
	Broadcasts     prometheus.Counter
	ProtocolErrors prometheus.Counter
}

// New creates and registers all gateway metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "streamgate_sessions_active",
			Help: "Number of live WebSocket sessions",
		}),
		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "streamgate_streams_active",
			Help: "Number of running generation streams across all sessions",
		}),
		StreamsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_streams_started_total",
			Help: "Total number of streams started",
		}),
		StreamsStopped: factory.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_streams_stopped_total",
			Help: "Total number of streams stopped by explicit request",
		}),
		FallbackRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "streamgate_fallback_streams_total",
			Help: "Total number of streams served by the fallback generator",
		}, []string{"reason"}),
		Evictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "streamgate_session_evictions_total",
			Help: "Total number of sessions evicted",
		}, []string{"reason"}),
		Broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_broadcasts_total",
			Help: "Total number of broadcast envelopes fanned out",
		}),
		ProtocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_protocol_errors_total",
			Help: "Total number of error envelopes sent for malformed requests",
		}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
