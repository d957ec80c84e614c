package bridge

import "github.com/contentpulse/streamgate/src/types"

// Bridge defines the interface for cross-instance broadcast relay.
// Implementations carry server-initiated notifications between multiple
// gateway instances so a broadcast reaches sessions on every node.
type Bridge interface {
	// Publish sends an envelope to all other instances via the bridge.
	Publish(env types.Envelope) error

	// Start begins listening for envelopes from other instances.
	Start() error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}

// BroadcastTarget is implemented by the hub to receive envelopes from the
// bridge.
type BroadcastTarget interface {
	BroadcastToLocal(env types.Envelope)
}
