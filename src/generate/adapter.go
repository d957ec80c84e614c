package generate

import (
	"context"
	"sync"
)

// Known stream variants with a dedicated adapter slot.
const (
	TypeScriptGeneration = "script_generation"
	TypeContentAnalysis  = "content_analysis"
	TypeTrendMonitoring  = "trend_monitoring"
)

// Chunk is one unit of generated content. Done marks the terminal chunk;
// Err signals adapter failure mid-stream.
type Chunk struct {
	Data     any
	Progress int
	Done     bool
	Err      error
}

// Adapter produces content for one stream variant as a lazy channel of
// chunks. The returned channel must be closed after the terminal chunk.
// An error return, a chunk with Err set, or a channel closing before a
// Done chunk all count as adapter failure.
type Adapter interface {
	Generate(ctx context.Context, streamID string, config map[string]any) (<-chan Chunk, error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(ctx context.Context, streamID string, config map[string]any) (<-chan Chunk, error)

// Generate implements Adapter.
func (f AdapterFunc) Generate(ctx context.Context, streamID string, config map[string]any) (<-chan Chunk, error) {
	return f(ctx, streamID, config)
}

// Registry maps stream-type tags to adapter implementations. It is
// populated at startup; unregistered tags fall through to the fallback
// generator at dispatch time.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register binds an adapter to a stream-type tag, replacing any previous
// binding.
func (r *Registry) Register(streamType string, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[streamType] = a
}

// Lookup returns the adapter for a stream type, if one is registered.
func (r *Registry) Lookup(streamType string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[streamType]
	return a, ok
}

// Types returns the registered stream-type tags.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for t := range r.adapters {
		out = append(out, t)
	}
	return out
}
