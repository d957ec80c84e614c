package generate

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Fallback is a deterministic local chunk producer used when no adapter is
// registered for a stream type or a registered adapter fails. It plays a
// fixed milestone script for the variant at a constant per-variant delay,
// so the protocol always reaches a terminal chunk.
type Fallback struct {
	delays       map[string]time.Duration
	defaultDelay time.Duration
}

var fallbackScripts = map[string][]string{
	TypeScriptGeneration: {
		"Drafting an opening hook about %s",
		"Outlining the main story beats",
		"Writing the body sections",
		"Tightening pacing and narration",
		"Polishing the closing call to action",
	},
	TypeContentAnalysis: {
		"Collecting recent content about %s",
		"Scoring engagement signals",
		"Summarizing findings",
	},
	TypeTrendMonitoring: {
		"Watching conversations around %s",
		"Ranking rising topics",
		"Compiling the trend report",
	},
}

var genericScript = []string{
	"Starting work on %s",
	"Building results",
	"Finalizing output",
}

// DefaultDelays returns the reference per-variant chunk delays.
func DefaultDelays() map[string]time.Duration {
	return map[string]time.Duration{
		TypeScriptGeneration: 250 * time.Millisecond,
		TypeContentAnalysis:  time.Second,
		TypeTrendMonitoring:  2 * time.Second,
	}
}

// NewFallback creates a fallback generator with the given per-variant
// delays. Variants without an entry use defaultDelay.
func NewFallback(delays map[string]time.Duration, defaultDelay time.Duration) *Fallback {
	if delays == nil {
		delays = DefaultDelays()
	}
	if defaultDelay <= 0 {
		defaultDelay = time.Second
	}
	return &Fallback{delays: delays, defaultDelay: defaultDelay}
}

// Run produces the milestone sequence for streamType about topic. The
// channel is closed after the terminal chunk or once ctx is cancelled.
func (f *Fallback) Run(ctx context.Context, streamType, topic string) <-chan Chunk {
	script, ok := fallbackScripts[streamType]
	if !ok {
		script = genericScript
	}
	delay, ok := f.delays[streamType]
	if !ok {
		delay = f.defaultDelay
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		n := len(script)
		for i, line := range script {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			text := line
			if i == 0 {
				text = fmt.Sprintf(line, topic)
			}
			chunk := Chunk{
				Data:     text,
				Progress: int(math.Round(100 * float64(i+1) / float64(n))),
				Done:     i == n-1,
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
