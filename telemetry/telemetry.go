// Package telemetry provides hierarchical timing collection and stage counters.
//
// Collectors travel through context, so instrumentation does not change function
// signatures and costs nothing when disabled.
//
// Example usage:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.StartTimer(ctx, "transform")
//	telemetry.Count(ctx, "postings", len(postings))
//	timer.End()
//
//	collector.Report(os.Stderr, styles)
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/veritas/output"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

var collectorKey = contextKey{}

// Collector collects timings and counters.
type Collector interface {
	// Start begins timing an operation and returns a Timer.
	Start(name string) Timer

	// Count adds delta to the named counter.
	Count(name string, delta int)

	// Report writes the collected data. styles may be nil for plain output.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation's timing.
// Timers support hierarchical nesting via Child().
type Timer interface {
	End()
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext extracts the collector from context.
// If no collector is present, returns a collector that does nothing.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// StartTimer starts a timer on the collector in ctx.
func StartTimer(ctx context.Context, name string) Timer {
	return FromContext(ctx).Start(name)
}

// Count adds delta to a counter on the collector in ctx.
func Count(ctx context.Context, name string, delta int) {
	FromContext(ctx).Count(name, delta)
}
