package trace

import (
	"context"

	"github.com/scalasync/clc/location"
)

// Handler processes one event during a replay. It returns the
// clock-update outcome via the shared CallbackData it is given; handlers
// that perform an explicit clock update must call data.SetAmortized() so
// the post-hook does not double-apply an internal amortization.
type Handler func(ctx context.Context, ev Event, data *CallbackData) error

// CallbackMap registers a Handler per event Kind. Kinds with no
// registered handler are treated as internal by the post-hook (spec.md
// §4.4: "every event that the engine does not explicitly handle is
// treated as internal").
type CallbackMap map[Kind]Handler

// CallbackData is the small per-event scratch capsule threaded through
// pre/post hooks during one location's replay, modeled on the
// "amortized by handler" flag from spec.md §4.9.
type CallbackData struct {
	amortized bool
}

// SetAmortized marks that a handler has already applied a clock update to
// the current event, suppressing the post-hook's default internal
// amortization.
func (d *CallbackData) SetAmortized() { d.amortized = true }

// Amortized reports whether SetAmortized was called for the current
// event.
func (d *CallbackData) Amortized() bool { return d.amortized }

// Reset clears the flag ahead of the next event; callable by replay
// engine implementations as the per-event pre-hook.
func (d *CallbackData) Reset() { d.amortized = false }

// Stream is one location's ordered sequence of events, as materialized by
// the (external) trace-archive reader.
type Stream interface {
	Location() location.Coordinate
	Len() int
	EventAt(i int) Event
}

// StreamSource resolves a location to its event Stream. The external
// trace-archive reader implements this; trace/memtrace.Trace does too,
// for tests and the CLI demo.
type StreamSource interface {
	Stream(loc location.Coordinate) Stream
}

// ForwardReplay walks one location's event stream in increasing index
// order, invoking a pre-hook, the registered handler for the event's
// kind (or none), and a post-hook, per event.
type ForwardReplay interface {
	Replay(ctx context.Context, stream Stream, callbacks CallbackMap, post func(Event, *CallbackData)) error
}

// BackwardReplay walks one location's event stream in decreasing index
// order, with the same callback/hook discipline as ForwardReplay.
type BackwardReplay interface {
	ReplayBackward(ctx context.Context, stream Stream, callbacks CallbackMap, post func(Event, *CallbackData)) error
}
