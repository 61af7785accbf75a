// Package classify implements the collective classifier: a small pure
// function mapping a collective-end event onto the closed set of exchange
// patterns the forward/backward engines dispatch on.
package classify

import "github.com/scalasync/clc/trace"

// Collective returns the exchange pattern for ev, an event of Kind
// KindCollectiveEnd. A self-communicator (size 1) is always classified
// Opaque, matching spec.md's "self-communicators ... must be treated as
// internal events". Callers pass the communicator's size explicitly
// (fetched from trace.Definitions) because Event does not carry it.
func Collective(ev trace.Event, commSize int) trace.CollectiveKind {
	if commSize <= 1 {
		return trace.CollectiveOpaque
	}
	return ev.CollectiveKind()
}
