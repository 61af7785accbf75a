// Package memtrace is a minimal in-memory reference implementation of the
// trace package's interfaces. It is not a reduced trace-archive format:
// it exists only so tests and the CLI demo have something concrete to
// replay, standing in for the external archive reader/writer that this
// module does not implement.
package memtrace

import (
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
)

// EventSpec is the serializable description of one event, used to build a
// Trace with Builder.
type EventSpec struct {
	Kind           trace.Kind
	Timestamp      float64
	Region         trace.Region
	InParallel     bool
	Peer           location.Coordinate
	Tag            int
	Communicator   trace.CommunicatorID
	Root           int
	BytesSent      int64
	BytesReceived  int64
	CollectiveKind trace.CollectiveKind
	LockID         int
	ThreadTeam     int

	// MatchingBeginIndex is the local index (within the same location's
	// stream) of this event's matching begin/enter event, or -1 if none.
	MatchingBeginIndex int
}

type event struct {
	spec EventSpec
	idx  int
	loc  location.Coordinate
	ts   float64
	s    *memStream
}

func (e *event) Index() int                           { return e.idx }
func (e *event) Kind() trace.Kind                      { return e.spec.Kind }
func (e *event) Timestamp() float64                    { return e.ts }
func (e *event) SetTimestamp(t float64)                { e.ts = t }
func (e *event) Location() location.Coordinate         { return e.loc }
func (e *event) Region() trace.Region                  { return e.spec.Region }
func (e *event) InParallelRegion() bool                { return e.spec.InParallel }
func (e *event) Peer() location.Coordinate             { return e.spec.Peer }
func (e *event) Tag() int                              { return e.spec.Tag }
func (e *event) Communicator() trace.CommunicatorID    { return e.spec.Communicator }
func (e *event) Root() int                             { return e.spec.Root }
func (e *event) BytesSent() int64                      { return e.spec.BytesSent }
func (e *event) BytesReceived() int64                  { return e.spec.BytesReceived }
func (e *event) CollectiveKind() trace.CollectiveKind  { return e.spec.CollectiveKind }
func (e *event) LockID() int                           { return e.spec.LockID }
func (e *event) ThreadTeam() int                        { return e.spec.ThreadTeam }

func (e *event) MatchingBegin() trace.Event {
	if e.spec.MatchingBeginIndex < 0 {
		return nil
	}
	return e.s.events[e.spec.MatchingBeginIndex]
}

func (e *event) Prev() trace.Event {
	if e.idx == 0 {
		return nil
	}
	return e.s.events[e.idx-1]
}

func (e *event) Next() trace.Event {
	if e.idx+1 >= len(e.s.events) {
		return nil
	}
	return e.s.events[e.idx+1]
}

type memStream struct {
	loc    location.Coordinate
	events []*event
}

func (s *memStream) Location() location.Coordinate { return s.loc }
func (s *memStream) Len() int                      { return len(s.events) }
func (s *memStream) EventAt(i int) trace.Event      { return s.events[i] }

// Trace is an in-memory multi-location trace: one memStream per location.
type Trace struct {
	locations     []location.Coordinate
	streams       map[location.Coordinate]*memStream
	communicators map[trace.CommunicatorID]trace.Communicator
	world         trace.Communicator
}

func (t *Trace) Locations() []location.Coordinate { return t.locations }

func (t *Trace) Communicator(id trace.CommunicatorID) (trace.Communicator, bool) {
	c, ok := t.communicators[id]
	return c, ok
}

func (t *Trace) WorldCommunicator() trace.Communicator { return t.world }

// Stream returns the event stream recorded for loc, or nil if unknown.
func (t *Trace) Stream(loc location.Coordinate) trace.Stream {
	s, ok := t.streams[loc]
	if !ok {
		return nil
	}
	return s
}

// EventAt is a convenience accessor used by tests to inspect corrected
// timestamps after a synchronize() run.
func (t *Trace) EventAt(loc location.Coordinate, idx int) trace.Event {
	return t.streams[loc].events[idx]
}
