package memtrace

import (
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
)

// Builder assembles a Trace from per-location event specs. It is a
// test/demo helper only, not a general-purpose trace format.
type Builder struct {
	t *Trace
}

// NewBuilder returns a Builder with no locations yet defined.
func NewBuilder() *Builder {
	return &Builder{
		t: &Trace{
			streams:       make(map[location.Coordinate]*memStream),
			communicators: make(map[trace.CommunicatorID]trace.Communicator),
		},
	}
}

// AddLocation registers loc and its ordered event specs. Each spec's
// MatchingBeginIndex, if non-negative, must refer to an earlier index in
// the same call's specs slice.
func (b *Builder) AddLocation(loc location.Coordinate, specs []EventSpec) *Builder {
	b.t.locations = append(b.t.locations, loc)
	stream := &memStream{loc: loc}
	for i, spec := range specs {
		if spec.MatchingBeginIndex < -1 || spec.MatchingBeginIndex >= i {
			spec.MatchingBeginIndex = normalizeMatch(spec.MatchingBeginIndex, i)
		}
		stream.events = append(stream.events, &event{
			spec: spec,
			idx:  i,
			loc:  loc,
			ts:   spec.Timestamp,
			s:    stream,
		})
	}
	b.t.streams[loc] = stream
	return b
}

func normalizeMatch(m, selfIdx int) int {
	if m < 0 || m >= selfIdx {
		return -1
	}
	return m
}

// AddCommunicator registers a communicator by id and its member ranks, in
// rank order.
func (b *Builder) AddCommunicator(id trace.CommunicatorID, ranks ...location.Coordinate) *Builder {
	b.t.communicators[id] = trace.Communicator{ID: id, Ranks: append([]location.Coordinate{}, ranks...)}
	return b
}

// SetWorld registers the world communicator spanning every participating
// location.
func (b *Builder) SetWorld(ranks ...location.Coordinate) *Builder {
	b.t.world = trace.Communicator{Ranks: append([]location.Coordinate{}, ranks...)}
	return b
}

// Build returns the assembled Trace.
func (b *Builder) Build() *Trace { return b.t }
