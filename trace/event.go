// Package trace defines the interfaces this module consumes from the
// external trace infrastructure: per-location events, global definitions,
// and the forward/backward replay engines. Concrete implementations of
// these interfaces (reading a real trace archive, writing a corrected
// one) are out of scope for this module; trace/memtrace ships a minimal
// in-memory adapter used by tests and the CLI demo.
package trace

import "github.com/scalasync/clc/location"

// Kind identifies the role of an event in the communication/control-flow
// graph. RMA and lock events have no dedicated handler: like every other
// kind without one, forward amortization applies the internal clock
// update to their timestamps and nothing else about them changes.
type Kind int

const (
	KindOther Kind = iota
	KindEnter
	KindLeave
	KindSend
	KindReceive
	KindCollectiveBegin
	KindCollectiveEnd
	KindThreadFork
	KindThreadJoin
	KindThreadTeamBegin
	KindThreadTeamEnd
	KindRMAPut
	KindRMAGet
	KindLockAcquire
	KindLockRelease
)

// CollectiveKind classifies a collective-end event's exchange pattern.
// classify.Collective returns an event's own CollectiveKind, except that
// it reports CollectiveOpaque for a self-communicator.
type CollectiveKind int

const (
	CollectiveBarrier CollectiveKind = iota
	CollectiveOneToN
	CollectiveNToOne
	CollectiveNToN
	CollectivePrefix
	CollectiveOpaque
)

// Region classifies the function region an Enter/Leave event belongs to,
// insofar as the synchronizer cares: everything else is an ordinary
// internal event.
type Region int

const (
	RegionOrdinary Region = iota
	RegionMPIInit
	RegionMPIFinalize
	RegionOMPBarrier
)

// Event is the opaque per-location event handle supplied by the replay
// engine. Implementations must make Index stable and strictly increasing
// within one location's forward order.
type Event interface {
	// Index is this event's location-local position, used to key the
	// violation map and the timestamp buffer.
	Index() int

	Kind() Kind

	Timestamp() float64
	SetTimestamp(t float64)

	Location() location.Coordinate

	// Region classifies Enter/Leave events; RegionOrdinary for all others.
	Region() Region

	// InParallelRegion reports whether this event is enclosed by an
	// OpenMP-style parallel region (relevant only to OMPBarrier leaves).
	InParallelRegion() bool

	// Peer, Tag and Communicator identify the other end of a
	// point-to-point Send/Receive.
	Peer() location.Coordinate
	Tag() int
	Communicator() CommunicatorID

	// Root is the root rank of a 1-to-N/N-to-1 collective.
	Root() int

	// BytesSent/BytesReceived report the payload size of a collective's
	// local contribution; zero means this rank does not participate in
	// the amortization for that side (spec.md's "zero-byte sentinel").
	BytesSent() int64
	BytesReceived() int64

	// CollectiveKind classifies a KindCollectiveEnd event's exchange
	// pattern, as recorded by the trace infrastructure; the classify
	// package uses this value as is for communicators larger than one.
	CollectiveKind() CollectiveKind

	// LockID and ThreadTeam carry kind-specific data for lock and thread
	// events; pass-through for this module's purposes.
	LockID() int
	ThreadTeam() int

	// MatchingBegin navigates from a Leave/CollectiveEnd/TeamEnd/Join
	// event to its corresponding Enter/CollectiveBegin/TeamBegin/Fork.
	MatchingBegin() Event

	// Prev/Next step to the adjacent event in this location's local
	// stream, or nil at the ends.
	Prev() Event
	Next() Event
}

// CommunicatorID identifies a communicator/context for a point-to-point
// or collective operation.
type CommunicatorID int

// Communicator describes a communicator's participants, as loaded from
// global definitions.
type Communicator struct {
	ID   CommunicatorID
	// Ranks lists the coordinates of every member, indexed by local rank.
	Ranks []location.Coordinate
}

// Size returns the number of ranks in the communicator. A size-1
// communicator is a self-communicator and is always treated as internal
// (spec.md §4.4 "Opaque ... or size-1 communicators").
func (c Communicator) Size() int { return len(c.Ranks) }

// LocalRank returns the local rank index of coord within the
// communicator, or -1 if coord is not a member.
func (c Communicator) LocalRank(coord location.Coordinate) int {
	for i, r := range c.Ranks {
		if r == coord {
			return i
		}
	}
	return -1
}

// Definitions exposes the global, read-only metadata the orchestrator
// needs: the set of locations, and communicator membership, loaded by the
// external trace-archive reader before replay begins.
type Definitions interface {
	Locations() []location.Coordinate
	Communicator(id CommunicatorID) (Communicator, bool)
	// WorldCommunicator is the communicator spanning every location,
	// used by MPI_Init/MPI_Finalize amortization.
	WorldCommunicator() Communicator
}
