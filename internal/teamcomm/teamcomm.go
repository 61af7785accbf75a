// Package teamcomm derives a synthetic communicator for the threads of
// one process, since the trace's Definitions model exposes thread-team
// ids (trace.Event.ThreadTeam) but not team membership: per spec.md §3's
// "shared-memory thread fork/join" model, all threads of a single
// process are one OpenMP-style team, sharing everything through that
// process's (machine, node, process) coordinate.
package teamcomm

import (
	"sort"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
)

// Members returns every location sharing loc's (machine, node, process),
// sorted by thread id ascending. Local rank 0 (the lowest thread id) is
// always the team's master thread.
func Members(defs trace.Definitions, loc location.Coordinate) []location.Coordinate {
	var out []location.Coordinate
	for _, l := range defs.Locations() {
		if l.Machine == loc.Machine && l.Node == loc.Node && l.Process == loc.Process {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Thread < out[j].Thread })
	return out
}

// LocalRank returns loc's index within members, or -1 if absent.
func LocalRank(members []location.Coordinate, loc location.Coordinate) int {
	for i, m := range members {
		if m == loc {
			return i
		}
	}
	return -1
}

// CommID synthesizes a stable communicator id for loc's thread team. The
// encoding packs (machine, node, process) into the low bits and sets the
// sign bit, so it can never collide with a real non-negative trace
// communicator id.
func CommID(loc location.Coordinate) trace.CommunicatorID {
	packed := int64(loc.Machine)<<42 ^ int64(loc.Node)<<21 ^ int64(loc.Process)
	return trace.CommunicatorID(-1 - (packed & 0x7fffffffffff))
}
