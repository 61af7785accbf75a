package teamcomm

import (
	"testing"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
	"github.com/stretchr/testify/require"
)

type fakeDefs struct{ locs []location.Coordinate }

func (f fakeDefs) Locations() []location.Coordinate { return f.locs }
func (f fakeDefs) Communicator(trace.CommunicatorID) (trace.Communicator, bool) {
	return trace.Communicator{}, false
}
func (f fakeDefs) WorldCommunicator() trace.Communicator { return trace.Communicator{} }

func TestMembers_SortsByThreadAndFiltersOtherProcesses(t *testing.T) {
	defs := fakeDefs{locs: []location.Coordinate{
		{Process: 0, Thread: 2},
		{Process: 0, Thread: 0},
		{Process: 1, Thread: 0},
		{Process: 0, Thread: 1},
	}}

	members := Members(defs, location.Coordinate{Process: 0, Thread: 1})
	require.Equal(t, []location.Coordinate{
		{Process: 0, Thread: 0},
		{Process: 0, Thread: 1},
		{Process: 0, Thread: 2},
	}, members)
}

func TestLocalRank_FindsIndexOrReportsAbsent(t *testing.T) {
	members := []location.Coordinate{{Thread: 0}, {Thread: 1}, {Thread: 2}}
	require.Equal(t, 1, LocalRank(members, location.Coordinate{Thread: 1}))
	require.Equal(t, -1, LocalRank(members, location.Coordinate{Thread: 9}))
}

func TestCommID_StableAndNegative(t *testing.T) {
	loc := location.Coordinate{Machine: 1, Node: 2, Process: 3}
	id1 := CommID(loc)
	id2 := CommID(loc)
	require.Equal(t, id1, id2)
	require.Less(t, int(id1), 0)

	other := CommID(location.Coordinate{Machine: 1, Node: 2, Process: 4})
	require.NotEqual(t, id1, other)
}
