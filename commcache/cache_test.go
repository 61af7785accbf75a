package commcache

import (
	"testing"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
	"github.com/stretchr/testify/require"
)

func TestCache_ReversesRankOrder(t *testing.T) {
	c := New(DefaultColour)
	comm := trace.Communicator{
		ID: 1,
		Ranks: []location.Coordinate{
			{Process: 0}, {Process: 1}, {Process: 2}, {Process: 3},
		},
	}

	rev := c.Get(comm)
	require.Equal(t, []location.Coordinate{
		{Process: 3}, {Process: 2}, {Process: 1}, {Process: 0},
	}, rev.Ranks)
}

func TestCache_CachesAcrossCalls(t *testing.T) {
	c := New(DefaultColour)
	comm := trace.Communicator{ID: 2, Ranks: []location.Coordinate{{Process: 0}, {Process: 1}}}

	first := c.Get(comm)
	second := c.Get(comm)
	require.Equal(t, first, second)
}

func TestCache_FreeAllClearsCache(t *testing.T) {
	c := New(DefaultColour)
	comm := trace.Communicator{ID: 3, Ranks: []location.Coordinate{{Process: 0}}}
	c.Get(comm)
	c.FreeAll()
	require.Empty(t, c.reverse)
}
