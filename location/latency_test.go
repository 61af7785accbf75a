package location

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatency_SharedMemoryIgnoresCoordinates(t *testing.T) {
	l := DefaultLatency()
	a := Coordinate{Machine: 1, Node: 2, Process: 3, Thread: 0}
	b := Coordinate{Machine: 9, Node: 9, Process: 9, Thread: 1}

	require.Equal(t, l.SharedMemory, l.Between(a, b, ChannelSharedMemory))
}

func TestLatency_IntraNodeVsInterNode(t *testing.T) {
	l := DefaultLatency()
	sameNode := Coordinate{Machine: 1, Node: 1, Process: 0, Thread: 0}
	sameNodeOther := Coordinate{Machine: 1, Node: 1, Process: 1, Thread: 0}
	otherNode := Coordinate{Machine: 1, Node: 2, Process: 0, Thread: 0}

	require.Equal(t, l.P2PIntra, l.Between(sameNode, sameNodeOther, ChannelP2P))
	require.Equal(t, l.P2PInter, l.Between(sameNode, otherNode, ChannelP2P))
	require.Equal(t, l.CollIntra, l.Between(sameNode, sameNodeOther, ChannelCollective))
	require.Equal(t, l.CollInter, l.Between(sameNode, otherNode, ChannelCollective))
}

func TestLatency_InterMachineAddsHop(t *testing.T) {
	l := Latency{Machine: 5e-6, P2PInter: 3e-6}
	a := Coordinate{Machine: 1, Node: 1}
	b := Coordinate{Machine: 2, Node: 1}

	require.InDelta(t, 8e-6, l.Between(a, b, ChannelP2P), 1e-15)
}
