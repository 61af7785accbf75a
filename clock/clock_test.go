package clock

import (
	"math"
	"testing"

	"github.com/scalasync/clc/location"
	"github.com/stretchr/testify/require"
)

func TestControlled_FirstInternalEventSeedsValue(t *testing.T) {
	c := New()
	got := c.Internal(1.0)
	require.Equal(t, 1.0, got)
}

func TestControlled_MonotonicGapEnforced(t *testing.T) {
	c := New()
	c.Internal(1.0)
	got := c.Internal(1.0 + 1e-12) // smaller than delta
	require.GreaterOrEqual(t, got, 1.0+DefaultDelta)
}

func TestControlled_ReceiveNoViolation(t *testing.T) {
	c := New()
	internalV, violated := c.Receive(2.0, 1.0, 0, location.ChannelP2P)
	require.False(t, violated)
	require.Equal(t, 2.0, internalV)
	require.Equal(t, 2.0, c.Value())
}

func TestControlled_ReceiveViolationScenarioA(t *testing.T) {
	// Scenario A from spec.md §8: send at 1.0, recv at 1.000002, latency 3e-6.
	c := New()
	internalV, violated := c.Receive(1.000002, 1.0, 3e-6, location.ChannelP2P)
	require.True(t, violated)
	require.Equal(t, int64(1), c.Violations.Total)
	require.Equal(t, int64(1), c.Violations.P2P)
	require.InDelta(t, 1.000002, internalV, 1e-12)
	require.GreaterOrEqual(t, c.Value(), 1.0+3e-6)
}

func TestControlled_Reset(t *testing.T) {
	c := New()
	c.Receive(1.000002, 1.0, 3e-6, location.ChannelP2P)
	require.Equal(t, int64(1), c.Violations.Total)

	c.Reset()
	require.Equal(t, int64(0), c.Violations.Total)
	require.Equal(t, math.MaxFloat64/2, c.prev)
}
