package backward

import (
	"testing"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
	"github.com/scalasync/clc/trace/memtrace"
	"github.com/stretchr/testify/require"
)

func buildChain(t *testing.T, timestamps ...float64) trace.Stream {
	t.Helper()
	loc := location.Coordinate{Process: 0}
	specs := make([]memtrace.EventSpec, len(timestamps))
	for i, ts := range timestamps {
		specs[i] = memtrace.EventSpec{Kind: trace.KindOther, Timestamp: ts, MatchingBeginIndex: -1}
	}
	b := memtrace.NewBuilder()
	b.AddLocation(loc, specs)
	tr := b.Build()
	return tr.Stream(loc)
}

func TestInterpolate_WinningConflictingSendStopsRecursionWhenDeltaNonPositive(t *testing.T) {
	stream := buildChain(t, 0, 20, 50, 100)
	er := stream.EventAt(3)

	tsa := map[int]float64{1: 18.0}
	var maxSlope float64

	interpolate(er, 90.0, 10.0, SlopeCap, 0.0, tsa, &maxSlope)

	require.InDelta(t, 0.0, stream.EventAt(0).Timestamp(), 1e-9)
	require.InDelta(t, 23.4285714286, stream.EventAt(1).Timestamp(), 1e-6)
	require.InDelta(t, 58.5714285714, stream.EventAt(2).Timestamp(), 1e-6)
	require.InDelta(t, 100.0, stream.EventAt(3).Timestamp(), 1e-9)

	require.InDelta(t, 0.1714285714, maxSlope, 1e-6)
}

func TestInterpolate_NoConflictingSendAppliesUniformSlope(t *testing.T) {
	stream := buildChain(t, 0, 20, 50, 100)
	er := stream.EventAt(3)

	tsa := map[int]float64{}
	var maxSlope float64

	interpolate(er, 99.0, 1.0, SlopeCap, 0.0, tsa, &maxSlope)

	tl := 99.0 - 1.0/SlopeCap
	require.Less(t, tl, 0.0)

	m := 1.0 / (99.0 - 0.0)
	require.InDelta(t, m, maxSlope, 1e-9)

	require.InDelta(t, 0+m*(0-0), stream.EventAt(0).Timestamp(), 1e-9)
	require.InDelta(t, 20+m*(20-0), stream.EventAt(1).Timestamp(), 1e-9)
	require.InDelta(t, 50+m*(50-0), stream.EventAt(2).Timestamp(), 1e-9)
	require.InDelta(t, 100.0, stream.EventAt(3).Timestamp(), 1e-9)
}

func TestInterpolateLocation_SkipsEventsWithNoRecordedViolation(t *testing.T) {
	stream := buildChain(t, 0, 20, 50, 100)
	lookup := func(idx int) (float64, bool) {
		if idx == 3 {
			return 90.0, true
		}
		return 0, false
	}

	maxSlope := interpolateLocation(stream, lookup, map[int]float64{1: 18.0}, 0.0)
	require.Greater(t, maxSlope, 0.0)
	require.InDelta(t, 23.4285714286, stream.EventAt(1).Timestamp(), 1e-6)
}
