package stats

import (
	"strings"
	"testing"

	"github.com/scalasync/clc/location"
	"github.com/stretchr/testify/require"
)

func TestStats_RecordsViolationsByChannel(t *testing.T) {
	s := New(NewBasicProvider())
	s.RecordViolation(location.ChannelP2P)
	s.RecordViolation(location.ChannelP2P)
	s.RecordViolation(location.ChannelCollective)

	snap := s.Snapshot()
	require.EqualValues(t, 3, snap.Violations)
	require.EqualValues(t, 2, snap.ViolationsP2P)
	require.EqualValues(t, 1, snap.ViolationsColl)
	require.EqualValues(t, 0, snap.ViolationsSharedM)
}

func TestStats_RecordsPassesAndCorrections(t *testing.T) {
	s := New(NewBasicProvider())
	s.RecordPass()
	s.RecordPass()
	s.RecordCorrection()

	snap := s.Snapshot()
	require.EqualValues(t, 2, snap.Passes)
	require.EqualValues(t, 1, snap.Corrections)
}

func TestStats_TracksMaxErrorAndSlope(t *testing.T) {
	s := New(NewBasicProvider())
	s.RecordError(1e-6)
	s.RecordError(5e-6)
	s.RecordError(2e-6)
	s.RecordSlope(0.001)
	s.RecordSlope(0.009)
	s.RecordRelativeError(0.02)

	snap := s.Snapshot()
	require.InDelta(t, 5e-6, snap.MaxAbsError, 1e-12)
	require.InDelta(t, 0.009, snap.MaxSlope, 1e-12)
	require.InDelta(t, 0.02, snap.RelativeError, 1e-12)
}

func TestStats_NilProviderFallsBackToNoop(t *testing.T) {
	s := New(nil)
	require.NotPanics(t, func() {
		s.RecordPass()
		s.RecordViolation(location.ChannelP2P)
		s.RecordError(1.0)
	})

	snap := s.Snapshot()
	require.Zero(t, snap.Passes)
}

func TestSnapshot_PrintContainsAllFields(t *testing.T) {
	s := New(NewBasicProvider())
	s.RecordPass()
	s.RecordViolation(location.ChannelSharedMemory)
	s.RecordError(3e-6)

	var buf strings.Builder
	require.NoError(t, s.Snapshot().Print(&buf))

	out := buf.String()
	require.Contains(t, out, "passes executed:")
	require.Contains(t, out, "shared-memory:")
	require.Contains(t, out, "max absolute error")
	require.Contains(t, out, "wall time:")
}
