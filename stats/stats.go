package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/scalasync/clc/location"
)

// Stats accumulates the orchestrator-level counters and histograms
// named in spec.md §4.10, backed by a Provider. It is not itself safe
// to share across orchestrator instances, but every method it exposes
// delegates to the underlying Provider, so it is safe for concurrent
// use by one goroutine per location during a pass.
type Stats struct {
	provider Provider

	passes       Counter
	violations   Counter
	violationsBy map[location.Channel]Counter
	corrections  Counter
	maxError     Histogram
	relError     Histogram
	maxSlope     Histogram

	start time.Time
}

// New wraps provider in a Stats recorder. A nil provider falls back to
// NoopProvider.
func New(provider Provider) *Stats {
	if provider == nil {
		provider = NoopProvider{}
	}
	s := &Stats{
		provider:    provider,
		passes:      provider.Counter("clc.passes"),
		violations:  provider.Counter("clc.violations.total"),
		corrections: provider.Counter("clc.corrections"),
		maxError:    provider.Histogram("clc.error.max"),
		relError:    provider.Histogram("clc.error.relative"),
		maxSlope:    provider.Histogram("clc.backward.slope.max"),
	}
	s.violationsBy = map[location.Channel]Counter{
		location.ChannelP2P:          provider.Counter("clc.violations.p2p"),
		location.ChannelCollective:   provider.Counter("clc.violations.collective"),
		location.ChannelSharedMemory: provider.Counter("clc.violations.shared_memory"),
	}
	return s
}

// Start marks the beginning of synchronize(), for wall-time reporting.
func (s *Stats) Start() { s.start = time.Now() }

// RecordPass increments the executed-pass counter.
func (s *Stats) RecordPass() { s.passes.Add(1) }

// RecordViolation records one clock violation observed on channel.
func (s *Stats) RecordViolation(channel location.Channel) {
	s.violations.Add(1)
	if c, ok := s.violationsBy[channel]; ok {
		c.Add(1)
	}
}

// RecordCorrection records one applied clock correction (forward or
// backward).
func (s *Stats) RecordCorrection() { s.corrections.Add(1) }

// RecordError records a per-location absolute clock error, in seconds,
// observed after a pass.
func (s *Stats) RecordError(absError float64) { s.maxError.Record(absError) }

// RecordRelativeError records the relative error at the final event of
// a location's trace.
func (s *Stats) RecordRelativeError(rel float64) { s.relError.Record(rel) }

// RecordSlope records a slope applied during backward interpolation.
func (s *Stats) RecordSlope(slope float64) { s.maxSlope.Record(slope) }

// Snapshot is a point-in-time readout of everything Stats has
// recorded, suitable for PrintStatistics.
type Snapshot struct {
	Passes            int64
	Violations        int64
	ViolationsP2P     int64
	ViolationsColl    int64
	ViolationsSharedM int64
	Corrections       int64
	MaxAbsError       float64
	RelativeError     float64
	MaxSlope          float64
	WallTime          time.Duration
}

// Snapshot reads the current values out of the underlying Provider. It
// only produces meaningful counter and histogram fields when the Provider
// is a *BasicProvider; for other implementations every field except
// WallTime is zero, since Provider itself exposes no read path.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{}
	if !s.start.IsZero() {
		snap.WallTime = time.Since(s.start)
	}

	bp, ok := s.provider.(*BasicProvider)
	if !ok {
		return snap
	}
	counters, histograms := bp.Snapshot()

	snap.Passes = counters["clc.passes"]
	snap.Violations = counters["clc.violations.total"]
	snap.ViolationsP2P = counters["clc.violations.p2p"]
	snap.ViolationsColl = counters["clc.violations.collective"]
	snap.ViolationsSharedM = counters["clc.violations.shared_memory"]
	snap.Corrections = counters["clc.corrections"]

	if h, ok := histograms["clc.error.max"]; ok {
		snap.MaxAbsError = h.Max
	}
	if h, ok := histograms["clc.error.relative"]; ok {
		snap.RelativeError = h.Max
	}
	if h, ok := histograms["clc.backward.slope.max"]; ok {
		snap.MaxSlope = h.Max
	}
	return snap
}

// Print writes a human-readable report of snap to w, in the field order
// named by spec.md §4.10.
func (snap Snapshot) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, ""+
		"passes executed:        %d\n"+
		"violations (total):     %d\n"+
		"  p2p:                  %d\n"+
		"  collective:           %d\n"+
		"  shared-memory:        %d\n"+
		"clock corrections:      %d\n"+
		"max absolute error (s): %g\n"+
		"relative error (final): %g\n"+
		"max backward slope:     %g\n"+
		"wall time:              %s\n",
		snap.Passes,
		snap.Violations,
		snap.ViolationsP2P,
		snap.ViolationsColl,
		snap.ViolationsSharedM,
		snap.Corrections,
		snap.MaxAbsError,
		snap.RelativeError,
		snap.MaxSlope,
		snap.WallTime,
	)
	return err
}
