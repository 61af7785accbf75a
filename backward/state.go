// Package backward drives backward amortization (spec.md §4.5): a
// reverse trace replay that collects, for each causal edge's send-like
// side, the latest pre-correction timestamp its corrected receive can
// tolerate, followed by a forward local pass that piecewise-linearly
// redistributes each forward violation's correction over prior events.
package backward

import (
	"github.com/scalasync/clc/commcache"
	"github.com/scalasync/clc/internal/log"
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/stats"
	"github.com/scalasync/clc/trace"
)

// SlopeCap is the default maximum slope (m0) the interpolation phase may
// apply, per spec.md §4.5.2.
const SlopeCap = 0.01

// Engine configures and drives the backward-amortization phase. It
// consumes the forward.Result produced by a prior forward.Engine.Run, so
// it can read each location's violation map and first-event timestamp.
type Engine struct {
	Defs      trace.Definitions
	Replay    trace.BackwardReplay
	Latency   location.Latency
	Logger    log.Logger
	Stats     *stats.Stats
	CommCache *commcache.Cache

	// SlopeCapOverride is read only by slopeCap(), which Run does not
	// call: the interpolation phase always starts from the SlopeCap
	// constant, whatever this field holds.
	SlopeCapOverride float64
}

func (e *Engine) slopeCap() float64 {
	if e.SlopeCapOverride > 0 {
		return e.SlopeCapOverride
	}
	return SlopeCap
}

func (e *Engine) logger() log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Discard{}
}

func (e *Engine) commCache() *commcache.Cache {
	if e.CommCache != nil {
		return e.CommCache
	}
	return commcache.New(commcache.DefaultColour)
}

// Result is the outcome of one backward-amortization run.
type Result struct {
	MaxSlope float64
}
