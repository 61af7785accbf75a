// Package forward drives forward amortization (spec.md §4.4): one pass
// replays every location's event stream causal-forward order, applying
// the Extended Controlled Logical Clock and exchanging amortized send
// timestamps with peers, repeating until the global clock-error metric
// falls below a threshold or the pass budget is exhausted.
package forward

import (
	"github.com/scalasync/clc/clock"
	"github.com/scalasync/clc/internal/log"
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/stats"
	"github.com/scalasync/clc/trace"
	"github.com/scalasync/clc/violation"
)

// locCtx is the state a location carries across passes: its stream, the
// snapshot of original timestamps (captured at pass 1, restored before
// every subsequent pass), and its clock and violation map, which are
// reset at the start of every pass but whose final values after the last
// pass feed the orchestrator's backward phase.
type locCtx struct {
	loc        location.Coordinate
	stream     trace.Stream
	original   []float64
	clock      *clock.Controlled
	violations *violation.Map
}

// LocationResult is what the forward engine reports per location once
// Run returns, handed to the backward engine and to statistics
// reporting.
type LocationResult struct {
	Location   location.Coordinate
	Clock      *clock.Controlled
	Violations *violation.Map
}

// Result is the outcome of a full forward-amortization run (all passes).
type Result struct {
	Passes    int
	Locations map[location.Coordinate]*LocationResult
}

// TotalViolations sums every location's recorded violation count.
func (r *Result) TotalViolations() int64 {
	var total int64
	for _, lr := range r.Locations {
		total += lr.Clock.Violations.Total
	}
	return total
}

// Engine configures and drives the forward-amortization pass loop.
type Engine struct {
	Defs    trace.Definitions
	Replay  trace.ForwardReplay
	Latency location.Latency
	Logger  log.Logger
	Stats   *stats.Stats

	// Threshold is the global clock-error fraction below which the pass
	// loop stops early. Zero selects the spec default, 0.05.
	Threshold float64
	// PassBudget caps the number of passes run. Zero selects the spec
	// default, 1 (i.e. exactly one pass unless overridden).
	PassBudget int
}

func (e *Engine) threshold() float64 {
	if e.Threshold > 0 {
		return e.Threshold
	}
	return 0.05
}

func (e *Engine) passBudget() int {
	if e.PassBudget > 0 {
		return e.PassBudget
	}
	return 1
}

func (e *Engine) logger() log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Discard{}
}
