package backward

import (
	"context"

	"github.com/scalasync/clc/forward"
	"github.com/scalasync/clc/internal/exchange"
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
	"golang.org/x/sync/errgroup"
)

// Run drives the backward-amortization phase described in spec.md §4.5:
// a reverse trace replay collecting, per location, the latest allowable
// pre-correction send timestamp for every causal edge it owns, followed
// by a local interpolation pass that redistributes each forward
// violation's correction over prior events. Callers should only invoke
// Run when fwd.TotalViolations() > 0 (spec.md §4.5: "Runs only if the
// globally summed violation count is > 0 after forward amortization").
func (e *Engine) Run(ctx context.Context, sources trace.StreamSource, fwd *forward.Result) (*Result, error) {
	locs := e.Defs.Locations()
	net := exchange.New()
	cache := e.commCache()

	tsas := make(map[location.Coordinate]map[int]float64, len(locs))
	streams := make(map[location.Coordinate]trace.Stream, len(locs))

	g, gctx := errgroup.WithContext(ctx)
	for _, loc := range locs {
		loc := loc
		stream := sources.Stream(loc)
		streams[loc] = stream
		tsa := make(map[int]float64)
		tsas[loc] = tsa

		g.Go(func() error {
			h := newReverseHandler(loc, e.Defs, e.Latency, net, cache, e.logger(), tsa)
			if err := e.Replay.ReplayBackward(gctx, stream, h.callbacks(), noopPost); err != nil {
				return err
			}
			if err := h.pool.Close(); err != nil {
				e.logger().WithField("location", loc).Warn(err.Error())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	cache.FreeAll()

	var maxSlope float64
	for _, loc := range locs {
		lr, ok := fwd.Locations[loc]
		if !ok {
			continue
		}
		slope := interpolateLocation(streams[loc], lr.Violations.Lookup, tsas[loc], lr.Clock.FirstEventTimestamp())
		if slope > maxSlope {
			maxSlope = slope
		}
	}

	if e.Stats != nil {
		e.Stats.RecordSlope(maxSlope)
	}

	return &Result{MaxSlope: maxSlope}, nil
}
