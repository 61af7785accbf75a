package forward

import (
	"context"

	"github.com/scalasync/clc/clock"
	"github.com/scalasync/clc/internal/exchange"
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
	"github.com/scalasync/clc/violation"
	"golang.org/x/sync/errgroup"
)

// Run drives the forward-amortization pass loop described in spec.md
// §4.4: repeatedly replay every location (concurrently, one goroutine
// per location coordinated by an errgroup, mirroring the teacher
// lineage's dispatcher/lifecycle pairing) until the global clock-error
// metric falls below threshold or the pass budget is spent.
func (e *Engine) Run(ctx context.Context, sources trace.StreamSource) (*Result, error) {
	locs := e.Defs.Locations()
	ctxs := make(map[location.Coordinate]*locCtx, len(locs))
	for _, loc := range locs {
		ctxs[loc] = &locCtx{
			loc:        loc,
			stream:     sources.Stream(loc),
			clock:      clock.New(),
			violations: violation.New(),
		}
	}

	pc := clock.NewPassController()
	budget := e.passBudget()
	threshold := e.threshold()

	pass := 0
	for {
		pass++
		gamma := pc.Gamma(pass)
		net := exchange.New()

		g, gctx := errgroup.WithContext(ctx)
		for _, lc := range ctxs {
			lc := lc
			g.Go(func() error {
				return e.runLocationPass(gctx, lc, net, gamma, pass)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if e.Stats != nil {
			e.Stats.RecordPass()
		}

		errK, maxAbs := e.globalError(ctxs)
		if e.Stats != nil {
			e.Stats.RecordError(maxAbs)
			e.Stats.RecordRelativeError(errK)
		}
		e.logger().WithField("pass", pass).WithField("error", errK).Debug("forward: pass complete")

		if errK < threshold || pass >= budget {
			break
		}

		for _, lc := range ctxs {
			for i, v := range lc.original {
				lc.stream.EventAt(i).SetTimestamp(v)
			}
		}
	}

	result := &Result{Passes: pass, Locations: make(map[location.Coordinate]*LocationResult, len(ctxs))}
	for loc, lc := range ctxs {
		result.Locations[loc] = &LocationResult{Location: loc, Clock: lc.clock, Violations: lc.violations}
	}
	return result, nil
}

func (e *Engine) runLocationPass(ctx context.Context, lc *locCtx, net *exchange.Network, gamma float64, pass int) error {
	n := lc.stream.Len()
	if pass == 1 {
		lc.original = make([]float64, n)
		for i := 0; i < n; i++ {
			lc.original[i] = lc.stream.EventAt(i).Timestamp()
		}
	}

	lc.clock.Reset()
	lc.clock.ApplyGamma(gamma)
	lc.violations.Clear()

	h := newLocHandler(lc.loc, e.Defs, e.Latency, net, lc.clock, lc.violations, e.Stats, e.logger())
	if err := e.Replay.Replay(ctx, lc.stream, h.callbacks(), h.post); err != nil {
		return err
	}
	if err := h.pool.Close(); err != nil {
		e.logger().WithField("location", lc.loc).Warn(err.Error())
	}
	return nil
}

// globalError computes the termination metric from spec.md §4.4: the
// maximum over all locations of the relative error at the location's
// last event, plus (for statistics) the maximum absolute error in
// seconds.
func (e *Engine) globalError(ctxs map[location.Coordinate]*locCtx) (relative, absolute float64) {
	for _, lc := range ctxs {
		n := lc.stream.Len()
		if n == 0 {
			continue
		}
		first := lc.original[0]
		last := lc.original[n-1]
		corrected := lc.stream.EventAt(n - 1).Timestamp()

		abs := corrected - last
		if abs < 0 {
			abs = -abs
		}
		if abs > absolute {
			absolute = abs
		}

		denom := last - first
		if denom <= 0 {
			continue
		}
		rel := abs / denom
		if rel > relative {
			relative = rel
		}
	}
	return relative, absolute
}
