package backward

import "github.com/scalasync/clc/trace"

// interpolateLocation walks one location's event stream front-to-back and
// redistributes every forward violation's correction over prior events
// (spec.md §4.5.2). It returns the largest slope applied by any
// interpolate call for this location.
//
// tsa maps a send-like event's local index to the latest allowable
// pre-correction timestamp the reverse-replay phase computed for it; a
// missing entry means that event never contributed a tighter bound than
// its own latency-amortized value and is not a candidate conflicting send.
func interpolateLocation(stream trace.Stream, lookup func(idx int) (float64, bool), tsa map[int]float64, t0 float64) float64 {
	var maxSlope float64
	n := stream.Len()
	for i := 0; i < n; i++ {
		ev := stream.EventAt(i)
		preTS, ok := lookup(ev.Index())
		if !ok {
			continue
		}
		recvS := ev.Timestamp()
		deltaR := recvS - preTS
		if deltaR <= 0 {
			continue
		}
		interpolate(ev, preTS, deltaR, SlopeCap, t0, tsa, &maxSlope)
	}
	return maxSlope
}

// candidateSend is a conflicting earlier send found while scanning
// backward from E_r, per spec.md §4.5.2 step 3.
type candidateSend struct {
	ev    trace.Event
	delta float64
	slope float64
}

// interpolate applies the recursive piecewise-linear correction described
// in spec.md §4.5.2. E_r is the event the correction originates from
// (initially the violating receive, subsequently the winning conflicting
// send of the prior recursion level); t_r is the timestamp the
// correction's right edge must reach; delta_r is the remaining correction
// to distribute; m is the slope this level may use before a tighter
// conflicting send is found; t0 is the location's first-event lower
// bound, below which the interpolation interval may never extend.
func interpolate(er trace.Event, tr, deltaR, m, t0 float64, tsa map[int]float64, maxSlope *float64) {
	if deltaR <= 0 || m <= 0 {
		return
	}

	tl := tr - deltaR/m
	if tl < t0 {
		tl = t0
		denom := tr - tl
		if denom <= 0 {
			return
		}
		m = deltaR / denom
	}

	var winner *candidateSend
	best := m
	for cur := er.Prev(); cur != nil && cur.Timestamp() > tl; cur = cur.Prev() {
		bound, ok := tsa[cur.Index()]
		if !ok {
			continue
		}
		delta := bound - cur.Timestamp()
		denom := tr - cur.Timestamp()
		if denom <= 0 {
			continue
		}
		slope := (deltaR - delta) / denom
		if slope > best {
			best = slope
			winner = &candidateSend{ev: cur, delta: delta, slope: slope}
		}
	}

	if winner == nil {
		applied := false
		for cur := er.Prev(); cur != nil && cur.Timestamp() > tl; cur = cur.Prev() {
			cur.SetTimestamp(cur.Timestamp() + m*(cur.Timestamp()-tl))
			applied = true
		}
		if applied {
			recordSlope(maxSlope, m)
		}
		return
	}

	for cur := er.Prev(); cur != nil && cur.Index() >= winner.ev.Index(); cur = cur.Prev() {
		cur.SetTimestamp(cur.Timestamp() + winner.slope*(cur.Timestamp()-tl))
	}
	recordSlope(maxSlope, winner.slope)

	if winner.delta > 0 {
		newTr := winner.ev.Timestamp() - winner.delta
		denom := winner.ev.Timestamp() - tl
		if denom <= 0 {
			return
		}
		interpolate(winner.ev, newTr, winner.delta, winner.delta/denom, t0, tsa, maxSlope)
	}
}

func recordSlope(maxSlope *float64, m float64) {
	if m > *maxSlope {
		*maxSlope = m
	}
}
