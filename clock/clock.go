// Package clock implements the Extended Controlled Logical Clock (ECLC):
// the per-location stateful clock that forward amortization applies to
// every event, plus the pass controller that derives its gamma.
package clock

import (
	"math"

	"github.com/scalasync/clc/location"
)

// DefaultDelta is the minimum inter-event gap enforced by Controlled,
// 1 nanosecond expressed in seconds.
const DefaultDelta = 1e-9

// Violations tallies clock condition violations observed by a Controlled
// clock, broken down by channel.
type Violations struct {
	Total         int64
	P2P           int64
	Collective    int64
	SharedMemory  int64
}

func (v *Violations) record(channel location.Channel) {
	v.Total++
	switch channel {
	case location.ChannelP2P:
		v.P2P++
	case location.ChannelCollective:
		v.Collective++
	case location.ChannelSharedMemory:
		v.SharedMemory++
	}
}

// Controlled is the per-location ECLC state: value V, minimum delta,
// previous-event timestamp P, control variable gamma, and violation
// counters. The zero value is not ready to use; construct with New.
type Controlled struct {
	value   float64
	delta   float64
	prev    float64
	gamma   float64
	started bool

	// firstEventT is the trace's first-event lower bound for this
	// location, captured on first use and consulted by the backward pass.
	firstEventT float64

	Violations Violations
}

// New returns a Controlled clock initialized per spec.md §3: value -inf,
// delta fixed at DefaultDelta, prev at +inf/2 (the sentinel used before the
// first event is processed).
func New() *Controlled {
	return &Controlled{
		value: math.Inf(-1),
		delta: DefaultDelta,
		prev:  math.MaxFloat64 / 2,
		gamma: 0.99999,
	}
}

// Delta returns the minimum inter-event gap.
func (c *Controlled) Delta() float64 { return c.delta }

// Value returns the current amortized clock value V.
func (c *Controlled) Value() float64 { return c.value }

// FirstEventTimestamp returns the pre-correction timestamp of the first
// event this clock ever processed (forward or receive), the lower bound
// the backward pass must never push a send below.
func (c *Controlled) FirstEventTimestamp() float64 { return c.firstEventT }

// ApplyGamma sets the control variable used by subsequent Internal/Receive
// calls, as derived by a PassController for the current pass.
func (c *Controlled) ApplyGamma(gamma float64) { c.gamma = gamma }

// Reset prepares the clock for a new forward pass: violation counters are
// zeroed and value and prev return to their New() sentinels, so the next
// event re-seeds initialization instead of building on the stale V from a
// previous pass.
func (c *Controlled) Reset() {
	c.Violations = Violations{}
	c.value = math.Inf(-1)
	c.prev = math.MaxFloat64 / 2
	c.started = false
}

// seedFirstEvent records the trace-relative lower bound for this location's
// first processed event. It never touches value/prev: the New() sentinels
// (-inf, +inf/2) already make the generic update formula below yield
// exactly t on the first call, matching the original algorithm, which
// applies no special case for the first event either (Clock.cpp:74-84).
func (c *Controlled) seedFirstEvent(t float64) {
	if c.started {
		return
	}
	c.started = true
	c.firstEventT = t
}

// Internal applies the ECLC update for an event with no remote dependency
// (equation (3) of the original algorithm):
//
//	V <- max(V + delta, V + gamma*(t - P), t); P <- t
//
// and returns the new V.
func (c *Controlled) Internal(t float64) float64 {
	c.seedFirstEvent(t)

	c.value = max3(c.value+c.delta, c.value+c.gamma*(t-c.prev), t)
	c.prev = t
	return c.value
}

// Receive applies the ECLC update for the receive side of a causal edge
// (equation (4)): first an internal amortization of t, then a clamp to the
// matching send's amortized time plus the channel latency. It returns the
// internal-only value (the value the caller should record in a violation
// map when a violation fires), not the clamped V.
func (c *Controlled) Receive(t, sendT, latency float64, channel location.Channel) (internalV float64, violated bool) {
	c.seedFirstEvent(t)

	internalV = c.Internal(t)
	boundary := sendT + latency

	c.value = math.Max(boundary, internalV)

	if internalV < boundary {
		violated = true
		c.Violations.record(channel)
	}
	return internalV, violated
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
