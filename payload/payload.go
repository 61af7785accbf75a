// Package payload implements the amortization payload exchanged between
// locations during forward and backward amortization, and the two
// user-defined reductions (CLC-max, CLC-min) defined over it.
package payload

import (
	"math"

	"github.com/scalasync/clc/location"
)

// Amortization is the fixed-size record exchanged over the wire: a
// location coordinate and the timestamp it carries. On the wire this is
// four int32 fields followed by one float64, 24 bytes total.
type Amortization struct {
	Location  location.Coordinate
	Timestamp float64
}

// PosInf and NegInf are the saturating sentinels used for zero-byte
// collective sides: forward amortization uses NegInf to mean "this rank
// did not send", backward amortization uses PosInf to mean "this rank did
// not receive" (spec.md §9 Open Questions).
var (
	NegInf = Amortization{Timestamp: math.Inf(-1)}
	PosInf = Amortization{Timestamp: math.Inf(1)}
)

// CLCMax reduces two payloads to the one with the larger timestamp,
// carrying that element's location. Ties carry the incoming (left)
// operand's location, matching the wire-level reduction semantics in
// spec.md §6.
func CLCMax(a, b Amortization) Amortization {
	if b.Timestamp > a.Timestamp {
		return b
	}
	return a
}

// CLCMin reduces two payloads to the one with the smaller timestamp, same
// tie-break rule as CLCMax.
func CLCMin(a, b Amortization) Amortization {
	if b.Timestamp < a.Timestamp {
		return b
	}
	return a
}

// ReduceMax folds CLCMax over a non-empty slice of payloads.
func ReduceMax(values []Amortization) Amortization {
	acc := values[0]
	for _, v := range values[1:] {
		acc = CLCMax(acc, v)
	}
	return acc
}

// ReduceMin folds CLCMin over a non-empty slice of payloads.
func ReduceMin(values []Amortization) Amortization {
	acc := values[0]
	for _, v := range values[1:] {
		acc = CLCMin(acc, v)
	}
	return acc
}
