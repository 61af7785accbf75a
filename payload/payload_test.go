package payload

import (
	"testing"

	"github.com/scalasync/clc/location"
	"github.com/stretchr/testify/require"
)

func TestCLCMax_PicksLargerTimestamp(t *testing.T) {
	a := Amortization{Location: location.Coordinate{Process: 1}, Timestamp: 1.0}
	b := Amortization{Location: location.Coordinate{Process: 2}, Timestamp: 2.0}

	require.Equal(t, b, CLCMax(a, b))
	require.Equal(t, b, CLCMax(b, a))
}

func TestCLCMax_TieCarriesLeftOperand(t *testing.T) {
	a := Amortization{Location: location.Coordinate{Process: 1}, Timestamp: 1.0}
	b := Amortization{Location: location.Coordinate{Process: 2}, Timestamp: 1.0}

	require.Equal(t, a, CLCMax(a, b))
}

func TestCLCMin_PicksSmallerTimestamp(t *testing.T) {
	a := Amortization{Timestamp: 1.0}
	b := Amortization{Timestamp: 2.0}

	require.Equal(t, a, CLCMin(a, b))
	require.Equal(t, a, CLCMin(b, a))
}

func TestReduceMax_ZeroByteSentinelSuppressed(t *testing.T) {
	values := []Amortization{NegInf, {Timestamp: 5.0}, NegInf}
	require.Equal(t, 5.0, ReduceMax(values).Timestamp)
}

func TestReduceMin_ZeroByteSentinelSuppressed(t *testing.T) {
	values := []Amortization{PosInf, {Timestamp: 5.0}, PosInf}
	require.Equal(t, 5.0, ReduceMin(values).Timestamp)
}
