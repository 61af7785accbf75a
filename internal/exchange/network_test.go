package exchange

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/payload"
	"github.com/scalasync/clc/trace"
	"github.com/stretchr/testify/require"
)

func TestNetwork_SendRecvRoundTrip(t *testing.T) {
	n := New()
	ctx := context.Background()
	src := location.Coordinate{Process: 0}
	dst := location.Coordinate{Process: 1}

	errs := make(chan error, 1)
	go func() {
		errs <- n.Send(ctx, src, dst, 1, 7, payload.Amortization{Location: src, Timestamp: 1.5})
	}()

	got, err := n.Recv(ctx, src, dst, 1, 7)
	require.NoError(t, err)
	require.NoError(t, <-errs)
	require.Equal(t, 1.5, got.Timestamp)
}

func TestNetwork_RecvRespectsContextCancellation(t *testing.T) {
	n := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := n.Recv(ctx, location.Coordinate{}, location.Coordinate{Process: 1}, 1, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNetwork_AllReduceMaxAcrossRanks(t *testing.T) {
	n := New()
	ctx := context.Background()
	size := 4
	var wg sync.WaitGroup
	results := make([]payload.Amortization, size)
	for rank := 0; rank < size; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			loc := location.Coordinate{Process: int32(rank)}
			v := payload.Amortization{Location: loc, Timestamp: float64(rank)}
			out, err := n.AllReduce(ctx, trace.CommunicatorID(1), 0, size, rank, v, payload.CLCMax)
			require.NoError(t, err)
			results[rank] = out
		}(rank)
	}
	wg.Wait()

	for rank := 0; rank < size; rank++ {
		require.Equal(t, float64(size-1), results[rank].Timestamp)
	}
}

func TestNetwork_BroadcastDeliversRootValue(t *testing.T) {
	n := New()
	ctx := context.Background()
	size := 3
	var wg sync.WaitGroup
	results := make([]payload.Amortization, size)
	for rank := 0; rank < size; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			v := payload.Amortization{Timestamp: float64(rank)}
			out, err := n.Broadcast(ctx, trace.CommunicatorID(2), 0, size, rank, v, 1)
			require.NoError(t, err)
			results[rank] = out
		}(rank)
	}
	wg.Wait()

	for rank := 0; rank < size; rank++ {
		require.Equal(t, 1.0, results[rank].Timestamp)
	}
}

func TestNetwork_ScanComputesInclusivePrefix(t *testing.T) {
	n := New()
	ctx := context.Background()
	size := 3
	var wg sync.WaitGroup
	results := make([]payload.Amortization, size)
	for rank := 0; rank < size; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			v := payload.Amortization{Timestamp: float64(rank + 1)}
			out, err := n.Scan(ctx, trace.CommunicatorID(3), 0, size, rank, v, payload.CLCMax)
			require.NoError(t, err)
			results[rank] = out
		}(rank)
	}
	wg.Wait()

	require.Equal(t, 1.0, results[0].Timestamp)
	require.Equal(t, 2.0, results[1].Timestamp)
	require.Equal(t, 3.0, results[2].Timestamp)
}

func TestNetwork_GenerationsAreIndependent(t *testing.T) {
	n := New()
	ctx := context.Background()
	size := 2

	var wg sync.WaitGroup
	for gen := 0; gen < 2; gen++ {
		for rank := 0; rank < size; rank++ {
			wg.Add(1)
			go func(gen, rank int) {
				defer wg.Done()
				v := payload.Amortization{Timestamp: float64(gen*10 + rank)}
				out, err := n.AllReduce(ctx, trace.CommunicatorID(9), gen, size, rank, v, payload.CLCMax)
				require.NoError(t, err)
				require.Equal(t, float64(gen*10+1), out.Timestamp)
			}(gen, rank)
		}
	}
	wg.Wait()
}
