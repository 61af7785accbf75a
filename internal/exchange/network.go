// Package exchange routes amortization payloads between the per-location
// goroutines that drive one replay pass, standing in for the point-to-
// point and collective communication a real MPI-like runtime would
// provide. One Network is constructed per pass (forward or backward) and
// shared by every location's goroutine for that pass only.
package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/payload"
	"github.com/scalasync/clc/trace"
)

// Network is safe for concurrent use by every location goroutine
// participating in a pass.
type Network struct {
	mu          sync.Mutex
	p2p         map[p2pKey]chan payload.Amortization
	collectives map[collKey]*collectiveState
}

// New returns an empty Network, scoped to one replay pass.
func New() *Network {
	return &Network{
		p2p:         make(map[p2pKey]chan payload.Amortization),
		collectives: make(map[collKey]*collectiveState),
	}
}

type p2pKey struct {
	comm trace.CommunicatorID
	tag  int
	from location.Coordinate
	to   location.Coordinate
}

func (n *Network) inbox(key p2pKey) chan payload.Amortization {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch, ok := n.p2p[key]
	if !ok {
		ch = make(chan payload.Amortization, 1)
		n.p2p[key] = ch
	}
	return ch
}

// Send delivers p from->to on comm/tag. It does not block on the peer
// receiving; the channel has room for one in-flight payload, matching
// one outstanding non-blocking send per (comm, tag, src, dst) edge.
func (n *Network) Send(ctx context.Context, from, to location.Coordinate, comm trace.CommunicatorID, tag int, p payload.Amortization) error {
	ch := n.inbox(p2pKey{comm, tag, from, to})
	select {
	case ch <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv blocks until the matching Send has posted a payload from->to on
// comm/tag.
func (n *Network) Recv(ctx context.Context, from, to location.Coordinate, comm trace.CommunicatorID, tag int) (payload.Amortization, error) {
	ch := n.inbox(p2pKey{comm, tag, from, to})
	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		return payload.Amortization{}, ctx.Err()
	}
}

// collKey identifies one instance of a collective call: the communicator
// plus a caller-maintained generation counter. Every participating rank
// must pass the same generation for the same logical collective call;
// since the trace's communication graph is globally consistent (spec.md
// §1 Non-goals), the k-th collective call any rank makes on a
// communicator is always the k-th call every other member makes.
type collKey struct {
	comm trace.CommunicatorID
	gen  int
}

type collectiveState struct {
	size    int
	mu      sync.Mutex
	vals    map[int]payload.Amortization
	ready   chan struct{}
	readers int
}

// gather blocks until every one of size ranks has contributed a value for
// (comm, gen), then returns all of them indexed by rank. The entry is
// freed once every rank has read the result.
func (n *Network) gather(ctx context.Context, comm trace.CommunicatorID, gen, size, rank int, val payload.Amortization) ([]payload.Amortization, error) {
	n.mu.Lock()
	key := collKey{comm, gen}
	st, ok := n.collectives[key]
	if !ok {
		st = &collectiveState{size: size, vals: make(map[int]payload.Amortization, size), ready: make(chan struct{})}
		n.collectives[key] = st
	}
	n.mu.Unlock()

	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("exchange: rank %d out of range for communicator of size %d", rank, size)
	}

	st.mu.Lock()
	st.vals[rank] = val
	if len(st.vals) == st.size {
		close(st.ready)
	}
	st.mu.Unlock()

	select {
	case <-st.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	st.mu.Lock()
	out := make([]payload.Amortization, st.size)
	for r, v := range st.vals {
		out[r] = v
	}
	st.readers++
	done := st.readers == st.size
	st.mu.Unlock()

	if done {
		n.mu.Lock()
		delete(n.collectives, key)
		n.mu.Unlock()
	}
	return out, nil
}

// Reducer combines two amortization payloads; payload.CLCMax and
// payload.CLCMin are the two defined over the wire format.
type Reducer func(a, b payload.Amortization) payload.Amortization

// AllReduce gathers val from every rank in a size-member communicator and
// returns the fold of reduce over all of them to every rank.
func (n *Network) AllReduce(ctx context.Context, comm trace.CommunicatorID, gen, size, rank int, val payload.Amortization, reduce Reducer) (payload.Amortization, error) {
	all, err := n.gather(ctx, comm, gen, size, rank, val)
	if err != nil {
		return payload.Amortization{}, err
	}
	return fold(all, reduce), nil
}

// Reduce gathers val from every rank and returns the fold of reduce,
// meaningful only at root; non-root callers still must call Reduce to
// stay in step with the collective.
func (n *Network) Reduce(ctx context.Context, comm trace.CommunicatorID, gen, size, rank int, val payload.Amortization, root int, reduce Reducer) (payload.Amortization, error) {
	all, err := n.gather(ctx, comm, gen, size, rank, val)
	if err != nil {
		return payload.Amortization{}, err
	}
	if rank != root {
		return payload.Amortization{}, nil
	}
	return fold(all, reduce), nil
}

// Broadcast gathers a value from every rank (non-root callers pass any
// placeholder) and returns the root's contribution to every rank.
func (n *Network) Broadcast(ctx context.Context, comm trace.CommunicatorID, gen, size, rank int, val payload.Amortization, root int) (payload.Amortization, error) {
	all, err := n.gather(ctx, comm, gen, size, rank, val)
	if err != nil {
		return payload.Amortization{}, err
	}
	return all[root], nil
}

// Scan computes an inclusive prefix fold of reduce over rank order 0..rank
// and returns this rank's prefix value (forward scan/exscan semantics
// minus the exclusive shift, which callers apply by using the previous
// rank's prefix instead).
func (n *Network) Scan(ctx context.Context, comm trace.CommunicatorID, gen, size, rank int, val payload.Amortization, reduce Reducer) (payload.Amortization, error) {
	all, err := n.gather(ctx, comm, gen, size, rank, val)
	if err != nil {
		return payload.Amortization{}, err
	}
	acc := all[0]
	for i := 1; i <= rank; i++ {
		acc = reduce(acc, all[i])
	}
	return acc, nil
}

func fold(values []payload.Amortization, reduce Reducer) payload.Amortization {
	acc := values[0]
	for _, v := range values[1:] {
		acc = reduce(acc, v)
	}
	return acc
}
