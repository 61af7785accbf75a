// Package commcache builds and caches rank-reversed communicators, used
// by backward amortization to implement reverse prefix-reductions
// (scan/exscan run forward; their backward counterpart needs a
// communicator whose rank order is the mirror image of the original).
package commcache

import (
	"sync"

	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/trace"
)

// DefaultColour is the split colour used when building a reversed
// communicator. Per spec.md §9 Open Questions, the original
// implementation hard-codes 42; the value is arbitrary, any single
// shared colour per pool suffices, so this is exposed as configuration
// rather than baked in.
const DefaultColour = 42

// Cache maps an original communicator id to its rank-reversed
// counterpart, building it lazily on first request.
type Cache struct {
	mu      sync.Mutex
	colour  int
	reverse map[trace.CommunicatorID]trace.Communicator
}

// New returns an empty cache using colour for any communicators it
// builds.
func New(colour int) *Cache {
	return &Cache{colour: colour, reverse: make(map[trace.CommunicatorID]trace.Communicator)}
}

// Get returns the rank-reversed communicator for comm, building and
// caching it on first request. The reversed communicator has the same
// members, with local rank i holding the member that was at local rank
// (size - i - 1) in comm — i.e. all peers split with key = size -
// local_rank - 1, same colour (spec.md §4.7).
func (c *Cache) Get(comm trace.Communicator) trace.Communicator {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.reverse[comm.ID]; ok {
		return cached
	}

	n := len(comm.Ranks)
	ranks := make([]location.Coordinate, n)
	for i, r := range comm.Ranks {
		ranks[n-i-1] = r
	}

	rev := trace.Communicator{ID: comm.ID, Ranks: ranks}
	c.reverse[comm.ID] = rev
	return rev
}

// Colour returns the split colour this cache uses for communicators it
// builds.
func (c *Cache) Colour() int { return c.colour }

// FreeAll drops all cached reversed communicators, called at the end of
// the backward phase.
func (c *Cache) FreeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reverse = make(map[trace.CommunicatorID]trace.Communicator)
}
