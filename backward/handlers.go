package backward

import (
	"context"
	"fmt"
	"math"

	"github.com/scalasync/clc/asyncpool"
	"github.com/scalasync/clc/classify"
	"github.com/scalasync/clc/commcache"
	"github.com/scalasync/clc/internal/exchange"
	"github.com/scalasync/clc/internal/log"
	"github.com/scalasync/clc/internal/teamcomm"
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/payload"
	"github.com/scalasync/clc/trace"
)

// reverseHandler drives one location's reverse-replay phase: it collects
// tsa, the latest allowable pre-correction timestamp for every send-like
// event this location owns, keyed by that event's local index (spec.md
// §4.5.1). Using the event's own index rather than a dense "i-th logical
// send" array generalizes cleanly to collective and shared-memory
// send-like roles, which also populate tsa.
type reverseHandler struct {
	loc     location.Coordinate
	defs    trace.Definitions
	latency location.Latency
	net     *exchange.Network
	cache   *commcache.Cache
	pool    *asyncpool.Pool
	log     log.Logger

	tsa map[int]float64
	gen map[trace.CommunicatorID]int

	pendingFork    map[trace.CommunicatorID]payload.Amortization
	pendingTeamEnd map[trace.CommunicatorID]float64
}

func newReverseHandler(loc location.Coordinate, defs trace.Definitions, latency location.Latency, net *exchange.Network, cache *commcache.Cache, lg log.Logger, tsa map[int]float64) *reverseHandler {
	return &reverseHandler{
		loc:            loc,
		defs:           defs,
		latency:        latency,
		net:            net,
		cache:          cache,
		pool:           asyncpool.New(),
		log:            lg,
		tsa:            tsa,
		gen:            make(map[trace.CommunicatorID]int),
		pendingFork:    make(map[trace.CommunicatorID]payload.Amortization),
		pendingTeamEnd: make(map[trace.CommunicatorID]float64),
	}
}

func (h *reverseHandler) callbacks() trace.CallbackMap {
	return trace.CallbackMap{
		trace.KindSend:            h.handleFormerSend,
		trace.KindReceive:         h.handleFormerReceive,
		trace.KindCollectiveEnd:   h.handleCollective,
		trace.KindLeave:           h.handleLeave,
		trace.KindThreadFork:      h.handleFork,
		trace.KindThreadTeamBegin: h.handleTeamBegin,
		trace.KindThreadTeamEnd:   h.handleTeamEnd,
		trace.KindThreadJoin:      h.handleJoin,
	}
}

// noopPost is the reverse-replay's post-hook: the reverse phase only
// collects tsa, it never rewrites a timestamp.
func noopPost(trace.Event, *trace.CallbackData) {}

func (h *reverseHandler) nextGen(id trace.CommunicatorID) int {
	g := h.gen[id]
	h.gen[id] = g + 1
	return g
}

func (h *reverseHandler) store(idx int, v payload.Amortization, channel location.Channel) {
	if math.IsInf(v.Timestamp, 1) {
		return
	}
	latency := h.latency.Between(h.loc, v.Location, channel)
	h.tsa[idx] = v.Timestamp - latency
}

// handleFormerSend inverts a logical send: it now blocking-receives the
// corrected receive time from the original destination and stores the
// latency-adjusted bound into tsa.
func (h *reverseHandler) handleFormerSend(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	p, err := h.net.Recv(ctx, h.loc, ev.Peer(), ev.Communicator(), ev.Tag())
	if err != nil {
		return err
	}
	h.store(ev.Index(), p, location.ChannelP2P)
	return nil
}

// handleFormerReceive inverts a logical receive: it now non-blocking
// sends its own corrected timestamp back to the original source.
func (h *reverseHandler) handleFormerReceive(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	p := payload.Amortization{Location: h.loc, Timestamp: ev.Timestamp()}
	done := make(chan struct{})
	src, comm, tag := ev.Peer(), ev.Communicator(), ev.Tag()
	go func() {
		defer close(done)
		if err := h.net.Send(ctx, src, h.loc, comm, tag, p); err != nil {
			h.log.WithError(err).Warn("backward: send did not complete")
		}
	}()
	h.pool.Post(asyncpool.Request{Done: done, Payload: p})
	h.pool.Poll()
	return nil
}

func (h *reverseHandler) handleLeave(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	if ev.Region() != trace.RegionMPIInit && ev.Region() != trace.RegionMPIFinalize {
		if ev.Region() == trace.RegionOMPBarrier && ev.InParallelRegion() {
			return h.handleTeamBarrier(ctx, ev, data)
		}
		return nil
	}

	world := h.defs.WorldCommunicator()
	rank := world.LocalRank(h.loc)
	if rank < 0 {
		return fmt.Errorf("backward: location %v is not a member of the world communicator", h.loc)
	}
	mine := payload.Amortization{Location: h.loc, Timestamp: ev.Timestamp()}
	gen := h.nextGen(world.ID)
	combined, err := h.net.AllReduce(ctx, world.ID, gen, world.Size(), rank, mine, payload.CLCMin)
	if err != nil {
		return err
	}

	idx := ev.Index()
	if begin := ev.MatchingBegin(); begin != nil {
		idx = begin.Index()
	}
	h.store(idx, combined, location.ChannelCollective)
	return nil
}

func (h *reverseHandler) handleTeamBarrier(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	members := teamcomm.Members(h.defs, h.loc)
	rank := teamcomm.LocalRank(members, h.loc)
	commID := teamcomm.CommID(h.loc)

	mine := payload.Amortization{Location: h.loc, Timestamp: ev.Timestamp()}
	gen := h.nextGen(commID)
	combined, err := h.net.AllReduce(ctx, commID, gen, len(members), rank, mine, payload.CLCMin)
	if err != nil {
		return err
	}

	idx := ev.Index()
	if begin := ev.MatchingBegin(); begin != nil {
		idx = begin.Index()
	}
	h.store(idx, combined, location.ChannelSharedMemory)
	return nil
}

func (h *reverseHandler) handleCollective(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	comm, ok := h.defs.Communicator(ev.Communicator())
	if !ok {
		return fmt.Errorf("backward: unknown communicator %d", ev.Communicator())
	}
	kind := classify.Collective(ev, comm.Size())
	if kind == trace.CollectiveOpaque {
		return nil
	}

	rank := comm.LocalRank(h.loc)
	if rank < 0 {
		return fmt.Errorf("backward: location %v is not a member of communicator %d", h.loc, comm.ID)
	}
	gen := h.nextGen(comm.ID)
	channel := location.ChannelCollective

	beginIdx := ev.Index()
	if begin := ev.MatchingBegin(); begin != nil {
		beginIdx = begin.Index()
	}

	sideRecv := func() payload.Amortization {
		if ev.BytesReceived() == 0 {
			return payload.Amortization{Location: h.loc, Timestamp: math.Inf(1)}
		}
		return payload.Amortization{Location: h.loc, Timestamp: ev.Timestamp()}
	}

	switch kind {
	case trace.CollectiveBarrier:
		mine := payload.Amortization{Location: h.loc, Timestamp: ev.Timestamp()}
		combined, err := h.net.AllReduce(ctx, comm.ID, gen, comm.Size(), rank, mine, payload.CLCMin)
		if err != nil {
			return err
		}
		h.store(beginIdx, combined, channel)

	case trace.CollectiveOneToN:
		root := ev.Root()
		combined, err := h.net.Reduce(ctx, comm.ID, gen, comm.Size(), rank, sideRecv(), root, payload.CLCMin)
		if err != nil {
			return err
		}
		if rank == root {
			h.store(beginIdx, combined, channel)
		}

	case trace.CollectiveNToN:
		combined, err := h.net.AllReduce(ctx, comm.ID, gen, comm.Size(), rank, sideRecv(), payload.CLCMin)
		if err != nil {
			return err
		}
		if ev.BytesSent() > 0 {
			h.store(beginIdx, combined, channel)
		}

	case trace.CollectiveNToOne:
		root := ev.Root()
		var mine payload.Amortization
		if rank == root {
			mine = payload.Amortization{Location: h.loc, Timestamp: ev.Timestamp()}
		}
		combined, err := h.net.Broadcast(ctx, comm.ID, gen, comm.Size(), rank, mine, root)
		if err != nil {
			return err
		}
		if rank != root && ev.BytesSent() > 0 {
			h.store(beginIdx, combined, channel)
		}

	case trace.CollectivePrefix:
		reversed := h.cache.Get(comm)
		revRank := reversed.LocalRank(h.loc)
		combined, err := h.net.Scan(ctx, comm.ID, gen, comm.Size(), revRank, sideRecv(), payload.CLCMin)
		if err != nil {
			return err
		}
		if ev.BytesSent() > 0 {
			h.store(beginIdx, combined, channel)
		}
	}
	return nil
}

func (h *reverseHandler) handleFork(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	commID := teamcomm.CommID(h.loc)
	combined, ok := h.pendingFork[commID]
	if !ok {
		return fmt.Errorf("backward: thread fork with no matching team-begin reduction at %v", h.loc)
	}
	delete(h.pendingFork, commID)
	h.store(ev.Index(), combined, location.ChannelSharedMemory)
	return nil
}

func (h *reverseHandler) handleTeamBegin(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	members := teamcomm.Members(h.defs, h.loc)
	rank := teamcomm.LocalRank(members, h.loc)
	commID := teamcomm.CommID(h.loc)

	mine := payload.Amortization{Location: h.loc, Timestamp: ev.Timestamp()}
	gen := h.nextGen(commID)
	combined, err := h.net.Reduce(ctx, commID, gen, len(members), rank, mine, teamMasterRank, payload.CLCMin)
	if err != nil {
		return err
	}
	if rank == teamMasterRank {
		h.pendingFork[commID] = combined
	}
	return nil
}

func (h *reverseHandler) handleTeamEnd(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	members := teamcomm.Members(h.defs, h.loc)
	rank := teamcomm.LocalRank(members, h.loc)
	commID := teamcomm.CommID(h.loc)

	var mine payload.Amortization
	if rank == teamMasterRank {
		t, ok := h.pendingTeamEnd[commID]
		if !ok {
			return fmt.Errorf("backward: thread team-end with no matching join value at %v", h.loc)
		}
		delete(h.pendingTeamEnd, commID)
		mine = payload.Amortization{Location: h.loc, Timestamp: t}
	}

	gen := h.nextGen(commID)
	combined, err := h.net.Broadcast(ctx, commID, gen, len(members), rank, mine, teamMasterRank)
	if err != nil {
		return err
	}
	h.store(ev.Index(), combined, location.ChannelSharedMemory)
	return nil
}

func (h *reverseHandler) handleJoin(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	commID := teamcomm.CommID(h.loc)
	h.pendingTeamEnd[commID] = ev.Timestamp()
	return nil
}

const teamMasterRank = 0
