package forward

import (
	"context"
	"fmt"
	"math"

	"github.com/scalasync/clc/asyncpool"
	"github.com/scalasync/clc/classify"
	"github.com/scalasync/clc/clock"
	"github.com/scalasync/clc/internal/exchange"
	"github.com/scalasync/clc/internal/log"
	"github.com/scalasync/clc/internal/teamcomm"
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/payload"
	"github.com/scalasync/clc/stats"
	"github.com/scalasync/clc/trace"
	"github.com/scalasync/clc/violation"
)

// locHandler holds one location's per-pass dispatch state: the event-kind
// handlers registered with the replay engine for one forward pass.
type locHandler struct {
	loc     location.Coordinate
	defs    trace.Definitions
	latency location.Latency
	net     *exchange.Network
	clock   *clock.Controlled
	violations *violation.Map
	pool    *asyncpool.Pool
	stats   *stats.Stats
	log     log.Logger

	gen         map[trace.CommunicatorID]int
	forkStack   []float64
	pendingJoin map[trace.CommunicatorID]payload.Amortization
}

func newLocHandler(loc location.Coordinate, defs trace.Definitions, latency location.Latency, net *exchange.Network, c *clock.Controlled, v *violation.Map, st *stats.Stats, lg log.Logger) *locHandler {
	return &locHandler{
		loc:         loc,
		defs:        defs,
		latency:     latency,
		net:         net,
		clock:       c,
		violations:  v,
		pool:        asyncpool.New(),
		stats:       st,
		log:         lg,
		gen:         make(map[trace.CommunicatorID]int),
		pendingJoin: make(map[trace.CommunicatorID]payload.Amortization),
	}
}

func (h *locHandler) callbacks() trace.CallbackMap {
	return trace.CallbackMap{
		trace.KindLeave:           h.handleLeave,
		trace.KindSend:            h.handleSend,
		trace.KindReceive:        h.handleReceive,
		trace.KindCollectiveEnd:   h.handleCollectiveEnd,
		trace.KindThreadFork:      h.handleFork,
		trace.KindThreadTeamBegin: h.handleTeamBegin,
		trace.KindThreadTeamEnd:   h.handleTeamEnd,
		trace.KindThreadJoin:      h.handleJoin,
	}
}

// post is the per-event post-hook: every event the replay did not mark
// amortized gets the default internal amortization (spec.md §4.9).
func (h *locHandler) post(ev trace.Event, data *trace.CallbackData) {
	if data.Amortized() {
		return
	}
	ev.SetTimestamp(h.clock.Internal(ev.Timestamp()))
}

func (h *locHandler) nextGen(id trace.CommunicatorID) int {
	g := h.gen[id]
	h.gen[id] = g + 1
	return g
}

// applyReceive runs the ECLC receive operation for ev, records a
// violation if one fired, and writes the clamped result back.
func (h *locHandler) applyReceive(ev trace.Event, t, sendT, latency float64, channel location.Channel, data *trace.CallbackData) {
	internalV, violated := h.clock.Receive(t, sendT, latency, channel)
	if violated {
		h.violations.Insert(ev.Index(), internalV)
		if h.stats != nil {
			h.stats.RecordViolation(channel)
		}
	}
	ev.SetTimestamp(h.clock.Value())
	data.SetAmortized()
}

func beginTimestamp(ev trace.Event) float64 {
	if begin := ev.MatchingBegin(); begin != nil {
		return begin.Timestamp()
	}
	return ev.Timestamp()
}

func (h *locHandler) handleLeave(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	switch ev.Region() {
	case trace.RegionMPIInit, trace.RegionMPIFinalize:
		return h.handleWorldSync(ctx, ev, data)
	case trace.RegionOMPBarrier:
		if ev.InParallelRegion() {
			return h.handleTeamBarrier(ctx, ev, data)
		}
		// outside a parallel region: explicit fall-through to internal,
		// per spec.md §4.4, to avoid deadlock against absent peers.
		return nil
	default:
		return nil
	}
}

func (h *locHandler) handleWorldSync(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	world := h.defs.WorldCommunicator()
	rank := world.LocalRank(h.loc)
	if rank < 0 {
		return fmt.Errorf("forward: location %v is not a member of the world communicator", h.loc)
	}

	mine := payload.Amortization{Location: h.loc, Timestamp: beginTimestamp(ev)}
	gen := h.nextGen(world.ID)
	combined, err := h.net.AllReduce(ctx, world.ID, gen, world.Size(), rank, mine, payload.CLCMax)
	if err != nil {
		return err
	}

	latency := h.latency.Between(combined.Location, h.loc, location.ChannelCollective)
	h.applyReceive(ev, ev.Timestamp(), combined.Timestamp, latency, location.ChannelCollective, data)
	return nil
}

func (h *locHandler) handleTeamBarrier(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	members := teamcomm.Members(h.defs, h.loc)
	rank := teamcomm.LocalRank(members, h.loc)
	commID := teamcomm.CommID(h.loc)

	mine := payload.Amortization{Location: h.loc, Timestamp: beginTimestamp(ev)}
	gen := h.nextGen(commID)
	combined, err := h.net.AllReduce(ctx, commID, gen, len(members), rank, mine, payload.CLCMax)
	if err != nil {
		return err
	}

	latency := h.latency.Between(combined.Location, h.loc, location.ChannelSharedMemory)
	h.applyReceive(ev, ev.Timestamp(), combined.Timestamp, latency, location.ChannelSharedMemory, data)
	return nil
}

func (h *locHandler) handleSend(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	vAfter := h.clock.Internal(ev.Timestamp())
	ev.SetTimestamp(vAfter)
	data.SetAmortized()

	p := payload.Amortization{Location: h.loc, Timestamp: vAfter}
	done := make(chan struct{})
	dst, comm, tag := ev.Peer(), ev.Communicator(), ev.Tag()
	go func() {
		defer close(done)
		if err := h.net.Send(ctx, h.loc, dst, comm, tag, p); err != nil {
			h.log.WithError(err).Warn("forward: send did not complete")
		}
	}()
	h.pool.Post(asyncpool.Request{Done: done, Payload: p})
	h.pool.Poll()
	return nil
}

func (h *locHandler) handleReceive(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	p, err := h.net.Recv(ctx, ev.Peer(), h.loc, ev.Communicator(), ev.Tag())
	if err != nil {
		return err
	}
	latency := h.latency.Between(p.Location, h.loc, location.ChannelP2P)
	h.applyReceive(ev, ev.Timestamp(), p.Timestamp, latency, location.ChannelP2P, data)
	return nil
}

func (h *locHandler) handleCollectiveEnd(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	comm, ok := h.defs.Communicator(ev.Communicator())
	if !ok {
		return fmt.Errorf("forward: unknown communicator %d", ev.Communicator())
	}
	kind := classify.Collective(ev, comm.Size())
	if kind == trace.CollectiveOpaque {
		return nil
	}

	rank := comm.LocalRank(h.loc)
	if rank < 0 {
		return fmt.Errorf("forward: location %v is not a member of communicator %d", h.loc, comm.ID)
	}
	gen := h.nextGen(comm.ID)
	channel := location.ChannelCollective

	sideSend := func() payload.Amortization {
		if ev.BytesSent() == 0 {
			return payload.Amortization{Location: h.loc, Timestamp: math.Inf(-1)}
		}
		return payload.Amortization{Location: h.loc, Timestamp: beginTimestamp(ev)}
	}

	applyIfReceiving := func(combined payload.Amortization) {
		if ev.BytesReceived() == 0 || math.IsInf(combined.Timestamp, -1) {
			return
		}
		latency := h.latency.Between(combined.Location, h.loc, channel)
		h.applyReceive(ev, ev.Timestamp(), combined.Timestamp, latency, channel, data)
	}

	switch kind {
	case trace.CollectiveBarrier:
		mine := payload.Amortization{Location: h.loc, Timestamp: beginTimestamp(ev)}
		combined, err := h.net.AllReduce(ctx, comm.ID, gen, comm.Size(), rank, mine, payload.CLCMax)
		if err != nil {
			return err
		}
		latency := h.latency.Between(combined.Location, h.loc, channel)
		h.applyReceive(ev, ev.Timestamp(), combined.Timestamp, latency, channel, data)

	case trace.CollectiveOneToN:
		root := ev.Root()
		var mine payload.Amortization
		if rank == root {
			mine = sideSend()
		}
		combined, err := h.net.Broadcast(ctx, comm.ID, gen, comm.Size(), rank, mine, root)
		if err != nil {
			return err
		}
		if rank != root {
			applyIfReceiving(combined)
		}

	case trace.CollectiveNToN:
		combined, err := h.net.AllReduce(ctx, comm.ID, gen, comm.Size(), rank, sideSend(), payload.CLCMax)
		if err != nil {
			return err
		}
		applyIfReceiving(combined)

	case trace.CollectiveNToOne:
		root := ev.Root()
		combined, err := h.net.Reduce(ctx, comm.ID, gen, comm.Size(), rank, sideSend(), root, payload.CLCMax)
		if err != nil {
			return err
		}
		if rank == root {
			applyIfReceiving(combined)
		}

	case trace.CollectivePrefix:
		combined, err := h.net.Scan(ctx, comm.ID, gen, comm.Size(), rank, sideSend(), payload.CLCMax)
		if err != nil {
			return err
		}
		applyIfReceiving(combined)
	}
	return nil
}

func (h *locHandler) handleFork(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	vAfter := h.clock.Internal(ev.Timestamp())
	ev.SetTimestamp(vAfter)
	data.SetAmortized()
	h.forkStack = append(h.forkStack, vAfter)
	return nil
}

const teamMasterRank = 0

func (h *locHandler) handleTeamBegin(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	members := teamcomm.Members(h.defs, h.loc)
	rank := teamcomm.LocalRank(members, h.loc)
	commID := teamcomm.CommID(h.loc)

	var mine payload.Amortization
	if rank == teamMasterRank {
		if len(h.forkStack) == 0 {
			return fmt.Errorf("forward: thread team begin with no matching fork at %v", h.loc)
		}
		mine = payload.Amortization{Location: h.loc, Timestamp: h.forkStack[len(h.forkStack)-1]}
	}

	gen := h.nextGen(commID)
	combined, err := h.net.Broadcast(ctx, commID, gen, len(members), rank, mine, teamMasterRank)
	if err != nil {
		return err
	}

	latency := h.latency.Between(combined.Location, h.loc, location.ChannelSharedMemory)
	h.applyReceive(ev, ev.Timestamp(), combined.Timestamp, latency, location.ChannelSharedMemory, data)
	return nil
}

func (h *locHandler) handleTeamEnd(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	vAfter := h.clock.Internal(ev.Timestamp())
	ev.SetTimestamp(vAfter)
	data.SetAmortized()

	members := teamcomm.Members(h.defs, h.loc)
	rank := teamcomm.LocalRank(members, h.loc)
	commID := teamcomm.CommID(h.loc)

	mine := payload.Amortization{Location: h.loc, Timestamp: vAfter}
	gen := h.nextGen(commID)
	combined, err := h.net.AllReduce(ctx, commID, gen, len(members), rank, mine, payload.CLCMax)
	if err != nil {
		return err
	}
	h.pendingJoin[commID] = combined
	return nil
}

func (h *locHandler) handleJoin(ctx context.Context, ev trace.Event, data *trace.CallbackData) error {
	commID := teamcomm.CommID(h.loc)
	combined, ok := h.pendingJoin[commID]
	if !ok {
		return fmt.Errorf("forward: thread join with no matching team-end at %v", h.loc)
	}
	delete(h.pendingJoin, commID)

	latency := h.latency.Between(combined.Location, h.loc, location.ChannelSharedMemory)
	h.applyReceive(ev, ev.Timestamp(), combined.Timestamp, latency, location.ChannelSharedMemory, data)

	if len(h.forkStack) > 0 {
		h.forkStack = h.forkStack[:len(h.forkStack)-1]
	}
	return nil
}
