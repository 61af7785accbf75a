package memtrace

import (
	"context"

	"github.com/scalasync/clc/trace"
)

// SequentialReplay is the reference ForwardReplay/BackwardReplay
// implementation: a single loop over a Stream's events in index order
// (forward) or reverse index order (backward), invoking the pre-hook,
// the handler registered for the event's kind, and the post-hook. It
// stands in for the external replay engine described in spec.md §6.
type SequentialReplay struct{}

var (
	_ trace.ForwardReplay  = SequentialReplay{}
	_ trace.BackwardReplay = SequentialReplay{}
)

func (SequentialReplay) Replay(
	ctx context.Context, stream trace.Stream, callbacks trace.CallbackMap, post func(trace.Event, *trace.CallbackData),
) error {
	data := &trace.CallbackData{}
	for i := 0; i < stream.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := stream.EventAt(i)
		if err := step(ctx, ev, callbacks, data, post); err != nil {
			return err
		}
	}
	return nil
}

func (SequentialReplay) ReplayBackward(
	ctx context.Context, stream trace.Stream, callbacks trace.CallbackMap, post func(trace.Event, *trace.CallbackData),
) error {
	data := &trace.CallbackData{}
	for i := stream.Len() - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := stream.EventAt(i)
		if err := step(ctx, ev, callbacks, data, post); err != nil {
			return err
		}
	}
	return nil
}

func step(
	ctx context.Context, ev trace.Event, callbacks trace.CallbackMap, data *trace.CallbackData,
	post func(trace.Event, *trace.CallbackData),
) error {
	data.Reset()
	if h, ok := callbacks[ev.Kind()]; ok {
		if err := h(ctx, ev, data); err != nil {
			return err
		}
	}
	post(ev, data)
	return nil
}
