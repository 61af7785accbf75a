// Package orchestrator wires forward and backward amortization together
// into the engine's two public operations (spec.md §6): synchronize(),
// which mutates a trace's event timestamps in place, and
// print_statistics(), which reports the counters spec.md §4.10 names.
//
// Construction
//   - New(defs, sources, replay, opts ...Option): assembles a
//     Synchronizer from trace.Definitions, a trace.StreamSource and a
//     Replay (forward and backward), configured by functional Options
//     over DefaultConfig.
//
// Defaults
// Unless overridden, the following defaults apply:
//   - PassBudget: 1
//   - ErrorThreshold: 0.05
//   - Latency: location.DefaultLatency()
//   - Colour: commcache.DefaultColour
//   - Logger: log.Discard{}
//   - StatsProvider: stats.NoopProvider{}
//
// Lifecycle
// Synchronize always runs the forward pass loop. It runs the backward
// phase only when the forward phase's globally summed violation count is
// greater than zero, per spec.md §4.5.
package orchestrator
