package orchestrator

import (
	"context"
	"io"

	"github.com/scalasync/clc/backward"
	"github.com/scalasync/clc/commcache"
	"github.com/scalasync/clc/forward"
	"github.com/scalasync/clc/stats"
	"github.com/scalasync/clc/trace"
)

// Replay is the pair of replay directions both amortization phases need.
// trace/memtrace.SequentialReplay satisfies it, as would an adapter over
// the external trace infrastructure's forward_replay/backward_replay
// API (spec.md §6).
type Replay interface {
	trace.ForwardReplay
	trace.BackwardReplay
}

// Synchronizer runs forward amortization and, when it reports any
// violation, backward amortization, over one trace (spec.md §6
// synchronize()).
type Synchronizer struct {
	defs    trace.Definitions
	sources trace.StreamSource
	replay  Replay
	cfg     Config

	stats *stats.Stats
	last  stats.Snapshot
}

// New returns a Synchronizer configured by opts over DefaultConfig.
func New(defs trace.Definitions, sources trace.StreamSource, replay Replay, opts ...Option) *Synchronizer {
	cfg := Config{}
	for _, opt := range opts {
		if opt == nil {
			panic("orchestrator: nil Option")
		}
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	return &Synchronizer{
		defs:    defs,
		sources: sources,
		replay:  replay,
		cfg:     cfg,
		stats:   stats.New(cfg.StatsProvider),
	}
}

// Synchronize runs forward amortization, then conditionally backward
// amortization, mutating every location's event timestamps in place
// (spec.md §6). It returns the statistics snapshot taken immediately
// afterward; the same snapshot is available later via PrintStatistics.
func (s *Synchronizer) Synchronize(ctx context.Context) (stats.Snapshot, error) {
	if len(s.defs.Locations()) == 0 {
		return stats.Snapshot{}, ErrNoLocations
	}

	s.stats.Start()

	fe := &forward.Engine{
		Defs:       s.defs,
		Replay:     s.replay,
		Latency:    s.cfg.Latency,
		Logger:     s.cfg.Logger,
		Stats:      s.stats,
		Threshold:  s.cfg.ErrorThreshold,
		PassBudget: s.cfg.PassBudget,
	}
	fwdResult, err := fe.Run(ctx, s.sources)
	if err != nil {
		return stats.Snapshot{}, err
	}

	if fwdResult.TotalViolations() > 0 {
		be := &backward.Engine{
			Defs:      s.defs,
			Replay:    s.replay,
			Latency:   s.cfg.Latency,
			Logger:    s.cfg.Logger,
			Stats:     s.stats,
			CommCache: commcache.New(s.cfg.Colour),
		}
		if _, err := be.Run(ctx, s.sources, fwdResult); err != nil {
			return stats.Snapshot{}, err
		}
	}

	s.last = s.stats.Snapshot()
	return s.last, nil
}

// PrintStatistics writes the human-readable report from the most recent
// Synchronize call to w, from the root process (spec.md §6
// print_statistics()). Calling it before Synchronize prints a zeroed
// report.
func (s *Synchronizer) PrintStatistics(w io.Writer) error {
	return s.last.Print(w)
}
