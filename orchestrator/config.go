package orchestrator

import (
	"github.com/scalasync/clc/commcache"
	"github.com/scalasync/clc/internal/log"
	"github.com/scalasync/clc/location"
	"github.com/scalasync/clc/stats"
)

// Config holds Synchronizer configuration. Build one with DefaultConfig
// and functional Options, or construct directly; zero-valued fields are
// replaced with their documented defaults by New.
type Config struct {
	// PassBudget caps the number of forward-amortization passes.
	// Default: 1.
	PassBudget int

	// ErrorThreshold is the global relative clock-error fraction below
	// which the forward pass loop stops early. Default: 0.05.
	ErrorThreshold float64

	// Latency is the per-channel latency model consulted by both
	// amortization phases. Default: location.DefaultLatency().
	Latency location.Latency

	// Colour is the split colour used when building reversed
	// communicators for backward prefix-reductions. Default:
	// commcache.DefaultColour.
	Colour int

	// Logger receives structured progress and warning output from both
	// amortization phases. Default: log.Discard{}.
	Logger log.Logger

	// StatsProvider backs the counters and histograms reported by
	// PrintStatistics. Default: stats.NoopProvider{}.
	StatsProvider stats.Provider
}

// DefaultConfig returns the Config used when New is given no Options.
func DefaultConfig() Config {
	return Config{
		PassBudget:     1,
		ErrorThreshold: 0.05,
		Latency:        location.DefaultLatency(),
		Colour:         commcache.DefaultColour,
		Logger:         log.Discard{},
		StatsProvider:  stats.NoopProvider{},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PassBudget > 0 {
		d.PassBudget = c.PassBudget
	}
	if c.ErrorThreshold > 0 {
		d.ErrorThreshold = c.ErrorThreshold
	}
	if (c.Latency != location.Latency{}) {
		d.Latency = c.Latency
	}
	if c.Colour != 0 {
		d.Colour = c.Colour
	}
	if c.Logger != nil {
		d.Logger = c.Logger
	}
	if c.StatsProvider != nil {
		d.StatsProvider = c.StatsProvider
	}
	return d
}

// Option configures a Config. Use with New.
type Option func(*Config)

// WithPassBudget overrides the forward pass budget (must be > 0).
func WithPassBudget(n int) Option {
	return func(c *Config) {
		if n <= 0 {
			panic("orchestrator: WithPassBudget requires n > 0")
		}
		c.PassBudget = n
	}
}

// WithErrorThreshold overrides the forward termination threshold (must
// be > 0).
func WithErrorThreshold(threshold float64) Option {
	return func(c *Config) {
		if threshold <= 0 {
			panic("orchestrator: WithErrorThreshold requires threshold > 0")
		}
		c.ErrorThreshold = threshold
	}
}

// WithLatency overrides the latency model used by both phases.
func WithLatency(l location.Latency) Option {
	return func(c *Config) { c.Latency = l }
}

// WithLogger overrides the logger both phases report through.
func WithLogger(l log.Logger) Option {
	return func(c *Config) {
		if l == nil {
			panic("orchestrator: WithLogger requires a non-nil Logger")
		}
		c.Logger = l
	}
}

// WithMetrics overrides the stats.Provider backing PrintStatistics.
func WithMetrics(p stats.Provider) Option {
	return func(c *Config) {
		if p == nil {
			panic("orchestrator: WithMetrics requires a non-nil Provider")
		}
		c.StatsProvider = p
	}
}

// WithColour overrides the reverse-communicator-cache split colour.
func WithColour(colour int) Option {
	return func(c *Config) { c.Colour = colour }
}
