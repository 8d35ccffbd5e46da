// Package pipeline computes layouts for protocol requests.
//
// This package sits between the transports (CLI, HTTP API, websocket
// sessions, in-process workers) and the optimizer. By centralizing the
// request → search → response path here, every entry point shares the same
// defaults, caching and instrumentation.
//
// # Stages
//
// One computation runs three steps:
//
//  1. Resolve: turn wire panels into optimizer panels (kind defaults,
//     explicit overrides) and short-circuit degenerate input
//  2. Search: look up the cache, otherwise run the anytime search within
//     the time budget
//  3. Respond: stamp the response with the request id and store it
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Budget: 50 * time.Millisecond}
//	resp := runner.Compute(ctx, req, opts)
//	for _, a := range resp.Assignments {
//	    fmt.Println(a.PanelID, a.Cell)
//	}
//
// Compute never fails. Zero panels or a canvas without area produce an
// empty assignment list, and cache errors are treated as misses.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panelgrid/pkg/cache"
	"github.com/matzehuels/panelgrid/pkg/config"
	"github.com/matzehuels/panelgrid/pkg/layout"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultBudget is the wall-clock budget of one anytime search.
	DefaultBudget = layout.DefaultBudget

	// DefaultStabilityWeight is the stability weight a controller starts
	// with when none is configured.
	DefaultStabilityWeight = 0.3

	// DefaultCanvasWidth is the canvas width used when a request omits it
	// on the command line.
	DefaultCanvasWidth = 1600.0

	// DefaultCanvasHeight is the canvas height used when a request omits it
	// on the command line.
	DefaultCanvasHeight = 900.0
)

// =============================================================================
// Options - Search Configuration
// =============================================================================

// Options configures how requests are solved. Everything that changes the
// resulting layout is part of the cache key.
type Options struct {
	// Layout holds optimizer settings. Zero fields fall back to
	// layout.DefaultConfig.
	Layout layout.Config

	// Budget bounds the anytime search. Zero means DefaultBudget; negative
	// runs the deterministic partitioner once.
	Budget time.Duration

	// Seed fixes the perturbation rng. Zero seeds from the clock, which
	// makes repeated searches explore different optima.
	Seed uint64

	// MaxRuns caps the number of partitioner runs. Zero is unbounded.
	MaxRuns int

	// NoCache bypasses the result cache for this computation.
	NoCache bool

	// Logger receives progress output. Nil uses the runner's logger.
	Logger *log.Logger

	// Progress, if set, is called after every search run. It is not
	// called for cached results.
	Progress func(run int, total float64, improved bool)
}

// OptionsFromConfig builds options from a loaded configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Layout:  cfg.LayoutOptions(),
		Budget:  cfg.Layout.Budget.Duration,
		Seed:    cfg.Layout.Seed,
		MaxRuns: cfg.Layout.MaxRuns,
	}
}

// SetDefaults fills zero-valued fields. It is idempotent.
func (o *Options) SetDefaults() {
	if o.Budget == 0 {
		o.Budget = DefaultBudget
	}
	o.Layout = layout.New(o.Layout).Config()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Search returns the anytime driver configured by o.
func (o *Options) Search() layout.Search {
	return layout.Search{
		Config:   o.Layout,
		Budget:   o.Budget,
		Seed:     o.Seed,
		MaxRuns:  o.MaxRuns,
		Progress: o.Progress,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	l := o.Layout
	return cache.LayoutKeyOpts{
		Budget:       o.Budget,
		Seed:         o.Seed,
		MaxRuns:      o.MaxRuns,
		Distribution: l.Distribution.String(),
		Ratios:       l.Ratios,
		Weights:      [3]float64{l.Weights.Size, l.Weights.Aspect, l.Weights.Region},
		SizeTargets:  [3]float64{l.SizeTargets.Small, l.SizeTargets.Medium, l.SizeTargets.Large},
		Jitter:       l.Jitter,
		Threshold:    l.PreferenceThreshold,
		Continuity:   !l.DisableContinuity,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of one computation.
type Result struct {
	// Response is the wire response, stamped with the request id.
	Response protocol.Response

	// Tree is the decision tree of the winning run. It is nil when the
	// response came from the cache or the input was degenerate.
	Tree *layout.Tree

	// Stats contains search statistics.
	Stats protocol.Stats

	// CacheHit reports whether the layout came from the cache.
	CacheHit bool
}

// requestKey is the part of a request that determines its layout. The
// request id and drag state are deliberately absent.
type requestKey struct {
	Panels    []layout.Panel         `json:"panels"`
	Canvas    layout.Cell            `json:"canvas"`
	Previous  map[string]layout.Cell `json:"previous"`
	Stability float64                `json:"stability"`
}

// cachedLayout is the cache payload.
type cachedLayout struct {
	Assignments []protocol.AssignmentSpec `json:"assignments"`
	Stats       protocol.Stats            `json:"stats"`
}
