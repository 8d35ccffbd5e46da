package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panelgrid/pkg/cache"
	"github.com/matzehuels/panelgrid/pkg/layout"
	"github.com/matzehuels/panelgrid/pkg/observability"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

// Runner encapsulates layout computation with caching.
// The CLI, the HTTP API and background workers all use it to avoid
// duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached layouts. Zero means cache.TTLLayout.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Compute solves req and returns its response. It never fails.
func (r *Runner) Compute(ctx context.Context, req protocol.Request, opts Options) protocol.Response {
	return r.ComputeWithCacheInfo(ctx, req, opts).Response
}

// ComputeWithCacheInfo solves req and reports how the answer was produced.
func (r *Runner) ComputeWithCacheInfo(ctx context.Context, req protocol.Request, opts Options) Result {
	r.applyLogger(&opts)
	opts.SetDefaults()

	panels := req.LayoutPanels()
	canvas := req.Canvas()
	if len(panels) == 0 || canvas.Empty() {
		return Result{Response: protocol.NewResponse(req.RequestID, nil)}
	}

	key := ""
	if !opts.NoCache {
		key = r.cacheKey(req, panels, opts)
	}
	if key != "" {
		if res, ok := r.lookup(ctx, key, req.RequestID); ok {
			opts.Logger.Debug("layout cache hit", "request", req.RequestID, "panels", len(panels))
			return res
		}
	}

	res := r.search(ctx, req, panels, opts)

	if key != "" {
		r.store(ctx, key, res)
	}
	return res
}

// Explain runs the search without the cache and returns the winning
// decision tree. Degenerate input yields an empty tree.
func (r *Runner) Explain(ctx context.Context, req protocol.Request, opts Options) *layout.Tree {
	opts.NoCache = true
	res := r.ComputeWithCacheInfo(ctx, req, opts)
	if res.Tree == nil {
		return &layout.Tree{Bounds: req.Canvas(), Kind: layout.KindEmpty}
	}
	return res.Tree
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) search(ctx context.Context, req protocol.Request, panels []layout.Panel, opts Options) Result {
	hooks := observability.Search()
	hooks.OnSearchStart(ctx, len(panels))

	s := opts.Search()
	out := s.Optimize(ctx, req.Canvas(), panels, req.Previous(), req.StabilityWeight)

	hooks.OnSearchComplete(ctx, len(panels), out.Runs, out.Improvements, out.Total, out.Elapsed)
	opts.Logger.Debug("computed layout",
		"request", req.RequestID,
		"panels", len(panels),
		"runs", out.Runs,
		"improvements", out.Improvements,
		"total", out.Total,
		"duration", out.Elapsed)

	stats := protocol.Stats{
		Runs:          out.Runs,
		Improvements:  out.Improvements,
		Total:         out.Total,
		ElapsedMillis: float64(out.Elapsed) / float64(time.Millisecond),
	}
	resp := protocol.NewResponse(req.RequestID, out.Assignments)
	resp.Stats = &stats
	return Result{Response: resp, Tree: out.Tree, Stats: stats}
}

// cacheKey hashes the layout-relevant part of req. An unhashable request
// (for example one holding NaN) is computed without caching.
func (r *Runner) cacheKey(req protocol.Request, panels []layout.Panel, opts Options) string {
	h, err := cache.HashJSON(requestKey{
		Panels:    panels,
		Canvas:    req.Canvas(),
		Previous:  req.PreviousIndex,
		Stability: req.StabilityWeight,
	})
	if err != nil {
		opts.Logger.Debug("request not cacheable", "error", err)
		return ""
	}
	return r.Keyer.LayoutKey(h, opts.LayoutKeyOpts())
}

func (r *Runner) lookup(ctx context.Context, key string, requestID uint64) (Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return Result{}, false
	}

	var cached cachedLayout
	if err := json.Unmarshal(data, &cached); err != nil {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return Result{}, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")

	stats := cached.Stats
	stats.Cached = true
	assignments := cached.Assignments
	if assignments == nil {
		assignments = []protocol.AssignmentSpec{}
	}
	resp := protocol.Response{RequestID: requestID, Assignments: assignments, Stats: &stats}
	return Result{Response: resp, Stats: stats, CacheHit: true}, true
}

func (r *Runner) store(ctx context.Context, key string, res Result) {
	data, err := json.Marshal(cachedLayout{Assignments: res.Response.Assignments, Stats: res.Stats})
	if err != nil {
		return
	}
	ttl := r.TTL
	if ttl == 0 {
		ttl = cache.TTLLayout
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "layout", len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
