// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about layout searches, worker round-trips, and cache
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the layout packages
// never import a metrics backend. [Counters] is a ready-made implementation
// that keeps totals in memory; the server exposes it at /metrics.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    counters := observability.NewCounters()
//	    observability.SetSearchHooks(counters)
//	    observability.SetWorkerHooks(counters)
//	    observability.SetCacheHooks(counters)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Search().OnSearchStart(ctx, len(panels))
//	// ... optimize ...
//	observability.Search().OnSearchComplete(ctx, len(panels), runs, improvements, total, elapsed)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Search Hooks
// =============================================================================

// SearchHooks receives events from the anytime layout search.
type SearchHooks interface {
	// OnSearchStart records the start of one optimization.
	OnSearchStart(ctx context.Context, panels int)

	// OnSearchComplete records a finished optimization with its run count,
	// number of improving runs and best weighted total.
	OnSearchComplete(ctx context.Context, panels, runs, improvements int, total float64, duration time.Duration)
}

// =============================================================================
// Worker Hooks
// =============================================================================

// WorkerHooks receives events from the controller/worker boundary.
type WorkerHooks interface {
	// OnRequestSent records a request handed to the background worker.
	OnRequestSent(ctx context.Context, requestID uint64, panels int)

	// OnResponseAccepted records a response matching the latest request id.
	OnResponseAccepted(ctx context.Context, requestID uint64, latency time.Duration)

	// OnResponseDiscarded records a stale response that was dropped.
	OnResponseDiscarded(ctx context.Context, requestID, latestID uint64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnSearchStart(context.Context, int) {}
func (NoopSearchHooks) OnSearchComplete(context.Context, int, int, int, float64, time.Duration) {
}

// NoopWorkerHooks is a no-op implementation of WorkerHooks.
type NoopWorkerHooks struct{}

func (NoopWorkerHooks) OnRequestSent(context.Context, uint64, int)                {}
func (NoopWorkerHooks) OnResponseAccepted(context.Context, uint64, time.Duration) {}
func (NoopWorkerHooks) OnResponseDiscarded(context.Context, uint64, uint64)       {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	searchHooks SearchHooks = NoopSearchHooks{}
	workerHooks WorkerHooks = NoopWorkerHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetSearchHooks registers custom search hooks.
// This should be called once at application startup before any searches run.
func SetSearchHooks(h SearchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		searchHooks = h
	}
}

// SetWorkerHooks registers custom worker hooks.
// This should be called once at application startup before any controller is created.
func SetWorkerHooks(h WorkerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		workerHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Search returns the registered search hooks.
func Search() SearchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return searchHooks
}

// Worker returns the registered worker hooks.
func Worker() WorkerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return workerHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	searchHooks = NoopSearchHooks{}
	workerHooks = NoopWorkerHooks{}
	cacheHooks = NoopCacheHooks{}
}
