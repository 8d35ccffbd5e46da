package observability

import (
	"context"
	"sync"
	"time"
)

// Counters implements every hook interface by keeping running totals.
// It is safe for concurrent use.
type Counters struct {
	mu sync.Mutex
	s  Snapshot
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Searches          int64   `json:"searches"`
	SearchRuns        int64   `json:"searchRuns"`
	Improvements      int64   `json:"improvements"`
	SearchMillis      float64 `json:"searchMillis"`
	LastTotal         float64 `json:"lastTotal"`
	RequestsSent      int64   `json:"requestsSent"`
	Accepted          int64   `json:"accepted"`
	Discarded         int64   `json:"discarded"`
	LatencyMillis     float64 `json:"latencyMillis"`
	CacheHits         int64   `json:"cacheHits"`
	CacheMisses       int64   `json:"cacheMisses"`
	CacheSets         int64   `json:"cacheSets"`
	CacheBytesWritten int64   `json:"cacheBytesWritten"`
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Snapshot returns a copy of the current totals.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

func (c *Counters) update(fn func(*Snapshot)) {
	c.mu.Lock()
	fn(&c.s)
	c.mu.Unlock()
}

func (c *Counters) OnSearchStart(context.Context, int) {}

func (c *Counters) OnSearchComplete(_ context.Context, _, runs, improvements int, total float64, d time.Duration) {
	c.update(func(s *Snapshot) {
		s.Searches++
		s.SearchRuns += int64(runs)
		s.Improvements += int64(improvements)
		s.SearchMillis += float64(d) / float64(time.Millisecond)
		s.LastTotal = total
	})
}

func (c *Counters) OnRequestSent(context.Context, uint64, int) {
	c.update(func(s *Snapshot) { s.RequestsSent++ })
}

func (c *Counters) OnResponseAccepted(_ context.Context, _ uint64, latency time.Duration) {
	c.update(func(s *Snapshot) {
		s.Accepted++
		s.LatencyMillis += float64(latency) / float64(time.Millisecond)
	})
}

func (c *Counters) OnResponseDiscarded(context.Context, uint64, uint64) {
	c.update(func(s *Snapshot) { s.Discarded++ })
}

func (c *Counters) OnCacheHit(context.Context, string) {
	c.update(func(s *Snapshot) { s.CacheHits++ })
}

func (c *Counters) OnCacheMiss(context.Context, string) {
	c.update(func(s *Snapshot) { s.CacheMisses++ })
}

func (c *Counters) OnCacheSet(_ context.Context, _ string, size int) {
	c.update(func(s *Snapshot) {
		s.CacheSets++
		s.CacheBytesWritten += int64(size)
	})
}

var (
	_ SearchHooks = (*Counters)(nil)
	_ WorkerHooks = (*Counters)(nil)
	_ CacheHooks  = (*Counters)(nil)
)
