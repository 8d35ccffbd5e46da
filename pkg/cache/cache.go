// Package cache stores computed layouts so identical requests skip the
// anytime search.
//
// The optimizer is pure: the same panels, canvas, previous layout, stability
// weight and options always describe the same problem. [Keyer] hashes those
// inputs into a key; the request id and drag state are not part of it.
//
// Three backends implement [Cache]:
//   - [NullCache] never stores anything (caching disabled)
//   - [FileCache] keeps JSON entries below a directory, for the CLI
//   - [RedisCache] shares entries between server instances
//
// Cache failures never fail a computation. Callers treat read errors as
// misses and only log write errors.
package cache

import (
	"context"
	"time"
)

// TTLLayout is the default lifetime of a cached layout.
const TTLLayout = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey returns the key for a layout computed from the request
	// identified by requestHash under opts.
	LayoutKey(requestHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the optimizer options that change a layout result.
type LayoutKeyOpts struct {
	Budget       time.Duration `json:"budget"`
	Seed         uint64        `json:"seed"`
	MaxRuns      int           `json:"max_runs"`
	Distribution string        `json:"distribution"`
	Ratios       []float64     `json:"ratios"`
	Weights      [3]float64    `json:"weights"`
	SizeTargets  [3]float64    `json:"size_targets"`
	Jitter       float64       `json:"jitter"`
	Threshold    float64       `json:"threshold"`
	Continuity   bool          `json:"continuity"`
}

// DefaultKeyer generates unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(requestHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", requestHash, opts)
}

// Clearer is implemented by backends that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}
