package layout

import (
	"fmt"
	"strings"
	"time"
)

// Distribution controls how strictly the group sizes implied by a split ratio
// are enforced when panels are distributed between the two sides of a cut.
type Distribution int

const (
	// DistributionStrict gives the first side exactly round(n*ratio) panels.
	DistributionStrict Distribution = iota
	// DistributionBestEffort lets every panel go to the side it prefers and
	// only intervenes to keep both sides non-empty.
	DistributionBestEffort
)

func (d Distribution) String() string {
	if d == DistributionBestEffort {
		return "best-effort"
	}
	return "strict"
}

// ParseDistribution converts "strict" or "best-effort" into a Distribution.
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return DistributionStrict, nil
	case "best-effort", "besteffort", "best_effort", "advisory":
		return DistributionBestEffort, nil
	}
	return 0, fmt.Errorf("unknown distribution %q (must be one of: strict, best-effort)", s)
}

// SizeTargets maps each size class to a target fraction of canvas area.
type SizeTargets struct {
	Small  float64
	Medium float64
	Large  float64
}

// For returns the target fraction for class s.
func (t SizeTargets) For(s SizeClass) float64 {
	switch s {
	case SizeSmall:
		return t.Small
	case SizeLarge:
		return t.Large
	default:
		return t.Medium
	}
}

// Weights are the blend coefficients of the three fit axes. The optimization
// score is their weighted mean.
type Weights struct {
	Size   float64
	Aspect float64
	Region float64
}

// Search timeouts, mirroring the quality presets used elsewhere.
const (
	// DefaultBudget is the wall-clock budget of one anytime optimization.
	DefaultBudget = 100 * time.Millisecond

	// DefaultJitter is the maximum ratio perturbation in randomized runs.
	DefaultJitter = 0.05

	// DefaultPreferenceThreshold is the fit gap below which a panel is
	// considered indifferent between the two sides of a cut.
	DefaultPreferenceThreshold = 0.01

	// epsilon guards every division in the scoring model.
	epsilon = 1e-9

	// minAspectRatio replaces non-positive aspect-ratio targets.
	minAspectRatio = 1e-3
)

// DefaultRatios are the candidate split fractions tried at every cut.
var DefaultRatios = []float64{0.3, 0.4, 0.5, 0.6, 0.7}

// Config tunes the scoring model and the partitioner.
type Config struct {
	SizeTargets         SizeTargets
	Weights             Weights
	Ratios              []float64
	Distribution        Distribution
	PreferenceThreshold float64
	// Jitter is the maximum absolute perturbation applied to candidate
	// ratios in randomized (anytime) runs. Deterministic runs ignore it.
	Jitter float64
	// DisableContinuity turns off the continuity split candidate.
	DisableContinuity bool
}

// DefaultConfig returns the reference tuning: a straight mean of the three
// fit axes, five candidate ratios and strict group sizes.
func DefaultConfig() Config {
	return Config{
		SizeTargets:         SizeTargets{Small: 0.15, Medium: 0.30, Large: 0.50},
		Weights:             Weights{Size: 1, Aspect: 1, Region: 1},
		Ratios:              append([]float64(nil), DefaultRatios...),
		Distribution:        DistributionStrict,
		PreferenceThreshold: DefaultPreferenceThreshold,
		Jitter:              DefaultJitter,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig. The zero
// Config is DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.isZero() {
		return d
	}
	if c.SizeTargets == (SizeTargets{}) {
		c.SizeTargets = d.SizeTargets
	}
	if c.Weights.Size < 0 || c.Weights.Aspect < 0 || c.Weights.Region < 0 ||
		c.Weights.Size+c.Weights.Aspect+c.Weights.Region <= 0 {
		c.Weights = d.Weights
	}
	ratios := make([]float64, 0, len(c.Ratios))
	for _, r := range c.Ratios {
		if r > 0 && r < 1 {
			ratios = append(ratios, r)
		}
	}
	if len(ratios) == 0 {
		ratios = d.Ratios
	}
	c.Ratios = ratios
	if c.PreferenceThreshold < 0 {
		c.PreferenceThreshold = 0
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}

func (c Config) isZero() bool {
	return c.SizeTargets == (SizeTargets{}) && c.Weights == (Weights{}) && c.Ratios == nil &&
		c.Distribution == DistributionStrict && c.PreferenceThreshold == 0 && c.Jitter == 0 && !c.DisableContinuity
}
