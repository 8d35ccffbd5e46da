package layout

import "math"

// Scores is the per-axis breakdown of one panel's fit in one cell.
// Every field lies in [0,1].
type Scores struct {
	Size      float64
	Aspect    float64
	Region    float64
	Stability float64
	// Optimization is the weighted mean of Size, Aspect and Region.
	Optimization float64
	// Final blends Optimization with Stability by the stability weight.
	Final float64
}

// SizeScore rates how close the cell's share of the canvas area is to the
// target fraction for class.
func SizeScore(cell, canvas Cell, target float64) float64 {
	canvasArea := canvas.Area()
	if canvasArea <= 0 {
		return 0
	}
	rel := cell.Area() / canvasArea
	return clamp01(1 - math.Abs(rel-target)/math.Max(target, epsilon))
}

// AspectScore rates how close the cell's width/height is to targetRatio.
// Non-positive targets are clamped to a small positive value.
func AspectScore(cell Cell, targetRatio float64) float64 {
	if cell.Empty() {
		return 0
	}
	target := sanitizeRatio(targetRatio)
	ratio := cell.Ratio()
	return clamp01(1 - math.Min(1, math.Abs(target-ratio)/math.Max(math.Max(target, ratio), epsilon)))
}

// RegionScore rates how close the cell's normalized center is to the
// region's anchor. Distances are normalized by the unit-square diagonal.
func RegionScore(cell, canvas Cell, region Region) float64 {
	if canvas.Empty() {
		return 0
	}
	center := canvas.Normalize(cell.Center())
	return invertDistance(center.Dist(region.Anchor()))
}

// StabilityScore rates how little the cell moved relative to prev. A panel
// with no previous cell scores a perfect 1 so new panels are never
// penalized for "moving".
func StabilityScore(cell Cell, prev *Cell, canvas Cell) float64 {
	if prev == nil {
		return 1
	}
	if canvas.Empty() {
		return 0
	}
	a := canvas.Normalize(cell.Center())
	b := canvas.Normalize(prev.Center())
	return invertDistance(a.Dist(b))
}

// Score evaluates panel p in cell against the canvas, the optional previous
// cell and the stability weight.
func (c Config) Score(p Panel, cell, canvas Cell, prev *Cell, stabilityWeight float64) Scores {
	var s Scores
	s.Size = SizeScore(cell, canvas, c.SizeTargets.For(p.Targets.Size))
	s.Aspect = AspectScore(cell, p.Targets.AspectRatio)
	s.Region = RegionScore(cell, canvas, p.Targets.Region)
	s.Stability = StabilityScore(cell, prev, canvas)

	w := c.Weights
	sum := w.Size + w.Aspect + w.Region
	if sum > 0 {
		s.Optimization = (w.Size*s.Size + w.Aspect*s.Aspect + w.Region*s.Region) / sum
	} else {
		s.Optimization = (s.Size + s.Aspect + s.Region) / 3
	}
	s.Optimization = clamp01(s.Optimization)

	sw := clamp01(stabilityWeight)
	s.Final = clamp01((1-sw)*s.Optimization + sw*s.Stability)
	return s
}

func invertDistance(d float64) float64 {
	return clamp01(1 - math.Min(1, d/math.Sqrt2))
}

func sanitizeRatio(r float64) float64 {
	if math.IsNaN(r) || r <= 0 {
		return minAspectRatio
	}
	if math.IsInf(r, 1) {
		return 1 / minAspectRatio
	}
	return r
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
