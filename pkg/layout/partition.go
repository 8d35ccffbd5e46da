package layout

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"
)

// Optimizer runs the recursive space partitioner with a fixed configuration.
//
// An Optimizer without a random source is deterministic: the same inputs
// always produce the same layout. The anytime driver derives randomized
// copies with [Optimizer.WithRand] to explore other local optima.
type Optimizer struct {
	cfg Config
	rng *rand.Rand
}

// New creates an optimizer. The zero Config means [DefaultConfig].
// Otherwise zero size targets, weights and ratios fall back to their
// defaults while a zero jitter or preference threshold is kept.
func New(cfg Config) *Optimizer {
	return &Optimizer{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// WithRand returns a copy of o that jitters candidate ratios and breaks
// preference ties using rng. A nil rng yields a deterministic copy.
func (o *Optimizer) WithRand(rng *rand.Rand) *Optimizer {
	cp := *o
	cp.rng = rng
	return &cp
}

// Partition assigns every panel a non-overlapping cell inside bounds.
// It is a convenience wrapper around an optimizer with [DefaultConfig].
func Partition(bounds Cell, panels []Panel, prev PreviousIndex, stabilityWeight float64) []Assignment {
	return New(DefaultConfig()).Partition(bounds, panels, prev, stabilityWeight)
}

// Partition assigns every panel a non-overlapping cell inside bounds and
// returns the assignments in input panel order.
//
// Degenerate inputs never fail: zero panels or a bound without positive
// area yield an empty (non-nil) slice.
func (o *Optimizer) Partition(bounds Cell, panels []Panel, prev PreviousIndex, stabilityWeight float64) []Assignment {
	return o.Explain(bounds, panels, prev, stabilityWeight).Assignments()
}

// Explain runs the partitioner and returns its full decision tree.
func (o *Optimizer) Explain(bounds Cell, panels []Panel, prev PreviousIndex, stabilityWeight float64) *Tree {
	if len(panels) == 0 || bounds.Empty() || !finite(bounds) {
		return &Tree{Bounds: bounds, Kind: KindEmpty}
	}
	p := &problem{
		cfg:    o.cfg,
		canvas: bounds,
		sw:     clamp01(stabilityWeight),
		rng:    o.rng,
	}
	return p.solve(bounds, p.entries(panels, prev))
}

// =============================================================================
// Search
// =============================================================================

// problem is the read-only context shared by one recursive descent.
type problem struct {
	cfg    Config
	canvas Cell
	sw     float64
	rng    *rand.Rand
}

// entry is a sanitized copy of an input panel.
type entry struct {
	panel Panel
	index int
	prev  *Cell
}

func (p *problem) entries(panels []Panel, prev PreviousIndex) []entry {
	out := make([]entry, len(panels))
	for i, in := range panels {
		pn := in
		switch {
		case math.IsNaN(pn.Weight) || pn.Weight < 0:
			pn.Weight = 0
		case math.IsInf(pn.Weight, 1):
			pn.Weight = math.MaxFloat32
		}
		pn.Targets.AspectRatio = sanitizeRatio(pn.Targets.AspectRatio)
		if pn.Targets.Size < SizeSmall || pn.Targets.Size > SizeLarge {
			pn.Targets.Size = SizeMedium
		}
		if pn.Targets.Region < RegionCenter || pn.Targets.Region > RegionBottomRight {
			pn.Targets.Region = RegionCenter
		}
		out[i] = entry{panel: pn, index: i, prev: prev.Lookup(pn.ID)}
	}
	return out
}

func (p *problem) fit(e entry, cell Cell) float64 {
	return p.cfg.Score(e.panel, cell, p.canvas, e.prev, p.sw).Final
}

func (p *problem) solve(bounds Cell, group []entry) *Tree {
	switch len(group) {
	case 0:
		return &Tree{Bounds: bounds, Kind: KindEmpty}
	case 1:
		return p.leaf(bounds, group[0])
	}

	var best *Tree
	evaluated := 0
	consider := func(t *Tree) {
		evaluated++
		if best == nil || t.Total > best.Total {
			best = t
		}
	}

	if !p.cfg.DisableContinuity {
		if cut, ok := continuityCut(bounds, group); ok {
			first, second := bounds.SplitAt(cut.axis, cut.pos)
			consider(p.branch(bounds, KindContinuity, cut.axis, cut.ratio(bounds), first, second, cut.first, cut.second))
		}
	}

	axis := AxisFor(bounds)
	n := len(group)
	for _, r := range p.ratios() {
		nFirst := int(math.Round(float64(n) * r))
		if nFirst < 1 || nFirst >= n {
			continue
		}
		first, second := bounds.Split(axis, r)
		if first.Empty() || second.Empty() {
			continue
		}
		a, b := p.distribute(group, first, second, nFirst, p.cfg.Distribution)
		consider(p.branch(bounds, KindRatio, axis, r, first, second, a, b))
	}

	if best == nil {
		// Every candidate would have left one side empty: split evenly.
		first, second := bounds.Split(axis, 0.5)
		a, b := p.distribute(group, first, second, n/2, DistributionStrict)
		consider(p.branch(bounds, KindFallback, axis, 0.5, first, second, a, b))
	}

	best.Candidates = evaluated
	return best
}

func (p *problem) leaf(bounds Cell, e entry) *Tree {
	score := p.fit(e, bounds)
	return &Tree{
		Bounds: bounds,
		Kind:   KindLeaf,
		Total:  score * e.panel.Weight,
		Assignment: &Assignment{
			PanelID:  e.panel.ID,
			Cell:     bounds,
			Score:    score,
			Previous: e.prev,
		},
		index: e.index,
	}
}

func (p *problem) branch(bounds Cell, kind Kind, axis Axis, ratio float64, first, second Cell, a, b []entry) *Tree {
	left := p.solve(first, a)
	right := p.solve(second, b)
	return &Tree{
		Bounds:   bounds,
		Kind:     kind,
		Axis:     axis,
		Ratio:    ratio,
		Total:    left.Total + right.Total,
		Children: []*Tree{left, right},
	}
}

// ratios returns the candidate split fractions for one cut. Randomized runs
// jitter and shuffle them.
func (p *problem) ratios() []float64 {
	if p.rng == nil {
		return p.cfg.Ratios
	}
	out := make([]float64, len(p.cfg.Ratios))
	for i, r := range p.cfg.Ratios {
		r += (p.rng.Float64()*2 - 1) * p.cfg.Jitter
		out[i] = max(0.05, min(r, 0.95))
	}
	p.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// =============================================================================
// Distribution
// =============================================================================

type preference struct {
	e    entry
	gap  float64 // fit(first) - fit(second)
	tieK float64
}

// distribute splits group between the first and second sub-cells. Panels
// with the largest preference gap choose first; panels whose gap is below the
// preference threshold fill whatever slots remain.
func (p *problem) distribute(group []entry, first, second Cell, nFirst int, mode Distribution) ([]entry, []entry) {
	n := len(group)
	prefs := make([]preference, n)
	for i, e := range group {
		prefs[i] = preference{e: e, gap: p.fit(e, first) - p.fit(e, second)}
		if p.rng != nil {
			prefs[i].tieK = p.rng.Float64()
		} else {
			prefs[i].tieK = float64(e.index)
		}
	}

	threshold := p.cfg.PreferenceThreshold
	sort.SliceStable(prefs, func(i, j int) bool {
		gi, gj := math.Abs(prefs[i].gap), math.Abs(prefs[j].gap)
		si, sj := gi >= threshold, gj >= threshold
		if si != sj {
			return si
		}
		if si && gi != gj {
			return gi > gj
		}
		if prefs[i].e.panel.Weight != prefs[j].e.panel.Weight {
			return prefs[i].e.panel.Weight > prefs[j].e.panel.Weight
		}
		return prefs[i].tieK < prefs[j].tieK
	})

	capFirst, capSecond := nFirst, n-nFirst
	var a, b []entry
	var aPrefs, bPrefs []preference

	for _, pr := range prefs {
		toFirst := pr.gap > 0
		if pr.gap == 0 || math.Abs(pr.gap) < threshold {
			// Indifferent: lean towards the side with more room left.
			toFirst = float64(len(a))/float64(max(capFirst, 1)) <= float64(len(b))/float64(max(capSecond, 1))
		}
		if mode == DistributionStrict {
			if toFirst && len(a) >= capFirst {
				toFirst = false
			} else if !toFirst && len(b) >= capSecond {
				toFirst = true
			}
		}
		if toFirst {
			a = append(a, pr.e)
			aPrefs = append(aPrefs, pr)
		} else {
			b = append(b, pr.e)
			bPrefs = append(bPrefs, pr)
		}
	}

	// Best-effort mode can leave a side empty; move over the panel that
	// minds the least.
	if len(a) == 0 && len(bPrefs) > 0 {
		i := argmaxGap(bPrefs, 1)
		a = append(a, bPrefs[i].e)
		b = slices.Delete(b, i, i+1)
	} else if len(b) == 0 && len(aPrefs) > 0 {
		i := argmaxGap(aPrefs, -1)
		b = append(b, aPrefs[i].e)
		a = slices.Delete(a, i, i+1)
	}

	byIndex := func(x, y entry) int { return x.index - y.index }
	slices.SortFunc(a, byIndex)
	slices.SortFunc(b, byIndex)
	return a, b
}

// argmaxGap returns the index of the preference with the largest sign*gap.
func argmaxGap(prefs []preference, sign float64) int {
	best := 0
	for i := range prefs {
		if sign*prefs[i].gap > sign*prefs[best].gap {
			best = i
		}
	}
	return best
}

// =============================================================================
// Continuity
// =============================================================================

type cut struct {
	axis          Axis
	pos           float64
	first, second []entry
}

func (c cut) ratio(bounds Cell) float64 {
	if c.axis == Vertical {
		return (c.pos - bounds.X) / bounds.Width
	}
	return (c.pos - bounds.Y) / bounds.Height
}

// continuityCut looks for a straight cut through bounds that separates the
// previous cells of group, provided those cells tile bounds. Reproducing
// that cut lets a stable layout survive recomputation unchanged.
func continuityCut(bounds Cell, group []entry) (cut, bool) {
	tol := 1e-6 * max(bounds.Width, bounds.Height, 1)
	var area float64
	for _, e := range group {
		if e.prev == nil || e.prev.Empty() {
			return cut{}, false
		}
		c := *e.prev
		if c.X < bounds.X-tol || c.Y < bounds.Y-tol || c.Right() > bounds.Right()+tol || c.Bottom() > bounds.Bottom()+tol {
			return cut{}, false
		}
		area += c.Area()
	}
	if math.Abs(area-bounds.Area()) > tol*max(bounds.Width, bounds.Height) {
		return cut{}, false
	}

	preferred := AxisFor(bounds)
	for _, axis := range []Axis{preferred, 1 - preferred} {
		lo, hi := bounds.X, bounds.Right()
		if axis == Horizontal {
			lo, hi = bounds.Y, bounds.Bottom()
		}
		for _, e := range group {
			pos := e.prev.Right()
			if axis == Horizontal {
				pos = e.prev.Bottom()
			}
			if pos <= lo+tol || pos >= hi-tol {
				continue
			}
			if c, ok := separate(group, axis, pos, tol); ok {
				return c, true
			}
		}
	}
	return cut{}, false
}

func separate(group []entry, axis Axis, pos, tol float64) (cut, bool) {
	c := cut{axis: axis, pos: pos}
	for _, e := range group {
		start, end := e.prev.X, e.prev.Right()
		if axis == Horizontal {
			start, end = e.prev.Y, e.prev.Bottom()
		}
		switch {
		case end <= pos+tol:
			c.first = append(c.first, e)
		case start >= pos-tol:
			c.second = append(c.second, e)
		default:
			return cut{}, false
		}
	}
	if len(c.first) == 0 || len(c.second) == 0 {
		return cut{}, false
	}
	return c, true
}

func finite(c Cell) bool {
	for _, v := range []float64{c.X, c.Y, c.Width, c.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
