package layout

import (
	"context"
	"math/rand/v2"
	"time"
)

// Search is the anytime driver: it runs the partitioner once
// deterministically, then keeps re-running randomized variants until the
// wall-clock budget is spent, retaining the best layout seen.
//
// A run in progress is never interrupted. The deadline, MaxRuns and ctx are
// checked between runs, so Optimize overshoots the budget by at most one run
// and always returns the best complete layout found.
type Search struct {
	Config Config

	// Budget bounds the refinement loop. Zero means DefaultBudget; a
	// negative budget performs only the initial deterministic run.
	Budget time.Duration

	// Seed initializes the perturbation rng. Zero seeds from the clock.
	Seed uint64

	// MaxRuns caps the number of runs including the first. Zero is unbounded.
	MaxRuns int

	// Progress, if set, is called after every run.
	Progress func(run int, total float64, improved bool)
}

// Result is the outcome of one anytime optimization.
type Result struct {
	Assignments  []Assignment
	Tree         *Tree
	Total        float64
	Runs         int
	Improvements int
	Elapsed      time.Duration
	Seed         uint64
}

// Optimize searches for the best layout of panels inside bounds.
//
// With at least one panel and a bound of positive area the result always
// holds a complete layout; otherwise Assignments is empty.
func (s Search) Optimize(ctx context.Context, bounds Cell, panels []Panel, prev PreviousIndex, stabilityWeight float64) Result {
	start := time.Now()
	budget := s.Budget
	if budget == 0 {
		budget = DefaultBudget
	}
	deadline := start.Add(budget)

	opt := New(s.Config)
	best := opt.Explain(bounds, panels, prev, stabilityWeight)
	res := Result{Tree: best, Total: best.Total, Runs: 1}
	if s.Progress != nil {
		s.Progress(1, best.Total, false)
	}
	if best.Kind == KindEmpty || len(panels) == 1 {
		return s.finish(res, start)
	}

	seed := s.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	res.Seed = seed
	randomized := opt.WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))

	for budget > 0 {
		if s.MaxRuns > 0 && res.Runs >= s.MaxRuns {
			break
		}
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			break
		}
		t := randomized.Explain(bounds, panels, prev, stabilityWeight)
		res.Runs++
		improved := t.Total > res.Total
		if improved {
			res.Tree, res.Total = t, t.Total
			res.Improvements++
		}
		if s.Progress != nil {
			s.Progress(res.Runs, res.Total, improved)
		}
	}
	return s.finish(res, start)
}

func (s Search) finish(res Result, start time.Time) Result {
	res.Assignments = res.Tree.Assignments()
	res.Elapsed = time.Since(start)
	return res
}
