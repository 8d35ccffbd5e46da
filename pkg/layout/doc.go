// Package layout arranges a set of panels on a rectangular canvas.
//
// # The Placement Problem
//
// Every panel carries soft preferences ([Targets]): a size class, an aspect
// ratio and one of nine named regions. The optimizer partitions the canvas
// into non-overlapping cells whose union is the canvas, and assigns one cell
// per panel so that all preferences are satisfied jointly. A fourth concern,
// stability, keeps panels near the cells they occupied in the previous
// layout so recomputation does not make the screen jump.
//
// # Scoring
//
// A panel in a candidate cell is rated on four axes, each in [0,1]:
//
//   - Size: distance of the cell's share of canvas area from the size class
//     target ([SizeTargets])
//   - Aspect: relative distance of width/height from the target ratio
//   - Region: distance of the normalized cell center from the region anchor
//   - Stability: distance of the normalized cell center from the previous
//     cell's center (1 when there is no previous cell)
//
// The first three are blended by [Weights] into an optimization score, which
// is then mixed linearly with stability:
//
//	final = (1-stabilityWeight)*optimization + stabilityWeight*stability
//
// # Partitioning
//
// [Optimizer.Partition] is a recursive guillotine search. One panel takes the
// whole bound. Two or more panels are split along the bound's long axis at
// each candidate ratio; panels are distributed between the halves by how much
// they prefer one side over the other, and each half is solved recursively.
// The cut with the highest total of score*weight wins.
//
// The candidate set is deliberately small (five ratios by default), which
// prunes an otherwise exponential search. When the previous cells of a group
// tile its bound, the cut they imply is tried first; with a stability weight
// of 1 this reproduces the previous layout exactly.
//
// # Anytime Refinement
//
// [Search] runs the partitioner once deterministically and then repeats it
// with jittered ratios and randomized tie-breaking until its budget expires,
// keeping the best complete layout:
//
//	s := layout.Search{Budget: 100 * time.Millisecond}
//	res := s.Optimize(ctx, canvas, panels, prev, 0.3)
//	for _, a := range res.Assignments {
//	    fmt.Println(a.PanelID, a.Cell, a.Score)
//	}
//
// # Degenerate Input
//
// Nothing in this package returns an error. Zero panels or a canvas without
// positive area produce an empty layout; negative weights count as zero and
// non-positive aspect ratios are clamped to a small positive value.
package layout
