package layout

import (
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// Size Classes
// =============================================================================

// SizeClass is a coarse preference for how much of the canvas a panel wants.
type SizeClass int

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
)

var sizeClassNames = [...]string{
	SizeSmall:  "small",
	SizeMedium: "medium",
	SizeLarge:  "large",
}

// String returns the lowercase name used on the wire ("small", "medium", "large").
func (s SizeClass) String() string {
	if s < 0 || int(s) >= len(sizeClassNames) {
		return fmt.Sprintf("SizeClass(%d)", int(s))
	}
	return sizeClassNames[s]
}

// ParseSizeClass converts a wire name into a SizeClass.
func ParseSizeClass(s string) (SizeClass, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range sizeClassNames {
		if n == name {
			return SizeClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown size class %q (must be one of: small, medium, large)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s SizeClass) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(sizeClassNames) {
		return nil, fmt.Errorf("invalid size class %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SizeClass) UnmarshalText(b []byte) error {
	v, err := ParseSizeClass(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SizeClasses returns all size classes in ascending order.
func SizeClasses() []SizeClass {
	return []SizeClass{SizeSmall, SizeMedium, SizeLarge}
}

// =============================================================================
// Regions
// =============================================================================

// Region names one of nine anchor points on the canvas.
type Region int

const (
	RegionCenter Region = iota
	RegionLeft
	RegionRight
	RegionTop
	RegionBottom
	RegionTopLeft
	RegionTopRight
	RegionBottomLeft
	RegionBottomRight
)

var regionNames = [...]string{
	RegionCenter:      "center",
	RegionLeft:        "left",
	RegionRight:       "right",
	RegionTop:         "top",
	RegionBottom:      "bottom",
	RegionTopLeft:     "top-left",
	RegionTopRight:    "top-right",
	RegionBottomLeft:  "bottom-left",
	RegionBottomRight: "bottom-right",
}

// regionAnchors are in normalized canvas space, origin top-left.
var regionAnchors = [...]Point{
	RegionCenter:      {0.5, 0.5},
	RegionLeft:        {0.25, 0.5},
	RegionRight:       {0.75, 0.5},
	RegionTop:         {0.5, 0.25},
	RegionBottom:      {0.5, 0.75},
	RegionTopLeft:     {0.25, 0.25},
	RegionTopRight:    {0.75, 0.25},
	RegionBottomLeft:  {0.25, 0.75},
	RegionBottomRight: {0.75, 0.75},
}

// String returns the wire name of the region (e.g. "top-left").
func (r Region) String() string {
	if r < 0 || int(r) >= len(regionNames) {
		return fmt.Sprintf("Region(%d)", int(r))
	}
	return regionNames[r]
}

// Anchor returns the region's fixed point in normalized [0,1]x[0,1] space.
// Unknown regions anchor at the center.
func (r Region) Anchor() Point {
	if r < 0 || int(r) >= len(regionAnchors) {
		return regionAnchors[RegionCenter]
	}
	return regionAnchors[r]
}

// ParseRegion converts a wire name into a Region. Underscores and spaces are
// accepted in place of the hyphen ("top_left", "top left").
func ParseRegion(s string) (Region, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("_", "-", " ", "-").Replace(name)
	for i, n := range regionNames {
		if n == name {
			return Region(i), nil
		}
	}
	return 0, fmt.Errorf("unknown region %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Region) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(regionNames) {
		return nil, fmt.Errorf("invalid region %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Region) UnmarshalText(b []byte) error {
	v, err := ParseRegion(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Regions returns all nine regions.
func Regions() []Region {
	out := make([]Region, len(regionNames))
	for i := range out {
		out[i] = Region(i)
	}
	return out
}

// =============================================================================
// Panels
// =============================================================================

// Targets are a panel's soft layout preferences.
type Targets struct {
	Size        SizeClass
	AspectRatio float64
	Region      Region
}

// Panel is the optimizer's view of a panel: an identity, a priority weight,
// and its preferences. Content is owned elsewhere.
type Panel struct {
	ID      string
	Weight  float64
	Targets Targets
}

// =============================================================================
// Geometry
// =============================================================================

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Cell is an axis-aligned rectangle in canvas pixel coordinates.
type Cell struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns width*height, or 0 for degenerate cells.
func (c Cell) Area() float64 {
	if c.Empty() {
		return 0
	}
	return c.Width * c.Height
}

// Empty reports whether the cell has no positive area.
func (c Cell) Empty() bool {
	return !(c.Width > 0 && c.Height > 0)
}

// Center returns the cell's midpoint.
func (c Cell) Center() Point {
	return Point{X: c.X + c.Width/2, Y: c.Y + c.Height/2}
}

// Ratio returns width/height, or 0 when height is not positive.
func (c Cell) Ratio() float64 {
	if c.Height <= 0 {
		return 0
	}
	return c.Width / c.Height
}

// Right returns the x coordinate of the right edge.
func (c Cell) Right() float64 { return c.X + c.Width }

// Bottom returns the y coordinate of the bottom edge.
func (c Cell) Bottom() float64 { return c.Y + c.Height }

// Contains reports whether (x, y) lies inside the cell. The left and top
// edges are inclusive, the right and bottom edges exclusive, so adjacent
// cells never both contain a point.
func (c Cell) Contains(x, y float64) bool {
	return x >= c.X && x < c.Right() && y >= c.Y && y < c.Bottom()
}

// Normalize maps p into the [0,1]x[0,1] space of c.
func (c Cell) Normalize(p Point) Point {
	if c.Empty() {
		return Point{}
	}
	return Point{X: (p.X - c.X) / c.Width, Y: (p.Y - c.Y) / c.Height}
}

// Intersect returns the overlapping part of c and o (zero-sized if disjoint).
func (c Cell) Intersect(o Cell) Cell {
	x0 := math.Max(c.X, o.X)
	y0 := math.Max(c.Y, o.Y)
	x1 := math.Min(c.Right(), o.Right())
	y1 := math.Min(c.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Cell{X: x0, Y: y0}
	}
	return Cell{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ApproxEqual reports whether both cells match within tol on every field.
func (c Cell) ApproxEqual(o Cell, tol float64) bool {
	return math.Abs(c.X-o.X) <= tol && math.Abs(c.Y-o.Y) <= tol &&
		math.Abs(c.Width-o.Width) <= tol && math.Abs(c.Height-o.Height) <= tol
}

// String formats the cell as "WxH@(X,Y)".
func (c Cell) String() string {
	return fmt.Sprintf("%.1fx%.1f@(%.1f,%.1f)", c.Width, c.Height, c.X, c.Y)
}

// Axis is the orientation of a split line.
type Axis int

const (
	// Vertical cuts produce left/right children.
	Vertical Axis = iota
	// Horizontal cuts produce top/bottom children.
	Horizontal
)

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// AxisFor picks the split axis from the bound's aspect: bounds at least as
// wide as they are tall are cut left/right, taller bounds top/bottom.
func AxisFor(c Cell) Axis {
	if c.Width >= c.Height {
		return Vertical
	}
	return Horizontal
}

// SplitAt cuts c along axis at absolute coordinate pos. The two halves share
// the cut line exactly, so their union is c.
func (c Cell) SplitAt(axis Axis, pos float64) (Cell, Cell) {
	if axis == Vertical {
		pos = math.Max(c.X, math.Min(pos, c.Right()))
		first := Cell{X: c.X, Y: c.Y, Width: pos - c.X, Height: c.Height}
		second := Cell{X: pos, Y: c.Y, Width: c.Right() - pos, Height: c.Height}
		return first, second
	}
	pos = math.Max(c.Y, math.Min(pos, c.Bottom()))
	first := Cell{X: c.X, Y: c.Y, Width: c.Width, Height: pos - c.Y}
	second := Cell{X: c.X, Y: pos, Width: c.Width, Height: c.Bottom() - pos}
	return first, second
}

// Split cuts c along axis at the given fraction of its extent.
func (c Cell) Split(axis Axis, ratio float64) (Cell, Cell) {
	if axis == Vertical {
		return c.SplitAt(axis, c.X+c.Width*ratio)
	}
	return c.SplitAt(axis, c.Y+c.Height*ratio)
}

// =============================================================================
// Results
// =============================================================================

// Assignment places one panel in one cell.
type Assignment struct {
	PanelID string
	Cell    Cell
	// Score is the blended per-panel fit in [0,1].
	Score float64
	// Previous is the cell the panel occupied in the prior layout, if any.
	// It is carried for continuity scoring and animation only.
	Previous *Cell
}

// PreviousIndex maps panel id to the cell it last occupied. A missing entry
// means the panel has no prior position.
type PreviousIndex map[string]Cell

// Lookup returns a pointer to a copy of the previous cell for id, or nil.
func (p PreviousIndex) Lookup(id string) *Cell {
	if p == nil {
		return nil
	}
	c, ok := p[id]
	if !ok {
		return nil
	}
	return &c
}

// IndexOf rebuilds a PreviousIndex from a list of assignments.
func IndexOf(assignments []Assignment) PreviousIndex {
	idx := make(PreviousIndex, len(assignments))
	for _, a := range assignments {
		idx[a.PanelID] = a.Cell
	}
	return idx
}

// TotalScore sums score*weight over assignments. Weights are looked up by
// panel id; unknown panels count with weight 1.
func TotalScore(assignments []Assignment, panels []Panel) float64 {
	weights := make(map[string]float64, len(panels))
	for _, p := range panels {
		weights[p.ID] = p.Weight
	}
	var total float64
	for _, a := range assignments {
		w, ok := weights[a.PanelID]
		if !ok {
			w = 1
		}
		total += a.Score * w
	}
	return total
}
