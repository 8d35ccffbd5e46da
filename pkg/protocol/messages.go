// Package protocol defines the messages exchanged between a canvas
// controller and the background layout worker.
//
// The same messages travel in-process (through [worker.Worker]), over the
// /v1/session websocket and through the one-shot /v1/layout endpoint, and
// are read from request files by the CLI. Field names are the wire names in
// camelCase:
//
//	{"requestId": 3,
//	 "panels": [{"id": "main", "kind": "editor"}],
//	 "canvasWidth": 1600, "canvasHeight": 900,
//	 "previousIndex": {"main": {"x": 0, "y": 0, "width": 800, "height": 900}},
//	 "dragState": {},
//	 "stabilityWeight": 0.3}
//
// A panel may name a kind and omit its targets; explicit targets override
// the kind's defaults field by field.
package protocol

import (
	"github.com/matzehuels/panelgrid/pkg/layout"
	"github.com/matzehuels/panelgrid/pkg/panel"
)

// Request asks for a layout of Panels on a CanvasWidth x CanvasHeight canvas.
type Request struct {
	RequestID       uint64                 `json:"requestId" yaml:"requestId"`
	Panels          []PanelSpec            `json:"panels" yaml:"panels"`
	CanvasWidth     float64                `json:"canvasWidth" yaml:"canvasWidth"`
	CanvasHeight    float64                `json:"canvasHeight" yaml:"canvasHeight"`
	PreviousIndex   map[string]layout.Cell `json:"previousIndex,omitempty" yaml:"previousIndex,omitempty"`
	DragState       DragState              `json:"dragState" yaml:"dragState"`
	StabilityWeight float64                `json:"stabilityWeight" yaml:"stabilityWeight"`
}

// PanelSpec is a panel on the wire. Pointer fields are optional.
type PanelSpec struct {
	ID          string            `json:"id" yaml:"id"`
	Kind        *panel.Kind       `json:"kind,omitempty" yaml:"kind,omitempty"`
	Weight      *float64          `json:"weight,omitempty" yaml:"weight,omitempty"`
	SizeClass   *layout.SizeClass `json:"sizeClass,omitempty" yaml:"sizeClass,omitempty"`
	AspectRatio *float64          `json:"aspectRatio,omitempty" yaml:"aspectRatio,omitempty"`
	Region      *layout.Region    `json:"region,omitempty" yaml:"region,omitempty"`
}

// DragState describes an in-progress drag gesture. All fields are absent
// when nothing is being dragged.
type DragState struct {
	DraggedID *string  `json:"draggedId,omitempty" yaml:"draggedId,omitempty"`
	PointerX  *float64 `json:"pointerX,omitempty" yaml:"pointerX,omitempty"`
	PointerY  *float64 `json:"pointerY,omitempty" yaml:"pointerY,omitempty"`
}

// Active reports whether a panel is being dragged.
func (d DragState) Active() bool {
	return d.DraggedID != nil
}

// Response carries the layout computed for RequestID.
type Response struct {
	RequestID   uint64           `json:"requestId"`
	Assignments []AssignmentSpec `json:"assignments"`
	Stats       *Stats           `json:"stats,omitempty"`
}

// AssignmentSpec is one placed panel on the wire.
type AssignmentSpec struct {
	PanelID string      `json:"panelId"`
	Cell    layout.Cell `json:"cell"`
	Score   float64     `json:"score"`
}

// Stats describes how a response was produced.
type Stats struct {
	Runs          int     `json:"runs"`
	Improvements  int     `json:"improvements"`
	Total         float64 `json:"total"`
	ElapsedMillis float64 `json:"elapsedMs"`
	Cached        bool    `json:"cached,omitempty"`
}

// ErrorResponse is sent instead of a Response when a request is rejected.
type ErrorResponse struct {
	RequestID uint64    `json:"requestId,omitempty"`
	Error     ErrorBody `json:"error"`
}

// ErrorBody is the machine-readable part of an ErrorResponse.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Conversion
// =============================================================================

// Panel resolves the spec into an optimizer panel. Targets come from Kind
// when set, then explicit fields override them. An omitted weight is the
// kind's default weight, or 1 without a kind.
func (s PanelSpec) Panel() layout.Panel {
	p := layout.Panel{
		ID:      s.ID,
		Weight:  1,
		Targets: layout.Targets{Size: layout.SizeMedium, AspectRatio: 1, Region: layout.RegionCenter},
	}
	if s.Kind != nil && s.Kind.Valid() {
		p = panel.New(*s.Kind, s.ID)
	}
	if s.Weight != nil {
		p.Weight = *s.Weight
	}
	if s.SizeClass != nil {
		p.Targets.Size = *s.SizeClass
	}
	if s.AspectRatio != nil {
		p.Targets.AspectRatio = *s.AspectRatio
	}
	if s.Region != nil {
		p.Targets.Region = *s.Region
	}
	return p
}

// SpecFor converts an optimizer panel into a fully explicit spec.
func SpecFor(p layout.Panel) PanelSpec {
	w, size, ratio, region := p.Weight, p.Targets.Size, p.Targets.AspectRatio, p.Targets.Region
	return PanelSpec{ID: p.ID, Weight: &w, SizeClass: &size, AspectRatio: &ratio, Region: &region}
}

// LayoutPanels resolves every panel of the request.
func (r Request) LayoutPanels() []layout.Panel {
	out := make([]layout.Panel, len(r.Panels))
	for i, s := range r.Panels {
		out[i] = s.Panel()
	}
	return out
}

// Canvas returns the canvas rectangle anchored at the origin.
func (r Request) Canvas() layout.Cell {
	return layout.Cell{Width: r.CanvasWidth, Height: r.CanvasHeight}
}

// Previous returns the previous-layout index of the request.
func (r Request) Previous() layout.PreviousIndex {
	return layout.PreviousIndex(r.PreviousIndex)
}

// NewResponse builds the response to requestID from optimizer output.
// The assignment list is never nil so it encodes as [].
func NewResponse(requestID uint64, assignments []layout.Assignment) Response {
	out := make([]AssignmentSpec, len(assignments))
	for i, a := range assignments {
		out[i] = AssignmentSpec{PanelID: a.PanelID, Cell: a.Cell, Score: a.Score}
	}
	return Response{RequestID: requestID, Assignments: out}
}

// Index returns the response as a previous-layout index.
func (r Response) Index() layout.PreviousIndex {
	idx := make(layout.PreviousIndex, len(r.Assignments))
	for _, a := range r.Assignments {
		idx[a.PanelID] = a.Cell
	}
	return idx
}
