package worker

import (
	"context"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panelgrid/pkg/errors"
	"github.com/matzehuels/panelgrid/pkg/layout"
	"github.com/matzehuels/panelgrid/pkg/observability"
	"github.com/matzehuels/panelgrid/pkg/pipeline"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

// Layout is an accepted layout together with the request that produced it.
type Layout struct {
	RequestID   uint64
	Assignments []protocol.AssignmentSpec
}

// Cell returns the cell assigned to id.
func (l Layout) Cell(id string) (layout.Cell, bool) {
	for _, a := range l.Assignments {
		if a.PanelID == id {
			return a.Cell, true
		}
	}
	return layout.Cell{}, false
}

// At returns the panel whose cell contains (x, y).
func (l Layout) At(x, y float64) (string, bool) {
	for _, a := range l.Assignments {
		if a.Cell.Contains(x, y) {
			return a.PanelID, true
		}
	}
	return "", false
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	// Logger receives debug output, including discarded responses.
	Logger *log.Logger

	// OnLayout is called from a single delivery goroutine, in request id
	// order and without the Controller's lock held. A layout superseded
	// before the previous call returns is skipped, so OnLayout may see
	// fewer layouts than were accepted but never an older one after a
	// newer one.
	OnLayout func(Layout)

	// Buffer is passed to the Worker.
	Buffer int
}

// Controller owns the canvas state and the one Worker computing its
// layouts. All methods are safe for concurrent use.
type Controller struct {
	worker   *Worker
	logger   *log.Logger
	onLayout func(Layout)
	ctx      context.Context
	done     chan struct{}

	// wake signals the delivery goroutine that pending changed.
	wake          chan struct{}
	delivered     chan struct{}
	lastDelivered uint64

	mu        sync.Mutex
	requestID uint64
	sentAt    time.Time
	panels    []protocol.PanelSpec
	width     float64
	height    float64
	stability float64
	previous  layout.PreviousIndex
	drag      protocol.DragState
	current   Layout
	pending   *Layout
}

// NewController starts a Controller backed by a new Worker running compute.
// The stability weight starts at pipeline.DefaultStabilityWeight.
func NewController(compute ComputeFunc, opts ControllerOptions) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	w := New(compute, Options{Logger: opts.Logger, Buffer: opts.Buffer})
	c := &Controller{
		worker:    w,
		logger:    opts.Logger,
		onLayout:  opts.OnLayout,
		ctx:       w.ctx,
		done:      make(chan struct{}),
		wake:      make(chan struct{}, 1),
		delivered: make(chan struct{}),
		stability: pipeline.DefaultStabilityWeight,
		previous:  layout.PreviousIndex{},
		current:   Layout{Assignments: []protocol.AssignmentSpec{}},
	}
	go c.pump()
	go c.deliver()
	return c
}

// Close tears down the Worker and waits for pending deliveries to finish.
func (c *Controller) Close() {
	c.worker.Close()
	<-c.done
	<-c.delivered
}

func (c *Controller) pump() {
	defer close(c.done)
	for resp := range c.worker.Responses() {
		c.Accept(resp)
	}
}

// =============================================================================
// State changes
// =============================================================================

// SetPanels replaces the panel list and returns the issued request id.
func (c *Controller) SetPanels(panels []protocol.PanelSpec) uint64 {
	c.mu.Lock()
	c.panels = slices.Clone(panels)
	return c.issue()
}

// AddPanel appends a panel. Ids must be unique.
func (c *Controller) AddPanel(p protocol.PanelSpec) (uint64, error) {
	if err := errors.ValidatePanelID(p.ID); err != nil {
		return 0, err
	}
	c.mu.Lock()
	if c.indexOf(p.ID) >= 0 {
		c.mu.Unlock()
		return 0, errors.New(errors.ErrCodeInvalidPanel, "duplicate panel id %q", p.ID)
	}
	c.panels = append(c.panels, p)
	return c.issue(), nil
}

// UpdatePanel replaces the panel with the same id, for example after its
// weight or targets changed.
func (c *Controller) UpdatePanel(p protocol.PanelSpec) (uint64, error) {
	c.mu.Lock()
	i := c.indexOf(p.ID)
	if i < 0 {
		c.mu.Unlock()
		return 0, errors.New(errors.ErrCodeNotFound, "panel %q not found", p.ID)
	}
	c.panels[i] = p
	return c.issue(), nil
}

// RemovePanel removes the panel with the given id.
func (c *Controller) RemovePanel(id string) (uint64, error) {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return 0, errors.New(errors.ErrCodeNotFound, "panel %q not found", id)
	}
	c.panels = slices.Delete(c.panels, i, i+1)
	delete(c.previous, id)
	return c.issue(), nil
}

// SetCanvasSize records a new canvas size.
func (c *Controller) SetCanvasSize(width, height float64) (uint64, error) {
	if err := errors.ValidateCanvas(width, height); err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.width, c.height = width, height
	return c.issue(), nil
}

// SetStabilityWeight changes the trade-off between fit and continuity.
func (c *Controller) SetStabilityWeight(w float64) (uint64, error) {
	if err := errors.ValidateStabilityWeight(w); err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.stability = w
	return c.issue(), nil
}

// =============================================================================
// Drag gestures
// =============================================================================

// HitTest returns the panel of the last accepted layout under (x, y).
func (c *Controller) HitTest(x, y float64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.At(x, y)
}

// BeginDrag starts dragging the panel under (x, y). It reports false when
// the pointer is over no panel.
func (c *Controller) BeginDrag(x, y float64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.current.At(x, y)
	if !ok {
		return "", false
	}
	c.drag = protocol.DragState{DraggedID: &id, PointerX: &x, PointerY: &y}
	return id, true
}

// MoveDrag updates the pointer of the active drag and returns the panel
// currently under it.
func (c *Controller) MoveDrag(x, y float64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.drag.Active() {
		return "", false
	}
	c.drag.PointerX, c.drag.PointerY = &x, &y
	return c.current.At(x, y)
}

// EndDrag finishes the gesture at (x, y). Dropping onto another panel swaps
// the two in panel order and in the previous layout, then issues a request.
// It reports whether a swap happened.
func (c *Controller) EndDrag(x, y float64) (uint64, bool) {
	c.mu.Lock()
	if !c.drag.Active() {
		c.mu.Unlock()
		return 0, false
	}
	dragged := *c.drag.DraggedID
	c.drag = protocol.DragState{}

	target, ok := c.current.At(x, y)
	i, j := c.indexOf(dragged), c.indexOf(target)
	if !ok || target == dragged || i < 0 || j < 0 {
		c.mu.Unlock()
		return 0, false
	}

	c.panels[i], c.panels[j] = c.panels[j], c.panels[i]
	a, aok := c.previous[dragged]
	b, bok := c.previous[target]
	delete(c.previous, dragged)
	delete(c.previous, target)
	if bok {
		c.previous[dragged] = b
	}
	if aok {
		c.previous[target] = a
	}
	c.logger.Debug("swapped panels", "dragged", dragged, "target", target)
	return c.issue(), true
}

// Dragging returns the id of the panel being dragged.
func (c *Controller) Dragging() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.drag.Active() {
		return "", false
	}
	return *c.drag.DraggedID, true
}

// =============================================================================
// Responses
// =============================================================================

// Accept applies resp if it answers the latest request and reports whether
// it did. Stale responses are dropped.
func (c *Controller) Accept(resp protocol.Response) bool {
	c.mu.Lock()
	latest := c.requestID
	if resp.RequestID != latest {
		c.mu.Unlock()
		observability.Worker().OnResponseDiscarded(c.ctx, resp.RequestID, latest)
		c.logger.Debug("discarded stale layout", "request", resp.RequestID, "latest", latest)
		return false
	}
	c.applyLocked(resp.RequestID, resp.Assignments)
	latency := time.Since(c.sentAt)
	c.mu.Unlock()

	observability.Worker().OnResponseAccepted(c.ctx, resp.RequestID, latency)
	return true
}

// Layout returns the last accepted layout.
func (c *Controller) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Layout{RequestID: c.current.RequestID, Assignments: slices.Clone(c.current.Assignments)}
}

// RequestID returns the latest issued request id.
func (c *Controller) RequestID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestID
}

// Panels returns a copy of the current panel list.
func (c *Controller) Panels() []protocol.PanelSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.panels)
}

// Canvas returns the current canvas size.
func (c *Controller) Canvas() (width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// StabilityWeight returns the current stability weight.
func (c *Controller) StabilityWeight() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stability
}

// Request returns the request the current state would issue, without
// issuing it.
func (c *Controller) Request() protocol.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestLocked(c.requestID)
}

// issue increments the request id and hands a snapshot to the worker.
// Degenerate state is answered in place. It is called with c.mu held and
// releases it.
func (c *Controller) issue() uint64 {
	c.requestID++
	id := c.requestID
	req := c.requestLocked(id)

	if len(req.Panels) == 0 || req.Canvas().Empty() {
		c.applyLocked(id, nil)
		c.mu.Unlock()
		return id
	}

	c.sentAt = time.Now()
	if err := c.worker.Submit(req); err != nil {
		c.mu.Unlock()
		c.logger.Debug("request not sent", "request", id, "error", err)
		return id
	}
	c.mu.Unlock()
	observability.Worker().OnRequestSent(c.ctx, id, len(req.Panels))
	return id
}

func (c *Controller) requestLocked(id uint64) protocol.Request {
	return protocol.Request{
		RequestID:       id,
		Panels:          slices.Clone(c.panels),
		CanvasWidth:     c.width,
		CanvasHeight:    c.height,
		PreviousIndex:   maps.Clone(map[string]layout.Cell(c.previous)),
		DragState:       c.drag,
		StabilityWeight: c.stability,
	}
}

// applyLocked installs an accepted layout, rebuilds the previous index from
// it and queues it for delivery.
func (c *Controller) applyLocked(id uint64, assignments []protocol.AssignmentSpec) {
	if assignments == nil {
		assignments = []protocol.AssignmentSpec{}
	}
	c.current = Layout{RequestID: id, Assignments: slices.Clone(assignments)}
	if len(assignments) > 0 {
		c.previous = protocol.Response{Assignments: assignments}.Index()
	}
	if c.onLayout == nil {
		return
	}
	c.pending = &Layout{RequestID: id, Assignments: slices.Clone(assignments)}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// deliver hands queued layouts to OnLayout one at a time. Only the newest
// queued layout is kept, and ids at or below the last delivered one are
// dropped.
func (c *Controller) deliver() {
	defer close(c.delivered)
	for {
		select {
		case <-c.wake:
			c.flush()
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *Controller) flush() {
	c.mu.Lock()
	l := c.pending
	c.pending = nil
	c.mu.Unlock()
	if l == nil || (c.lastDelivered > 0 && l.RequestID <= c.lastDelivered) {
		return
	}
	c.lastDelivered = l.RequestID
	c.onLayout(*l)
}

func (c *Controller) indexOf(id string) int {
	return slices.IndexFunc(c.panels, func(p protocol.PanelSpec) bool { return p.ID == id })
}
