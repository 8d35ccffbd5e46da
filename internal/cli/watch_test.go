package cli

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/panelgrid/pkg/layout"
	"github.com/matzehuels/panelgrid/pkg/protocol"
	"github.com/matzehuels/panelgrid/pkg/worker"
)

// columns lays panels out as equal-width columns.
func columns(_ context.Context, req protocol.Request) protocol.Response {
	out := make([]protocol.AssignmentSpec, len(req.Panels))
	w := req.CanvasWidth / float64(len(req.Panels))
	for i, p := range req.Panels {
		out[i] = protocol.AssignmentSpec{
			PanelID: p.ID,
			Cell:    layout.Cell{X: float64(i) * w, Width: w, Height: req.CanvasHeight},
			Score:   1,
		}
	}
	return protocol.Response{RequestID: req.RequestID, Assignments: out}
}

// awaitLatest reads layouts until the one for the controller's latest
// request arrives.
func awaitLatest(t *testing.T, ctrl *worker.Controller, ch <-chan worker.Layout) worker.Layout {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case l := <-ch:
			if l.RequestID == ctrl.RequestID() {
				return l
			}
		case <-timeout:
			t.Fatalf("no layout for request %d", ctrl.RequestID())
		}
	}
}

func TestPublishLatestKeepsNewest(t *testing.T) {
	ch := make(chan worker.Layout, 1)
	publishLatest(ch, worker.Layout{RequestID: 1})
	publishLatest(ch, worker.Layout{RequestID: 2})

	if got := (<-ch).RequestID; got != 2 {
		t.Errorf("got layout %d, want 2", got)
	}
	select {
	case l := <-ch:
		t.Errorf("unexpected extra layout %d", l.RequestID)
	default:
	}
}

func TestSyncController(t *testing.T) {
	layouts := make(chan worker.Layout, 1)
	ctrl := worker.NewController(columns, worker.ControllerOptions{
		OnLayout: func(l worker.Layout) { publishLatest(layouts, l) },
	})
	defer ctrl.Close()

	req := protocol.Request{
		Panels:          []protocol.PanelSpec{{ID: "a"}, {ID: "b"}},
		CanvasWidth:     800,
		CanvasHeight:    600,
		StabilityWeight: 0.5,
	}
	if err := syncController(ctrl, req); err != nil {
		t.Fatalf("syncController() error: %v", err)
	}
	if w, h := ctrl.Canvas(); w != 800 || h != 600 {
		t.Errorf("canvas = %vx%v, want 800x600", w, h)
	}
	if ctrl.StabilityWeight() != 0.5 {
		t.Errorf("stability = %v, want 0.5", ctrl.StabilityWeight())
	}
	if ctrl.RequestID() != 3 {
		t.Errorf("RequestID = %d, want 3 (one per change)", ctrl.RequestID())
	}

	l := awaitLatest(t, ctrl, layouts)
	if len(l.Assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(l.Assignments))
	}

	// An identical request changes nothing.
	if err := syncController(ctrl, req); err != nil {
		t.Fatal(err)
	}
	if ctrl.RequestID() != 3 {
		t.Errorf("unchanged request issued a new id %d", ctrl.RequestID())
	}

	req.StabilityWeight = 2
	if err := syncController(ctrl, req); err == nil {
		t.Error("out-of-range stability should be rejected")
	}
}
