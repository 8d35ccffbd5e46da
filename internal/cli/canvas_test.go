package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/panelgrid/pkg/panel"
	"github.com/matzehuels/panelgrid/pkg/protocol"
	"github.com/matzehuels/panelgrid/pkg/worker"
)

func kindSpec(id string, k panel.Kind) protocol.PanelSpec {
	return protocol.PanelSpec{ID: id, Kind: &k}
}

// newTestCanvas returns a canvas model sized 80x24 whose first layout has
// been delivered.
func newTestCanvas(t *testing.T, specs ...protocol.PanelSpec) (canvasModel, *worker.Controller) {
	t.Helper()
	layouts := make(chan worker.Layout, 1)
	ctrl := worker.NewController(columns, worker.ControllerOptions{
		OnLayout: func(l worker.Layout) { publishLatest(layouts, l) },
	})
	t.Cleanup(ctrl.Close)
	ctrl.SetPanels(specs)

	m := newCanvasModel(ctrl, layouts)
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = send(t, m, layoutMsg(awaitLatest(t, ctrl, layouts)))
	return m, ctrl
}

func send(t *testing.T, m canvasModel, msg tea.Msg) canvasModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(canvasModel)
}

func press(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestCanvasWindowSizeSetsCanvas(t *testing.T) {
	m, ctrl := newTestCanvas(t, kindSpec("main", panel.Editor), kindSpec("shell", panel.Terminal))

	w, h := ctrl.Canvas()
	if w != 80 || h != 2*(24-canvasChrome) {
		t.Errorf("canvas = %vx%v, want 80x%d", w, h, 2*(24-canvasChrome))
	}

	view := m.View()
	for _, want := range []string{"main", "shell", "request 2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if got := strings.Count(view, "\n"); got != 24-1 {
		t.Errorf("view has %d line breaks, want %d", got, 24-1)
	}
}

func TestCanvasKeys(t *testing.T) {
	m, ctrl := newTestCanvas(t, kindSpec("main", panel.Editor), kindSpec("shell", panel.Terminal))
	if m.selected != "main" {
		t.Fatalf("selected = %q, want main", m.selected)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selected != "shell" {
		t.Errorf("tab selected %q, want shell", m.selected)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.selected != "main" {
		t.Errorf("shift+tab selected %q, want main", m.selected)
	}

	m = send(t, m, press('+'))
	if got := ctrl.Panels()[0].Panel().Weight; got != panel.Editor.DefaultWeight()+weightStep {
		t.Errorf("weight = %v after +", got)
	}

	m = send(t, m, press('k'))
	if got := kindOf(&ctrl.Panels()[0]); got != panel.FileTree {
		t.Errorf("kind = %v after k, want file-tree", got)
	}

	m = send(t, m, press(']'))
	if got := ctrl.StabilityWeight(); got != 0.4 {
		t.Errorf("stability = %v after ], want 0.4", got)
	}

	m = send(t, m, press('a'))
	panels := ctrl.Panels()
	if len(panels) != 3 || m.selected != panels[2].ID {
		t.Fatalf("add: %d panels, selected %q", len(panels), m.selected)
	}

	m = send(t, m, press('x'))
	if len(ctrl.Panels()) != 2 {
		t.Errorf("remove left %d panels, want 2", len(ctrl.Panels()))
	}
	if m.selected != "shell" {
		t.Errorf("after remove selected %q, want shell", m.selected)
	}

	if _, cmd := m.Update(press('q')); cmd == nil {
		t.Error("q should quit")
	}
}

func TestCanvasMouseDragSwaps(t *testing.T) {
	m, ctrl := newTestCanvas(t, kindSpec("main", panel.Editor), kindSpec("shell", panel.Terminal))
	before := ctrl.RequestID()

	m = send(t, m, tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if id, ok := ctrl.Dragging(); !ok || id != "main" {
		t.Fatalf("Dragging() = %q, %v", id, ok)
	}
	m = send(t, m, tea.MouseMsg{X: 60, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m = send(t, m, tea.MouseMsg{X: 60, Y: 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	panels := ctrl.Panels()
	if panels[0].ID != "shell" || panels[1].ID != "main" {
		t.Errorf("panels after drag = %s, %s", panels[0].ID, panels[1].ID)
	}
	if ctrl.RequestID() != before+1 {
		t.Errorf("drag issued %d requests, want 1", ctrl.RequestID()-before)
	}
	if !strings.Contains(m.status, "swapped main") {
		t.Errorf("status = %q", m.status)
	}
}

func TestCanvasReleaseOutsideCancelsDrag(t *testing.T) {
	m, ctrl := newTestCanvas(t, kindSpec("main", panel.Editor), kindSpec("shell", panel.Terminal))
	before := ctrl.RequestID()

	m = send(t, m, tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	send(t, m, tea.MouseMsg{X: 60, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	if _, ok := ctrl.Dragging(); ok {
		t.Error("drag should have ended")
	}
	if ctrl.RequestID() != before {
		t.Error("release outside the canvas should not issue a request")
	}
}

func TestCycle(t *testing.T) {
	kinds := panel.Kinds()
	if got := cycle(kinds, panel.Agent, 1); got != panel.Terminal {
		t.Errorf("cycle wraps to %v, want terminal", got)
	}
	if got := cycle(kinds, panel.Terminal, -1); got != panel.Agent {
		t.Errorf("cycle backwards gives %v, want agent", got)
	}
	if got := cycle(kinds, panel.Kind(99), 1); got != panel.Terminal {
		t.Errorf("unknown value gives %v, want first", got)
	}
}

func TestNewPanelSpecRedrawsTakenIDs(t *testing.T) {
	ids := []string{
		"aaaaaaaa-0000-4000-8000-000000000000",
		"aaaaaaaa-1111-4000-8000-000000000000",
		"bbbbbbbb-0000-4000-8000-000000000000",
	}
	orig := newPanelID
	t.Cleanup(func() { newPanelID = orig })
	newPanelID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first := newPanelSpec(panel.Editor, nil)
	want := panel.Editor.String() + "-aaaaaaaa"
	if first.ID != want {
		t.Fatalf("first id = %q, want %q", first.ID, want)
	}

	second := newPanelSpec(panel.Editor, []protocol.PanelSpec{first})
	want = panel.Editor.String() + "-bbbbbbbb"
	if second.ID != want {
		t.Errorf("second id = %q, want %q", second.ID, want)
	}
	if len(ids) != 0 {
		t.Errorf("expected every candidate to be drawn, %d left", len(ids))
	}
	if second.Kind == nil || *second.Kind != panel.Editor {
		t.Errorf("kind = %v, want editor", second.Kind)
	}
}
