package cli

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panelgrid/pkg/layout"
	"github.com/matzehuels/panelgrid/pkg/panel"
	"github.com/matzehuels/panelgrid/pkg/protocol"
	"github.com/matzehuels/panelgrid/pkg/worker"
)

const (
	// canvasChrome is the number of terminal rows used by header and footer.
	canvasChrome = 3

	weightStep    = 0.25
	stabilityStep = 0.1
)

// canvasCommand creates the interactive canvas command.
func (c *CLI) canvasCommand() *cobra.Command {
	var (
		flags  searchFlags
		panels []string
	)

	cmd := &cobra.Command{
		Use:   "canvas",
		Short: "Arrange panels interactively in the terminal",
		Long: `Open an interactive canvas that lays out panels as you edit them.

The terminal window is the canvas. Add and remove panels, change their
kind, region, size class and weight, and drag a panel onto another with the
mouse to swap them. Every change is laid out by a background worker; only
the layout for the latest change is shown.`,
		Example: `  panelgrid canvas
  panelgrid canvas --panels editor,terminal,file-tree,diff
  panelgrid canvas --stability 0.6 --budget 50ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCanvas(cmd, &flags, panels)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&panels, "panels", []string{"editor", "terminal", "file-tree"}, "initial panel kinds")

	return cmd
}

func (c *CLI) runCanvas(cmd *cobra.Command, flags *searchFlags, kinds []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	specs := make([]protocol.PanelSpec, 0, len(kinds))
	for _, name := range kinds {
		k, err := panel.ParseKind(name)
		if err != nil {
			return err
		}
		specs = append(specs, newPanelSpec(k, specs))
	}

	opts, err := flags.options(cmd, c)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	layouts := make(chan worker.Layout, 1)
	ctrl := worker.NewController(worker.RunnerFunc(runner, opts), worker.ControllerOptions{
		Logger:   logger,
		OnLayout: func(l worker.Layout) { publishLatest(layouts, l) },
	})
	defer ctrl.Close()

	if cmd.Flags().Changed("stability") {
		if _, err := ctrl.SetStabilityWeight(flags.stability); err != nil {
			return err
		}
	}
	ctrl.SetPanels(specs)

	p := tea.NewProgram(newCanvasModel(ctrl, layouts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("canvas: %w", err)
	}
	return nil
}

// newPanelID is swapped in tests.
var newPanelID = uuid.NewString

// newPanelSpec returns a spec of kind k whose id is not used by existing.
// Ids keep a short uuid prefix so they fit in a grid cell; a prefix that is
// already taken is drawn again.
func newPanelSpec(k panel.Kind, existing []protocol.PanelSpec) protocol.PanelSpec {
	for {
		id := k.String() + "-" + newPanelID()[:8]
		taken := slices.ContainsFunc(existing, func(p protocol.PanelSpec) bool { return p.ID == id })
		if !taken {
			return protocol.PanelSpec{ID: id, Kind: &k}
		}
	}
}

// =============================================================================
// Model
// =============================================================================

type canvasKeys struct {
	quit      key.Binding
	add       key.Binding
	remove    key.Binding
	next      key.Binding
	prev      key.Binding
	kind      key.Binding
	region    key.Binding
	size      key.Binding
	heavier   key.Binding
	lighter   key.Binding
	stickier  key.Binding
	looser    key.Binding
	toggleAll key.Binding
}

func newCanvasKeys() canvasKeys {
	return canvasKeys{
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add panel")),
		remove:    key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
		kind:      key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "kind")),
		region:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "region")),
		size:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "size")),
		heavier:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "weight")),
		lighter:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "lighter")),
		stickier:  key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "stability")),
		looser:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "looser")),
		toggleAll: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	}
}

func (k canvasKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.add, k.remove, k.next, k.heavier, k.stickier, k.toggleAll, k.quit}
}

func (k canvasKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.add, k.remove, k.next, k.prev},
		{k.kind, k.region, k.size},
		{k.heavier, k.lighter, k.stickier, k.looser},
		{k.toggleAll, k.quit},
	}
}

// layoutMsg carries a layout accepted by the controller.
type layoutMsg worker.Layout

// canvasModel is the bubbletea model of the canvas command. The controller
// owns all panel state; the model keeps only what it draws.
type canvasModel struct {
	ctrl    *worker.Controller
	layouts <-chan worker.Layout
	keys    canvasKeys
	help    help.Model

	width, height int
	layout        worker.Layout
	selected      string
	status        string
}

func newCanvasModel(ctrl *worker.Controller, layouts <-chan worker.Layout) canvasModel {
	m := canvasModel{
		ctrl:    ctrl,
		layouts: layouts,
		keys:    newCanvasKeys(),
		help:    help.New(),
		layout:  ctrl.Layout(),
	}
	if panels := ctrl.Panels(); len(panels) > 0 {
		m.selected = panels[0].ID
	}
	return m
}

func (m canvasModel) Init() tea.Cmd {
	return waitForLayout(m.layouts)
}

// waitForLayout blocks until the controller publishes a layout.
func waitForLayout(ch <-chan worker.Layout) tea.Cmd {
	return func() tea.Msg {
		l, ok := <-ch
		if !ok {
			return nil
		}
		return layoutMsg(l)
	}
}

func (m canvasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.report(m.ctrl.SetCanvasSize(m.canvasSize()))
		return m, nil

	case layoutMsg:
		m.layout = worker.Layout(msg)
		return m, waitForLayout(m.layouts)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		m.handleKey(msg)
		return m, nil
	}
	return m, nil
}

func (m *canvasModel) handleKey(msg tea.KeyMsg) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.toggleAll):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.add):
		kinds := panel.Kinds()
		panels := m.ctrl.Panels()
		spec := newPanelSpec(kinds[len(panels)%len(kinds)], panels)
		if _, err := m.ctrl.AddPanel(spec); err != nil {
			m.status = err.Error()
			return
		}
		m.selected = spec.ID
	case key.Matches(msg, m.keys.remove):
		if m.selected == "" {
			return
		}
		panels := m.ctrl.Panels()
		i := slices.IndexFunc(panels, func(p protocol.PanelSpec) bool { return p.ID == m.selected })
		m.report(m.ctrl.RemovePanel(m.selected))
		m.selected = ""
		if rest := m.ctrl.Panels(); len(rest) > 0 {
			m.selected = rest[clampInt(i, 0, len(rest)-1)].ID
		}
	case key.Matches(msg, m.keys.next):
		m.step(1)
	case key.Matches(msg, m.keys.prev):
		m.step(-1)
	case key.Matches(msg, m.keys.kind):
		m.edit(func(s *protocol.PanelSpec) {
			k := cycle(panel.Kinds(), kindOf(s), 1)
			s.Kind = &k
		})
	case key.Matches(msg, m.keys.region):
		m.edit(func(s *protocol.PanelSpec) {
			r := cycle(layout.Regions(), s.Panel().Targets.Region, 1)
			s.Region = &r
		})
	case key.Matches(msg, m.keys.size):
		m.edit(func(s *protocol.PanelSpec) {
			sz := cycle(layout.SizeClasses(), s.Panel().Targets.Size, 1)
			s.SizeClass = &sz
		})
	case key.Matches(msg, m.keys.heavier):
		m.edit(func(s *protocol.PanelSpec) {
			w := s.Panel().Weight + weightStep
			s.Weight = &w
		})
	case key.Matches(msg, m.keys.lighter):
		m.edit(func(s *protocol.PanelSpec) {
			w := math.Max(0, s.Panel().Weight-weightStep)
			s.Weight = &w
		})
	case key.Matches(msg, m.keys.stickier):
		m.report(m.ctrl.SetStabilityWeight(math.Min(1, roundTenth(m.ctrl.StabilityWeight()+stabilityStep))))
	case key.Matches(msg, m.keys.looser):
		m.report(m.ctrl.SetStabilityWeight(math.Max(0, roundTenth(m.ctrl.StabilityWeight()-stabilityStep))))
	}
}

func (m *canvasModel) handleMouse(msg tea.MouseMsg) {
	if msg.Action == tea.MouseActionPress && msg.Button != tea.MouseButtonLeft {
		return
	}
	x, y, ok := m.canvasPoint(msg.X, msg.Y)
	if !ok {
		if msg.Action != tea.MouseActionRelease {
			return
		}
		// Releasing outside the canvas cancels the drag.
		x, y = math.NaN(), math.NaN()
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if id, ok := m.ctrl.BeginDrag(x, y); ok {
			m.selected = id
		}
	case tea.MouseActionMotion:
		m.ctrl.MoveDrag(x, y)
	case tea.MouseActionRelease:
		if dragged, ok := m.ctrl.Dragging(); ok {
			if _, swapped := m.ctrl.EndDrag(x, y); swapped {
				m.status = "swapped " + dragged
			}
		}
	}
}

// edit applies fn to the selected panel and sends the result to the
// controller.
func (m *canvasModel) edit(fn func(*protocol.PanelSpec)) {
	for _, p := range m.ctrl.Panels() {
		if p.ID == m.selected {
			fn(&p)
			m.report(m.ctrl.UpdatePanel(p))
			return
		}
	}
}

// step moves the selection by delta, wrapping around.
func (m *canvasModel) step(delta int) {
	panels := m.ctrl.Panels()
	if len(panels) == 0 {
		return
	}
	i := slices.IndexFunc(panels, func(p protocol.PanelSpec) bool { return p.ID == m.selected })
	i = ((i+delta)%len(panels) + len(panels)) % len(panels)
	m.selected = panels[i].ID
}

func (m *canvasModel) report(_ uint64, err error) {
	if err != nil {
		m.status = err.Error()
	}
}

// canvasSize maps the terminal to canvas units. One column is one unit and
// one row is two, so canvas proportions match what is on screen.
func (m canvasModel) canvasSize() (float64, float64) {
	rows := max(0, m.height-canvasChrome)
	return float64(m.width), float64(2 * rows)
}

// canvasPoint maps a terminal cell to the canvas point at its center.
func (m canvasModel) canvasPoint(col, row int) (float64, float64, bool) {
	row-- // header
	rows := m.height - canvasChrome
	if col < 0 || col >= m.width || row < 0 || row >= rows {
		return 0, 0, false
	}
	return float64(col) + 0.5, 2 * (float64(row) + 0.5), true
}

func (m canvasModel) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  request %d · stability %.1f · %d panels",
		m.ctrl.RequestID(), m.ctrl.StabilityWeight(), len(m.ctrl.Panels()))))
	b.WriteByte('\n')

	rows := m.height - canvasChrome
	w, h := m.canvasSize()
	highlight := slices.IndexFunc(m.layout.Assignments, func(a protocol.AssignmentSpec) bool {
		return a.PanelID == m.selected
	})
	if grid := renderGrid(m.layout.Assignments, w, h, m.width, rows, highlight); grid != "" {
		b.WriteString(grid)
	} else {
		b.WriteString(strings.Repeat("\n", max(0, rows)))
	}

	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m canvasModel) statusLine() string {
	if m.status != "" {
		return StyleWarning.Render(m.status)
	}
	for _, s := range m.ctrl.Panels() {
		if s.ID != m.selected {
			continue
		}
		p := s.Panel()
		line := fmt.Sprintf("%s · %s · %s · %s · weight %.2f",
			s.ID, kindOf(&s), p.Targets.Size, p.Targets.Region, p.Weight)
		if cell, ok := m.layout.Cell(s.ID); ok {
			line += " · " + cell.String()
		}
		return StyleHighlight.Render(line)
	}
	return StyleDim.Render("press a to add a panel")
}

// kindOf returns the kind of s; specs without one count as editors.
func kindOf(s *protocol.PanelSpec) panel.Kind {
	if s.Kind != nil && s.Kind.Valid() {
		return *s.Kind
	}
	return panel.Editor
}

// cycle returns the element after cur in values, wrapping around. Values
// not in the list start from the first element.
func cycle[T comparable](values []T, cur T, delta int) T {
	i := slices.Index(values, cur)
	if i < 0 {
		return values[0]
	}
	return values[((i+delta)%len(values)+len(values))%len(values)]
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
