package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/panelgrid/pkg/protocol"
)

// previewPalette colors panels in terminal previews, cycling by index.
var previewPalette = []lipgloss.Color{colorCyan, colorGreen, colorYellow, colorBlue, colorRed, colorWhite}

// previewCols is the default preview width in terminal columns.
const previewCols = 72

// renderPreview draws assignments on a cols-wide character grid followed by
// a legend. Terminal cells are about twice as tall as wide, so the grid has
// half as many rows as the canvas proportions suggest.
func renderPreview(assignments []protocol.AssignmentSpec, width, height float64, cols int) string {
	if cols <= 0 || width <= 0 || height <= 0 {
		return StyleDim.Render("(empty canvas)")
	}
	rows := max(3, int(math.Round(float64(cols)*height/width/2)))

	var b strings.Builder
	b.WriteString(renderGrid(assignments, width, height, cols, rows, -1))
	for i, a := range assignments {
		fmt.Fprintf(&b, "%s %s %s\n",
			paletteStyle(i).Render("■ "+a.PanelID),
			StyleDim.Render(a.Cell.String()),
			StyleNumber.Render(fmt.Sprintf("%.2f", a.Score)))
	}
	return b.String()
}

// renderGrid draws assignments scaled onto a cols x rows grid. The panel at
// index highlight is drawn in bold; pass -1 for none.
func renderGrid(assignments []protocol.AssignmentSpec, width, height float64, cols, rows, highlight int) string {
	if cols <= 0 || rows <= 0 || width <= 0 || height <= 0 {
		return ""
	}
	grid := make([][]rune, rows)
	owner := make([][]int, rows)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", cols))
		owner[y] = make([]int, cols)
		for x := range owner[y] {
			owner[y][x] = -1
		}
	}

	scaleX := float64(cols) / width
	scaleY := float64(rows) / height
	for i, a := range assignments {
		x0 := clampInt(int(math.Round(a.Cell.X*scaleX)), 0, cols)
		x1 := clampInt(int(math.Round(a.Cell.Right()*scaleX)), 0, cols)
		y0 := clampInt(int(math.Round(a.Cell.Y*scaleY)), 0, rows)
		y1 := clampInt(int(math.Round(a.Cell.Bottom()*scaleY)), 0, rows)
		if x1-x0 < 1 || y1-y0 < 1 {
			continue
		}
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				owner[y][x] = i
			}
		}
		drawBox(grid, x0, y0, x1, y1, a.PanelID)
	}

	var b strings.Builder
	for y := range grid {
		writeRow(&b, grid[y], owner[y], highlight)
		b.WriteByte('\n')
	}
	return b.String()
}

func paletteStyle(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(previewPalette[i%len(previewPalette)])
}

// drawBox draws a border around [x0,x1)x[y0,y1) and centers label inside.
func drawBox(grid [][]rune, x0, y0, x1, y1 int, label string) {
	w, h := x1-x0, y1-y0
	if w < 2 || h < 2 {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				grid[y][x] = '░'
			}
		}
		return
	}
	for x := x0 + 1; x < x1-1; x++ {
		grid[y0][x] = '─'
		grid[y1-1][x] = '─'
	}
	for y := y0 + 1; y < y1-1; y++ {
		grid[y][x0] = '│'
		grid[y][x1-1] = '│'
	}
	grid[y0][x0], grid[y0][x1-1] = '┌', '┐'
	grid[y1-1][x0], grid[y1-1][x1-1] = '└', '┘'

	inner := []rune(label)
	if len(inner) > w-2 {
		inner = inner[:max(0, w-2)]
	}
	if h < 3 || len(inner) == 0 {
		return
	}
	row := y0 + h/2
	start := x0 + 1 + (w-2-len(inner))/2
	copy(grid[row][start:], inner)
}

// writeRow renders one grid row, coloring runs of cells by owner.
func writeRow(b *strings.Builder, row []rune, owners []int, highlight int) {
	start := 0
	for x := 1; x <= len(row); x++ {
		if x < len(row) && owners[x] == owners[start] {
			continue
		}
		seg := string(row[start:x])
		if o := owners[start]; o >= 0 {
			style := paletteStyle(o)
			if o == highlight {
				style = style.Bold(true)
			}
			seg = style.Render(seg)
		}
		b.WriteString(seg)
		start = x
	}
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
