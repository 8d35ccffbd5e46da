package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/panelgrid/pkg/layout"
)

func ExamplePartition() {
	panels := []layout.Panel{
		{ID: "files", Weight: 1, Targets: layout.Targets{Size: layout.SizeLarge, AspectRatio: 0.625, Region: layout.RegionLeft}},
		{ID: "editor", Weight: 1, Targets: layout.Targets{Size: layout.SizeLarge, AspectRatio: 0.625, Region: layout.RegionRight}},
	}
	canvas := layout.Cell{Width: 1000, Height: 800}

	for _, a := range layout.Partition(canvas, panels, nil, 0) {
		fmt.Printf("%s %v %.2f\n", a.PanelID, a.Cell, a.Score)
	}
	// Output:
	// files 500.0x800.0@(0.0,0.0) 1.00
	// editor 500.0x800.0@(500.0,0.0) 1.00
}

func ExamplePartition_stability() {
	panels := []layout.Panel{
		{ID: "a", Weight: 1, Targets: layout.Targets{Size: layout.SizeMedium, AspectRatio: 1, Region: layout.RegionLeft}},
		{ID: "b", Weight: 1, Targets: layout.Targets{Size: layout.SizeMedium, AspectRatio: 1, Region: layout.RegionRight}},
	}
	canvas := layout.Cell{Width: 1000, Height: 800}

	// The user swapped the panels by hand; with full stability the
	// optimizer keeps the hand-made arrangement.
	prev := layout.PreviousIndex{
		"a": {X: 600, Y: 0, Width: 400, Height: 800},
		"b": {X: 0, Y: 0, Width: 600, Height: 800},
	}
	for _, a := range layout.Partition(canvas, panels, prev, 1) {
		fmt.Println(a.PanelID, a.Cell)
	}
	// Output:
	// a 400.0x800.0@(600.0,0.0)
	// b 600.0x800.0@(0.0,0.0)
}

func ExampleSearch() {
	panels := []layout.Panel{
		{ID: "editor", Weight: 2, Targets: layout.Targets{Size: layout.SizeLarge, AspectRatio: 4.0 / 3.0, Region: layout.RegionCenter}},
		{ID: "terminal", Weight: 1, Targets: layout.Targets{Size: layout.SizeMedium, AspectRatio: 16.0 / 9.0, Region: layout.RegionBottom}},
		{ID: "files", Weight: 1, Targets: layout.Targets{Size: layout.SizeSmall, AspectRatio: 0.5, Region: layout.RegionLeft}},
	}
	s := layout.Search{MaxRuns: 20, Seed: 1}
	res := s.Optimize(context.Background(), layout.Cell{Width: 1600, Height: 900}, panels, nil, 0.3)

	fmt.Println(len(res.Assignments), res.Runs)
	// Output: 3 20
}
