package panel_test

import (
	"fmt"

	"github.com/matzehuels/panelgrid/pkg/panel"
)

func ExampleKind_Targets() {
	for _, k := range panel.Kinds() {
		t := k.Targets()
		fmt.Printf("%-9s %-6s %.2f %s\n", k, t.Size, t.AspectRatio, t.Region)
	}
	// Output:
	// terminal  medium 1.78 bottom
	// editor    large  1.33 center
	// file-tree small  0.50 left
	// diff      medium 1.60 right
	// agent     medium 0.75 top-right
}
