// Package panel defines the kinds of panel that can appear on a canvas and
// the layout preferences each kind carries.
//
// A panel kind owns its preferences; the optimizer only sees the resolved
// [layout.Targets]. Kind is a closed enum and [Kind.Targets] switches over
// every variant, so adding a kind without preferences fails review rather
// than silently falling back to defaults.
package panel

import (
	"fmt"
	"strings"

	"github.com/matzehuels/panelgrid/pkg/layout"
)

// Kind identifies what a panel shows.
type Kind int

const (
	Terminal Kind = iota
	Editor
	FileTree
	Diff
	Agent
)

var kindNames = [...]string{
	Terminal: "terminal",
	Editor:   "editor",
	FileTree: "file-tree",
	Diff:     "diff",
	Agent:    "agent",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Terminal, Editor, FileTree, Diff, Agent}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= Terminal && k <= Agent
}

// ParseKind parses a kind name. Underscores and spaces are accepted in place
// of hyphens and "filetree" is accepted for file-tree.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("_", "-", " ", "-").Replace(name)
	if name == "filetree" {
		name = "file-tree"
	}
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown panel kind %q (must be one of: terminal, editor, file-tree, diff, agent)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid panel kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Targets returns the layout preferences of the kind.
func (k Kind) Targets() layout.Targets {
	switch k {
	case Terminal:
		return layout.Targets{Size: layout.SizeMedium, AspectRatio: 16.0 / 9.0, Region: layout.RegionBottom}
	case Editor:
		return layout.Targets{Size: layout.SizeLarge, AspectRatio: 4.0 / 3.0, Region: layout.RegionCenter}
	case FileTree:
		return layout.Targets{Size: layout.SizeSmall, AspectRatio: 1.0 / 2.0, Region: layout.RegionLeft}
	case Diff:
		return layout.Targets{Size: layout.SizeMedium, AspectRatio: 16.0 / 10.0, Region: layout.RegionRight}
	case Agent:
		return layout.Targets{Size: layout.SizeMedium, AspectRatio: 3.0 / 4.0, Region: layout.RegionTopRight}
	default:
		panic(fmt.Sprintf("panel: unhandled kind %d", int(k)))
	}
}

// DefaultWeight is the weight a new panel of the kind starts with. Editors
// count double so they win contested space.
func (k Kind) DefaultWeight() float64 {
	switch k {
	case Editor:
		return 2
	case Terminal, Diff, Agent:
		return 1
	case FileTree:
		return 0.75
	default:
		return 1
	}
}

// New builds a layout panel of kind k with its default weight and targets.
func New(k Kind, id string) layout.Panel {
	return layout.Panel{ID: id, Weight: k.DefaultWeight(), Targets: k.Targets()}
}
