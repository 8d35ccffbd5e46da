package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/panelgrid/pkg/protocol"
)

func TestLayoutSummary(t *testing.T) {
	tests := []struct {
		name   string
		stats  protocol.Stats
		cached bool
		want   []string
		absent []string
	}{
		{"fresh", protocol.Stats{Runs: 57, Total: 2.4}, false, []string{"3 panels", "57 runs", "total", "2.400", "fresh"}, []string{"cached"}},
		{"cached", protocol.Stats{}, true, []string{"3 panels", "cached"}, []string{"runs", "total"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := layoutSummary(3, tt.stats, tt.cached)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("summary %q missing %q", got, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("summary %q should not contain %q", got, a)
				}
			}
		})
	}
}
