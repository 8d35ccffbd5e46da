package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panelgrid/pkg/pipeline"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

func TestSearchFlagsApply(t *testing.T) {
	tests := []struct {
		name       string
		set        map[string]string
		req        protocol.Request
		wantW      float64
		wantH      float64
		wantStable float64
	}{
		{
			name:  "missing canvas gets defaults",
			req:   protocol.Request{},
			wantW: pipeline.DefaultCanvasWidth,
			wantH: pipeline.DefaultCanvasHeight,
		},
		{
			name:  "request canvas kept",
			req:   protocol.Request{CanvasWidth: 300, CanvasHeight: 200, StabilityWeight: 0.5},
			wantW: 300, wantH: 200, wantStable: 0.5,
		},
		{
			name:  "zero height is not a missing canvas",
			req:   protocol.Request{CanvasWidth: 300},
			wantW: 300, wantH: 0,
		},
		{
			name:  "flags override",
			set:   map[string]string{"width": "640", "stability": "0.9"},
			req:   protocol.Request{CanvasWidth: 300, CanvasHeight: 200, StabilityWeight: 0.5},
			wantW: 640, wantH: 200, wantStable: 0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags searchFlags
			cmd := &cobra.Command{}
			flags.register(cmd)
			for k, v := range tt.set {
				if err := cmd.Flags().Set(k, v); err != nil {
					t.Fatal(err)
				}
			}

			req := tt.req
			flags.apply(cmd, &req)
			if req.CanvasWidth != tt.wantW || req.CanvasHeight != tt.wantH {
				t.Errorf("canvas = %vx%v, want %vx%v", req.CanvasWidth, req.CanvasHeight, tt.wantW, tt.wantH)
			}
			if req.StabilityWeight != tt.wantStable {
				t.Errorf("stability = %v, want %v", req.StabilityWeight, tt.wantStable)
			}
		})
	}
}

func TestSearchFlagsOptions(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.ConfigPath = filepath.Join(t.TempDir(), "missing.toml")

	var flags searchFlags
	cmd := &cobra.Command{}
	flags.register(cmd)
	for k, v := range map[string]string{"seed": "42", "max-runs": "3", "distribution": "best-effort", "no-cache": "true"} {
		if err := cmd.Flags().Set(k, v); err != nil {
			t.Fatal(err)
		}
	}

	opts, err := flags.options(cmd, c)
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}
	if opts.Seed != 42 || opts.MaxRuns != 3 || !opts.NoCache {
		t.Errorf("options = %+v, want seed 42, max runs 3, no cache", opts)
	}
	if got := opts.Layout.Distribution.String(); got != "best-effort" {
		t.Errorf("distribution = %q, want best-effort", got)
	}

	if err := cmd.Flags().Set("distribution", "bogus"); err != nil {
		t.Fatal(err)
	}
	if _, err := flags.options(cmd, c); err == nil {
		t.Error("options() should reject an unknown distribution")
	}
}

func TestLayoutCommandWritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "request.json")
	out := filepath.Join(dir, "layout.json")
	req := `{"requestId":3,"panels":[{"id":"main","kind":"editor"},{"id":"shell","kind":"terminal"}],"canvasWidth":1000,"canvasHeight":800}`
	if err := os.WriteFile(in, []byte(req), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	c.ConfigPath = filepath.Join(dir, "missing.toml")
	run(t, c, "layout", in, "-o", out, "--no-cache", "--max-runs", "2")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var resp protocol.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if resp.RequestID != 3 {
		t.Errorf("RequestID = %d, want 3", resp.RequestID)
	}
	if len(resp.Assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(resp.Assignments))
	}
	if resp.Assignments[0].PanelID != "main" || resp.Assignments[1].PanelID != "shell" {
		t.Errorf("assignments out of input order: %+v", resp.Assignments)
	}
}

func TestLayoutCommandRejectsInvalidRequest(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "request.json")
	req := `{"panels":[{"id":"a"},{"id":"a"}],"canvasWidth":100,"canvasHeight":100}`
	if err := os.WriteFile(in, []byte(req), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	c.ConfigPath = filepath.Join(dir, "missing.toml")
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"layout", in, "--no-cache"})
	if err := root.Execute(); err == nil {
		t.Error("duplicate panel ids should be rejected")
	}
}
