package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/panelgrid/pkg/errors"
	"github.com/matzehuels/panelgrid/pkg/layout"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Layout.Budget.Duration != 100*time.Millisecond {
		t.Errorf("Budget = %v, want 100ms", cfg.Layout.Budget)
	}
	if cfg.Layout.Distribution != "strict" {
		t.Errorf("Distribution = %q, want strict", cfg.Layout.Distribution)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[layout]
budget = "250ms"
distribution = "best-effort"
ratios = [0.25, 0.5, 0.75]

[layout.weights]
size = 5

[cache]
backend = "redis"
redis_addr = "cache:6379"
ttl = "1h"
`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if cfg.Layout.Budget.Duration != 250*time.Millisecond {
		t.Errorf("Budget = %v", cfg.Layout.Budget)
	}
	if cfg.Layout.StabilityWeight != 0.3 {
		t.Errorf("StabilityWeight = %v, want default 0.3", cfg.Layout.StabilityWeight)
	}
	if cfg.Layout.Weights != (WeightsConfig{Size: 5, Aspect: 1, Region: 1}) {
		t.Errorf("Weights = %+v", cfg.Layout.Weights)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}

	lc := cfg.LayoutOptions()
	if lc.Distribution != layout.DistributionBestEffort {
		t.Errorf("LayoutOptions().Distribution = %v", lc.Distribution)
	}
	if len(lc.Ratios) != 3 || lc.Weights.Size != 5 {
		t.Errorf("LayoutOptions() = %+v", lc)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"syntax", `[layout`},
		{"unknown key", "[layout]\nbudgte = \"1s\""},
		{"bad duration", "[layout]\nbudget = \"fast\""},
		{"negative budget", "[layout]\nbudget = \"-1s\""},
		{"stability out of range", "[layout]\nstability_weight = 2.0"},
		{"bad distribution", "[layout]\ndistribution = \"loose\""},
		{"bad ratio", "[layout]\nratios = [0.5, 1.0]"},
		{"zero weights", "[layout.weights]\nsize = 0.0\naspect = 0.0\nregion = 0.0"},
		{"bad size target", "[layout.size_targets]\nlarge = 1.5"},
		{"bad backend", "[cache]\nbackend = \"memcached\""},
		{"redis without addr", "[cache]\nbackend = \"redis\"\nredis_addr = \"\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %q, want %q (%v)", errors.GetCode(err), errors.ErrCodeInvalidConfig, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("missing file should yield defaults, got %+v", cfg.Server)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Layout.Seed = 42
	cfg.Layout.MaxRuns = 10
	cfg.Server.Addr = "127.0.0.1:9000"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Layout.Seed != 42 || got.Layout.MaxRuns != 10 || got.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("round trip lost values: %+v", got)
	}
	if got.Layout.Budget != cfg.Layout.Budget {
		t.Errorf("Budget = %v, want %v", got.Layout.Budget, cfg.Layout.Budget)
	}
}

func TestWriteUsesDurationStrings(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`budget = "100ms"`)) {
		t.Errorf("encoded config should contain the budget as a string:\n%s", buf.String())
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")

	p, err := DefaultPath()
	if err != nil || p != filepath.Join("/tmp/cfg", "panelgrid", "config.toml") {
		t.Errorf("DefaultPath() = %q, %v", p, err)
	}
	d, err := Default().CacheDir()
	if err != nil || d != filepath.Join("/tmp/cache", "panelgrid") {
		t.Errorf("CacheDir() = %q, %v", d, err)
	}

	cfg := Default()
	cfg.Cache.Dir = "/var/cache/pg"
	if d, _ := cfg.CacheDir(); d != "/var/cache/pg" {
		t.Errorf("explicit dir ignored: %q", d)
	}
}

func TestLoadUnreadable(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be read as a file.
	if _, err := Load(dir); err == nil {
		t.Error("Load of a directory should fail")
	}
}
