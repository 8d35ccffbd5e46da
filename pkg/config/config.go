// Package config loads panelgrid settings from a TOML file.
//
// A missing file is not an error: every setting has a default and the file
// only needs the keys it changes.
//
//	[layout]
//	budget = "100ms"
//	stability_weight = 0.3
//	distribution = "strict"     # or "best-effort"
//
//	[layout.weights]
//	size = 5                    # weight size fit five times the others
//
//	[cache]
//	backend = "redis"           # none | file | redis
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/panelgrid/pkg/errors"
	"github.com/matzehuels/panelgrid/pkg/layout"
)

const appName = "panelgrid"

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config is the full configuration file.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig tunes the optimizer and the anytime search.
type LayoutConfig struct {
	Budget              Duration          `toml:"budget"`
	StabilityWeight     float64           `toml:"stability_weight"`
	Seed                uint64            `toml:"seed"`
	MaxRuns             int               `toml:"max_runs"`
	Distribution        string            `toml:"distribution"`
	Ratios              []float64         `toml:"ratios"`
	Jitter              float64           `toml:"jitter"`
	PreferenceThreshold float64           `toml:"preference_threshold"`
	DisableContinuity   bool              `toml:"disable_continuity"`
	SizeTargets         SizeTargetsConfig `toml:"size_targets"`
	Weights             WeightsConfig     `toml:"weights"`
}

// SizeTargetsConfig maps size classes to fractions of canvas area.
type SizeTargetsConfig struct {
	Small  float64 `toml:"small"`
	Medium float64 `toml:"medium"`
	Large  float64 `toml:"large"`
}

// WeightsConfig holds the blend coefficients of the optimization score.
type WeightsConfig struct {
	Size   float64 `toml:"size"`
	Aspect float64 `toml:"aspect"`
	Region float64 `toml:"region"`
}

// CacheConfig selects and configures the layout result cache.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisDB       int      `toml:"redis_db"`
	RedisPassword string   `toml:"redis_password"`
	TTL           Duration `toml:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	LogFile string `toml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	lc := layout.DefaultConfig()
	return Config{
		Layout: LayoutConfig{
			Budget:              Duration{layout.DefaultBudget},
			StabilityWeight:     0.3,
			Distribution:        lc.Distribution.String(),
			Ratios:              append([]float64(nil), lc.Ratios...),
			Jitter:              lc.Jitter,
			PreferenceThreshold: lc.PreferenceThreshold,
			SizeTargets: SizeTargetsConfig{
				Small:  lc.SizeTargets.Small,
				Medium: lc.SizeTargets.Medium,
				Large:  lc.SizeTargets.Large,
			},
			Weights: WeightsConfig{
				Size:   lc.Weights.Size,
				Aspect: lc.Weights.Aspect,
				Region: lc.Weights.Region,
			},
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       Duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// DefaultPath returns the configuration file location using the XDG
// standard (~/.config/panelgrid/config.toml).
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns the cache directory using the XDG standard
// (~/.cache/panelgrid/).
func DefaultCacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the file at path over the defaults and validates the result.
// An empty path means DefaultPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected so typos do not pass silently.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	l := c.Layout
	if err := errors.ValidateBudget(l.Budget.Duration); err != nil {
		return err
	}
	if err := errors.ValidateStabilityWeight(l.StabilityWeight); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout.stability_weight")
	}
	if _, err := layout.ParseDistribution(l.Distribution); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout.distribution")
	}
	if l.MaxRuns < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.max_runs cannot be negative")
	}
	for _, r := range l.Ratios {
		if err := errors.ValidateRatio(r); err != nil {
			return err
		}
	}
	if l.Jitter < 0 || l.Jitter >= 0.5 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.jitter must be in [0,0.5)")
	}
	if l.PreferenceThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.preference_threshold cannot be negative")
	}
	st := l.SizeTargets
	for name, v := range map[string]float64{"small": st.Small, "medium": st.Medium, "large": st.Large} {
		if v <= 0 || v > 1 {
			return errors.New(errors.ErrCodeInvalidConfig, "layout.size_targets.%s must be in (0,1]", name)
		}
	}
	w := l.Weights
	if w.Size < 0 || w.Aspect < 0 || w.Region < 0 || w.Size+w.Aspect+w.Region == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.weights must be non-negative and not all zero")
	}

	switch c.Cache.Backend {
	case BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache.backend %q (must be one of: none, file, redis)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}
	return nil
}

// LayoutOptions converts the layout section into optimizer settings.
func (c Config) LayoutOptions() layout.Config {
	l := c.Layout
	dist, _ := layout.ParseDistribution(l.Distribution)
	return layout.Config{
		SizeTargets:         layout.SizeTargets{Small: l.SizeTargets.Small, Medium: l.SizeTargets.Medium, Large: l.SizeTargets.Large},
		Weights:             layout.Weights{Size: l.Weights.Size, Aspect: l.Weights.Aspect, Region: l.Weights.Region},
		Ratios:              append([]float64(nil), l.Ratios...),
		Distribution:        dist,
		PreferenceThreshold: l.PreferenceThreshold,
		Jitter:              l.Jitter,
		DisableContinuity:   l.DisableContinuity,
	}
}

// CacheDir returns the configured cache directory or the default one.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Save writes c to path, creating parent directories.
func (c Config) Save(path string) error {
	var buf bytes.Buffer
	buf.WriteString("# panelgrid configuration\n\n")
	if err := c.Write(&buf); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
