package engine

import (
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the engine's tuning knobs. Every field is optional:
// the zero value of Config behaves like DefaultConfig once normalized.
type Config struct {
	// WindowSize is the render window measured in multiples of the
	// visible item count, following the convention of list components
	// that size their window in viewport heights.
	WindowSize int `yaml:"windowSize"`
	// InitialNumToRender is the minimum number of items rendered on
	// first layout.
	InitialNumToRender int `yaml:"initialNumToRender"`
	// MaxToRenderPerBatch caps how many render tasks one frame batch
	// may process before yielding.
	MaxToRenderPerBatch int `yaml:"maxToRenderPerBatch"`
	// UpdateBatchingPeriod throttles re-renders caused by render-range
	// drift alone to at most one per period.
	UpdateBatchingPeriod time.Duration `yaml:"updateBatchingPeriod"`
	// FrameBudget is the wall-clock allowance for virtualization work
	// within one display-refresh interval.
	FrameBudget time.Duration `yaml:"frameBudget"`
	// EnableRecycling toggles component pooling. Disabled, every
	// build constructs a fresh renderable.
	EnableRecycling *bool `yaml:"enableRecycling"`
	// MaxPoolSize bounds each per-item-type component pool.
	MaxPoolSize int `yaml:"maxPoolSize"`
	// EnablePerformanceMonitoring turns on frame bracketing and
	// advisory alerts.
	EnablePerformanceMonitoring bool `yaml:"enablePerformanceMonitoring"`
	// OnEndReachedThreshold is the fraction of the list remaining at
	// which the end-reached callback fires.
	OnEndReachedThreshold float64 `yaml:"onEndReachedThreshold"`
	// EstimatedItemSize fixes the per-item extent, skipping all size
	// learning when positive.
	EstimatedItemSize float64 `yaml:"estimatedItemSize"`
	// MeasurementCacheSize caps the number of exact measurements kept
	// before the oldest are evicted.
	MeasurementCacheSize int `yaml:"measurementCacheSize"`
	// Debug enables structured debug logging to stderr.
	Debug bool `yaml:"debug"`
}

// Configuration defaults.
const (
	DefaultWindowSize            = 21
	DefaultInitialNumToRender    = 10
	DefaultMaxToRenderPerBatch   = 10
	DefaultUpdateBatchingPeriod  = 50 * time.Millisecond
	DefaultFrameBudget           = 16 * time.Millisecond
	DefaultMaxPoolSize           = 15
	DefaultOnEndReachedThreshold = 0.1
	DefaultMeasurementCacheSize  = 500
)

// DefaultConfig returns a Config populated with the documented
// defaults.
func DefaultConfig() Config {
	enabled := true
	return Config{
		WindowSize:            DefaultWindowSize,
		InitialNumToRender:    DefaultInitialNumToRender,
		MaxToRenderPerBatch:   DefaultMaxToRenderPerBatch,
		UpdateBatchingPeriod:  DefaultUpdateBatchingPeriod,
		FrameBudget:           DefaultFrameBudget,
		EnableRecycling:       &enabled,
		MaxPoolSize:           DefaultMaxPoolSize,
		OnEndReachedThreshold: DefaultOnEndReachedThreshold,
		MeasurementCacheSize:  DefaultMeasurementCacheSize,
	}
}

// LoadConfig reads a YAML configuration file. A missing file is not an
// error: defaults are returned, mirroring optional framework config
// files.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg.normalized(), nil
}

// UnmarshalYAML decodes a Config, accepting durations either as
// human-readable strings ("16ms") or as bare nanosecond integers.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		WindowSize                  int       `yaml:"windowSize"`
		InitialNumToRender          int       `yaml:"initialNumToRender"`
		MaxToRenderPerBatch         int       `yaml:"maxToRenderPerBatch"`
		UpdateBatchingPeriod        yaml.Node `yaml:"updateBatchingPeriod"`
		FrameBudget                 yaml.Node `yaml:"frameBudget"`
		EnableRecycling             *bool     `yaml:"enableRecycling"`
		MaxPoolSize                 int       `yaml:"maxPoolSize"`
		EnablePerformanceMonitoring bool      `yaml:"enablePerformanceMonitoring"`
		OnEndReachedThreshold       float64   `yaml:"onEndReachedThreshold"`
		EstimatedItemSize           float64   `yaml:"estimatedItemSize"`
		MeasurementCacheSize        int       `yaml:"measurementCacheSize"`
		Debug                       bool      `yaml:"debug"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.WindowSize = raw.WindowSize
	c.InitialNumToRender = raw.InitialNumToRender
	c.MaxToRenderPerBatch = raw.MaxToRenderPerBatch
	c.EnableRecycling = raw.EnableRecycling
	c.MaxPoolSize = raw.MaxPoolSize
	c.EnablePerformanceMonitoring = raw.EnablePerformanceMonitoring
	c.OnEndReachedThreshold = raw.OnEndReachedThreshold
	c.EstimatedItemSize = raw.EstimatedItemSize
	c.MeasurementCacheSize = raw.MeasurementCacheSize
	c.Debug = raw.Debug

	var err error
	if c.UpdateBatchingPeriod, err = decodeDuration(&raw.UpdateBatchingPeriod); err != nil {
		return fmt.Errorf("updateBatchingPeriod: %w", err)
	}
	if c.FrameBudget, err = decodeDuration(&raw.FrameBudget); err != nil {
		return fmt.Errorf("frameBudget: %w", err)
	}
	return nil
}

func decodeDuration(node *yaml.Node) (time.Duration, error) {
	if node.IsZero() {
		return 0, nil
	}
	var s string
	if err := node.Decode(&s); err == nil {
		return time.ParseDuration(s)
	}
	var n int64
	if err := node.Decode(&n); err == nil {
		return time.Duration(n), nil
	}
	return 0, fmt.Errorf("invalid duration %q", node.Value)
}

// RecyclingEnabled resolves the EnableRecycling tri-state.
func (c Config) RecyclingEnabled() bool {
	return c.EnableRecycling == nil || *c.EnableRecycling
}

// normalized fills unset fields with defaults and clamps nonsense
// values. Faulty configuration degrades, never faults.
func (c Config) normalized() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.InitialNumToRender <= 0 {
		c.InitialNumToRender = DefaultInitialNumToRender
	}
	if c.MaxToRenderPerBatch <= 0 {
		c.MaxToRenderPerBatch = DefaultMaxToRenderPerBatch
	}
	if c.UpdateBatchingPeriod <= 0 {
		c.UpdateBatchingPeriod = DefaultUpdateBatchingPeriod
	}
	if c.FrameBudget <= 0 {
		c.FrameBudget = DefaultFrameBudget
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = DefaultMaxPoolSize
	}
	if c.OnEndReachedThreshold <= 0 || c.OnEndReachedThreshold > 1 {
		c.OnEndReachedThreshold = DefaultOnEndReachedThreshold
	}
	if c.EstimatedItemSize < 0 {
		c.EstimatedItemSize = 0
	}
	if c.MeasurementCacheSize <= 0 {
		c.MeasurementCacheSize = DefaultMeasurementCacheSize
	}
	return c
}
