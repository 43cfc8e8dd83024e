package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.WindowSize != DefaultWindowSize {
		t.Errorf("WindowSize = %d, want %d", cfg.WindowSize, DefaultWindowSize)
	}
	if cfg.FrameBudget != DefaultFrameBudget {
		t.Errorf("FrameBudget = %v, want %v", cfg.FrameBudget, DefaultFrameBudget)
	}
	if !cfg.RecyclingEnabled() {
		t.Error("recycling disabled by default")
	}
	if cfg.EnablePerformanceMonitoring {
		t.Error("performance monitoring enabled by default")
	}
}

func TestZeroConfigNormalizesToDefaults(t *testing.T) {
	cfg := Config{}.normalized()
	want := DefaultConfig()

	if cfg.WindowSize != want.WindowSize ||
		cfg.InitialNumToRender != want.InitialNumToRender ||
		cfg.MaxToRenderPerBatch != want.MaxToRenderPerBatch ||
		cfg.UpdateBatchingPeriod != want.UpdateBatchingPeriod ||
		cfg.FrameBudget != want.FrameBudget ||
		cfg.MaxPoolSize != want.MaxPoolSize ||
		cfg.OnEndReachedThreshold != want.OnEndReachedThreshold ||
		cfg.MeasurementCacheSize != want.MeasurementCacheSize {
		t.Errorf("normalized zero config = %+v, want defaults %+v", cfg, want)
	}
	if !cfg.RecyclingEnabled() {
		t.Error("nil EnableRecycling must resolve to enabled")
	}
}

func TestNormalizedClampsInvalidValues(t *testing.T) {
	cfg := Config{
		WindowSize:            -3,
		OnEndReachedThreshold: 1.5,
		EstimatedItemSize:     -10,
		FrameBudget:           -time.Millisecond,
	}.normalized()

	if cfg.WindowSize != DefaultWindowSize {
		t.Errorf("WindowSize = %d, want default %d", cfg.WindowSize, DefaultWindowSize)
	}
	if cfg.OnEndReachedThreshold != DefaultOnEndReachedThreshold {
		t.Errorf("OnEndReachedThreshold = %v, want default %v", cfg.OnEndReachedThreshold, DefaultOnEndReachedThreshold)
	}
	if cfg.EstimatedItemSize != 0 {
		t.Errorf("EstimatedItemSize = %v, want 0 (adaptive)", cfg.EstimatedItemSize)
	}
	if cfg.FrameBudget != DefaultFrameBudget {
		t.Errorf("FrameBudget = %v, want default %v", cfg.FrameBudget, DefaultFrameBudget)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "virtuallist.yaml")
	content := `
windowSize: 11
initialNumToRender: 6
maxToRenderPerBatch: 4
updateBatchingPeriod: 100ms
frameBudget: 8ms
enableRecycling: false
maxPoolSize: 8
enablePerformanceMonitoring: true
onEndReachedThreshold: 0.25
estimatedItemSize: 72.5
measurementCacheSize: 200
debug: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.WindowSize != 11 {
		t.Errorf("WindowSize = %d, want 11", cfg.WindowSize)
	}
	if cfg.UpdateBatchingPeriod != 100*time.Millisecond {
		t.Errorf("UpdateBatchingPeriod = %v, want 100ms", cfg.UpdateBatchingPeriod)
	}
	if cfg.FrameBudget != 8*time.Millisecond {
		t.Errorf("FrameBudget = %v, want 8ms", cfg.FrameBudget)
	}
	if cfg.RecyclingEnabled() {
		t.Error("enableRecycling: false not honored")
	}
	if !cfg.EnablePerformanceMonitoring {
		t.Error("enablePerformanceMonitoring: true not honored")
	}
	if cfg.EstimatedItemSize != 72.5 {
		t.Errorf("EstimatedItemSize = %v, want 72.5", cfg.EstimatedItemSize)
	}
	if !cfg.Debug {
		t.Error("debug: true not honored")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig on a missing file: %v", err)
	}
	if cfg.WindowSize != DefaultWindowSize {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("windowSize: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}
