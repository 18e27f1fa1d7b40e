package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Graphics.MSAA != 4 {
		t.Errorf("expected msaa 4, got %d", cfg.Graphics.MSAA)
	}

	if cfg.Cluster.CountX != 16 || cfg.Cluster.CountY != 9 || cfg.Cluster.CountZ != 24 {
		t.Errorf("expected cluster grid 16x9x24, got %dx%dx%d", cfg.Cluster.CountX, cfg.Cluster.CountY, cfg.Cluster.CountZ)
	}
	if cfg.Cluster.MaxLightsPerCluster != 128 {
		t.Errorf("expected max_lights_per_cluster 128, got %d", cfg.Cluster.MaxLightsPerCluster)
	}

	if cfg.Lighting.MaxLights != 256 {
		t.Errorf("expected max_lights 256, got %d", cfg.Lighting.MaxLights)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `graphics:
  width: 1920
  height: 1080
  vsync: false
cluster:
  count_z: 32
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.VSync {
		t.Error("expected vsync to be overridden to false")
	}
	// Unset file values fall back to defaults.
	if cfg.Cluster.CountX != 16 {
		t.Errorf("expected default count_x 16, got %d", cfg.Cluster.CountX)
	}
	if cfg.Cluster.CountZ != 32 {
		t.Errorf("expected count_z 32, got %d", cfg.Cluster.CountZ)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
}

func TestLoadExplicitMissingPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for explicit missing path")
	}
}

func TestValidateRejectsZeroClusterCounts(t *testing.T) {
	cfg := Default()
	cfg.Cluster.CountY = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero cluster count")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved", "config.yaml")

	cfg := Default()
	cfg.Graphics.Width = 2560
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Graphics.Width != 2560 {
		t.Errorf("expected width 2560 after round trip, got %d", loaded.Graphics.Width)
	}
}
