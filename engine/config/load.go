package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file.
// A missing config file is not an error; defaults apply.
//
// Parameters:
//   - path: explicit config file path, or empty to search standard locations
//
// Returns:
//   - *Config: the merged configuration
//   - error: error if the file exists but cannot be parsed or validated
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
//
// Returns:
//   - error: error describing the first invalid value found
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("config: graphics dimensions must be positive, got %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Cluster.CountX == 0 || c.Cluster.CountY == 0 || c.Cluster.CountZ == 0 {
		return fmt.Errorf("config: cluster counts must be non-zero, got %dx%dx%d", c.Cluster.CountX, c.Cluster.CountY, c.Cluster.CountZ)
	}
	if c.Cluster.MaxLightsPerCluster == 0 {
		return fmt.Errorf("config: max_lights_per_cluster must be non-zero")
	}
	if c.Lighting.MaxLights == 0 {
		return fmt.Errorf("config: max_lights must be non-zero")
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// SaveTo writes the config to a specific path.
//
// Parameters:
//   - path: the destination file path; parent directories are created as needed
//
// Returns:
//   - error: error if marshaling or writing fails
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
