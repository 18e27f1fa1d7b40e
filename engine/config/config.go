// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Cluster  ClusterConfig  `yaml:"cluster"`
	Lighting LightingConfig `yaml:"lighting"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	MSAA       uint32 `yaml:"msaa"`
}

// ClusterConfig holds the light-culling cluster grid dimensions.
type ClusterConfig struct {
	CountX              uint32 `yaml:"count_x"`
	CountY              uint32 `yaml:"count_y"`
	CountZ              uint32 `yaml:"count_z"`
	MaxLightsPerCluster uint32 `yaml:"max_lights_per_cluster"`
}

// LightingConfig holds scene lighting settings.
type LightingConfig struct {
	MaxLights    uint32     `yaml:"max_lights"`
	AmbientColor [3]float32 `yaml:"ambient_color"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			MSAA:       4,
		},
		Cluster: ClusterConfig{
			CountX:              16,
			CountY:              9,
			CountZ:              24,
			MaxLightsPerCluster: 128,
		},
		Lighting: LightingConfig{
			MaxLights:    256,
			AmbientColor: [3]float32{0.03, 0.03, 0.03},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
