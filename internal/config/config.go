// Package config handles terrain generator configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/fractal-terrain/internal/terrain"
)

// Config holds all generator settings.
type Config struct {
	Terrain terrain.Config `yaml:"terrain"`
	Server  ServerConfig   `yaml:"server"`
	Preview PreviewConfig  `yaml:"preview"`
	Logging LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds mesh server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadBuffer   int           `yaml:"read_buffer"`   // WebSocket read buffer in bytes
	WriteBuffer  int           `yaml:"write_buffer"`  // WebSocket write buffer in bytes
	WriteTimeout time.Duration `yaml:"write_timeout"` // Per-message write deadline
	MaxDiv       int           `yaml:"max_div"`       // Largest division a client may request
}

// PreviewConfig holds preview image settings.
type PreviewConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"` // png or bmp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: terrain.DefaultConfig(),
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadBuffer:   1024,
			WriteBuffer:  64 * 1024,
			WriteTimeout: 10 * time.Second,
			MaxDiv:       512,
		},
		Preview: PreviewConfig{
			Width:  512,
			Height: 512,
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
