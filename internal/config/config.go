// Package config holds the application configuration for the livemoji CLI
package config

import (
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Export   ExportConfig   `yaml:"export"`
	Store    StoreConfig    `yaml:"store"`
	Locator  LocatorConfig  `yaml:"locator"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig holds configuration for the processing pipeline
type PipelineConfig struct {
	Style     string  `yaml:"style"`
	Animation string  `yaml:"animation"`
	Intensity float64 `yaml:"intensity"`
	Duration  float64 `yaml:"duration"`
}

// ExportConfig holds configuration for media encoding
type ExportConfig struct {
	OutputDir  string `yaml:"output_dir"`
	FilePrefix string `yaml:"file_prefix"`
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// StoreConfig holds configuration for record persistence
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LocatorConfig selects the face locator backend
type LocatorConfig struct {
	Backend string `yaml:"backend"` // "saliency" or "ollama"
	URL     string `yaml:"url"`
	Model   string `yaml:"model"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".livemoji")

	return &Config{
		Pipeline: PipelineConfig{
			Style:     "anime",
			Animation: "bounce",
			Intensity: 0.8,
			Duration:  2.0,
		},
		Export: ExportConfig{
			OutputDir:  filepath.Join(base, "exports"),
			FilePrefix: "livemoji",
			FFmpegPath: "ffmpeg",
		},
		Store: StoreConfig{
			Path: filepath.Join(base, "emojis.json"),
		},
		Locator: LocatorConfig{
			Backend: "saliency",
			URL:     "http://localhost:11434",
			Model:   "llava",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML configuration file, layering it over the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}
	return cfg, nil
}
