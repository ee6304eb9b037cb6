// Package config holds tool configuration loaded from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

type (
	ExtractConfig struct {
		ReadingSpeedWPM  int  `yaml:"reading_speed_wpm"`
		IncludeNonLinear bool `yaml:"include_non_linear"`
	}

	SearchConfig struct {
		Limit int `yaml:"limit"`
	}

	Config struct {
		Extract ExtractConfig `yaml:"extract"`
		Search  SearchConfig  `yaml:"search"`
		Logging LoggerConfig  `yaml:"logging"`
	}
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Extract: ExtractConfig{ReadingSpeedWPM: 250},
		Search:  SearchConfig{Limit: 20},
		Logging: LoggerConfig{Level: "normal"},
	}
}

// Load reads configuration from path, superimposing file values on the
// defaults. A missing file is not an error and yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	return unmarshalConfig(data, cfg)
}

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// Reject unknown fields so typos in the file surface immediately.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if cfg.Extract.ReadingSpeedWPM <= 0 {
		return nil, fmt.Errorf("reading_speed_wpm must be positive, got %d", cfg.Extract.ReadingSpeedWPM)
	}
	if cfg.Search.Limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", cfg.Search.Limit)
	}
	return cfg, nil
}
