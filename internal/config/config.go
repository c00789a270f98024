// Package config provides configuration management for gocalc.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxDisplayLength is the longest display string digit entry may produce.
	DefaultMaxDisplayLength = 30
	// DefaultMaxMagnitude is the largest integer a float64 represents exactly (2^53-1).
	DefaultMaxMagnitude = 9007199254740991
	// DefaultPrecision is the number of decimal places non-integral results keep.
	DefaultPrecision = 2

	defaultAddr            = "127.0.0.1:8080"
	defaultShutdownTimeout = 5
	defaultTapeFile        = ".gocalc_tape.json"
	defaultTapeFormat      = "text"
)

// Config represents the configuration for gocalc.
type Config struct {
	// General settings
	Verbose bool `yaml:"verbose,omitempty" json:"verbose,omitempty"`

	// Engine limits
	Engine EngineConfig `yaml:"engine,omitempty" json:"engine,omitempty"`

	// Browser adapter
	Server ServerConfig `yaml:"server,omitempty" json:"server,omitempty"`

	// Session tape
	Tape TapeConfig `yaml:"tape,omitempty" json:"tape,omitempty"`
}

// EngineConfig contains the calculator engine limits.
type EngineConfig struct {
	MaxDisplayLength int     `yaml:"maxDisplayLength,omitempty" json:"maxDisplayLength,omitempty"`
	MaxMagnitude     float64 `yaml:"maxMagnitude,omitempty" json:"maxMagnitude,omitempty"`
	Precision        int     `yaml:"precision,omitempty" json:"precision,omitempty"`
}

// ServerConfig contains the HTTP/WebSocket server configuration.
type ServerConfig struct {
	Addr            string   `yaml:"addr,omitempty" json:"addr,omitempty"`
	AllowedOrigins  []string `yaml:"allowedOrigins,omitempty" json:"allowedOrigins,omitempty"`
	ShutdownTimeout int      `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`
}

// TapeConfig contains session tape configuration.
type TapeConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	File    string `yaml:"file,omitempty" json:"file,omitempty"`
	Format  string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxDisplayLength: DefaultMaxDisplayLength,
			MaxMagnitude:     DefaultMaxMagnitude,
			Precision:        DefaultPrecision,
		},
		Server: ServerConfig{
			Addr:            defaultAddr,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Tape: TapeConfig{
			Enabled: false,
			File:    defaultTapeFile,
			Format:  defaultTapeFormat,
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	// If no config file specified, try default locations
	if configFile == "" {
		candidates := []string{".gocalc.yaml", ".gocalc.yml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				configFile = candidate

				break
			}
		}
	}

	if configFile != "" {
		if err := cfg.loadFromFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg.validate()

	return cfg, nil
}

func (c *Config) loadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	return nil
}

// validate ensures the configuration has sensible values.
func (c *Config) validate() {
	if c.Engine.MaxDisplayLength <= 0 {
		c.Engine.MaxDisplayLength = DefaultMaxDisplayLength
	}

	if c.Engine.MaxMagnitude <= 0 {
		c.Engine.MaxMagnitude = DefaultMaxMagnitude
	}

	if c.Engine.Precision < 0 {
		c.Engine.Precision = DefaultPrecision
	}

	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}

	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}

	if c.Tape.File == "" {
		c.Tape.File = defaultTapeFile
	}

	if c.Tape.Format == "" {
		c.Tape.Format = defaultTapeFormat
	}
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write YAML config file: %w", err)
	}

	return nil
}
