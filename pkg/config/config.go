// Package config provides unified configuration for modbridge.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (MODBRIDGE_ prefix)
//  4. Validation
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the modbridge CLI and server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Scan          ScanConfig          `yaml:"scan"`
	Bridge        BridgeConfig        `yaml:"bridge"`
	Output        OutputConfig        `yaml:"output"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds MCP serving settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	MCPPath      string        `yaml:"mcp_path"`      // default: "/mcp"
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// ScanConfig holds route scanning settings.
type ScanConfig struct {
	Include string `yaml:"include"` // regex on module IDs, optional
	Exclude string `yaml:"exclude"` // regex on module IDs, optional
}

// BridgeConfig sizes the execution bridge worker pool.
type BridgeConfig struct {
	Workers   int `yaml:"workers"`    // default: 4
	QueueSize int `yaml:"queue_size"` // default: workers
}

// OutputConfig holds artifact writing settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`    // default: "modules"
	Format string `yaml:"format"` // "json", "yaml", or "openapi", default: "json"
}

// ObservabilityConfig holds monitoring settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			MCPPath:      "/mcp",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Bridge: BridgeConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Dir:    "modules",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Bridge.Workers < 1 {
		return fmt.Errorf("bridge.workers must be at least 1, got %d", c.Bridge.Workers)
	}
	if c.Bridge.QueueSize < 0 {
		return fmt.Errorf("bridge.queue_size must not be negative, got %d", c.Bridge.QueueSize)
	}
	switch c.Output.Format {
	case "json", "yaml", "openapi":
	default:
		return fmt.Errorf("output.format must be json, yaml, or openapi, got %q", c.Output.Format)
	}
	return nil
}
