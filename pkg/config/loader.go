package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, MODBRIDGE_CONFIG env,
//     ./modbridge.yaml, /etc/modbridge/config.yaml)
//  3. Environment variable overrides
//  4. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
//  1. Explicit configPath argument
//  2. MODBRIDGE_CONFIG environment variable
//  3. ./modbridge.yaml in the current directory
//  4. /etc/modbridge/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("MODBRIDGE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"modbridge.yaml",
		"/etc/modbridge/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps MODBRIDGE_* environment variables to config
// fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MODBRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MODBRIDGE_MCP_PATH"); v != "" {
		cfg.Server.MCPPath = v
	}
	if v := os.Getenv("MODBRIDGE_INCLUDE"); v != "" {
		cfg.Scan.Include = v
	}
	if v := os.Getenv("MODBRIDGE_EXCLUDE"); v != "" {
		cfg.Scan.Exclude = v
	}
	if v := os.Getenv("MODBRIDGE_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.Workers = workers
		}
	}
	if v := os.Getenv("MODBRIDGE_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("MODBRIDGE_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("MODBRIDGE_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Observability.Metrics.Enabled = enabled
		}
	}
}
