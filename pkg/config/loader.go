package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, CHATWIRE_CONFIG env, ./config.yaml, /etc/chatwire/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. CHATWIRE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/chatwire/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("CHATWIRE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/chatwire/config.yaml",
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

// applyEnvOverrides maps CHATWIRE_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHATWIRE_BASE_URL"); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := os.Getenv("CHATWIRE_API_KEY"); v != "" {
		cfg.Client.APIKey = v
	}
	if v := os.Getenv("CHATWIRE_MODEL"); v != "" {
		cfg.Client.Model = v
	}
	if v := os.Getenv("CHATWIRE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Client.Timeout = d
		}
	}
	if v := os.Getenv("CHATWIRE_HISTORY"); v != "" {
		cfg.History.Type = v
	}
	if v := os.Getenv("CHATWIRE_HISTORY_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.History.MaxSize = size
		}
	}
	if v := os.Getenv("CHATWIRE_POSTGRES_DSN"); v != "" {
		cfg.History.Postgres.DSN = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// client.api_key_file -> client.api_key
	if cfg.Client.APIKeyFile != "" && cfg.Client.APIKey == "" {
		val, err := readSecretFile(cfg.Client.APIKeyFile)
		if err != nil {
			return fmt.Errorf("client.api_key_file: %w", err)
		}
		cfg.Client.APIKey = val
	}

	// history.postgres.dsn_file -> history.postgres.dsn
	if cfg.History.Postgres.DSNFile != "" && cfg.History.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.History.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("history.postgres.dsn_file: %w", err)
		}
		cfg.History.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
