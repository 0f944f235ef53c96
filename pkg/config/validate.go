package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// client.base_url is required.
	if c.Client.BaseURL == "" {
		errs = append(errs, fmt.Errorf("client.base_url is required"))
	}

	// client.timeout must not be negative.
	if c.Client.Timeout < 0 {
		errs = append(errs, fmt.Errorf("client.timeout must be >= 0, got %s", c.Client.Timeout))
	}

	// history.type must be a known value.
	switch c.History.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("history.type must be \"memory\" or \"postgres\", got %q", c.History.Type))
	}

	// If history.type is "postgres", DSN or DSNFile must be set.
	if c.History.Type == "postgres" {
		if c.History.Postgres.DSN == "" && c.History.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("history.postgres.dsn or history.postgres.dsn_file is required when history.type is \"postgres\""))
		}
	}

	return errors.Join(errs...)
}
