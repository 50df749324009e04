package config

import (
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Dataset != "" && len(strings.Split(c.Dataset, "/")) != 2 {
		return fmt.Errorf("dataset must be owner/name, got %q", c.Dataset)
	}
	if c.Dbt.Timeout < 0 {
		return fmt.Errorf("dbt timeout must not be negative")
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q (auto|text|markdown|json)", c.OutputFormat)
	}
	return nil
}
