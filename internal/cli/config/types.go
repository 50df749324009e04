// Package config loads vitrine's configuration from file, environment
// variables, and CLI flags.
package config

import (
	"time"
)

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the resolved project directory. Set by the loader,
	// never read from the config file.
	ProjectRoot string `koanf:"-"`

	DatabasePath string          `koanf:"database"`
	InputDir     string          `koanf:"input_dir"`
	StatePath    string          `koanf:"state_path"`
	Dataset      string          `koanf:"dataset"`
	Verbose      bool            `koanf:"verbose"`
	OutputFormat string          `koanf:"output"`
	Kaggle       KaggleConfig    `koanf:"kaggle"`
	Dbt          DbtConfig       `koanf:"dbt"`
	Warehouse    WarehouseConfig `koanf:"warehouse"`
	UI           *UIConfig       `koanf:"ui"`
}

// KaggleConfig carries explicit dataset credentials. All fields are
// optional; the resolver falls back to ambient sources.
type KaggleConfig struct {
	Token    string `koanf:"token"`
	Username string `koanf:"username"`
	Key      string `koanf:"key"`
}

// DbtConfig configures the transform tool invocation.
type DbtConfig struct {
	Bin         string        `koanf:"bin"`
	ProfilesDir string        `koanf:"profiles_dir"`
	ProjectDir  string        `koanf:"project_dir"`
	Timeout     time.Duration `koanf:"timeout"`
}

// WarehouseConfig holds the raw DuckDB session params map. It is decoded
// lazily by warehouse.ParseParams so new settings need no schema change.
type WarehouseConfig struct {
	Params map[string]any `koanf:"params"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Host             string `koanf:"host"`
	Port             int    `koanf:"port"`
	AutoOpen         bool   `koanf:"auto_open"`
	Watch            bool   `koanf:"watch"`
	DataPreviewLimit int    `koanf:"data_preview_limit"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Host:             "localhost",
		Port:             8780,
		AutoOpen:         true,
		Watch:            true,
		DataPreviewLimit: 50,
	}
}

// GetUIConfig returns the UI config with defaults applied for unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Host == "" {
		ui.Host = "localhost"
	}
	if ui.Port == 0 {
		ui.Port = 8780
	}
	if ui.DataPreviewLimit == 0 {
		ui.DataPreviewLimit = 50
	}
	return ui
}

// Default configuration values.
const (
	DefaultDatabasePath = "data/ecommerce.duckdb"
	DefaultInputDir     = "data/raw"
	DefaultStateFile    = ".vitrine/state.db"
	DefaultDataset      = "olistbr/brazilian-ecommerce"
	DefaultDbtDir       = "dbt"
	DefaultDbtBin       = "dbt"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultDbtTimeout bounds a transform invocation.
const DefaultDbtTimeout = 5 * time.Minute
