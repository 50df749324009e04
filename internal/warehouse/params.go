package warehouse

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB session configuration, decoded from the raw config
// map so new settings do not require config schema changes.
type Params struct {
	// Extensions to install and load at connect (e.g., "httpfs", "json").
	Extensions []string `mapstructure:"extensions"`

	// Settings applied at session level (e.g., memory_limit, threads).
	Settings map[string]string `mapstructure:"settings"`
}

// ParseParams decodes a raw config map into Params. A nil or empty map
// yields zero-value Params.
func ParseParams(raw map[string]any) (*Params, error) {
	params := &Params{}
	if len(raw) == 0 {
		return params, nil
	}
	if err := mapstructure.Decode(raw, params); err != nil {
		return nil, fmt.Errorf("failed to parse warehouse params: %w", err)
	}
	return params, nil
}
