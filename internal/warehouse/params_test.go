package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name: "nil map",
			raw:  nil,
			want: &Params{},
		},
		{
			name: "empty map",
			raw:  map[string]any{},
			want: &Params{},
		},
		{
			name: "extensions from config list",
			raw: map[string]any{
				"extensions": []any{"httpfs", "json"},
			},
			want: &Params{Extensions: []string{"httpfs", "json"}},
		},
		{
			name: "settings map",
			raw: map[string]any{
				"settings": map[string]any{
					"memory_limit": "4GB",
					"threads":      "4",
				},
			},
			want: &Params{Settings: map[string]string{
				"memory_limit": "4GB",
				"threads":      "4",
			}},
		},
		{
			name: "unknown keys ignored",
			raw: map[string]any{
				"extensions": []any{"httpfs"},
				"bogus":      true,
			},
			want: &Params{Extensions: []string{"httpfs"}},
		},
		{
			name: "non-string setting value",
			raw: map[string]any{
				"settings": map[string]any{"threads": 4},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
