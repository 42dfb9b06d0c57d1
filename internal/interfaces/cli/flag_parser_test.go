package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

func TestParseToolArgs(t *testing.T) {
	schema := service.ToolSchema{
		"url":        service.ArgString,
		"max_length": service.ArgInteger,
		"ratio":      service.ArgNumber,
		"raw":        service.ArgBoolean,
		"headers":    service.ArgObject,
		"tags":       service.ArgArray,
		"maxDepth":   service.ArgInteger,
	}

	tests := []struct {
		name     string
		pairs    []string
		argsJSON string
		schema   service.ToolSchema
		want     map[string]any
		wantErr  string
	}{
		{
			name:   "DeclaredTypes_ShouldConvert",
			pairs:  []string{"url=https://example.com", "max_length=100", "ratio=0.5", "raw=true"},
			schema: schema,
			want: map[string]any{
				"url":        "https://example.com",
				"max_length": int64(100),
				"ratio":      0.5,
				"raw":        true,
			},
		},
		{
			name:   "DeclaredStringLooksNumeric_ShouldStayString",
			pairs:  []string{"url=12345"},
			schema: schema,
			want:   map[string]any{"url": "12345"},
		},
		{
			name:   "DeclaredContainers_ShouldDecodeJSON",
			pairs:  []string{`headers={"a":"b"}`, `tags=["x","y"]`},
			schema: schema,
			want: map[string]any{
				"headers": map[string]any{"a": "b"},
				"tags":    []any{"x", "y"},
			},
		},
		{
			name:   "NameCaseDiffers_ShouldUseDeclaredType",
			pairs:  []string{"maxdepth=3"},
			schema: schema,
			want:   map[string]any{"maxdepth": int64(3)},
		},
		{
			name:  "UndeclaredValues_ShouldBeInferred",
			pairs: []string{"n=7", "f=1.5", "b=false", "s=hello", `o={"k":1}`, "t=True"},
			want: map[string]any{
				"n": int64(7),
				"f": 1.5,
				"b": false,
				"s": "hello",
				"o": map[string]any{"k": float64(1)},
				"t": "True",
			},
		},
		{
			name:  "ValueContainsEquals_ShouldSplitOnFirst",
			pairs: []string{"url=https://example.com/?a=b"},
			want:  map[string]any{"url": "https://example.com/?a=b"},
		},
		{
			name:     "PairsOverrideJSON",
			argsJSON: `{"url":"https://old.example","max_length":10}`,
			pairs:    []string{"url=https://new.example"},
			schema:   schema,
			want:     map[string]any{"url": "https://new.example", "max_length": int64(10)},
		},
		{
			name:    "MissingEquals_ShouldFail",
			pairs:   []string{"url"},
			wantErr: "expected key=value",
		},
		{
			name:    "EmptyName_ShouldFail",
			pairs:   []string{"=value"},
			wantErr: "expected key=value",
		},
		{
			name:    "BadInteger_ShouldFail",
			pairs:   []string{"max_length=lots"},
			schema:  schema,
			wantErr: "max_length",
		},
		{
			name:    "ObjectExpectedGotArray_ShouldFail",
			pairs:   []string{"headers=[1]"},
			schema:  schema,
			wantErr: "not a JSON object",
		},
		{
			name:     "BadArgsJSON_ShouldFail",
			argsJSON: `[1,2]`,
			wantErr:  "invalid --args-json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToolArgs(tt.pairs, tt.argsJSON, tt.schema)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
