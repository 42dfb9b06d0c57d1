package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptor_Validation(t *testing.T) {
	tests := []struct {
		name        string
		spec        Spec
		expectError bool
	}{
		{name: "Valid_ShouldSucceed", spec: Spec{Key: "fetch", URL: "https://example.com/sse"}},
		{name: "EmptyKey_ShouldFail", spec: Spec{URL: "https://example.com/sse"}, expectError: true},
		{name: "RelativeURL_ShouldFail", spec: Spec{Key: "x", URL: "/sse"}, expectError: true},
		{name: "FTPScheme_ShouldFail", spec: Spec{Key: "x", URL: "ftp://example.com/sse"}, expectError: true},
		{name: "NegativeTimeout_ShouldFail", spec: Spec{Key: "x", URL: "http://h/sse", ResultTimeout: -time.Second}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(tt.spec)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewDescriptor_AppliesDefaults(t *testing.T) {
	d, err := NewDescriptor(Spec{Key: "fetch", URL: "https://example.com/abc/sse"})
	require.NoError(t, err)

	assert.Equal(t, "fetch", d.Name(), "name should default to key")
	assert.Equal(t, DefaultConnectTimeout, d.ConnectTimeout())
	assert.Equal(t, DefaultRequestTimeout, d.RequestTimeout())
	assert.Equal(t, DefaultResultTimeout, d.ResultTimeout())
	assert.Equal(t, "https://example.com/abc", d.BaseURL())
}

func TestDescriptor_WithResultTimeout(t *testing.T) {
	d, err := NewDescriptor(Spec{Key: "fetch", URL: "https://example.com/sse"})
	require.NoError(t, err)

	shorter := d.WithResultTimeout(2 * time.Second)
	assert.Equal(t, 2*time.Second, shorter.ResultTimeout())
	assert.Equal(t, DefaultResultTimeout, d.ResultTimeout(), "original must not change")
	assert.Equal(t, DefaultResultTimeout, d.WithResultTimeout(0).ResultTimeout())
}

func TestDescriptor_IsImmutable(t *testing.T) {
	tools := map[string]ToolSchema{"fetch": {"url": ArgString}}
	d, err := NewDescriptor(Spec{Key: "fetch", URL: "https://example.com/sse", Tools: tools})
	require.NoError(t, err)

	tools["fetch"]["url"] = ArgInteger
	schema, ok := d.Schema("fetch")
	require.True(t, ok)
	schema["url"] = ArgBoolean

	again, _ := d.Schema("fetch")
	assert.Equal(t, ArgString, again["url"])
}

func TestDescriptor_ResolveCallback(t *testing.T) {
	d, err := NewDescriptor(Spec{Key: "fetch", URL: "https://mcp.example.net/6ec508/sse"})
	require.NoError(t, err)

	got, err := d.ResolveCallback("/messages/?session_id=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://mcp.example.net/messages/?session_id=abc", got)

	got, err = d.ResolveCallback("messages/?session_id=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://mcp.example.net/6ec508/messages/?session_id=abc", got)
}

func TestDescriptor_ValidateArgs(t *testing.T) {
	specs := BuiltinSpecs()
	d, err := NewDescriptor(specs[0])
	require.NoError(t, err)

	assert.NoError(t, d.ValidateArgs(FetchTool, map[string]any{"url": "https://x", "max_length": 5000}))
	assert.NoError(t, d.ValidateArgs(FetchTool, map[string]any{"max_length": float64(8000)}), "JSON numbers decode as float64")
	assert.Error(t, d.ValidateArgs(FetchTool, map[string]any{"max_length": 1.5}))
	assert.Error(t, d.ValidateArgs(FetchTool, map[string]any{"url": 42}))
	assert.Error(t, d.ValidateArgs(FetchTool, map[string]any{"bogus": true}))
	assert.Error(t, d.ValidateArgs("nope", nil))

	open, err := NewDescriptor(Spec{Key: "open", URL: "http://h/sse"})
	require.NoError(t, err)
	assert.NoError(t, open.ValidateArgs("anything", map[string]any{"a": 1}))
}

func TestDescriptor_ValidateArgsIgnoresNameCase(t *testing.T) {
	d, err := NewDescriptor(Spec{
		Key:   "wiki",
		URL:   "http://h/sse",
		Tools: map[string]ToolSchema{"deepwiki_fetch": {"maxdepth": ArgInteger}},
	})
	require.NoError(t, err)

	assert.NoError(t, d.ValidateArgs("deepwiki_fetch", map[string]any{"maxDepth": 2}))
	assert.Error(t, d.ValidateArgs("deepwiki_fetch", map[string]any{"maxDepth": "deep"}))
}

func TestParseArgType(t *testing.T) {
	for _, name := range []string{"string", "integer", "number", "boolean", "object", "array"} {
		typ, err := ParseArgType(name)
		require.NoError(t, err)
		assert.Equal(t, ArgType(name), typ)
	}
	_, err := ParseArgType("date")
	assert.Error(t, err)
}

func TestRegistry_LookupAndEnabled(t *testing.T) {
	a, _ := NewDescriptor(Spec{Key: "b", URL: "http://h/sse", Enabled: true})
	b, _ := NewDescriptor(Spec{Key: "a", URL: "http://h/sse", Enabled: false})
	c, _ := NewDescriptor(Spec{Key: "c", URL: "http://h/sse", Enabled: true})

	reg, err := NewRegistry(a, b, c)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, reg.Keys())
	assert.Equal(t, 3, reg.Len())
	_, ok := reg.Lookup("doesnotexist")
	assert.False(t, ok)

	enabled := reg.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, "b", enabled[0].Key())
	assert.Equal(t, "c", enabled[1].Key())
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	a, _ := NewDescriptor(Spec{Key: "a", URL: "http://h/sse"})

	_, err := NewRegistry(a, a)
	assert.Error(t, err)
}
