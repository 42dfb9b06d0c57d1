package service

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Default timeouts applied when a descriptor leaves them unset
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultResultTimeout  = 30 * time.Second
)

// ArgType is the declared type of a tool argument
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgInteger ArgType = "integer"
	ArgNumber  ArgType = "number"
	ArgBoolean ArgType = "boolean"
	ArgObject  ArgType = "object"
	ArgArray   ArgType = "array"
)

// ParseArgType validates a type name read from configuration
func ParseArgType(s string) (ArgType, error) {
	switch t := ArgType(s); t {
	case ArgString, ArgInteger, ArgNumber, ArgBoolean, ArgObject, ArgArray:
		return t, nil
	}
	return "", fmt.Errorf("unknown argument type %q", s)
}

// ToolSchema maps argument names to their declared type
type ToolSchema map[string]ArgType

// Spec is the mutable input used to build a Descriptor
type Spec struct {
	Key            string
	Name           string
	URL            string
	Enabled        bool
	Tools          map[string]ToolSchema
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	ResultTimeout  time.Duration
}

// Descriptor describes one remote tool service. It is immutable once built.
type Descriptor struct {
	key            string
	name           string
	url            string
	enabled        bool
	tools          map[string]ToolSchema
	connectTimeout time.Duration
	requestTimeout time.Duration
	resultTimeout  time.Duration
}

// NewDescriptor validates spec and returns an immutable descriptor
func NewDescriptor(spec Spec) (Descriptor, error) {
	if strings.TrimSpace(spec.Key) == "" {
		return Descriptor{}, fmt.Errorf("service key cannot be empty")
	}
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = spec.Key
	}
	u, err := url.Parse(spec.URL)
	if err != nil {
		return Descriptor{}, fmt.Errorf("service %s: invalid url: %w", spec.Key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Descriptor{}, fmt.Errorf("service %s: url must be absolute http(s), got %q", spec.Key, spec.URL)
	}
	if spec.ConnectTimeout < 0 || spec.RequestTimeout < 0 || spec.ResultTimeout < 0 {
		return Descriptor{}, fmt.Errorf("service %s: timeouts cannot be negative", spec.Key)
	}

	tools := make(map[string]ToolSchema, len(spec.Tools))
	for tool, schema := range spec.Tools {
		copied := make(ToolSchema, len(schema))
		for arg, typ := range schema {
			copied[arg] = typ
		}
		tools[tool] = copied
	}

	return Descriptor{
		key:            spec.Key,
		name:           name,
		url:            spec.URL,
		enabled:        spec.Enabled,
		tools:          tools,
		connectTimeout: orDefault(spec.ConnectTimeout, DefaultConnectTimeout),
		requestTimeout: orDefault(spec.RequestTimeout, DefaultRequestTimeout),
		resultTimeout:  orDefault(spec.ResultTimeout, DefaultResultTimeout),
	}, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}

func (d Descriptor) Key() string                   { return d.key }
func (d Descriptor) Name() string                  { return d.name }
func (d Descriptor) URL() string                   { return d.url }
func (d Descriptor) Enabled() bool                 { return d.enabled }
func (d Descriptor) ConnectTimeout() time.Duration { return d.connectTimeout }
func (d Descriptor) RequestTimeout() time.Duration { return d.requestTimeout }
func (d Descriptor) ResultTimeout() time.Duration  { return d.resultTimeout }

// WithResultTimeout returns a copy that waits d for asynchronous results.
// Non-positive values leave the descriptor unchanged.
func (d Descriptor) WithResultTimeout(timeout time.Duration) Descriptor {
	if timeout > 0 {
		d.resultTimeout = timeout
	}
	return d
}

// BaseURL is the handshake URL with a trailing /sse segment removed. Callback
// paths returned by negotiation are resolved against it.
func (d Descriptor) BaseURL() string {
	base := strings.TrimRight(d.url, "/")
	return strings.TrimSuffix(base, "/sse")
}

// ResolveCallback joins the base URL and a negotiated relative path
func (d Descriptor) ResolveCallback(path string) (string, error) {
	base, err := url.Parse(d.BaseURL() + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// Tools returns the sorted tool names this service declares
func (d Descriptor) Tools() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns a copy of the argument schema for tool
func (d Descriptor) Schema(tool string) (ToolSchema, bool) {
	schema, ok := d.tools[tool]
	if !ok {
		return nil, false
	}
	copied := make(ToolSchema, len(schema))
	for k, v := range schema {
		copied[k] = v
	}
	return copied, true
}

// ValidateArgs checks args against the declared schema of tool. Services
// declaring no tools accept anything.
func (d Descriptor) ValidateArgs(tool string, args map[string]any) error {
	if len(d.tools) == 0 {
		return nil
	}
	schema, ok := d.tools[tool]
	if !ok {
		return fmt.Errorf("service %s has no tool %q", d.key, tool)
	}
	for name, value := range args {
		typ, declared := schema.lookup(name)
		if !declared {
			return fmt.Errorf("tool %s: unknown argument %q", tool, name)
		}
		if !typ.accepts(value) {
			return fmt.Errorf("tool %s: argument %q must be %s", tool, name, typ)
		}
	}
	return nil
}

// lookup finds the declared type of name. Names loaded from configuration
// arrive lower-cased, so an exact miss falls back to a case-insensitive match.
func (s ToolSchema) lookup(name string) (ArgType, bool) {
	if typ, ok := s[name]; ok {
		return typ, true
	}
	for declared, typ := range s {
		if strings.EqualFold(declared, name) {
			return typ, true
		}
	}
	return "", false
}

func (t ArgType) accepts(v any) bool {
	switch t {
	case ArgString:
		_, ok := v.(string)
		return ok
	case ArgBoolean:
		_, ok := v.(bool)
		return ok
	case ArgInteger:
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return n == float64(int64(n))
		case float32:
			return n == float32(int64(n))
		}
		return false
	case ArgNumber:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	case ArgObject:
		_, ok := v.(map[string]any)
		return ok
	case ArgArray:
		_, ok := v.([]any)
		return ok
	}
	return true
}
