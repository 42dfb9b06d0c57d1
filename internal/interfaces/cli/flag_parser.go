package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

// ParseToolArgs turns key=value pairs into tool arguments. When schema
// declares a key its type decides the conversion; undeclared keys are
// inferred. argsJSON, if set, is a JSON object merged in first so that
// explicit pairs override it.
func ParseToolArgs(pairs []string, argsJSON string, schema service.ToolSchema) (map[string]any, error) {
	args := make(map[string]any)

	if strings.TrimSpace(argsJSON) != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(argsJSON)))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("invalid --args-json: %w", err)
		}
		for k, v := range obj {
			args[k] = normalizeNumber(v)
		}
	}

	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", pair)
		}

		typ, declared := schemaType(schema, name)
		var (
			value any
			err   error
		)
		if declared {
			value, err = convertTyped(raw, typ)
		} else {
			value = inferValue(raw)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid argument %s: %w", name, err)
		}
		args[name] = value
	}

	return args, nil
}

func schemaType(schema service.ToolSchema, name string) (service.ArgType, bool) {
	if typ, ok := schema[name]; ok {
		return typ, true
	}
	for declared, typ := range schema {
		if strings.EqualFold(declared, name) {
			return typ, true
		}
	}
	return "", false
}

// convertTyped parses raw according to typ
func convertTyped(raw string, typ service.ArgType) (any, error) {
	switch typ {
	case service.ArgString:
		return raw, nil
	case service.ArgInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case service.ArgNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case service.ArgBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	case service.ArgObject, service.ArgArray:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%q is not valid JSON", raw)
		}
		if _, isObj := v.(map[string]any); typ == service.ArgObject && !isObj {
			return nil, fmt.Errorf("%q is not a JSON object", raw)
		}
		if _, isArr := v.([]any); typ == service.ArgArray && !isArr {
			return nil, fmt.Errorf("%q is not a JSON array", raw)
		}
		return v, nil
	}
	return raw, nil
}

// inferValue guesses a type for undeclared arguments. Anything that is not
// clearly a number, boolean or JSON container stays a string.
func inferValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !strings.ContainsAny(raw, "xXpP") {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}

func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
