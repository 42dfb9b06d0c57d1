package extract

import (
	"bytes"
	"encoding/json"
	"strings"
)

var (
	resultFields = []string{"text", "data", "message"}
	topFields    = []string{"content", "data", "text", "message", "response"}
)

func standardRules() []Rule {
	return []Rule{
		{Name: "string", Match: isString, Extract: fromString},
		{Name: "result", Match: hasKey("result"), Extract: fromResult},
		{Name: "error", Match: hasKey("error"), Extract: fromError},
		{Name: "fields", Match: isMap, Extract: fromTopFields},
		{Name: "fallback", Match: always, Extract: asIndentedJSON},
	}
}

func always(any) bool { return true }

func isString(p any) bool {
	_, ok := p.(string)
	return ok
}

func isMap(p any) bool {
	_, ok := p.(map[string]any)
	return ok
}

func hasKey(key string) func(any) bool {
	return func(p any) bool {
		m, ok := p.(map[string]any)
		if !ok {
			return false
		}
		_, ok = m[key]
		return ok
	}
}

func fromString(p any) (string, bool) {
	return p.(string), true
}

func fromResult(p any) (string, bool) {
	result := p.(map[string]any)["result"]

	switch r := result.(type) {
	case string:
		return r, true
	case map[string]any:
		if parts, ok := r["content"].([]any); ok {
			if joined, ok := joinTextParts(parts); ok {
				return joined, true
			}
		}
		for _, field := range resultFields {
			if v, ok := r[field]; ok && !empty(v) {
				return stringify(v), true
			}
		}
	}
	return "", false
}

// joinTextParts joins {text} parts and bare strings with newlines
func joinTextParts(parts []any) (string, bool) {
	var texts []string
	for _, part := range parts {
		switch v := part.(type) {
		case map[string]any:
			if text, ok := v["text"]; ok {
				texts = append(texts, stringify(text))
			}
		case string:
			texts = append(texts, v)
		}
	}
	if len(texts) == 0 {
		return "", false
	}
	return strings.Join(texts, "\n"), true
}

func fromError(p any) (string, bool) {
	errVal := p.(map[string]any)["error"]
	if m, ok := errVal.(map[string]any); ok {
		if msg, ok := m["message"]; ok {
			return "error: " + stringify(msg), true
		}
	}
	return "error: " + stringify(errVal), true
}

func fromTopFields(p any) (string, bool) {
	m := p.(map[string]any)
	for _, field := range topFields {
		v, ok := m[field]
		if !ok || empty(v) {
			continue
		}
		if items, ok := v.([]any); ok {
			return joinLines(items), true
		}
		return stringify(v), true
	}
	return "", false
}

func asIndentedJSON(p any) (string, bool) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", false
	}
	return strings.TrimRight(buf.String(), "\n"), true
}
