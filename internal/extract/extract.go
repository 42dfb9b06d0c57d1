// Package extract normalizes the heterogeneous payloads returned by remote
// tool services into a flat string.
//
// Extraction is an ordered list of rules. Each rule pairs a predicate over the
// payload shape with an extractor; the first rule that matches and yields a
// value wins. New payload shapes are supported by prepending rules with New.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
)

// Rule is one (predicate, extractor) pair
type Rule struct {
	Name    string
	Match   func(payload any) bool
	Extract func(payload any) (string, bool)
}

// Extractor evaluates its rules in order
type Extractor struct {
	rules []Rule
}

// Default is the standard rule chain
var Default = &Extractor{rules: standardRules()}

// New returns an extractor that tries extra before the standard rules
func New(extra ...Rule) *Extractor {
	rules := make([]Rule, 0, len(extra)+len(Default.rules))
	rules = append(rules, extra...)
	rules = append(rules, Default.rules...)
	return &Extractor{rules: rules}
}

// Extract returns the content of payload. The fallback rule always matches,
// so ok is false only when payload cannot be serialized at all.
func (e *Extractor) Extract(payload any) (string, bool) {
	for _, r := range e.rules {
		if !r.Match(payload) {
			continue
		}
		if out, ok := r.Extract(payload); ok {
			return out, true
		}
	}
	return "", false
}

// ExtractRaw decodes raw JSON and extracts from it. Bytes that are not JSON
// are returned as text.
func (e *Extractor) ExtractRaw(raw []byte) (string, bool) {
	payload, err := Decode(raw)
	if err != nil {
		return string(raw), true
	}
	return e.Extract(payload)
}

// RuleNames lists the rule names in evaluation order
func (e *Extractor) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Extract runs the default chain
func Extract(payload any) (string, bool) {
	return Default.Extract(payload)
}

// ExtractRaw runs the default chain over raw bytes
func ExtractRaw(raw []byte) (string, bool) {
	return Default.ExtractRaw(raw)
}

// Usable reports whether extracted content is long enough to return
func Usable(s string) bool {
	return call.Usable(s)
}

// Decode parses JSON keeping numbers exact
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

// stringify renders a scalar or structure as display text
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// empty mirrors truthiness of decoded JSON values
func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case int:
		return t == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func joinLines(items []any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if empty(item) {
			continue
		}
		parts = append(parts, stringify(item))
	}
	return strings.Join(parts, "\n")
}
