package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"vibedoc.ai/mcpcall/internal/logging"
)

// FieldError is one problem found in a configuration value
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every problem found by Validate
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Validate checks every field and returns ValidationErrors, or nil when the
// configuration is usable
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		add("log_level", "%v", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		add("log_format", "must be %s or %s", logging.FormatConsole, logging.FormatJSON)
	}

	for field, d := range map[string]time.Duration{
		"connect_timeout": c.ConnectTimeout,
		"request_timeout": c.RequestTimeout,
		"result_timeout":  c.ResultTimeout,
		"attach_timeout":  c.AttachTimeout,
	} {
		if d <= 0 {
			add(field, "must be positive")
		}
	}

	enabled := 0
	for _, key := range c.ServiceKeys() {
		sc := c.Services[key]
		field := "services." + key
		if err := validateServiceURL(sc.URL); err != nil {
			add(field+".url", "%v", err)
		}
		if sc.ConnectTimeout < 0 || sc.RequestTimeout < 0 || sc.ResultTimeout < 0 {
			add(field, "timeouts cannot be negative")
		}
		if _, err := toolSchemas(sc.Tools); err != nil {
			add(field+".tools", "%v", err)
		}
		if sc.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		add("services", "no service is enabled, external knowledge is unavailable")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateServiceURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include host")
	}
	return nil
}
