// Package config loads client settings with viper. Precedence, lowest first:
// built-in defaults, config file, MCPCALL_* environment, bound CLI flags.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "MCPCALL"

// ServiceConfig is the file and environment form of one service
type ServiceConfig struct {
	Name           string                       `mapstructure:"name" json:"name"`
	URL            string                       `mapstructure:"url" json:"url"`
	Enabled        bool                         `mapstructure:"enabled" json:"enabled"`
	ConnectTimeout time.Duration                `mapstructure:"connect_timeout" json:"connect_timeout,omitempty"`
	RequestTimeout time.Duration                `mapstructure:"request_timeout" json:"request_timeout,omitempty"`
	ResultTimeout  time.Duration                `mapstructure:"result_timeout" json:"result_timeout,omitempty"`
	Tools          map[string]map[string]string `mapstructure:"tools" json:"tools,omitempty"`
}

// Config is the fully resolved client configuration
type Config struct {
	LogLevel  string `mapstructure:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" json:"log_format"`
	UserAgent string `mapstructure:"user_agent" json:"user_agent"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	ResultTimeout  time.Duration `mapstructure:"result_timeout" json:"result_timeout"`
	AttachTimeout  time.Duration `mapstructure:"attach_timeout" json:"attach_timeout"`
	ProbeInterval  time.Duration `mapstructure:"probe_interval" json:"probe_interval"`
	StrictArgs     bool          `mapstructure:"strict_args" json:"strict_args"`

	Services map[string]ServiceConfig `mapstructure:"services" json:"services"`

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string `mapstructure:"-" json:"config_file,omitempty"`
}

// ServiceKeys returns the configured service keys in sorted order
func (c *Config) ServiceKeys() []string {
	keys := make([]string, 0, len(c.Services))
	for k := range c.Services {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registry builds the immutable service registry. Per-service timeouts fall
// back to the global ones.
func (c *Config) Registry() (service.Registry, error) {
	descs := make([]service.Descriptor, 0, len(c.Services))
	for _, key := range c.ServiceKeys() {
		sc := c.Services[key]
		tools, err := toolSchemas(sc.Tools)
		if err != nil {
			return service.Registry{}, fmt.Errorf("service %s: %w", key, err)
		}
		desc, err := service.NewDescriptor(service.Spec{
			Key:            key,
			Name:           sc.Name,
			URL:            sc.URL,
			Enabled:        sc.Enabled,
			Tools:          tools,
			ConnectTimeout: firstPositive(sc.ConnectTimeout, c.ConnectTimeout),
			RequestTimeout: firstPositive(sc.RequestTimeout, c.RequestTimeout),
			ResultTimeout:  firstPositive(sc.ResultTimeout, c.ResultTimeout),
		})
		if err != nil {
			return service.Registry{}, err
		}
		descs = append(descs, desc)
	}
	return service.NewRegistry(descs...)
}

func toolSchemas(raw map[string]map[string]string) (map[string]service.ToolSchema, error) {
	tools := make(map[string]service.ToolSchema, len(raw))
	for tool, args := range raw {
		schema := make(service.ToolSchema, len(args))
		for arg, typ := range args {
			at, err := service.ParseArgType(strings.ToLower(strings.TrimSpace(typ)))
			if err != nil {
				return nil, fmt.Errorf("tool %s argument %s: %w", tool, arg, err)
			}
			schema[arg] = at
		}
		tools[tool] = schema
	}
	return tools, nil
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
