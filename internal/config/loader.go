package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

// ConfigEnvVar names the variable that points at a config file
const ConfigEnvVar = EnvPrefix + "_CONFIG"

// Loader resolves a Config from defaults, file, environment and flags
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader with the built-in defaults registered
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &Loader{v: v}
}

// Viper exposes the underlying instance so commands can bind their flags
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads path, or MCPCALL_CONFIG, or $HOME/.mcpcall/config.{yaml,json}.
// An explicitly named file must exist; the default location is optional.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		l.v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".mcpcall"))
		}
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.ConfigFile = l.v.ConfigFileUsed()
	return &cfg, nil
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	cfg, err := NewLoader().decodeDefaults()
	if err != nil {
		panic(fmt.Sprintf("built-in defaults do not decode: %v", err))
	}
	return cfg
}

func (l *Loader) decodeDefaults() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("user_agent", "mcpcall/1.0")
	v.SetDefault("connect_timeout", service.DefaultConnectTimeout)
	v.SetDefault("request_timeout", service.DefaultRequestTimeout)
	v.SetDefault("result_timeout", service.DefaultResultTimeout)
	v.SetDefault("attach_timeout", 500*time.Millisecond)
	v.SetDefault("probe_interval", 250*time.Millisecond)
	v.SetDefault("strict_args", false)

	for _, spec := range service.BuiltinSpecs() {
		prefix := "services." + spec.Key + "."
		v.SetDefault(prefix+"name", spec.Name)
		v.SetDefault(prefix+"url", spec.URL)
		v.SetDefault(prefix+"enabled", spec.Enabled)
		tools := make(map[string]any, len(spec.Tools))
		for tool, schema := range spec.Tools {
			args := make(map[string]any, len(schema))
			for arg, typ := range schema {
				args[arg] = string(typ)
			}
			tools[tool] = args
		}
		v.SetDefault(prefix+"tools", tools)
	}
}
