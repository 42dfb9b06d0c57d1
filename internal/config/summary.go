package config

// Feature names reported by Summary
const (
	FeatureExternalKnowledge = "external_knowledge"
	FeatureMultiMCPFusion    = "multi_mcp_fusion"
)

// Summary is a display-friendly view of the resolved configuration
type Summary struct {
	ConfigFile       string          `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	LogLevel         string          `json:"log_level" yaml:"log_level"`
	TotalServices    int             `json:"total_services" yaml:"total_services"`
	EnabledServices  []string        `json:"enabled_services" yaml:"enabled_services"`
	DisabledServices []string        `json:"disabled_services" yaml:"disabled_services"`
	Features         map[string]bool `json:"features" yaml:"features"`
}

// Summary reports enabled services and the features they unlock. Knowledge
// lookup needs one enabled service; fusing sources needs two.
func (c *Config) Summary() Summary {
	s := Summary{
		ConfigFile:       c.ConfigFile,
		LogLevel:         c.LogLevel,
		TotalServices:    len(c.Services),
		EnabledServices:  []string{},
		DisabledServices: []string{},
	}
	for _, key := range c.ServiceKeys() {
		sc := c.Services[key]
		name := sc.Name
		if name == "" {
			name = key
		}
		if sc.Enabled {
			s.EnabledServices = append(s.EnabledServices, name)
		} else {
			s.DisabledServices = append(s.DisabledServices, name)
		}
	}
	s.Features = map[string]bool{
		FeatureExternalKnowledge: len(s.EnabledServices) > 0,
		FeatureMultiMCPFusion:    len(s.EnabledServices) > 1,
	}
	return s
}
