package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// Loader reads and parses a GatewayConfig from disk.
type Loader struct {
	envPattern *regexp.Regexp
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPattern: regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`),
	}
}

// Load reads the file at path and parses it into a validated Config.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return l.Parse(data)
}

// Parse expands environment variables, decodes the YAML document strictly
// (unknown keys are an error), applies defaults, and validates the result.
func (l *Loader) Parse(data []byte) (*Config, error) {
	expanded := l.expandEnvVars(string(data))

	cfg := &Config{}
	if err := yaml.UnmarshalWithOptions([]byte(expanded), cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} with the process environment value,
// leaving the placeholder untouched when the variable is unset.
func (l *Loader) expandEnvVars(input string) string {
	return l.envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// applyDefaults fills in the zero-value defaults for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.AdminAPI.Addr == "" {
		cfg.AdminAPI.Addr = "127.0.0.1:5678"
	}

	applyLogDefaults(&cfg.Log)
	if cfg.AccessLog.Enabled == nil {
		enabled := true
		cfg.AccessLog.Enabled = &enabled
	}
	applyLogDefaults(&cfg.AccessLog)

	for i := range cfg.Listeners {
		if cfg.Listeners[i].Protocol == "" {
			cfg.Listeners[i].Protocol = ProtocolHTTP
		}
	}

	for name, svc := range cfg.HTTP.Services {
		applyUpstreamDefaults(svc.Upstreams)
		cfg.HTTP.Services[name] = svc
	}
	if cfg.TCP != nil {
		for name, svc := range cfg.TCP.Services {
			applyUpstreamDefaults(svc.Upstreams)
			cfg.TCP.Services[name] = svc
		}
	}
}

// applyUpstreamDefaults fills in weight 1 for upstreams that omit it. An
// explicit weight of 0 is preserved so the upstream stays out of
// selection.
func applyUpstreamDefaults(upstreams []UpstreamConfig) {
	for i := range upstreams {
		if upstreams[i].Weight == nil {
			one := 1
			upstreams[i].Weight = &one
		}
	}
}

func applyLogDefaults(l *LogConfig) {
	if l.Level == "" {
		l.Level = "INFO"
	}
	if l.Format == "" {
		l.Format = "compact"
	}
	if l.FilePath == "" {
		l.FilePath = "stdout"
	}
}
