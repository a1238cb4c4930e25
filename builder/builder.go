package builder

import (
	"fmt"
	"strings"

	"github.com/simon020286/go-stepchain/config"
)

const (
	jsPrefix  = "$js:"
	varPrefix = "$var:"
	envPrefix = "$env:"
)

// FromConfig builds a sealed registry from a pipeline configuration.
// Steps are registered in file order under every type they list; their
// config values are parsed with ParseConfigValue.
func FromConfig(cfg *config.PipelineConfig, types *Types) (*Registry, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if types == nil {
		types = DefaultTypes()
	}

	reg := NewRegistry()
	for i, step := range cfg.Steps {
		keys := make([]Key, 0, len(step.For))
		for _, name := range step.TypeNames() {
			key, err := types.Lookup(name)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, step.Type, err)
			}
			keys = append(keys, key)
		}

		reg.Add(Describe(step.Type, ParseConfigValues(step.Config)), keys...)
	}

	return reg.Seal(), nil
}

// ParseConfigValues parses every value of a step configuration
func ParseConfigValues(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	parsed := make(map[string]any, len(cfg))
	for k, v := range cfg {
		parsed[k] = ParseConfigValue(v)
	}
	return parsed
}

// ParseConfigValue converts a configuration value to config.ValueSpec
// Recognizes the "$js:", "$var:" and "$env:" prefixes
func ParseConfigValue(v any) config.ValueSpec {
	if spec, ok := v.(config.ValueSpec); ok {
		return spec
	}

	if str, ok := v.(string); ok {
		switch {
		case strings.HasPrefix(str, jsPrefix):
			return config.DynamicValue{
				Language:   "js",
				Expression: strings.TrimSpace(strings.TrimPrefix(str, jsPrefix)),
			}
		case strings.HasPrefix(str, varPrefix):
			return config.VariableReference{Name: strings.TrimSpace(strings.TrimPrefix(str, varPrefix))}
		case strings.HasPrefix(str, envPrefix):
			return config.EnvReference{Name: strings.TrimSpace(strings.TrimPrefix(str, envPrefix))}
		}
	}

	// Otherwise it's a static value
	return config.StaticValue{Value: v}
}

// ConfigValue returns the value for key as a config.ValueSpec.
// Raw values, as set by programmatic registrations, are parsed on the fly.
func ConfigValue(cfg map[string]any, key string) (config.ValueSpec, bool) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return nil, false
	}
	return ParseConfigValue(v), true
}

// StaticString returns a static string setting, or def when it is absent.
func StaticString(cfg map[string]any, key, def string) (string, error) {
	spec, ok := ConfigValue(cfg, key)
	if !ok {
		return def, nil
	}
	v, ok := spec.GetStaticValue()
	if !ok {
		return "", fmt.Errorf("config key '%s' must be static", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("config key '%s' must be a string, got %T", key, v)
	}
	return s, nil
}
