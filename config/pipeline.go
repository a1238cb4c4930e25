package config

import "strings"

// AnyType is the `for` entry that registers a step for every payload type.
const AnyType = "*"

// PipelineConfig represents the complete pipeline configuration from YAML
type PipelineConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Variables   map[string]any `yaml:"variables,omitempty"` // Global reusable variables
	Steps       []StepConfig   `yaml:"steps"`
}

// StepConfig represents one step registration from YAML.
// The same step may target several payload types; each entry of For is a
// type name known to the builder, or "*" for every type.
type StepConfig struct {
	Type   string         `yaml:"type"`   // Catalog name of the step
	For    []string       `yaml:"for"`    // Payload type names
	Config map[string]any `yaml:"config"` // Specific step configuration
}

// IsOpen reports whether the step applies to every payload type
func (s StepConfig) IsOpen() bool {
	for _, name := range s.For {
		if strings.TrimSpace(name) == AnyType {
			return true
		}
	}
	return false
}

// TypeNames returns the trimmed `for` entries
func (s StepConfig) TypeNames() []string {
	names := make([]string, 0, len(s.For))
	for _, name := range s.For {
		names = append(names, strings.TrimSpace(name))
	}
	return names
}
