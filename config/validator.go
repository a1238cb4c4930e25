package config

import (
	"fmt"

	"github.com/simon020286/go-stepchain/models"
)

// Validate checks the structure of a pipeline configuration.
// Type names are not checked here; the builder resolves them.
func Validate(cfg *PipelineConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", models.ErrInvalidConfig)
	}

	for i, step := range cfg.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("invalid step %d: %w", i, err)
		}
	}

	return nil
}

// validateStep validates a single step registration
func validateStep(step StepConfig) error {
	if step.Type == "" {
		return models.ErrMissingConfig("type")
	}

	if len(step.For) == 0 {
		return fmt.Errorf("step '%s': %w", step.Type, models.ErrMissingConfig("for"))
	}

	seen := make(map[string]bool, len(step.For))
	for _, name := range step.TypeNames() {
		if name == "" {
			return fmt.Errorf("%w: step '%s' has an empty type name", models.ErrInvalidConfig, step.Type)
		}
		if seen[name] {
			return fmt.Errorf("%w: step '%s' lists type '%s' twice", models.ErrInvalidConfig, step.Type, name)
		}
		seen[name] = true
	}

	return nil
}
