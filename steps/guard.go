package steps

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/simon020286/go-stepchain/builder"
	"github.com/simon020286/go-stepchain/config"
	"github.com/simon020286/go-stepchain/models"
)

// @step name=guard category=flow description=Stops the chain when the condition is false
type GuardConfig struct {
	Condition bool `step:"required,desc=Boolean condition to evaluate (use $js: for dynamic expressions)"`
}

// Guard delegates only when its condition holds for the item.
type Guard struct {
	condition config.ValueSpec
	variables map[string]any
}

// NewGuard creates a guard over a condition
func NewGuard(condition config.ValueSpec, variables map[string]any) *Guard {
	return &Guard{condition: condition, variables: variables}
}

func (s *Guard) Name() string {
	return "guard"
}

func (s *Guard) Run(ctx context.Context, item any, next models.Next) error {
	resolved, err := s.condition.Resolve(models.NewStepInput(item, s.variables))
	if err != nil {
		return fmt.Errorf("failed to resolve condition: %w", err)
	}

	condition, ok := resolved.(bool)
	if !ok {
		return fmt.Errorf("condition must be a boolean, got %T", resolved)
	}

	if !condition {
		zerolog.Ctx(ctx).Debug().Msg("guard stopped the chain")
		return nil
	}
	return next()
}

func newGuard(_ context.Context, a builder.Activation) (any, error) {
	condition, ok := builder.ConfigValue(a.Descriptor.Config, "condition")
	if !ok {
		return nil, models.ErrMissingConfig("condition")
	}
	return NewGuard(condition, a.Scope.Variables), nil
}
