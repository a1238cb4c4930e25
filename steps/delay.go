package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/simon020286/go-stepchain/builder"
	"github.com/simon020286/go-stepchain/config"
	"github.com/simon020286/go-stepchain/models"
)

// @step name=delay category=flow description=Pauses before delegating to the rest of the chain
type DelayConfig struct {
	Ms int `step:"name=ms,required,desc=Delay duration in milliseconds"`
}

// Delay waits before delegating. It stops waiting when ctx is done.
type Delay struct {
	delay     config.ValueSpec
	variables map[string]any
}

// NewDelay creates a delay step
func NewDelay(delay config.ValueSpec, variables map[string]any) *Delay {
	return &Delay{delay: delay, variables: variables}
}

func (s *Delay) Name() string {
	return "delay"
}

func (s *Delay) Run(ctx context.Context, item any, next models.Next) error {
	delayResolved, err := s.delay.Resolve(models.NewStepInput(item, s.variables))
	if err != nil {
		return fmt.Errorf("failed to resolve delay: %w", err)
	}

	var delayMS int64
	switch v := delayResolved.(type) {
	case int:
		delayMS = int64(v)
	case int64:
		delayMS = v
	case float64:
		delayMS = int64(v)
	default:
		return fmt.Errorf("delay must be a number, got %T", delayResolved)
	}

	if delayMS > 0 {
		timer := time.NewTimer(time.Duration(delayMS) * time.Millisecond)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", models.ErrStepCancelled, ctx.Err())
		}
	}

	return next()
}

func newDelay(_ context.Context, a builder.Activation) (any, error) {
	ms, ok := builder.ConfigValue(a.Descriptor.Config, "ms")
	if !ok {
		return nil, models.ErrMissingConfig("ms")
	}
	return NewDelay(ms, a.Scope.Variables), nil
}
