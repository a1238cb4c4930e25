package steps

import (
	"context"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/simon020286/go-stepchain/builder"
	"github.com/simon020286/go-stepchain/models"
)

// @step name=recover category=flow description=Turns a panic in the rest of the chain into an error
type RecoverConfig struct{}

// Recover converts panics raised by later steps or the handler into
// *models.PanicError.
type Recover struct {
	logger zerolog.Logger
}

// NewRecover creates a recover step
func NewRecover(logger zerolog.Logger) *Recover {
	return &Recover{logger: logger}
}

func (s *Recover) Name() string {
	return "recover"
}

func (s *Recover) Run(ctx context.Context, _ any, next models.Next) (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := &models.PanicError{Value: r, Stack: debug.Stack()}
			logger(ctx, s.logger).Error().Err(perr).Msg("recovered from panic")
			err = perr
		}
	}()
	return next()
}

func newRecoverFactory(base *zerolog.Logger) builder.StepFactory {
	return func(_ context.Context, a builder.Activation) (any, error) {
		return NewRecover(factoryLogger(base, a)), nil
	}
}
