package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/simon020286/go-stepchain/builder"
	"github.com/simon020286/go-stepchain/models"
)

// @step name=trace category=observability description=Logs the item before and after the rest of the chain runs
type TraceConfig struct {
	Label string `step:"desc=Label added to every log line"`
	Level string `step:"default=info,desc=Log level: trace, debug, info or warn"`
}

// Trace logs around the rest of the chain for any payload type.
type Trace[T any] struct {
	label  string
	level  zerolog.Level
	logger zerolog.Logger
}

// NewTrace creates a trace step. A disabled logger makes the step use the
// logger carried by the run context.
func NewTrace[T any](logger zerolog.Logger, label string, level zerolog.Level) *Trace[T] {
	return &Trace[T]{label: label, level: level, logger: logger}
}

func (s *Trace[T]) Name() string {
	if s.label == "" {
		return "trace"
	}
	return "trace:" + s.label
}

func (s *Trace[T]) Run(ctx context.Context, item T, next models.Next) error {
	log := logger(ctx, s.logger)
	log.WithLevel(s.level).
		Str("label", s.label).
		Str("type", fmt.Sprintf("%T", item)).
		Interface("item", item).
		Msg("before")

	started := time.Now()
	err := next()

	level := s.level
	if err != nil && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Err(err).
		Str("label", s.label).
		Interface("item", item).
		Dur("duration", time.Since(started)).
		Msg("after")
	return err
}

func newTraceFactory(base *zerolog.Logger) builder.StepFactory {
	return func(_ context.Context, a builder.Activation) (any, error) {
		label, err := builder.StaticString(a.Descriptor.Config, "label", "")
		if err != nil {
			return nil, err
		}

		levelName, err := builder.StaticString(a.Descriptor.Config, "level", "info")
		if err != nil {
			return nil, err
		}
		level, err := zerolog.ParseLevel(levelName)
		if err != nil {
			return nil, fmt.Errorf("trace step: %w", err)
		}

		return NewTrace[any](factoryLogger(base, a), label, level), nil
	}
}
