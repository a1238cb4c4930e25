package models

import "context"

// Next runs the remainder of a chain: the next step, or the terminal
// handler once every step has delegated.
type Next func() error

// Step represents one interceptor for payloads of type T.
// Run may execute code before calling next, after it returns, or never call
// it at all (short-circuit). next must be called at most once.
type Step[T any] interface {
	Run(ctx context.Context, item T, next Next) error
}

// StepFunc is an adapter to use plain functions as a Step
type StepFunc[T any] func(ctx context.Context, item T, next Next) error

func (f StepFunc[T]) Run(ctx context.Context, item T, next Next) error {
	return f(ctx, item, next)
}

// Handler is the terminal operation a pipeline wraps
type Handler[T any] func(ctx context.Context, item T) error

// ResultHandler is a terminal operation that produces a value
type ResultHandler[T, R any] func(ctx context.Context, item T) (R, error)
