package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/simon020286/go-stepchain/models"
)

// Pipeline runs an immutable sequence of steps around a terminal handler.
// Per-run state is created on every Run call, so a single Pipeline may be
// used from many goroutines at once.
type Pipeline[T any] struct {
	name   string
	steps  []models.Step[T]
	logger zerolog.Logger

	// Event handling (private)
	eventBus *eventBus
}

// Option configures a Pipeline
type Option func(*options)

type options struct {
	name      string
	logger    zerolog.Logger
	listeners []models.EventListener
}

// WithName sets the pipeline name reported in events and logs
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger used for run traces
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithListener registers an event listener at construction time
func WithListener(listener models.EventListener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, listener)
	}
}

// New creates a pipeline over a copy of steps.
func New[T any](steps []models.Step[T], opts ...Option) *Pipeline[T] {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	sequence := make([]models.Step[T], len(steps))
	copy(sequence, steps)

	p := &Pipeline[T]{
		name:     o.name,
		steps:    sequence,
		logger:   o.logger.With().Str("pipeline", o.name).Logger(),
		eventBus: newEventBus(o.name),
	}
	for _, l := range o.listeners {
		p.eventBus.addListener(l)
	}
	return p
}

// Of creates an unnamed pipeline from the given steps.
func Of[T any](steps ...models.Step[T]) *Pipeline[T] {
	return New(steps)
}

// Name returns the pipeline name
func (p *Pipeline[T]) Name() string {
	return p.name
}

// Len returns the number of steps
func (p *Pipeline[T]) Len() int {
	return len(p.steps)
}

// Steps returns a copy of the step sequence
func (p *Pipeline[T]) Steps() []models.Step[T] {
	steps := make([]models.Step[T], len(p.steps))
	copy(steps, p.steps)
	return steps
}

// AddListener adds a listener to receive events from the pipeline
func (p *Pipeline[T]) AddListener(listener models.EventListener) {
	p.eventBus.addListener(listener)
}

// WaitEvents blocks until every event emitted so far has been delivered.
// It may be called while other goroutines run the pipeline; events those runs
// emit after WaitEvents returns are not waited for.
func (p *Pipeline[T]) WaitEvents() {
	p.eventBus.Wait()
}

// Run pushes item through every step and then into handler.
//
// Step entry code runs in sequence order and post-delegation code in reverse
// order. A step that does not call next stops the chain; Run then returns
// nil without the handler having run. Errors from steps or the handler are
// returned unchanged. ctx is handed to every step and to the handler as is.
func (p *Pipeline[T]) Run(ctx context.Context, item T, handler models.Handler[T]) error {
	if models.IsNil(item) {
		return models.ErrNilItem
	}
	if handler == nil {
		return models.ErrNilHandler
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := newRun(p, ctx, item, handler)
	return r.start()
}

// RunAction runs the pipeline with a synchronous handler and a background context.
func (p *Pipeline[T]) RunAction(item T, action func(T)) error {
	if action == nil {
		return models.ErrNilHandler
	}
	return p.Run(context.Background(), item, func(_ context.Context, i T) error {
		action(i)
		return nil
	})
}

// RunBackground runs the pipeline with a background context.
func (p *Pipeline[T]) RunBackground(item T, handler func(T) error) error {
	if handler == nil {
		return models.ErrNilHandler
	}
	return p.Run(context.Background(), item, func(_ context.Context, i T) error {
		return handler(i)
	})
}

// RunResult runs p with a handler that produces a value and returns it.
//
// If a step short-circuits the chain the handler never runs and the zero
// value of R is returned with a nil error. On failure the zero value is
// returned with the error.
func RunResult[T, R any](ctx context.Context, p *Pipeline[T], item T, handler models.ResultHandler[T, R]) (R, error) {
	var result R
	if handler == nil {
		return result, models.ErrNilHandler
	}

	err := p.Run(ctx, item, func(ctx context.Context, i T) error {
		value, err := handler(ctx, i)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}
