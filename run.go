package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/simon020286/go-stepchain/models"
)

// run is the state of a single Pipeline.Run call. It is never shared.
type run[T any] struct {
	p       *Pipeline[T]
	ctx     context.Context
	item    T
	handler models.Handler[T]
	index   int
	handled bool

	id     string
	events bool
}

func newRun[T any](p *Pipeline[T], ctx context.Context, item T, handler models.Handler[T]) *run[T] {
	r := &run[T]{
		p:       p,
		ctx:     ctx,
		item:    item,
		handler: handler,
		index:   -1,
		events:  p.eventBus.active(),
		id:      uuid.NewString(),
	}
	return r
}

func (r *run[T]) start() error {
	started := time.Now()
	log := r.p.logger
	log.Debug().Str("run_id", r.id).Int("steps", len(r.p.steps)).Msg("run started")
	if r.events {
		r.p.eventBus.EmitRunStarted(r.id, len(r.p.steps))
	}

	err := r.advance()

	elapsed := time.Since(started)
	if err != nil {
		log.Debug().Str("run_id", r.id).Err(err).Dur("duration", elapsed).Msg("run failed")
		if r.events {
			r.p.eventBus.EmitRunFailed(r.id, elapsed, err)
		}
		return err
	}

	log.Debug().Str("run_id", r.id).Bool("short_circuited", !r.handled).Dur("duration", elapsed).Msg("run completed")
	if r.events {
		r.p.eventBus.EmitRunCompleted(r.id, elapsed, !r.handled)
	}
	return nil
}

// advance is the continuation handed to every step as next.
func (r *run[T]) advance() error {
	r.index++

	// Call next step
	if r.index < len(r.p.steps) {
		step := r.p.steps[r.index]
		if !r.events {
			return step.Run(r.ctx, r.item, r.advance)
		}

		index := r.index
		name := models.StepName(step)
		r.p.eventBus.EmitStepStarted(r.id, index, name)
		started := time.Now()
		err := step.Run(r.ctx, r.item, r.advance)
		r.p.eventBus.EmitStepFinished(r.id, index, name, time.Since(started), err)
		return err
	}

	// Reached the end
	r.handled = true
	if !r.events {
		return r.handler(r.ctx, r.item)
	}

	r.p.eventBus.EmitHandlerStarted(r.id)
	started := time.Now()
	err := r.handler(r.ctx, r.item)
	r.p.eventBus.EmitHandlerFinished(r.id, time.Since(started), err)
	return err
}
