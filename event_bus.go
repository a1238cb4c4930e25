package pipeline

import (
	"sync"
	"time"

	"github.com/simon020286/go-stepchain/models"
)

// eventBus manages event distribution to registered listeners (private)
type eventBus struct {
	pipeline  string
	listeners []models.EventListener
	mutex     sync.RWMutex

	// pending counts deliveries in flight. Unlike a WaitGroup it may grow
	// while Wait is blocked, which happens when runs overlap a Wait call.
	pendingMu   sync.Mutex
	pendingDone *sync.Cond
	pending     int
}

// newEventBus creates a new eventBus instance (private)
func newEventBus(pipeline string) *eventBus {
	eb := &eventBus{
		pipeline:  pipeline,
		listeners: make([]models.EventListener, 0),
	}
	eb.pendingDone = sync.NewCond(&eb.pendingMu)
	return eb
}

// addListener registers a new listener
func (eb *eventBus) addListener(listener models.EventListener) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	eb.listeners = append(eb.listeners, listener)
}

// active reports whether anyone is listening
func (eb *eventBus) active() bool {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	return len(eb.listeners) > 0
}

// Emit sends an event to all registered listeners
func (eb *eventBus) Emit(eventType models.EventType, runID string, data map[string]any) {
	eb.mutex.RLock()
	listeners := make([]models.EventListener, len(eb.listeners))
	copy(listeners, eb.listeners)
	eb.mutex.RUnlock()

	if len(listeners) == 0 {
		return
	}

	event := models.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Pipeline:  eb.pipeline,
		RunID:     runID,
		Data:      data,
	}

	// Notify all listeners asynchronously to avoid blocking execution
	eb.pendingMu.Lock()
	eb.pending += len(listeners)
	eb.pendingMu.Unlock()

	for _, listener := range listeners {
		go func(l models.EventListener) {
			defer eb.done()
			l.OnEvent(event)
		}(listener)
	}
}

func (eb *eventBus) done() {
	eb.pendingMu.Lock()
	defer eb.pendingMu.Unlock()
	eb.pending--
	if eb.pending == 0 {
		eb.pendingDone.Broadcast()
	}
}

// Wait blocks until no delivery is in flight
func (eb *eventBus) Wait() {
	eb.pendingMu.Lock()
	defer eb.pendingMu.Unlock()
	for eb.pending > 0 {
		eb.pendingDone.Wait()
	}
}

// EmitRunStarted emits a run start event
func (eb *eventBus) EmitRunStarted(runID string, steps int) {
	eb.Emit(models.EventRunStarted, runID, map[string]any{
		"steps": steps,
	})
}

// EmitRunCompleted emits a run completion event
func (eb *eventBus) EmitRunCompleted(runID string, duration time.Duration, shortCircuited bool) {
	eb.Emit(models.EventRunCompleted, runID, map[string]any{
		"duration":        duration,
		"short_circuited": shortCircuited,
	})
}

// EmitRunFailed emits a run failure event
func (eb *eventBus) EmitRunFailed(runID string, duration time.Duration, err error) {
	eb.Emit(models.EventRunFailed, runID, map[string]any{
		"duration": duration,
		"error":    err.Error(),
	})
}

// EmitStepStarted emits a step start event
func (eb *eventBus) EmitStepStarted(runID string, index int, stepName string) {
	eb.Emit(models.EventStepStarted, runID, map[string]any{
		"index": index,
		"step":  stepName,
	})
}

// EmitStepFinished emits a step completion or failure event
func (eb *eventBus) EmitStepFinished(runID string, index int, stepName string, duration time.Duration, err error) {
	data := map[string]any{
		"index":    index,
		"step":     stepName,
		"duration": duration,
	}
	if err != nil {
		data["error"] = err.Error()
		eb.Emit(models.EventStepFailed, runID, data)
		return
	}
	eb.Emit(models.EventStepCompleted, runID, data)
}

// EmitHandlerStarted emits a terminal handler start event
func (eb *eventBus) EmitHandlerStarted(runID string) {
	eb.Emit(models.EventHandlerStarted, runID, map[string]any{})
}

// EmitHandlerFinished emits a terminal handler completion or failure event
func (eb *eventBus) EmitHandlerFinished(runID string, duration time.Duration, err error) {
	data := map[string]any{
		"duration": duration,
	}
	if err != nil {
		data["error"] = err.Error()
		eb.Emit(models.EventHandlerFailed, runID, data)
		return
	}
	eb.Emit(models.EventHandlerCompleted, runID, data)
}
