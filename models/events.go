package models

import (
	"time"
)

// EventType identifies an event emitted by a pipeline run
type EventType string

const (
	// Run events
	EventRunStarted   EventType = "run.started"
	EventRunCompleted EventType = "run.completed"
	EventRunFailed    EventType = "run.failed"

	// Step events
	EventStepStarted   EventType = "step.started"
	EventStepCompleted EventType = "step.completed"
	EventStepFailed    EventType = "step.failed"

	// Terminal handler events
	EventHandlerStarted   EventType = "handler.started"
	EventHandlerCompleted EventType = "handler.completed"
	EventHandlerFailed    EventType = "handler.failed"
)

// Event is a generic pipeline event
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Pipeline  string         `json:"pipeline"`
	RunID     string         `json:"run_id"`
	Data      map[string]any `json:"data"`
}

// EventListener receives events emitted by a pipeline
type EventListener interface {
	OnEvent(event Event)
}

// EventListenerFunc is an adapter to use functions as EventListener
type EventListenerFunc func(event Event)

func (f EventListenerFunc) OnEvent(event Event) {
	f(event)
}
