package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNilItem is returned when a pipeline is run without a payload.
	ErrNilItem = errors.New("pipeline item is nil")

	// ErrNilHandler is returned when a pipeline is run without a terminal handler.
	ErrNilHandler = errors.New("pipeline handler is nil")

	// ErrUnknownStep is returned when no factory exists for a step name.
	ErrUnknownStep = errors.New("unknown step type")

	// ErrUnknownType is returned when a configuration names an unknown payload type.
	ErrUnknownType = errors.New("unknown payload type")

	// ErrStepType is returned when an activated instance is not a step for the expected payload.
	ErrStepType = errors.New("instance does not implement the step capability")

	// ErrStepCancelled is returned by steps that stop waiting because ctx was cancelled.
	ErrStepCancelled = errors.New("step execution cancelled")

	// ErrInvalidConfig is returned for invalid step or pipeline configuration.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrPanic is matched by PanicError.
	ErrPanic = errors.New("step panicked")
)

type MissingConfigError struct {
	Key string
}

func (e *MissingConfigError) Error() string {
	return "missing required configuration key: " + e.Key
}

func (e *MissingConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func ErrMissingConfig(key string) error {
	return &MissingConfigError{Key: key}
}

// UnknownStepError reports a descriptor name the activator cannot build.
type UnknownStepError struct {
	Name string
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("unknown step type: %s", e.Name)
}

func (e *UnknownStepError) Unwrap() error {
	return ErrUnknownStep
}

// UnknownTypeError reports a payload type name missing from the type table.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown payload type: %s", e.Name)
}

func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}

// StepTypeError reports an activated instance of the wrong shape.
type StepTypeError struct {
	Name string // descriptor name
	Want string // expected capability
	Got  string // dynamic type of the instance
}

func (e *StepTypeError) Error() string {
	return fmt.Sprintf("step '%s': %s does not implement %s", e.Name, e.Got, e.Want)
}

func (e *StepTypeError) Unwrap() error {
	return ErrStepType
}

// NarrowError is returned by an adapter whose item cannot be narrowed.
type NarrowError struct {
	From string
	To   string
}

func (e *NarrowError) Error() string {
	return fmt.Sprintf("cannot narrow %s to %s", e.From, e.To)
}

func (e *NarrowError) Unwrap() error {
	return ErrStepType
}

// PanicError carries a value recovered from a panicking step or handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("step panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrPanic, err}
	}
	return []error{ErrPanic}
}
