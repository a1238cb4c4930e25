package models

import (
	"context"
	"fmt"
	"reflect"
)

// Adapt wraps a step written for K so that it runs against T values.
// Every call narrows the item to K and forwards it together with next and
// ctx unchanged. Pointer and interface payloads keep their identity.
func Adapt[T, K any](inner Step[K]) Step[T] {
	return &adapter[T, K]{inner: inner}
}

// Erase turns a Step[K] into a Step[any] that accepts any value assignable
// to K.
func Erase[K any](inner Step[K]) Step[any] {
	return Adapt[any, K](inner)
}

// Specialize binds a type-erased step to T.
func Specialize[T any](inner Step[any]) Step[T] {
	return Adapt[T, any](inner)
}

type adapter[T, K any] struct {
	inner Step[K]
}

func (a *adapter[T, K]) Run(ctx context.Context, item T, next Next) error {
	narrowed, ok := any(item).(K)
	if !ok {
		return &NarrowError{From: fmt.Sprintf("%T", item), To: typeName[K]()}
	}
	return a.inner.Run(ctx, narrowed, next)
}

// Inner returns the wrapped step.
func (a *adapter[T, K]) Inner() any {
	return a.inner
}

// StepName returns a readable name for a step, looking through adapters.
func StepName(step any) string {
	for {
		w, ok := step.(interface{ Inner() any })
		if !ok {
			break
		}
		step = w.Inner()
	}
	if n, ok := step.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", step)
}

func typeName[K any]() string {
	return reflect.TypeFor[K]().String()
}
