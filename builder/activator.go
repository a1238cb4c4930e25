package builder

import (
	"context"
	"reflect"

	"github.com/rs/zerolog"
)

// Scope carries the dependencies step factories may draw on for one unit
// of work. It is passed explicitly; nothing is looked up globally.
//
// The zero Logger discards output. Steps built with a zerolog.Nop() logger
// log through the logger carried by the run context instead.
type Scope struct {
	Logger    zerolog.Logger
	Variables map[string]any // pipeline variables, visible to $var: and $vars
	Values    map[string]any
}

// NewScope creates a scope with a disabled logger.
func NewScope(values map[string]any) Scope {
	return Scope{Logger: zerolog.Nop(), Values: values}
}

// Value returns a scoped value by key
func (s Scope) Value(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	v, ok := s.Values[key]
	return v, ok
}

// Activation describes one instance the resolver needs.
type Activation struct {
	Descriptor Descriptor
	Target     reflect.Type // payload type being resolved
	Key        Key          // key the descriptor was registered under
	Kind       MatchKind
	Scope      Scope
}

// Activator turns a descriptor into a live step instance.
//
// For MatchExact the instance must be a models.Step[Target] and for
// MatchSupertype a models.Step[K] where K is Key.Type(). A models.Step[any]
// is accepted for every kind, which is how open implementations are usually
// built.
type Activator interface {
	Activate(ctx context.Context, a Activation) (any, error)
}

// ActivatorFunc is an adapter to use functions as Activator
type ActivatorFunc func(ctx context.Context, a Activation) (any, error)

func (f ActivatorFunc) Activate(ctx context.Context, a Activation) (any, error) {
	return f(ctx, a)
}
