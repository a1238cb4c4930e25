package builder

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/simon020286/go-stepchain/models"
)

// MatchKind tells how a registration applies to the payload type being resolved.
type MatchKind int

const (
	// MatchExact means the implementation was written for the payload type itself.
	MatchExact MatchKind = iota
	// MatchSupertype means it was written for an interface the payload type implements.
	MatchSupertype
	// MatchOpen means it is generic over the payload type.
	MatchOpen
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchSupertype:
		return "supertype"
	case MatchOpen:
		return "open"
	default:
		return fmt.Sprintf("MatchKind(%d)", int(k))
	}
}

// Resolution is one applicable registration.
type Resolution struct {
	Descriptor Descriptor
	Key        Key
	Kind       MatchKind
}

// Resolver turns registrations into live step sequences for a payload type.
type Resolver struct {
	registry  *Registry
	activator Activator
	logger    zerolog.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used to trace resolution
func WithResolverLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over reg that builds instances with act.
func NewResolver(reg *Registry, act Activator, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry:  reg,
		activator: act,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the resolver reads from
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Match walks the registry in insertion order and returns every
// registration that applies to target. Descriptors keep their order within
// an entry, and entries keep the order in which their key was first seen.
func (r *Resolver) Match(target reflect.Type) []Resolution {
	var out []Resolution
	for _, entry := range r.registry.Entries() {
		kind, ok := matchKey(entry.Key, target)
		if !ok {
			continue
		}
		for _, d := range entry.Descriptors {
			out = append(out, Resolution{Descriptor: d, Key: entry.Key, Kind: kind})
		}
	}
	return out
}

func matchKey(key Key, target reflect.Type) (MatchKind, bool) {
	switch {
	case key.IsOpen():
		return MatchOpen, true
	case key.typ == target:
		return MatchExact, true
	case key.typ.Kind() == reflect.Interface && target.Implements(key.typ):
		return MatchSupertype, true
	default:
		return 0, false
	}
}

// Resolve builds the ordered step sequence for payload type T.
//
// Each applicable registration is activated once. Supertype matches are
// wrapped in a narrowing adapter and open matches are bound to T. An
// instance implementing models.Step[any] is accepted for every match kind.
// Activator errors are returned as is; an instance of the wrong shape fails
// with *models.StepTypeError.
func Resolve[T any](ctx context.Context, rs *Resolver, scope Scope) ([]models.Step[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := reflect.TypeFor[T]()
	matches := rs.Match(target)

	rs.logger.Debug().
		Str("target", target.String()).
		Int("matches", len(matches)).
		Msg("resolving steps")

	steps := make([]models.Step[T], 0, len(matches))
	for _, m := range matches {
		instance, err := rs.activator.Activate(ctx, Activation{
			Descriptor: m.Descriptor,
			Target:     target,
			Key:        m.Key,
			Kind:       m.Kind,
			Scope:      scope,
		})
		if err != nil {
			return nil, err
		}

		step, err := bind[T](m, instance)
		if err != nil {
			return nil, err
		}

		rs.logger.Debug().
			Str("target", target.String()).
			Str("step", m.Descriptor.Name).
			Str("key", m.Key.String()).
			Stringer("match", m.Kind).
			Msg("step resolved")

		steps = append(steps, step)
	}
	return steps, nil
}

func bind[T any](m Resolution, instance any) (models.Step[T], error) {
	if step, ok := instance.(models.Step[T]); ok && m.Kind != MatchSupertype {
		return step, nil
	}

	if m.Kind == MatchSupertype {
		if erased, ok := m.Key.erase(instance); ok {
			return models.Specialize[T](erased), nil
		}
	}

	// a step for any accepts every payload
	if step, ok := instance.(models.Step[any]); ok {
		return models.Specialize[T](step), nil
	}

	want := reflect.TypeFor[T]().String()
	if m.Kind == MatchSupertype {
		want = m.Key.String()
	}
	return nil, &models.StepTypeError{
		Name: m.Descriptor.Name,
		Want: "models.Step[" + want + "]",
		Got:  fmt.Sprintf("%T", instance),
	}
}
