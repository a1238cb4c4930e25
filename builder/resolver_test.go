package builder

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simon020286/go-stepchain/models"
)

type base interface {
	ID() int
}

type derived struct {
	id int
}

func (d *derived) ID() int { return d.id }

type other struct{}

// seen records the items each step was called with.
type seen struct {
	mu    sync.Mutex
	names []string
	items []any
}

func (s *seen) add(name string, item any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	s.items = append(s.items, item)
}

func recordStep[T any](s *seen, name string) models.Step[T] {
	return models.StepFunc[T](func(_ context.Context, item T, next models.Next) error {
		s.add(name, item)
		return next()
	})
}

func testActivator(s *seen) ActivatorFunc {
	return func(_ context.Context, a Activation) (any, error) {
		switch a.Descriptor.Name {
		case "exact":
			return recordStep[*derived](s, "exact"), nil
		case "super":
			return recordStep[base](s, "super"), nil
		case "open":
			return recordStep[any](s, "open"), nil
		case "wrong":
			return "not a step", nil
		case "fail":
			return nil, errActivation
		}
		return nil, &models.UnknownStepError{Name: a.Descriptor.Name}
	}
}

var errActivation = errors.New("activation failed")

func runAll[T any](t *testing.T, steps []models.Step[T], item T) {
	t.Helper()
	var advance func(i int) error
	advance = func(i int) error {
		if i == len(steps) {
			return nil
		}
		return steps[i].Run(context.Background(), item, func() error { return advance(i + 1) })
	}
	require.NoError(t, advance(0))
}

func TestRegistry_InsertionOrder(t *testing.T) {
	reg := NewRegistry()
	Register[base](reg, Describe("super", nil))
	Register[*derived](reg, Describe("exact", nil))
	Register[base](reg, Describe("super2", nil))
	reg.Open(Describe("open", nil))

	keys := reg.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, reflect.TypeFor[base](), keys[0].Type())
	assert.Equal(t, reflect.TypeFor[*derived](), keys[1].Type())
	assert.True(t, keys[2].IsOpen())
	assert.Equal(t, 4, reg.Len())

	entries := reg.Entries()
	require.Len(t, entries[0].Descriptors, 2)
	assert.Equal(t, "super", entries[0].Descriptors[0].Name)
	assert.Equal(t, "super2", entries[0].Descriptors[1].Name)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	Register[string](reg, Describe("a", nil))
	Register[string](reg, Describe("a", nil))

	assert.Equal(t, 2, reg.Len())
	assert.Len(t, reg.Keys(), 1)
}

func TestRegistry_MultipleKeys(t *testing.T) {
	reg := NewRegistry()
	reg.Add(Describe("multi", nil), KeyOf[string](), KeyOf[int]())

	resolver := NewResolver(reg, nil)
	assert.Len(t, resolver.Match(reflect.TypeFor[string]()), 1)
	assert.Len(t, resolver.Match(reflect.TypeFor[int]()), 1)
	assert.Empty(t, resolver.Match(reflect.TypeFor[bool]()))
}

func TestRegistry_SealPanics(t *testing.T) {
	reg := NewRegistry().Seal()

	assert.True(t, reg.Sealed())
	assert.Panics(t, func() { Register[string](reg, Describe("late", nil)) })
}

func TestRegistry_EmptyNamePanics(t *testing.T) {
	assert.Panics(t, func() { NewRegistry().Open(Describe("", nil)) })
}

func TestResolver_Match(t *testing.T) {
	reg := NewRegistry()
	Register[base](reg, Describe("super", nil))
	Register[*derived](reg, Describe("exact", nil))
	Register[other](reg, Describe("unrelated", nil))
	reg.Open(Describe("open", nil))

	matches := NewResolver(reg, nil).Match(reflect.TypeFor[*derived]())
	require.Len(t, matches, 3)

	assert.Equal(t, "super", matches[0].Descriptor.Name)
	assert.Equal(t, MatchSupertype, matches[0].Kind)
	assert.Equal(t, "exact", matches[1].Descriptor.Name)
	assert.Equal(t, MatchExact, matches[1].Kind)
	assert.Equal(t, "open", matches[2].Descriptor.Name)
	assert.Equal(t, MatchOpen, matches[2].Kind)
}

func TestResolver_MatchInterfaceTargetIsExact(t *testing.T) {
	reg := NewRegistry()
	Register[base](reg, Describe("super", nil))

	matches := NewResolver(reg, nil).Match(reflect.TypeFor[base]())
	require.Len(t, matches, 1)
	assert.Equal(t, MatchExact, matches[0].Kind)
}

func TestResolver_ValueTypeDoesNotMatchPointerMethods(t *testing.T) {
	reg := NewRegistry()
	Register[base](reg, Describe("super", nil))

	// only *derived has the ID method
	assert.Empty(t, NewResolver(reg, nil).Match(reflect.TypeFor[derived]()))
}

func TestResolve_DerivedAndBase(t *testing.T) {
	s := &seen{}
	reg := NewRegistry()
	Register[*derived](reg, Describe("exact", nil))
	Register[base](reg, Describe("super", nil))
	reg.Seal()

	steps, err := Resolve[*derived](context.Background(), NewResolver(reg, testActivator(s)), Scope{})
	require.NoError(t, err)
	require.Len(t, steps, 2)

	item := &derived{id: 7}
	runAll(t, steps, item)

	assert.Equal(t, []string{"exact", "super"}, s.names)
	require.Len(t, s.items, 2)
	assert.Same(t, item, s.items[0])

	narrowed, ok := s.items[1].(base)
	require.True(t, ok)
	assert.Same(t, item, narrowed.(*derived))
	assert.Equal(t, 7, narrowed.ID())
}

func TestResolve_SupertypeFirst(t *testing.T) {
	s := &seen{}
	reg := NewRegistry()
	Register[base](reg, Describe("super", nil))
	Register[*derived](reg, Describe("exact", nil))

	steps, err := Resolve[*derived](context.Background(), NewResolver(reg, testActivator(s)), Scope{})
	require.NoError(t, err)

	runAll(t, steps, &derived{})
	assert.Equal(t, []string{"super", "exact"}, s.names)
}

func TestResolve_Open(t *testing.T) {
	s := &seen{}
	reg := NewRegistry().Open(Describe("open", nil))
	resolver := NewResolver(reg, testActivator(s))

	strSteps, err := Resolve[string](context.Background(), resolver, Scope{})
	require.NoError(t, err)
	require.Len(t, strSteps, 1)
	runAll(t, strSteps, "hello")

	intSteps, err := Resolve[int](context.Background(), resolver, Scope{})
	require.NoError(t, err)
	runAll(t, intSteps, 42)

	assert.Equal(t, []any{"hello", 42}, s.items)
}

func TestResolve_OpenSpecializedFactory(t *testing.T) {
	var target reflect.Type
	act := ActivatorFunc(func(_ context.Context, a Activation) (any, error) {
		target = a.Target
		assert.Equal(t, MatchOpen, a.Kind)
		assert.True(t, a.Key.IsOpen())
		return models.StepFunc[string](func(_ context.Context, item string, next models.Next) error {
			return next()
		}), nil
	})

	steps, err := Resolve[string](context.Background(), NewResolver(NewRegistry().Open(Describe("typed", nil)), act), Scope{})
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, reflect.TypeFor[string](), target)
}

func TestResolve_NoMatches(t *testing.T) {
	reg := NewRegistry()
	Register[other](reg, Describe("unrelated", nil))

	steps, err := Resolve[string](context.Background(), NewResolver(reg, testActivator(&seen{})), Scope{})
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestResolve_WrongShape(t *testing.T) {
	tests := []struct {
		name string
		reg  func(*Registry)
	}{
		{"exact", func(r *Registry) { Register[*derived](r, Describe("wrong", nil)) }},
		{"supertype", func(r *Registry) { Register[base](r, Describe("wrong", nil)) }},
		{"open", func(r *Registry) { r.Open(Describe("wrong", nil)) }},
		{"supertype with exact instance", func(r *Registry) { Register[base](r, Describe("exact", nil)) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegistry()
			tc.reg(reg)

			_, err := Resolve[*derived](context.Background(), NewResolver(reg, testActivator(&seen{})), Scope{})

			var typeErr *models.StepTypeError
			require.ErrorAs(t, err, &typeErr)
			assert.ErrorIs(t, err, models.ErrStepType)
		})
	}
}

func TestResolve_ActivatorErrorUnchanged(t *testing.T) {
	reg := NewRegistry().Open(Describe("fail", nil))

	_, err := Resolve[string](context.Background(), NewResolver(reg, testActivator(&seen{})), Scope{})
	assert.Same(t, errActivation, err)
}

func TestResolve_PassesScope(t *testing.T) {
	scope := Scope{Values: map[string]any{"tenant": "acme"}}
	act := ActivatorFunc(func(_ context.Context, a Activation) (any, error) {
		v, ok := a.Scope.Value("tenant")
		assert.True(t, ok)
		assert.Equal(t, "acme", v)
		return recordStep[any](&seen{}, "open"), nil
	})

	_, err := Resolve[string](context.Background(), NewResolver(NewRegistry().Open(Describe("open", nil)), act), scope)
	require.NoError(t, err)
}

func TestMatchKind_String(t *testing.T) {
	assert.Equal(t, "exact", MatchExact.String())
	assert.Equal(t, "supertype", MatchSupertype.String())
	assert.Equal(t, "open", MatchOpen.String())
	assert.Equal(t, "MatchKind(9)", MatchKind(9).String())
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	c.RegisterStepType("b", func(_ context.Context, a Activation) (any, error) {
		return recordStep[any](&seen{}, a.Descriptor.Name), nil
	})
	c.RegisterStepType("a", func(_ context.Context, _ Activation) (any, error) {
		return nil, errActivation
	})

	assert.Equal(t, []string{"a", "b"}, c.Names())
	assert.Equal(t, 2, c.Count())
	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("c"))

	instance, err := c.Activate(context.Background(), Activation{Descriptor: Describe("b", nil)})
	require.NoError(t, err)
	assert.Implements(t, (*models.Step[any])(nil), instance)

	_, err = c.Create(context.Background(), Activation{Descriptor: Describe("a", nil)})
	assert.ErrorIs(t, err, errActivation)

	_, err = c.Create(context.Background(), Activation{Descriptor: Describe("c", nil)})
	var unknown *models.UnknownStepError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "c", unknown.Name)
	assert.ErrorIs(t, err, models.ErrUnknownStep)
}

func TestCatalog_RegisterPanics(t *testing.T) {
	c := NewCatalog()
	factory := func(context.Context, Activation) (any, error) { return nil, nil }
	c.RegisterStepType("x", factory)

	assert.Panics(t, func() { c.RegisterStepType("x", factory) })
	assert.Panics(t, func() { c.RegisterStepType("", factory) })
	assert.Panics(t, func() { c.RegisterStepType("y", nil) })
}

func TestCatalog_AsResolverActivator(t *testing.T) {
	s := &seen{}
	c := NewCatalog()
	c.RegisterStepType("open", func(_ context.Context, _ Activation) (any, error) {
		return recordStep[any](s, "open"), nil
	})

	steps, err := Resolve[string](context.Background(), NewResolver(NewRegistry().Open(Describe("open", nil)), c), Scope{})
	require.NoError(t, err)
	runAll(t, steps, "x")
	assert.Equal(t, []string{"open"}, s.names)
}
