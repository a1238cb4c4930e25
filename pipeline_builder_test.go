package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simon020286/go-stepchain/builder"
	"github.com/simon020286/go-stepchain/config"
	"github.com/simon020286/go-stepchain/models"
	"github.com/simon020286/go-stepchain/steps"
)

type animal interface {
	Sound() string
}

type dog struct {
	name string
}

func (d *dog) Sound() string { return "woof" }

type recorder struct {
	mu    sync.Mutex
	names []string
	items []any
}

func (r *recorder) step(name string) models.Step[any] {
	return models.StepFunc[any](func(_ context.Context, item any, next models.Next) error {
		r.mu.Lock()
		r.names = append(r.names, name)
		r.items = append(r.items, item)
		r.mu.Unlock()
		return next()
	})
}

func TestBuild_ExactAndSupertype(t *testing.T) {
	var seen []any
	act := builder.ActivatorFunc(func(_ context.Context, a builder.Activation) (any, error) {
		switch a.Descriptor.Name {
		case "dog":
			return models.StepFunc[*dog](func(_ context.Context, d *dog, next models.Next) error {
				seen = append(seen, d)
				return next()
			}), nil
		case "animal":
			return models.StepFunc[animal](func(_ context.Context, an animal, next models.Next) error {
				seen = append(seen, an)
				assert.Equal(t, "woof", an.Sound())
				return next()
			}), nil
		}
		return nil, &models.UnknownStepError{Name: a.Descriptor.Name}
	})

	reg := builder.NewRegistry()
	builder.Register[*dog](reg, builder.Describe("dog", nil))
	builder.Register[animal](reg, builder.Describe("animal", nil))
	reg.Seal()

	p, err := Build[*dog](context.Background(), builder.NewResolver(reg, act), builder.Scope{})
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())

	rex := &dog{name: "rex"}
	var handled *dog
	require.NoError(t, p.Run(context.Background(), rex, func(_ context.Context, d *dog) error {
		handled = d
		return nil
	}))

	require.Len(t, seen, 2)
	assert.Same(t, rex, seen[0])
	assert.Same(t, rex, seen[1].(*dog))
	assert.Same(t, rex, handled)
}

type buildCtxKey struct{}

func TestBuild_ContextReachesEveryStep(t *testing.T) {
	ctxs := map[string]context.Context{}
	record := func(name string, ctx context.Context) {
		ctxs[name] = ctx
	}

	act := builder.ActivatorFunc(func(_ context.Context, a builder.Activation) (any, error) {
		switch a.Descriptor.Name {
		case "dog":
			return models.StepFunc[*dog](func(ctx context.Context, _ *dog, next models.Next) error {
				record("dog", ctx)
				return next()
			}), nil
		case "animal":
			return models.StepFunc[animal](func(ctx context.Context, _ animal, next models.Next) error {
				record("animal", ctx)
				return next()
			}), nil
		default:
			return models.StepFunc[any](func(ctx context.Context, _ any, next models.Next) error {
				record("open", ctx)
				return next()
			}), nil
		}
	})

	reg := builder.NewRegistry()
	builder.Register[animal](reg, builder.Describe("animal", nil))
	builder.Register[*dog](reg, builder.Describe("dog", nil))
	reg.Open(builder.Describe("open", nil)).Seal()

	p, err := Build[*dog](context.Background(), builder.NewResolver(reg, act), builder.Scope{})
	require.NoError(t, err)
	require.Equal(t, 3, p.Len())

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), buildCtxKey{}, "req-1"))
	var handlerCtx context.Context
	require.NoError(t, p.Run(ctx, &dog{name: "rex"}, func(hctx context.Context, _ *dog) error {
		handlerCtx = hctx
		cancel()
		return nil
	}))

	require.Len(t, ctxs, 3)
	for name, got := range ctxs {
		assert.Same(t, ctx, got, name)
		assert.Equal(t, "req-1", got.Value(buildCtxKey{}), name)
		assert.ErrorIs(t, got.Err(), context.Canceled, name)
	}
	assert.Same(t, ctx, handlerCtx)
}

func TestBuild_ActivatorError(t *testing.T) {
	boom := errors.New("boom")
	act := builder.ActivatorFunc(func(context.Context, builder.Activation) (any, error) { return nil, boom })

	p, err := Build[string](context.Background(), builder.NewResolver(builder.NewRegistry().Open(builder.Describe("x", nil)), act), builder.Scope{})
	assert.Nil(t, p)
	assert.Same(t, boom, err)
}

func TestBuild_OpenStepsPerType(t *testing.T) {
	rec := &recorder{}
	catalog := builder.NewCatalog()
	catalog.RegisterStepType("rec", func(_ context.Context, a builder.Activation) (any, error) {
		return rec.step(a.Target.String()), nil
	})
	rs := builder.NewResolver(builder.NewRegistry().Open(builder.Describe("rec", nil)).Seal(), catalog)

	strs, err := Build[string](context.Background(), rs, builder.Scope{})
	require.NoError(t, err)
	ints, err := Build[int](context.Background(), rs, builder.Scope{})
	require.NoError(t, err)

	require.NoError(t, strs.RunAction("a", func(string) {}))
	require.NoError(t, ints.RunAction(1, func(int) {}))

	assert.Equal(t, []string{"string", "int"}, rec.names)
	assert.Equal(t, []any{"a", 1}, rec.items)
}

const wordsYAML = `
name: words
variables:
  min: 4
steps:
  - type: recover
    for: ["*"]
  - type: trace
    for: ["*"]
    config:
      label: outer
  - type: guard
    for: [string]
    config:
      condition: "$js: item.length >= $vars.min"
  - type: script
    for: [string]
    config:
      before: "return item !== 'skip'"
`

func TestFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(wordsYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	catalog := builder.NewCatalog()
	require.NoError(t, steps.Register(catalog, steps.Options{Logger: &log}))

	p, err := FromConfig[string](context.Background(), cfg, catalog, nil, builder.NewScope(nil))
	require.NoError(t, err)
	assert.Equal(t, "words", p.Name())
	assert.Equal(t, 4, p.Len())

	results := map[string]int{}
	for _, word := range []string{"hello", "hi", "skip"} {
		n, err := RunResult(context.Background(), p, word, func(_ context.Context, s string) (int, error) {
			return len(s), nil
		})
		require.NoError(t, err)
		results[word] = n
	}

	assert.Equal(t, map[string]int{"hello": 5, "hi": 0, "skip": 0}, results)
	assert.Contains(t, buf.String(), `"label":"outer"`)
}

func TestFromConfig_OtherTypes(t *testing.T) {
	cfg, err := config.Parse([]byte(wordsYAML))
	require.NoError(t, err)

	catalog := builder.NewCatalog()
	require.NoError(t, steps.Register(catalog, steps.Options{}))

	// only the "*" steps apply to ints
	p, err := FromConfig[int](context.Background(), cfg, catalog, builder.DefaultTypes(), builder.NewScope(nil))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
}

func TestFromConfig_ScopeVariablesWin(t *testing.T) {
	cfg, err := config.Parse([]byte(wordsYAML))
	require.NoError(t, err)

	catalog := builder.NewCatalog()
	require.NoError(t, steps.Register(catalog, steps.Options{}))

	scope := builder.NewScope(nil)
	scope.Variables = map[string]any{"min": 2}
	p, err := FromConfig[string](context.Background(), cfg, catalog, nil, scope)
	require.NoError(t, err)

	handled := false
	require.NoError(t, p.Run(context.Background(), "hi", func(context.Context, string) error {
		handled = true
		return nil
	}))
	assert.True(t, handled)
}

func TestFromConfig_RecoverStep(t *testing.T) {
	cfg := &config.PipelineConfig{
		Name:  "safe",
		Steps: []config.StepConfig{{Type: "recover", For: []string{"*"}}},
	}
	catalog := builder.NewCatalog()
	require.NoError(t, steps.Register(catalog, steps.Options{}))

	p, err := FromConfig[string](context.Background(), cfg, catalog, nil, builder.NewScope(nil))
	require.NoError(t, err)

	err = p.Run(context.Background(), "x", func(context.Context, string) error { panic("handler blew up") })
	assert.ErrorIs(t, err, models.ErrPanic)
}

func TestFromConfig_Errors(t *testing.T) {
	catalog := builder.NewCatalog()
	require.NoError(t, steps.Register(catalog, steps.Options{}))
	scope := builder.NewScope(nil)

	_, err := FromConfig[string](context.Background(), &config.PipelineConfig{
		Steps: []config.StepConfig{{Type: "trace", For: []string{"order"}}},
	}, catalog, nil, scope)
	assert.ErrorIs(t, err, models.ErrUnknownType)

	_, err = FromConfig[string](context.Background(), &config.PipelineConfig{
		Steps: []config.StepConfig{{Type: "teleport", For: []string{"*"}}},
	}, catalog, nil, scope)
	assert.ErrorIs(t, err, models.ErrUnknownStep)

	_, err = FromConfig[string](context.Background(), &config.PipelineConfig{
		Steps: []config.StepConfig{{Type: "guard", For: []string{"string"}}},
	}, catalog, nil, scope)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)

	_, err = FromConfig[string](context.Background(), nil, catalog, nil, scope)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)

	_, err = FromConfig[string](context.Background(), &config.PipelineConfig{}, nil, nil, scope)
	assert.Error(t, err)
}
