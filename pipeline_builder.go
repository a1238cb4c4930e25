package pipeline

import (
	"context"
	"fmt"

	"github.com/simon020286/go-stepchain/builder"
	"github.com/simon020286/go-stepchain/config"
)

// Build resolves the steps registered for T and returns a pipeline over them.
func Build[T any](ctx context.Context, rs *builder.Resolver, scope builder.Scope, opts ...Option) (*Pipeline[T], error) {
	steps, err := builder.Resolve[T](ctx, rs, scope)
	if err != nil {
		return nil, err
	}
	return New(steps, opts...), nil
}

// FromConfig builds a pipeline for T from a configuration.
//
// The pipeline is named after the configuration unless opts set a name.
// Configuration variables are visible to steps through the scope; variables
// already present in scope take precedence.
func FromConfig[T any](ctx context.Context, cfg *config.PipelineConfig, catalog *builder.Catalog, types *builder.Types, scope builder.Scope, opts ...Option) (*Pipeline[T], error) {
	if catalog == nil {
		return nil, fmt.Errorf("pipeline '%s': catalog is nil", cfgName(cfg))
	}

	reg, err := builder.FromConfig(cfg, types)
	if err != nil {
		return nil, fmt.Errorf("pipeline '%s': %w", cfgName(cfg), err)
	}

	scope.Variables = mergeVariables(cfg.Variables, scope.Variables)

	rs := builder.NewResolver(reg, catalog, builder.WithResolverLogger(scope.Logger))
	opts = append([]Option{WithName(cfg.Name)}, opts...)
	return Build[T](ctx, rs, scope, opts...)
}

func mergeVariables(base, override map[string]any) map[string]any {
	if len(base) == 0 {
		return override
	}
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func cfgName(cfg *config.PipelineConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.Name
}
