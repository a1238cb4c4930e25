//go:generate go run ../codegen/cmd/stepgen .

package steps

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/simon020286/go-stepchain/builder"
)

// Options configures the step library.
type Options struct {
	Logger     *zerolog.Logger       // used by trace and recover instead of the scope logger
	Registerer prometheus.Registerer // metrics collectors are registered here when set
	Namespace  string                // metrics namespace, "stepchain" by default
}

// Register adds every step of the library to c.
func Register(c *builder.Catalog, opts Options) error {
	if opts.Namespace == "" {
		opts.Namespace = "stepchain"
	}

	collectors, err := newCollectors(opts.Namespace, opts.Registerer)
	if err != nil {
		return err
	}

	c.RegisterStepType("trace", newTraceFactory(opts.Logger))
	c.RegisterStepType("guard", newGuard)
	c.RegisterStepType("script", newScript)
	c.RegisterStepType("delay", newDelay)
	c.RegisterStepType("metrics", collectors.newMetrics)
	c.RegisterStepType("recover", newRecoverFactory(opts.Logger))
	return nil
}

// logger returns base unless it is disabled, in which case the logger
// carried by ctx is used.
func logger(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	if base.GetLevel() != zerolog.Disabled {
		return &base
	}
	return zerolog.Ctx(ctx)
}

// factoryLogger picks the logger a step instance is built with.
func factoryLogger(base *zerolog.Logger, a builder.Activation) zerolog.Logger {
	if base != nil {
		return *base
	}
	return a.Scope.Logger
}
