package steps

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/simon020286/go-stepchain/builder"
	"github.com/simon020286/go-stepchain/models"
)

// @step name=metrics category=observability description=Records calls, outcomes, duration and in-flight runs of the rest of the chain
type MetricsConfig struct {
	Label string `step:"desc=Value of the step label; defaults to the payload type"`
}

type collectors struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

func newCollectors(namespace string, reg prometheus.Registerer) (*collectors, error) {
	c := &collectors{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_calls_total",
			Help:      "Number of runs passing through a metrics step, by outcome.",
		}, []string{"step", "type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent in the rest of the chain.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "type"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "step_in_flight",
			Help:      "Runs currently inside the rest of the chain.",
		}, []string{"step", "type"}),
	}
	if reg == nil {
		return c, nil
	}

	var err error
	if c.calls, err = register(reg, c.calls); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	if c.inFlight, err = register(reg, c.inFlight); err != nil {
		return nil, err
	}
	return c, nil
}

// register registers col, reusing a collector registered earlier under the same name.
func register[C prometheus.Collector](reg prometheus.Registerer, col C) (C, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}

// Metrics instruments the rest of the chain.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration prometheus.Observer
	inFlight prometheus.Gauge
	label    string
	payload  string
}

func (s *Metrics) Name() string {
	return "metrics:" + s.label
}

func (s *Metrics) Run(_ context.Context, _ any, next models.Next) error {
	s.inFlight.Inc()
	defer s.inFlight.Dec()

	started := time.Now()
	err := next()
	s.duration.Observe(time.Since(started).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.calls.WithLabelValues(s.label, s.payload, outcome).Inc()
	return err
}

func (c *collectors) newMetrics(_ context.Context, a builder.Activation) (any, error) {
	payload := "unknown"
	if a.Target != nil {
		payload = a.Target.String()
	}

	label, err := builder.StaticString(a.Descriptor.Config, "label", payload)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		calls:    c.calls,
		duration: c.duration.WithLabelValues(label, payload),
		inFlight: c.inFlight.WithLabelValues(label, payload),
		label:    label,
		payload:  payload,
	}, nil
}
