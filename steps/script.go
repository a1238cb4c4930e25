package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/simon020286/go-stepchain/builder"
	"github.com/simon020286/go-stepchain/config"
	"github.com/simon020286/go-stepchain/models"
)

// @step name=script category=transform description=Runs JavaScript before and after the rest of the chain
type ScriptConfig struct {
	Before string `step:"desc=Code run before delegating; returning false stops the chain"`
	After  string `step:"desc=Code run once the chain returns; $error holds the error message or null"`
}

// Script runs JavaScript around the rest of the chain. The item is bound
// to `item` and the pipeline variables to `$vars`.
type Script struct {
	before    *goja.Program
	after     *goja.Program
	variables map[string]any
}

// NewScript compiles the before and after code. Either may be empty.
func NewScript(before, after string, variables map[string]any) (*Script, error) {
	if before == "" && after == "" {
		return nil, fmt.Errorf("script step: %w", models.ErrMissingConfig("before"))
	}

	s := &Script{variables: variables}
	var err error
	if s.before, err = compile("before", before); err != nil {
		return nil, err
	}
	if s.after, err = compile("after", after); err != nil {
		return nil, err
	}
	return s, nil
}

func compile(name, code string) (*goja.Program, error) {
	if code == "" {
		return nil, nil
	}

	// Wrap the code in an anonymous function to allow return usage
	wrappedCode := "(function() {\n" + code + "\n})()"
	program, err := goja.Compile(name, wrappedCode, false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s script: %w", name, err)
	}
	return program, nil
}

func (s *Script) Name() string {
	return "script"
}

func (s *Script) Run(ctx context.Context, item any, next models.Next) error {
	runtime, err := config.NewRuntime(models.NewStepInput(item, s.variables))
	if err != nil {
		return err
	}

	if s.before != nil {
		result, err := runtime.RunProgram(s.before)
		if err != nil {
			return fmt.Errorf("JavaScript execution error: %w", err)
		}
		if proceed, ok := result.Export().(bool); ok && !proceed {
			return nil
		}
	}

	err = next()
	if s.after == nil {
		return err
	}

	var errValue any
	if err != nil {
		errValue = err.Error()
	}
	if setErr := runtime.Set("$error", errValue); setErr != nil {
		return errors.Join(err, setErr)
	}

	if _, afterErr := runtime.RunProgram(s.after); afterErr != nil {
		return errors.Join(err, fmt.Errorf("JavaScript execution error: %w", afterErr))
	}
	return err
}

func newScript(_ context.Context, a builder.Activation) (any, error) {
	before, err := builder.StaticString(a.Descriptor.Config, "before", "")
	if err != nil {
		return nil, err
	}
	after, err := builder.StaticString(a.Descriptor.Config, "after", "")
	if err != nil {
		return nil, err
	}
	return NewScript(before, after, a.Scope.Variables)
}
