package config

import (
	"fmt"
	"os"

	"github.com/dop251/goja"

	"github.com/simon020286/go-stepchain/models"
)

// ValueSpec represents a value that can be static or dynamic
type ValueSpec interface {
	IsStatic() bool
	GetStaticValue() (any, bool)
	GetDynamicExpression() (DynamicValue, bool)
	// Resolve resolves the value against the item being processed
	Resolve(input *models.StepInput) (any, error)
}

// StaticValue represents a literal value (number, string, bool, etc.)
type StaticValue struct {
	Value any
}

func NewStaticValue(value any) StaticValue {
	return StaticValue{
		Value: value,
	}
}

func (s StaticValue) IsStatic() bool {
	return true
}

func (s StaticValue) GetStaticValue() (any, bool) {
	return s.Value, true
}

func (s StaticValue) GetDynamicExpression() (DynamicValue, bool) {
	return DynamicValue{}, false
}

func (s StaticValue) Resolve(_ *models.StepInput) (any, error) {
	return s.Value, nil
}

// DynamicValue represents an expression to be evaluated at runtime
type DynamicValue struct {
	Language   string // "js" or "javascript"
	Expression string // the expression to evaluate
}

func (d DynamicValue) IsStatic() bool {
	return false
}

func (d DynamicValue) GetStaticValue() (any, bool) {
	return nil, false
}

func (d DynamicValue) GetDynamicExpression() (DynamicValue, bool) {
	return d, true
}

func (d DynamicValue) Resolve(input *models.StepInput) (any, error) {
	switch d.Language {
	case "js", "javascript", "":
		return d.resolveJS(input)
	default:
		return nil, fmt.Errorf("unsupported language: %s", d.Language)
	}
}

// resolveJS evaluates a JavaScript expression using Goja
func (d DynamicValue) resolveJS(input *models.StepInput) (any, error) {
	runtime, err := NewRuntime(input)
	if err != nil {
		return nil, err
	}

	wrappedCode := "(function() {\n return " + d.Expression + "\n})()"

	result, err := runtime.RunString(wrappedCode)
	if err != nil {
		return nil, fmt.Errorf("failed to execute JS expression '%s': %w", d.Expression, err)
	}

	return result.Export(), nil
}

// NewRuntime creates a JS runtime with the item bound to `item` and the
// pipeline variables bound to `$vars`.
func NewRuntime(input *models.StepInput) (*goja.Runtime, error) {
	runtime := goja.New()
	if input == nil {
		return runtime, nil
	}

	if err := runtime.Set("item", input.Item); err != nil {
		return nil, fmt.Errorf("failed to set item: %w", err)
	}

	vars := input.Variables
	if vars == nil {
		vars = map[string]any{}
	}
	if err := runtime.Set("$vars", vars); err != nil {
		return nil, fmt.Errorf("failed to set global variables: %w", err)
	}

	return runtime, nil
}

// VariableReference represents a reference to a pipeline variable ($var:name)
type VariableReference struct {
	Name string
}

func (v VariableReference) IsStatic() bool {
	return false
}

func (v VariableReference) GetStaticValue() (any, bool) {
	return nil, false
}

func (v VariableReference) GetDynamicExpression() (DynamicValue, bool) {
	return DynamicValue{}, false
}

func (v VariableReference) Resolve(input *models.StepInput) (any, error) {
	if input == nil || input.Variables == nil {
		return nil, fmt.Errorf("variable '%s' not found: no variables defined", v.Name)
	}

	value, exists := input.Variables[v.Name]
	if !exists {
		return nil, fmt.Errorf("variable '%s' not found in pipeline variables", v.Name)
	}

	return value, nil
}

// EnvReference represents a reference to an environment variable ($env:NAME)
type EnvReference struct {
	Name string
}

func (e EnvReference) IsStatic() bool {
	return false
}

func (e EnvReference) GetStaticValue() (any, bool) {
	return nil, false
}

func (e EnvReference) GetDynamicExpression() (DynamicValue, bool) {
	return DynamicValue{}, false
}

func (e EnvReference) Resolve(_ *models.StepInput) (any, error) {
	value := os.Getenv(e.Name)
	if value == "" {
		return nil, fmt.Errorf("environment variable '%s' is not set or is empty", e.Name)
	}

	return value, nil
}
