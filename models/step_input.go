package models

// StepInput is the view of a single invocation that configuration values
// are resolved against.
type StepInput struct {
	Item      any            // Payload passed to the step
	Variables map[string]any // Pipeline variables from configuration
}

// NewStepInput creates a StepInput for item.
func NewStepInput(item any, variables map[string]any) *StepInput {
	return &StepInput{
		Item:      item,
		Variables: variables,
	}
}
