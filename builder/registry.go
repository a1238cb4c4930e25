package builder

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/simon020286/go-stepchain/models"
)

// StepFactory creates a step instance for an activation.
// The returned value must have the shape described on Activator.
type StepFactory func(ctx context.Context, a Activation) (any, error)

// Catalog maps step names to factories. It is the default Activator.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]StepFactory
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		factories: make(map[string]StepFactory),
	}
}

// RegisterStepType registers a factory for a step name.
// It panics on an empty name, a nil factory or a duplicate name.
func (c *Catalog) RegisterStepType(name string, factory StepFactory) {
	if name == "" {
		panic("step type name cannot be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("step factory for '%s' is nil", name))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[name]; exists {
		panic(fmt.Sprintf("step type '%s' already registered", name))
	}
	c.factories[name] = factory
}

// Factory returns the factory for a step name
func (c *Catalog) Factory(name string) (StepFactory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	factory, exists := c.factories[name]
	if !exists {
		return nil, &models.UnknownStepError{Name: name}
	}
	return factory, nil
}

// Has reports whether name is registered
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.factories[name]
	return exists
}

// Count returns the number of registered step types
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.factories)
}

// Names returns all registered step names, sorted
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the step named by the activation's descriptor.
func (c *Catalog) Create(ctx context.Context, a Activation) (any, error) {
	factory, err := c.Factory(a.Descriptor.Name)
	if err != nil {
		return nil, err
	}
	return factory(ctx, a)
}

// Activate implements Activator.
func (c *Catalog) Activate(ctx context.Context, a Activation) (any, error) {
	return c.Create(ctx, a)
}
