package builder

import (
	"fmt"
	"sort"
	"sync"

	"github.com/simon020286/go-stepchain/config"
	"github.com/simon020286/go-stepchain/models"
)

// Types maps the payload type names used in configuration to keys.
type Types struct {
	mu    sync.RWMutex
	names map[string]Key
}

// NewTypes creates an empty type table
func NewTypes() *Types {
	return &Types{names: make(map[string]Key)}
}

// DefaultTypes returns a table with the builtin payload types.
func DefaultTypes() *Types {
	t := NewTypes()
	DefineType[any](t, "any")
	DefineType[string](t, "string")
	DefineType[int](t, "int")
	DefineType[int64](t, "int64")
	DefineType[float64](t, "float64")
	DefineType[bool](t, "bool")
	DefineType[error](t, "error")
	DefineType[fmt.Stringer](t, "fmt.Stringer")
	return t
}

// DefineType makes payload type K available under name and returns its key.
// Redefining a name replaces the previous type.
func DefineType[K any](t *Types, name string) Key {
	if name == "" || name == config.AnyType {
		panic(fmt.Sprintf("invalid payload type name '%s'", name))
	}

	key := KeyOf[K]()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.names[name] = key
	return key
}

// Lookup returns the key for a type name. "*" is always Open.
func (t *Types) Lookup(name string) (Key, error) {
	if name == config.AnyType {
		return Open, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	key, exists := t.names[name]
	if !exists {
		return Key{}, &models.UnknownTypeError{Name: name}
	}
	return key, nil
}

// Names returns the defined type names, sorted
func (t *Types) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.names))
	for name := range t.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
