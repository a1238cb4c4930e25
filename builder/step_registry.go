package builder

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/simon020286/go-stepchain/models"
)

// Key identifies the payload type a step implementation was written for.
// The zero Key is the open placeholder: implementations registered under it
// are generic over the payload and get bound to whatever type is resolved.
type Key struct {
	typ   reflect.Type
	erase func(instance any) (models.Step[any], bool)
}

// Open is the placeholder key for implementations generic over the payload.
var Open = Key{}

// KeyOf returns the key for payload type K.
func KeyOf[K any]() Key {
	return Key{
		typ: reflect.TypeFor[K](),
		erase: func(instance any) (models.Step[any], bool) {
			step, ok := instance.(models.Step[K])
			if !ok {
				return nil, false
			}
			return models.Erase[K](step), true
		},
	}
}

// Type returns the payload type, nil for Open.
func (k Key) Type() reflect.Type {
	return k.typ
}

// IsOpen reports whether k is the open placeholder.
func (k Key) IsOpen() bool {
	return k.typ == nil
}

func (k Key) String() string {
	if k.IsOpen() {
		return "*"
	}
	return k.typ.String()
}

// Descriptor names a step implementation the Activator knows how to build.
type Descriptor struct {
	Name   string
	Config map[string]any
}

// Describe returns a Descriptor for a catalog name.
func Describe(name string, config map[string]any) Descriptor {
	return Descriptor{Name: name, Config: config}
}

// Entry is one key together with the implementations registered against it.
type Entry struct {
	Key         Key
	Descriptors []Descriptor
}

// Registry collects step registrations in insertion order.
// It is filled during configuration; after Seal it only serves reads and is
// safe for concurrent resolution.
type Registry struct {
	mu      sync.RWMutex
	order   []reflect.Type
	entries map[reflect.Type]*Entry
	sealed  bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[reflect.Type]*Entry),
	}
}

// Add appends d under every key. Keys seen for the first time are appended
// to the resolution order; registering the same descriptor twice under the
// same key produces two entries.
func (r *Registry) Add(d Descriptor, keys ...Key) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		panic(fmt.Sprintf("step registry is sealed, cannot register '%s'", d.Name))
	}
	if d.Name == "" {
		panic("step descriptor name cannot be empty")
	}

	for _, key := range keys {
		entry, exists := r.entries[key.typ]
		if !exists {
			entry = &Entry{Key: key}
			r.entries[key.typ] = entry
			r.order = append(r.order, key.typ)
		}
		entry.Descriptors = append(entry.Descriptors, d)
	}
	return r
}

// Register adds d under the key of payload type K.
func Register[K any](r *Registry, d Descriptor) *Registry {
	return r.Add(d, KeyOf[K]())
}

// Open adds d under the open key.
func (r *Registry) Open(d Descriptor) *Registry {
	return r.Add(d, Open)
}

// Seal marks the end of configuration. Later registrations panic.
func (r *Registry) Seal() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	return r
}

// Sealed reports whether Seal was called
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Entries returns a copy of all entries in resolution order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, typ := range r.order {
		entry := r.entries[typ]
		descriptors := make([]Descriptor, len(entry.Descriptors))
		copy(descriptors, entry.Descriptors)
		entries = append(entries, Entry{Key: entry.Key, Descriptors: descriptors})
	}
	return entries
}

// Keys returns the registered keys in resolution order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.order))
	for _, typ := range r.order {
		keys = append(keys, r.entries[typ].Key)
	}
	return keys
}

// Len returns the number of registrations across all keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, entry := range r.entries {
		n += len(entry.Descriptors)
	}
	return n
}
