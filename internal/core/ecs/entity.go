// Package ecs implements the entity/component runtime: a mutable-record
// entity store, incrementally maintained query indexes over it, and the
// registry that keeps the two consistent.
//
// The runtime is deliberately single-threaded: every structure in this
// package is confined to the tick goroutine and carries no locking. See the
// scheduler package for the loop that drives it.
package ecs

// Entity is an opaque, schema-less record mapping component names to values.
// Identity is pointer identity; two entities with equal components are still
// distinct. Entities are shaped entirely by calling code through the
// Registry's mutation operations; the read surface below is the only thing
// other packages see, which keeps query membership and entity shape in sync
// by construction.
type Entity struct {
	components map[string]any
}

// NewEntity creates an entity from the given component values. The map is
// copied; the caller keeps no mutable handle into the entity.
func NewEntity(components map[string]any) *Entity {
	e := &Entity{components: make(map[string]any, len(components))}
	for name, value := range components {
		e.components[name] = value
	}
	return e
}

// Get returns the named component value.
func (e *Entity) Get(name string) (any, bool) {
	v, ok := e.components[name]
	return v, ok
}

// Has reports whether the named component is present.
func (e *Entity) Has(name string) bool {
	_, ok := e.components[name]
	return ok
}

// Len returns the number of components on the entity.
func (e *Entity) Len() int {
	return len(e.components)
}

// Names returns the component names in unspecified order.
func (e *Entity) Names() []string {
	names := make([]string, 0, len(e.components))
	for name := range e.components {
		names = append(names, name)
	}
	return names
}

// Component retrieves a typed component value. The second result is false
// when the component is absent or holds a different type.
func Component[T any](e *Entity, name string) (T, bool) {
	v, ok := e.components[name]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Mutators are package-private: all writes flow through the Registry so that
// query indexes observe every shape change.

func (e *Entity) set(name string, value any) {
	e.components[name] = value
}

func (e *Entity) delete(name string) {
	delete(e.components, name)
}

// cloneWithout builds a shallow copy of the entity lacking one component.
// Used as the projection during in-place component removal.
func (e *Entity) cloneWithout(name string) *Entity {
	clone := &Entity{components: make(map[string]any, len(e.components))}
	for k, v := range e.components {
		if k != name {
			clone.components[k] = v
		}
	}
	return clone
}
