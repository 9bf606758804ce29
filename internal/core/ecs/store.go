package ecs

import (
	"errors"
	"iter"

	"github.com/veldt/veldt/internal/core/signal"
)

// Store is an ordered collection of entities with O(1) membership, insertion
// and removal, backed by a slot index. Removal swaps the victim with the last
// entity, so the sequence reorders; traversal order is an implementation
// detail and callers may rely only on every member appearing exactly once.
type Store struct {
	entities []*Entity
	slots    map[*Entity]int
	version  uint64

	added   *signal.Signal[*Entity]
	removed *signal.Signal[*Entity]
}

// NewStore creates an empty store. capacity pre-sizes the backing storage and
// may be zero.
func NewStore(capacity int) *Store {
	return &Store{
		entities: make([]*Entity, 0, capacity),
		slots:    make(map[*Entity]int, capacity),
		added:    signal.New[*Entity](),
		removed:  signal.New[*Entity](),
	}
}

// Has reports membership in O(1).
func (s *Store) Has(e *Entity) bool {
	if e == nil {
		return false
	}
	_, ok := s.slots[e]
	return ok
}

// Add appends an absent entity, bumps the structural version and fires the
// added signal. Adding nil or a present entity is a no-op. The returned error
// comes from added-signal handlers.
func (s *Store) Add(e *Entity) error {
	if e == nil || s.Has(e) {
		return nil
	}
	s.slots[e] = len(s.entities)
	s.entities = append(s.entities, e)
	s.version++
	return s.added.Emit(e)
}

// Remove fires the removed signal while the entity is still logically present,
// then swap-removes it: the last entity takes the vacated slot and the
// sequence truncates by one. Removing a non-member is a no-op. The returned
// error comes from removed-signal handlers.
func (s *Store) Remove(e *Entity) error {
	slot, ok := s.slots[e]
	if !ok {
		return nil
	}

	// Handlers observing this notification still see e as a member.
	err := s.removed.Emit(e)

	last := len(s.entities) - 1
	tail := s.entities[last]
	s.entities[slot] = tail
	s.slots[tail] = slot
	s.entities[last] = nil
	s.entities = s.entities[:last]
	delete(s.slots, e)
	s.version++
	return err
}

// Clear removes every entity one by one, preserving the per-entity removal
// notification contract.
func (s *Store) Clear() error {
	var all error
	for len(s.entities) > 0 {
		if err := s.Remove(s.entities[len(s.entities)-1]); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	return len(s.entities)
}

// Version returns the structural version counter, incremented on every add
// and remove.
func (s *Store) Version() uint64 {
	return s.version
}

// All traverses every member exactly once, from the most recently relocated
// slot backward. Removing the entity currently yielded is safe; other
// structural mutation during traversal is not.
func (s *Store) All() iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		for i := len(s.entities) - 1; i >= 0; i-- {
			if i >= len(s.entities) {
				i = len(s.entities) - 1
				if i < 0 {
					return
				}
			}
			if !yield(s.entities[i]) {
				return
			}
		}
	}
}

// Added returns the signal fired after an entity is appended.
func (s *Store) Added() *signal.Signal[*Entity] {
	return s.added
}

// Removed returns the signal fired before an entity is detached.
func (s *Store) Removed() *signal.Signal[*Entity] {
	return s.removed
}
