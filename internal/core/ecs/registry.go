package ecs

import (
	"errors"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// Registry owns the root entity store, every query index derived from it,
// the predicate arena, and the stable entity-id allocation. All entity and
// component mutation flows through the registry; that is what keeps query
// membership equal to the set of qualifying entities at every observable
// point.
//
// Every operation is a defensive no-op on nil, missing or foreign entities.
type Registry struct {
	log   *zap.Logger
	store *Store
	preds predicateArena

	// Query cache, keyed by the xxhash of the canonical key. The canonical
	// string is verified on every hit; a colliding key falls back to the
	// overflow map so distinct filters can never share a query.
	queries  map[uint64]*Query
	overflow map[string]*Query
	order    []*Query // registration order, drives reindex traversal

	ids      map[*Entity]uint64
	entities map[uint64]*Entity
	nextID   uint64
}

// NewRegistry creates a registry with an empty root store. capacity pre-sizes
// the root store and may be zero.
func NewRegistry(logger *zap.Logger, capacity int) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		log:      logger,
		store:    NewStore(capacity),
		queries:  make(map[uint64]*Query),
		overflow: make(map[string]*Query),
		ids:      make(map[*Entity]uint64, capacity),
		entities: make(map[uint64]*Entity, capacity),
	}
	r.store.Added().Subscribe(func(e *Entity) error {
		return r.Reindex(e)
	})
	r.store.Removed().Subscribe(r.onRemoved)
	return r
}

// onRemoved runs while the entity is still logically present in the root
// store: evict it from every query unconditionally, then drop its stable id.
func (r *Registry) onRemoved(e *Entity) error {
	var all error
	for _, q := range r.order {
		if err := q.evict(e); err != nil {
			all = errors.Join(all, err)
		}
	}
	if id, ok := r.ids[e]; ok {
		delete(r.ids, e)
		delete(r.entities, id)
	}
	return all
}

// Store returns the root entity store. Callers may subscribe to its signals
// and traverse it; mutation belongs to the registry.
func (r *Registry) Store() *Store {
	return r.store
}

// Add inserts an entity into the root store and indexes it into every
// matching query. Idempotent.
func (r *Registry) Add(e *Entity) error {
	return r.store.Add(e)
}

// Remove detaches an entity from the root store and from every query, and
// retires its stable id. Removing a non-member is a no-op.
func (r *Registry) Remove(e *Entity) error {
	return r.store.Remove(e)
}

// Has reports root store membership.
func (r *Registry) Has(e *Entity) bool {
	return r.store.Has(e)
}

// Len returns the number of stored entities.
func (r *Registry) Len() int {
	return r.store.Len()
}

// Predicate registers a filter function and returns its stable handle. The
// handle, not the function, enters canonical keys: register once and reuse
// the handle wherever structurally identical filters should share a cache.
func (r *Registry) Predicate(fn func(*Entity) bool) Predicate {
	return r.preds.register(fn)
}

// Query returns the shared query index for the filter, constructing and
// activating a new one only when no structurally identical filter has been
// requested before.
func (r *Registry) Query(f Filter) *Query {
	canonical := f.canonicalize()
	key := canonical.key()
	hash := xxhash.Sum64String(key)

	if q, ok := r.queries[hash]; ok {
		if q.canonical == key {
			return q
		}
		// Hash collision between distinct canonical keys.
		if q, ok := r.overflow[key]; ok {
			return q
		}
		r.log.Warn("query key hash collision",
			zap.String("key", key),
			zap.String("existing", q.canonical),
		)
		return r.registerQuery(canonical, key, func(q *Query) { r.overflow[key] = q })
	}
	return r.registerQuery(canonical, key, func(q *Query) { r.queries[hash] = q })
}

func (r *Registry) registerQuery(canonical Filter, key string, insert func(*Query)) *Query {
	q := newQuery(r, canonical, key)
	insert(q)
	r.order = append(r.order, q)
	if err := q.Activate(); err != nil {
		r.log.Warn("query activation handler failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return q
}

// With returns the shared query requiring the given components.
func (r *Registry) With(names ...string) *Query {
	return r.Query(Filter{Require: names})
}

// Without returns the shared query excluding the given components.
func (r *Registry) Without(names ...string) *Query {
	return r.Query(Filter{Exclude: names})
}

// Where returns the shared query filtered by a registered predicate.
func (r *Registry) Where(p Predicate) *Query {
	return r.Query(Filter{Predicates: []Predicate{p}})
}

// Reindex re-evaluates an entity against every query, optionally judging it
// by a projection instead of its live shape. No-op when the entity is not in
// the root store.
func (r *Registry) Reindex(e *Entity, projection ...*Entity) error {
	if !r.store.Has(e) {
		return nil
	}
	p := e
	if len(projection) > 0 && projection[0] != nil {
		p = projection[0]
	}
	var all error
	for _, q := range r.order {
		if err := q.Evaluate(e, p); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// ApplyPatch merges the patch into the live entity record, then reindexes.
func (r *Registry) ApplyPatch(e *Entity, patch map[string]any) error {
	if e == nil || len(patch) == 0 {
		return nil
	}
	for name, value := range patch {
		e.set(name, value)
	}
	return r.Reindex(e)
}

// SetField sets one component value unconditionally, then reindexes.
func (r *Registry) SetField(e *Entity, name string, value any) error {
	if e == nil {
		return nil
	}
	e.set(name, value)
	return r.Reindex(e)
}

// UpdateWith hands the live component record to the updater, then reindexes.
// The record must not be retained beyond the call.
func (r *Registry) UpdateWith(e *Entity, update func(components map[string]any)) error {
	if e == nil || update == nil {
		return nil
	}
	update(e.components)
	return r.Reindex(e)
}

// AddComponent sets a component only when currently absent, never
// overwriting, then reindexes.
func (r *Registry) AddComponent(e *Entity, name string, value any) error {
	if e == nil || e.Has(name) {
		return nil
	}
	e.set(name, value)
	return r.Reindex(e)
}

// RemoveComponent deletes a component from the entity. While the entity is
// stored, queries are reconciled first against a projection lacking the
// component, and the live record is mutated only afterwards: queries
// requiring the component evict while it is still present, and queries
// excluding it admit only once it is truly gone.
func (r *Registry) RemoveComponent(e *Entity, name string) error {
	if e == nil || !e.Has(name) {
		return nil
	}
	if !r.store.Has(e) {
		e.delete(name)
		return nil
	}
	err := r.Reindex(e, e.cloneWithout(name))
	e.delete(name)
	return err
}

// ID returns the entity's stable registry-scoped id, allocating one on first
// request. Ids are monotonically increasing, unique for the entity's stored
// lifetime, and never reused. Returns false for entities not in the root
// store.
func (r *Registry) ID(e *Entity) (uint64, bool) {
	if !r.store.Has(e) {
		return 0, false
	}
	if id, ok := r.ids[e]; ok {
		return id, true
	}
	r.nextID++
	r.ids[e] = r.nextID
	r.entities[r.nextID] = e
	return r.nextID, true
}

// EntityFor resolves a stable id back to its entity.
func (r *Registry) EntityFor(id uint64) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}
