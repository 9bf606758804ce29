package ecs

import (
	"iter"

	"github.com/veldt/veldt/internal/core/signal"
)

// Query is a cached, incrementally maintained subset of the registry's root
// store matching a static filter descriptor. Queries are deduplicated by
// canonical key: requesting a structurally identical filter anywhere in the
// program yields the same *Query.
//
// A query has an explicit two-phase lifecycle: it is constructed inert and
// tracks nothing until Activate, which scans the parent store once and then
// keeps membership current through the registry's mutation surface.
// Deactivate halts tracking; membership is stale until the next Activate,
// which discards prior state and rescans.
type Query struct {
	registry  *Registry
	filter    Filter // canonical form
	canonical string
	active    bool
	members   *Store
}

func newQuery(r *Registry, canonical Filter, key string) *Query {
	return &Query{
		registry:  r,
		filter:    canonical,
		canonical: key,
		members:   NewStore(0),
	}
}

// Key returns the canonical key identifying this query's filter.
func (q *Query) Key() string {
	return q.canonical
}

// Active reports whether the query is currently tracking the parent store.
func (q *Query) Active() bool {
	return q.active
}

// Want reports whether the projection satisfies the filter: every required
// component present, no excluded component present, every predicate
// accepting, evaluated in that order with short-circuiting.
func (q *Query) Want(projection *Entity) bool {
	if projection == nil {
		return false
	}
	for _, name := range q.filter.Require {
		if !projection.Has(name) {
			return false
		}
	}
	for _, name := range q.filter.Exclude {
		if projection.Has(name) {
			return false
		}
	}
	for _, p := range q.filter.Predicates {
		fn, ok := q.registry.preds.fn(p)
		if !ok || !fn(projection) {
			return false
		}
	}
	return true
}

// Activate discards any prior membership, scans the parent store admitting
// every qualifying entity, and begins tracking mutations. Activating an
// active query is a no-op.
func (q *Query) Activate() error {
	if q.active {
		return nil
	}
	if err := q.members.Clear(); err != nil {
		return err
	}
	q.active = true
	for e := range q.registry.store.All() {
		if err := q.Evaluate(e, e); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate halts tracking. Membership is left as-is and becomes stale; the
// next Activate rescans from scratch.
func (q *Query) Deactivate() {
	q.active = false
}

// Evaluate reconciles one entity against the filter. The projection argument
// lets the registry test "would this entity qualify if it looked like
// projection" while admitting or evicting the real entity object; in-place
// component removal depends on this to never expose a half-mutated shape.
// No-op while inactive. Errors come from the query's added/removed handlers.
func (q *Query) Evaluate(entity, projection *Entity) error {
	if !q.active {
		return nil
	}
	wants := q.Want(projection)
	switch already := q.members.Has(entity); {
	case wants && !already:
		return q.members.Add(entity)
	case !wants && already:
		return q.members.Remove(entity)
	default:
		return nil
	}
}

// evict drops the entity regardless of the filter; a no-op when absent.
func (q *Query) evict(e *Entity) error {
	return q.members.Remove(e)
}

// Has reports current membership.
func (q *Query) Has(e *Entity) bool {
	return q.members.Has(e)
}

// Len returns the current membership size.
func (q *Query) Len() int {
	return q.members.Len()
}

// All traverses the current members exactly once, in unspecified order.
func (q *Query) All() iter.Seq[*Entity] {
	return q.members.All()
}

// Added returns the signal fired when an entity enters the query.
func (q *Query) Added() *signal.Signal[*Entity] {
	return q.members.Added()
}

// Removed returns the signal fired when an entity leaves the query.
func (q *Query) Removed() *signal.Signal[*Entity] {
	return q.members.Removed()
}

// WithMore derives a query additionally requiring the given components. The
// derived descriptor goes through the registry's deduplicating constructor,
// so equivalent compound filters built from different starting points share
// one cache.
func (q *Query) WithMore(names ...string) *Query {
	return q.registry.Query(Filter{
		Require:    append(append([]string(nil), q.filter.Require...), names...),
		Exclude:    q.filter.Exclude,
		Predicates: q.filter.Predicates,
	})
}

// WithoutMore derives a query additionally excluding the given components.
func (q *Query) WithoutMore(names ...string) *Query {
	return q.registry.Query(Filter{
		Require:    q.filter.Require,
		Exclude:    append(append([]string(nil), q.filter.Exclude...), names...),
		Predicates: q.filter.Predicates,
	})
}

// Where derives a query additionally filtered by a registered predicate.
func (q *Query) Where(p Predicate) *Query {
	return q.registry.Query(Filter{
		Require:    q.filter.Require,
		Exclude:    q.filter.Exclude,
		Predicates: append(append([]Predicate(nil), q.filter.Predicates...), p),
	})
}
