package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryDeduplication(t *testing.T) {
	r := NewRegistry(nil, 0)
	q1 := r.Query(Filter{Require: []string{"a", "b"}, Exclude: []string{"c"}})
	q2 := r.Query(Filter{Require: []string{"b", "a", "a"}, Exclude: []string{"c", "c"}})
	require.Same(t, q1, q2)

	q3 := r.Query(Filter{Require: []string{"a"}})
	require.NotSame(t, q1, q3)

	require.Same(t, q3, r.With("a"))
}

func TestMembershipFollowsWantOnAdd(t *testing.T) {
	r := NewRegistry(nil, 0)
	qs := []*Query{
		r.With("health"),
		r.Without("health"),
		r.Query(Filter{Require: []string{"health", "armor"}}),
	}

	e := NewEntity(map[string]any{"health": 10})
	require.NoError(t, r.Add(e))
	for _, q := range qs {
		require.Equal(t, q.Want(e), q.Has(e), "key %s", q.Key())
	}
}

func TestRemoveEvictsEverywhere(t *testing.T) {
	r := NewRegistry(nil, 0)
	qA := r.With("a")
	qNotB := r.Without("b")

	e := NewEntity(map[string]any{"a": 1})
	require.NoError(t, r.Add(e))
	require.True(t, qA.Has(e))
	require.True(t, qNotB.Has(e))

	require.NoError(t, r.Remove(e))
	require.False(t, qA.Has(e))
	require.False(t, qNotB.Has(e))
	require.False(t, r.Has(e))

	// Idempotence: a second remove changes nothing.
	require.NoError(t, r.Remove(e))
	require.Equal(t, 0, r.Len())
}

func TestAddRemoveIdempotenceKeepsQueryMembership(t *testing.T) {
	r := NewRegistry(nil, 0)
	q := r.With("a")
	e := NewEntity(map[string]any{"a": 1})

	require.NoError(t, r.Add(e))
	require.NoError(t, r.Add(e))
	require.Equal(t, 1, r.Len())
	require.Equal(t, 1, q.Len())
}

func TestQueryBeforeAndAfterAdd(t *testing.T) {
	r := NewRegistry(nil, 0)
	q := r.Query(Filter{Require: []string{"health"}})
	require.True(t, q.Active())
	require.Equal(t, 0, q.Len())

	require.NoError(t, r.Add(NewEntity(map[string]any{"health": 10})))
	require.Equal(t, 1, q.Len())
}

func TestWithWithoutScenario(t *testing.T) {
	r := NewRegistry(nil, 0)
	e1 := NewEntity(map[string]any{"a": 1})
	e2 := NewEntity(map[string]any{"a": 1, "b": 2})
	require.NoError(t, r.Add(e1))
	require.NoError(t, r.Add(e2))

	q := r.With("a").WithoutMore("b")
	require.Equal(t, 1, q.Len())
	require.True(t, q.Has(e1))
	require.False(t, q.Has(e2))
}

func TestSetFieldReindexes(t *testing.T) {
	r := NewRegistry(nil, 0)
	alive := r.Predicate(func(e *Entity) bool {
		hp, _ := Component[int](e, "health")
		return hp > 0
	})
	qAlive := r.Query(Filter{Require: []string{"health"}, Predicates: []Predicate{alive}})

	e := NewEntity(map[string]any{"health": 5})
	require.NoError(t, r.Add(e))
	require.True(t, qAlive.Has(e))

	require.NoError(t, r.SetField(e, "health", 0))
	require.False(t, qAlive.Has(e))
	hp, ok := Component[int](e, "health")
	require.True(t, ok)
	require.Equal(t, 0, hp)
}

func TestApplyPatchAndUpdateWith(t *testing.T) {
	r := NewRegistry(nil, 0)
	qBoth := r.With("a", "b")

	e := NewEntity(map[string]any{"a": 1})
	require.NoError(t, r.Add(e))
	require.False(t, qBoth.Has(e))

	require.NoError(t, r.ApplyPatch(e, map[string]any{"b": 2, "c": 3}))
	require.True(t, qBoth.Has(e))

	require.NoError(t, r.UpdateWith(e, func(components map[string]any) {
		delete(components, "b")
	}))
	require.False(t, qBoth.Has(e))
	require.True(t, e.Has("c"))
}

func TestAddComponentNeverOverwrites(t *testing.T) {
	r := NewRegistry(nil, 0)
	e := NewEntity(map[string]any{"a": 1})
	require.NoError(t, r.Add(e))

	require.NoError(t, r.AddComponent(e, "a", 99))
	v, _ := Component[int](e, "a")
	require.Equal(t, 1, v)

	q := r.With("b")
	require.NoError(t, r.AddComponent(e, "b", 2))
	require.True(t, q.Has(e))
}

func TestRemoveComponentSwapsMembershipsConsistently(t *testing.T) {
	r := NewRegistry(nil, 0)
	qA := r.With("A")
	qNotA := r.Without("A")

	e := NewEntity(map[string]any{"A": 1, "B": 2})
	require.NoError(t, r.Add(e))
	require.True(t, qA.Has(e))
	require.False(t, qNotA.Has(e))

	// The eviction notification must run while the component is still on the
	// live record: queries requiring A let go before the field disappears.
	evictions := 0
	qA.Removed().Subscribe(func(victim *Entity) error {
		evictions++
		require.Same(t, e, victim)
		require.True(t, victim.Has("A"))
		require.True(t, qA.Has(victim))
		return nil
	})

	require.NoError(t, r.RemoveComponent(e, "A"))
	require.Equal(t, 1, evictions)
	require.False(t, e.Has("A"))
	require.False(t, qA.Has(e))
	require.True(t, qNotA.Has(e))

	// Removing an absent component is a no-op.
	require.NoError(t, r.RemoveComponent(e, "A"))
	require.Equal(t, 1, evictions)
}

func TestRemoveComponentOnUnstoredEntity(t *testing.T) {
	r := NewRegistry(nil, 0)
	e := NewEntity(map[string]any{"a": 1})
	require.NoError(t, r.RemoveComponent(e, "a"))
	require.False(t, e.Has("a"))
}

func TestStableIDs(t *testing.T) {
	r := NewRegistry(nil, 0)

	// Unstored entities have no id.
	stray := NewEntity(nil)
	_, ok := r.ID(stray)
	require.False(t, ok)

	e1 := NewEntity(map[string]any{"n": 1})
	e2 := NewEntity(map[string]any{"n": 2})
	require.NoError(t, r.Add(e1))
	require.NoError(t, r.Add(e2))

	id1, ok := r.ID(e1)
	require.True(t, ok)
	id2, ok := r.ID(e2)
	require.True(t, ok)
	require.Less(t, id1, id2)

	// Stable for the entity's lifetime.
	again, _ := r.ID(e1)
	require.Equal(t, id1, again)
	back, ok := r.EntityFor(id1)
	require.True(t, ok)
	require.Same(t, e1, back)

	// Erased on removal, in both directions, and never reused.
	require.NoError(t, r.Remove(e1))
	_, ok = r.ID(e1)
	require.False(t, ok)
	_, ok = r.EntityFor(id1)
	require.False(t, ok)

	e3 := NewEntity(map[string]any{"n": 3})
	require.NoError(t, r.Add(e3))
	id3, _ := r.ID(e3)
	require.Greater(t, id3, id2)
}

func TestIDErasedWhileStillObservable(t *testing.T) {
	r := NewRegistry(nil, 0)
	e := NewEntity(nil)
	require.NoError(t, r.Add(e))
	id, _ := r.ID(e)

	// Handlers subscribed after the registry's own still see the entity as a
	// root store member, but its id mapping is already retired.
	r.Store().Removed().Subscribe(func(victim *Entity) error {
		require.True(t, r.Has(victim))
		_, ok := r.EntityFor(id)
		require.False(t, ok)
		return nil
	})
	require.NoError(t, r.Remove(e))
}

func TestReindexForeignEntityIsNoop(t *testing.T) {
	r := NewRegistry(nil, 0)
	q := r.With("a")
	e := NewEntity(map[string]any{"a": 1})

	require.NoError(t, r.Reindex(e))
	require.False(t, q.Has(e))
	require.Equal(t, 0, q.Len())
}
