package ecs

import (
	"sort"
	"strconv"
	"strings"
)

// Predicate is an opaque, comparable handle to a filter function registered
// with a Registry. Handles replace function identity in canonical keys:
// register a function once with Registry.Predicate and reuse the handle
// everywhere a structurally identical filter should share one query cache.
// The zero Predicate is invalid and never matches.
type Predicate struct {
	id uint32
}

// Valid reports whether the handle was issued by a registry.
func (p Predicate) Valid() bool {
	return p.id != 0
}

// predicateArena owns the registered filter functions. Indexes are stable for
// the arena's lifetime; ids start at 1 so the zero handle stays invalid.
type predicateArena struct {
	fns []func(*Entity) bool
}

func (a *predicateArena) register(fn func(*Entity) bool) Predicate {
	a.fns = append(a.fns, fn)
	return Predicate{id: uint32(len(a.fns))}
}

func (a *predicateArena) fn(p Predicate) (func(*Entity) bool, bool) {
	if p.id == 0 || int(p.id) > len(a.fns) {
		return nil, false
	}
	return a.fns[p.id-1], true
}

// Filter is a static filter descriptor: component names an entity must carry,
// names it must not, and predicate handles it must satisfy. An empty Filter
// matches every entity.
type Filter struct {
	Require    []string
	Exclude    []string
	Predicates []Predicate
}

// canonicalize returns an equivalent descriptor with Require and Exclude
// sorted and deduplicated and Predicates deduplicated by handle with their
// relative order preserved. Canonical descriptors with equal keys describe
// identical filters.
func (f Filter) canonicalize() Filter {
	out := Filter{
		Require: canonicalNames(f.Require),
		Exclude: canonicalNames(f.Exclude),
	}
	seen := make(map[Predicate]struct{}, len(f.Predicates))
	for _, p := range f.Predicates {
		if !p.Valid() {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out.Predicates = append(out.Predicates, p)
	}
	return out
}

func canonicalNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	n := 0
	for i, name := range out {
		if i == 0 || name != out[i-1] {
			out[n] = name
			n++
		}
	}
	return out[:n]
}

// key builds the deterministic canonical key of an already canonicalized
// descriptor. Predicate handles stand in for the functions themselves.
func (f Filter) key() string {
	var b strings.Builder
	b.WriteString("req=")
	b.WriteString(strings.Join(f.Require, ","))
	b.WriteString(";exc=")
	b.WriteString(strings.Join(f.Exclude, ","))
	b.WriteString(";pred=")
	for i, p := range f.Predicates {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(p.id), 10))
	}
	return b.String()
}
