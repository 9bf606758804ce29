package scheduler

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/veldt/veldt/internal/core/ecs"
)

// Scheduler owns a collection of systems, computes a dependency-respecting
// initialization order, and drives the per-tick update loop in ascending
// priority order.
//
// Dependency names order initialization only. A dependency naming no
// registered system is a warning (the dependent still initializes, without
// that ordering guarantee) unless the scheduler is strict, in which case it
// is a load-time error. A dependency cycle is always a load-time error.
type Scheduler struct {
	log    *zap.Logger
	strict bool

	systems []System // ascending priority, stable within equal priorities
	byName  map[string]System
	byType  map[reflect.Type]System

	initialized bool
	registry    *ecs.Registry
}

// NewScheduler creates an empty scheduler. strict promotes unmet dependency
// names from warnings to errors.
func NewScheduler(logger *zap.Logger, strict bool) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		log:    logger,
		strict: strict,
		byName: make(map[string]System),
		byType: make(map[reflect.Type]System),
	}
}

// Register assigns the priority, indexes the system by name and concrete
// type, and inserts it into the priority-ordered collection. A system with
// an empty name is named after its concrete type. When the scheduler has
// already initialized, the system is initialized immediately (late
// registration).
func (s *Scheduler) Register(sys System, priority int) error {
	if sys == nil {
		return nil
	}
	sys.SetPriority(priority)
	if sys.Name() == "" {
		sys.SetName(typeName(sys))
	}
	name := sys.Name()
	if _, dup := s.byName[name]; dup {
		return fmt.Errorf("system %q already registered", name)
	}

	s.byName[name] = sys
	s.byType[reflect.TypeOf(sys)] = sys
	s.systems = append(s.systems, sys)
	sort.SliceStable(s.systems, func(i, j int) bool {
		return s.systems[i].Priority() < s.systems[j].Priority()
	})

	if s.initialized && s.registry != nil {
		if err := sys.Init(s.registry); err != nil {
			return fmt.Errorf("init late system %q: %w", name, err)
		}
	}
	return nil
}

func typeName(sys System) string {
	t := reflect.TypeOf(sys)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// dfs colors for InitOrder.
const (
	white = iota // unvisited
	gray         // on the current path
	black        // done
)

// InitOrder returns the systems in dependency-then-priority order: visiting
// a system first visits its not-yet-visited dependencies, then appends the
// system itself. The traversal starts from the priority-sorted collection,
// so independent systems keep their priority order.
func (s *Scheduler) InitOrder() ([]System, error) {
	color := make(map[string]int, len(s.systems))
	order := make([]System, 0, len(s.systems))
	var path []string

	var visit func(sys System) error
	visit = func(sys System) error {
		name := sys.Name()
		color[name] = gray
		path = append(path, name)
		for _, dep := range sys.Dependencies() {
			target, ok := s.byName[dep]
			if !ok {
				if s.strict {
					return fmt.Errorf("system %q depends on unregistered system %q", name, dep)
				}
				s.log.Warn("system dependency not registered",
					zap.String("system", name),
					zap.String("dependency", dep),
				)
				continue
			}
			switch color[dep] {
			case white:
				if err := visit(target); err != nil {
					return err
				}
			case gray:
				return fmt.Errorf("system dependency cycle: %s -> %s",
					strings.Join(path, " -> "), dep)
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		order = append(order, sys)
		return nil
	}

	for _, sys := range s.systems {
		if color[sys.Name()] == white {
			if err := visit(sys); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// InitAll computes the initialization order once and initializes every
// system in it. The first failing Init aborts and propagates; systems are
// not isolated from each other. Calling InitAll twice is a no-op.
func (s *Scheduler) InitAll(r *ecs.Registry) error {
	if s.initialized {
		s.log.Warn("scheduler already initialized")
		return nil
	}
	order, err := s.InitOrder()
	if err != nil {
		return err
	}
	for _, sys := range order {
		if err := sys.Init(r); err != nil {
			return fmt.Errorf("init system %q: %w", sys.Name(), err)
		}
	}
	s.registry = r
	s.initialized = true
	return nil
}

// UpdateAll runs one tick: every enabled system's Update in ascending
// priority order. A failing update aborts the tick and propagates; sibling
// systems are not isolated.
func (s *Scheduler) UpdateAll(dt time.Duration) error {
	for _, sys := range s.systems {
		if !sys.Enabled() {
			continue
		}
		if err := sys.Update(dt); err != nil {
			return fmt.Errorf("update system %q: %w", sys.Name(), err)
		}
	}
	return nil
}

// DestroyAll destroys every system in reverse priority order, then clears
// all indexes.
func (s *Scheduler) DestroyAll() {
	for i := len(s.systems) - 1; i >= 0; i-- {
		s.systems[i].Destroy()
	}
	s.systems = nil
	s.byName = make(map[string]System)
	s.byType = make(map[reflect.Type]System)
	s.initialized = false
	s.registry = nil
}

// Get returns the system registered under the given name.
func (s *Scheduler) Get(name string) (System, bool) {
	sys, ok := s.byName[name]
	return sys, ok
}

// Len returns the number of registered systems.
func (s *Scheduler) Len() int {
	return len(s.systems)
}

// Lookup returns the registered system of the concrete type T.
func Lookup[T System](s *Scheduler) (T, bool) {
	sys, ok := s.byType[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return sys.(T), true
}
