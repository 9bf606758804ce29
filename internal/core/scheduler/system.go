// Package scheduler owns the long-lived systems of a simulation: a
// dependency-respecting initialization order and a priority-ordered,
// strictly sequential per-tick update loop.
package scheduler

import (
	"time"

	"github.com/veldt/veldt/internal/core/ecs"
)

// System is one named, prioritized unit of per-tick logic. Lower priority
// runs earlier. Declared dependency names order initialization only, never
// per-tick updates. Embed BaseSystem and implement Update; override Init to
// subscribe to registry signals (call BaseSystem.Init first, and Track each
// unsubscribe function so Destroy tears them down).
type System interface {
	Name() string
	SetName(string)
	Priority() int
	SetPriority(int)
	Dependencies() []string

	Init(*ecs.Registry) error
	Update(dt time.Duration) error
	Destroy()

	Enabled() bool
	Enable()
	Disable()
}

// BaseSystem carries the bookkeeping every system shares. The zero value is
// usable but disabled and unnamed; prefer NewBaseSystem.
type BaseSystem struct {
	name      string
	priority  int
	deps      []string
	enabled   bool
	registry  *ecs.Registry
	teardowns []func()
}

// NewBaseSystem creates an enabled base with the given name and dependency
// names. An empty name is filled in from the concrete type at registration.
func NewBaseSystem(name string, deps ...string) BaseSystem {
	return BaseSystem{name: name, deps: deps, enabled: true}
}

func (b *BaseSystem) Name() string           { return b.name }
func (b *BaseSystem) SetName(name string)    { b.name = name }
func (b *BaseSystem) Priority() int          { return b.priority }
func (b *BaseSystem) SetPriority(p int)      { b.priority = p }
func (b *BaseSystem) Dependencies() []string { return b.deps }

// Init stores the registry reference. Overriding systems call this first,
// then set up their subscriptions.
func (b *BaseSystem) Init(r *ecs.Registry) error {
	b.registry = r
	return nil
}

// Registry returns the registry handed to Init, or nil before that.
func (b *BaseSystem) Registry() *ecs.Registry {
	return b.registry
}

// Track records a subscription teardown to run on Destroy, in reverse order.
func (b *BaseSystem) Track(unsubscribe func()) {
	if unsubscribe != nil {
		b.teardowns = append(b.teardowns, unsubscribe)
	}
}

// Destroy runs every tracked teardown in reverse accumulation order.
func (b *BaseSystem) Destroy() {
	for i := len(b.teardowns) - 1; i >= 0; i-- {
		b.teardowns[i]()
	}
	b.teardowns = nil
}

func (b *BaseSystem) Enabled() bool { return b.enabled }
func (b *BaseSystem) Enable()       { b.enabled = true }
func (b *BaseSystem) Disable()      { b.enabled = false }
