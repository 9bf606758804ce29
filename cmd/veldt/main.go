// Command veldt runs a small demonstration host around the entity/component
// runtime: it seeds a handful of entities, registers two systems (one
// depending on the other) and drives the scheduler from a fixed ticker until
// interrupted.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/veldt/veldt/internal/config"
	"github.com/veldt/veldt/internal/core/ecs"
	"github.com/veldt/veldt/internal/core/scheduler"
	"github.com/veldt/veldt/internal/injector"
	"github.com/veldt/veldt/pkg/sequence"
)

// movementSystem advances every entity carrying pos and vel.
type movementSystem struct {
	scheduler.BaseSystem
	moving *ecs.Query
}

func newMovementSystem() *movementSystem {
	return &movementSystem{BaseSystem: scheduler.NewBaseSystem("movement")}
}

func (s *movementSystem) Init(r *ecs.Registry) error {
	if err := s.BaseSystem.Init(r); err != nil {
		return err
	}
	s.moving = r.With("pos", "vel")
	return nil
}

func (s *movementSystem) Update(dt time.Duration) error {
	for e := range s.moving.All() {
		pos, _ := ecs.Component[float64](e, "pos")
		vel, _ := ecs.Component[float64](e, "vel")
		if err := s.Registry().SetField(e, "pos", pos+vel*dt.Seconds()); err != nil {
			return err
		}
	}
	return nil
}

// expirySystem counts down ttl components and removes entities that run out.
// It declares a dependency on movement so its subscriptions initialize after
// the queries movement touches exist.
type expirySystem struct {
	scheduler.BaseSystem
	log    *zap.Logger
	mortal *ecs.Query
}

func newExpirySystem(logger *zap.Logger) *expirySystem {
	return &expirySystem{
		BaseSystem: scheduler.NewBaseSystem("expiry", "movement"),
		log:        logger,
	}
}

func (s *expirySystem) Init(r *ecs.Registry) error {
	if err := s.BaseSystem.Init(r); err != nil {
		return err
	}
	s.mortal = r.With("ttl")
	s.Track(s.mortal.Removed().Subscribe(func(e *ecs.Entity) error {
		if id, ok := r.ID(e); ok {
			s.log.Info("entity expired", zap.Uint64("id", id))
		}
		return nil
	}))
	return nil
}

func (s *expirySystem) Update(dt time.Duration) error {
	for e := range s.mortal.All() {
		ttl, _ := ecs.Component[time.Duration](e, "ttl")
		if err := s.Registry().SetField(e, "ttl", ttl-dt); err != nil {
			return err
		}
	}
	expired := sequence.FromSeq(s.mortal.All()).
		Filter(func(e *ecs.Entity) bool {
			ttl, _ := ecs.Component[time.Duration](e, "ttl")
			return ttl <= 0
		}).
		Collect()
	for _, e := range expired {
		if err := s.Registry().Remove(e); err != nil {
			return err
		}
	}
	return nil
}

func seed(r *ecs.Registry) error {
	for i := 0; i < 5; i++ {
		e := ecs.NewEntity(map[string]any{
			"pos": float64(i),
			"vel": 1.0 + float64(i)/2,
			"ttl": time.Duration(i+1) * 2 * time.Second,
		})
		if err := r.Add(e); err != nil {
			return err
		}
	}
	return nil
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	rt, err := injector.InitializeRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Log.Sync() }()

	if err := rt.Scheduler.Register(newMovementSystem(), 10); err != nil {
		return err
	}
	if err := rt.Scheduler.Register(newExpirySystem(rt.Log), 20); err != nil {
		return err
	}
	if err := rt.Scheduler.InitAll(rt.Registry); err != nil {
		return err
	}
	if err := seed(rt.Registry); err != nil {
		return err
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	rt.Log.Info("veldt host running",
		zap.Duration("tick_interval", cfg.TickInterval.Std()),
		zap.Int("entities", rt.Registry.Len()),
	)

	ticker := time.NewTicker(cfg.TickInterval.Std())
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-stopCh:
			rt.Scheduler.DestroyAll()
			rt.Log.Info("veldt host stopped")
			return nil
		case now := <-ticker.C:
			if err := rt.Scheduler.UpdateAll(now.Sub(last)); err != nil {
				rt.Scheduler.DestroyAll()
				return err
			}
			last = now
		}
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "veldt:", err)
		os.Exit(1)
	}
}
