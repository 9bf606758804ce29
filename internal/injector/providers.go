// Package injector assembles the runtime object graph with google/wire.
package injector

import (
	"go.uber.org/zap"

	"github.com/veldt/veldt/internal/config"
	"github.com/veldt/veldt/internal/core/ecs"
	"github.com/veldt/veldt/internal/core/observability/log"
	"github.com/veldt/veldt/internal/core/scheduler"
)

// Runtime bundles everything a host needs to drive a simulation.
type Runtime struct {
	Config    *config.Config
	Log       *zap.Logger
	Registry  *ecs.Registry
	Scheduler *scheduler.Scheduler
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return log.New(cfg.LogLevel)
}

func provideRegistry(cfg *config.Config, logger *zap.Logger) *ecs.Registry {
	return ecs.NewRegistry(logger, cfg.Store.InitialCapacity)
}

func provideScheduler(cfg *config.Config, logger *zap.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(logger, cfg.Scheduler.StrictDependencies)
}

func newRuntime(cfg *config.Config, logger *zap.Logger, registry *ecs.Registry, sched *scheduler.Scheduler) *Runtime {
	return &Runtime{
		Config:    cfg,
		Log:       logger,
		Registry:  registry,
		Scheduler: sched,
	}
}
