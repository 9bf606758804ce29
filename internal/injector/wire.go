//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/veldt/veldt/internal/config"
)

// InitializeRuntime builds the full runtime graph from a validated config.
func InitializeRuntime(cfg *config.Config) (*Runtime, error) {
	wire.Build(provideLogger, provideRegistry, provideScheduler, newRuntime)
	return nil, nil
}
