package results

import (
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/registry"
)

// Module registers the joinResults experiment.
type Module struct{}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.Register(experiment.TypeJoinResults, func() any { return JoinResults{} })
}
