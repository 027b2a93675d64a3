package evaluators

import "github.com/vk/recgrid/internal/registry"

// Module registers the built-in evaluators.
type Module struct{}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.Register(TypeRMSE, func() any { return NewRMSE() })
	r.Register(TypeRanking, func() any { return NewRanking() })
}
