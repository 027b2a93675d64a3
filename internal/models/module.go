package models

import "github.com/vk/recgrid/internal/registry"

// Module registers the built-in models.
type Module struct{}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.Register(TypePopularity, func() any { return NewPopularity() })
	r.Register(TypeBaseline, func() any { return NewBaseline() })
}
