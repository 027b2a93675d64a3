package split

import "github.com/vk/recgrid/internal/registry"

// Module registers the built-in splits.
type Module struct{}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.Register(TypeFeedback, func() any { return New() })
}
