package app

import (
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/evaluators"
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/models"
	"github.com/vk/recgrid/internal/registry"
	"github.com/vk/recgrid/internal/results"
	"github.com/vk/recgrid/internal/split"
)

// coreModules is the definitive list of all modules that are compiled into
// the recgrid binary. The experiment module registers the contracts and
// must come first.
var coreModules = []registry.Module{
	&experiment.Module{},
	&data.Module{},
	&split.Module{},
	&models.Module{},
	&evaluators.Module{},
	&results.Module{},
}

// CoreModules returns a copy of the built-in module list, for callers
// that register additional types on top of it.
func CoreModules() []registry.Module {
	return append([]registry.Module(nil), coreModules...)
}
