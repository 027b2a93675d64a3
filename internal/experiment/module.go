package experiment

import (
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/registry"
)

// Registered type names of the built-in defaults.
const (
	TypeEvaluation   = "evaluation"
	TypeJoinResults  = "joinResults"
	DefaultModel     = "baseline"
	DefaultSplit     = "feedback"
	DefaultReader    = data.ReaderCSV
	DefaultEvaluator = "rmse"
)

// Module registers the contracts and the default evaluation experiment.
type Module struct{}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterContract(ContractModel, registry.InterfaceOf[Model](), DefaultModel)
	r.RegisterContract(ContractSplit, registry.InterfaceOf[Split](), DefaultSplit)
	r.RegisterContract(ContractReader, registry.InterfaceOf[data.Reader](), DefaultReader)
	r.RegisterContract(ContractEvaluator, registry.InterfaceOf[Evaluator](), DefaultEvaluator)
	r.RegisterContract(ContractExperiment, registry.InterfaceOf[Experiment](), TypeEvaluation)

	r.Register(TypeEvaluation, func() any { return Evaluation{} })
}
