package testutil

import (
	"context"
	"fmt"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/registry"
)

// Type names registered by StubModule.
const (
	TypeFlakyModel    = "flaky"
	TypeEchoEvaluator = "echo"
)

// StubModule registers test-only types: a model that fails training on a
// chosen parameter value and an evaluator that echoes model parameters.
type StubModule struct{}

// Register implements the registry.Module interface.
func (m *StubModule) Register(r *registry.Registry) {
	r.Register(TypeFlakyModel, func() any { return &FlakyModel{} })
	r.Register(TypeEchoEvaluator, func() any { return &EchoEvaluator{} })
}

// FlakyModel accepts any parameters. Train fails when the value of "n"
// equals the value of "failOn".
type FlakyModel struct {
	experiment.BaseModel
}

func (m *FlakyModel) Setup(context.Context, experiment.Split) error { return nil }

func (m *FlakyModel) Train(context.Context, experiment.Split) error {
	n := m.Parameters().Value("n", "")
	if fail, ok := m.Parameters().Get("failOn"); ok && fail == n {
		return fmt.Errorf("model failed for n=%s", n)
	}
	return nil
}

func (m *FlakyModel) Clear() { m.ResetStats() }

// EchoEvaluator emits one row holding every model parameter as a metric.
type EchoEvaluator struct{}

func (e *EchoEvaluator) Configure(config.Attributes) error { return nil }

func (e *EchoEvaluator) Evaluate(_ context.Context, model experiment.Model, _ experiment.Split) ([]experiment.ResultRow, error) {
	var row experiment.ResultRow
	for _, p := range model.Parameters() {
		row.Set("echo_"+p.Name, p.Value)
	}
	return []experiment.ResultRow{row}, nil
}
