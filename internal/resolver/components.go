// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/registry"
)

// resolveModels returns one configured model per point of the model's
// parameter grid, in expansion order.
func (r *Resolver) resolveModels(id string) ([]experiment.Model, error) {
	n, err := r.doc.Lookup(config.KindModel, id)
	if err != nil {
		return nil, wrap(config.KindModel, id, err)
	}
	class := n.Attrs.Value("class", "")

	var params config.Attributes
	switch blocks := n.ChildrenOf(config.KindParameters); len(blocks) {
	case 0:
	case 1:
		params = blocks[0].Attrs
	default:
		return nil, wrap(config.KindModel, id, fmt.Errorf("%w: %d %s blocks", config.ErrAmbiguous, len(blocks), config.KindParameters))
	}
	for _, p := range params {
		if len(p.Values()) == 0 {
			return nil, wrap(config.KindModel, id, fmt.Errorf("parameter %q has no values", p.Name))
		}
	}

	grid := Expand(params)
	models := make([]experiment.Model, 0, len(grid))
	for _, point := range grid {
		m, err := registry.Build[experiment.Model](r.reg, class, experiment.ContractModel)
		if err != nil {
			return nil, wrap(config.KindModel, id, err)
		}
		if err := m.Configure(id, point); err != nil {
			return nil, wrap(config.KindModel, id, err)
		}
		models = append(models, m)
	}
	return models, nil
}

// resolveSplit builds, configures and sets up a split. Splits are not
// memoized: every reference gets its own instance.
func (r *Resolver) resolveSplit(ctx context.Context, id string) (experiment.Split, error) {
	n, err := r.doc.Lookup(config.KindSplit, id)
	if err != nil {
		return nil, wrap(config.KindSplit, id, err)
	}

	typ, err := experiment.ParseSplitType(n.Attrs.Value("type", ""))
	if err != nil {
		return nil, wrap(config.KindSplit, id, err)
	}

	containerID := n.Attrs.Value("dataContainer", "")
	if containerID == "" {
		return nil, wrap(config.KindSplit, id, errors.New("dataContainer is required"))
	}
	store, err := r.resolveContainer(containerID)
	if err != nil {
		return nil, wrap(config.KindSplit, id, err)
	}

	s, err := registry.Build[experiment.Split](r.reg, n.Attrs.Value("class", ""), experiment.ContractSplit)
	if err != nil {
		return nil, wrap(config.KindSplit, id, err)
	}
	spec := experiment.SplitSpec{
		ID:     id,
		Type:   typ,
		Store:  store,
		Params: n.Attrs.Without("id", "class", "type", "dataContainer"),
	}
	if err := s.Configure(spec); err != nil {
		return nil, wrap(config.KindSplit, id, err)
	}
	if err := s.Setup(ctx); err != nil {
		return nil, wrap(config.KindSplit, id, err)
	}
	return s, nil
}

func (r *Resolver) resolveContainer(id string) (data.Store, error) {
	if c, ok := r.containers[id]; ok {
		return c, nil
	}

	n, err := r.doc.Lookup(config.KindDataContainer, id)
	if err != nil {
		return nil, wrap(config.KindDataContainer, id, err)
	}
	allowDuplicates, err := config.ParseBool(n.Attrs, "allowDuplicates", false)
	if err != nil {
		return nil, wrap(config.KindDataContainer, id, err)
	}
	crossDomain, err := config.ParseBool(n.Attrs, "crossDomain", false)
	if err != nil {
		return nil, wrap(config.KindDataContainer, id, err)
	}

	readerIDs := nonEmpty(n.Attrs.Values("dataReaders"))
	if len(readerIDs) == 0 {
		return nil, wrap(config.KindDataContainer, id, errors.New("dataReaders is required"))
	}
	readers := make([]data.Reader, 0, len(readerIDs))
	for _, rid := range readerIDs {
		rd, err := r.resolveReader(rid)
		if err != nil {
			return nil, wrap(config.KindDataContainer, id, err)
		}
		readers = append(readers, rd)
	}

	var store data.Store
	if crossDomain {
		def := data.NewDomain(n.Attrs.Value("defaultDomain", data.DefaultDomainID))
		store = data.NewCrossDomainContainer(id, allowDuplicates, def, readers...)
	} else {
		store = data.NewContainer(id, allowDuplicates, readers...)
	}
	r.containers[id] = store
	return store, nil
}

func (r *Resolver) resolveReader(id string) (data.Reader, error) {
	n, err := r.doc.Lookup(config.KindReader, id)
	if err != nil {
		return nil, wrap(config.KindReader, id, err)
	}
	dt, err := data.ParseDataType(n.Attrs.Value("dataType", ""))
	if err != nil {
		return nil, wrap(config.KindReader, id, err)
	}
	rd, err := registry.Build[data.Reader](r.reg, n.Attrs.Value("class", ""), experiment.ContractReader)
	if err != nil {
		return nil, wrap(config.KindReader, id, err)
	}
	spec := data.ReaderSpec{
		ID:       id,
		Path:     n.Attrs.Value("path", ""),
		DataType: dt,
		Slice:    data.ParseSlice(n.Attrs.Value("sliceType", "")),
		Domain:   n.Attrs.Value("domain", ""),
		Params:   n.Attrs.Without("id", "class", "path", "dataType", "sliceType", "domain"),
	}
	if err := rd.Configure(spec); err != nil {
		return nil, wrap(config.KindReader, id, err)
	}
	return rd, nil
}

func (r *Resolver) resolveEvalContext(id string) (*experiment.EvaluationContext, error) {
	if ec, ok := r.contexts[id]; ok {
		return ec, nil
	}
	n, err := r.doc.Lookup(config.KindEvalContext, id)
	if err != nil {
		return nil, wrap(config.KindEvalContext, id, err)
	}

	var evaluators []experiment.Evaluator
	for i, child := range n.ChildrenOf(config.KindEvaluator) {
		class := child.Attrs.Value("class", "")
		ev, err := registry.Build[experiment.Evaluator](r.reg, class, experiment.ContractEvaluator)
		if err != nil {
			return nil, wrap(config.KindEvalContext, id, fmt.Errorf("evaluator %d: %w", i, err))
		}
		if err := ev.Configure(child.Attrs); err != nil {
			return nil, wrap(config.KindEvalContext, id, fmt.Errorf("evaluator %d: %w", i, err))
		}
		evaluators = append(evaluators, ev)
	}

	ec := experiment.NewEvaluationContext(id, evaluators...)
	r.contexts[id] = ec
	return ec, nil
}
