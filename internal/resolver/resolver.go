// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package resolver

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/ctxlog"
	"github.com/vk/recgrid/internal/data"
	"github.com/vk/recgrid/internal/experiment"
	"github.com/vk/recgrid/internal/registry"
)

// Group types.
const (
	GroupEvaluation = "evaluation"
	GroupOther      = "other"
)

// Resolver resolves one document against one registry. It memoizes data
// containers and evaluation contexts and is not safe for concurrent use.
type Resolver struct {
	doc *config.Document
	reg *registry.Registry

	settings   *config.Settings
	containers map[string]data.Store
	contexts   map[string]*experiment.EvaluationContext
}

// New creates a resolver.
func New(doc *config.Document, reg *registry.Registry) *Resolver {
	return &Resolver{
		doc:        doc,
		reg:        reg,
		containers: make(map[string]data.Store),
		contexts:   make(map[string]*experiment.EvaluationContext),
	}
}

// Settings parses the experiments node once.
func (r *Resolver) Settings() (*config.Settings, error) {
	if r.settings != nil {
		return r.settings, nil
	}
	n, err := r.doc.Settings()
	if err != nil {
		return nil, wrap(config.KindSettings, "", err)
	}
	s, err := config.ParseSettings(n)
	if err != nil {
		return nil, wrap(config.KindSettings, "", err)
	}
	r.settings = s
	return s, nil
}

// Groups returns the experiment nodes to run in document order, restricted
// to the settings' run list when one is given.
func (r *Resolver) Groups() ([]*config.Node, error) {
	s, err := r.Settings()
	if err != nil {
		return nil, err
	}

	all := r.doc.Nodes(config.KindExperiment)
	byID := make(map[string]*config.Node, len(all))
	for _, n := range all {
		if prev, ok := byID[n.ID]; ok {
			return nil, wrap(config.KindExperiment, n.ID, fmt.Errorf("%w: defined at %s and %s", config.ErrAmbiguous, prev.Source, n.Source))
		}
		byID[n.ID] = n
	}
	if len(s.Run) == 0 {
		return all, nil
	}

	selected := make(map[string]bool, len(s.Run))
	for _, id := range s.Run {
		if _, ok := byID[id]; !ok {
			return nil, wrap(config.KindExperiment, id, fmt.Errorf("%w: listed in run", config.ErrNotFound))
		}
		selected[id] = true
	}
	var groups []*config.Node
	for _, n := range all {
		if selected[n.ID] {
			groups = append(groups, n)
		}
	}
	return groups, nil
}

// Descriptors lazily produces every descriptor of every group. The sequence
// stops after the first error, which is yielded with a nil descriptor.
func (r *Resolver) Descriptors(ctx context.Context) iter.Seq2[*experiment.Descriptor, error] {
	return func(yield func(*experiment.Descriptor, error) bool) {
		groups, err := r.Groups()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, g := range groups {
			if !r.describeGroup(ctx, g, yield) {
				return
			}
		}
	}
}

// Describe drains Descriptors into an ordered slice, failing on the first
// resolution error.
func (r *Resolver) Describe(ctx context.Context) ([]*experiment.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)
	var out []*experiment.Descriptor
	for d, err := range r.Descriptors(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	logger.Debug("Configuration resolved.", "cases", len(out), "containers", len(r.containers), "eval_contexts", len(r.contexts))
	return out, nil
}

func (r *Resolver) describeGroup(ctx context.Context, g *config.Node, yield func(*experiment.Descriptor, error) bool) bool {
	fail := func(err error) bool {
		yield(nil, err)
		return false
	}
	logger := ctxlog.FromContext(ctx).With("group", g.ID)

	class := g.Attrs.Value("class", "")
	newExperiment := func() (experiment.Experiment, error) {
		exp, err := registry.Build[experiment.Experiment](r.reg, class, experiment.ContractExperiment)
		return exp, wrap(config.KindExperiment, g.ID, err)
	}

	switch typ := strings.ToLower(g.Attrs.Value("type", GroupEvaluation)); typ {
	case GroupOther:
		if class == "" {
			return fail(wrap(config.KindExperiment, g.ID, errors.New("other experiment needs a class")))
		}
		if strings.EqualFold(class, experiment.TypeEvaluation) {
			return fail(wrap(config.KindExperiment, g.ID, fmt.Errorf("class %q cannot run as an other experiment", class)))
		}
		exp, err := newExperiment()
		if err != nil {
			return fail(err)
		}
		logger.Debug("Resolved other experiment.", "class", class)
		return yield(&experiment.Descriptor{
			GroupID:    g.ID,
			Kind:       experiment.KindOther,
			Class:      class,
			Experiment: exp,
			Params:     g.Attrs,
		}, nil)
	case GroupEvaluation:
	default:
		return fail(wrap(config.KindExperiment, g.ID, fmt.Errorf("unknown experiment type %q", typ)))
	}

	modelIDs := nonEmpty(g.Attrs.Values("models"))
	splitIDs := nonEmpty(g.Attrs.Values("splits"))
	if len(modelIDs) == 0 {
		return fail(wrap(config.KindExperiment, g.ID, errors.New("no models given")))
	}
	if len(splitIDs) == 0 {
		return fail(wrap(config.KindExperiment, g.ID, errors.New("no splits given")))
	}

	var models []experiment.Model
	for _, id := range modelIDs {
		variants, err := r.resolveModels(id)
		if err != nil {
			return fail(wrap(config.KindExperiment, g.ID, err))
		}
		models = append(models, variants...)
	}

	var ec *experiment.EvaluationContext
	if id := g.Attrs.Value("evalContext", ""); id != "" {
		var err error
		if ec, err = r.resolveEvalContext(id); err != nil {
			return fail(wrap(config.KindExperiment, g.ID, err))
		}
	}

	for _, id := range splitIDs {
		s, err := r.resolveSplit(ctx, id)
		if err != nil {
			return fail(wrap(config.KindExperiment, g.ID, err))
		}
		targets := s.SubSplits()
		if len(targets) == 0 {
			targets = []experiment.Split{s}
		}
		logger.Debug("Expanding split.", "split", id, "targets", len(targets), "models", len(models))

		for _, target := range targets {
			for _, m := range models {
				exp, err := newExperiment()
				if err != nil {
					return fail(err)
				}
				d := &experiment.Descriptor{
					GroupID:     g.ID,
					Kind:        experiment.KindEvaluation,
					Class:       class,
					Experiment:  exp,
					Model:       m,
					Split:       target,
					EvalContext: ec,
				}
				if !yield(d, nil) {
					return false
				}
			}
		}
	}
	return true
}

func nonEmpty(ids []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// JoinDescriptor builds the terminal case merging the per-group result
// files in folder into the settings' joint results file. File names are
// relative to folder, the case workspace. It returns nil when no joint
// file is configured.
func (r *Resolver) JoinDescriptor(groups []string, folder string) (*experiment.Descriptor, error) {
	s, err := r.Settings()
	if err != nil {
		return nil, err
	}
	if s.JointResults == "" {
		return nil, nil
	}
	exp, err := registry.Build[experiment.Experiment](r.reg, experiment.TypeJoinResults, experiment.ContractExperiment)
	if err != nil {
		return nil, wrap(config.KindSettings, "jointResults", err)
	}

	sources := make([]string, len(groups))
	for i, g := range groups {
		sources[i] = g + ".csv"
	}
	params := config.Attributes{
		{Name: "sourceFiles", Value: strings.Join(sources, ","), List: sources},
		{Name: "outputFile", Value: s.JointResults},
		{Name: "delimiter", Value: string(s.Separator)},
	}
	return &experiment.Descriptor{
		GroupID:    strings.TrimSuffix(s.JointResults, filepath.Ext(s.JointResults)),
		Kind:       experiment.KindOther,
		Class:      experiment.TypeJoinResults,
		Experiment: exp,
		Params:     params,
		Workspace:  folder,
	}, nil
}
