package evaluators

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/experiment"
)

// TypeRanking is the registered name of Ranking.
const TypeRanking = "ranking"

// Ranking measures top-n recommendation quality. For every test user with
// at least one relevant test rating the model recommends items the user has
// not rated in training; the evaluator emits one row per cutoff with the
// averaged Precision, Recall and NDCG.
//
// Parameters: cutoffs (default "5,10"), minRelevance (default 0).
type Ranking struct {
	cutoffs      []int
	minRelevance float64
}

// NewRanking creates the evaluator with default cutoffs.
func NewRanking() *Ranking {
	return &Ranking{cutoffs: []int{5, 10}}
}

// Configure implements experiment.Evaluator.
func (e *Ranking) Configure(params config.Attributes) error {
	if names := params.Without("id", "class", "cutoffs", "minRelevance").Names(); len(names) > 0 {
		return fmt.Errorf("evaluator %s: unknown parameters %v", TypeRanking, names)
	}
	if v, ok := params.Get("cutoffs"); ok && v != "" {
		e.cutoffs = nil
		for _, s := range params.Values("cutoffs") {
			k, err := strconv.Atoi(s)
			if err != nil || k <= 0 {
				return fmt.Errorf("evaluator %s: invalid cutoff %q", TypeRanking, s)
			}
			e.cutoffs = append(e.cutoffs, k)
		}
	}
	var err error
	e.minRelevance, err = config.ParseFloat(params, "minRelevance", 0)
	return err
}

// Evaluate implements experiment.Evaluator.
func (e *Ranking) Evaluate(ctx context.Context, model experiment.Model, split experiment.Split) ([]experiment.ResultRow, error) {
	ranker, ok := model.(experiment.Ranker)
	if !ok {
		return nil, fmt.Errorf("model '%s' (%T) cannot rank items", model.ID(), model)
	}

	seen := make(map[string]map[string]struct{})
	for _, r := range split.Train() {
		if seen[r.User.ID] == nil {
			seen[r.User.ID] = make(map[string]struct{})
		}
		seen[r.User.ID][r.Item.ID] = struct{}{}
	}

	var users []string
	relevant := make(map[string]map[string]struct{})
	for _, r := range split.Test() {
		if r.Value < e.minRelevance {
			continue
		}
		if relevant[r.User.ID] == nil {
			relevant[r.User.ID] = make(map[string]struct{})
			users = append(users, r.User.ID)
		}
		relevant[r.User.ID][r.Item.ID] = struct{}{}
	}

	maxK := slices.Max(e.cutoffs)
	precision := make([]float64, len(e.cutoffs))
	recall := make([]float64, len(e.cutoffs))
	ndcg := make([]float64, len(e.cutoffs))

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs := ranker.Recommend(u, maxK, seen[u])
		rel := relevant[u]
		for ci, k := range e.cutoffs {
			hits := 0
			dcg := 0.0
			for pos, id := range recs[:min(k, len(recs))] {
				if _, ok := rel[id]; ok {
					hits++
					dcg += 1 / math.Log2(float64(pos)+2)
				}
			}
			idcg := 0.0
			for pos := 0; pos < min(k, len(rel)); pos++ {
				idcg += 1 / math.Log2(float64(pos)+2)
			}
			precision[ci] += float64(hits) / float64(k)
			recall[ci] += float64(hits) / float64(len(rel))
			if idcg > 0 {
				ndcg[ci] += dcg / idcg
			}
		}
	}

	n := float64(max(len(users), 1))
	rows := make([]experiment.ResultRow, len(e.cutoffs))
	for ci, k := range e.cutoffs {
		rows[ci] = experiment.ResultRow{
			{Name: "Cutoff", Value: strconv.Itoa(k)},
			{Name: "Precision", Value: formatFloat(precision[ci] / n)},
			{Name: "Recall", Value: formatFloat(recall[ci] / n)},
			{Name: "NDCG", Value: formatFloat(ndcg[ci] / n)},
			{Name: "EvaluatedUsers", Value: strconv.Itoa(len(users))},
		}
	}
	return rows, nil
}
