package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/experiment"
)

// TypePopularity is the registered name of Popularity.
const TypePopularity = "popularity"

// Popularity ranks items by their total interaction weight in the training
// data. It ignores the user, apart from excluding already seen items.
//
// Parameters:
//
//	weighted  sum rating values instead of counting interactions (default false)
//	maxItems  number of items kept in the ranking (default 10000)
type Popularity struct {
	experiment.BaseModel

	weighted bool
	maxItems int

	itemScores map[string]float64
	sortedIDs  []string
}

// NewPopularity creates an unconfigured popularity model.
func NewPopularity() *Popularity {
	return &Popularity{maxItems: 10000}
}

// Configure implements experiment.Model.
func (p *Popularity) Configure(id string, params config.Attributes) error {
	if err := checkParams(TypePopularity, params, "weighted", "maxItems"); err != nil {
		return err
	}
	var err error
	if p.weighted, err = config.ParseBool(params, "weighted", false); err != nil {
		return err
	}
	if p.maxItems, err = config.ParseInt(params, "maxItems", 10000); err != nil {
		return err
	}
	if p.maxItems <= 0 {
		return fmt.Errorf("model %s: maxItems must be positive", TypePopularity)
	}
	p.Bind(id, params)
	return nil
}

// Setup implements experiment.Model.
func (p *Popularity) Setup(context.Context, experiment.Split) error { return nil }

// Train computes popularity scores from the training ratings.
func (p *Popularity) Train(ctx context.Context, split experiment.Split) error {
	start := time.Now()
	defer func() { p.RecordTrain(time.Since(start)) }()

	p.itemScores = make(map[string]float64)
	for _, r := range split.Train() {
		if err := ctx.Err(); err != nil {
			return err
		}
		weight := 1.0
		if p.weighted {
			weight = r.Value
		}
		p.itemScores[r.Item.ID] += weight
	}

	type scoredItem struct {
		id    string
		score float64
	}
	scored := make([]scoredItem, 0, len(p.itemScores))
	for id, score := range p.itemScores {
		scored = append(scored, scoredItem{id, score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})
	if len(scored) > p.maxItems {
		scored = scored[:p.maxItems]
	}

	p.sortedIDs = make([]string, len(scored))
	for i, s := range scored {
		p.sortedIDs[i] = s.id
	}
	return nil
}

// Recommend implements experiment.Ranker.
func (p *Popularity) Recommend(_ string, n int, seen map[string]struct{}) []string {
	start := time.Now()
	defer func() { p.RecordEvaluation(time.Since(start)) }()

	out := make([]string, 0, n)
	for _, id := range p.sortedIDs {
		if len(out) == n {
			break
		}
		if _, ok := seen[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Clear implements experiment.Model.
func (p *Popularity) Clear() {
	p.itemScores = nil
	p.sortedIDs = nil
	p.ResetStats()
}
