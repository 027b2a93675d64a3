package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vk/recgrid/internal/config"
	"github.com/vk/recgrid/internal/experiment"
)

// TypeBaseline is the registered name of Baseline.
const TypeBaseline = "baseline"

// Baseline predicts ratings as the global mean plus damped user and item
// biases:
//
//	r(u,i) = mu + b_u + b_i
//	b_i    = sum(r - mu) / (regItem + n_i)
//	b_u    = sum(r - mu - b_i) / (regUser + n_u)
//
// Parameters: regUser and regItem (default 10 each), minRating and
// maxRating clamp predictions when set.
type Baseline struct {
	experiment.BaseModel

	regUser, regItem     float64
	minRating, maxRating float64

	mu        float64
	userBias  map[string]float64
	itemBias  map[string]float64
	itemOrder []string
	trained   bool
}

// NewBaseline creates an unconfigured baseline model.
func NewBaseline() *Baseline {
	return &Baseline{regUser: 10, regItem: 10}
}

// Configure implements experiment.Model.
func (b *Baseline) Configure(id string, params config.Attributes) error {
	if err := checkParams(TypeBaseline, params, "regUser", "regItem", "minRating", "maxRating"); err != nil {
		return err
	}
	var err error
	if b.regUser, err = config.ParseFloat(params, "regUser", 10); err != nil {
		return err
	}
	if b.regItem, err = config.ParseFloat(params, "regItem", 10); err != nil {
		return err
	}
	if b.regUser < 0 || b.regItem < 0 {
		return fmt.Errorf("model %s: regularization must not be negative", TypeBaseline)
	}
	if b.minRating, err = config.ParseFloat(params, "minRating", 0); err != nil {
		return err
	}
	if b.maxRating, err = config.ParseFloat(params, "maxRating", 0); err != nil {
		return err
	}
	b.Bind(id, params)
	return nil
}

// Setup implements experiment.Model.
func (b *Baseline) Setup(context.Context, experiment.Split) error { return nil }

// Train implements experiment.Model.
func (b *Baseline) Train(ctx context.Context, split experiment.Split) error {
	train := split.Train()
	if len(train) == 0 {
		return errors.New("no training ratings")
	}
	start := time.Now()
	defer func() { b.RecordTrain(time.Since(start)) }()

	var sum float64
	for _, r := range train {
		sum += r.Value
	}
	b.mu = sum / float64(len(train))

	itemSum := make(map[string]float64)
	itemCount := make(map[string]int)
	b.itemOrder = b.itemOrder[:0]
	for _, r := range train {
		if _, ok := itemCount[r.Item.ID]; !ok {
			b.itemOrder = append(b.itemOrder, r.Item.ID)
		}
		itemSum[r.Item.ID] += r.Value - b.mu
		itemCount[r.Item.ID]++
	}
	b.itemBias = make(map[string]float64, len(itemSum))
	for id, s := range itemSum {
		b.itemBias[id] = s / (b.regItem + float64(itemCount[id]))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	userSum := make(map[string]float64)
	userCount := make(map[string]int)
	for _, r := range train {
		userSum[r.User.ID] += r.Value - b.mu - b.itemBias[r.Item.ID]
		userCount[r.User.ID]++
	}
	b.userBias = make(map[string]float64, len(userSum))
	for id, s := range userSum {
		b.userBias[id] = s / (b.regUser + float64(userCount[id]))
	}

	b.trained = true
	return nil
}

// PredictRating implements experiment.RatingPredictor. Unknown users and
// items contribute no bias.
func (b *Baseline) PredictRating(userID, itemID string) (float64, bool) {
	if !b.trained {
		return 0, false
	}
	start := time.Now()
	defer func() { b.RecordEvaluation(time.Since(start)) }()
	return b.predict(userID, itemID), true
}

func (b *Baseline) predict(userID, itemID string) float64 {
	p := b.mu + b.userBias[userID] + b.itemBias[itemID]
	if b.maxRating > b.minRating {
		p = min(max(p, b.minRating), b.maxRating)
	}
	return p
}

// Recommend implements experiment.Ranker by ranking the training items by
// predicted rating.
func (b *Baseline) Recommend(userID string, n int, seen map[string]struct{}) []string {
	if !b.trained {
		return nil
	}
	start := time.Now()
	defer func() { b.RecordEvaluation(time.Since(start)) }()

	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, len(b.itemOrder))
	for _, id := range b.itemOrder {
		if _, ok := seen[id]; ok {
			continue
		}
		candidates = append(candidates, scored{id, b.predict(userID, id)})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}

// Clear implements experiment.Model.
func (b *Baseline) Clear() {
	b.userBias, b.itemBias, b.itemOrder = nil, nil, nil
	b.trained = false
	b.ResetStats()
}
