// Package models provides the built-in recommendation models.
//
// They are intentionally simple baselines that make every configuration
// runnable end to end: a popularity ranker and a biased-mean rating
// predictor. Both record their own pure train and evaluation times.
package models
