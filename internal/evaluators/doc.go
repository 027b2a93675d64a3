// Package evaluators provides the built-in evaluators: rating prediction
// error (rmse) and top-n ranking quality (ranking).
package evaluators
