// Package results owns the per-group output streams of a run.
//
// For every experiment group G the Aggregator writes three files into the
// results folder:
//
//	G.csv        one row per result row of every completed case
//	G.splits.csv split and container statistics, once per split id
//	G.err.txt    one block per failed case
//
// The package also provides the joinResults experiment, which merges
// several G.csv files into one, and an optional SQLite mirror of every
// metric value written.
package results
