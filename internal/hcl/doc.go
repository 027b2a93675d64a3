// Package hcl provides the HCL implementation of the config.Loader interface.
//
// Every top-level block becomes a config.Node whose id is the block label.
// Attributes keep their declared order, which matters for parameter grids.
// Scalar values are converted to strings with go-cty; tuple and list values
// keep their elements so that a literal containing commas can be expressed
// as a one element list. Expressions can reference environment variables
// through the env object, e.g. path = "${env.DATA_DIR}/train.csv".
package hcl
