// Package config defines the format-agnostic configuration document for the
// application, along with the Loader interface for reading it from various
// sources.
//
// A Document is an ordered collection of named nodes (experiment, model,
// split, dataContainer, reader, evalContext) plus the singleton experiments
// settings node. Attribute order is preserved exactly as declared, since the
// order of model parameters defines the order of the parameter grid.
// Concrete loaders for HCL and YAML live in separate packages.
package config
