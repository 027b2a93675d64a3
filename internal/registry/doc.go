// Package registry provides the central "glue" for the plugin system.
//
// The Registry maps the type names used in configuration documents (for
// example class = "baseline") to Go factories, and records the capability
// contract each configuration slot expects together with its default
// implementation. Resolution checks that the produced value satisfies the
// contract, so a model slot can never receive an evaluator.
//
// During application startup the registry is populated by modules and then
// validated, so that a default pointing at a missing or incompatible type is
// reported before any configuration is resolved.
package registry
