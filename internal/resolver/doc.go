// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package resolver turns a configuration document into the ordered list of
// executable experiment descriptors.
//
// # Resolution
//
// Every experiment node is a group. A group of type "other" yields a single
// descriptor carrying its raw attributes. Any other group names its models,
// splits and evaluation context by id; each model is expanded into its
// parameter grid, each split is set up (which materializes its sub-splits),
// and the group yields one descriptor per (split or sub-split) x model
// variant, splits outermost.
//
// Data containers and evaluation contexts are memoized by id for the
// lifetime of a Resolver, so every descriptor referencing the same id
// shares one instance and a container reads its files at most once.
//
// All failures are reported as *ResolutionError and abort the whole run
// before any case executes.
package resolver
