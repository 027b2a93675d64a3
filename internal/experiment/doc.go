// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package experiment defines the capability contracts the engine resolves
// from configuration (Model, Split, Evaluator, Experiment) and the
// Descriptor, the fully resolved unit of work the driver executes.
//
// # Core Concepts
//
//   - Descriptor: one executable case. Evaluation descriptors bind exactly one
//     model variant to one split (or sub-split) and an evaluation context.
//     Other descriptors carry raw attributes and are run once.
//
//   - EvaluationContext: an ordered set of evaluators, shared read-only by
//     every descriptor that references it.
//
//   - State: the lifecycle of a descriptor, Created -> Setup -> Running ->
//     Completed or Failed -> Cleared.
package experiment
