// Package split provides the built-in Split implementation.
//
// Feedback partitions the ratings of a data container according to the
// declared split type: static (by the readers' slice tags), random hold-out,
// temporal hold-out, or k-fold cross-validation. A cross-validation split
// materializes one Fold per partition during Setup; the folds share the
// parent's single load of the container.
package split
