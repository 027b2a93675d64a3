// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package resolver

import "fmt"

// ResolutionError reports a configuration node that could not be resolved.
type ResolutionError struct {
	Kind string
	ID   string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("resolving %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("resolving %s '%s': %v", e.Kind, e.ID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func wrap(kind, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResolutionError{Kind: kind, ID: id, Err: err}
}
