package models

import (
	"fmt"
	"slices"

	"github.com/vk/recgrid/internal/config"
)

// checkParams rejects parameters a model does not understand.
func checkParams(model string, params config.Attributes, known ...string) error {
	for _, p := range params {
		if !slices.Contains(known, p.Name) {
			return fmt.Errorf("model %s: unknown parameter %q (accepted: %v)", model, p.Name, known)
		}
	}
	return nil
}
