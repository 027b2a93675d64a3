// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package resolver

import "github.com/vk/recgrid/internal/config"

// Expand returns the Cartesian product of the parameters' value lists, one
// attribute set per combination. Parameters keep their declared order in
// every combination and the last declared parameter varies fastest. No
// parameters yield a single empty combination.
func Expand(params config.Attributes) []config.Attributes {
	combos := []config.Attributes{{}}
	for _, p := range params {
		values := p.Values()
		next := make([]config.Attributes, 0, len(combos)*len(values))
		for _, c := range combos {
			for _, v := range values {
				combo := make(config.Attributes, len(c), len(c)+1)
				copy(combo, c)
				next = append(next, append(combo, config.Attribute{Name: p.Name, Value: v}))
			}
		}
		combos = next
	}
	return combos
}

// GridSize returns the number of combinations Expand would produce.
func GridSize(params config.Attributes) int {
	n := 1
	for _, p := range params {
		n *= len(p.Values())
	}
	return n
}
