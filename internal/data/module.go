// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package data

import "github.com/vk/recgrid/internal/registry"

// ReaderCSV is the registered name of CSVReader.
const ReaderCSV = "csv"

// Module registers the built-in dataset readers.
type Module struct{}

// Register implements the registry.Module interface.
func (m *Module) Register(r *registry.Registry) {
	r.Register(ReaderCSV, func() any { return NewCSVReader() })
}
