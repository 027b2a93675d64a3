// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package data

import (
	"context"
	"time"

	"github.com/vk/recgrid/internal/config"
)

// Sink receives the ratings a Reader produces.
type Sink interface {
	AddRating(userID, itemID string, value float64, ts time.Time, slice Slice) (*Rating, error)
}

// ReaderSpec is the resolved configuration of a reader node.
type ReaderSpec struct {
	ID       string
	Path     string
	DataType DataType
	Slice    Slice
	// Domain is honored by cross-domain containers only.
	Domain string
	Params config.Attributes
}

// Reader loads one dataset into a Sink.
type Reader interface {
	Configure(spec ReaderSpec) error
	Spec() ReaderSpec
	Read(ctx context.Context, sink Sink) error
}
