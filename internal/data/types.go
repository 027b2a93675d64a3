// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package data

import (
	"fmt"
	"strings"
	"time"
)

// DataType describes what the values of a dataset mean.
type DataType int

const (
	// Other is used when nothing more specific is declared.
	Other DataType = iota
	// Ratings are explicit rating values.
	Ratings
	// PositiveFeedback is implicit feedback; every row counts as value 1.
	PositiveFeedback
)

func (t DataType) String() string {
	switch t {
	case Ratings:
		return "ratings"
	case PositiveFeedback:
		return "posFeedback"
	default:
		return "other"
	}
}

// ParseDataType parses a dataType attribute. Empty means Other.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "other":
		return Other, nil
	case "ratings", "rating":
		return Ratings, nil
	case "posfeedback", "positivefeedback", "implicit":
		return PositiveFeedback, nil
	default:
		return Other, fmt.Errorf("unknown dataType %q", s)
	}
}

// Slice marks the part of a split a rating was declared for.
type Slice int

const (
	// NotApplicable means the reader did not pin the rating to a slice.
	NotApplicable Slice = iota
	Train
	Test
)

func (s Slice) String() string {
	switch s {
	case Train:
		return "train"
	case Test:
		return "test"
	default:
		return "none"
	}
}

// ParseSlice parses a sliceType attribute. Anything other than train or test
// is NotApplicable.
func ParseSlice(s string) Slice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "train":
		return Train
	case "test":
		return Test
	default:
		return NotApplicable
	}
}

// User is a rating author.
type User struct {
	ID      string
	Ratings []*Rating
}

// Item is a rated object.
type Item struct {
	ID      string
	Ratings []*Rating
}

// Domain groups the ratings of one source in a cross-domain container.
type Domain struct {
	ID      string
	Ratings []*Rating
}

// NewDomain creates an empty domain.
func NewDomain(id string) *Domain {
	return &Domain{ID: id}
}

// Rating is a single user/item interaction.
type Rating struct {
	User      *User
	Item      *Item
	Value     float64
	Timestamp time.Time
	Slice     Slice
	// Domain is set by cross-domain containers only.
	Domain *Domain
}

// Stat is one named statistic value.
type Stat struct {
	Name  string
	Value string
}
