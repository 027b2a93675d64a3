// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vk/recgrid/internal/config"
)

// CSVReader reads user,item[,rating[,timestamp]] rows from a delimited file.
//
// Recognized parameters: separator (default ","), hasHeader (default false).
// Timestamps are unix seconds or RFC 3339.
type CSVReader struct {
	spec      ReaderSpec
	separator rune
	hasHeader bool
}

// NewCSVReader creates an unconfigured reader.
func NewCSVReader() *CSVReader {
	return &CSVReader{separator: ','}
}

// Configure implements Reader.
func (r *CSVReader) Configure(spec ReaderSpec) error {
	if spec.Path == "" {
		return fmt.Errorf("reader '%s': path is required", spec.ID)
	}
	sep, err := config.ParseSeparator(spec.Params.Value("separator", ","))
	if err != nil {
		return fmt.Errorf("reader '%s': %w", spec.ID, err)
	}
	hasHeader, err := config.ParseBool(spec.Params, "hasHeader", false)
	if err != nil {
		return fmt.Errorf("reader '%s': %w", spec.ID, err)
	}
	r.spec = spec
	r.separator = sep
	r.hasHeader = hasHeader
	return nil
}

// Spec implements Reader.
func (r *CSVReader) Spec() ReaderSpec { return r.spec }

// Read implements Reader.
func (r *CSVReader) Read(ctx context.Context, sink Sink) error {
	f, err := os.Open(r.spec.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = r.separator
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line++
		if line == 1 && r.hasHeader {
			continue
		}
		if err := r.add(sink, record); err != nil {
			return fmt.Errorf("%s:%d: %w", r.spec.Path, line, err)
		}
	}
}

func (r *CSVReader) add(sink Sink, record []string) error {
	if len(record) < 2 {
		return fmt.Errorf("expected at least user and item columns, got %d", len(record))
	}
	value := 1.0
	if r.spec.DataType != PositiveFeedback && len(record) > 2 && record[2] != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return fmt.Errorf("invalid rating %q", record[2])
		}
		value = v
	} else if r.spec.DataType == Ratings {
		return errors.New("rating column is required for dataType ratings")
	}

	var ts time.Time
	if len(record) > 3 && record[3] != "" {
		parsed, err := parseTimestamp(record[3])
		if err != nil {
			return err
		}
		ts = parsed
	}

	_, err := sink.AddRating(strings.TrimSpace(record[0]), strings.TrimSpace(record[1]), value, ts, r.spec.Slice)
	return err
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}
