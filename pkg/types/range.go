// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines the value types shared across go-xref packages:
// text pointers, text ranges, and issue flow locations.
package types

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a pointer or range is malformed or lies
// outside the file it refers to.
var ErrInvalidRange = errors.New("invalid range")

// TextPointer is a position in a file: a 1-based line and a 0-based
// character offset within that line.
type TextPointer struct {
	Line       int `json:"line"`
	LineOffset int `json:"lineOffset"`
}

// NewTextPointer validates and returns a pointer.
func NewTextPointer(line, lineOffset int) (TextPointer, error) {
	if line < 1 {
		return TextPointer{}, fmt.Errorf("%w: line %d must be >= 1", ErrInvalidRange, line)
	}
	if lineOffset < 0 {
		return TextPointer{}, fmt.Errorf("%w: line offset %d must be >= 0", ErrInvalidRange, lineOffset)
	}
	return TextPointer{Line: line, LineOffset: lineOffset}, nil
}

// Compare returns -1, 0 or +1 ordering p before, equal to, or after o.
func (p TextPointer) Compare(o TextPointer) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.LineOffset < o.LineOffset:
		return -1
	case p.LineOffset > o.LineOffset:
		return 1
	default:
		return 0
	}
}

func (p TextPointer) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.LineOffset)
}

// TextRange is a half-open span [Start, End) within one file. It is a pure
// value: two ranges are equal when their pointers are equal.
type TextRange struct {
	Start TextPointer `json:"start"`
	End   TextPointer `json:"end"`
}

// NewTextRange validates and returns the range
// (startLine:startOffset)-(endLine:endOffset).
func NewTextRange(startLine, startOffset, endLine, endOffset int) (TextRange, error) {
	start, err := NewTextPointer(startLine, startOffset)
	if err != nil {
		return TextRange{}, err
	}
	end, err := NewTextPointer(endLine, endOffset)
	if err != nil {
		return TextRange{}, err
	}
	return RangeBetween(start, end)
}

// RangeBetween returns the range from start to end. It fails when end
// precedes start.
func RangeBetween(start, end TextPointer) (TextRange, error) {
	if end.Compare(start) < 0 {
		return TextRange{}, fmt.Errorf("%w: end %s precedes start %s", ErrInvalidRange, end, start)
	}
	return TextRange{Start: start, End: end}, nil
}

// MustTextRange is NewTextRange for literals known to be valid. It panics on
// an invalid range.
func MustTextRange(startLine, startOffset, endLine, endOffset int) TextRange {
	r, err := NewTextRange(startLine, startOffset, endLine, endOffset)
	if err != nil {
		panic(err)
	}
	return r
}

// Overlaps reports whether r and o share at least one position. Adjacent
// ranges (one ends where the other starts) do not overlap.
func (r TextRange) Overlaps(o TextRange) bool {
	return r.Start.Compare(o.End) < 0 && o.Start.Compare(r.End) < 0
}

// Contains reports whether p lies within [Start, End).
func (r TextRange) Contains(p TextPointer) bool {
	return r.Start.Compare(p) <= 0 && p.Compare(r.End) < 0
}

// IsEmpty reports whether the range covers no characters.
func (r TextRange) IsEmpty() bool {
	return r.Start == r.End
}

// Compare orders ranges by start pointer, then by end pointer.
func (r TextRange) Compare(o TextRange) int {
	if c := r.Start.Compare(o.Start); c != 0 {
		return c
	}
	return r.End.Compare(o.End)
}

// Less reports whether r sorts before o.
func (r TextRange) Less(o TextRange) bool {
	return r.Compare(o) < 0
}

func (r TextRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}
