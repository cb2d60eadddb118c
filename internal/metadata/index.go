// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package metadata

import (
	"fmt"
	"sort"

	"github.com/petar-djukic/go-xref/pkg/types"
)

// LineIndex maps between (line, line offset) pointers and absolute character
// offsets for one scanned file. It is immutable once built.
type LineIndex struct {
	starts     []int
	ends       []int
	byteStarts []int
	last       int
}

// NewLineIndex builds an index from explicit line boundaries. starts and ends
// must have the same non-zero length, starts[0] must be 0, and every line must
// end before the next one starts.
func NewLineIndex(starts, ends []int, lastValidOffset int) (*LineIndex, error) {
	if len(starts) == 0 || len(starts) != len(ends) {
		return nil, fmt.Errorf("line index needs matching non-empty start/end offsets, got %d/%d", len(starts), len(ends))
	}
	if starts[0] != 0 {
		return nil, fmt.Errorf("first line must start at offset 0, got %d", starts[0])
	}
	for i := range starts {
		if ends[i] < starts[i] {
			return nil, fmt.Errorf("line %d ends (%d) before it starts (%d)", i+1, ends[i], starts[i])
		}
		if i+1 < len(starts) && starts[i+1] <= ends[i] {
			return nil, fmt.Errorf("line %d starts (%d) before line %d ends (%d)", i+2, starts[i+1], i+1, ends[i])
		}
	}
	if lastValidOffset < ends[len(ends)-1] {
		return nil, fmt.Errorf("last valid offset %d precedes end of last line %d", lastValidOffset, ends[len(ends)-1])
	}
	return &LineIndex{
		starts: append([]int(nil), starts...),
		ends:   append([]int(nil), ends...),
		last:   lastValidOffset,
	}, nil
}

// Lines returns the number of physical lines (at least 1).
func (x *LineIndex) Lines() int {
	return len(x.starts)
}

// LastValidOffset returns the total number of characters in the file.
func (x *LineIndex) LastValidOffset() int {
	return x.last
}

// StartOffsets returns a copy of the per-line start offsets.
func (x *LineIndex) StartOffsets() []int {
	return append([]int(nil), x.starts...)
}

// EndOffsets returns a copy of the per-line end offsets (terminator excluded).
func (x *LineIndex) EndOffsets() []int {
	return append([]int(nil), x.ends...)
}

// LineLength returns the number of characters on line, terminator excluded.
func (x *LineIndex) LineLength(line int) (int, error) {
	if err := x.checkLine(line); err != nil {
		return 0, err
	}
	return x.ends[line-1] - x.starts[line-1], nil
}

// OffsetOf converts a pointer to an absolute offset. A pointer may address
// any character of its line, the line end, or a character of the line's
// terminator.
func (x *LineIndex) OffsetOf(line, lineOffset int) (int, error) {
	if err := x.checkLine(line); err != nil {
		return 0, err
	}
	if lineOffset < 0 {
		return 0, fmt.Errorf("%w: line offset %d must be >= 0", types.ErrInvalidRange, lineOffset)
	}
	offset := x.starts[line-1] + lineOffset
	if offset > x.limit(line-1) {
		return 0, fmt.Errorf("%w: offset %d is not valid for line %d (length %d)",
			types.ErrInvalidRange, lineOffset, line, x.ends[line-1]-x.starts[line-1])
	}
	return offset, nil
}

// LineContaining returns the 1-based line holding the absolute offset.
func (x *LineIndex) LineContaining(offset int) (int, error) {
	if offset < 0 || offset > x.last {
		return 0, fmt.Errorf("%w: offset %d outside [0, %d]", types.ErrInvalidRange, offset, x.last)
	}
	idx := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset })
	return idx, nil
}

// PointerAt converts an absolute offset to a pointer.
func (x *LineIndex) PointerAt(offset int) (types.TextPointer, error) {
	line, err := x.LineContaining(offset)
	if err != nil {
		return types.TextPointer{}, err
	}
	return types.TextPointer{Line: line, LineOffset: offset - x.starts[line-1]}, nil
}

// RangeOf builds the range covering absolute offsets [start, end).
func (x *LineIndex) RangeOf(start, end int) (types.TextRange, error) {
	if end < start {
		return types.TextRange{}, fmt.Errorf("%w: end offset %d precedes start offset %d", types.ErrInvalidRange, end, start)
	}
	sp, err := x.PointerAt(start)
	if err != nil {
		return types.TextRange{}, err
	}
	ep, err := x.PointerAt(end)
	if err != nil {
		return types.TextRange{}, err
	}
	return types.TextRange{Start: sp, End: ep}, nil
}

// Offsets returns the absolute offsets of r. It fails when r does not fit
// in this file.
func (x *LineIndex) Offsets(r types.TextRange) (start, end int, err error) {
	if start, err = x.OffsetOf(r.Start.Line, r.Start.LineOffset); err != nil {
		return 0, 0, err
	}
	if end, err = x.OffsetOf(r.End.Line, r.End.LineOffset); err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: %s ends before it starts", types.ErrInvalidRange, r)
	}
	return start, end, nil
}

// Validate checks that r lies within this file.
func (x *LineIndex) Validate(r types.TextRange) error {
	_, _, err := x.Offsets(r)
	return err
}

// limit returns the last absolute offset addressable from line index i: the
// last terminator character, or the line end for the final line.
func (x *LineIndex) limit(i int) int {
	if i == len(x.starts)-1 {
		return x.ends[i]
	}
	return x.starts[i+1] - 1
}

func (x *LineIndex) checkLine(line int) error {
	if line < 1 || line > len(x.starts) {
		return fmt.Errorf("%w: line %d is out of range [1, %d]", types.ErrInvalidRange, line, len(x.starts))
	}
	return nil
}
