// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metadata scans decoded file content once and produces the line
// coordinate system (line index), line counts, and content hashes that the
// rest of go-xref works against.
package metadata

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrFileTooLarge is returned when a character offset no longer fits in a
// signed 32-bit integer. Range arithmetic downstream relies on that bound.
var ErrFileTooLarge = errors.New("file too large")

// maxOffset is the largest character offset a scan may reach.
var maxOffset = math.MaxInt32

// Cursor is the scanner position handed to handlers. Offset and ByteOffset
// count what has been consumed so far, including the current character.
type Cursor struct {
	Offset     int // Characters consumed
	ByteOffset int // Bytes consumed
	Line       int // 1-based line being scanned
}

// CharHandler receives every character of a scan.
//
// OnAny runs for every character, line terminators included. OnNonBreak runs
// for characters that are not part of a terminator. OnBreak runs once per
// terminator (\n, \r\n or a lone \r) and closes the current line. OnEOF runs
// exactly once after the last character and closes the final line.
type CharHandler interface {
	OnAny(c rune, cur Cursor)
	OnNonBreak(c rune, cur Cursor)
	OnBreak(cur Cursor)
	OnEOF(cur Cursor)
}

// Scan feeds every character read from rr to h in a single forward pass and
// returns the final cursor. It stops with ErrFileTooLarge when the offset
// would exceed the 32-bit bound.
//
// A lone \r is only known to be a terminator once the next character is
// read, so its break is emitted just before that character (or at EOF).
func Scan[H CharHandler](rr io.RuneReader, h H) (Cursor, error) {
	cur := Cursor{Line: 1}
	afterCR := false

	for {
		c, size, err := rr.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return cur, fmt.Errorf("reading content: %w", err)
		}
		if cur.Offset >= maxOffset {
			return cur, fmt.Errorf("%w: offset %d exceeds %d", ErrFileTooLarge, int64(cur.Offset)+1, maxOffset)
		}

		if afterCR && c != '\n' {
			h.OnBreak(cur)
			cur.Line++
		}
		afterCR = false

		cur.Offset++
		cur.ByteOffset += size
		h.OnAny(c, cur)

		switch c {
		case '\n':
			h.OnBreak(cur)
			cur.Line++
		case '\r':
			afterCR = true
		default:
			h.OnNonBreak(c, cur)
		}
	}

	if afterCR {
		h.OnBreak(cur)
		cur.Line++
	}
	h.OnEOF(cur)
	return cur, nil
}
