// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package metadata

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"unicode"
	"unicode/utf8"
)

// lineCounter counts lines and non-blank lines, and reports the first
// invalid character of the scan.
type lineCounter struct {
	path    string
	charset string
	sink    WarningSink

	lines    int
	nonBlank int
	blank    bool // Current line holds only whitespace so far
	warned   bool
}

func newLineCounter(path, charset string, sink WarningSink) *lineCounter {
	return &lineCounter{path: path, charset: charset, sink: sink, lines: 1, blank: true}
}

func (lc *lineCounter) OnAny(c rune, cur Cursor) {
	if c == utf8.RuneError && !lc.warned {
		lc.warned = true
		lc.sink.AddUnique(fmt.Sprintf(
			"Invalid character encountered in file %s at line %d for encoding %s. "+
				"Please fix file content or configure the encoding to be used.",
			lc.path, cur.Line, lc.charset))
	}
}

func (lc *lineCounter) OnNonBreak(c rune, _ Cursor) {
	if lc.blank && !unicode.IsSpace(c) {
		lc.blank = false
	}
}

func (lc *lineCounter) OnBreak(_ Cursor) {
	lc.closeLine()
	lc.lines++
}

func (lc *lineCounter) OnEOF(_ Cursor) {
	lc.closeLine()
}

func (lc *lineCounter) closeLine() {
	if !lc.blank {
		lc.nonBlank++
	}
	lc.blank = true
}

// lineOffsetCounter records where each line starts and ends, in characters
// and (for start positions) in bytes.
type lineOffsetCounter struct {
	start     int
	end       int
	byteStart int

	starts     []int
	ends       []int
	byteStarts []int
	last       int
}

func (lo *lineOffsetCounter) OnAny(rune, Cursor) {}

func (lo *lineOffsetCounter) OnNonBreak(_ rune, cur Cursor) {
	lo.end = cur.Offset
}

func (lo *lineOffsetCounter) OnBreak(cur Cursor) {
	lo.closeLine()
	lo.start = cur.Offset
	lo.end = cur.Offset
	lo.byteStart = cur.ByteOffset
}

func (lo *lineOffsetCounter) OnEOF(cur Cursor) {
	lo.closeLine()
	lo.last = cur.Offset
}

func (lo *lineOffsetCounter) closeLine() {
	lo.starts = append(lo.starts, lo.start)
	lo.ends = append(lo.ends, lo.end)
	lo.byteStarts = append(lo.byteStarts, lo.byteStart)
}

// hashComputer digests the content with terminators normalised to \n, and
// each line with its whitespace removed.
type hashComputer struct {
	file    hash.Hash
	line    hash.Hash
	hasLine bool
	buf     [utf8.UTFMax]byte

	fileHash   string
	lineHashes []string
}

func newHashComputer() *hashComputer {
	return &hashComputer{file: md5.New(), line: md5.New()}
}

func (hc *hashComputer) OnAny(rune, Cursor) {}

func (hc *hashComputer) OnNonBreak(c rune, _ Cursor) {
	n := utf8.EncodeRune(hc.buf[:], c)
	hc.file.Write(hc.buf[:n])
	if !unicode.IsSpace(c) {
		hc.line.Write(hc.buf[:n])
		hc.hasLine = true
	}
}

func (hc *hashComputer) OnBreak(_ Cursor) {
	hc.file.Write([]byte{'\n'})
	hc.closeLine()
}

func (hc *hashComputer) OnEOF(_ Cursor) {
	hc.closeLine()
	hc.fileHash = hex.EncodeToString(hc.file.Sum(nil))
}

func (hc *hashComputer) closeLine() {
	if hc.hasLine {
		hc.lineHashes = append(hc.lineHashes, hex.EncodeToString(hc.line.Sum(nil)))
	} else {
		hc.lineHashes = append(hc.lineHashes, "")
	}
	hc.line.Reset()
	hc.hasLine = false
}

// fileHandlers runs the metadata handlers in sequence. Calls are static so
// the per-character path stays free of interface dispatch.
type fileHandlers struct {
	counter *lineCounter
	offsets *lineOffsetCounter
	hashes  *hashComputer
}

func (f *fileHandlers) OnAny(c rune, cur Cursor) {
	f.counter.OnAny(c, cur)
	f.offsets.OnAny(c, cur)
	f.hashes.OnAny(c, cur)
}

func (f *fileHandlers) OnNonBreak(c rune, cur Cursor) {
	f.counter.OnNonBreak(c, cur)
	f.offsets.OnNonBreak(c, cur)
	f.hashes.OnNonBreak(c, cur)
}

func (f *fileHandlers) OnBreak(cur Cursor) {
	f.counter.OnBreak(cur)
	f.offsets.OnBreak(cur)
	f.hashes.OnBreak(cur)
}

func (f *fileHandlers) OnEOF(cur Cursor) {
	f.counter.OnEOF(cur)
	f.offsets.OnEOF(cur)
	f.hashes.OnEOF(cur)
}
