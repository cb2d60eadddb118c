// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package metadata

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"
)

// WarningSink surfaces analysis warnings to the end user. AddUnique drops a
// message identical to one already reported.
type WarningSink interface {
	AddUnique(msg string)
}

// WarningFunc adapts a function to WarningSink.
type WarningFunc func(msg string)

// AddUnique calls f(msg).
func (f WarningFunc) AddUnique(msg string) { f(msg) }

var discardWarnings = WarningFunc(func(string) {})

// Metadata is the result of scanning one file.
type Metadata struct {
	Lines           int        // Physical lines, at least 1
	NonBlankLines   int        // Lines holding a non-whitespace character
	LastValidOffset int        // Total characters scanned
	Hash            string     // MD5 of the content with terminators normalised to \n
	LineHashes      []string   // Per-line MD5 of non-whitespace characters; "" for blank lines
	Charset         string     // Charset the content was decoded with
	Index           *LineIndex // Line coordinate system
}

// Compute scans the characters read from rr. path and charset identify the
// file in warnings and logs; sink may be nil.
func Compute(rr io.RuneReader, path, charset string, sink WarningSink) (*Metadata, error) {
	if sink == nil {
		sink = discardWarnings
	}
	h := &fileHandlers{
		counter: newLineCounter(path, charset, sink),
		offsets: &lineOffsetCounter{},
		hashes:  newHashComputer(),
	}

	if _, err := Scan(rr, h); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}

	slog.Debug("generated metadata", "path", path, "charset", charset, "lines", h.counter.lines)

	return &Metadata{
		Lines:           h.counter.lines,
		NonBlankLines:   h.counter.nonBlank,
		LastValidOffset: h.offsets.last,
		Hash:            h.hashes.fileHash,
		LineHashes:      h.hashes.lineHashes,
		Charset:         charset,
		Index: &LineIndex{
			starts:     h.offsets.starts,
			ends:       h.offsets.ends,
			byteStarts: h.offsets.byteStarts,
			last:       h.offsets.last,
		},
	}, nil
}

// InputFile is a decoded, scanned source file ready for symbol recording.
type InputFile struct {
	key      string
	contents string
	meta     *Metadata
}

// NewInputFile scans contents (already decoded to UTF-8) and returns the
// file. key is the file's path relative to the analysed root.
func NewInputFile(key, contents, charset string, sink WarningSink) (*InputFile, error) {
	meta, err := Compute(strings.NewReader(contents), key, charset, sink)
	if err != nil {
		return nil, err
	}
	return &InputFile{key: key, contents: contents, meta: meta}, nil
}

// Key returns the file's path relative to the analysed root.
func (f *InputFile) Key() string { return f.key }

// Contents returns the decoded file content.
func (f *InputFile) Contents() string { return f.contents }

// Metadata returns the scan result.
func (f *InputFile) Metadata() *Metadata { return f.meta }

// Index returns the file's line index.
func (f *InputFile) Index() *LineIndex { return f.meta.Index }

// CharOffset converts a byte offset into Contents to a character offset.
// Parsers report byte positions; the index works in characters.
func (f *InputFile) CharOffset(byteOffset int) (int, error) {
	if byteOffset < 0 || byteOffset > len(f.contents) {
		return 0, fmt.Errorf("byte offset %d outside [0, %d] in %s", byteOffset, len(f.contents), f.key)
	}
	x := f.meta.Index
	i := sort.Search(len(x.byteStarts), func(i int) bool { return x.byteStarts[i] > byteOffset }) - 1
	return x.starts[i] + utf8.RuneCountInString(f.contents[x.byteStarts[i]:byteOffset]), nil
}
