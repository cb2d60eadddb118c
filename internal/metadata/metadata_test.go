// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package metadata

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink collects warnings, keeping duplicates so tests can count them.
type recordingSink struct {
	msgs []string
}

func (s *recordingSink) AddUnique(msg string) { s.msgs = append(s.msgs, msg) }

func compute(t *testing.T, content string) *Metadata {
	t.Helper()
	m, err := Compute(strings.NewReader(content), "src/sample.xoo", "UTF-8", nil)
	require.NoError(t, err)
	return m
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestCompute_Lines(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		lines      int
		nonBlank   int
		starts     []int
		ends       []int
		lastOffset int
	}{
		{
			name:       "no trailing newline",
			content:    "Sample xoo\ncontent plop",
			lines:      2,
			nonBlank:   2,
			starts:     []int{0, 11},
			ends:       []int{10, 23},
			lastOffset: 23,
		},
		{
			name:       "empty file",
			content:    "",
			lines:      1,
			nonBlank:   0,
			starts:     []int{0},
			ends:       []int{0},
			lastOffset: 0,
		},
		{
			name:       "trailing newline opens an empty last line",
			content:    "foo\n",
			lines:      2,
			nonBlank:   1,
			starts:     []int{0, 4},
			ends:       []int{3, 4},
			lastOffset: 4,
		},
		{
			name:       "mixed terminators",
			content:    "foo\r\nbar\rbaz\n",
			lines:      4,
			nonBlank:   3,
			starts:     []int{0, 5, 9, 13},
			ends:       []int{3, 8, 12, 13},
			lastOffset: 13,
		},
		{
			name:       "lone carriage return at end",
			content:    "a\r",
			lines:      2,
			nonBlank:   1,
			starts:     []int{0, 2},
			ends:       []int{1, 2},
			lastOffset: 2,
		},
		{
			name:       "consecutive carriage returns",
			content:    "\r\r\n",
			lines:      3,
			nonBlank:   0,
			starts:     []int{0, 1, 3},
			ends:       []int{0, 1, 3},
			lastOffset: 3,
		},
		{
			name:       "whitespace-only lines are blank",
			content:    "  \n\t\nx  \n",
			lines:      4,
			nonBlank:   1,
			starts:     []int{0, 3, 5, 9},
			ends:       []int{2, 4, 8, 9},
			lastOffset: 9,
		},
		{
			name:       "multi-byte characters count once",
			content:    "héllo\nwörld",
			lines:      2,
			nonBlank:   2,
			starts:     []int{0, 6},
			ends:       []int{5, 11},
			lastOffset: 11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compute(t, tt.content)
			assert.Equal(t, tt.lines, m.Lines)
			assert.Equal(t, tt.nonBlank, m.NonBlankLines)
			assert.Equal(t, tt.lastOffset, m.LastValidOffset)
			assert.Equal(t, tt.starts, m.Index.StartOffsets())
			assert.Equal(t, tt.ends, m.Index.EndOffsets())
			assert.Equal(t, tt.lines, m.Index.Lines())
			assert.Len(t, m.LineHashes, tt.lines)
			assert.Equal(t, "UTF-8", m.Charset)
		})
	}
}

func TestCompute_LineOffsetInvariants(t *testing.T) {
	contents := []string{
		"",
		"\n",
		"\r\n\r\n",
		"a\rb\nc\r\nd",
		"package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n",
		"日本語\r\nテキスト",
	}
	for _, c := range contents {
		t.Run(fmt.Sprintf("%q", c), func(t *testing.T) {
			m := compute(t, c)
			starts, ends := m.Index.StartOffsets(), m.Index.EndOffsets()
			require.GreaterOrEqual(t, m.Lines, 1)
			require.Equal(t, 0, starts[0])
			for i := range starts {
				assert.LessOrEqual(t, starts[i], ends[i], "line %d", i+1)
				if i+1 < len(starts) {
					assert.LessOrEqual(t, ends[i], starts[i+1], "line %d", i+1)
				}
			}
		})
	}
}

func TestCompute_InvalidCharacterWarnsOnce(t *testing.T) {
	sink := &recordingSink{}
	content := "first line\nsecond � line\n� again\n"

	m, err := Compute(strings.NewReader(content), "src/bad.xoo", "ISO-8859-1", sink)
	require.NoError(t, err)

	assert.Equal(t, 4, m.Lines)
	require.Len(t, sink.msgs, 1)
	assert.Contains(t, sink.msgs[0], "src/bad.xoo")
	assert.Contains(t, sink.msgs[0], "at line 2")
	assert.Contains(t, sink.msgs[0], "ISO-8859-1")
}

func TestCompute_InvalidUTF8Bytes(t *testing.T) {
	sink := &recordingSink{}

	m, err := Compute(strings.NewReader("ok\nbad \xff\xfe byte"), "x.txt", "UTF-8", sink)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Lines)
	require.Len(t, sink.msgs, 1)
	assert.Contains(t, sink.msgs[0], "at line 2")
}

func TestCompute_WarnedFlagIsPerScan(t *testing.T) {
	sink := &recordingSink{}
	for i := 0; i < 2; i++ {
		_, err := Compute(strings.NewReader("�"), "same.txt", "UTF-8", sink)
		require.NoError(t, err)
	}
	assert.Len(t, sink.msgs, 2)
}

func TestCompute_FileTooLarge(t *testing.T) {
	saved := maxOffset
	maxOffset = 5
	t.Cleanup(func() { maxOffset = saved })

	_, err := Compute(strings.NewReader("abcde"), "fits.txt", "UTF-8", nil)
	require.NoError(t, err)

	_, err = Compute(strings.NewReader("abc\ndef"), "big.txt", "UTF-8", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assert.Contains(t, err.Error(), "big.txt")
	assert.Contains(t, err.Error(), "offset 6")
}

type failingReader struct{}

func (failingReader) ReadRune() (rune, int, error) { return 0, 0, io.ErrUnexpectedEOF }

func TestCompute_ReaderError(t *testing.T) {
	_, err := Compute(failingReader{}, "broken.txt", "UTF-8", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCompute_Hashes(t *testing.T) {
	crlf := compute(t, "foo \r\nbar")
	lf := compute(t, "foo \nbar")

	assert.Equal(t, md5Hex("foo \nbar"), lf.Hash)
	assert.Equal(t, lf.Hash, crlf.Hash)
	assert.Equal(t, []string{md5Hex("foo"), md5Hex("bar")}, crlf.LineHashes)

	blank := compute(t, "a b\n \n")
	assert.Equal(t, []string{md5Hex("ab"), "", ""}, blank.LineHashes)

	assert.Equal(t, md5Hex(""), compute(t, "").Hash)
}

func TestInputFile_CharOffset(t *testing.T) {
	f, err := NewInputFile("src/u.txt", "héllo\nwörld", "UTF-8", nil)
	require.NoError(t, err)

	tests := []struct {
		byteOffset int
		want       int
	}{
		{0, 0},
		{1, 1},
		{3, 2}, // after é
		{6, 5}, // the newline
		{7, 6}, // w
		{10, 8},
		{len("héllo\nwörld"), 11},
	}
	for _, tt := range tests {
		got, err := f.CharOffset(tt.byteOffset)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "byte offset %d", tt.byteOffset)
	}

	_, err = f.CharOffset(-1)
	assert.Error(t, err)
	_, err = f.CharOffset(100)
	assert.Error(t, err)

	assert.Equal(t, "src/u.txt", f.Key())
	assert.Equal(t, 2, f.Metadata().Lines)
	assert.Same(t, f.Metadata().Index, f.Index())
}
