// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package symbol

import (
	"testing"

	"github.com/petar-djukic/go-xref/internal/metadata"
	"github.com/petar-djukic/go-xref/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `foo = 1
foo + bar
bar = foo
`

func newFile(t *testing.T, key, contents string) *metadata.InputFile {
	t.Helper()
	f, err := metadata.NewInputFile(key, contents, "UTF-8", nil)
	require.NoError(t, err)
	return f
}

func boundBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.Bind(newFile(t, "src/sample.xoo", sampleSource)))
	return b
}

func rng(sl, so, el, eo int) types.TextRange {
	return types.MustTextRange(sl, so, el, eo)
}

func TestBuilder_DeclareAndReference(t *testing.T) {
	b := boundBuilder(t)

	h, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)
	require.NoError(t, b.AddReference(h, rng(2, 0, 2, 3)))

	table, err := b.Finalize()
	require.NoError(t, err)

	assert.Equal(t, "src/sample.xoo", table.File())
	assert.Equal(t, []Entry{{
		Declaration: rng(1, 0, 1, 3),
		References:  []types.TextRange{rng(2, 0, 2, 3)},
	}}, table.Entries())
}

func TestBuilder_UnboundOperationsFail(t *testing.T) {
	b := NewBuilder()

	_, err := b.Declare(rng(1, 0, 1, 3))
	assert.ErrorIs(t, err, ErrNotBound)

	_, err = b.DeclareOffsets(0, 3)
	assert.ErrorIs(t, err, ErrNotBound)

	assert.ErrorIs(t, b.AddReference(Handle{}, rng(2, 0, 2, 3)), ErrNotBound)
	assert.ErrorIs(t, b.AddReferenceOffsets(Handle{}, 0, 1), ErrNotBound)

	_, err = b.Finalize()
	assert.ErrorIs(t, err, ErrNotBound)

	// Unbound misuse leaves nothing to corrupt; binding still works.
	require.NoError(t, b.Bind(newFile(t, "a.xoo", "abc")))
	_, err = b.Declare(rng(1, 0, 1, 3))
	assert.NoError(t, err)
}

func TestBuilder_BindOnce(t *testing.T) {
	b := boundBuilder(t)
	err := b.Bind(newFile(t, "other.xoo", "x"))
	assert.ErrorIs(t, err, ErrAlreadyBound)
	assert.Equal(t, "src/sample.xoo", b.File().Key())

	assert.Error(t, NewBuilder().Bind(nil))
}

func TestBuilder_ReferenceEqualToDeclarationFails(t *testing.T) {
	b := boundBuilder(t)
	h, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)

	err = b.AddReference(h, rng(1, 0, 1, 3))
	assert.ErrorIs(t, err, ErrOverlappingReference)
	assert.Contains(t, err.Error(), "src/sample.xoo")
}

func TestBuilder_OverlapRules(t *testing.T) {
	tests := []struct {
		name    string
		decl    types.TextRange
		ref     types.TextRange
		wantErr bool
	}{
		{"partial overlap", rng(1, 0, 1, 3), rng(1, 2, 1, 5), true},
		{"reference inside declaration", rng(1, 0, 1, 7), rng(1, 1, 1, 2), true},
		{"reference spans declaration", rng(2, 6, 2, 9), rng(2, 0, 3, 3), true},
		{"adjacent after", rng(1, 0, 1, 3), rng(1, 3, 1, 5), false},
		{"adjacent before", rng(1, 4, 1, 7), rng(1, 0, 1, 4), false},
		{"empty declaration equal reference", rng(1, 0, 1, 0), rng(1, 0, 1, 0), true},
		{"empty reference inside declaration", rng(1, 0, 1, 3), rng(1, 1, 1, 1), true},
		{"other line", rng(1, 0, 1, 3), rng(3, 6, 3, 9), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boundBuilder(t)
			h, err := b.Declare(tt.decl)
			require.NoError(t, err)

			err = b.AddReference(h, tt.ref)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOverlappingReference)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuilder_ForeignHandle(t *testing.T) {
	a := boundBuilder(t)
	other := NewBuilder()
	require.NoError(t, other.Bind(newFile(t, "src/other.xoo", sampleSource)))

	foreign, err := other.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)

	_, err = a.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)

	err = a.AddReference(foreign, rng(2, 0, 2, 3))
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	assert.ErrorIs(t, boundBuilder(t).AddReference(Handle{}, rng(2, 0, 2, 3)), ErrUnknownSymbol)
}

func TestBuilder_ViolationPoisonsBuilder(t *testing.T) {
	b := boundBuilder(t)
	h, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)
	require.NoError(t, b.AddReference(h, rng(2, 0, 2, 3)))

	first := b.AddReference(h, rng(1, 1, 1, 2))
	require.ErrorIs(t, first, ErrOverlappingReference)

	_, err = b.Declare(rng(3, 0, 3, 3))
	assert.ErrorIs(t, err, ErrOverlappingReference)
	assert.ErrorIs(t, b.AddReference(h, rng(3, 6, 3, 9)), ErrOverlappingReference)

	table, err := b.Finalize()
	assert.Nil(t, table)
	assert.ErrorIs(t, err, ErrOverlappingReference)
}

func TestBuilder_RangesOutsideFile(t *testing.T) {
	b := boundBuilder(t)
	_, err := b.Declare(rng(9, 0, 9, 1))
	assert.ErrorIs(t, err, types.ErrInvalidRange)

	b = boundBuilder(t)
	h, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)
	assert.ErrorIs(t, b.AddReference(h, rng(1, 4, 1, 40)), types.ErrInvalidRange)
}

func TestBuilder_ReferencesSortedAndDeduplicated(t *testing.T) {
	b := boundBuilder(t)
	h, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)

	for _, r := range []types.TextRange{rng(3, 6, 3, 9), rng(2, 0, 2, 3), rng(3, 6, 3, 9), rng(2, 6, 2, 9)} {
		require.NoError(t, b.AddReference(h, r))
	}

	table, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, []types.TextRange{rng(2, 0, 2, 3), rng(2, 6, 2, 9), rng(3, 6, 3, 9)}, table.Entries()[0].References)
}

func TestBuilder_DuplicateDeclarationsAreKept(t *testing.T) {
	b := boundBuilder(t)
	h1, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)
	h2, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	require.NoError(t, b.AddReference(h1, rng(2, 0, 2, 3)))
	require.NoError(t, b.AddReference(h2, rng(3, 6, 3, 9)))

	table, err := b.Finalize()
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.ElementsMatch(t, []types.TextRange{rng(2, 0, 2, 3), rng(3, 6, 3, 9)}, table.ReferencesOf(rng(1, 0, 1, 3)))
}

func TestBuilder_ReferencesOfDifferentSymbolsMayOverlap(t *testing.T) {
	b := boundBuilder(t)
	foo, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)
	bar, err := b.Declare(rng(3, 0, 3, 3))
	require.NoError(t, err)

	require.NoError(t, b.AddReference(foo, rng(2, 0, 2, 5)))
	require.NoError(t, b.AddReference(bar, rng(2, 2, 2, 9)))

	_, err = b.Finalize()
	assert.NoError(t, err)
}

func TestBuilder_OffsetForms(t *testing.T) {
	b := boundBuilder(t)
	h, err := b.DeclareOffsets(0, 3)
	require.NoError(t, err)

	decl, ok := b.Declaration(h)
	require.True(t, ok)
	assert.Equal(t, rng(1, 0, 1, 3), decl)

	// "foo + bar\n" starts at offset 8.
	require.NoError(t, b.AddReferenceOffsets(h, 8, 11))
	assert.ErrorIs(t, b.AddReferenceOffsets(h, 20, 10), types.ErrInvalidRange)

	_, ok = NewBuilder().Declaration(h)
	assert.False(t, ok)
}

func TestBuilder_FinalizeTwiceIsStable(t *testing.T) {
	b := boundBuilder(t)
	bar, err := b.Declare(rng(3, 0, 3, 3))
	require.NoError(t, err)
	foo, err := b.Declare(rng(1, 0, 1, 3))
	require.NoError(t, err)
	require.NoError(t, b.AddReference(foo, rng(2, 0, 2, 3)))
	require.NoError(t, b.AddReference(bar, rng(2, 6, 2, 9)))

	first, err := b.Finalize()
	require.NoError(t, err)
	second, err := b.Finalize()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, rng(1, 0, 1, 3), first.Entries()[0].Declaration, "entries are ordered by declaration")
}
