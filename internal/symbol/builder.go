// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package symbol records, per file, where symbols are declared and where they
// are referenced. Callers (language sensors) decide what a symbol is; the
// builder only guarantees that the recorded positions are consistent.
package symbol

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/petar-djukic/go-xref/internal/metadata"
	"github.com/petar-djukic/go-xref/pkg/types"
)

// Caller-contract violations. They indicate a defect in the sensor feeding
// the builder, not bad input data.
var (
	ErrNotBound             = errors.New("symbol table is not bound to a file")
	ErrAlreadyBound         = errors.New("symbol table is already bound to a file")
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrOverlappingReference = errors.New("reference overlaps its declaration")
)

// builderTags hands every builder a distinct tag so that handles from one
// builder are rejected by another.
var builderTags atomic.Uint64

// Handle identifies a declared symbol within the builder that produced it.
type Handle struct {
	tag   uint64
	index int
}

type declaration struct {
	rng  types.TextRange
	refs []types.TextRange // Sorted by range order, no duplicates
}

// Builder accumulates the symbol table of a single file. It starts unbound;
// Bind attaches the file once. A builder is used by one goroutine and
// discarded after Finalize.
//
// The first contract violation after binding poisons the builder: every
// later call, Finalize included, returns that error, so a partially built
// table cannot be stored by mistake.
type Builder struct {
	tag   uint64
	file  *metadata.InputFile
	decls []declaration
	err   error
}

// NewBuilder returns an unbound builder.
func NewBuilder() *Builder {
	return &Builder{tag: builderTags.Add(1)}
}

// Bind attaches the builder to file. It may be called once.
func (b *Builder) Bind(file *metadata.InputFile) error {
	if file == nil {
		return fmt.Errorf("binding symbol table: nil file")
	}
	if b.file != nil {
		return fmt.Errorf("%w: %s, cannot bind %s", ErrAlreadyBound, b.file.Key(), file.Key())
	}
	b.file = file
	return nil
}

// File returns the bound file, or nil.
func (b *Builder) File() *metadata.InputFile {
	return b.file
}

// Declare registers a new symbol declared at r and returns its handle.
// Several symbols may share the same declaration range.
func (b *Builder) Declare(r types.TextRange) (Handle, error) {
	if err := b.check(); err != nil {
		return Handle{}, err
	}
	if err := b.file.Index().Validate(r); err != nil {
		return Handle{}, b.fail(fmt.Errorf("declaration %s in %s: %w", r, b.file.Key(), err))
	}
	b.decls = append(b.decls, declaration{rng: r})
	return Handle{tag: b.tag, index: len(b.decls) - 1}, nil
}

// DeclareOffsets is Declare for the absolute character offsets [start, end).
func (b *Builder) DeclareOffsets(start, end int) (Handle, error) {
	if err := b.check(); err != nil {
		return Handle{}, err
	}
	r, err := b.file.Index().RangeOf(start, end)
	if err != nil {
		return Handle{}, b.fail(fmt.Errorf("declaration [%d, %d) in %s: %w", start, end, b.file.Key(), err))
	}
	return b.Declare(r)
}

// AddReference records that the symbol h is referenced at r. A range already
// recorded for h is kept once.
func (b *Builder) AddReference(h Handle, r types.TextRange) error {
	if err := b.check(); err != nil {
		return err
	}
	if h.tag != b.tag || h.index < 0 || h.index >= len(b.decls) {
		return b.fail(fmt.Errorf("%w: handle does not belong to the symbol table of %s", ErrUnknownSymbol, b.file.Key()))
	}
	if err := b.file.Index().Validate(r); err != nil {
		return b.fail(fmt.Errorf("reference %s in %s: %w", r, b.file.Key(), err))
	}

	d := &b.decls[h.index]
	if r == d.rng || r.Overlaps(d.rng) {
		return b.fail(fmt.Errorf("%w: reference %s, declaration %s in %s", ErrOverlappingReference, r, d.rng, b.file.Key()))
	}

	i, found := slices.BinarySearchFunc(d.refs, r, types.TextRange.Compare)
	if !found {
		d.refs = slices.Insert(d.refs, i, r)
	}
	return nil
}

// AddReferenceOffsets is AddReference for the absolute offsets [start, end).
func (b *Builder) AddReferenceOffsets(h Handle, start, end int) error {
	if err := b.check(); err != nil {
		return err
	}
	r, err := b.file.Index().RangeOf(start, end)
	if err != nil {
		return b.fail(fmt.Errorf("reference [%d, %d) in %s: %w", start, end, b.file.Key(), err))
	}
	return b.AddReference(h, r)
}

// Declaration returns the declaration range of h.
func (b *Builder) Declaration(h Handle) (types.TextRange, bool) {
	if h.tag != b.tag || h.index < 0 || h.index >= len(b.decls) {
		return types.TextRange{}, false
	}
	return b.decls[h.index].rng, true
}

// Finalize returns the accumulated table. It performs no validation beyond
// what was enforced incrementally; calling it again returns an equal table.
func (b *Builder) Finalize() (*Table, error) {
	if err := b.check(); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(b.decls))
	for i, d := range b.decls {
		refs := make([]types.TextRange, len(d.refs))
		copy(refs, d.refs)
		entries[i] = Entry{Declaration: d.rng, References: refs}
	}
	slices.SortStableFunc(entries, func(x, y Entry) int {
		return x.Declaration.Compare(y.Declaration)
	})

	return &Table{file: b.file.Key(), entries: entries}, nil
}

// check enforces the bound state and the poisoned state.
func (b *Builder) check() error {
	if b.file == nil {
		return ErrNotBound
	}
	return b.err
}

func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}
