// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package symbol

import (
	"encoding/json"

	"github.com/petar-djukic/go-xref/pkg/types"
)

// Entry is one symbol: its declaration and its references in range order.
type Entry struct {
	Declaration types.TextRange   `json:"declaration"`
	References  []types.TextRange `json:"references"`
}

// Table is the finalized symbol table of one file. It is immutable.
type Table struct {
	file    string
	entries []Entry
}

// NewTable rebuilds a table from stored entries, e.g. when loading it back
// from the store. Entries are copied.
func NewTable(file string, entries []Entry) *Table {
	return &Table{file: file, entries: cloneEntries(entries)}
}

// File returns the key of the file the table belongs to.
func (t *Table) File() string {
	return t.file
}

// Len returns the number of symbols.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns every symbol ordered by declaration range.
func (t *Table) Entries() []Entry {
	return cloneEntries(t.entries)
}

// ReferenceCount returns the number of references across all symbols.
func (t *Table) ReferenceCount() int {
	n := 0
	for _, e := range t.entries {
		n += len(e.References)
	}
	return n
}

// ReferencesOf returns the references of every symbol declared at decl.
func (t *Table) ReferencesOf(decl types.TextRange) []types.TextRange {
	var refs []types.TextRange
	for _, e := range t.entries {
		if e.Declaration == decl {
			refs = append(refs, e.References...)
		}
	}
	return refs
}

// SymbolAt returns the symbol whose declaration or one of whose references
// contains p. Declarations win over references.
func (t *Table) SymbolAt(p types.TextPointer) (Entry, bool) {
	for _, e := range t.entries {
		if e.Declaration.Contains(p) {
			return cloneEntry(e), true
		}
	}
	for _, e := range t.entries {
		for _, r := range e.References {
			if r.Contains(p) {
				return cloneEntry(e), true
			}
		}
	}
	return Entry{}, false
}

// MarshalJSON renders the table as {"file": ..., "symbols": [...]}.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		File    string  `json:"file"`
		Symbols []Entry `json:"symbols"`
	}{File: t.file, Symbols: t.entries})
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = cloneEntry(e)
	}
	return out
}

func cloneEntry(e Entry) Entry {
	refs := make([]types.TextRange, len(e.References))
	copy(refs, e.References)
	return Entry{Declaration: e.Declaration, References: refs}
}
