// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/petar-djukic/go-xref/internal/symbol"
	"github.com/petar-djukic/go-xref/pkg/types"
)

// symbolBatchSize keeps multi-row inserts below SQLite's bound parameter limit.
const symbolBatchSize = 500

var symbolColumns = []string{
	"component_uuid", "ordinal", "start_line", "start_offset", "end_line", "end_offset", "refs",
}

// SaveSymbols replaces the symbol table stored for the component in a single
// transaction.
func (s *Store) SaveSymbols(ctx context.Context, componentUUID string, table *symbol.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Delete("symbols").
		Where(sq.Eq{"component_uuid": componentUUID}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear symbols of %s: %w", componentUUID, err)
	}

	entries := table.Entries()
	for start := 0; start < len(entries); start += symbolBatchSize {
		end := min(start+symbolBatchSize, len(entries))
		insert := sq.Insert("symbols").Columns(symbolColumns...)
		for i := start; i < end; i++ {
			e := entries[i]
			refs, err := json.Marshal(e.References)
			if err != nil {
				return fmt.Errorf("encoding references of %s: %w", e.Declaration, err)
			}
			d := e.Declaration
			insert = insert.Values(componentUUID, i, d.Start.Line, d.Start.LineOffset, d.End.Line, d.End.LineOffset, string(refs))
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to write symbols of %s: %w", table.File(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit symbols of %s: %w", table.File(), err)
	}
	return nil
}

// LoadSymbols returns the stored symbol table entries of the component in
// their original order.
func (s *Store) LoadSymbols(ctx context.Context, componentUUID string) ([]symbol.Entry, error) {
	rows, err := sq.Select(symbolColumns[2:]...).
		From("symbols").
		Where(sq.Eq{"component_uuid": componentUUID}).
		OrderBy("ordinal").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols of %s: %w", componentUUID, err)
	}
	defer rows.Close()

	entries := []symbol.Entry{}
	for rows.Next() {
		var (
			d    types.TextRange
			refs string
		)
		if err := rows.Scan(&d.Start.Line, &d.Start.LineOffset, &d.End.Line, &d.End.LineOffset, &refs); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		e := symbol.Entry{Declaration: d}
		if err := json.Unmarshal([]byte(refs), &e.References); err != nil {
			return nil, fmt.Errorf("decoding references of %s: %w", d, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
