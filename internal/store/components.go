// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/petar-djukic/go-xref/internal/flow"
)

// Component is an analysed file.
type Component struct {
	UUID          string    `json:"uuid"`
	Key           string    `json:"key"`  // Path relative to the analysed root
	Name          string    `json:"name"` // Display name
	Language      string    `json:"language,omitempty"`
	Charset       string    `json:"charset,omitempty"`
	Lines         int       `json:"lines"`
	NonBlankLines int       `json:"nonBlankLines"`
	Hash          string    `json:"hash,omitempty"`
	LineHashes    []string  `json:"-"`
	AnalyzedAt    time.Time `json:"analyzedAt"`
}

var componentColumns = []string{
	"uuid", "component_key", "name", "language", "charset",
	"lines", "non_blank_lines", "src_hash", "line_hashes", "analyzed_at",
}

// UpsertComponent inserts c or updates the component with the same Key. The
// component keeps its UUID across updates; a new component gets a fresh one.
// The stored component is returned.
func (s *Store) UpsertComponent(ctx context.Context, c Component) (Component, error) {
	if c.Key == "" {
		return Component{}, fmt.Errorf("upserting component: empty key")
	}
	if c.Name == "" {
		c.Name = c.Key
	}
	if c.AnalyzedAt.IsZero() {
		c.AnalyzedAt = time.Now().UTC()
	}
	existing, err := s.ComponentByKey(ctx, c.Key)
	switch {
	case err == nil:
		c.UUID = existing.UUID
	case errors.Is(err, ErrNotFound):
		if c.UUID == "" {
			c.UUID = uuid.NewString()
		}
	default:
		return Component{}, err
	}

	hashes, err := json.Marshal(nonNil(c.LineHashes))
	if err != nil {
		return Component{}, fmt.Errorf("encoding line hashes of %s: %w", c.Key, err)
	}

	_, err = sq.Insert("components").
		Columns(componentColumns...).
		Values(
			c.UUID, c.Key, c.Name, c.Language, c.Charset,
			c.Lines, c.NonBlankLines, c.Hash, string(hashes),
			c.AnalyzedAt.UTC().Format(time.RFC3339Nano),
		).
		Suffix(`ON CONFLICT(component_key) DO UPDATE SET
  name = excluded.name,
  language = excluded.language,
  charset = excluded.charset,
  lines = excluded.lines,
  non_blank_lines = excluded.non_blank_lines,
  src_hash = excluded.src_hash,
  line_hashes = excluded.line_hashes,
  analyzed_at = excluded.analyzed_at`).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return Component{}, fmt.Errorf("failed to upsert component %s: %w", c.Key, err)
	}
	return c, nil
}

// ComponentByKey returns the component stored under key.
func (s *Store) ComponentByKey(ctx context.Context, key string) (Component, error) {
	row := sq.Select(componentColumns...).
		From("components").
		Where(sq.Eq{"component_key": key}).
		RunWith(s.db).
		QueryRowContext(ctx)

	c, err := scanComponent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Component{}, fmt.Errorf("%w: component %s", ErrNotFound, key)
	}
	if err != nil {
		return Component{}, fmt.Errorf("failed to get component %s: %w", key, err)
	}
	return c, nil
}

// Components returns every stored component ordered by key.
func (s *Store) Components(ctx context.Context) ([]Component, error) {
	rows, err := sq.Select(componentColumns...).
		From("components").
		OrderBy("component_key").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()

	var out []Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Names resolves the display names of the given component UUIDs in one
// query. Unknown UUIDs are absent from the result.
func (s *Store) Names(ctx context.Context, uuids []string) (flow.Names, error) {
	names := make(flow.Names, len(uuids))
	if len(uuids) == 0 {
		return names, nil
	}

	rows, err := sq.Select("uuid", "name").
		From("components").
		Where(sq.Eq{"uuid": uuids}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve component names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan component name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

func scanComponent(row sq.RowScanner) (Component, error) {
	var (
		c          Component
		hashes     string
		analyzedAt string
	)
	err := row.Scan(
		&c.UUID, &c.Key, &c.Name, &c.Language, &c.Charset,
		&c.Lines, &c.NonBlankLines, &c.Hash, &hashes, &analyzedAt,
	)
	if err != nil {
		return Component{}, err
	}
	if err := json.Unmarshal([]byte(hashes), &c.LineHashes); err != nil {
		return Component{}, fmt.Errorf("decoding line hashes of %s: %w", c.Key, err)
	}
	c.AnalyzedAt, _ = time.Parse(time.RFC3339Nano, analyzedAt)
	return c, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
