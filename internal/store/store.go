// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package store persists analysed components, their symbol tables, and the
// issues raised on them in a SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed repository. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates its
// schema.
func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", cleanPath, err)
	}
	// SQLite has a single writer; one connection serialises writes instead of
	// surfacing SQLITE_BUSY to concurrent analysis workers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %q: %w", cleanPath, err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: cleanPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const schemaVersion = 1

func migrate(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)

	if version == 0 {
		_, err := db.Exec(`
CREATE TABLE components (
  uuid TEXT PRIMARY KEY,
  component_key TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  language TEXT NOT NULL DEFAULT '',
  charset TEXT NOT NULL DEFAULT '',
  lines INTEGER NOT NULL DEFAULT 0,
  non_blank_lines INTEGER NOT NULL DEFAULT 0,
  src_hash TEXT NOT NULL DEFAULT '',
  line_hashes TEXT NOT NULL DEFAULT '[]',
  analyzed_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE symbols (
  component_uuid TEXT NOT NULL REFERENCES components(uuid) ON DELETE CASCADE,
  ordinal INTEGER NOT NULL,
  start_line INTEGER NOT NULL,
  start_offset INTEGER NOT NULL,
  end_line INTEGER NOT NULL,
  end_offset INTEGER NOT NULL,
  refs TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (component_uuid, ordinal)
);

CREATE TABLE issues (
  uuid TEXT PRIMARY KEY,
  component_uuid TEXT NOT NULL REFERENCES components(uuid) ON DELETE CASCADE,
  rule_key TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  text_range TEXT,
  checksum TEXT NOT NULL DEFAULT '',
  flows TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL
);
CREATE INDEX idx_issues_component ON issues(component_uuid, created_at);
`)
		if err != nil {
			return fmt.Errorf("create store schema: %w", err)
		}
		version = schemaVersion
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, version)); err != nil {
			return fmt.Errorf("set store schema version: %w", err)
		}
	}

	if version != schemaVersion {
		return fmt.Errorf("unsupported store schema version %d (want %d)", version, schemaVersion)
	}
	return nil
}
