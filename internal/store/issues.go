// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/petar-djukic/go-xref/internal/flow"
)

// Issue is a finding raised on a component. Its primary location and flows
// are kept in their persisted, unvalidated form.
type Issue struct {
	UUID          string
	ComponentUUID string
	RuleKey       string
	Message       string
	Range         *flow.RangeRecord
	Checksum      string
	Flows         []flow.Record
	CreatedAt     time.Time
}

var issueColumns = []string{
	"uuid", "component_uuid", "rule_key", "message", "text_range", "checksum", "flows", "created_at",
}

// SaveIssue stores issue and returns it with its UUID and creation time set.
func (s *Store) SaveIssue(ctx context.Context, issue Issue) (Issue, error) {
	if issue.ComponentUUID == "" {
		return Issue{}, fmt.Errorf("saving issue: empty component uuid")
	}
	if issue.UUID == "" {
		issue.UUID = uuid.NewString()
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now().UTC()
	}

	var textRange sql.NullString
	if issue.Range != nil {
		data, err := json.Marshal(issue.Range)
		if err != nil {
			return Issue{}, fmt.Errorf("encoding range of issue %s: %w", issue.UUID, err)
		}
		textRange = sql.NullString{String: string(data), Valid: true}
	}
	flows, err := json.Marshal(nonNil(issue.Flows))
	if err != nil {
		return Issue{}, fmt.Errorf("encoding flows of issue %s: %w", issue.UUID, err)
	}

	_, err = sq.Insert("issues").
		Columns(issueColumns...).
		Values(
			issue.UUID, issue.ComponentUUID, issue.RuleKey, issue.Message,
			textRange, issue.Checksum, string(flows),
			issue.CreatedAt.UTC().Format(time.RFC3339Nano),
		).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return Issue{}, fmt.Errorf("failed to write issue %s: %w", issue.UUID, err)
	}
	return issue, nil
}

// IssuesFor returns the issues of the component in creation order.
func (s *Store) IssuesFor(ctx context.Context, componentUUID string) ([]Issue, error) {
	rows, err := sq.Select(issueColumns...).
		From("issues").
		Where(sq.Eq{"component_uuid": componentUUID}).
		OrderBy("created_at", "rowid").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues of %s: %w", componentUUID, err)
	}
	defer rows.Close()

	var issues []Issue
	for rows.Next() {
		var (
			issue     Issue
			textRange sql.NullString
			flows     string
			createdAt string
		)
		err := rows.Scan(&issue.UUID, &issue.ComponentUUID, &issue.RuleKey, &issue.Message,
			&textRange, &issue.Checksum, &flows, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		if textRange.Valid {
			issue.Range = &flow.RangeRecord{}
			if err := json.Unmarshal([]byte(textRange.String), issue.Range); err != nil {
				return nil, fmt.Errorf("decoding range of issue %s: %w", issue.UUID, err)
			}
		}
		if err := json.Unmarshal([]byte(flows), &issue.Flows); err != nil {
			return nil, fmt.Errorf("decoding flows of issue %s: %w", issue.UUID, err)
		}
		issue.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}
