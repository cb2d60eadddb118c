// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package xref

import (
	"context"
	"errors"
	"fmt"

	"github.com/petar-djukic/go-xref/internal/flow"
	"github.com/petar-djukic/go-xref/internal/store"
	"github.com/petar-djukic/go-xref/pkg/types"
)

// ImportIssues stores issues in order. It stops at the first issue whose
// file was never analysed and returns the number stored before it.
// Locations in unanalysed files are kept without a component, so they are
// displayed with the name of the issue's own file.
func (a *analyzer) ImportIssues(ctx context.Context, issues []IssueInput) (int, error) {
	if a.store == nil {
		return 0, ErrNoStore
	}

	components := make(map[string]*store.Component)
	lookup := func(key string) (*store.Component, error) {
		if c, ok := components[key]; ok {
			return c, nil
		}
		c, err := a.store.ComponentByKey(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			components[key] = nil
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		components[key] = &c
		return &c, nil
	}

	for i, in := range issues {
		key, err := a.relPath(in.File)
		if err != nil {
			return i, err
		}
		owner, err := lookup(key)
		if err != nil {
			return i, err
		}
		if owner == nil {
			return i, fmt.Errorf("%w: %s", ErrUnknownFile, key)
		}

		rec := store.Issue{
			ComponentUUID: owner.UUID,
			RuleKey:       in.RuleKey,
			Message:       in.Message,
		}
		if in.Range != nil {
			rec.Range = flow.RecordOf(*in.Range)
			rec.Checksum = lineChecksum(owner, *in.Range)
		}
		for _, fl := range in.Flows {
			fr := flow.Record{Description: fl.Description, Type: fl.Type, Locations: []flow.LocationRecord{}}
			for _, loc := range fl.Locations {
				lr := flow.LocationRecord{Message: loc.Message}
				var c *store.Component
				if loc.File != "" {
					locKey, err := a.relPath(loc.File)
					if err != nil {
						return i, err
					}
					if c, err = lookup(locKey); err != nil {
						return i, err
					}
				}
				if c != nil {
					lr.ComponentID = c.UUID
				}
				if loc.Range != nil {
					lr.Range = flow.RecordOf(*loc.Range)
					lr.Checksum = lineChecksum(c, *loc.Range)
				}
				fr.Locations = append(fr.Locations, lr)
			}
			rec.Flows = append(rec.Flows, fr)
		}

		if _, err := a.store.SaveIssue(ctx, rec); err != nil {
			return i, err
		}
	}
	return len(issues), nil
}

// Issues returns the issues of file in creation order, with flow steps
// labelled by the display name of the file they point to.
func (a *analyzer) Issues(ctx context.Context, file string) ([]Issue, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	key, err := a.relPath(file)
	if err != nil {
		return nil, err
	}
	owner, err := a.store.ComponentByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFile, key)
	}
	if err != nil {
		return nil, err
	}

	recs, err := a.store.IssuesFor(ctx, owner.UUID)
	if err != nil {
		return nil, err
	}

	var flows []flow.Record
	for _, r := range recs {
		flows = append(flows, r.Flows...)
	}
	names, err := a.store.Names(ctx, flow.ComponentIDs(flows))
	if err != nil {
		return nil, err
	}
	formatter := flow.NewFormatter(names)

	out := make([]Issue, 0, len(recs))
	for _, r := range recs {
		out = append(out, Issue{
			UUID:      r.UUID,
			File:      owner.Name,
			RuleKey:   r.RuleKey,
			Message:   r.Message,
			TextRange: formatter.FormatTextRange(r.Range),
			Checksum:  r.Checksum,
			Flows:     formatter.FormatFlows(r.Flows, owner.Name),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// lineChecksum returns the hash of the first line of r in c, or "" when it
// is unknown.
func lineChecksum(c *store.Component, r types.TextRange) string {
	if c == nil || r.Start.Line < 1 || r.Start.Line > len(c.LineHashes) {
		return ""
	}
	return c.LineHashes[r.Start.Line-1]
}
