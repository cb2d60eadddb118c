// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package flow

import "github.com/petar-djukic/go-xref/pkg/types"

// RangeRecord is a text range as persisted with an issue. Fields are raw and
// unvalidated; a record written by an older analysis may no longer describe a
// valid range.
type RangeRecord struct {
	StartLine   int `json:"startLine"`
	StartOffset int `json:"startOffset"`
	EndLine     int `json:"endLine"`
	EndOffset   int `json:"endOffset"`
}

// RecordOf converts a range into its persisted form.
func RecordOf(r types.TextRange) *RangeRecord {
	return &RangeRecord{
		StartLine:   r.Start.Line,
		StartOffset: r.Start.LineOffset,
		EndLine:     r.End.Line,
		EndOffset:   r.End.LineOffset,
	}
}

// LocationRecord is one persisted step of a flow.
type LocationRecord struct {
	ComponentID string       `json:"componentId,omitempty"` // UUID of the file holding the step
	Message     string       `json:"message,omitempty"`
	Range       *RangeRecord `json:"textRange,omitempty"`
	Checksum    string       `json:"checksum,omitempty"`
}

// Record is a persisted flow.
type Record struct {
	Description string           `json:"description,omitempty"`
	Type        string           `json:"type,omitempty"`
	Locations   []LocationRecord `json:"locations"`
}

// ComponentIDs returns the distinct non-empty component IDs referenced by
// flows, in first-seen order. The result feeds a single batch lookup.
func ComponentIDs(flows []Record) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, f := range flows {
		for _, loc := range f.Locations {
			if loc.ComponentID == "" || seen[loc.ComponentID] {
				continue
			}
			seen[loc.ComponentID] = true
			ids = append(ids, loc.ComponentID)
		}
	}
	return ids
}
