// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package flow turns persisted issue locations back into display-ready flows.
// Cross-file steps are labelled with the display name of the file they point
// to; a step whose file can no longer be resolved falls back to the file of
// the enclosing issue.
package flow

import (
	"log/slog"
	"strings"

	"github.com/petar-djukic/go-xref/pkg/types"
)

// Resolver looks up the display name of a component by ID.
type Resolver interface {
	DisplayNameOf(componentID string) (string, bool)
}

// Names is a map-backed Resolver keyed by component ID.
type Names map[string]string

// DisplayNameOf implements Resolver.
func (n Names) DisplayNameOf(componentID string) (string, bool) {
	name, ok := n[componentID]
	return name, ok
}

// Formatter converts flow records using a Resolver. The zero value resolves
// nothing and labels every step with the enclosing name.
type Formatter struct {
	resolver Resolver
}

// NewFormatter returns a Formatter backed by r. A nil r resolves nothing.
func NewFormatter(r Resolver) *Formatter {
	return &Formatter{resolver: r}
}

// FormatFlows converts flows in stored order. enclosingName is the display
// name of the file that owns the issue. A nil input yields an empty slice.
func (f *Formatter) FormatFlows(flows []Record, enclosingName string) []types.Flow {
	out := make([]types.Flow, 0, len(flows))
	for _, rec := range flows {
		locations := make([]types.FlowLocation, 0, len(rec.Locations))
		for _, loc := range rec.Locations {
			locations = append(locations, types.FlowLocation{
				FilePath:  f.displayName(loc.ComponentID, enclosingName),
				Message:   loc.Message,
				TextRange: f.FormatTextRange(loc.Range),
				Checksum:  loc.Checksum,
			})
		}
		out = append(out, types.Flow{
			Description: rec.Description,
			Type:        flowType(rec.Type),
			Locations:   locations,
		})
	}
	return out
}

// FormatTextRange validates a persisted range. A missing or invalid range
// yields nil.
func (f *Formatter) FormatTextRange(rec *RangeRecord) *types.TextRange {
	if rec == nil {
		return nil
	}
	r, err := types.NewTextRange(rec.StartLine, rec.StartOffset, rec.EndLine, rec.EndOffset)
	if err != nil {
		slog.Debug("dropping persisted text range", "error", err)
		return nil
	}
	return &r
}

func (f *Formatter) displayName(componentID, enclosingName string) string {
	if componentID == "" || f.resolver == nil {
		return enclosingName
	}
	if name, ok := f.resolver.DisplayNameOf(componentID); ok {
		return name
	}
	return enclosingName
}

func flowType(s string) types.FlowType {
	switch t := types.FlowType(strings.ToUpper(s)); t {
	case types.FlowData, types.FlowExecution:
		return t
	default:
		return types.FlowUndefined
	}
}
