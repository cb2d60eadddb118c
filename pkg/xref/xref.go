// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package xref is the public interface of go-xref: it indexes the lines of
// source files, builds per-file symbol cross-reference tables, and renders
// the issues recorded against those files.
package xref

import (
	"context"
	"errors"
	"time"

	"github.com/petar-djukic/go-xref/pkg/types"
)

// Error types for the Analyzer API.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrNoStore       = errors.New("no database configured")
	ErrUnknownFile   = errors.New("unknown file")
)

// Config configures an Analyzer.
type Config struct {
	WorkDir     string   // Root of the tree to analyse (required)
	Encoding    string   // Charset of the source files (default UTF-8)
	DBPath      string   // SQLite database; empty disables persistence and issues
	Concurrency int      // Files analysed in parallel (default runtime.NumCPU())
	Exclusions  []string // Glob patterns on slash-separated relative paths
	ChangedOnly bool     // Analyse only files changed in the git work tree (requires git)
	MetricsFile string   // When set, Analyze writes Prometheus metrics here
}

// FileSummary describes one analysed file.
type FileSummary struct {
	Path          string `json:"path"`
	Language      string `json:"language"`
	ComponentUUID string `json:"componentUuid,omitempty"`
	Lines         int    `json:"lines"`
	NonBlankLines int    `json:"nonBlankLines"`
	Symbols       int    `json:"symbols"`
	References    int    `json:"references"`
	Hash          string `json:"hash"`
}

// FileFailure describes a file whose analysis failed.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result holds the outcome of Analyzer.Analyze.
type Result struct {
	Files    []FileSummary `json:"files"`
	Errors   []FileFailure `json:"errors"`
	Warnings []string      `json:"warnings"`
	Revision string        `json:"revision,omitempty"` // HEAD commit when WorkDir is in git
	Dirty    bool          `json:"dirty,omitempty"`    // Work tree had uncommitted changes
	Success  bool          `json:"success"`            // True if no file failed
}

// LineReport is the line index of one file.
type LineReport struct {
	File            string   `json:"file"`
	Charset         string   `json:"charset"`
	Lines           int      `json:"lines"`
	NonBlankLines   int      `json:"nonBlankLines"`
	LastValidOffset int      `json:"lastValidOffset"`
	Hash            string   `json:"hash"`
	LineStarts      []int    `json:"lineStarts"`
	LineEnds        []int    `json:"lineEnds"`
	LineHashes      []string `json:"lineHashes"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Symbol is one declaration and its references.
type Symbol struct {
	Declaration types.TextRange   `json:"declaration"`
	References  []types.TextRange `json:"references"`
}

// SymbolReport is the symbol table of one file.
type SymbolReport struct {
	File     string   `json:"file"`
	Language string   `json:"language"`
	Symbols  []Symbol `json:"symbols"`
}

// LocationInput is one step of an imported flow. File is a path relative to
// the work tree; a file that was never analysed is kept but not resolved.
type LocationInput struct {
	File    string           `json:"file"`
	Message string           `json:"message,omitempty"`
	Range   *types.TextRange `json:"textRange,omitempty"`
}

// FlowInput is an imported flow.
type FlowInput struct {
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type,omitempty"`
	Locations   []LocationInput `json:"locations"`
}

// IssueInput is an issue raised by an external tool on an analysed file.
type IssueInput struct {
	File    string           `json:"file"`
	RuleKey string           `json:"rule"`
	Message string           `json:"message"`
	Range   *types.TextRange `json:"textRange,omitempty"`
	Flows   []FlowInput      `json:"flows,omitempty"`
}

// Issue is a stored issue ready for display.
type Issue struct {
	UUID      string           `json:"uuid"`
	File      string           `json:"file"`
	RuleKey   string           `json:"rule"`
	Message   string           `json:"message"`
	TextRange *types.TextRange `json:"textRange,omitempty"`
	Checksum  string           `json:"checksum,omitempty"`
	Flows     []types.Flow     `json:"flows"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Analyzer analyses a source tree.
type Analyzer interface {
	// Analyze scans and cross-references every selected file, persisting
	// the results when a database is configured.
	Analyze(ctx context.Context) (*Result, error)
	// Lines returns the line index of one file.
	Lines(ctx context.Context, file string) (*LineReport, error)
	// Symbols returns the symbol table of one file.
	Symbols(ctx context.Context, file string) (*SymbolReport, error)
	// ImportIssues stores issues against analysed files and returns how
	// many were stored.
	ImportIssues(ctx context.Context, issues []IssueInput) (int, error)
	// Issues returns the issues of one file with their flows resolved.
	Issues(ctx context.Context, file string) ([]Issue, error)
	// Close releases the database.
	Close() error
}
