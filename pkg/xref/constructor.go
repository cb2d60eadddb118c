// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package xref

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/petar-djukic/go-xref/internal/analysis"
	"github.com/petar-djukic/go-xref/internal/charset"
	"github.com/petar-djukic/go-xref/internal/observability"
	"github.com/petar-djukic/go-xref/internal/scm"
	"github.com/petar-djukic/go-xref/internal/store"
)

// New validates the config, opens the database if one is configured, and
// returns a ready-to-use Analyzer. It does not analyse anything; that
// happens in Analyze.
func New(cfg Config) (Analyzer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyDefaults(&cfg)

	a := &analyzer{cfg: cfg}
	repo, err := scm.Open(cfg.WorkDir)
	switch {
	case err == nil:
		a.repo = repo
	case cfg.ChangedOnly:
		return nil, fmt.Errorf("%w: ChangedOnly: %w", ErrInvalidConfig, err)
	default:
		slog.Debug("analysing outside git", "workdir", cfg.WorkDir, "error", err)
	}
	if cfg.DBPath != "" {
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.store = s
	}
	return a, nil
}

// validateConfig checks that required fields are present.
func validateConfig(cfg Config) error {
	if cfg.WorkDir == "" {
		return fmt.Errorf("WorkDir is required")
	}
	if info, err := os.Stat(cfg.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("WorkDir %q does not exist or is not a directory", cfg.WorkDir)
	}
	if _, err := charset.Resolve(cfg.Encoding); err != nil {
		return fmt.Errorf("Encoding: %w", err)
	}
	if cfg.Concurrency < 0 {
		return fmt.Errorf("Concurrency must be >= 0, got %d", cfg.Concurrency)
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Encoding == "" {
		cfg.Encoding = charset.Default
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
}

// analyzer implements Analyzer over the internal pipeline.
type analyzer struct {
	cfg   Config
	store *store.Store
	repo  *scm.Repo
}

func (a *analyzer) Analyze(ctx context.Context) (*Result, error) {
	acfg := analysis.Config{
		Root:        a.cfg.WorkDir,
		Charset:     a.cfg.Encoding,
		Concurrency: a.cfg.Concurrency,
		Exclusions:  a.cfg.Exclusions,
	}
	revision, dirty := a.revision()
	if a.cfg.ChangedOnly {
		changed, err := a.repo.ChangedFilesUnder(a.cfg.WorkDir)
		if err != nil {
			return nil, err
		}
		if len(changed) == 0 {
			slog.Info("no changed files to analyse", "root", a.cfg.WorkDir)
			return &Result{
				Files:    []FileSummary{},
				Errors:   []FileFailure{},
				Warnings: []string{},
				Revision: revision,
				Dirty:    dirty,
				Success:  true,
			}, nil
		}
		acfg.Only = changed
	}

	var deps analysis.Deps
	if a.store != nil {
		deps.Store = a.store
	}
	ar, err := analysis.Run(ctx, acfg, deps)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Files:    make([]FileSummary, 0, len(ar.Files)),
		Errors:   make([]FileFailure, 0, len(ar.Errors)),
		Warnings: ar.Warnings,
		Revision: revision,
		Dirty:    dirty,
		Success:  len(ar.Errors) == 0,
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	for _, f := range ar.Files {
		res.Files = append(res.Files, FileSummary{
			Path:          f.Path,
			Language:      f.Language,
			ComponentUUID: f.ComponentUUID,
			Lines:         f.Metadata.Lines,
			NonBlankLines: f.Metadata.NonBlankLines,
			Symbols:       f.Table.Len(),
			References:    f.Table.ReferenceCount(),
			Hash:          f.Metadata.Hash,
		})
	}
	for _, e := range ar.Errors {
		res.Errors = append(res.Errors, FileFailure{Path: e.Path, Error: e.Err.Error()})
	}

	if a.cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return res, err
		}
	}
	return res, nil
}

// revision returns the HEAD commit of the work tree and whether it has
// uncommitted changes. Both are zero outside git or before the first commit.
func (a *analyzer) revision() (string, bool) {
	if a.repo == nil {
		return "", false
	}
	head, err := a.repo.Head()
	if err != nil {
		slog.Debug("no revision to record", "workdir", a.cfg.WorkDir, "error", err)
		return "", false
	}
	dirty, err := a.repo.IsDirty()
	if err != nil {
		slog.Debug("reading work tree status", "workdir", a.cfg.WorkDir, "error", err)
	}
	return head, dirty
}

func (a *analyzer) Lines(_ context.Context, file string) (*LineReport, error) {
	rel, err := a.relPath(file)
	if err != nil {
		return nil, err
	}
	warnings := analysis.NewWarnings()
	f, err := analysis.Load(a.cfg.WorkDir, rel, a.canonicalEncoding(), warnings)
	if err != nil {
		return nil, err
	}
	meta := f.Metadata()
	return &LineReport{
		File:            rel,
		Charset:         meta.Charset,
		Lines:           meta.Lines,
		NonBlankLines:   meta.NonBlankLines,
		LastValidOffset: meta.LastValidOffset,
		Hash:            meta.Hash,
		LineStarts:      meta.Index.StartOffsets(),
		LineEnds:        meta.Index.EndOffsets(),
		LineHashes:      meta.LineHashes,
		Warnings:        warnings.List(),
	}, nil
}

func (a *analyzer) Symbols(ctx context.Context, file string) (*SymbolReport, error) {
	rel, err := a.relPath(file)
	if err != nil {
		return nil, err
	}
	f, err := analysis.Load(a.cfg.WorkDir, rel, a.canonicalEncoding(), analysis.NewWarnings())
	if err != nil {
		return nil, err
	}
	table, language, err := analysis.Symbols(ctx, f)
	if err != nil {
		return nil, err
	}
	report := &SymbolReport{File: rel, Language: language, Symbols: []Symbol{}}
	for _, e := range table.Entries() {
		report.Symbols = append(report.Symbols, Symbol{Declaration: e.Declaration, References: e.References})
	}
	return report, nil
}

func (a *analyzer) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *analyzer) canonicalEncoding() string {
	name, err := charset.Canonical(a.cfg.Encoding)
	if err != nil {
		return a.cfg.Encoding
	}
	return name
}

// relPath converts file (absolute, or relative to WorkDir) to a
// slash-separated path relative to WorkDir.
func (a *analyzer) relPath(file string) (string, error) {
	rel := filepath.Clean(file)
	if filepath.IsAbs(file) {
		root, err := filepath.Abs(a.cfg.WorkDir)
		if err != nil {
			return "", fmt.Errorf("resolving directory: %w", err)
		}
		if rel, err = filepath.Rel(root, file); err != nil {
			return "", fmt.Errorf("%s is outside %s", file, a.cfg.WorkDir)
		}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", file, a.cfg.WorkDir)
	}
	return filepath.ToSlash(rel), nil
}
