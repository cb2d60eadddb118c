// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package analysis discovers source files under a root directory and runs
// the per-file pipeline on each of them concurrently: read, decode, scan,
// record symbols, and optionally persist.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/go-xref/internal/charset"
	"github.com/petar-djukic/go-xref/internal/metadata"
	"github.com/petar-djukic/go-xref/internal/observability"
	"github.com/petar-djukic/go-xref/internal/sensor"
	"github.com/petar-djukic/go-xref/internal/store"
	"github.com/petar-djukic/go-xref/internal/symbol"
	"github.com/petar-djukic/go-xref/pkg/types"
)

// Config selects and parameterises the files to analyse.
type Config struct {
	Root        string
	Charset     string   // Charset of the source files; empty means UTF-8
	Concurrency int      // Files analysed in parallel; <= 0 means runtime.NumCPU()
	Exclusions  []string // Glob patterns on slash-separated relative paths
	Only        []string // When non-empty, analyse only these relative paths
}

// Store persists analysis results. *store.Store implements it.
type Store interface {
	UpsertComponent(ctx context.Context, c store.Component) (store.Component, error)
	SaveSymbols(ctx context.Context, componentUUID string, table *symbol.Table) error
}

// Deps are the optional collaborators of Run.
type Deps struct {
	Store    Store     // Nil disables persistence
	Warnings *Warnings // Nil means a fresh collector
}

// FileResult is the outcome of analysing one file.
type FileResult struct {
	Path          string             `json:"path"`
	Language      string             `json:"language"`
	ComponentUUID string             `json:"componentUuid,omitempty"`
	Metadata      *metadata.Metadata `json:"-"`
	Table         *symbol.Table      `json:"-"`
}

// FileError records an analysis failure for a single file.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Result is the outcome of Run.
type Result struct {
	Files    []FileResult
	Errors   []FileError
	Warnings []string
}

// Run analyses every file Discover finds. A failing file is recorded in
// Result.Errors and does not stop the others. Cancelling ctx stops Run
// before it starts further files; the context error is returned.
func Run(ctx context.Context, cfg Config, deps Deps) (*Result, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if deps.Warnings == nil {
		deps.Warnings = NewWarnings()
	}
	canonical, err := charset.Canonical(cfg.Charset)
	if err != nil {
		return nil, err
	}
	cfg.Charset = canonical

	paths, err := Discover(cfg)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving directory: %w", err)
	}

	start := time.Now()
	slog.Debug("starting analysis", "root", root, "files", len(paths), "concurrency", cfg.Concurrency)

	results := make([]*FileResult, len(paths))
	var (
		mu       sync.Mutex
		failures []FileError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, rel := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := analyzeFile(gctx, root, rel, cfg.Charset, deps)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					return err
				}
				observability.FileErrors.WithLabelValues(errorKind(err)).Inc()
				slog.Warn("file analysis failed", "path", rel, "error", err)
				mu.Lock()
				failures = append(failures, FileError{Path: rel, Err: err})
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Result{Warnings: deps.Warnings.List()}
	for _, r := range results {
		if r != nil {
			out.Files = append(out.Files, *r)
		}
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
	out.Errors = failures

	slog.Info("analysis complete",
		"root", root,
		"files", len(out.Files),
		"errors", len(out.Errors),
		"warnings", len(out.Warnings),
		"duration", time.Since(start))
	return out, nil
}

// Load reads, decodes and scans the file at rel under root.
func Load(root, rel, charsetName string, sink metadata.WarningSink) (*metadata.InputFile, error) {
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errRead, err)
	}
	text, err := charset.Decode(content, charsetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errDecode, err)
	}
	return metadata.NewInputFile(rel, text, charsetName, sink)
}

// Symbols records the symbols of file with the sensor for its extension.
func Symbols(ctx context.Context, file *metadata.InputFile) (*symbol.Table, string, error) {
	s, ok := sensor.ForPath(file.Key())
	if !ok {
		return nil, "", fmt.Errorf("no sensor for %s", file.Key())
	}
	b := symbol.NewBuilder()
	if err := b.Bind(file); err != nil {
		return nil, "", err
	}
	if err := s.Execute(ctx, file, b); err != nil {
		return nil, s.Language(), err
	}
	table, err := b.Finalize()
	return table, s.Language(), err
}

var (
	errRead   = errors.New("reading file")
	errDecode = errors.New("decoding file")
	errStore  = errors.New("storing results")
)

func analyzeFile(ctx context.Context, root, rel, charsetName string, deps Deps) (*FileResult, error) {
	start := time.Now()
	sink := metadata.WarningFunc(func(msg string) {
		observability.InvalidCharacterWarnings.Inc()
		deps.Warnings.AddUnique(msg)
	})

	file, err := Load(root, rel, charsetName, sink)
	if err != nil {
		return nil, err
	}
	meta := file.Metadata()
	observability.LinesScanned.Add(float64(meta.Lines))

	table, language, err := Symbols(ctx, file)
	if err != nil {
		return nil, err
	}
	observability.SymbolsDeclared.WithLabelValues(language).Add(float64(table.Len()))
	observability.ReferencesRecorded.WithLabelValues(language).Add(float64(table.ReferenceCount()))

	res := &FileResult{Path: rel, Language: language, Metadata: meta, Table: table}
	if deps.Store != nil {
		c, err := deps.Store.UpsertComponent(ctx, store.Component{
			Key:           rel,
			Name:          rel,
			Language:      language,
			Charset:       meta.Charset,
			Lines:         meta.Lines,
			NonBlankLines: meta.NonBlankLines,
			Hash:          meta.Hash,
			LineHashes:    meta.LineHashes,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errStore, err)
		}
		if err := deps.Store.SaveSymbols(ctx, c.UUID, table); err != nil {
			return nil, fmt.Errorf("%w: %w", errStore, err)
		}
		res.ComponentUUID = c.UUID
	}

	observability.FilesAnalyzed.WithLabelValues(language).Inc()
	observability.AnalysisDuration.WithLabelValues(language).Observe(time.Since(start).Seconds())
	slog.Debug("analysed file", "path", rel, "language", language, "symbols", table.Len())
	return res, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, metadata.ErrFileTooLarge):
		return observability.KindTooLarge
	case errors.Is(err, errRead):
		return observability.KindRead
	case errors.Is(err, errDecode), errors.Is(err, charset.ErrUnsupportedCharset):
		return observability.KindDecode
	case errors.Is(err, errStore):
		return observability.KindStore
	case errors.Is(err, symbol.ErrOverlappingReference),
		errors.Is(err, symbol.ErrUnknownSymbol),
		errors.Is(err, symbol.ErrNotBound),
		errors.Is(err, symbol.ErrAlreadyBound),
		errors.Is(err, types.ErrInvalidRange):
		return observability.KindSymbols
	default:
		return observability.KindScan
	}
}
