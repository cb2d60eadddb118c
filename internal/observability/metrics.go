// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package observability holds the process-wide analysis metrics.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xref_files_analyzed_total",
		Help: "Total number of files analysed successfully.",
	}, []string{"language"})

	FileErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xref_file_errors_total",
		Help: "Total number of files whose analysis failed.",
	}, []string{"kind"})

	LinesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xref_lines_scanned_total",
		Help: "Total number of physical lines scanned.",
	})

	InvalidCharacterWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xref_invalid_character_warnings_total",
		Help: "Total number of files containing characters invalid for their charset.",
	})

	SymbolsDeclared = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xref_symbols_declared_total",
		Help: "Total number of symbol declarations recorded.",
	}, []string{"language"})

	ReferencesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xref_references_recorded_total",
		Help: "Total number of symbol references recorded.",
	}, []string{"language"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xref_file_analysis_seconds",
		Help:    "Time spent scanning and cross-referencing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})
)

// Error kinds for FileErrors.
const (
	KindRead     = "read"
	KindDecode   = "decode"
	KindTooLarge = "too_large"
	KindScan     = "scan"
	KindSymbols  = "symbols"
	KindStore    = "store"
)

// WriteTextfile writes every registered metric to path in the Prometheus text
// format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
