// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sensor walks source files in a given language and feeds symbol
// declarations and references to a symbol.Builder. Sensors decide what a
// symbol is; the builder only records positions.
package sensor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/petar-djukic/go-xref/internal/metadata"
	"github.com/petar-djukic/go-xref/internal/symbol"
)

// Sensor records the symbols of one file into a bound builder.
type Sensor interface {
	// Language returns the language key, e.g. "go" or "py".
	Language() string
	// Execute walks file and records its symbols into b. b must already be
	// bound to file.
	Execute(ctx context.Context, file *metadata.InputFile, b *symbol.Builder) error
}

var goSensor = &GoSensor{}

// ForPath returns the sensor for the file at path, selected by extension.
func ForPath(path string) (Sensor, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".go" {
		return goSensor, true
	}
	if s, ok := treeSitterSensors[ext]; ok {
		return s, true
	}
	return nil, false
}

// Extensions returns every file extension a sensor exists for.
func Extensions() []string {
	exts := []string{".go"}
	for ext := range treeSitterSensors {
		exts = append(exts, ext)
	}
	return exts
}

// charRange converts a byte span reported by a parser to character offsets.
func charRange(file *metadata.InputFile, startByte, endByte int) (int, int, error) {
	start, err := file.CharOffset(startByte)
	if err != nil {
		return 0, 0, err
	}
	end, err := file.CharOffset(endByte)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func declareBytes(file *metadata.InputFile, b *symbol.Builder, startByte, endByte int) (symbol.Handle, error) {
	start, end, err := charRange(file, startByte, endByte)
	if err != nil {
		return symbol.Handle{}, fmt.Errorf("declaring symbol: %w", err)
	}
	return b.DeclareOffsets(start, end)
}

func referenceBytes(file *metadata.InputFile, b *symbol.Builder, h symbol.Handle, startByte, endByte int) error {
	start, end, err := charRange(file, startByte, endByte)
	if err != nil {
		return fmt.Errorf("adding reference: %w", err)
	}
	return b.AddReferenceOffsets(h, start, end)
}
