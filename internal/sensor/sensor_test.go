// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package sensor

import (
	"context"
	"testing"

	"github.com/petar-djukic/go-xref/internal/metadata"
	"github.com/petar-djukic/go-xref/internal/symbol"
	"github.com/petar-djukic/go-xref/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, key, src string) *symbol.Table {
	t.Helper()
	s, ok := ForPath(key)
	require.True(t, ok, "no sensor for %s", key)

	file, err := metadata.NewInputFile(key, src, "UTF-8", nil)
	require.NoError(t, err)
	b := symbol.NewBuilder()
	require.NoError(t, b.Bind(file))
	require.NoError(t, s.Execute(context.Background(), file, b))

	table, err := b.Finalize()
	require.NoError(t, err)
	return table
}

func rng(sl, so, el, eo int) types.TextRange {
	return types.MustTextRange(sl, so, el, eo)
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path     string
		language string
		ok       bool
	}{
		{"main.go", "go", true},
		{"pkg/util.GO", "go", true},
		{"app.py", "py", true},
		{"web/index.js", "js", true},
		{"web/index.ts", "ts", true},
		{"deploy.yaml", "yaml", true},
		{"deploy.yml", "yaml", true},
		{"README.md", "", false},
		{"Makefile", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s, ok := ForPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.language, s.Language())
			}
		})
	}
	assert.Contains(t, Extensions(), ".go")
	assert.Contains(t, Extensions(), ".yml")
}

const goSource = "package sample\n" +
	"\n" +
	"func add(a, b int) int {\n" +
	"\treturn a + b\n" +
	"}\n" +
	"\n" +
	"func twice(x int) int {\n" +
	"\treturn add(x, x)\n" +
	"}\n"

func TestGoSensor(t *testing.T) {
	table := analyze(t, "sample.go", goSource)

	assert.Equal(t, []symbol.Entry{
		{Declaration: rng(3, 5, 3, 8), References: []types.TextRange{rng(8, 8, 8, 11)}},
		{Declaration: rng(3, 9, 3, 10), References: []types.TextRange{rng(4, 8, 4, 9)}},
		{Declaration: rng(3, 12, 3, 13), References: []types.TextRange{rng(4, 12, 4, 13)}},
		{Declaration: rng(7, 5, 7, 10), References: []types.TextRange{}},
		{Declaration: rng(7, 11, 7, 12), References: []types.TextRange{rng(8, 12, 8, 13), rng(8, 15, 8, 16)}},
	}, table.Entries())
}

func TestGoSensor_CharacterOffsets(t *testing.T) {
	src := "package p\n\nvar éé, s = 1, 2\nvar t = éé + s\n"
	table := analyze(t, "p.go", src)

	assert.Equal(t, []symbol.Entry{
		{Declaration: rng(3, 4, 3, 6), References: []types.TextRange{rng(4, 8, 4, 10)}},
		{Declaration: rng(3, 8, 3, 9), References: []types.TextRange{rng(4, 13, 4, 14)}},
		{Declaration: rng(4, 4, 4, 5), References: []types.TextRange{}},
	}, table.Entries())
}

func TestGoSensor_UnresolvedImportsAreTolerated(t *testing.T) {
	src := "package main\n\nimport \"github.com/acme/missing\"\n\nfunc main() {\n\tv := missing.Thing()\n\t_ = v\n}\n"
	table := analyze(t, "main.go", src)

	refs := table.ReferencesOf(rng(6, 1, 6, 2))
	assert.Equal(t, []types.TextRange{rng(7, 5, 7, 6)}, refs)
}

func TestGoSensor_GenericMethod(t *testing.T) {
	src := "package p\n\ntype T[K any] struct{ v K }\n\nfunc (t T[K]) Get() K { return t.v }\n"
	table := analyze(t, "p.go", src)

	assert.Equal(t, 6, table.Len())
	assert.Equal(t, []types.TextRange{rng(5, 8, 5, 9)}, table.ReferencesOf(rng(3, 5, 3, 6)), "T")
	assert.Equal(t, []types.TextRange{rng(3, 24, 3, 25)}, table.ReferencesOf(rng(3, 7, 3, 8)), "type parameter K")
	assert.Equal(t, []types.TextRange{rng(5, 20, 5, 21)}, table.ReferencesOf(rng(5, 10, 5, 11)), "receiver type parameter K")
	assert.Equal(t, []types.TextRange{rng(5, 31, 5, 32)}, table.ReferencesOf(rng(5, 6, 5, 7)), "receiver t")
	assert.Equal(t, []types.TextRange{rng(5, 33, 5, 34)}, table.ReferencesOf(rng(3, 22, 3, 23)), "field v")
}

func TestGoSensor_CRLF(t *testing.T) {
	src := "package p\r\n\r\nvar a = 1\r\nvar b = a\r\n"
	table := analyze(t, "p.go", src)
	assert.Equal(t, []types.TextRange{rng(4, 8, 4, 9)}, table.ReferencesOf(rng(3, 4, 3, 5)))
}

func TestGoSensor_NotGo(t *testing.T) {
	file, err := metadata.NewInputFile("bad.go", "this is not go", "UTF-8", nil)
	require.NoError(t, err)
	b := symbol.NewBuilder()
	require.NoError(t, b.Bind(file))

	err = goSensor.Execute(context.Background(), file, b)
	assert.Error(t, err)
}

func TestGoSensor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	file, err := metadata.NewInputFile("p.go", "package p\n", "UTF-8", nil)
	require.NoError(t, err)
	b := symbol.NewBuilder()
	require.NoError(t, b.Bind(file))
	assert.ErrorIs(t, goSensor.Execute(ctx, file, b), context.Canceled)
}

func TestTreeSitterSensor_Python(t *testing.T) {
	src := "def greet(name):\n" +
		"    return name\n" +
		"\n" +
		"greet(\"x\")\n"
	table := analyze(t, "greet.py", src)

	assert.Equal(t, []symbol.Entry{
		{Declaration: rng(1, 4, 1, 9), References: []types.TextRange{rng(4, 0, 4, 5)}},
		{Declaration: rng(1, 10, 1, 14), References: []types.TextRange{rng(2, 11, 2, 15)}},
	}, table.Entries())
}

func TestTreeSitterSensor_PythonReassignment(t *testing.T) {
	src := "x = 1\n" +
		"print(x)\n" +
		"x = 2\n" +
		"print(x)\n"
	table := analyze(t, "x.py", src)

	assert.Equal(t, []types.TextRange{rng(2, 6, 2, 7)}, table.ReferencesOf(rng(1, 0, 1, 1)))
	assert.Equal(t, []types.TextRange{rng(4, 6, 4, 7)}, table.ReferencesOf(rng(3, 0, 3, 1)))
}

func TestTreeSitterSensor_JavaScript(t *testing.T) {
	src := "function add(a, b) { return a + b; }\n" +
		"const total = add(1, 2);\n"
	table := analyze(t, "add.js", src)

	assert.Equal(t, []symbol.Entry{
		{Declaration: rng(1, 9, 1, 12), References: []types.TextRange{rng(2, 14, 2, 17)}},
		{Declaration: rng(1, 13, 1, 14), References: []types.TextRange{rng(1, 28, 1, 29)}},
		{Declaration: rng(1, 16, 1, 17), References: []types.TextRange{rng(1, 32, 1, 33)}},
		{Declaration: rng(2, 6, 2, 11), References: []types.TextRange{}},
	}, table.Entries())
}

func TestTreeSitterSensor_TypeScript(t *testing.T) {
	src := "interface Shape { area(): number }\n" +
		"class Box {}\n" +
		"const s: Shape = new Box();\n"
	table := analyze(t, "shape.ts", src)

	assert.Equal(t, []symbol.Entry{
		{Declaration: rng(1, 10, 1, 15), References: []types.TextRange{rng(3, 9, 3, 14)}},
		{Declaration: rng(2, 6, 2, 9), References: []types.TextRange{rng(3, 21, 3, 24)}},
		{Declaration: rng(3, 6, 3, 7), References: []types.TextRange{}},
	}, table.Entries())
}

func TestTreeSitterSensor_YAMLDeclaresKeys(t *testing.T) {
	src := "name: demo\ndeploy:\n  replicas: 2\n"
	table := analyze(t, "deploy.yaml", src)

	assert.Equal(t, 3, table.Len())
	assert.Zero(t, table.ReferenceCount())
	assert.Equal(t, rng(3, 2, 3, 10), table.Entries()[2].Declaration)
}
