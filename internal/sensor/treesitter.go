// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package sensor

import (
	"context"
	"fmt"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/petar-djukic/go-xref/internal/metadata"
	"github.com/petar-djukic/go-xref/internal/symbol"
)

// TreeSitterSensor records symbols for languages without a type checker.
// Definition queries declare names; every other identifier with a declared
// name references the closest preceding declaration of that name, or the
// first declaration when none precedes it.
type TreeSitterSensor struct {
	language string
	lang     *sitter.Language
	defQ     string // Tree-sitter query for definitions (capture @name)
	refQ     string // Tree-sitter query for references (capture @ref)
}

var treeSitterSensors = map[string]*TreeSitterSensor{
	".py": {
		language: "py",
		lang:     python.GetLanguage(),
		defQ: `
			(function_definition name: (identifier) @name)
			(class_definition name: (identifier) @name)
			(assignment left: (identifier) @name)
			(parameters (identifier) @name)
		`,
		refQ: `(identifier) @ref`,
	},
	".js": {
		language: "js",
		lang:     javascript.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name)
			(class_declaration name: (identifier) @name)
			(variable_declarator name: (identifier) @name)
			(formal_parameters (identifier) @name)
		`,
		refQ: `(identifier) @ref`,
	},
	".ts": {
		language: "ts",
		lang:     typescript.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name)
			(class_declaration name: (type_identifier) @name)
			(variable_declarator name: (identifier) @name)
			(interface_declaration name: (type_identifier) @name)
		`,
		refQ: `
			(identifier) @ref
			(type_identifier) @ref
		`,
	},
	".yaml": {
		language: "yaml",
		lang:     yaml.GetLanguage(),
		defQ:     `(block_mapping_pair key: (flow_node) @name)`,
	},
}

func init() {
	treeSitterSensors[".yml"] = treeSitterSensors[".yaml"]
}

func (s *TreeSitterSensor) Language() string { return s.language }

// capture is a named node located by its byte span.
type capture struct {
	name       string
	start, end int
}

// Execute parses file and records its symbols.
func (s *TreeSitterSensor) Execute(ctx context.Context, file *metadata.InputFile, b *symbol.Builder) error {
	content := []byte(file.Contents())
	root, err := sitter.ParseCtx(ctx, content, s.lang)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", file.Key(), err)
	}

	defs, err := runQuery(s.defQ, s.lang, root, content)
	if err != nil {
		return fmt.Errorf("definition query for %s: %w", s.language, err)
	}

	type declared struct {
		capture
		handle symbol.Handle
	}
	byName := make(map[string][]declared)
	isDef := make(map[[2]int]bool, len(defs))
	for _, d := range defs {
		h, err := declareBytes(file, b, d.start, d.end)
		if err != nil {
			return fmt.Errorf("declaring %q in %s: %w", d.name, file.Key(), err)
		}
		byName[d.name] = append(byName[d.name], declared{capture: d, handle: h})
		isDef[[2]int{d.start, d.end}] = true
	}

	if s.refQ == "" {
		return nil
	}
	refs, err := runQuery(s.refQ, s.lang, root, content)
	if err != nil {
		return fmt.Errorf("reference query for %s: %w", s.language, err)
	}
	for _, r := range refs {
		candidates := byName[r.name]
		if len(candidates) == 0 || isDef[[2]int{r.start, r.end}] {
			continue
		}
		target := candidates[0]
		for _, c := range candidates {
			if c.start > r.start {
				break
			}
			target = c
		}
		if err := referenceBytes(file, b, target.handle, r.start, r.end); err != nil {
			return fmt.Errorf("referencing %q in %s: %w", r.name, file.Key(), err)
		}
	}
	return nil
}

// runQuery executes a tree-sitter query and returns the captured nodes in
// source order, one per distinct span.
func runQuery(pattern string, lang *sitter.Language, root *sitter.Node, content []byte) ([]capture, error) {
	q, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	seen := make(map[[2]int]bool)
	var results []capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			name := c.Node.Content(content)
			span := [2]int{int(c.Node.StartByte()), int(c.Node.EndByte())}
			if name == "" || seen[span] {
				continue
			}
			seen[span] = true
			results = append(results, capture{name: name, start: span[0], end: span[1]})
		}
	}

	slices.SortFunc(results, func(x, y capture) int {
		if x.start != y.start {
			return x.start - y.start
		}
		return x.end - y.end
	})
	return results, nil
}
