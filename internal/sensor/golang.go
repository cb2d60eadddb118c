// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package sensor

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/petar-djukic/go-xref/internal/metadata"
	"github.com/petar-djukic/go-xref/internal/symbol"
)

// GoSensor records Go symbols using the type checker. Every defining
// identifier is a declaration; every use resolving to an object declared in
// the same file is a reference. Type errors (unresolved imports included) are
// tolerated so that a single file can be analysed on its own.
type GoSensor struct{}

func (*GoSensor) Language() string { return "go" }

// Execute parses and type-checks file, then records its symbols in two
// passes over the identifiers: declarations first, references second.
func (*GoSensor) Execute(ctx context.Context, file *metadata.InputFile, b *symbol.Builder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fset := token.NewFileSet()
	f, parseErr := parser.ParseFile(fset, file.Key(), file.Contents(), parser.SkipObjectResolution)
	if f == nil || !f.Package.IsValid() {
		// No package clause: not Go source at all.
		return fmt.Errorf("parsing %s: %w", file.Key(), parseErr)
	}
	if parseErr != nil {
		slog.Debug("partial parse", "path", file.Key(), "error", parseErr)
	}
	tf := fset.File(f.Pos())

	info := &types.Info{
		Defs: make(map[*ast.Ident]types.Object),
		Uses: make(map[*ast.Ident]types.Object),
	}
	conf := types.Config{
		Error:    func(error) {},
		Importer: emptyImporter{},
	}
	// The package is incomplete by construction; errors are reported through
	// conf.Error and the populated Info is still usable.
	_, _ = conf.Check(f.Name.Name, fset, []*ast.File{f}, info)

	insp := inspector.New([]*ast.File{f})
	idents := []ast.Node{(*ast.Ident)(nil)}
	handles := make(map[types.Object]symbol.Handle)

	var err error
	insp.Preorder(idents, func(n ast.Node) {
		if err != nil {
			return
		}
		id := n.(*ast.Ident)
		obj := info.Defs[id]
		if obj == nil || id.Name == "_" {
			return
		}
		var h symbol.Handle
		h, err = declareBytes(file, b, tf.Offset(id.Pos()), tf.Offset(id.End()))
		handles[obj] = h
	})
	if err != nil {
		return fmt.Errorf("declaring symbols of %s: %w", file.Key(), err)
	}

	insp.Preorder(idents, func(n ast.Node) {
		if err != nil {
			return
		}
		id := n.(*ast.Ident)
		// Receiver type parameters of generic methods are both defined and
		// used by the same identifier.
		if _, ok := info.Defs[id]; ok {
			return
		}
		h, ok := handles[info.Uses[id]]
		if !ok {
			return
		}
		err = referenceBytes(file, b, h, tf.Offset(id.Pos()), tf.Offset(id.End()))
	})
	if err != nil {
		return fmt.Errorf("recording references of %s: %w", file.Key(), err)
	}
	return nil
}

// emptyImporter satisfies every import with an empty, complete package so
// that type checking proceeds without loading dependencies.
type emptyImporter struct{}

func (emptyImporter) Import(path string) (*types.Package, error) {
	name := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			name = path[i+1:]
			break
		}
	}
	pkg := types.NewPackage(path, name)
	pkg.MarkComplete()
	return pkg, nil
}
