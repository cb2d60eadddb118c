// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package analysis

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/petar-djukic/go-xref/internal/sensor"
)

// skipDirs contains directory names that Discover always skips.
var skipDirs = map[string]bool{
	"vendor":       true,
	".git":         true,
	"testdata":     true,
	"node_modules": true,
}

// Discover walks cfg.Root and returns the slash-separated relative paths of
// every file a sensor exists for, sorted. Directories in skipDirs, paths
// matched by .gitignore, and paths matched by an exclusion glob are skipped.
// A non-empty cfg.Only restricts the result to the listed paths.
func Discover(cfg Config) ([]string, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	exclusions, err := compileGlobs(cfg.Exclusions)
	if err != nil {
		return nil, err
	}
	ignorer := loadGitignore(root)
	exts := sensor.Extensions()

	var only map[string]bool
	if len(cfg.Only) > 0 {
		only = make(map[string]bool, len(cfg.Only))
		for _, p := range cfg.Only {
			only[filepath.ToSlash(filepath.Clean(p))] = true
		}
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if path == root {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel := filepath.ToSlash(relPath)

		if d.IsDir() {
			if skipDirs[d.Name()] || ignorer.isIgnored(rel) || matchesAny(exclusions, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !slices.Contains(exts, strings.ToLower(filepath.Ext(rel))) {
			return nil
		}
		if ignorer.isIgnored(rel) || matchesAny(exclusions, rel) {
			return nil
		}
		if only != nil && !only[rel] {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	slices.Sort(paths)
	return paths, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchesAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// gitignorer provides simple .gitignore matching.
type gitignorer struct {
	patterns []glob.Glob
}

// loadGitignore reads .gitignore from the root directory. If no .gitignore
// exists or it cannot be read, returns an ignorer that matches nothing.
// Negations are not supported and unparsable patterns are dropped.
func loadGitignore(root string) gitignorer {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return gitignorer{}
	}
	var patterns []glob.Glob
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		// Strip the anchoring and trailing slashes; patterns match any path
		// component or the whole path.
		line = strings.Trim(line, "/")
		if g, err := glob.Compile(line, '/'); err == nil {
			patterns = append(patterns, g)
		}
	}
	return gitignorer{patterns: patterns}
}

// isIgnored checks whether a slash-separated relative path matches any
// .gitignore pattern.
func (g gitignorer) isIgnored(rel string) bool {
	if len(g.patterns) == 0 {
		return false
	}
	parts := strings.Split(rel, "/")
	for _, pattern := range g.patterns {
		if pattern.Match(rel) {
			return true
		}
		for _, part := range parts {
			if pattern.Match(part) {
				return true
			}
		}
	}
	return false
}
