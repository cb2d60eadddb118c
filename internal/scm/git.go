// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scm reads working tree state from git so that analysis can be
// limited to the files changed since the last commit.
package scm

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// ErrNoGit is returned when the directory is not inside a git repository.
var ErrNoGit = errors.New("not a git repository")

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo *gogit.Repository
	root string
}

// Open opens the git repository containing dir, searching parent
// directories. Returns ErrNoGit if there is none.
func Open(dir string) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r, root: wt.Filesystem.Root()}, nil
}

// Root returns the work tree root directory.
func (r *Repo) Root() string {
	return r.root
}

// Head returns the hash of the HEAD commit.
func (r *Repo) Head() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// IsDirty returns true if the working tree has uncommitted changes
// (either staged or unstaged).
func (r *Repo) IsDirty() (bool, error) {
	status, err := r.status()
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}

// ChangedFiles returns the slash-separated paths, relative to the work tree
// root, of files that are modified, added, renamed, or untracked. Deleted
// files are left out. The result is sorted.
func (r *Repo) ChangedFiles() ([]string, error) {
	status, err := r.status()
	if err != nil {
		return nil, err
	}
	var paths []string
	for path, s := range status {
		if s.Worktree == gogit.Deleted || (s.Staging == gogit.Deleted && s.Worktree != gogit.Untracked) {
			continue
		}
		if s.Worktree == gogit.Unmodified && s.Staging == gogit.Unmodified {
			continue
		}
		paths = append(paths, filepath.ToSlash(path))
	}
	slices.Sort(paths)
	return paths, nil
}

// ChangedFilesUnder is ChangedFiles restricted to dir, with paths relative
// to dir.
func (r *Repo) ChangedFilesUnder(dir string) ([]string, error) {
	prefix, err := r.relative(dir)
	if err != nil {
		return nil, err
	}
	changed, err := r.ChangedFiles()
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		return changed, nil
	}
	var out []string
	for _, p := range changed {
		if rest, ok := strings.CutPrefix(p, prefix+"/"); ok {
			out = append(out, rest)
		}
	}
	return out, nil
}

// relative returns dir relative to the work tree root, slash-separated, or
// "" for the root itself.
func (r *Repo) relative(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	root := r.root
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the work tree %s", dir, r.root)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

func (r *Repo) status() (gogit.Status, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}
	return status, nil
}
