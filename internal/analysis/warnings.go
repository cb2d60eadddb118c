// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package analysis

import (
	"log/slog"
	"sync"
)

// Warnings collects user-facing warnings from concurrent analysis workers.
// Each distinct message is kept once, in arrival order. The zero value is
// ready to use.
type Warnings struct {
	mu   sync.Mutex
	seen map[string]bool
	msgs []string
}

// NewWarnings returns an empty collector.
func NewWarnings() *Warnings {
	return &Warnings{seen: make(map[string]bool)}
}

// AddUnique records msg unless it was already recorded. It implements
// metadata.WarningSink.
func (w *Warnings) AddUnique(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[msg] {
		return
	}
	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	w.seen[msg] = true
	w.msgs = append(w.msgs, msg)
	slog.Warn(msg)
}

// List returns the recorded warnings.
func (w *Warnings) List() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.msgs))
	copy(out, w.msgs)
	return out
}
