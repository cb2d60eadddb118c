// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(FileErrors.WithLabelValues(KindTooLarge))
	FileErrors.WithLabelValues(KindTooLarge).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(FileErrors.WithLabelValues(KindTooLarge)))

	lines := testutil.ToFloat64(LinesScanned)
	LinesScanned.Add(42)
	assert.Equal(t, lines+42, testutil.ToFloat64(LinesScanned))
}

func TestWriteTextfile(t *testing.T) {
	SymbolsDeclared.WithLabelValues("go").Inc()
	path := filepath.Join(t.TempDir(), "xref.prom")

	require.NoError(t, WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `xref_symbols_declared_total{language="go"}`)

	assert.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")))
}
