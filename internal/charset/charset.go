// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package charset resolves charset names and decodes raw file bytes into
// UTF-8 text ready for scanning. Undecodable input becomes U+FFFD so the
// scanner can report it.
package charset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Default is the charset used when none is configured.
const Default = "UTF-8"

// ErrUnsupportedCharset is returned for charset names with no known decoder.
var ErrUnsupportedCharset = errors.New("unsupported charset")

// Resolve returns the encoding for name. Names follow the WHATWG encoding
// labels ("utf-8", "iso-8859-1", "windows-1252", "utf-16le", ...), matched
// case-insensitively. An empty name resolves to UTF-8.
func Resolve(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, Default) {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, name)
	}
	return enc, nil
}

// Canonical returns the canonical name of the charset name resolves to.
func Canonical(name string) (string, error) {
	enc, err := Resolve(name)
	if err != nil {
		return "", err
	}
	if enc == unicode.UTF8 {
		return Default, nil
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		return name, nil
	}
	return strings.ToUpper(canonical), nil
}

// Decode converts content to UTF-8. A leading byte order mark overrides the
// configured charset and is stripped.
func Decode(content []byte, name string) (string, error) {
	enc, err := Resolve(name)
	if err != nil {
		return "", err
	}
	dec := unicode.BOMOverride(enc.NewDecoder())
	out, _, err := transform.Bytes(dec, content)
	if err != nil {
		return "", fmt.Errorf("decoding %s content: %w", name, err)
	}
	return string(out), nil
}
