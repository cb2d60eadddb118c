// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

// FlowType tags a flow as a data path or an execution path.
type FlowType string

const (
	FlowUndefined FlowType = ""
	FlowData      FlowType = "DATA"
	FlowExecution FlowType = "EXECUTION"
)

// FlowLocation is one display-ready step of an issue flow.
type FlowLocation struct {
	FilePath  string     `json:"filePath"`  // Display name of the file holding the step
	Message   string     `json:"message,omitempty"`
	TextRange *TextRange `json:"textRange,omitempty"` // Nil when no range was recorded
	Checksum  string     `json:"checksum,omitempty"`
}

// Flow is an ordered sequence of locations describing how a data or control
// path leads to an issue. It may span several files.
type Flow struct {
	Description string         `json:"description,omitempty"`
	Type        FlowType       `json:"type,omitempty"`
	Locations   []FlowLocation `json:"locations"`
}
