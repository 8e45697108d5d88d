// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import "fmt"

// =============================================================================
// BLOCK TYPES
// =============================================================================

// Kind is the variant tag of a Block.
type Kind int

const (
	KindProse Kind = iota
	KindSection
	KindTable
	KindCode
	KindDiagram
	KindFormula
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindProse:
		return "prose"
	case KindSection:
		return "section"
	case KindTable:
		return "table"
	case KindCode:
		return "code"
	case KindDiagram:
		return "diagram"
	case KindFormula:
		return "formula"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DiagramKind distinguishes diagrams that go through the render engine from
// raw box-drawing art that is displayed as is.
type DiagramKind int

const (
	DiagramMermaid DiagramKind = iota
	DiagramBoxDrawing
)

// String returns the name of the diagram kind.
func (d DiagramKind) String() string {
	if d == DiagramBoxDrawing {
		return "box-drawing"
	}
	return "mermaid"
}

// Span is a half-open [Start, End) byte range into the segmented text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Block is one typed region of a document. Only the fields belonging to
// Kind are populated.
type Block struct {
	Kind Kind
	Span Span
	// Raw is the exact source text covered by Span.
	Raw string

	// Section
	Number int
	Title  string

	// Table
	Header []string
	Rows   [][]string

	// Code, Diagram, and Formula share Source. Language is set for Code.
	Language string
	Source   string

	// Diagram
	DiagramKind DiagramKind
	Grammar     string

	// Formula
	Display bool

	// Open is set for a fence that has not been closed yet, which happens
	// while a response is still streaming.
	Open bool
}

// IsBlank reports whether the block is prose containing only whitespace.
func (b Block) IsBlank() bool {
	if b.Kind != KindProse {
		return false
	}
	for _, r := range b.Raw {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
