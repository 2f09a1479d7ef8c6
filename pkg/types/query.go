// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the philquery front end:
// query modes, citation records, corpus source descriptors, the per-query
// result aggregate, and configuration.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// QueryMode selects which formatter and which citation-parsing path applies
// to a query. It does not change for the duration of one query cycle.
type QueryMode string

const (
	// ModeUnderstanding asks for a synthesized explanatory answer.
	ModeUnderstanding QueryMode = "understanding"

	// ModeRetrieval asks for literal passages with per-source citations.
	ModeRetrieval QueryMode = "retrieval"
)

// ErrInvalidMode is returned when a string does not name a QueryMode.
var ErrInvalidMode = errors.New("invalid query mode")

// ErrInvalidChunkCount is returned when a chunk count is outside
// [MinChunkCount, MaxChunkCount].
var ErrInvalidChunkCount = errors.New("invalid chunk count")

// Chunk count bounds. The count is passed through to the backend and
// controls how many context passages it retrieves.
const (
	MinChunkCount     = 1
	MaxChunkCount     = 10
	DefaultChunkCount = 5
)

// ParseQueryMode converts s (case-insensitive, surrounding space ignored)
// to a QueryMode.
func ParseQueryMode(s string) (QueryMode, error) {
	switch QueryMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeUnderstanding:
		return ModeUnderstanding, nil
	case ModeRetrieval:
		return ModeRetrieval, nil
	}
	return "", fmt.Errorf("%w %q: use understanding or retrieval", ErrInvalidMode, s)
}

// Valid reports whether m is one of the defined modes.
func (m QueryMode) Valid() bool {
	return m == ModeUnderstanding || m == ModeRetrieval
}

// ValidateChunkCount returns ErrInvalidChunkCount when n is out of range.
func ValidateChunkCount(n int) error {
	if n < MinChunkCount || n > MaxChunkCount {
		return fmt.Errorf("%w %d: must be between %d and %d", ErrInvalidChunkCount, n, MinChunkCount, MaxChunkCount)
	}
	return nil
}

// ClampChunkCount forces n into [MinChunkCount, MaxChunkCount].
func ClampChunkCount(n int) int {
	if n < MinChunkCount {
		return MinChunkCount
	}
	if n > MaxChunkCount {
		return MaxChunkCount
	}
	return n
}

// UnresolvedURL is the placeholder URL for citations whose source location
// is unknown. It is always set explicitly, never left empty.
const UnresolvedURL = "#"

// CitationRecord is a validated reference to a source text consulted for an
// answer. Records are never mutated after the parser creates them.
type CitationRecord struct {
	// ID is the backend's citation identifier (numeric ids are kept as
	// their decimal string). Empty when the encoding carries none.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Title is the source title. Always non-empty.
	Title string `json:"title" yaml:"title"`

	// Author is the source author, if known.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Excerpt is a short quoted passage from the source.
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`

	// FullText is the complete retrieved passage.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// URL locates the source online, or UnresolvedURL.
	URL string `json:"url" yaml:"url"`
}

// Resolved reports whether the record carries a usable URL.
func (c CitationRecord) Resolved() bool {
	return c.URL != "" && c.URL != UnresolvedURL
}

// AvailableSource describes one text of the corpus, independent of any
// query. The wire name of Title follows the backend's source_title field.
type AvailableSource struct {
	Title  string `json:"source_title" yaml:"source_title"`
	Author string `json:"author" yaml:"author"`
	URL    string `json:"url" yaml:"url"`
}

// Valid reports whether every field is non-empty.
func (s AvailableSource) Valid() bool {
	return strings.TrimSpace(s.Title) != "" &&
		strings.TrimSpace(s.Author) != "" &&
		strings.TrimSpace(s.URL) != ""
}

// QueryResult is the view of one completed query: the question, the mode it
// ran in, the raw and formatted answer, and the sources consulted.
type QueryResult struct {
	// Query is the question text as submitted.
	Query string `json:"query" yaml:"query"`

	// Mode is the mode the query ran in.
	Mode QueryMode `json:"mode" yaml:"mode"`

	// Answer is the raw answer text returned by the backend.
	Answer string `json:"answer" yaml:"answer"`

	// Markup is the sanitized HTML rendering of Answer.
	Markup string `json:"answer_html" yaml:"answer_html"`

	// Sources lists the citations for this answer in backend order.
	Sources []CitationRecord `json:"sources" yaml:"sources"`

	// CompletedAt is when the backend response was received.
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}
