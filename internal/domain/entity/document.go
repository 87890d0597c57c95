// Package entity defines the domain types shared by the normalization and
// summarization use cases.
package entity

import (
	"strings"
	"unicode/utf8"
)

// DefaultSource is the provenance label used when the caller supplies none.
const DefaultSource = "local"

// Document is an immutable unit of text plus the label of where it came from.
// The zero value is not a valid document; use NewDocument.
type Document struct {
	content string
	source  string
}

// NewDocument creates a Document from raw content.
// Content made only of whitespace is rejected with ErrInvalidInput.
// An empty source falls back to DefaultSource.
func NewDocument(content, source string) (Document, error) {
	if strings.TrimSpace(content) == "" {
		return Document{}, emptyContent()
	}
	if source == "" {
		source = DefaultSource
	}
	return Document{content: content, source: source}, nil
}

// Content returns the document text.
func (d Document) Content() string {
	return d.content
}

// Source returns the provenance label.
func (d Document) Source() string {
	return d.source
}

// Len returns the number of Unicode characters in the content.
func (d Document) Len() int {
	return utf8.RuneCountInString(d.content)
}

// Validate reports whether d was built through NewDocument.
func (d Document) Validate() error {
	if strings.TrimSpace(d.content) == "" {
		return emptyContent()
	}
	return nil
}
