// Package source decodes requirement containers (plain text, markdown, HTML,
// CSV exports) into the UTF-8 text stream consumed by the extractor, finds
// input files and watches them for changes.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when no decoder handles an input.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Document is a decoded input.
type Document struct {
	// Filename is the base name of the input.
	Filename string `json:"filename"`

	// MimeType is the type the input was decoded as.
	MimeType string `json:"mime_type"`

	// Title is taken from frontmatter, an HTML title or the first heading.
	Title string `json:"title,omitempty"`

	// Frontmatter holds YAML frontmatter of markdown inputs.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`

	// Text is the decoded stream, one requirement candidate per line.
	Text string `json:"text"`

	// Hash is the SHA-256 of the raw content.
	Hash string `json:"hash"`
}

// Source returns the requirement source label: the frontmatter "source" key
// when present, else the filename.
func (d *Document) Source() string {
	if v, ok := d.Frontmatter["source"].(string); ok && v != "" {
		return v
	}
	return d.Filename
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func newDocument(filename, mimeType string, content []byte) *Document {
	return &Document{
		Filename: filepath.Base(filename),
		MimeType: mimeType,
		Hash:     ContentHash(content),
	}
}

// normalizeText strips a UTF-8 BOM and unifies line endings.
func normalizeText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
