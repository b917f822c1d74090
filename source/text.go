package source

import (
	"fmt"
	"unicode/utf8"
)

// TextDecoder passes plain UTF-8 text through with normalized line endings.
type TextDecoder struct{}

// NewTextDecoder creates a plain text decoder.
func NewTextDecoder() *TextDecoder {
	return &TextDecoder{}
}

// Decode validates the encoding and normalizes line endings.
func (d *TextDecoder) Decode(filename string, content []byte) (*Document, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedFormat, filename)
	}
	doc := newDocument(filename, MimeText, content)
	doc.Text = normalizeText(string(content))
	return doc, nil
}

// CanDecode returns true if this decoder can handle the given MIME type.
func (d *TextDecoder) CanDecode(mimeType string) bool {
	return mimeType == MimeText
}

// MimeType returns the primary MIME type for this decoder.
func (d *TextDecoder) MimeType() string {
	return MimeText
}
