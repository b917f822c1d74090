package source

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MIME types of the built-in decoders.
const (
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeHTML     = "text/html"
	MimeCSV      = "text/csv"
)

// Decoder turns one container format into a Document.
type Decoder interface {
	// Decode decodes content read from filename.
	Decode(filename string, content []byte) (*Document, error)

	// CanDecode returns true if this decoder handles the given MIME type.
	CanDecode(mimeType string) bool

	// MimeType returns the primary MIME type for this decoder.
	MimeType() string
}

// Registry manages decoders.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder // keyed by primary MIME type
}

// DefaultRegistry is the global registry with the built-in decoders.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a registry with the built-in decoders.
func NewRegistry() *Registry {
	r := &Registry{
		decoders: make(map[string]Decoder),
	}

	r.Register(NewTextDecoder())
	r.Register(NewMarkdownDecoder())
	r.Register(NewHTMLDecoder())
	r.Register(NewCSVDecoder())

	return r
}

// Register adds a decoder, replacing any with the same primary MIME type.
func (r *Registry) Register(d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[d.MimeType()] = d
}

// GetByMimeType returns a decoder for the given MIME type, or nil.
func (r *Registry) GetByMimeType(mimeType string) Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.decoders[mimeType]; ok {
		return d
	}
	for _, key := range r.sortedKeys() {
		if d := r.decoders[key]; d.CanDecode(mimeType) {
			return d
		}
	}
	return nil
}

// GetByExtension returns a decoder for a file based on its extension.
func (r *Registry) GetByExtension(filename string) Decoder {
	return r.GetByMimeType(MimeTypeFromExtension(filepath.Ext(filename)))
}

// Decode decodes a file with the decoder for its extension. Unknown formats
// fail with ErrUnsupportedFormat.
func (r *Registry) Decode(filename string, content []byte) (*Document, error) {
	d := r.GetByExtension(filename)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	return d.Decode(filename, content)
}

// DecodeAs decodes content with the decoder for an explicit MIME type.
func (r *Registry) DecodeAs(mimeType, filename string, content []byte) (*Document, error) {
	d := r.GetByMimeType(mimeType)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	return d.Decode(filename, content)
}

// Supports reports whether a file extension has a decoder.
func (r *Registry) Supports(filename string) bool {
	return r.GetByExtension(filename) != nil
}

// ListMimeTypes returns all registered MIME types, sorted.
func (r *Registry) ListMimeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedKeys()
}

func (r *Registry) sortedKeys() []string {
	keys := make([]string, 0, len(r.decoders))
	for k := range r.decoders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MimeTypeFromExtension returns the MIME type for a file extension.
func MimeTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".txt", ".text", ".req":
		return MimeText
	case ".md", ".markdown":
		return MimeMarkdown
	case ".html", ".htm":
		return MimeHTML
	case ".csv":
		return MimeCSV
	case ".tsv":
		return MimeTSV
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
