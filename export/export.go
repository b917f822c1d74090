// Package export serializes project graphs. Only graphs that pass
// validation are exported.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/swcgen/graph"
)

// Export errors.
var (
	// ErrInvalidGraph is returned when the graph fails validation.
	ErrInvalidGraph = errors.New("graph failed validation")

	// ErrUnknownFormat is returned for an unregistered format name.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Format specifies the output serialization format.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "JSON snapshot of the project graph",
	},
	FormatYAML: {
		Name:        FormatYAML,
		MIMEType:    "application/yaml",
		Extension:   ".yaml",
		Description: "YAML snapshot of the project graph",
	},
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// ParseFormat resolves a format name or file extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "yml":
		return FormatYAML, nil
	case "ttl":
		return FormatTurtle, nil
	case "nt":
		return FormatNTriples, nil
	}
	for f, info := range FormatRegistry {
		if s == string(f) || "."+s == info.Extension || s == info.Extension {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Export validates snap and serializes it.
func Export(snap graph.Snapshot, format Format) ([]byte, error) {
	if _, ok := FormatRegistry[format]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if res := snap.Validate(); !res.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGraph, strings.Join(res.Errors, "; "))
	}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(snap, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTurtle:
		return []byte(NewRDFExporter(snap).Turtle()), nil
	default:
		return []byte(NewRDFExporter(snap).NTriples()), nil
	}
}

// ExportProject exports the current state of p.
func ExportProject(p *graph.Project, format Format) ([]byte, error) {
	return Export(p.Snapshot(), format)
}

// Write exports snap to w.
func Write(w io.Writer, snap graph.Snapshot, format Format) error {
	data, err := Export(snap, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
