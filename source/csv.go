package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MimeTSV is the MIME type of tab separated exports.
const MimeTSV = "text/tab-separated-values"

// Header names that mark the requirement text column, in priority order.
var textColumns = []string{"requirement", "requirement text", "description", "text", "statement"}

// CSVDecoder decodes requirement-tool table exports. Each row becomes one
// line of the text column: the first header matching a known requirement
// column, else the first column. Without a recognizable header every row
// is data.
type CSVDecoder struct{}

// NewCSVDecoder creates a CSV/TSV decoder.
func NewCSVDecoder() *CSVDecoder {
	return &CSVDecoder{}
}

// Decode reads all records and emits the text column.
func (d *CSVDecoder) Decode(filename string, content []byte) (*Document, error) {
	mimeType := MimeCSV
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\ufeff"))))
	if strings.EqualFold(filepath.Ext(filename), ".tsv") {
		mimeType = MimeTSV
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, filename, err)
		}
		rows = append(rows, record)
	}

	doc := newDocument(filename, mimeType, content)
	if len(rows) == 0 {
		return doc, nil
	}

	column, header := textColumn(rows[0])
	if header {
		rows = rows[1:]
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if column >= len(row) {
			continue
		}
		cell := strings.Join(strings.Fields(row[column]), " ")
		if cell != "" {
			lines = append(lines, cell)
		}
	}
	doc.Text = strings.Join(lines, "\n")
	return doc, nil
}

// CanDecode returns true if this decoder can handle the given MIME type.
func (d *CSVDecoder) CanDecode(mimeType string) bool {
	switch mimeType {
	case MimeCSV, MimeTSV, "application/csv":
		return true
	default:
		return false
	}
}

// MimeType returns the primary MIME type for this decoder.
func (d *CSVDecoder) MimeType() string {
	return MimeCSV
}

// textColumn picks the requirement column from the first row and reports
// whether that row is a header.
func textColumn(first []string) (int, bool) {
	keys := make([]string, len(first))
	for i, cell := range first {
		keys[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	for _, want := range textColumns {
		for i, key := range keys {
			if key == want {
				return i, true
			}
		}
	}
	return 0, false
}
