package source

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Markdown line patterns.
var (
	headingRe     = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	listMarkerRe  = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
	quoteRe       = regexp.MustCompile(`^(?:>\s?)+`)
	tableSepRe    = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(?:\|\s*:?-{3,}:?\s*)*\|?$`)
	inlineMarkRe  = regexp.MustCompile("\\*\\*|`")
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	excessSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// MarkdownDecoder decodes markdown with optional YAML frontmatter. Headings,
// code fences and table separators are dropped; list, quote and inline
// markup is stripped so each remaining line is plain prose.
type MarkdownDecoder struct{}

// NewMarkdownDecoder creates a markdown decoder.
func NewMarkdownDecoder() *MarkdownDecoder {
	return &MarkdownDecoder{}
}

// Decode extracts frontmatter and flattens the body to plain lines.
func (d *MarkdownDecoder) Decode(filename string, content []byte) (*Document, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedFormat, filename)
	}
	doc := newDocument(filename, MimeMarkdown, content)

	str := normalizeText(string(content))
	body := str
	if strings.HasPrefix(str, "---\n") {
		if frontmatter, rest, err := extractFrontmatter(str); err == nil {
			doc.Frontmatter = frontmatter
			body = rest
		}
	}

	if title, ok := doc.Frontmatter["title"].(string); ok {
		doc.Title = title
	}
	text, heading := markdownText(body)
	if doc.Title == "" {
		doc.Title = heading
	}
	doc.Text = text
	return doc, nil
}

// CanDecode returns true if this decoder can handle the given MIME type.
func (d *MarkdownDecoder) CanDecode(mimeType string) bool {
	switch mimeType {
	case MimeMarkdown, "text/x-markdown":
		return true
	default:
		return false
	}
}

// MimeType returns the primary MIME type for this decoder.
func (d *MarkdownDecoder) MimeType() string {
	return MimeMarkdown
}

// extractFrontmatter parses YAML frontmatter from normalized markdown.
// Returns the parsed frontmatter map, the remaining body, and any error.
func extractFrontmatter(content string) (map[string]any, string, error) {
	const delimiter = "---"

	start := len(delimiter) + 1
	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		return nil, content, fmt.Errorf("no closing frontmatter delimiter")
	}
	yamlContent := content[start : start+closeIdx]

	bodyStart := start + closeIdx + 1 + len(delimiter)
	for bodyStart < len(content) && content[bodyStart] == '\n' {
		bodyStart++
	}
	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &frontmatter); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}
	return frontmatter, body, nil
}

// markdownText flattens markdown to one prose line per source line and
// returns the first heading seen.
func markdownText(body string) (string, string) {
	var (
		out     []string
		heading string
		inFence bool
	)
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || tableSepRe.MatchString(trimmed) {
			continue
		}
		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			if heading == "" {
				heading = strings.TrimSpace(m[1])
			}
			continue
		}

		trimmed = quoteRe.ReplaceAllString(trimmed, "")
		trimmed = listMarkerRe.ReplaceAllString(trimmed, "")
		if strings.HasPrefix(trimmed, "|") {
			trimmed = strings.ReplaceAll(strings.Trim(trimmed, "|"), "|", " ")
		}
		trimmed = linkRe.ReplaceAllString(trimmed, "$1")
		trimmed = inlineMarkRe.ReplaceAllString(trimmed, "")
		trimmed = excessSpaceRe.ReplaceAllString(strings.TrimSpace(trimmed), " ")
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n"), heading
}
