package source

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
)

// The converter escapes markdown characters in text; identifiers such as
// sensor_swc must survive verbatim.
var unescaper = strings.NewReplacer(`\_`, "_", `\*`, "*", `\#`, "#", `\-`, "-", `\+`, "+", `\.`, ".")

// Elements that never carry requirement text.
var (
	chromeTags = []string{
		"nav", "header", "footer", "aside", "script", "style", "noscript",
		"iframe", "object", "embed", "form", "input", "button",
	}
	chromeClasses = []string{
		"nav", "navbar", "navigation", "sidebar", "menu", "toc",
		"table-of-contents", "footer", "header", "breadcrumb",
	}
)

// HTMLDecoder converts HTML exports (requirement tools, wiki pages) to
// markdown, then flattens it like MarkdownDecoder.
type HTMLDecoder struct {
	converter *md.Converter
}

// NewHTMLDecoder creates an HTML decoder.
func NewHTMLDecoder() *HTMLDecoder {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &HTMLDecoder{converter: converter}
}

// Decode converts the main content area of the page.
func (d *HTMLDecoder) Decode(filename string, content []byte) (*Document, error) {
	doc := newDocument(filename, MimeHTML, content)

	root, err := html.Parse(strings.NewReader(string(content)))
	var cleaned string
	if err != nil {
		cleaned = styleRe.ReplaceAllString(scriptRe.ReplaceAllString(string(content), ""), "")
	} else {
		doc.Title = htmlTitle(root)
		cleaned = mainContent(root)
	}

	markdown, err := d.converter.ConvertString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", filename, err)
	}

	text, heading := markdownText(unescaper.Replace(normalizeText(markdown)))
	if doc.Title == "" {
		doc.Title = heading
	}
	doc.Text = text
	return doc, nil
}

// CanDecode returns true if this decoder can handle the given MIME type.
func (d *HTMLDecoder) CanDecode(mimeType string) bool {
	return mimeType == MimeHTML || mimeType == "application/xhtml+xml"
}

// MimeType returns the primary MIME type for this decoder.
func (d *HTMLDecoder) MimeType() string {
	return MimeHTML
}

func htmlTitle(root *html.Node) string {
	if n := findElement(root, func(n *html.Node) bool { return n.Data == "title" }); n != nil && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	return ""
}

// mainContent renders <main>, <article> or [role=main] when present, else
// the body with navigation chrome removed.
func mainContent(root *html.Node) string {
	for _, match := range []func(*html.Node) bool{
		func(n *html.Node) bool { return n.Data == "main" },
		func(n *html.Node) bool { return n.Data == "article" },
		func(n *html.Node) bool { return attr(n, "role") == "main" },
	} {
		if n := findElement(root, match); n != nil {
			return renderNode(n)
		}
	}

	tags := toSet(chromeTags)
	classes := toSet(chromeClasses)
	removeMatching(root, func(n *html.Node) bool {
		if tags[n.Data] {
			return true
		}
		for _, c := range strings.Fields(strings.ToLower(attr(n, "class"))) {
			if classes[c] {
				return true
			}
		}
		return false
	})

	if body := findElement(root, func(n *html.Node) bool { return n.Data == "body" }); body != nil {
		return renderNode(body)
	}
	return renderNode(root)
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func removeMatching(n *html.Node, match func(*html.Node) bool) {
	var doomed []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && match(node) {
			doomed = append(doomed, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range doomed {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func renderNode(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}
