package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/speedmark/internal/highlight"
)

// Class names and attributes the document carries.
const (
	// ProcessedClass flags a block that currently holds highlights.
	ProcessedClass = "speedmark-processed"
	// ContainerClass marks the preview root rendered by the host.
	ContainerClass = "markdown-preview-view"
	// ColorAttr carries the highlight color on the container root.
	ColorAttr = "data-highlight-color"
)

// ErrNoContainer is returned when a document has neither a preview root
// nor a body element.
var ErrNoContainer = errors.New("document has no content container")

// Document is a parsed HTML document.
type Document struct {
	root      *html.Node
	container *html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	container := find(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, ContainerClass)
	})
	if container == nil {
		container = find(root, func(n *html.Node) bool {
			return isElement(n, "body")
		})
	}
	if container == nil {
		return nil, ErrNoContainer
	}
	return &Document{root: root, container: container}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Blocks returns the eligible content blocks in document order,
// processed or not.
func (d *Document) Blocks() []*Block {
	return Enumerate(d.container)
}

// Marked returns every block carrying the processed flag.
func (d *Document) Marked() []*Block {
	var out []*Block
	walk(d.container, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, ProcessedClass) {
			out = append(out, &Block{n: n})
		}
		return true
	})
	return out
}

// ClearAll removes every marker span in the container, unwrapping its
// text back into the parent, drops all processed flags and merges the
// text nodes left behind. It returns the number of spans removed.
func (d *Document) ClearAll() int {
	var spans, flagged []*html.Node
	walk(d.container, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if hasClass(n, ProcessedClass) {
			flagged = append(flagged, n)
		}
		if n.Data == "span" {
			if class, ok := attr(n, "class"); ok && highlight.IsMarkerClass(class) {
				spans = append(spans, n)
			}
		}
		return true
	})
	for _, n := range spans {
		unwrap(n)
	}
	for _, n := range flagged {
		removeClass(n, ProcessedClass)
	}
	if len(spans) > 0 {
		normalize(d.container)
	}
	return len(spans)
}

// SetHighlightColor records the color on the container root for the
// host's stylesheet.
func (d *Document) SetHighlightColor(color string) {
	if color == "" {
		removeAttr(d.container, ColorAttr)
		return
	}
	setAttr(d.container, ColorAttr, color)
}

// HighlightColor returns the color recorded on the container root.
func (d *Document) HighlightColor() string {
	v, _ := attr(d.container, ColorAttr)
	return v
}

// Render writes the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the whole document, returning "" on error.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// ContainerHTML renders the children of the container only.
func (d *Document) ContainerHTML() string {
	var buf bytes.Buffer
	for c := d.container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}
