package dom

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Block wraps a content element and implements processor.Block.
type Block struct {
	n *html.Node
}

// Node returns the underlying element.
func (b *Block) Node() *html.Node { return b.n }

// Tag returns the element name.
func (b *Block) Tag() string { return b.n.Data }

// Processed reports whether the block carries the processed flag.
func (b *Block) Processed() bool {
	return hasClass(b.n, ProcessedClass)
}

// SetProcessed sets or clears the processed flag.
func (b *Block) SetProcessed(processed bool) {
	if processed {
		addClass(b.n, ProcessedClass)
		return
	}
	removeClass(b.n, ProcessedClass)
}

// Text returns the block's text content.
func (b *Block) Text() string {
	return textContent(b.n)
}

// SetMarkup parses markup in the context of the block element and
// replaces the block's children with the result.
func (b *Block) SetMarkup(markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), b.n)
	if err != nil {
		return fmt.Errorf("parse fragment in <%s>: %w", b.n.Data, err)
	}
	removeChildren(b.n)
	for _, c := range nodes {
		b.n.AppendChild(c)
	}
	return nil
}

// SetText replaces the block's children with plain text.
func (b *Block) SetText(text string) {
	setText(b.n, text)
}

// InnerHTML renders the block's children.
func (b *Block) InnerHTML() string {
	var buf bytes.Buffer
	for c := b.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// Candidate element names.
var candidateTags = []string{"p", "h2", "h3", "h4", "h5", "h6", "li", "td", "th"}

// Elements whose presence makes a block ineligible.
var embedTags = []string{"img", "iframe", "canvas", "svg"}

// Classes that make a block ineligible.
var skipClasses = []string{"code-block", "math", "callout", "dataview"}

// minBlockText is the shortest trimmed text worth highlighting.
const minBlockText = 3

// Enumerate returns the eligible content blocks below container in
// document order. A candidate that contains another candidate is skipped
// in favour of the inner element so no text is processed twice.
func Enumerate(container *html.Node) []*Block {
	var out []*Block
	walk(container, func(n *html.Node) bool {
		if isElement(n, "pre", "code") {
			return false
		}
		if isElement(n, candidateTags...) && eligible(n) {
			out = append(out, &Block{n: n})
		}
		return true
	})
	return out
}

func eligible(n *html.Node) bool {
	if closest(n, "pre", "code") != nil {
		return false
	}
	for _, c := range skipClasses {
		if hasClass(n, c) {
			return false
		}
	}
	text := strings.TrimSpace(textContent(n))
	if utf8.RuneCountInString(text) < minBlockText {
		return false
	}
	nested := find(n, func(c *html.Node) bool {
		if c == n || c.Type != html.ElementNode {
			return false
		}
		return isElement(c, embedTags...) || hasClass(c, "internal-embed") || isElement(c, candidateTags...)
	})
	return nested == nil
}
