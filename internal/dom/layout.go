package dom

import (
	"strings"
	"sync"

	"github.com/rivo/uniseg"
	"golang.org/x/net/html"

	"github.com/dshills/speedmark/internal/highlight"
	"github.com/dshills/speedmark/internal/processor"
	"github.com/dshills/speedmark/internal/viewport"
)

// Run is a stretch of block text sharing one presentation.
type Run struct {
	Text   string
	Marked bool
	Style  highlight.Style
}

// Line is one wrapped row of a laid-out element.
type Line struct {
	Tag  string
	Runs []Run
}

// layoutTags are the elements laid out as rows of their own.
var layoutTags = []string{
	"p", "h1", "h2", "h3", "h4", "h5", "h6",
	"li", "td", "th", "pre", "blockquote", "hr",
}

// Runs flattens the text below n into runs, splitting at marker spans.
func Runs(n *html.Node) []Run {
	var out []Run
	var visit func(n *html.Node, marked bool, style highlight.Style)
	visit = func(n *html.Node, marked bool, style highlight.Style) {
		switch n.Type {
		case html.TextNode:
			if n.Data == "" {
				return
			}
			if k := len(out) - 1; k >= 0 && out[k].Marked == marked && out[k].Style == style {
				out[k].Text += n.Data
				return
			}
			out = append(out, Run{Text: n.Data, Marked: marked, Style: style})
			return
		case html.ElementNode:
			if n.Data == "span" {
				if class, ok := attr(n, "class"); ok {
					if s, ok := highlight.StyleFromClass(class); ok {
						marked, style = true, s
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, marked, style)
		}
	}
	visit(n, false, highlight.StyleBold)
	return out
}

// lineRanges computes the byte ranges of text occupying each row when
// wrapped to width columns. Lines break at Unicode line-break
// opportunities; a segment wider than a whole row is split at grapheme
// boundaries. Mandatory breaks are excluded from the ranges.
func lineRanges(text string, width int) [][2]int {
	if width < 1 {
		width = 1
	}
	var ranges [][2]int
	start, cols, pos := 0, 0, 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var seg string
		var mustBreak bool
		seg, rest, mustBreak, state = uniseg.FirstLineSegmentInString(rest, state)
		segStart := pos
		pos += len(seg)

		body := seg
		if mustBreak {
			body = strings.TrimRight(seg, "\r\n\v\f\u0085\u2028\u2029")
		}
		w := uniseg.StringWidth(strings.TrimRight(body, " "))

		if cols > 0 && cols+w > width {
			ranges = append(ranges, [2]int{start, segStart})
			start, cols = segStart, 0
		}
		if w > width {
			// Hard-split an over-long segment.
			g := -1
			off := segStart
			for s := body; len(s) > 0; {
				var cluster string
				var cw int
				cluster, s, cw, g = uniseg.FirstGraphemeClusterInString(s, g)
				if cols > 0 && cols+cw > width {
					ranges = append(ranges, [2]int{start, off})
					start, cols = off, 0
				}
				cols += cw
				off += len(cluster)
			}
		} else {
			cols += uniseg.StringWidth(body)
		}

		if mustBreak {
			ranges = append(ranges, [2]int{start, segStart + len(body)})
			start, cols = pos, 0
		}
	}
	if start < len(text) || len(ranges) == 0 {
		ranges = append(ranges, [2]int{start, len(text)})
	}
	return ranges
}

// Wrap splits runs into rows of at most width columns.
func Wrap(runs []Run, width int) [][]Run {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	text := b.String()

	ranges := lineRanges(text, width)
	lines := make([][]Run, 0, len(ranges))
	for _, rg := range ranges {
		var line []Run
		off := 0
		for _, r := range runs {
			lo, hi := off, off+len(r.Text)
			off = hi
			if hi <= rg[0] || lo >= rg[1] {
				continue
			}
			from, to := max(lo, rg[0]), min(hi, rg[1])
			line = append(line, Run{Text: r.Text[from-lo : to-lo], Marked: r.Marked, Style: r.Style})
		}
		lines = append(lines, line)
	}
	return lines
}

// item is one laid-out element.
type item struct {
	n    *html.Node
	top  int
	rows int
}

// Page lays a document out into terminal rows and exposes it as a
// scrollable container of blocks.
type Page struct {
	mu    sync.Mutex
	doc   *Document
	vp    *viewport.Viewport
	width int
	items []item
	spans map[*html.Node]viewport.Span
}

// NewPage lays doc out for a width x height screen.
func NewPage(doc *Document, width, height int) *Page {
	p := &Page{
		doc:   doc,
		vp:    viewport.NewViewport(float64(height)),
		width: width,
	}
	p.relayout()
	return p
}

// Document returns the laid-out document.
func (p *Page) Document() *Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// Viewport returns the page's scroll state.
func (p *Page) Viewport() *viewport.Viewport { return p.vp }

// SetDocument replaces the document, keeping the scroll position where
// the new content allows.
func (p *Page) SetDocument(doc *Document) {
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	p.relayout()
}

// Resize changes the page dimensions.
func (p *Page) Resize(width, height int) {
	p.mu.Lock()
	p.width = width
	p.mu.Unlock()
	p.vp.Resize(float64(height))
	p.relayout()
}

// layoutItems returns the elements laid out as rows, in document order.
func layoutItems(container *html.Node) []*html.Node {
	var out []*html.Node
	walk(container, func(n *html.Node) bool {
		if !isElement(n, layoutTags...) {
			return true
		}
		if n.Data != "pre" {
			inner := find(n, func(c *html.Node) bool {
				return c != n && isElement(c, layoutTags...)
			})
			if inner != nil {
				return true
			}
		}
		out = append(out, n)
		return false
	})
	return out
}

func (p *Page) relayout() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = p.items[:0]
	p.spans = make(map[*html.Node]viewport.Span)
	top := 0
	for _, n := range layoutItems(p.doc.container) {
		rows := len(lineRanges(textContent(n), p.width))
		p.items = append(p.items, item{n: n, top: top, rows: rows})
		p.spans[n] = viewport.Span{Top: float64(top), Bottom: float64(top + rows)}
		top += rows + 1
	}
	p.vp.SetContentHeight(float64(top))
}

// Geometry returns the current scroll geometry.
func (p *Page) Geometry() viewport.Geometry {
	return p.vp.Geometry()
}

// Blocks returns the document's eligible blocks.
func (p *Page) Blocks() []processor.Block {
	return asBlocks(p.Document().Blocks())
}

// Marked returns the blocks carrying the processed flag.
func (p *Page) Marked() []processor.Block {
	return asBlocks(p.Document().Marked())
}

// Span returns the rows a block occupies. Blocks nested inside a laid-out
// element report that element's span; blocks outside the page are
// viewport.Unplaced.
func (p *Page) Span(b processor.Block) viewport.Span {
	db, ok := b.(*Block)
	if !ok {
		return viewport.Unplaced
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for n := db.n; n != nil; n = n.Parent {
		if s, ok := p.spans[n]; ok {
			return s
		}
	}
	return viewport.Unplaced
}

// ClearAll removes every highlight from the document.
func (p *Page) ClearAll() int {
	return p.Document().ClearAll()
}

// SetHighlightColor records the highlight color on the document.
func (p *Page) SetHighlightColor(color string) {
	p.Document().SetHighlightColor(color)
}

// Lines returns every row of the page. Blank separator rows are
// returned as empty lines.
func (p *Page) Lines() []Line {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Line
	for _, it := range p.items {
		rows := Wrap(Runs(it.n), p.width)
		for i := 0; i < it.rows; i++ {
			var runs []Run
			if i < len(rows) {
				runs = rows[i]
			}
			out = append(out, Line{Tag: it.n.Data, Runs: runs})
		}
		out = append(out, Line{})
	}
	return out
}

func asBlocks(in []*Block) []processor.Block {
	out := make([]processor.Block, len(in))
	for i, b := range in {
		out[i] = b
	}
	return out
}
