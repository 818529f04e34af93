package app

import (
	"github.com/dshills/speedmark/internal/config"
	"github.com/dshills/speedmark/internal/processor"
	"github.com/dshills/speedmark/internal/viewport"
)

// Kind tags what a host view shows.
type Kind uint8

const (
	// KindOther is any view that is not a rendered document: editors,
	// graphs, settings panes.
	KindOther Kind = iota
	// KindRenderedDocument is a read-mode rendering with a container.
	KindRenderedDocument
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindRenderedDocument {
		return "rendered"
	}
	return "other"
}

// Container is what the host exposes of a rendered document.
type Container interface {
	// Geometry returns the scroll offset and visible height.
	Geometry() viewport.Geometry
	// Blocks enumerates the eligible content blocks in document order.
	Blocks() []processor.Block
	// Span returns a block's vertical extent in scroll coordinates.
	Span(b processor.Block) viewport.Span
	// Marked returns every block carrying the processed flag.
	Marked() []processor.Block
	// ClearAll removes every marker in the document and returns how many
	// were removed.
	ClearAll() int
	// SetHighlightColor publishes the highlight color to the host styles.
	SetHighlightColor(color string)
}

// View is a host view as seen by the controller.
type View struct {
	Kind Kind
	// Path identifies the document, relative to the vault or working
	// directory root.
	Path string
	// Content is the document source, used by the length filter.
	Content string
	// Overrides are the document's own settings.
	Overrides config.Overrides
	// Container is set for rendered documents.
	Container Container
}

// Rendered reports whether the view shows a rendered document.
func (v View) Rendered() bool {
	return v.Kind == KindRenderedDocument && v.Container != nil
}
