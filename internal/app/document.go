package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dshills/speedmark/internal/dom"
	"github.com/dshills/speedmark/internal/markdown"
)

// Document is a markdown file rendered for reading.
type Document struct {
	// Path identifies the file to the filters.
	Path string

	// Name is the display name.
	Name string

	renderer *markdown.Renderer

	mu       sync.RWMutex
	source   []byte
	rendered *markdown.Document
	page     *dom.Page

	// version counts renders, starting at 1.
	version atomic.Int64
}

// LoadDocument reads and renders the markdown file at path into a page of
// the given size.
func LoadDocument(path string, r *markdown.Renderer, width, height int) (*Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, NewOperationError("load", path, err)
	}
	return NewDocument(path, source, r, width, height)
}

// NewDocument renders source as the content of path.
func NewDocument(path string, source []byte, r *markdown.Renderer, width, height int) (*Document, error) {
	if r == nil {
		r = markdown.NewRenderer()
	}
	d := &Document{
		Path:     filepath.ToSlash(filepath.Clean(path)),
		Name:     filepath.Base(path),
		renderer: r,
	}
	if path == "" {
		d.Path, d.Name = "", "Untitled"
	}

	rendered, tree, err := d.render(source)
	if err != nil {
		return nil, err
	}
	d.source = source
	d.rendered = rendered
	d.page = dom.NewPage(tree, width, height)
	d.version.Store(1)
	return d, nil
}

func (d *Document) render(source []byte) (*markdown.Document, *dom.Document, error) {
	rendered, err := d.renderer.Render(source)
	if err != nil {
		return nil, nil, NewOperationError("render", d.Path, err)
	}
	color := ""
	if rendered.Overrides.Color != nil {
		color = *rendered.Overrides.Color
	}
	page, err := markdown.Page(d.Name, color, rendered.HTML)
	if err != nil {
		return nil, nil, NewOperationError("render", d.Path, err)
	}
	tree, err := dom.ParseString(page)
	if err != nil {
		return nil, nil, NewOperationError("parse", d.Path, err)
	}
	return rendered, tree, nil
}

// Reload re-renders the document from new source. The page keeps its size
// and scroll position; all highlights are gone afterwards.
func (d *Document) Reload(source []byte) error {
	rendered, tree, err := d.render(source)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.source = source
	d.rendered = rendered
	d.page.SetDocument(tree)
	d.mu.Unlock()

	d.version.Add(1)
	return nil
}

// ReloadFile re-reads the document from disk.
func (d *Document) ReloadFile() error {
	if d.Path == "" {
		return NewOperationError("reload", d.Name, errors.New("document has no file"))
	}
	source, err := os.ReadFile(filepath.FromSlash(d.Path))
	if err != nil {
		return NewOperationError("reload", d.Path, err)
	}
	return d.Reload(source)
}

// Version returns the render count.
func (d *Document) Version() int64 {
	return d.version.Load()
}

// Source returns the markdown source.
func (d *Document) Source() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.source
}

// Page returns the laid-out page.
func (d *Document) Page() *dom.Page {
	return d.page
}

// View describes the document to the controller.
func (d *Document) View() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return View{
		Kind:      KindRenderedDocument,
		Path:      d.Path,
		Content:   string(d.rendered.Body),
		Overrides: d.rendered.Overrides,
		Container: d.page,
	}
}
