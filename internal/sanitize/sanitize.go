// Package sanitize turns highlight-annotated markup into markup that is safe
// to insert into a rendered document.
package sanitize

import (
	"errors"
	"regexp"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dshills/speedmark/internal/highlight"
)

// ErrContentChanged is returned when sanitizing altered the text of the
// markup rather than only its tags.
var ErrContentChanged = errors.New("sanitizer changed text content")

// Sanitizer converts markup into safe renderable markup.
type Sanitizer interface {
	Sanitize(markup string) (string, error)
}

// Func adapts a function to the Sanitizer interface.
type Func func(markup string) (string, error)

// Sanitize calls f.
func (f Func) Sanitize(markup string) (string, error) {
	return f(markup)
}

// markerClass matches the class attribute values Place emits.
var markerClass = regexp.MustCompile(`^speedmark-highlight(\s+speedmark-highlight-(color|underline|bold-underline))?$`)

// Policy is a Sanitizer that keeps marker spans and text, and removes
// everything else.
type Policy struct {
	p *bluemonday.Policy
}

// NewPolicy creates the marker policy.
func NewPolicy() *Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("span")
	p.AllowAttrs("class").Matching(markerClass).OnElements("span")
	p.SkipElementsContent("script", "style")
	return &Policy{p: p}
}

// Sanitize returns markup restricted to marker spans. It fails with
// ErrContentChanged if the visible text of the result differs from the
// input, which happens when the input contained markup outside the policy.
func (p *Policy) Sanitize(markup string) (string, error) {
	out := p.p.Sanitize(markup)
	if highlight.StripMarkers(out) != highlight.StripMarkers(markup) {
		return "", ErrContentChanged
	}
	return out, nil
}

// PlainText is the fallback used when sanitizing fails: all tags are
// removed and the remaining text is unescaped.
func PlainText(markup string) string {
	return highlight.StripMarkers(markup)
}

var _ Sanitizer = (*Policy)(nil)
