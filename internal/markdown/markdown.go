// Package markdown turns markdown source into the HTML document the
// highlighter works on, and reads per-document settings from YAML front
// matter.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"

	"github.com/dshills/speedmark/internal/config"
)

// ErrUnterminatedFrontMatter is returned when an opening "---" line has
// no closing delimiter.
var ErrUnterminatedFrontMatter = errors.New("unterminated front matter")

// Document is a rendered markdown file.
type Document struct {
	// Body is the markdown source without front matter.
	Body []byte
	// HTML is the rendered body fragment.
	HTML string
	// Overrides are the per-document settings from front matter.
	Overrides config.Overrides
}

// Renderer converts markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with GitHub-flavoured extensions.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render splits off front matter and renders the rest.
func (r *Renderer) Render(source []byte) (*Document, error) {
	fm, body, err := SplitFrontMatter(source)
	if err != nil {
		return nil, err
	}
	overrides, err := ParseOverrides(fm)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return &Document{Body: body, HTML: buf.String(), Overrides: overrides}, nil
}

// SplitFrontMatter separates a leading YAML block delimited by "---"
// lines from the markdown body. Source without front matter is returned
// unchanged as the body.
func SplitFrontMatter(source []byte) (frontMatter, body []byte, err error) {
	src := bytes.TrimPrefix(source, []byte("\uFEFF"))
	first, rest, ok := cutLine(src)
	if !ok || strings.TrimRight(string(first), " \t\r") != "---" {
		return nil, source, nil
	}

	var fm []byte
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		switch strings.TrimRight(string(line), " \t\r") {
		case "---", "...":
			return fm, next, nil
		}
		fm = append(fm, line...)
		fm = append(fm, '\n')
		rest = next
	}
	return nil, nil, ErrUnterminatedFrontMatter
}

// cutLine splits b after its first line. ok is false if b has no newline.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

type frontMatterDoc struct {
	Speedmark yaml.Node `yaml:"speedmark"`
}

type overrideMap struct {
	Enabled  *bool   `yaml:"enabled"`
	Interval *int    `yaml:"interval"`
	Unit     *string `yaml:"unit"`
	Style    *string `yaml:"style"`
	Color    *string `yaml:"color"`
}

// ParseOverrides reads the speedmark key of a front matter block. The key
// may be a boolean, where false opts the document out, or a map of
// overrides.
func ParseOverrides(frontMatter []byte) (config.Overrides, error) {
	var o config.Overrides
	if len(bytes.TrimSpace(frontMatter)) == 0 {
		return o, nil
	}

	var doc frontMatterDoc
	if err := yaml.Unmarshal(frontMatter, &doc); err != nil {
		return o, fmt.Errorf("parse front matter: %w", err)
	}

	node := &doc.Speedmark
	switch node.Kind {
	case 0:
		return o, nil
	case yaml.ScalarNode:
		var enabled bool
		if err := node.Decode(&enabled); err != nil {
			return o, fmt.Errorf("front matter speedmark: %w", err)
		}
		o.Disabled = !enabled
	case yaml.MappingNode:
		var m overrideMap
		if err := node.Decode(&m); err != nil {
			return o, fmt.Errorf("front matter speedmark: %w", err)
		}
		o.Disabled = m.Enabled != nil && !*m.Enabled
		o.Interval, o.Unit, o.Style, o.Color = m.Interval, m.Unit, m.Style, m.Color
	default:
		return o, fmt.Errorf("front matter speedmark: unexpected %s", kindName(node.Kind))
	}
	return o, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	default:
		return "node"
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
.markdown-preview-view { --speedmark-color: {{.Color}}; }
.speedmark-highlight { font-weight: bold; }
.speedmark-highlight-color { font-weight: normal; color: var(--speedmark-color); }
.speedmark-highlight-underline { font-weight: normal; text-decoration: underline; }
.speedmark-highlight-bold-underline { text-decoration: underline; text-decoration-color: var(--speedmark-color); }
</style>
</head>
<body>
<div class="markdown-preview-view">{{.Body}}</div>
</body>
</html>
`))

// Page wraps a rendered body fragment in a standalone HTML page whose
// preview container is the root the highlighter works in.
func Page(title, color, body string) (string, error) {
	if color == "" {
		color = config.Default().Highlight.Color
	}
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Color template.CSS
		Body  template.HTML
	}{title, template.CSS(color), template.HTML(body)})
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}
