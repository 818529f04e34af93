// Package highlight places emphasis markers on every Nth unit of a
// segmented text.
//
// Placement is a pure function of the unit sequence and the settings: a
// running count of non-separator units is kept and each unit whose
// 1-based position is a multiple of the interval is wrapped in a span
// carrying a style-derived class. Colors are never emitted inline; hosts
// style the classes themselves.
package highlight

import (
	"html"
	"regexp"
	"strings"

	"github.com/dshills/speedmark/internal/segment"
)

// Marker class names.
const (
	ClassBase          = "speedmark-highlight"
	ClassColor         = "speedmark-highlight-color"
	ClassUnderline     = "speedmark-highlight-underline"
	ClassBoldUnderline = "speedmark-highlight-bold-underline"
)

// Style is the visual treatment of a highlighted unit.
type Style uint8

const (
	StyleBold Style = iota
	StyleColor
	StyleUnderline
	StyleBoldUnderline
)

// String returns the settings name of the style.
func (s Style) String() string {
	switch s {
	case StyleBold:
		return "bold"
	case StyleColor:
		return "color"
	case StyleUnderline:
		return "underline"
	case StyleBoldUnderline:
		return "bold_underline"
	default:
		return "unknown"
	}
}

// ParseStyle parses a settings name into a Style.
func ParseStyle(s string) (Style, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bold":
		return StyleBold, true
	case "color", "colour":
		return StyleColor, true
	case "underline":
		return StyleUnderline, true
	case "bold_underline", "bold-underline":
		return StyleBoldUnderline, true
	default:
		return StyleBold, false
	}
}

// UsesColor reports whether the style is rendered with the highlight color.
func (s Style) UsesColor() bool {
	return s == StyleColor || s == StyleBoldUnderline
}

// ClassName returns the class attribute value for the style.
func (s Style) ClassName() string {
	switch s {
	case StyleColor:
		return ClassBase + " " + ClassColor
	case StyleUnderline:
		return ClassBase + " " + ClassUnderline
	case StyleBoldUnderline:
		return ClassBase + " " + ClassBoldUnderline
	default:
		return ClassBase
	}
}

// StyleFromClass recovers the style from a marker class attribute.
func StyleFromClass(class string) (Style, bool) {
	var base bool
	style := StyleBold
	for _, c := range strings.Fields(class) {
		switch c {
		case ClassBase:
			base = true
		case ClassColor:
			style = StyleColor
		case ClassUnderline:
			style = StyleUnderline
		case ClassBoldUnderline:
			style = StyleBoldUnderline
		}
	}
	return style, base
}

// IsMarkerClass reports whether class names any of the marker classes.
func IsMarkerClass(class string) bool {
	for _, c := range strings.Fields(class) {
		switch c {
		case ClassBase, ClassColor, ClassUnderline, ClassBoldUnderline:
			return true
		}
	}
	return false
}

// Settings is the immutable input of one placement pass.
type Settings struct {
	IntervalType  segment.Mode
	IntervalValue int
	Style         Style
	// Color only matters for color-based styles and is applied by the host.
	Color string
}

// DefaultSettings returns the stock placement settings.
func DefaultSettings() Settings {
	return Settings{
		IntervalType:  segment.ModeWord,
		IntervalValue: 5,
		Style:         StyleBoldUnderline,
		Color:         "#FF0000",
	}
}

// stride returns the interval, treating non-positive values as 1.
func (s Settings) stride() int {
	if s.IntervalValue < 1 {
		return 1
	}
	return s.IntervalValue
}

// Place renders units as markup, wrapping every Nth countable unit in a
// marker span. Unit content is HTML-escaped.
func Place(units []segment.Unit, s Settings) string {
	var b strings.Builder
	PlaceTo(&b, units, s)
	return b.String()
}

// PlaceTo is Place writing into b. It returns the number of marked units.
func PlaceTo(b *strings.Builder, units []segment.Unit, s Settings) int {
	stride := s.stride()
	open := `<span class="` + s.Style.ClassName() + `">`

	n, marked := 0, 0
	for _, u := range units {
		if u.Separator {
			b.WriteString(escapeText(u.Content))
			continue
		}
		n++
		if n%stride == 0 {
			marked++
			b.WriteString(open)
			b.WriteString(escapeText(u.Content))
			b.WriteString("</span>")
			continue
		}
		b.WriteString(escapeText(u.Content))
	}
	return marked
}

// Marked returns the indexes into units of the units Place would wrap.
func Marked(units []segment.Unit, s Settings) []int {
	stride := s.stride()
	var idx []int
	n := 0
	for i, u := range units {
		if u.Separator {
			continue
		}
		n++
		if n%stride == 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// Highlight segments text and places markers in one step.
func Highlight(text string, s Settings) string {
	return Place(segment.Segment(text, s.IntervalType), s)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripMarkers removes every tag from markup and unescapes the remaining
// text. For output of Place it returns the original input exactly.
func StripMarkers(markup string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(markup, ""))
}

var textEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`'`, "&#39;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&#34;",
	"\r", "&#13;",
)

// escapeText escapes s for use as HTML text. Carriage returns are written
// as character references so HTML parsers do not normalise them away.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
