package term

import (
	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/speedmark/internal/dom"
	"github.com/dshills/speedmark/internal/highlight"
)

// Theme holds the styles used to draw a page.
type Theme struct {
	Text    tcell.Style
	Heading tcell.Style
	Code    tcell.Style
	Status  tcell.Style
	// Accent is the highlight color.
	Accent tcell.Color
}

// NewTheme derives a theme from the highlight color. An unparsable color
// falls back to red.
func NewTheme(hex string) Theme {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{R: 1}
	}
	accent := toTcell(c)
	// The status bar uses a pale tint of the accent.
	bar := toTcell(c.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.75))

	return Theme{
		Text:    tcell.StyleDefault,
		Heading: tcell.StyleDefault.Bold(true),
		Code:    tcell.StyleDefault.Dim(true),
		Status:  tcell.StyleDefault.Background(bar).Foreground(tcell.ColorBlack),
		Accent:  accent,
	}
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// base returns the style for unmarked text of an element.
func (t Theme) base(tag string) tcell.Style {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6", "th":
		return t.Heading
	case "pre":
		return t.Code
	default:
		return t.Text
	}
}

// RunStyle returns the style for a run within an element.
func (t Theme) RunStyle(tag string, r dom.Run) tcell.Style {
	s := t.base(tag)
	if !r.Marked {
		return s
	}
	switch r.Style {
	case highlight.StyleColor:
		return s.Foreground(t.Accent)
	case highlight.StyleUnderline:
		return s.Underline(true)
	case highlight.StyleBoldUnderline:
		return s.Bold(true).Underline(true).Foreground(t.Accent)
	default:
		return s.Bold(true)
	}
}
