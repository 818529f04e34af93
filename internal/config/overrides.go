package config

import (
	"github.com/dshills/speedmark/internal/highlight"
	"github.com/dshills/speedmark/internal/segment"
)

// Overrides are per-document adjustments read from front matter. Nil
// fields leave the global setting untouched.
type Overrides struct {
	// Disabled opts the document out of highlighting entirely.
	Disabled bool
	Interval *int
	Unit     *string
	Style    *string
	Color    *string
}

// Empty reports whether the overrides change nothing.
func (o Overrides) Empty() bool {
	return !o.Disabled && o.Interval == nil && o.Unit == nil && o.Style == nil && o.Color == nil
}

// Apply returns the placement settings for a document. Invalid override
// values are ignored; the interval is clamped like the global setting.
func (o Overrides) Apply(s highlight.Settings) highlight.Settings {
	if o.Interval != nil {
		s.IntervalValue = clamp(*o.Interval, MinInterval, MaxInterval)
	}
	if o.Unit != nil {
		if mode, ok := segment.ParseMode(*o.Unit); ok {
			s.IntervalType = mode
		}
	}
	if o.Style != nil {
		if style, ok := highlight.ParseStyle(*o.Style); ok {
			s.Style = style
		}
	}
	if o.Color != nil {
		if c, err := ParseColor(*o.Color); err == nil {
			s.Color = c
		}
	}
	return s
}
