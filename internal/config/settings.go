// Package config holds the speedmark settings record, its defaults and
// validation, and the layered loading of settings from file, environment
// and flags.
package config

import (
	"fmt"
	"strings"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/speedmark/internal/highlight"
	"github.com/dshills/speedmark/internal/logging"
	"github.com/dshills/speedmark/internal/segment"
)

// Interval and delay bounds.
const (
	MinInterval = 5
	MaxInterval = 80
	MaxDelay    = 30
)

// Settings is the full settings record.
type Settings struct {
	Enabled          bool     `toml:"enabled"`
	AutoProcess      bool     `toml:"auto_process"`
	AutoProcessDelay int      `toml:"auto_process_delay"` // seconds
	ExcludedFolders  []string `toml:"excluded_folders"`
	MinProcessLength int      `toml:"min_process_length"`
	LogLevel         string   `toml:"log_level"`

	Highlight HighlightSettings `toml:"highlight"`
}

// HighlightSettings is the highlight section of the settings file.
type HighlightSettings struct {
	Style         string `toml:"style"`
	Color         string `toml:"color"`
	IntervalType  string `toml:"interval_type"`
	IntervalValue int    `toml:"interval_value"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		Enabled:          true,
		AutoProcess:      true,
		AutoProcessDelay: 2,
		ExcludedFolders:  []string{"Templates/", "*.excalidraw"},
		MinProcessLength: 200,
		LogLevel:         "error",
		Highlight: HighlightSettings{
			Style:         highlight.StyleBoldUnderline.String(),
			Color:         "#FF0000",
			IntervalType:  segment.ModeWord.String(),
			IntervalValue: 5,
		},
	}
}

// Normalize clamps numeric settings into range and replaces unknown
// names and invalid colors with defaults. It returns one warning per
// adjusted field.
func (s *Settings) Normalize() []string {
	def := Default()
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if v := clamp(s.Highlight.IntervalValue, MinInterval, MaxInterval); v != s.Highlight.IntervalValue {
		warn("highlight.interval_value %d out of range, using %d", s.Highlight.IntervalValue, v)
		s.Highlight.IntervalValue = v
	}
	if v := clamp(s.AutoProcessDelay, 0, MaxDelay); v != s.AutoProcessDelay {
		warn("auto_process_delay %d out of range, using %d", s.AutoProcessDelay, v)
		s.AutoProcessDelay = v
	}
	if s.MinProcessLength < 0 {
		warn("min_process_length %d is negative, using 0", s.MinProcessLength)
		s.MinProcessLength = 0
	}

	if style, ok := highlight.ParseStyle(s.Highlight.Style); ok {
		s.Highlight.Style = style.String()
	} else {
		warn("unknown highlight.style %q, using %s", s.Highlight.Style, def.Highlight.Style)
		s.Highlight.Style = def.Highlight.Style
	}
	if mode, ok := segment.ParseMode(s.Highlight.IntervalType); ok {
		s.Highlight.IntervalType = mode.String()
	} else {
		warn("unknown highlight.interval_type %q, using %s", s.Highlight.IntervalType, def.Highlight.IntervalType)
		s.Highlight.IntervalType = def.Highlight.IntervalType
	}
	if c, err := ParseColor(s.Highlight.Color); err == nil {
		s.Highlight.Color = c
	} else {
		warn("%v, using %s", err, def.Highlight.Color)
		s.Highlight.Color = def.Highlight.Color
	}

	level := strings.ToLower(strings.TrimSpace(s.LogLevel))
	switch level {
	case "debug", "info", "warn", "warning", "error", "none", "off":
		s.LogLevel = level
	default:
		warn("unknown log_level %q, using %s", s.LogLevel, def.LogLevel)
		s.LogLevel = def.LogLevel
	}

	return warnings
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// ParseColor validates a hex color and returns it in canonical #RRGGBB
// form.
func ParseColor(s string) (string, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid highlight.color %q", s)
	}
	return strings.ToUpper(c.Hex()), nil
}

// HighlightConfig returns the placement settings for one pass.
func (s Settings) HighlightConfig() highlight.Settings {
	style, _ := highlight.ParseStyle(s.Highlight.Style)
	mode, _ := segment.ParseMode(s.Highlight.IntervalType)
	return highlight.Settings{
		IntervalType:  mode,
		IntervalValue: s.Highlight.IntervalValue,
		Style:         style,
		Color:         s.Highlight.Color,
	}
}

// Delay returns the auto-process delay.
func (s Settings) Delay() time.Duration {
	return time.Duration(s.AutoProcessDelay) * time.Second
}

// Level returns the configured log level.
func (s Settings) Level() logging.LogLevel {
	return logging.ParseLogLevel(s.LogLevel)
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.ExcludedFolders = append([]string(nil), s.ExcludedFolders...)
	return s
}

// HighlightChanged reports whether any setting affecting placement differs.
func (s Settings) HighlightChanged(other Settings) bool {
	return s.Highlight != other.Highlight
}
