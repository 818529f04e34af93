package config

import (
	"io/fs"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/speedmark/internal/highlight"
	"github.com/dshills/speedmark/internal/segment"
)

type memFS map[string]string

func (m memFS) Open(name string) (fs.File, error) { return nil, fs.ErrNotExist }

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func (m memFS) Stat(path string) (fs.FileInfo, error) { return nil, fs.ErrNotExist }

func noEnv(string) (string, bool) { return "", false }

func TestDefault(t *testing.T) {
	s := Default()
	if w := s.Normalize(); len(w) != 0 {
		t.Errorf("defaults produced warnings: %v", w)
	}

	hc := s.HighlightConfig()
	want := highlight.DefaultSettings()
	if hc != want {
		t.Errorf("HighlightConfig() = %+v, want %+v", hc, want)
	}
	if s.Delay() != 2*time.Second {
		t.Errorf("Delay() = %v", s.Delay())
	}
	if s.MinProcessLength != 200 || !s.Enabled || !s.AutoProcess {
		t.Errorf("unexpected defaults %+v", s)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Settings)
		check func(Settings) bool
	}{
		{"interval low", func(s *Settings) { s.Highlight.IntervalValue = 1 }, func(s Settings) bool { return s.Highlight.IntervalValue == MinInterval }},
		{"interval high", func(s *Settings) { s.Highlight.IntervalValue = 500 }, func(s Settings) bool { return s.Highlight.IntervalValue == MaxInterval }},
		{"delay", func(s *Settings) { s.AutoProcessDelay = -3 }, func(s Settings) bool { return s.AutoProcessDelay == 0 }},
		{"min length", func(s *Settings) { s.MinProcessLength = -1 }, func(s Settings) bool { return s.MinProcessLength == 0 }},
		{"style", func(s *Settings) { s.Highlight.Style = "italic" }, func(s Settings) bool { return s.Highlight.Style == "bold_underline" }},
		{"unit", func(s *Settings) { s.Highlight.IntervalType = "sentence" }, func(s Settings) bool { return s.Highlight.IntervalType == "word" }},
		{"color", func(s *Settings) { s.Highlight.Color = "red" }, func(s Settings) bool { return s.Highlight.Color == "#FF0000" }},
		{"log level", func(s *Settings) { s.LogLevel = "chatty" }, func(s Settings) bool { return s.LogLevel == "error" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.edit(&s)
			warnings := s.Normalize()
			if len(warnings) != 1 {
				t.Errorf("warnings = %v, want exactly one", warnings)
			}
			if !tt.check(s) {
				t.Errorf("not normalized: %+v", s)
			}
		})
	}
}

func TestNormalize_CanonicalNames(t *testing.T) {
	s := Default()
	s.Highlight.Style = "Bold-Underline"
	s.Highlight.IntervalType = "characters"
	s.Highlight.Color = "#00ff00"
	if w := s.Normalize(); len(w) != 0 {
		t.Errorf("warnings = %v", w)
	}
	if s.Highlight.Style != "bold_underline" || s.Highlight.IntervalType != "character" || s.Highlight.Color != "#00FF00" {
		t.Errorf("not canonical: %+v", s.Highlight)
	}
}

func TestLoad_Layers(t *testing.T) {
	fsys := memFS{"/cfg.toml": `
auto_process_delay = 4
excluded_folders = ["Archive/*"]

[highlight]
style = "color"
interval_value = 10
`}
	env := map[string]string{
		"SPEEDMARK_INTERVAL_VALUE": "12",
		"SPEEDMARK_LOG_LEVEL":      "debug",
	}

	s, warnings, err := Load(LoadOptions{
		Path: "/cfg.toml",
		FS:   fsys,
		Env: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
		Flags: map[string]any{"highlight": map[string]any{"interval_value": int64(20)}},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}

	if s.AutoProcessDelay != 4 {
		t.Errorf("file layer: delay = %d", s.AutoProcessDelay)
	}
	if s.Highlight.Style != "color" {
		t.Errorf("file layer: style = %q", s.Highlight.Style)
	}
	if len(s.ExcludedFolders) != 1 || s.ExcludedFolders[0] != "Archive/*" {
		t.Errorf("file layer: excluded = %v", s.ExcludedFolders)
	}
	if s.LogLevel != "debug" {
		t.Errorf("env layer: log level = %q", s.LogLevel)
	}
	if s.Highlight.IntervalValue != 20 {
		t.Errorf("flag layer: interval = %d", s.Highlight.IntervalValue)
	}
	if s.Highlight.Color != "#FF0000" {
		t.Errorf("default layer: color = %q", s.Highlight.Color)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, _, err := Load(LoadOptions{Path: "/missing.toml", FS: memFS{}, Env: noEnv})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.HighlightConfig() != highlight.DefaultSettings() {
		t.Errorf("settings = %+v", s)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := Load(LoadOptions{Path: "/bad.toml", FS: memFS{"/bad.toml": "enabled = "}, Env: noEnv})
	if err == nil {
		t.Error("expected a parse error")
	}

	_, _, err = Load(LoadOptions{
		Path: "/none.toml", FS: memFS{},
		Env: func(k string) (string, bool) {
			if k == "SPEEDMARK_INTERVAL_VALUE" {
				return "often", true
			}
			return "", false
		},
	})
	if err == nil {
		t.Error("expected a type error for a non-numeric interval")
	}
}

func TestLoad_ClampsWithWarning(t *testing.T) {
	s, warnings, err := Load(LoadOptions{
		Path: "/cfg.toml",
		FS:   memFS{"/cfg.toml": "[highlight]\ninterval_value = 2\n"},
		Env:  noEnv,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Highlight.IntervalValue != MinInterval || len(warnings) != 1 {
		t.Errorf("interval = %d, warnings = %v", s.Highlight.IntervalValue, warnings)
	}
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := string(data)
	for _, want := range []string{"auto_process_delay", "[highlight]", "interval_value"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStore(t *testing.T) {
	st := NewStore(Default())

	var calls []string
	sub := st.Subscribe(func(old, updated Settings) {
		calls = append(calls, old.Highlight.Style+"->"+updated.Highlight.Style)
	})

	st.Update(func(s *Settings) { s.Highlight.Style = "underline" })
	if got := st.Get().Highlight.Style; got != "underline" {
		t.Errorf("style = %q", got)
	}
	if len(calls) != 1 || calls[0] != "bold_underline->underline" {
		t.Errorf("calls = %v", calls)
	}

	sub.Unsubscribe()
	st.Update(func(s *Settings) { s.Highlight.Style = "bold" })
	if len(calls) != 1 {
		t.Error("observer called after unsubscribe")
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	st := NewStore(Default())
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Update(func(s *Settings) { s.Highlight.IntervalValue++ })
		}()
	}
	wg.Wait()

	want := Default().Highlight.IntervalValue + n
	if got := st.Get().Highlight.IntervalValue; got != want {
		t.Errorf("IntervalValue = %d, want %d", got, want)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	st := NewStore(Default())
	s := st.Get()
	s.ExcludedFolders[0] = "changed/"
	if st.Get().ExcludedFolders[0] != "Templates/" {
		t.Error("Get exposed internal slice")
	}
}

func TestHighlightChanged(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.AutoProcessDelay = 9
	if a.HighlightChanged(b) {
		t.Error("delay change reported as highlight change")
	}
	b.Highlight.Color = "#000000"
	if !a.HighlightChanged(b) {
		t.Error("color change not reported")
	}
}

func TestOverrides_Apply(t *testing.T) {
	base := highlight.DefaultSettings()
	if got := (Overrides{}).Apply(base); got != base {
		t.Errorf("empty overrides changed settings: %+v", got)
	}

	interval, unit, style, color := 3, "character", "color", "not-a-color"
	got := Overrides{Interval: &interval, Unit: &unit, Style: &style, Color: &color}.Apply(base)
	if got.IntervalValue != MinInterval {
		t.Errorf("interval = %d, want clamped %d", got.IntervalValue, MinInterval)
	}
	if got.IntervalType != segment.ModeCharacter || got.Style != highlight.StyleColor {
		t.Errorf("unit/style not applied: %+v", got)
	}
	if got.Color != base.Color {
		t.Errorf("invalid color applied: %q", got.Color)
	}
	if (Overrides{}).Empty() != true || (Overrides{Disabled: true}).Empty() {
		t.Error("Empty() wrong")
	}
}
