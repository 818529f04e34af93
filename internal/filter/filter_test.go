package filter

import (
	"strings"
	"testing"
)

func TestExclusions_Match(t *testing.T) {
	e := NewExclusions("Templates/", "*.excalidraw", "Archive/*", "Daily", "notes/secret.md", "  ")

	tests := []struct {
		path string
		want bool
	}{
		{"Templates/weekly.md", true},
		{"Templates", false},
		{"MyTemplates/x.md", false},
		{"drawing.excalidraw", true},
		{"sub/drawing.excalidraw", true},
		{"drawing.excalidraw.md", false},
		{"Archive/2020/old.md", true},
		{"Archive.md", false},
		{"Daily/2024-01-01.md", true},
		{"DailyNotes/x.md", false},
		{"notes/secret.md", true},
		{"notes/secret.md.bak", false},
		{"notes/public.md", false},
	}

	for _, tt := range tests {
		if got := e.Match(tt.path); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExclusions_WildcardEscapesMetacharacters(t *testing.T) {
	e := NewExclusions("a+b/*.md")
	if !e.Match("a+b/x.md") {
		t.Error("literal + should match")
	}
	if e.Match("aab/x.md") {
		t.Error("+ must not act as a regex quantifier")
	}
	if e.Match("a+b/xmd") {
		t.Error(". must be literal")
	}
}

func TestExclusions_Empty(t *testing.T) {
	e := NewExclusions()
	if e.Match("anything.md") {
		t.Error("empty matcher excluded a path")
	}
	if len(e.Patterns()) != 0 {
		t.Error("blank patterns should be ignored")
	}
}

func TestMeetsMinimumLength(t *testing.T) {
	tests := []struct {
		content string
		min     int
		want    bool
	}{
		{"", 0, true},
		{"", -1, true},
		{"abc", 3, true},
		{"a b c", 4, false},
		{strings.Repeat("x ", 199) + "x", 200, true},
		{"你好世界", 4, true},
		{"\n\t  \n", 1, false},
	}

	for _, tt := range tests {
		if got := MeetsMinimumLength(tt.content, tt.min); got != tt.want {
			t.Errorf("MeetsMinimumLength(%q, %d) = %v, want %v", tt.content, tt.min, got, tt.want)
		}
	}
}

func TestFilter_Check(t *testing.T) {
	f := New([]string{"Templates/"}, 10)

	if v := f.Check("Templates/a.md", strings.Repeat("word ", 10)); v != ExcludedPath {
		t.Errorf("Check = %v, want excluded path", v)
	}
	if v := f.Check("notes/a.md", "short"); v != TooShort {
		t.Errorf("Check = %v, want too short", v)
	}
	if v := f.Check("notes/a.md", strings.Repeat("word ", 10)); v != WillProcess {
		t.Errorf("Check = %v, want will process", v)
	}
	if !f.Allow("notes/a.md", strings.Repeat("word ", 10)) {
		t.Error("Allow returned false")
	}
}
