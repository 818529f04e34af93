package highlight

import (
	"strings"
	"testing"

	"github.com/dshills/speedmark/internal/segment"
)

func wordSettings(interval int) Settings {
	return Settings{IntervalType: segment.ModeWord, IntervalValue: interval, Style: StyleBold}
}

func TestPlace_QuickBrownFox(t *testing.T) {
	got := Highlight("The quick brown fox jumps", wordSettings(3))
	want := `The quick <span class="speedmark-highlight">brown</span> fox jumps`
	if got != want {
		t.Errorf("Highlight() =\n%s\nwant\n%s", got, want)
	}
}

func TestPlace_CJKCharacters(t *testing.T) {
	s := Settings{IntervalType: segment.ModeCharacter, IntervalValue: 2, Style: StyleBold}
	got := Highlight("你好，世界，测试", s)
	want := `你<span class="speedmark-highlight">好</span>，` +
		`世<span class="speedmark-highlight">界</span>，` +
		`测<span class="speedmark-highlight">试</span>`
	if got != want {
		t.Errorf("Highlight() =\n%s\nwant\n%s", got, want)
	}
}

func TestPlace_SeparatorsNeverCounted(t *testing.T) {
	units := []segment.Unit{
		{Content: "a"},
		{Content: ",", Separator: true},
		{Content: " ", Separator: true},
		{Content: "b"},
	}
	got := Place(units, wordSettings(2))
	if got != `a, <span class="speedmark-highlight">b</span>` {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPlace_Stride(t *testing.T) {
	for _, k := range []int{1, 2, 3, 5, 7} {
		for count := 0; count <= 20; count++ {
			units := make([]segment.Unit, count)
			for i := range units {
				units[i] = segment.Unit{Content: "w"}
			}

			marked := Marked(units, wordSettings(k))
			if len(marked) != count/k {
				t.Errorf("k=%d count=%d: marked %d units, want %d", k, count, len(marked), count/k)
			}
			for _, i := range marked {
				if (i+1)%k != 0 {
					t.Errorf("k=%d: marked 1-based position %d, not a multiple of %d", k, i+1, k)
				}
			}

			out := Place(units, wordSettings(k))
			if n := strings.Count(out, "<span"); n != count/k {
				t.Errorf("k=%d count=%d: %d spans in output, want %d", k, count, n, count/k)
			}
		}
	}
}

func TestPlace_StyleClasses(t *testing.T) {
	tests := []struct {
		style Style
		class string
	}{
		{StyleBold, "speedmark-highlight"},
		{StyleColor, "speedmark-highlight speedmark-highlight-color"},
		{StyleUnderline, "speedmark-highlight speedmark-highlight-underline"},
		{StyleBoldUnderline, "speedmark-highlight speedmark-highlight-bold-underline"},
	}

	for _, tt := range tests {
		s := Settings{IntervalType: segment.ModeWord, IntervalValue: 1, Style: tt.style, Color: "#00FF00"}
		got := Highlight("x", s)
		want := `<span class="` + tt.class + `">x</span>`
		if got != want {
			t.Errorf("%v: got %q, want %q", tt.style, got, want)
		}
		if strings.Contains(got, "#00FF00") {
			t.Errorf("%v: color must not be emitted inline", tt.style)
		}

		back, ok := StyleFromClass(tt.class)
		if !ok || back != tt.style {
			t.Errorf("StyleFromClass(%q) = (%v, %v)", tt.class, back, ok)
		}
	}
}

func TestPlace_EscapesContent(t *testing.T) {
	got := Highlight("<b>x</b> & y", wordSettings(100))
	if strings.Contains(got, "<b>") {
		t.Errorf("content must be escaped, got %q", got)
	}
}

func TestPlace_Deterministic(t *testing.T) {
	s := Settings{IntervalType: segment.ModeWord, IntervalValue: 2, Style: StyleColor}
	units := segment.Segment("one two three four five six", s.IntervalType)
	first := Place(units, s)
	for i := 0; i < 5; i++ {
		if got := Place(units, s); got != first {
			t.Fatalf("call %d differs: %q vs %q", i, got, first)
		}
	}
}

func TestStripMarkers_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"The quick brown fox jumps over the lazy dog",
		"你好，世界，测试。这是一个中文句子！",
		"Mixed 中文 and English, with <angle> & \"quotes\" and 'apostrophes'.",
		"carriage\r\nreturns\rsurvive",
		"entities like &amp; stay literal",
		"     ",
		"!!!",
	}
	styles := []Style{StyleBold, StyleColor, StyleUnderline, StyleBoldUnderline}
	modes := []segment.Mode{segment.ModeWord, segment.ModeCharacter}

	for _, in := range inputs {
		for _, mode := range modes {
			for _, style := range styles {
				for _, interval := range []int{1, 2, 5, 80} {
					s := Settings{IntervalType: mode, IntervalValue: interval, Style: style}
					if got := StripMarkers(Highlight(in, s)); got != in {
						t.Errorf("round trip failed for %q (%v/%v/%d): got %q", in, mode, style, interval, got)
					}
				}
			}
		}
	}
}

func TestPlace_NonPositiveIntervalActsAsOne(t *testing.T) {
	got := Highlight("a b", wordSettings(0))
	if strings.Count(got, "<span") != 2 {
		t.Errorf("expected every unit marked, got %q", got)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in   string
		want Style
		ok   bool
	}{
		{"bold", StyleBold, true},
		{"color", StyleColor, true},
		{"underline", StyleUnderline, true},
		{"bold_underline", StyleBoldUnderline, true},
		{"Bold-Underline", StyleBoldUnderline, true},
		{"italic", StyleBold, false},
	}
	for _, tt := range tests {
		got, ok := ParseStyle(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStyle(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsMarkerClass(t *testing.T) {
	if !IsMarkerClass("foo speedmark-highlight-color") {
		t.Error("expected variant class to be recognised")
	}
	if IsMarkerClass("speedmark-processed") {
		t.Error("processed flag is not a marker class")
	}
}
