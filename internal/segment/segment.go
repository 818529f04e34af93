// Package segment splits prose into countable units and the separators
// between them.
//
// Two scripts are recognised. Text whose share of CJK ideographs exceeds
// CJKThreshold is treated as CJK, where every ideograph is its own unit;
// everything else is treated as Latin, where units are whitespace- and
// punctuation-delimited words. Concatenating the Content of every returned
// Unit always reproduces the input exactly.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode selects what a unit is.
type Mode uint8

const (
	// ModeWord counts words (or single ideographs for CJK text).
	ModeWord Mode = iota
	// ModeCharacter counts every non-separator code point.
	ModeCharacter
)

// String returns the settings name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeWord:
		return "word"
	case ModeCharacter:
		return "character"
	default:
		return "unknown"
	}
}

// ParseMode parses a settings name into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word", "words":
		return ModeWord, true
	case "character", "characters", "char":
		return ModeCharacter, true
	default:
		return ModeWord, false
	}
}

// Script is the dominant writing system of a span of text.
type Script uint8

const (
	ScriptLatin Script = iota
	ScriptCJK
)

// String returns a human-readable name for the script.
func (s Script) String() string {
	if s == ScriptCJK {
		return "cjk"
	}
	return "latin"
}

// CJKThreshold is the share of ideographs above which text is treated as CJK.
const CJKThreshold = 0.15

// Unit is one atomic token of a segmented text.
type Unit struct {
	Content   string
	Separator bool
}

// punctuation holds every character treated as a separator besides
// whitespace, ASCII and fullwidth forms alike.
const punctuation = `.,!?;:'"()[]{}` +
	"，。？！：；、“”‘’（）【】《》〈〉「」『』…—～·"

// cjkSentencePunct delimits sentence fragments in CJK text.
const cjkSentencePunct = "。，、；：？！“”‘’（）【】《》〈〉「」『』…—～·" +
	`,.;:?!'"()[]{}` + "-~"

// space matches the same characters as the JavaScript \s class.
const space = `\s\x{0B}\p{Z}\x{FEFF}`

var (
	latinSplit = regexp.MustCompile(`[` + space + `]+|` + charClass(punctuation))
	cjkSplit   = regexp.MustCompile(`[` + space + `]+|` + charClass(cjkSentencePunct))
)

// charClass builds a bracket expression matching any single rune of chars.
func charClass(chars string) string {
	return "[" + strings.ReplaceAll(regexp.QuoteMeta(chars), "-", `\-`) + "]"
}

// IsCJK reports whether r lies in the unified ideograph block used for
// script classification.
func IsCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FA5
}

// IsSeparator reports whether r is whitespace or separator punctuation.
func IsSeparator(r rune) bool {
	if unicode.IsSpace(r) || unicode.Is(unicode.Z, r) || r == '\uFEFF' {
		return true
	}
	return strings.ContainsRune(punctuation, r)
}

// Classify returns the dominant script of text. The decision is made once
// for the whole input; text with exactly CJKThreshold ideographs is Latin.
func Classify(text string) Script {
	total, cjk := 0, 0
	for _, r := range text {
		total++
		if IsCJK(r) {
			cjk++
		}
	}
	if total == 0 || cjk == 0 {
		return ScriptLatin
	}
	if float64(cjk)/float64(total) > CJKThreshold {
		return ScriptCJK
	}
	return ScriptLatin
}

// Segment splits text into units for the given mode.
func Segment(text string, mode Mode) []Unit {
	if text == "" {
		return nil
	}
	if mode == ModeCharacter {
		return Characters(text)
	}
	return Words(text)
}

// Words splits text into word units, classifying the script first.
func Words(text string) []Unit {
	if Classify(text) == ScriptCJK {
		return cjkWords(text)
	}
	return splitKeep(text, latinSplit, func(word string, units []Unit) []Unit {
		return append(units, Unit{Content: word})
	})
}

// Characters splits text into one unit per code point. Separator code
// points are passed through as separator units.
func Characters(text string) []Unit {
	return appendRunes(make([]Unit, 0, len(text)), text)
}

// appendRunes appends one unit per code point of s. Content is sliced from
// s so that invalid UTF-8 survives untouched.
func appendRunes(units []Unit, s string) []Unit {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		units = append(units, Unit{Content: s[:size], Separator: IsSeparator(r)})
		s = s[size:]
	}
	return units
}

// cjkWords splits at sentence punctuation and whitespace, then decomposes
// each fragment into single-character units.
func cjkWords(text string) []Unit {
	return splitKeep(text, cjkSplit, func(fragment string, units []Unit) []Unit {
		return appendRunes(units, fragment)
	})
}

// splitKeep performs a capturing split: every match of re becomes a
// separator unit and the text between matches is handed to emit.
// Empty fragments between adjacent separators are dropped.
func splitKeep(text string, re *regexp.Regexp, emit func(string, []Unit) []Unit) []Unit {
	var units []Unit
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			units = emit(text[last:loc[0]], units)
		}
		units = append(units, Unit{Content: text[loc[0]:loc[1]], Separator: true})
		last = loc[1]
	}
	if last < len(text) {
		units = emit(text[last:], units)
	}
	return units
}

// Join concatenates the content of units.
func Join(units []Unit) string {
	var b strings.Builder
	for _, u := range units {
		b.WriteString(u.Content)
	}
	return b.String()
}

// Count returns the number of non-separator units.
func Count(units []Unit) int {
	n := 0
	for _, u := range units {
		if !u.Separator {
			n++
		}
	}
	return n
}
