// Package filter decides whether a document should be processed at all.
package filter

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Exclusions matches document paths against exclusion patterns.
// Three pattern forms are supported:
//   - Archive/*     - wildcard, "*" matches any run of characters and the
//     pattern must match the whole path
//   - Templates/    - directory prefix; a pattern without a "." is also
//     treated as a directory
//   - notes/a.md    - exact path
type Exclusions struct {
	mu       sync.RWMutex
	patterns []pattern
}

type pattern struct {
	original string
	prefix   string         // directory prefix, with trailing slash
	exact    string         // exact path
	glob     *regexp.Regexp // wildcard form
}

// NewExclusions creates a matcher from patterns. Blank patterns are ignored.
func NewExclusions(patterns ...string) *Exclusions {
	e := &Exclusions{}
	e.AddPatterns(patterns)
	return e
}

// AddPattern adds one exclusion pattern.
func (e *Exclusions) AddPattern(raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	p := pattern{original: raw}
	switch {
	case strings.Contains(raw, "*"):
		expr := strings.ReplaceAll(regexp.QuoteMeta(raw), `\*`, ".*")
		p.glob = regexp.MustCompile("^" + expr + "$")
	case strings.HasSuffix(raw, "/") || !strings.Contains(raw, "."):
		p.prefix = strings.TrimSuffix(raw, "/") + "/"
	default:
		p.exact = raw
	}

	e.mu.Lock()
	e.patterns = append(e.patterns, p)
	e.mu.Unlock()
}

// AddPatterns adds several patterns.
func (e *Exclusions) AddPatterns(patterns []string) {
	for _, p := range patterns {
		e.AddPattern(p)
	}
}

// Patterns returns the patterns as given.
func (e *Exclusions) Patterns() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]string, len(e.patterns))
	for i, p := range e.patterns {
		out[i] = p.original
	}
	return out
}

// Match reports whether path is excluded. Paths are compared in slash
// form, relative to the vault or working directory root.
func (e *Exclusions) Match(path string) bool {
	path = filepath.ToSlash(path)

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, p := range e.patterns {
		switch {
		case p.glob != nil:
			if p.glob.MatchString(path) {
				return true
			}
		case p.prefix != "":
			if strings.HasPrefix(path, p.prefix) {
				return true
			}
		default:
			if path == p.exact {
				return true
			}
		}
	}
	return false
}

// ContentLength counts the non-whitespace characters of content.
func ContentLength(content string) int {
	n := 0
	for len(content) > 0 {
		r, size := utf8.DecodeRuneInString(content)
		if !unicode.IsSpace(r) {
			n++
		}
		content = content[size:]
	}
	return n
}

// MeetsMinimumLength reports whether content has at least min
// non-whitespace characters. A non-positive min always passes.
func MeetsMinimumLength(content string, min int) bool {
	if min <= 0 {
		return true
	}
	return ContentLength(content) >= min
}

// Verdict is the outcome of checking a document.
type Verdict uint8

const (
	WillProcess Verdict = iota
	ExcludedPath
	TooShort
)

// String returns a human-readable explanation.
func (v Verdict) String() string {
	switch v {
	case ExcludedPath:
		return "excluded: path matches exclusion rules"
	case TooShort:
		return "excluded: content too short"
	default:
		return "will be processed"
	}
}

// Filter combines path exclusions with the minimum-length rule.
type Filter struct {
	Exclusions *Exclusions
	MinLength  int
}

// New creates a Filter.
func New(patterns []string, minLength int) *Filter {
	return &Filter{Exclusions: NewExclusions(patterns...), MinLength: minLength}
}

// Check classifies a document. Path exclusion is checked first.
func (f *Filter) Check(path, content string) Verdict {
	if f.Exclusions != nil && f.Exclusions.Match(path) {
		return ExcludedPath
	}
	if !MeetsMinimumLength(content, f.MinLength) {
		return TooShort
	}
	return WillProcess
}

// Allow reports whether the document should be processed.
func (f *Filter) Allow(path, content string) bool {
	return f.Check(path, content) == WillProcess
}
