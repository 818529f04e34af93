package viewport

// Span is the vertical extent of a block within the scroll content.
type Span struct {
	Top    float64
	Bottom float64
}

// Unplaced is the span of a block that has no position in the layout.
// It overlaps no window.
var Unplaced = Span{Top: -1, Bottom: -1}

// Overlaps reports whether the span intersects the window: its top lies
// in the window, its bottom lies in the window, or it straddles the
// window entirely.
func (s Span) Overlaps(w Window) bool {
	if s == Unplaced {
		return false
	}
	return w.Contains(s.Top) ||
		w.Contains(s.Bottom) ||
		(s.Top <= w.Top && s.Bottom >= w.Bottom)
}

// Candidate is a block the coordinator can test.
type Candidate interface {
	Processed() bool
}

// FindVisible returns, in input order, the blocks that are not yet
// processed and whose span overlaps the buffered window of g. It does not
// modify any block.
func FindVisible[B Candidate](g Geometry, mode BufferMode, blocks []B, span func(B) Span) []B {
	w := mode.Expand(g)
	var visible []B
	for _, b := range blocks {
		if b.Processed() {
			continue
		}
		if span(b).Overlaps(w) {
			visible = append(visible, b)
		}
	}
	return visible
}
