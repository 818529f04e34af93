package viewport

// BufferMode selects how far beyond the visible area blocks are considered
// visible, so content about to scroll in is processed ahead of time.
type BufferMode uint8

const (
	// BufferHalf extends the window by half a viewport on each side.
	// Used for scroll-driven rescans of a container.
	BufferHalf BufferMode = iota
	// BufferFull extends the window by a full viewport on each side.
	// Used for the initial pass over a freshly shown document.
	BufferFull
	// BufferNone uses the visible area only.
	BufferNone
)

// String returns a human-readable name for the mode.
func (m BufferMode) String() string {
	switch m {
	case BufferHalf:
		return "half"
	case BufferFull:
		return "full"
	case BufferNone:
		return "none"
	default:
		return "unknown"
	}
}

// ratio returns the buffer size as a fraction of the viewport height.
func (m BufferMode) ratio() float64 {
	switch m {
	case BufferHalf:
		return 0.5
	case BufferFull:
		return 1
	default:
		return 0
	}
}

// Window is a closed vertical range [Top, Bottom].
type Window struct {
	Top    float64
	Bottom float64
}

// Buffer returns the buffer distance for a geometry.
func (m BufferMode) Buffer(g Geometry) float64 {
	return g.Height * m.ratio()
}

// Expand returns the visible window of g grown by the buffer on both ends.
// The top never goes above the start of the content.
func (m BufferMode) Expand(g Geometry) Window {
	buf := m.Buffer(g)
	top := g.ScrollTop - buf
	if top < 0 {
		top = 0
	}
	return Window{Top: top, Bottom: g.Bottom() + buf}
}

// Contains reports whether y lies within the window, inclusive.
func (w Window) Contains(y float64) bool {
	return y >= w.Top && y <= w.Bottom
}
