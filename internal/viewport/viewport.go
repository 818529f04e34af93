// Package viewport decides which content blocks of a scrollable document
// are close enough to the visible area to be worth processing.
//
// Positions are measured in the host's vertical unit (pixels for a browser
// render tree, rows for a terminal) from the top of the scrollable content.
package viewport

import "sync"

// Geometry is a snapshot of a scroll container.
type Geometry struct {
	// ScrollTop is the offset of the first visible row.
	ScrollTop float64
	// Height is the visible height of the container.
	Height float64
}

// Bottom returns the offset just past the last visible row.
func (g Geometry) Bottom() float64 {
	return g.ScrollTop + g.Height
}

// Viewport tracks the scroll position of a container whose content height
// is known. It is safe for concurrent use.
type Viewport struct {
	mu sync.RWMutex

	scrollTop     float64
	height        float64
	contentHeight float64
}

// NewViewport creates a viewport of the given visible height.
// Height is clamped to a minimum of 1.
func NewViewport(height float64) *Viewport {
	if height < 1 {
		height = 1
	}
	return &Viewport{height: height}
}

// Geometry returns the current scroll geometry.
func (v *Viewport) Geometry() Geometry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Geometry{ScrollTop: v.scrollTop, Height: v.height}
}

// ScrollTop returns the current scroll offset.
func (v *Viewport) ScrollTop() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scrollTop
}

// Height returns the visible height.
func (v *Viewport) Height() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.height
}

// Resize updates the visible height, keeping the scroll offset in range.
func (v *Viewport) Resize(height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if height < 1 {
		height = 1
	}
	v.height = height
	v.scrollTop = v.clamp(v.scrollTop)
}

// SetContentHeight sets the total height of the scrollable content.
func (v *Viewport) SetContentHeight(h float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if h < 0 {
		h = 0
	}
	v.contentHeight = h
	v.scrollTop = v.clamp(v.scrollTop)
}

// ContentHeight returns the total height of the scrollable content.
func (v *Viewport) ContentHeight() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.contentHeight
}

// maxScroll returns the largest valid scroll offset (internal, no lock).
func (v *Viewport) maxScroll() float64 {
	if v.contentHeight <= v.height {
		return 0
	}
	return v.contentHeight - v.height
}

// clamp keeps offset within [0, maxScroll] (internal, no lock).
func (v *Viewport) clamp(offset float64) float64 {
	if offset < 0 {
		return 0
	}
	if m := v.maxScroll(); offset > m {
		return m
	}
	return offset
}

// ScrollTo scrolls to an absolute offset. It returns true if the offset
// changed.
func (v *Viewport) ScrollTo(offset float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	next := v.clamp(offset)
	if next == v.scrollTop {
		return false
	}
	v.scrollTop = next
	return true
}

// ScrollBy scrolls by a relative amount (negative scrolls up).
func (v *Viewport) ScrollBy(delta float64) bool {
	return v.ScrollTo(v.ScrollTop() + delta)
}

// PageUp scrolls up by one visible height.
func (v *Viewport) PageUp() bool {
	return v.ScrollBy(-v.Height())
}

// PageDown scrolls down by one visible height.
func (v *Viewport) PageDown() bool {
	return v.ScrollBy(v.Height())
}

// HalfPageUp scrolls up by half a visible height.
func (v *Viewport) HalfPageUp() bool {
	return v.ScrollBy(-v.Height() / 2)
}

// HalfPageDown scrolls down by half a visible height.
func (v *Viewport) HalfPageDown() bool {
	return v.ScrollBy(v.Height() / 2)
}

// ScrollToTop scrolls to the start of the content.
func (v *Viewport) ScrollToTop() bool {
	return v.ScrollTo(0)
}

// ScrollToBottom scrolls so the end of the content is visible.
func (v *Viewport) ScrollToBottom() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	next := v.maxScroll()
	if next == v.scrollTop {
		return false
	}
	v.scrollTop = next
	return true
}
