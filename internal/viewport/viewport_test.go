package viewport

import "testing"

func TestNewViewport_ClampsHeight(t *testing.T) {
	v := NewViewport(0)
	if v.Height() != 1 {
		t.Errorf("expected height 1, got %v", v.Height())
	}
}

func TestViewport_ScrollClamping(t *testing.T) {
	v := NewViewport(10)
	v.SetContentHeight(50)

	if !v.ScrollTo(25) {
		t.Error("expected ScrollTo(25) to change offset")
	}
	if v.ScrollTop() != 25 {
		t.Errorf("expected scrollTop 25, got %v", v.ScrollTop())
	}

	v.ScrollTo(100)
	if v.ScrollTop() != 40 {
		t.Errorf("expected scrollTop clamped to 40, got %v", v.ScrollTop())
	}

	v.ScrollBy(-100)
	if v.ScrollTop() != 0 {
		t.Errorf("expected scrollTop clamped to 0, got %v", v.ScrollTop())
	}

	if v.ScrollTo(0) {
		t.Error("expected no change when already at top")
	}
}

func TestViewport_ShortContentDoesNotScroll(t *testing.T) {
	v := NewViewport(20)
	v.SetContentHeight(5)

	if v.PageDown() {
		t.Error("content shorter than the viewport should not scroll")
	}
}

func TestViewport_Paging(t *testing.T) {
	v := NewViewport(10)
	v.SetContentHeight(100)

	v.PageDown()
	if v.ScrollTop() != 10 {
		t.Errorf("PageDown: expected 10, got %v", v.ScrollTop())
	}
	v.HalfPageDown()
	if v.ScrollTop() != 15 {
		t.Errorf("HalfPageDown: expected 15, got %v", v.ScrollTop())
	}
	v.HalfPageUp()
	v.PageUp()
	if v.ScrollTop() != 0 {
		t.Errorf("expected back at 0, got %v", v.ScrollTop())
	}

	v.ScrollToBottom()
	if v.ScrollTop() != 90 {
		t.Errorf("ScrollToBottom: expected 90, got %v", v.ScrollTop())
	}
	v.ScrollToTop()
	if v.ScrollTop() != 0 {
		t.Errorf("ScrollToTop: expected 0, got %v", v.ScrollTop())
	}
}

func TestViewport_ResizeReclamps(t *testing.T) {
	v := NewViewport(10)
	v.SetContentHeight(30)
	v.ScrollToBottom()

	v.Resize(25)
	if v.ScrollTop() != 5 {
		t.Errorf("expected scrollTop 5 after resize, got %v", v.ScrollTop())
	}
}

func TestGeometry(t *testing.T) {
	v := NewViewport(10)
	v.SetContentHeight(100)
	v.ScrollTo(30)

	g := v.Geometry()
	if g.ScrollTop != 30 || g.Height != 10 || g.Bottom() != 40 {
		t.Errorf("unexpected geometry %+v", g)
	}
}
