// Package term is a terminal reader for rendered documents: it draws a
// page with its highlights and feeds scroll and key events to the
// controller.
package term

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/speedmark/internal/app"
	"github.com/dshills/speedmark/internal/dom"
	"github.com/dshills/speedmark/internal/logging"
	"github.com/dshills/speedmark/internal/session"
)

// quitEvent stops the event loop.
type quitEvent struct{}

// Poster returns a function that runs callbacks on the goroutine
// executing Viewer.Run. Callbacks posted before Run starts are queued by
// the screen. It fails when the event queue is full.
func Poster(s tcell.Screen) session.PostFunc {
	return func(fn func()) error {
		return s.PostEvent(tcell.NewEventInterrupt(fn))
	}
}

// Viewer draws one document.
type Viewer struct {
	screen tcell.Screen
	ctrl   *app.Controller
	doc    *app.Document
	log    *logging.Logger

	mu     sync.Mutex
	theme  Theme
	status string
	done   int
	total  int
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(v *Viewer) {
		v.log = l
	}
}

// New creates a viewer for doc on an initialized screen.
func New(screen tcell.Screen, ctrl *app.Controller, doc *app.Document, opts ...Option) *Viewer {
	v := &Viewer{
		screen: screen,
		ctrl:   ctrl,
		doc:    doc,
		log:    logging.Nop(),
		theme:  NewTheme(ctrl.Settings().Highlight.Color),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.WithComponent("term")
	w, h := screen.Size()
	v.resize(w, h)
	return v
}

// resize fits the page to the screen, keeping one row for the status bar.
func (v *Viewer) resize(w, h int) {
	v.doc.Page().Resize(max(w, 1), max(h-1, 1))
}

// Activate announces the document to the controller.
func (v *Viewer) Activate() {
	v.ctrl.OnViewActivated(v.doc.View())
	v.Draw()
}

// Reload re-reads the document after a change on disk. It must run on the
// event loop; use Post from other goroutines.
func (v *Viewer) Reload() {
	if err := v.doc.ReloadFile(); err != nil {
		v.log.Warn("reload failed", "path", v.doc.Path, "error", err)
		v.SetStatus(err.Error())
		v.Draw()
		return
	}
	v.ctrl.OnContentModified(v.doc.View())
	v.SetStatus("reloaded")
	v.Draw()
}

// Post runs fn on the event loop. A callback the full queue rejects is
// logged and dropped.
func (v *Viewer) Post(fn func()) {
	if err := Poster(v.screen)(fn); err != nil {
		v.log.Warn("callback dropped", "err", err)
	}
}

// SetStatus sets the status bar message.
func (v *Viewer) SetStatus(msg string) {
	v.mu.Lock()
	v.status = msg
	v.mu.Unlock()
}

// Status returns the status bar message.
func (v *Viewer) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// OnProgress records pass progress for the status bar.
func (v *Viewer) OnProgress(done, total int) {
	v.mu.Lock()
	v.done, v.total = done, total
	v.mu.Unlock()
}

// OnPass reports a finished pass and redraws.
func (v *Viewer) OnPass(info app.PassInfo) {
	v.SetStatus(fmt.Sprintf("%s: %d highlighted in %s",
		info.Trigger, info.Result.Processed, info.Result.Duration.Round(time.Microsecond)))
	v.Draw()
}

// OnSettingsChanged refreshes the theme.
func (v *Viewer) OnSettingsChanged(color string) {
	v.mu.Lock()
	v.theme = NewTheme(color)
	v.mu.Unlock()
}

// Run processes events until the user quits or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(quitEvent{}))
	})
	defer stop()

	v.Draw()
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if !v.handle(ev) {
			return ctx.Err()
		}
	}
}

// handle processes one event. It returns false to stop the loop.
func (v *Viewer) handle(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(e)
	case *tcell.EventMouse:
		switch {
		case e.Buttons()&tcell.WheelUp != 0:
			v.scroll(v.doc.Page().Viewport().ScrollBy(-3))
		case e.Buttons()&tcell.WheelDown != 0:
			v.scroll(v.doc.Page().Viewport().ScrollBy(3))
		}
	case *tcell.EventResize:
		w, h := e.Size()
		v.resize(w, h)
		v.screen.Sync()
		v.ctrl.OnScroll(v.doc.Path)
		v.Draw()
	case *tcell.EventInterrupt:
		switch data := e.Data().(type) {
		case quitEvent:
			return false
		case func():
			data()
			v.Draw()
		}
	}
	return true
}

func (v *Viewer) handleKey(e *tcell.EventKey) bool {
	vp := v.doc.Page().Viewport()
	switch e.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		v.scroll(vp.ScrollBy(-1))
	case tcell.KeyDown, tcell.KeyEnter:
		v.scroll(vp.ScrollBy(1))
	case tcell.KeyPgUp, tcell.KeyCtrlB:
		v.scroll(vp.PageUp())
	case tcell.KeyPgDn, tcell.KeyCtrlF:
		v.scroll(vp.PageDown())
	case tcell.KeyCtrlU:
		v.scroll(vp.HalfPageUp())
	case tcell.KeyCtrlD:
		v.scroll(vp.HalfPageDown())
	case tcell.KeyHome:
		v.scroll(vp.ScrollToTop())
	case tcell.KeyEnd:
		v.scroll(vp.ScrollToBottom())
	case tcell.KeyRune:
		return v.handleRune(e.Rune())
	}
	return true
}

func (v *Viewer) handleRune(r rune) bool {
	vp := v.doc.Page().Viewport()
	switch r {
	case 'q':
		return false
	case 'k':
		v.scroll(vp.ScrollBy(-1))
	case 'j':
		v.scroll(vp.ScrollBy(1))
	case ' ':
		v.scroll(vp.PageDown())
	case 'b':
		v.scroll(vp.PageUp())
	case 'g':
		v.scroll(vp.ScrollToTop())
	case 'G':
		v.scroll(vp.ScrollToBottom())
	case 't':
		if v.ctrl.Toggle() {
			v.SetStatus("highlighting on")
		} else {
			v.SetStatus("highlighting off")
		}
		v.Draw()
	case 'r':
		if err := v.ctrl.Reprocess(); err != nil {
			v.SetStatus(err.Error())
		}
		v.Draw()
	case 'a':
		if v.ctrl.ProcessAll(v.doc.View()) {
			v.SetStatus("highlighted whole document")
		}
		v.Draw()
	case 'v':
		if v.ctrl.ProcessVisible(v.doc.View()) {
			v.SetStatus("highlighted visible blocks")
		}
		v.Draw()
	case 'c':
		v.ctrl.ClearAll(v.doc.View())
		v.SetStatus("cleared")
		v.Draw()
	}
	return true
}

// scroll redraws after a scroll and lets the controller pick up blocks
// that came into view.
func (v *Viewer) scroll(moved bool) {
	if !moved {
		return
	}
	v.ctrl.OnScroll(v.doc.Path)
	v.Draw()
}

// Draw renders the visible rows and the status bar.
func (v *Viewer) Draw() {
	v.mu.Lock()
	theme := v.theme
	v.mu.Unlock()

	page := v.doc.Page()
	lines := page.Lines()
	top := int(page.Viewport().ScrollTop())
	w, h := v.screen.Size()

	v.screen.Clear()
	for y := 0; y < h-1; y++ {
		i := top + y
		if i >= len(lines) {
			break
		}
		v.drawLine(y, w, lines[i], theme)
	}
	v.drawStatus(w, h-1, len(lines), top, theme)
	v.screen.Show()
}

func (v *Viewer) drawLine(y, width int, line dom.Line, theme Theme) {
	x := 0
	for _, r := range line.Runs {
		style := theme.RunStyle(line.Tag, r)
		x = v.drawText(x, y, width, r.Text, style)
	}
}

// drawText draws text grapheme by grapheme and returns the next column.
func (v *Viewer) drawText(x, y, width int, text string, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		if x >= width {
			break
		}
		runes := g.Runes()
		v.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += max(g.Width(), 1)
	}
	return x
}

func (v *Viewer) drawStatus(width, y, total, top int, theme Theme) {
	for x := 0; x < width; x++ {
		v.screen.SetContent(x, y, ' ', nil, theme.Status)
	}

	v.mu.Lock()
	status, done, all := v.status, v.done, v.total
	v.mu.Unlock()

	state := "on"
	if !v.ctrl.Settings().Enabled {
		state = "off"
	}
	pos := 100
	if total > 0 {
		_, h := v.screen.Size()
		pos = min(100, (top+h-1)*100/total)
	}
	left := fmt.Sprintf(" %s [%s] %d/%d", v.doc.Name, state, done, all)
	if status != "" {
		left += "  " + status
	}
	right := fmt.Sprintf("%d%% ", pos)

	v.drawText(0, y, width, left, theme.Status)
	if rx := width - uniseg.StringWidth(right); rx > uniseg.StringWidth(left) {
		v.drawText(rx, y, width, right, theme.Status)
	}
}
