package app

import (
	"sync"
	"time"

	"github.com/dshills/speedmark/internal/config"
	"github.com/dshills/speedmark/internal/filter"
	"github.com/dshills/speedmark/internal/highlight"
	"github.com/dshills/speedmark/internal/logging"
	"github.com/dshills/speedmark/internal/processor"
	"github.com/dshills/speedmark/internal/session"
	"github.com/dshills/speedmark/internal/viewport"
)

// Fixed scheduling delays.
const (
	// ScrollDelay debounces scroll-triggered rescans.
	ScrollDelay = 200 * time.Millisecond
	// MinEditDelay is the floor for edit-triggered passes.
	MinEditDelay = time.Second
)

// PassInfo describes a completed pass.
type PassInfo struct {
	Path    string
	Trigger session.Trigger
	Cleared int
	Result  processor.Result
}

// Controller coordinates highlighting for every open view.
type Controller struct {
	store    *config.Store
	sessions *session.Manager
	log      *logging.Logger
	progress processor.ProgressFunc
	onPass   func(PassInfo)

	clock session.Clock
	post  session.PostFunc

	// passMu serialises passes so no two touch the render tree at once.
	passMu sync.Mutex

	mu     sync.Mutex
	views  map[string]View
	active string
	sub    *config.Subscription
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithClock replaces the real clock, for tests.
func WithClock(clock session.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithPost runs scheduled passes through post, typically to hop onto
// the host's UI goroutine.
func WithPost(post session.PostFunc) Option {
	return func(c *Controller) {
		c.post = post
	}
}

// WithProgress reports per-block progress of every pass.
func WithProgress(fn processor.ProgressFunc) Option {
	return func(c *Controller) {
		c.progress = fn
	}
}

// WithPassHook is called after every pass.
func WithPassHook(fn func(PassInfo)) Option {
	return func(c *Controller) {
		c.onPass = fn
	}
}

// New creates a Controller reading settings from store. The controller
// subscribes to store changes until Close.
func New(store *config.Store, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		log:   logging.Nop(),
		views: make(map[string]View),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("controller")
	var post session.PostFunc
	if c.post != nil {
		post = func(fn func()) error {
			err := c.post(fn)
			if err != nil {
				c.log.Warn("scheduled pass dropped", "err", err)
			}
			return err
		}
	}
	c.sessions = session.NewManager(c.clock, post)
	c.sub = store.Subscribe(c.OnSettingsChanged)
	return c
}

// Close cancels pending passes and stops following settings changes.
func (c *Controller) Close() {
	c.sub.Unsubscribe()
	c.sessions.CancelAll()
}

// Sessions exposes the session manager.
func (c *Controller) Sessions() *session.Manager {
	return c.sessions
}

// Settings returns the current settings.
func (c *Controller) Settings() config.Settings {
	return c.store.Get()
}

// passSettings derives the placement settings for a view.
func (c *Controller) passSettings(v View) highlight.Settings {
	return v.Overrides.Apply(c.store.Get().HighlightConfig())
}

func (c *Controller) processor() *processor.Processor {
	return processor.New(
		processor.WithLogger(c.log),
		processor.WithProgress(c.progress),
	)
}

// Check reports whether the filters let a view's document through.
func (c *Controller) Check(v View) filter.Verdict {
	s := c.store.Get()
	return filter.New(s.ExcludedFolders, s.MinProcessLength).Check(v.Path, v.Content)
}

// Admit returns nil if automatic passes may touch the view. Otherwise the
// OperationError's context says why not.
func (c *Controller) Admit(v View) error {
	if !v.Rendered() {
		return NewOperationError("admit", v.Path, ErrNotRendered)
	}
	if v.Overrides.Disabled {
		return NewOperationError("admit", v.Path, ErrExcluded).WithContext("disabled in front matter")
	}
	if verdict := c.Check(v); verdict != filter.WillProcess {
		return NewOperationError("admit", v.Path, ErrExcluded).WithContext(verdict.String())
	}
	return nil
}

// Eligible reports whether automatic passes may touch the view.
func (c *Controller) Eligible(v View) bool {
	return c.Admit(v) == nil
}

// ProcessVisible highlights the unprocessed blocks within half a
// viewport of the visible area. It reports whether every block succeeded.
func (c *Controller) ProcessVisible(v View) bool {
	if !v.Rendered() {
		return false
	}
	res := c.pass(v, false, viewport.BufferHalf)
	return res.OK()
}

// ProcessAll highlights every eligible block regardless of visibility.
func (c *Controller) ProcessAll(v View) bool {
	if !v.Rendered() {
		return false
	}
	c.passMu.Lock()
	defer c.passMu.Unlock()

	s := c.passSettings(v)
	v.Container.SetHighlightColor(s.Color)
	res := c.processor().ProcessBlocks(v.Container.Blocks(), s)
	c.log.Debug("processed all blocks", "path", v.Path, "blocks", res.Total, "processed", res.Processed, "failed", res.Failed, "duration", res.Duration)
	return res.OK()
}

// ClearAll removes every highlight from the view's document.
func (c *Controller) ClearAll(v View) bool {
	if !v.Rendered() {
		return false
	}
	c.passMu.Lock()
	defer c.passMu.Unlock()

	n := v.Container.ClearAll()
	c.log.Debug("cleared document", "path", v.Path, "markers", n)
	return true
}

// pass runs one visibility-driven pass.
func (c *Controller) pass(v View, clearFirst bool, mode viewport.BufferMode) processor.Result {
	c.passMu.Lock()
	defer c.passMu.Unlock()

	cleared := 0
	if clearFirst {
		cleared = v.Container.ClearAll()
	}
	s := c.passSettings(v)
	v.Container.SetHighlightColor(s.Color)

	visible := viewport.FindVisible(v.Container.Geometry(), mode, v.Container.Blocks(), v.Container.Span)
	res := c.processor().ProcessBlocks(visible, s)
	c.log.Debug("pass finished",
		"path", v.Path,
		"buffer", mode.String(),
		"cleared", cleared,
		"visible", len(visible),
		"processed", res.Processed,
		"failed", res.Failed,
		"duration", res.Duration,
	)
	return res
}

// scheduled runs a pass for the view currently registered at path, which
// may have been replaced since scheduling.
func (c *Controller) scheduled(path string, trigger session.Trigger, clearFirst bool, mode viewport.BufferMode) func() {
	return func() {
		v, ok := c.view(path)
		if !ok || !v.Rendered() {
			return
		}
		if !c.store.Get().Enabled || !c.Eligible(v) {
			return
		}

		var cleared int
		if clearFirst {
			cleared = len(v.Container.Marked())
		}
		res := c.pass(v, clearFirst, mode)
		if c.onPass != nil {
			c.onPass(PassInfo{Path: path, Trigger: trigger, Cleared: cleared, Result: res})
		}
	}
}

func (c *Controller) view(path string) (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[session.Key(path)]
	return v, ok
}

func (c *Controller) setView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := session.Key(v.Path)
	c.views[key] = v
	c.active = key
}

// Active returns the active view.
func (c *Controller) Active() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return View{}, ErrNoActiveView
	}
	v, ok := c.views[c.active]
	if !ok {
		return View{}, ErrNoActiveView
	}
	return v, nil
}

// OnViewActivated is called when a view becomes the active one. Rendered,
// eligible documents get a full-buffer pass after the auto-process delay,
// clearing stale marks first. A repeated activation while an activation
// pass is already scheduled is ignored; a pending scroll or edit pass is
// replaced. Activating a different document closes the previous session.
func (c *Controller) OnViewActivated(v View) {
	if !v.Rendered() {
		c.log.Debug("ignoring activation", "path", v.Path, "kind", v.Kind.String())
		return
	}

	prev, _ := c.Active()
	c.setView(v)
	if prev.Path != "" && session.Key(prev.Path) != session.Key(v.Path) {
		// The replaced view stays registered so disabling can still clear
		// its marks; only its session goes away.
		if err := c.sessions.Close(prev.Path); err == nil {
			c.log.Debug("session closed", "path", prev.Path)
		}
	}

	s := c.store.Get()
	if !s.Enabled || !s.AutoProcess {
		return
	}
	if err := c.Admit(v); err != nil {
		c.log.Debug("document filtered", "path", v.Path, "reason", err)
		return
	}

	sess, _ := c.sessions.Open(v.Path)
	if sess.Pending() && sess.Trigger() == session.TriggerActivation {
		c.log.Debug("activation already scheduled", "path", v.Path, "session", sess.ID)
		return
	}
	sess.Schedule(session.TriggerActivation, s.Delay(), c.scheduled(v.Path, session.TriggerActivation, true, viewport.BufferFull))
}

// OnContentModified is called after the host re-rendered a document whose
// source changed. The pass is delayed by the auto-process delay, but at
// least MinEditDelay, and replaces any pending pass.
func (c *Controller) OnContentModified(v View) {
	if !v.Rendered() {
		return
	}
	if active, err := c.Active(); err != nil || session.Key(active.Path) != session.Key(v.Path) {
		c.log.Debug("ignoring edit of inactive document", "path", v.Path)
		return
	}
	c.setView(v)

	s := c.store.Get()
	if !s.Enabled || !s.AutoProcess || !c.Eligible(v) {
		return
	}

	sess, _ := c.sessions.Open(v.Path)
	sess.Schedule(session.TriggerEdit, max(s.Delay(), MinEditDelay), c.scheduled(v.Path, session.TriggerEdit, true, viewport.BufferFull))
}

// OnScroll is called when the visible area of the active view changes. If
// unprocessed blocks came into range a short debounced pass picks them up.
// A pending activation or edit pass already covers the new area and is
// left alone.
func (c *Controller) OnScroll(path string) {
	v, err := c.Active()
	if err != nil || session.Key(v.Path) != session.Key(path) || !v.Rendered() {
		return
	}
	if !c.store.Get().Enabled || !c.Eligible(v) {
		return
	}

	sess, _ := c.sessions.Open(path)
	if sess.Pending() && sess.Trigger() != session.TriggerScroll {
		return
	}

	c.passMu.Lock()
	visible := viewport.FindVisible(v.Container.Geometry(), viewport.BufferHalf, v.Container.Blocks(), v.Container.Span)
	c.passMu.Unlock()
	if len(visible) == 0 {
		return
	}
	sess.Schedule(session.TriggerScroll, ScrollDelay, c.scheduled(path, session.TriggerScroll, false, viewport.BufferHalf))
}

// OnViewClosed forgets a view and cancels its pending pass.
func (c *Controller) OnViewClosed(path string) error {
	key := session.Key(path)

	c.mu.Lock()
	_, ok := c.views[key]
	delete(c.views, key)
	if c.active == key {
		c.active = ""
	}
	c.mu.Unlock()

	if err := c.sessions.Close(path); err != nil && !ok {
		return NewOperationError("close", path, ErrViewNotFound)
	}
	return nil
}

// Toggle flips the enabled setting and returns the new state. Observers,
// including this controller, react through the settings store.
func (c *Controller) Toggle() bool {
	var enabled bool
	c.store.Update(func(s *config.Settings) {
		s.Enabled = !s.Enabled
		enabled = s.Enabled
	})
	return enabled
}

// Reprocess clears and re-highlights the active view immediately.
func (c *Controller) Reprocess() error {
	v, err := c.Active()
	if err != nil {
		return err
	}
	if !v.Rendered() {
		return NewOperationError("reprocess", v.Path, ErrNotRendered)
	}
	sess, _ := c.sessions.Open(v.Path)
	sess.RunNow(c.scheduled(v.Path, session.TriggerSettings, true, viewport.BufferFull))
	return nil
}

// OnSettingsChanged reacts to a settings update. Disabling clears every
// open document; enabling or changing any highlight setting clears and
// re-highlights the active one.
func (c *Controller) OnSettingsChanged(old, updated config.Settings) {
	if l := updated.Level(); l != old.Level() {
		c.log.SetLevel(l)
	}

	if !updated.Enabled {
		if old.Enabled {
			c.clearEverything()
		}
		return
	}
	if old.Enabled && !old.HighlightChanged(updated) {
		return
	}

	v, err := c.Active()
	if err != nil || !v.Rendered() {
		return
	}
	sess, _ := c.sessions.Open(v.Path)
	sess.RunNow(c.scheduled(v.Path, session.TriggerSettings, true, viewport.BufferFull))
}

// clearEverything cancels pending passes and clears every known view.
func (c *Controller) clearEverything() {
	c.sessions.CancelAll()

	c.mu.Lock()
	views := make([]View, 0, len(c.views))
	for _, v := range c.views {
		views = append(views, v)
	}
	c.mu.Unlock()

	for _, v := range views {
		if !v.Rendered() {
			continue
		}
		sess, ok := c.sessions.Get(v.Path)
		if ok {
			sess.SetState(session.Clearing)
		}
		c.ClearAll(v)
		if ok {
			sess.SetState(session.Idle)
		}
	}
}
