package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestOp(t *testing.T) {
	op := OpCreate | OpWrite
	if !op.Has(OpWrite) || op.Has(OpRemove) {
		t.Error("Has() wrong")
	}
	if !op.Modified() || OpRemove.Modified() {
		t.Error("Modified() wrong")
	}
	if OpRename.String() != "RENAME" || op.String() != "UNKNOWN" {
		t.Error("String() wrong")
	}
	if got := convertOp(fsnotify.Write | fsnotify.Chmod); got != OpWrite {
		t.Errorf("convertOp = %v", got)
	}
	if convertOp(fsnotify.Chmod) != 0 {
		t.Error("chmod should be ignored")
	}
}

func TestFileWatcher_AddRemove(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := w.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Add(a); err != ErrAlreadyWatching {
		t.Errorf("Add again = %v", err)
	}
	if err := w.Add(b); err != nil {
		t.Fatalf("Add b: %v", err)
	}
	if got := w.Files(); len(got) != 2 {
		t.Errorf("Files() = %v", got)
	}
	if err := w.Remove(a); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := w.Remove(a); err != ErrNotWatching {
		t.Errorf("Remove again = %v", err)
	}
	if err := w.Add(filepath.Join(dir, "missing.md")); err != ErrPathNotExist {
		t.Errorf("Add missing = %v", err)
	}
}

func TestFileWatcher_Events(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	dir := t.TempDir()
	watched := filepath.Join(dir, "note.md")
	other := filepath.Join(dir, "other.md")
	if err := os.WriteFile(watched, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(watched); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := os.WriteFile(other, []byte("noise"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(watched, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}

	abs, _ := filepath.Abs(watched)
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Path != abs {
				t.Fatalf("event for unwatched file %s", ev.Path)
			}
			if ev.Op.Modified() {
				return
			}
		case err := <-w.Errors():
			t.Fatalf("watch error: %v", err)
		case <-timeout:
			t.Fatal("timed out waiting for write event")
		}
	}
}

func TestFileWatcher_CloseIdempotent(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.Add("."); err != ErrWatcherClosed {
		t.Errorf("Add after close = %v", err)
	}
}

type chanWatcher struct {
	events chan Event
	errors chan error
}

func (c *chanWatcher) Add(string) error { return nil }
func (c *chanWatcher) Remove(string) error { return nil }
func (c *chanWatcher) Events() <-chan Event { return c.events }
func (c *chanWatcher) Errors() <-chan error { return c.errors }
func (c *chanWatcher) Files() []string { return nil }
func (c *chanWatcher) Close() error {
	close(c.events)
	return nil
}

func TestDispatcher_Run(t *testing.T) {
	cw := &chanWatcher{events: make(chan Event, 2), errors: make(chan error, 1)}
	d := NewDispatcher()

	var got []Event
	var errs []error
	d.OnEvent(func(e Event) { got = append(got, e) })
	d.OnError(func(err error) { errs = append(errs, err) })

	cw.events <- Event{Path: "/a.md", Op: OpWrite}
	cw.errors <- os.ErrPermission
	cw.events <- Event{Path: "/b.md", Op: OpCreate}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() {
		time.Sleep(100 * time.Millisecond)
		cw.Close()
	}()
	d.Run(ctx, cw)

	if len(got) != 2 || len(errs) != 1 {
		t.Errorf("events = %v, errors = %v", got, errs)
	}
}

func TestDispatcher_OnModified(t *testing.T) {
	d := NewDispatcher()
	abs, err := filepath.Abs("note.md")
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	d.OnModified("note.md", func() { calls++ })

	d.Dispatch(Event{Path: abs, Op: OpWrite})
	d.Dispatch(Event{Path: abs, Op: OpRemove})
	d.Dispatch(Event{Path: "/elsewhere/note.md", Op: OpWrite})
	d.Dispatch(Event{Path: abs, Op: OpCreate})

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
