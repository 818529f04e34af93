// Package watcher reports changes to individual document files.
//
// Files are watched through their parent directory so that editors which
// save by writing a temporary file and renaming it over the original are
// still seen as modifying the document.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"time"
)

// Watcher errors.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("file is already being watched")
	ErrNotWatching     = errors.New("file is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op is a set of file operations.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// String names a single operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Has reports whether op includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Modified reports whether the file content may have changed.
func (op Op) Modified() bool {
	return op&(OpCreate|OpWrite) != 0
}

// Event is a change to a watched file.
type Event struct {
	// Path is the absolute path of the watched file.
	Path      string
	Op        Op
	Timestamp time.Time
}

// Watcher reports changes to a set of files. Paths in events are absolute.
type Watcher interface {
	Add(path string) error
	Remove(path string) error
	Events() <-chan Event
	Errors() <-chan error
	Files() []string
	Close() error
}

// Handler is called with each event.
type Handler func(event Event)

// Dispatcher routes watcher output to handlers registered for all files or
// for one file.
type Dispatcher struct {
	all    []Handler
	byPath map[string][]Handler
	onErr  []func(error)
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{byPath: make(map[string][]Handler)}
}

// OnEvent registers a handler for every event.
func (d *Dispatcher) OnEvent(h Handler) {
	d.all = append(d.all, h)
}

// OnModified registers fn for content changes of one file. The path is
// made absolute the same way FileWatcher.Add does.
func (d *Dispatcher) OnModified(path string, fn func()) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	d.byPath[path] = append(d.byPath[path], func(ev Event) {
		if ev.Op.Modified() {
			fn()
		}
	})
}

// OnError registers a handler for watcher errors.
func (d *Dispatcher) OnError(fn func(error)) {
	d.onErr = append(d.onErr, fn)
}

// Dispatch delivers one event.
func (d *Dispatcher) Dispatch(ev Event) {
	for _, h := range d.all {
		h(ev)
	}
	for _, h := range d.byPath[ev.Path] {
		h(ev)
	}
}

// Run dispatches events from w until ctx is cancelled or w is closed.
func (d *Dispatcher) Run(ctx context.Context, w Watcher) {
	events, errs := w.Events(), w.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.Dispatch(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			for _, fn := range d.onErr {
				fn(err)
			}
		}
	}
}
