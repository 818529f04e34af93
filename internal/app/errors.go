// Package app is the host-facing facade of speedmark: it receives view
// lifecycle, edit, scroll and settings notifications, decides when a
// document should be highlighted, and runs the passes.
package app

import (
	"errors"
	"fmt"
	"strings"
)

// Controller errors.
var (
	// ErrNotRendered indicates a view that does not show a rendered document.
	ErrNotRendered = errors.New("view is not a rendered document")

	// ErrViewNotFound indicates no view is registered for a path.
	ErrViewNotFound = errors.New("view not found")

	// ErrNoActiveView indicates no view is currently active.
	ErrNoActiveView = errors.New("no active view")

	// ErrExcluded indicates the document is filtered out.
	ErrExcluded = errors.New("document excluded from processing")
)

// OperationError ties an error to the operation and document it came from.
type OperationError struct {
	Op      string // load, render, parse, reload, admit, close
	Target  string // usually a document path
	Context string
	Err     error
}

// NewOperationError wraps err.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

// WithContext sets a short explanation and returns e. A nil e stays nil.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e != nil {
		e.Context = ctx
	}
	return e
}

// Error formats as "op target (context): err", omitting empty parts.
func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Target != "" {
		b.WriteByte(' ')
		b.WriteString(e.Target)
	}
	if e.Context != "" {
		fmt.Fprintf(&b, " (%s)", e.Context)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the wrapped error.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
