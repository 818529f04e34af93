// Package processor applies highlight placement to individual content
// blocks of a rendered document and reverts it.
package processor

import (
	"fmt"
	"time"

	"github.com/dshills/speedmark/internal/highlight"
	"github.com/dshills/speedmark/internal/logging"
	"github.com/dshills/speedmark/internal/sanitize"
)

// Block is one renderable text-bearing element of a document. The
// processed flag lives on the element itself so it survives between
// passes; Block values are otherwise transient.
type Block interface {
	// Processed reports whether the block currently carries highlights.
	Processed() bool
	// SetProcessed sets or clears the processed flag.
	SetProcessed(processed bool)
	// Text returns the block's text content without any markup.
	Text() string
	// SetMarkup replaces the block's content with sanitized markup.
	SetMarkup(markup string) error
	// SetText replaces the block's content with plain text.
	SetText(text string)
}

// ProgressFunc is called after each block of a pass.
type ProgressFunc func(done, total int)

// Result summarises one processing pass.
type Result struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// OK reports whether no block failed.
func (r Result) OK() bool {
	return r.Failed == 0
}

// Processor runs segmentation and placement over blocks.
type Processor struct {
	sanitizer sanitize.Sanitizer
	log       *logging.Logger
	progress  ProgressFunc
}

// Option configures a Processor.
type Option func(*Processor)

// WithSanitizer replaces the default bluemonday policy.
func WithSanitizer(s sanitize.Sanitizer) Option {
	return func(p *Processor) {
		p.sanitizer = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) {
		p.log = l
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Processor) {
		p.progress = fn
	}
}

// New creates a Processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		sanitizer: sanitize.NewPolicy(),
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessElement highlights one block. It is a no-op returning false if the
// block is already processed. Sanitizer failures fall back to plain text.
func (p *Processor) ProcessElement(b Block, s highlight.Settings) bool {
	if b.Processed() {
		return false
	}
	b.SetProcessed(true)

	text := b.Text()
	markup := highlight.Highlight(text, s)

	safe, err := p.sanitizer.Sanitize(markup)
	if err == nil {
		err = b.SetMarkup(safe)
	}
	if err != nil {
		p.log.Warn("sanitize failed, inserting plain text", "error", err)
		b.SetText(sanitize.PlainText(markup))
	}
	return true
}

// ProcessBlocks highlights every unprocessed block. A failure in one block,
// including a panic, is logged and does not stop the pass.
func (p *Processor) ProcessBlocks(blocks []Block, s highlight.Settings) Result {
	start := time.Now()
	res := Result{Total: len(blocks)}

	for i, b := range blocks {
		done, err := p.processSafely(b, s)
		switch {
		case err != nil:
			res.Failed++
			p.log.Error("block processing failed", "index", i, "error", err)
		case done:
			res.Processed++
		default:
			res.Skipped++
		}
		if p.progress != nil {
			p.progress(i+1, len(blocks))
		}
	}

	res.Duration = time.Since(start)
	p.log.Debug("pass complete",
		"total", res.Total, "processed", res.Processed,
		"skipped", res.Skipped, "failed", res.Failed, "duration", res.Duration)
	return res
}

// processSafely converts a panic into an error and clears the processed
// flag so a later pass can retry the block.
func (p *Processor) processSafely(b Block, s highlight.Settings) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			func() {
				defer func() { _ = recover() }()
				b.SetProcessed(false)
			}()
		}
	}()
	return p.ProcessElement(b, s), nil
}

// ClearElement reverts a processed block to its plain text and clears its
// flag. It returns false if the block was not processed.
func ClearElement(b Block) bool {
	if !b.Processed() {
		return false
	}
	b.SetText(b.Text())
	b.SetProcessed(false)
	return true
}

// ClearAll reverts every processed block and returns how many were cleared.
func ClearAll(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		if ClearElement(b) {
			n++
		}
	}
	return n
}
