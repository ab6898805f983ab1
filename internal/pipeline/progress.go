package pipeline

import (
	"fmt"
	"io"
)

// Progress prints operator-facing status lines
type Progress struct {
	w io.Writer
}

// NewProgress creates a reporter writing to w. A nil writer discards output.
func NewProgress(w io.Writer) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{w: w}
}

// Step announces a stage that is starting
func (p *Progress) Step(format string, args ...any) {
	p.printf("⚙️  "+format, args...)
}

// Done reports a completed stage
func (p *Progress) Done(format string, args ...any) {
	p.printf("✓ "+format, args...)
}

// Warn reports a problem the run continues past
func (p *Progress) Warn(format string, args ...any) {
	p.printf("⚠️  "+format, args...)
}

// Fail reports the error that ends the run
func (p *Progress) Fail(format string, args ...any) {
	p.printf("✗ "+format, args...)
}

// Line prints an unadorned line
func (p *Progress) Line(format string, args ...any) {
	p.printf(format, args...)
}

// Blank prints an empty line
func (p *Progress) Blank() {
	_, _ = fmt.Fprintln(p.w)
}

func (p *Progress) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}
