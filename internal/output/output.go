// Package output provides context-aware primary output for svn2git.
// Stdout carries progress marks and the statistics table.
// Stderr (via the log package) carries diagnostics.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
)

type ctxKey struct{}

// Printer writes primary output to stdout.
//
// Progress dots are written without a newline; the printer remembers an
// open dot line so the next regular line starts on its own row.
type Printer struct {
	w       io.Writer
	dotLine bool
}

// New creates a new Printer writing to the given writer.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// WithPrinter attaches a Printer to the context.
func WithPrinter(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, ctxKey{}, &Printer{w: w})
}

// FromContext retrieves the Printer from context.
// Returns a Printer writing to os.Stdout if none is attached.
func FromContext(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return &Printer{w: os.Stdout}
}

// Print writes output without a newline.
func (p *Printer) Print(a ...any) {
	p.EndLine()
	fmt.Fprint(p.w, a...)
}

// Printf writes formatted output.
func (p *Printer) Printf(format string, a ...any) {
	p.EndLine()
	fmt.Fprintf(p.w, format, a...)
}

// Println writes a line of output.
func (p *Printer) Println(a ...any) {
	p.EndLine()
	fmt.Fprintln(p.w, a...)
}

// Dot writes a single progress mark.
func (p *Printer) Dot() {
	fmt.Fprint(p.w, ".")
	p.dotLine = true
}

// EndLine terminates a pending line of progress marks, if any.
func (p *Printer) EndLine() {
	if p.dotLine {
		fmt.Fprintln(p.w)
		p.dotLine = false
	}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}
