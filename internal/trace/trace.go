// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package trace

import (
	"fmt"
	"io"
)

const (
	dots = ". . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . "
	n    = len(dots)
)

// Printer writes indented trace lines. A nil *Printer or a Printer without
// writer discards everything, so callers can trace unconditionally.
type Printer struct {
	w      io.Writer
	indent int
}

// New returns a Printer writing to w, or nil if w is nil.
func New(w io.Writer) *Printer {
	if w == nil {
		return nil
	}
	return &Printer{w: w}
}

// Enabled reports whether trace output is written.
func (p *Printer) Enabled() bool {
	return p != nil && p.w != nil
}

func (p *Printer) pad() {
	i := 2 * p.indent
	for i > n {
		_, _ = fmt.Fprint(p.w, dots)
		i -= n
	}
	_, _ = fmt.Fprint(p.w, dots[0:i])
}

// Printf writes a single "<msg>" line at the current indentation.
func (p *Printer) Printf(format string, args ...any) {
	if !p.Enabled() {
		return
	}
	p.pad()
	_, _ = fmt.Fprint(p.w, "<")
	_, _ = fmt.Fprintf(p.w, format, args...)
	_, _ = fmt.Fprintln(p.w, ">")
}

// Println writes args at the current indentation.
func (p *Printer) Println(args ...any) {
	if !p.Enabled() {
		return
	}
	p.pad()
	_, _ = fmt.Fprintln(p.w, args...)
}

// Enter opens a "{" section. Use as: defer p.Leave(p.Enter("msg")).
func (p *Printer) Enter(msg string) *Printer {
	if !p.Enabled() {
		return p
	}
	p.Println(msg, "{")
	p.indent++
	return p
}

// Leave closes the section opened by Enter.
func (p *Printer) Leave(_ *Printer) {
	if !p.Enabled() {
		return
	}
	p.indent--
	p.Println("}")
}
