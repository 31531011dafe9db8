// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package diag

import (
	"errors"
	"fmt"

	"github.com/gad-lang/semcore/source"
)

var (
	// ErrNotConverged is wrapped by internal errors raised when a fixpoint
	// loop exceeds its iteration ceiling.
	ErrNotConverged = errors.New("did not converge")
	// ErrNonMonotonic is wrapped when a fact changes within one run.
	ErrNonMonotonic = errors.New("non-monotonic")
	// ErrMissingBinding is wrapped when a declaration has no symbol.
	ErrMissingBinding = errors.New("missing symbol binding")
	// ErrDanglingReference is wrapped when pruning drops a referenced
	// declaration.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrInvalidBoundary is wrapped by configuration errors about reentrancy
	// boundary contexts.
	ErrInvalidBoundary = errors.New("invalid reentrancy boundary")
)

// Node is the minimal view of a syntax node used for locations.
type Node interface {
	Pos() source.Pos
	String() string
}

// InternalError represents a broken invariant of the compiler core. It is
// always fatal.
type InternalError struct {
	Pos  source.FilePos
	Node Node
	Err  error
}

// Internalf creates an InternalError that wraps base with a formatted message.
func Internalf(base error, pos source.FilePos, nd Node, format string, args ...any) *InternalError {
	return &InternalError{
		Pos:  pos,
		Node: nd,
		Err:  &wrapped{msg: fmt.Sprintf(format, args...), base: base},
	}
}

func (e *InternalError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("Internal Error: %s\n\tat %s", e.Err.Error(), e.Pos)
	}
	return fmt.Sprintf("Internal Error: %s", e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid configuration supplied by a backend.
type ConfigError struct {
	Pos    source.FilePos
	Symbol string
	Err    error
}

// Configf creates a ConfigError that wraps base with a formatted message.
func Configf(base error, pos source.FilePos, symbol string, format string, args ...any) *ConfigError {
	return &ConfigError{
		Pos:    pos,
		Symbol: symbol,
		Err:    &wrapped{msg: fmt.Sprintf(format, args...), base: base},
	}
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("Config Error: %s\n\tat %s", e.Err.Error(), e.Pos)
	}
	return fmt.Sprintf("Config Error: %s", e.Err.Error())
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

type wrapped struct {
	msg  string
	base error
}

func (w *wrapped) Error() string { return w.msg }

func (w *wrapped) Unwrap() error { return w.base }

// ErrorList holds several errors. Error returns the first one; %+v prints
// all of them.
type ErrorList []error

// Add appends err if it is not nil.
func (m *ErrorList) Add(err error) {
	if err != nil {
		*m = append(*m, err)
	}
}

func (m ErrorList) Errors() []error {
	return m
}

// Err returns nil for an empty list, the error itself for a single element
// and the list otherwise.
func (m ErrorList) Err() error {
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

func (m ErrorList) Error() string {
	if len(m) == 0 {
		return ""
	}
	return m[0].Error()
}

func (m ErrorList) Unwrap() []error {
	return m
}

func (m ErrorList) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		if len(m) == 0 {
			return
		}
		if len(m) > 1 {
			_, _ = fmt.Fprint(s, "multiple errors:\n ")
		}
		switch {
		case s.Flag('+'):
			_, _ = fmt.Fprint(s, m[0].Error())
			for _, err := range m[1:] {
				_, _ = fmt.Fprint(s, "\n ")
				_, _ = fmt.Fprint(s, err.Error())
			}
		case s.Flag('#'):
			_, _ = fmt.Fprintf(s, "%#v", []error(m))
		default:
			_, _ = fmt.Fprint(s, m.Error())
		}
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", m.Error())
	}
}
