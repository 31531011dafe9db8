// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package analysis

import (
	"github.com/gad-lang/semcore/internal/trace"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/source"
)

// Annotations read by the reentrancy pass.
const (
	AnnotReentrant    = "reentrant"
	AnnotNonReentrant = "nonreentrant"
)

// Options configures an Analyzer.
type Options struct {
	Config Config
	Trace  *trace.Printer
}

// Analyzer runs the whole program passes over a converged tree. Every walk
// follows only the taken branch of a decided condition.
type Analyzer struct {
	prog  *program.Program
	opt   *optimizer.Facts
	cfg   Config
	trace *trace.Printer

	syms  []*program.Symbol
	index map[*program.Symbol]int
	// stmts are the top-level statements that are not declarations. They
	// run at program start.
	stmts []program.Item
}

// New creates an Analyzer. A nil opt is treated as empty optimization facts.
func New(prog *program.Program, opt *optimizer.Facts, opts Options) *Analyzer {
	if opt == nil {
		opt = optimizer.NewFacts()
	}
	return &Analyzer{
		prog:  prog,
		opt:   opt,
		cfg:   opts.Config,
		trace: opts.Trace,
	}
}

// Analyze runs reachability, reentrancy, mutability, ref variants and usage
// in this order.
func (a *Analyzer) Analyze() (*Facts, error) {
	defer a.trace.Leave(a.trace.Enter("analyzer"))

	a.syms = a.prog.Symbols()
	a.index = make(map[*program.Symbol]int, len(a.syms))
	for i, sym := range a.syms {
		a.index[sym] = i
	}
	a.stmts = a.stmts[:0]
	for _, it := range a.prog.Merge().Items {
		if _, ok := it.Stmt.(node.Decl); !ok {
			a.stmts = append(a.stmts, it)
		}
	}

	f := NewFacts()
	a.reachability(f)
	if err := a.reentrancy(f); err != nil {
		return nil, err
	}
	a.mutability(f)
	a.refVariants(f)
	a.usage(f)
	return f, nil
}

func (a *Analyzer) id(sym *program.Symbol) int {
	i, ok := a.index[sym]
	if !ok {
		i = len(a.syms)
		a.index[sym] = i
		a.syms = append(a.syms, sym)
	}
	return i
}

func (a *Analyzer) position(sym *program.Symbol) source.FilePos {
	if sym == nil || sym.Decl == nil {
		return source.FilePos{}
	}
	return a.prog.Position(sym.Decl.Pos())
}

// runtimeInit reports whether the initializer of the global sym has no
// compile-time value and therefore runs at program start.
func (a *Analyzer) runtimeInit(sym *program.Symbol) bool {
	if !sym.IsGlobal() || sym.Init() == nil {
		return false
	}
	_, ok := a.opt.Value(sym.Instance, sym.Init())
	return !ok
}

func (a *Analyzer) walk(inst program.InstanceID, n node.Node, f func(node.Node)) {
	Walk(a.opt, inst, n, f)
}

// Walk calls f for n and its descendants as seen from instance inst. Only
// the taken branch of a condition decided in opt is visited, and nested
// function declarations are skipped.
func Walk(opt *optimizer.Facts, inst program.InstanceID, n node.Node, f func(node.Node)) {
	if n == nil {
		return
	}
	if opt == nil {
		opt = optimizer.NewFacts()
	}
	f(n)
	switch n := n.(type) {
	case *node.CondExpr:
		if c, ok := opt.Condition(inst, n.Cond); ok {
			taken := n.False
			if c {
				taken = n.True
			}
			if taken != nil {
				Walk(opt, inst, taken, f)
			}
			return
		}
	case *node.CondStmt:
		if c, ok := opt.Condition(inst, n.Cond); ok {
			if c {
				Walk(opt, inst, n.Body, f)
			}
			return
		}
	}
	for _, c := range node.Children(n) {
		if _, ok := c.(*node.FuncDecl); ok {
			continue
		}
		Walk(opt, inst, c, f)
	}
}

// calls returns the functions called from n in source order.
func (a *Analyzer) calls(inst program.InstanceID, n node.Node) []*program.Symbol {
	var out []*program.Symbol
	seen := map[*program.Symbol]bool{}
	a.walk(inst, n, func(c node.Node) {
		if sym := a.callee(inst, c); sym != nil && !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	})
	return out
}

// callee returns the function called by n if n is a direct call.
func (a *Analyzer) callee(inst program.InstanceID, n node.Node) *program.Symbol {
	call, ok := n.(*node.CallExpr)
	if !ok || call.Callee() == nil {
		return nil
	}
	sym := a.prog.BindingFor(inst, call.Callee())
	if sym == nil || sym.Kind != program.Function {
		return nil
	}
	return sym
}

// base returns the symbol at the root of an lvalue path.
func (a *Analyzer) base(inst program.InstanceID, x node.Expr) *program.Symbol {
	if id := optimizer.BaseIdent(x); id != nil {
		return a.prog.BindingFor(inst, id)
	}
	return nil
}

// mutableArg reports whether x may be passed as a mutable receiver: an
// addressable lvalue rooted at a mutable symbol.
func (a *Analyzer) mutableArg(inst program.InstanceID, x node.Expr) bool {
	sym := a.base(inst, x)
	return sym != nil && sym.Mutable
}
