// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package analysis

import (
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
)

// mutates reports whether callee may write its i-th receiver. Unknown
// callees are assumed to write.
func mutates(f *Facts, callee *program.Symbol, i int) bool {
	if callee == nil {
		return true
	}
	m, ok := f.ReceiverMutates[callee]
	if !ok || i >= len(m) {
		return true
	}
	return m[i]
}

// mutability computes which receivers every function writes, then which
// mutable globals are written by reachable code.
func (a *Analyzer) mutability(f *Facts) {
	defer a.trace.Leave(a.trace.Enter("mutability"))

	var funcs []*program.Symbol
	for _, sym := range a.syms {
		fd := sym.FuncDecl()
		if sym.Kind != program.Function || fd == nil || len(fd.Receivers) == 0 {
			continue
		}
		m := make([]bool, len(fd.Receivers))
		if sym.External || fd.External || fd.Body == nil {
			for i := range m {
				m[i] = true
			}
		} else {
			funcs = append(funcs, sym)
		}
		f.ReceiverMutates[sym] = m
	}

	for changed := true; changed; {
		changed = false
		for _, sym := range funcs {
			if a.receiverWrites(f, sym) {
				changed = true
			}
		}
	}

	// Only initializers of live globals are walked: exported ones and those
	// read from reachable code, transitively.
	written := map[*program.Symbol]bool{}
	live := map[*program.Symbol]bool{}
	var pending []*program.Symbol
	enliven := func(sym *program.Symbol) {
		if sym != nil && sym.IsGlobal() && !live[sym] {
			live[sym] = true
			pending = append(pending, sym)
		}
	}
	note := func(inst program.InstanceID) func(node.Node) {
		return func(n node.Node) {
			switch n := n.(type) {
			case *node.Ident:
				enliven(a.prog.BindingFor(inst, n))
			case *node.AssignExpr:
				if sym := a.base(inst, n.LHS); sym != nil && sym.IsGlobal() {
					written[sym] = true
				}
			case *node.CallExpr:
				callee := a.callee(inst, n)
				for i, r := range n.Receivers {
					if !mutates(f, callee, i) || !a.mutableArg(inst, r) {
						continue
					}
					if sym := a.base(inst, r); sym != nil && sym.IsGlobal() {
						written[sym] = true
					}
				}
			}
		}
	}
	for _, sym := range a.syms {
		switch {
		case sym.Kind == program.Function && f.Reachable[sym]:
			a.walk(sym.Instance, sym.Body(), note(sym.Instance))
		case sym.IsGlobal() && sym.Exported:
			enliven(sym)
		}
	}
	for _, it := range a.stmts {
		a.walk(it.Instance, it.Stmt, note(it.Instance))
	}
	for len(pending) > 0 {
		sym := pending[0]
		pending = pending[1:]
		if a.runtimeInit(sym) {
			a.walk(sym.Instance, sym.Init(), note(sym.Instance))
		}
	}

	for _, sym := range a.syms {
		if !sym.IsGlobal() || sym.Decl == nil {
			continue
		}
		if sym.Mutable && written[sym] {
			f.Mutability[sym] = Mutable
		} else {
			f.Mutability[sym] = Constexpr
		}
	}
}

// receiverWrites updates the receiver mask of sym and reports whether it
// changed.
func (a *Analyzer) receiverWrites(f *Facts, sym *program.Symbol) (changed bool) {
	fd := sym.FuncDecl()
	recv := make(map[*program.Symbol]int, len(fd.Receivers))
	for i, p := range fd.Receivers {
		if s := a.prog.BindingFor(sym.Instance, p.Name); s != nil {
			recv[s] = i
		}
	}
	m := f.ReceiverMutates[sym]
	set := func(target *program.Symbol) {
		if i, ok := recv[target]; ok && !m[i] {
			m[i] = true
			changed = true
		}
	}
	a.walk(sym.Instance, fd.Body, func(n node.Node) {
		switch n := n.(type) {
		case *node.AssignExpr:
			set(a.base(sym.Instance, n.LHS))
		case *node.CallExpr:
			callee := a.callee(sym.Instance, n)
			for i, r := range n.Receivers {
				if mutates(f, callee, i) {
					set(a.base(sym.Instance, r))
				}
			}
		}
	})
	return
}
