// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package analysis

import (
	"golang.org/x/tools/container/intsets"

	"github.com/gad-lang/semcore/program"
)

// reachability computes the call closure of exported functions, of runtime
// global initializers and of top-level statements.
func (a *Analyzer) reachability(f *Facts) {
	defer a.trace.Leave(a.trace.Enter("reachability"))

	var visited intsets.Sparse
	var queue []*program.Symbol
	mark := func(l ...*program.Symbol) {
		for _, sym := range l {
			if visited.Insert(a.id(sym)) {
				f.Reachable[sym] = true
				queue = append(queue, sym)
			}
		}
	}

	for _, sym := range a.syms {
		if sym.Kind == program.Function && sym.Exported {
			mark(sym)
		}
	}
	for _, sym := range a.syms {
		if a.runtimeInit(sym) {
			mark(a.calls(sym.Instance, sym.Init())...)
		}
	}
	for _, it := range a.stmts {
		mark(a.calls(it.Instance, it.Stmt)...)
	}

	for len(queue) > 0 {
		sym := queue[0]
		queue = queue[1:]
		a.trace.Printf("reachable: %s", sym.Label())
		if body := sym.Body(); body != nil {
			mark(a.calls(sym.Instance, body)...)
		}
	}
}
