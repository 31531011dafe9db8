// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package analysis

import (
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
)

// refVariants records the receiver masks used at the call sites of
// reachable runtime code.
func (a *Analyzer) refVariants(f *Facts) {
	defer a.trace.Leave(a.trace.Enter("ref variants"))

	record := func(inst program.InstanceID) func(node.Node) {
		return func(n node.Node) {
			callee := a.callee(inst, n)
			if callee == nil || callee.FuncDecl() == nil {
				return
			}
			k := len(callee.FuncDecl().Receivers)
			if k == 0 {
				return
			}
			call := n.(*node.CallExpr)
			mask := make([]byte, k)
			for i := range mask {
				mask[i] = 'N'
				if i < len(call.Receivers) && a.mutableArg(inst, call.Receivers[i]) {
					mask[i] = 'M'
				}
			}
			set := f.RefVariants[callee]
			if set == nil {
				set = map[string]bool{}
				f.RefVariants[callee] = set
			}
			set[string(mask)] = true
		}
	}

	for _, sym := range a.syms {
		switch {
		case sym.Kind == program.Function:
			if f.Reachable[sym] {
				a.walk(sym.Instance, sym.Body(), record(sym.Instance))
			}
		case a.runtimeInit(sym):
			a.walk(sym.Instance, sym.Init(), record(sym.Instance))
		}
	}
	for _, it := range a.stmts {
		a.walk(it.Instance, it.Stmt, record(it.Instance))
	}
}
