// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package optimizer

import (
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
)

// Reasons why a function is not foldable.
const (
	ReasonExternal         = "external-or-no-body"
	ReasonHasReceivers     = "has-receivers"
	ReasonWritesGlobal     = "writes-global:"
	ReasonReadsMutable     = "reads-mutable-global:"
	ReasonCallsExternal    = "calls-external:"
	ReasonCallsNonFoldable = "calls-non-foldable:"
)

// InferFoldable computes the set of functions whose calls the evaluator may
// reduce. A function is foldable when it has a body, takes no reference
// receivers, neither writes nor reads a mutable non-local symbol, and calls
// only foldable functions. Every rejected function gets a skip reason.
func InferFoldable(prog *program.Program, facts *Facts) {
	var funcs []*program.Symbol
	calls := map[*program.Symbol][]*program.Symbol{}

	for _, sym := range prog.Symbols() {
		if sym.Kind != program.Function {
			continue
		}
		funcs = append(funcs, sym)
		if reason := localImpurity(prog, sym); reason != "" {
			facts.SkipReasons[sym] = reason
			continue
		}
		facts.Foldable[sym] = true
		calls[sym] = Callees(prog, sym.Instance, sym.Body())
	}

	for changed := true; changed; {
		changed = false
		for _, sym := range funcs {
			if !facts.Foldable[sym] {
				continue
			}
			for _, callee := range calls[sym] {
				if !facts.Foldable[callee] {
					delete(facts.Foldable, sym)
					facts.SkipReasons[sym] = ReasonCallsNonFoldable + callee.Name
					changed = true
					break
				}
			}
		}
	}
}

func localImpurity(prog *program.Program, sym *program.Symbol) (reason string) {
	fd := sym.FuncDecl()
	if fd == nil || sym.External || fd.External || fd.Body == nil {
		return ReasonExternal
	}
	if len(fd.Receivers) > 0 {
		return ReasonHasReceivers
	}

	Inspect(fd.Body, func(n node.Node) bool {
		if reason != "" {
			return false
		}
		switch n := n.(type) {
		case *node.AssignExpr:
			if id := BaseIdent(n.LHS); id != nil {
				if target := prog.BindingFor(sym.Instance, id); target != nil && !target.Local {
					reason = ReasonWritesGlobal + target.Name
				}
			}
		case *node.Ident:
			target := prog.BindingFor(sym.Instance, n)
			if target != nil && target.IsGlobal() && (target.Mutable || target.Kind == program.Variable) {
				reason = ReasonReadsMutable + target.Name
			}
		case *node.CallExpr:
			if callee := n.Callee(); callee != nil {
				target := prog.BindingFor(sym.Instance, callee)
				if target != nil && target.Kind == program.Function && target.External {
					reason = ReasonCallsExternal + target.Name
				}
			}
		}
		return true
	})
	return
}
