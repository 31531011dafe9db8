// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package analysis

import (
	"github.com/gad-lang/semcore/diag"
	"github.com/gad-lang/semcore/program"
)

// boundary returns the context of an entry or exit symbol. Annotations win
// over the backend override, which wins over the default of point.
func (a *Analyzer) boundary(sym *program.Symbol, point BoundaryPoint) (Context, error) {
	anns := sym.Annotations()
	r, n := anns.Has(AnnotReentrant), anns.Has(AnnotNonReentrant)
	switch {
	case r && n:
		return 0, diag.Configf(diag.ErrInvalidBoundary, a.position(sym), sym.Label(),
			"conflicting annotations %s and %s on %s function %s",
			AnnotReentrant, AnnotNonReentrant, point, sym.Name)
	case r:
		return Reentrant, nil
	case n:
		return NonReentrant, nil
	}

	switch mode := a.cfg.Mode(sym, point); mode {
	case BoundaryReentrant:
		return Reentrant, nil
	case BoundaryNonReentrant:
		return NonReentrant, nil
	case BoundaryDefault:
		ctx := a.cfg.Default(point)
		if !ctx.Valid() {
			return 0, diag.Configf(diag.ErrInvalidBoundary, a.position(sym), sym.Label(),
				"invalid default %s context %q for %s", point, byte(ctx), sym.Name)
		}
		return ctx, nil
	default:
		return 0, diag.Configf(diag.ErrInvalidBoundary, a.position(sym), sym.Label(),
			"invalid %s boundary mode %s for %s", point, mode, sym.Name)
	}
}

type contextItem struct {
	sym *program.Symbol
	ctx Context
}

// reentrancy propagates entry contexts along the call edges of reachable
// functions, foldable ones included: a call with runtime arguments runs under
// the caller's context.
func (a *Analyzer) reentrancy(f *Facts) error {
	defer a.trace.Leave(a.trace.Enter("reentrancy"))

	exits := map[*program.Symbol]Context{}
	for _, sym := range a.syms {
		if sym.Kind != program.Function || !sym.External {
			continue
		}
		ctx, err := a.boundary(sym, ExitPoint)
		if err != nil {
			return err
		}
		exits[sym] = ctx
	}

	var work []contextItem
	push := func(sym *program.Symbol, ctx Context) {
		if f.AddContext(sym, ctx) {
			work = append(work, contextItem{sym: sym, ctx: ctx})
		}
	}

	for _, sym := range a.syms {
		if sym.Kind != program.Function || !sym.Exported || sym.External || !f.Reachable[sym] {
			continue
		}
		ctx, err := a.boundary(sym, EntryPoint)
		if err != nil {
			return err
		}
		push(sym, ctx)
	}
	for _, sym := range a.syms {
		if a.runtimeInit(sym) {
			for _, callee := range a.calls(sym.Instance, sym.Init()) {
				push(callee, NonReentrant)
			}
		}
	}
	for _, it := range a.stmts {
		for _, callee := range a.calls(it.Instance, it.Stmt) {
			push(callee, NonReentrant)
		}
	}

	for len(work) > 0 {
		it := work[0]
		work = work[1:]
		a.trace.Printf("context: %s %s", it.sym.Label(), it.ctx)
		if it.sym.External {
			if it.ctx == Reentrant && exits[it.sym] == NonReentrant {
				return diag.Configf(diag.ErrInvalidBoundary, a.position(it.sym), it.sym.Label(),
					"reentrant path calls non-reentrant external function %s", it.sym.Name)
			}
			continue
		}
		body := it.sym.Body()
		if body == nil || !f.Reachable[it.sym] {
			continue
		}
		for _, callee := range a.calls(it.sym.Instance, body) {
			if it.ctx == Reentrant && callee.External && exits[callee] == NonReentrant {
				return diag.Configf(diag.ErrInvalidBoundary, a.position(it.sym), callee.Label(),
					"reentrant path through %s calls non-reentrant external function %s",
					it.sym.Name, callee.Name)
			}
			push(callee, it.ctx)
		}
	}

	for _, sym := range a.syms {
		if sym.Kind == program.Function && !sym.External && f.Reachable[sym] && len(f.Reentrancy[sym]) == 0 {
			f.AddContext(sym, NonReentrant)
		}
	}
	return nil
}
