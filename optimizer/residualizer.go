// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package optimizer

import (
	"sort"
	"strconv"

	"github.com/gad-lang/semcore/ctv"
	"github.com/gad-lang/semcore/internal/trace"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/source"
	"github.com/gad-lang/semcore/token"
)

// AnnotUnroll marks an iteration whose body may be expanded per element.
const AnnotUnroll = "unroll"

// ResidualizeOptions configures the Residualizer.
type ResidualizeOptions struct {
	// UnrollGrowthFactor bounds the size of an expanded iteration relative
	// to the original loop. 1 means never larger than the loop.
	UnrollGrowthFactor int
	Trace              *trace.Printer
}

// Residualizer rewrites a program with the facts of an optimizer run. A node
// shared by several instances is only rewritten when every live instance
// agrees on its fact.
type Residualizer struct {
	prog    *program.Program
	facts   *Facts
	opts    ResidualizeOptions
	trace   *trace.Printer
	all     []program.InstanceID
	live    []program.InstanceID
	changed bool
}

// NewResidualizer creates a Residualizer.
func NewResidualizer(prog *program.Program, facts *Facts, opts ResidualizeOptions) *Residualizer {
	if opts.UnrollGrowthFactor <= 0 {
		opts.UnrollGrowthFactor = 1
	}
	return &Residualizer{prog: prog, facts: facts, opts: opts, trace: opts.Trace}
}

// Rewrite rewrites the program in place and reports whether the tree
// changed.
func (r *Residualizer) Rewrite(prog *program.Program, facts *Facts) (bool, error) {
	r.prog, r.facts = prog, facts
	return r.Residualize(), nil
}

// Residualize rewrites every module and reports whether the tree changed.
func (r *Residualizer) Residualize() bool {
	defer r.trace.Leave(r.trace.Enter("residualizer"))

	r.changed = false
	reach := reachableSoFar(r.prog)
	for _, m := range r.prog.Modules {
		r.all = r.all[:0]
		for _, in := range r.prog.Instances {
			if in.Module == m {
				r.all = append(r.all, in.ID)
			}
		}
		if len(r.all) == 0 {
			continue
		}

		out := m.Stmts[:0:0]
		for _, s := range m.Stmts {
			r.live = r.live[:0]
			for _, inst := range r.all {
				if fd, ok := s.(*node.FuncDecl); ok && !reach[r.prog.BindingFor(inst, fd)] {
					continue
				}
				r.live = append(r.live, inst)
			}
			if len(r.live) == 0 {
				out = append(out, s)
				continue
			}
			out = append(out, r.stmt(s, true)...)
		}
		m.Stmts = out
	}
	return r.changed
}

func (r *Residualizer) change(format string, args ...any) {
	r.changed = true
	r.trace.Printf(format, args...)
}

// value returns the value every live instance agrees on.
func (r *Residualizer) value(x node.Expr) (ctv.Value, bool) {
	var out ctv.Value
	for i, inst := range r.live {
		v, ok := r.facts.Value(inst, x)
		if !ok {
			return nil, false
		}
		if i == 0 {
			out = v
		} else if !ctv.Equal(out, v) {
			return nil, false
		}
	}
	return out, out != nil
}

// condition returns the decision every live instance agrees on.
func (r *Residualizer) condition(x node.Expr) (value bool, decided bool) {
	for i, inst := range r.live {
		b, ok := r.facts.Condition(inst, x)
		if !ok || (i > 0 && b != value) {
			return false, false
		}
		value = b
	}
	return value, len(r.live) > 0
}

func (r *Residualizer) stmts(l []node.Stmt, top bool) []node.Stmt {
	out := l[:0:0]
	for i, s := range l {
		out = append(out, r.stmt(s, top)...)
		if n := len(out); n > 0 && node.IsTerminal(out[n-1]) && i+1 < len(l) {
			r.change("truncate %d statements after %s", len(l)-i-1, out[n-1])
			break
		}
	}
	return out
}

// stmt rewrites s and returns its replacement, possibly empty.
func (r *Residualizer) stmt(s node.Stmt, top bool) []node.Stmt {
	switch s := s.(type) {
	case *node.ExprStmt:
		switch x := s.Expr.(type) {
		case *node.RepeatExpr:
			if c, ok := r.condition(x.Cond); ok && !c {
				r.change("remove loop %s", x)
				return nil
			}
		case *node.IterExpr:
			if blocks, ok := r.unroll(x); ok {
				return blocks
			}
		}
		s.Expr = r.expr(s.Expr)
		if !top && isPure(s.Expr) {
			r.change("remove pure statement %s", s)
			return nil
		}
	case *node.CondStmt:
		if c, ok := r.condition(s.Cond); ok {
			if !c {
				r.change("remove %s", s)
				return nil
			}
			r.change("unwrap %s", s)
			return r.stmt(s.Body, top)
		}
		s.Cond = r.expr(s.Cond)
		if body := r.stmt(s.Body, false); len(body) == 1 {
			s.Body = body[0]
		} else {
			s.Body = &node.ExprStmt{Expr: &node.BlockExpr{Stmts: body}}
		}
	case *node.VarDecl:
		s.Init = r.expr(s.Init)
	case *node.ReturnStmt:
		s.Result = r.expr(s.Result)
	case *node.FuncDecl:
		s.Body = r.expr(s.Body)
	}
	return []node.Stmt{s}
}

func (r *Residualizer) expr(x node.Expr) node.Expr {
	if x == nil {
		return nil
	}
	if lit, ok := r.fold(x); ok {
		return lit
	}

	switch x := x.(type) {
	case *node.UnaryExpr:
		x.Expr = r.expr(x.Expr)
	case *node.BinaryExpr:
		x.LHS = r.expr(x.LHS)
		x.RHS = r.expr(x.RHS)
	case *node.CallExpr:
		r.exprs(x.Args)
	case *node.IndexExpr:
		x.Expr = r.expr(x.Expr)
		x.Index = r.expr(x.Index)
	case *node.SelectorExpr:
		x.Expr = r.expr(x.Expr)
	case *node.ArrayLit:
		r.exprs(x.Elements)
	case *node.TupleLit:
		r.exprs(x.Elements)
	case *node.BlockExpr:
		x.Stmts = r.stmts(x.Stmts, false)
		x.Result = r.expr(x.Result)
	case *node.CondExpr:
		if c, ok := r.condition(x.Cond); ok {
			taken := x.False
			if c {
				taken = x.True
			}
			r.change("select %s", taken)
			return r.expr(taken)
		}
		x.Cond = r.expr(x.Cond)
		x.True = r.expr(x.True)
		x.False = r.expr(x.False)
	case *node.CastExpr:
		x.Expr = r.expr(x.Expr)
	case *node.AssignExpr:
		r.lvalue(x.LHS)
		x.RHS = r.expr(x.RHS)
	case *node.RangeExpr:
		x.Start = r.expr(x.Start)
		x.Stop = r.expr(x.Stop)
	case *node.LengthExpr:
		x.Expr = r.expr(x.Expr)
	case *node.IterExpr:
		x.Iterable = r.expr(x.Iterable)
		x.Body = r.expr(x.Body)
	case *node.RepeatExpr:
		x.Cond = r.expr(x.Cond)
		x.Body = r.expr(x.Body)
	}
	return x
}

func (r *Residualizer) exprs(l []node.Expr) {
	for i := range l {
		l[i] = r.expr(l[i])
	}
}

// lvalue rewrites the index expressions of an assignment target but never
// the target itself.
func (r *Residualizer) lvalue(x node.Expr) {
	switch x := x.(type) {
	case *node.IndexExpr:
		r.lvalue(x.Expr)
		x.Index = r.expr(x.Index)
	case *node.SelectorExpr:
		r.lvalue(x.Expr)
	}
}

// fold replaces x by a literal of its value.
func (r *Residualizer) fold(x node.Expr) (node.Expr, bool) {
	switch x.(type) {
	case *node.AssignExpr, *node.IterExpr, *node.RepeatExpr, *node.BlockExpr, *node.RangeExpr:
		return nil, false
	}
	if node.IsLiteral(x) || writes(x) {
		return nil, false
	}
	v, ok := r.value(x)
	if !ok {
		return nil, false
	}
	if _, tuple := x.(*node.TupleLit); ctv.IsUnit(v) && !tuple {
		return nil, false
	}
	lit, ok := r.literal(v, x.Type(), x.Pos())
	if !ok || node.Equal(x, lit) {
		return nil, false
	}
	r.change("fold %s -> %s", x, lit)
	return lit, true
}

// literal builds the tree of v. Aggregates become constructor calls.
func (r *Residualizer) literal(v ctv.Value, t *node.Type, pos source.Pos) (node.Expr, bool) {
	rt := r.prog.ResolveType(t)
	switch v := v.(type) {
	case ctv.Int:
		if t == nil {
			t = node.IntType(v.Bits)
		}
		return &node.IntLit{Typed: node.Typed{T: t}, Value: v.V, ValuePos: pos,
			Literal: strconv.FormatInt(v.V, 10)}, true
	case ctv.Uint:
		if t == nil {
			t = node.UintType(v.Bits)
		}
		return &node.UintLit{Typed: node.Typed{T: t}, Value: v.V, ValuePos: pos,
			Literal: strconv.FormatUint(v.V, 10)}, true
	case ctv.Float:
		if t == nil {
			t = node.FloatType(v.Bits)
		}
		return &node.FloatLit{Typed: node.Typed{T: t}, Value: v.V, ValuePos: pos,
			Literal: node.FormatFloat(v.V, v.Bits == 32)}, true
	case ctv.Bool:
		if t == nil {
			t = node.BoolType()
		}
		return &node.BoolLit{Typed: node.Typed{T: t}, Value: bool(v), ValuePos: pos}, true
	case ctv.String:
		if t == nil {
			t = node.StringType()
		}
		return &node.StringLit{Typed: node.Typed{T: t}, Value: string(v), ValuePos: pos}, true
	case ctv.Array:
		var elem *node.Type
		if rt != nil && rt.Kind == node.ArrayType {
			elem = rt.Elem
		}
		out := &node.ArrayLit{Typed: node.Typed{T: t}, Elements: make([]node.Expr, len(v))}
		for i, el := range v {
			e, ok := r.literal(el, elem, pos)
			if !ok {
				return nil, false
			}
			out.Elements[i] = e
		}
		return out, true
	case ctv.Tuple:
		out := &node.TupleLit{Typed: node.Typed{T: t}, Elements: make([]node.Expr, len(v))}
		for i, el := range v {
			e, ok := r.literal(el, nil, pos)
			if !ok {
				return nil, false
			}
			out.Elements[i] = e
		}
		return out, true
	case *ctv.Struct:
		return r.construct(v, t, pos)
	}
	return nil, false
}

func (r *Residualizer) construct(v *ctv.Struct, t *node.Type, pos source.Pos) (node.Expr, bool) {
	syms := make([]*program.Symbol, len(r.all))
	for i, inst := range r.all {
		if syms[i] = r.prog.LookupTypeSymbol(inst, v.Name); syms[i] == nil {
			return nil, false
		}
	}
	td := syms[0].TypeDecl()
	if td == nil || len(td.Fields) != len(v.Fields) {
		return nil, false
	}
	if t == nil {
		t = node.Named(v.Name)
	}

	callee := &node.Ident{Name: v.Name, NamePos: pos}
	callee.SetType(t)
	call := &node.CallExpr{Typed: node.Typed{T: t}, Func: callee, Args: make([]node.Expr, len(v.Fields))}
	for i, f := range v.Fields {
		e, ok := r.literal(f.Value, td.Fields[i].Type, pos)
		if !ok {
			return nil, false
		}
		call.Args[i] = e
	}
	for i, inst := range r.all {
		r.prog.Bind(inst, callee, syms[i])
	}
	return call, true
}

// unroll expands an annotated iteration over a constant array into one
// block per element when the result is not larger than allowed.
func (r *Residualizer) unroll(it *node.IterExpr) ([]node.Stmt, bool) {
	if !it.Annotations.Has(AnnotUnroll) || it.Body == nil || hasLoopControl(it.Body) {
		return nil, false
	}
	v, ok := r.value(it.Iterable)
	if !ok {
		return nil, false
	}
	arr, ok := v.(ctv.Array)
	if !ok {
		return nil, false
	}
	if len(arr)*node.Size(it.Body) > node.Size(it)*r.opts.UnrollGrowthFactor {
		return nil, false
	}
	loopVars := make([]*program.Symbol, len(r.all))
	for i, inst := range r.all {
		if loopVars[i] = r.prog.BindingFor(inst, it); loopVars[i] == nil {
			return nil, false
		}
	}
	if it.Sorted {
		arr = append(ctv.Array(nil), arr...)
		sort.SliceStable(arr, func(i, j int) bool { return ctv.Less(arr[i], arr[j]) })
	}

	var elem *node.Type
	if t := r.prog.ResolveType(it.Iterable.Type()); t != nil && t.Kind == node.ArrayType {
		elem = t.Elem
	}
	out := make([]node.Stmt, 0, len(arr))
	for _, el := range arr {
		init, ok := r.literal(el, elem, it.Pos())
		if !ok {
			return nil, false
		}
		decl := &node.VarDecl{Name: &node.Ident{Name: "_", NamePos: it.Pos()}, VarType: elem, Init: init}
		body := node.CloneExpr(it.Body, func(old, nw node.Node) {
			for _, inst := range r.all {
				if sym := r.prog.BindingFor(inst, old); sym != nil {
					r.prog.Bind(inst, nw, sym)
				}
			}
		})
		for i, inst := range r.all {
			r.prog.Bind(inst, decl, loopVars[i])
			r.prog.Bind(inst, decl.Name, loopVars[i])
		}
		out = append(out, &node.ExprStmt{Expr: &node.BlockExpr{
			Stmts: []node.Stmt{decl, &node.ExprStmt{Expr: body}},
		}})
	}
	r.change("unroll %s into %d blocks", it, len(arr))
	return out, true
}

// hasLoopControl reports whether a break or continue in x refers to the
// enclosing loop.
func hasLoopControl(x node.Expr) (found bool) {
	Inspect(x, func(n node.Node) bool {
		switch n.(type) {
		case *node.BreakStmt, *node.ContinueStmt:
			found = true
		case *node.IterExpr, *node.RepeatExpr:
			return n == node.Node(x)
		}
		return !found
	})
	return
}

// isPure reports whether evaluating x has no effect. Division, remainder
// and indexing may trap at runtime and count as effects.
func isPure(x node.Expr) (pure bool) {
	pure = true
	Inspect(x, func(n node.Node) bool {
		switch n := n.(type) {
		case *node.CallExpr, *node.AssignExpr, *node.IterExpr, *node.RepeatExpr, *node.BlockExpr:
			pure = false
		case *node.IndexExpr:
			pure = false
		case *node.BinaryExpr:
			pure = n.Token != token.Quo && n.Token != token.Rem
		}
		return pure
	})
	return
}

// writes reports whether x assigns or defines a variable anywhere. Such
// expressions are never replaced by their value.
func writes(x node.Expr) (found bool) {
	Inspect(x, func(n node.Node) bool {
		_, found = n.(*node.AssignExpr)
		return !found
	})
	return
}
