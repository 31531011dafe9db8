// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package optimizer

import (
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
)

type rootKind int

const (
	funcRoot rootKind = iota
	initRoot
	stmtRoot
	sizeRoot
)

var rootKinds = [...]string{
	funcRoot: "func",
	initRoot: "init",
	stmtRoot: "stmt",
	sizeRoot: "size",
}

func (k rootKind) String() string {
	return rootKinds[k]
}

// root is a unit of evaluation: a function body, a global initializer, a
// top-level expression or an array size.
type root struct {
	kind   rootKind
	inst   program.InstanceID
	sym    *program.Symbol
	expr   node.Expr
	inside map[node.Node]bool
}

// collection is everything the optimizer evaluates, in source order.
type collection struct {
	exprs     []Key
	exprIndex map[Key]int
	roots     []*root
	rootIndex map[Key]int
	conds     []Key
	// globals are the constant candidates for promotion.
	globals   []*program.Symbol
	inits     map[*program.Symbol]Key
	bodies    map[*program.Symbol]Key
	reachable map[*program.Symbol]bool
}

// Inspect walks the tree rooted at n like node.Inspect but does not descend
// into nested function declarations.
func Inspect(n node.Node, f func(node.Node) bool) {
	node.Inspect(n, func(c node.Node) bool {
		if _, ok := c.(*node.FuncDecl); ok && c != n {
			return false
		}
		return f(c)
	})
}

// BaseIdent returns the identifier at the root of an lvalue path.
func BaseIdent(x node.Expr) *node.Ident {
	for {
		switch e := x.(type) {
		case *node.Ident:
			return e
		case *node.IndexExpr:
			x = e.Expr
		case *node.SelectorExpr:
			x = e.Expr
		default:
			return nil
		}
	}
}

// Callees returns the functions called in the tree rooted at n, in source
// order and without duplicates.
func Callees(prog *program.Program, inst program.InstanceID, n node.Node) []*program.Symbol {
	var out []*program.Symbol
	seen := map[*program.Symbol]bool{}
	Inspect(n, func(c node.Node) bool {
		call, ok := c.(*node.CallExpr)
		if !ok || call.Callee() == nil {
			return true
		}
		sym := prog.BindingFor(inst, call.Callee())
		if sym != nil && sym.Kind == program.Function && !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
		return true
	})
	return out
}

// reachableSoFar is the call closure of exported functions and of every
// call made by global initializers and top-level statements.
func reachableSoFar(prog *program.Program) map[*program.Symbol]bool {
	seen := map[*program.Symbol]bool{}
	var queue []*program.Symbol
	push := func(l ...*program.Symbol) {
		for _, sym := range l {
			if !seen[sym] {
				seen[sym] = true
				queue = append(queue, sym)
			}
		}
	}

	for _, it := range prog.Merge().Items {
		switch s := it.Stmt.(type) {
		case *node.FuncDecl:
			if s.Exported {
				push(prog.BindingFor(it.Instance, s))
			}
		case *node.VarDecl:
			push(Callees(prog, it.Instance, s.Init)...)
		case *node.TypeDecl, *node.ImportStmt:
		default:
			push(Callees(prog, it.Instance, s)...)
		}
	}
	for len(queue) > 0 {
		sym := queue[0]
		queue = queue[1:]
		if body := sym.Body(); body != nil {
			push(Callees(prog, sym.Instance, body)...)
		}
	}
	return seen
}

func collect(prog *program.Program) *collection {
	c := &collection{
		exprIndex: map[Key]int{},
		rootIndex: map[Key]int{},
		inits:     map[*program.Symbol]Key{},
		bodies:    map[*program.Symbol]Key{},
		reachable: reachableSoFar(prog),
	}

	for _, it := range prog.Merge().Items {
		inst := it.Instance
		switch s := it.Stmt.(type) {
		case *node.VarDecl:
			c.sizes(inst, s.VarType)
			sym := prog.BindingFor(inst, s)
			if s.Init == nil || sym == nil {
				continue
			}
			c.inits[sym] = Key{Instance: inst, Expr: s.Init}
			c.addRoot(initRoot, inst, sym, s.Init)
			if sym.Kind == program.Constant && !sym.Mutable && !sym.Local {
				c.globals = append(c.globals, sym)
			}
		case *node.FuncDecl:
			for _, p := range s.Receivers {
				c.sizes(inst, p.Type)
			}
			for _, p := range s.Params {
				c.sizes(inst, p.Type)
			}
			c.sizes(inst, s.Result)
			sym := prog.BindingFor(inst, s)
			if sym == nil || s.External || s.Body == nil || !c.reachable[sym] {
				continue
			}
			c.bodies[sym] = Key{Instance: inst, Expr: s.Body}
			c.addRoot(funcRoot, inst, sym, s.Body)
		case *node.TypeDecl:
			for _, f := range s.Fields {
				c.sizes(inst, f.Type)
			}
		case *node.ExprStmt:
			c.addRoot(stmtRoot, inst, nil, s.Expr)
		case *node.CondStmt:
			c.addRoot(stmtRoot, inst, nil, &node.BlockExpr{Stmts: []node.Stmt{s}})
		}
	}
	return c
}

func (c *collection) sizes(inst program.InstanceID, t *node.Type) {
	node.InspectType(t, func(size node.Expr) {
		c.addRoot(sizeRoot, inst, nil, size)
	})
}

func (c *collection) addRoot(kind rootKind, inst program.InstanceID, sym *program.Symbol, x node.Expr) {
	k := Key{Instance: inst, Expr: x}
	if _, ok := c.rootIndex[k]; ok {
		return
	}
	r := &root{kind: kind, inst: inst, sym: sym, expr: x, inside: map[node.Node]bool{}}
	c.rootIndex[k] = len(c.roots)
	c.roots = append(c.roots, r)

	Inspect(x, func(n node.Node) bool {
		r.inside[n] = true
		switch n := n.(type) {
		case *node.CondExpr:
			c.cond(inst, n.Cond)
		case *node.RepeatExpr:
			c.cond(inst, n.Cond)
		case *node.CondStmt:
			c.cond(inst, n.Cond)
		case *node.VarDecl:
			c.sizes(inst, n.VarType)
		case *node.CastExpr:
			c.sizes(inst, n.To)
		}
		if e, ok := n.(node.Expr); ok {
			c.expr(inst, e)
		}
		return true
	})
}

func (c *collection) expr(inst program.InstanceID, x node.Expr) {
	k := Key{Instance: inst, Expr: x}
	if _, ok := c.exprIndex[k]; ok {
		return
	}
	c.exprIndex[k] = len(c.exprs)
	c.exprs = append(c.exprs, k)
}

func (c *collection) cond(inst program.InstanceID, x node.Expr) {
	if x != nil {
		c.conds = append(c.conds, Key{Instance: inst, Expr: x})
	}
}
