// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package node

// CloneExpr deep-copies e. Types are shared. onClone, if not nil, is called
// for every (original, copy) pair so callers can carry bindings over.
func CloneExpr(e Expr, onClone func(old, new Node)) Expr {
	if isNil(e) {
		return nil
	}
	c := &cloner{on: onClone}
	return c.expr(e)
}

// CloneStmt deep-copies s. See CloneExpr.
func CloneStmt(s Stmt, onClone func(old, new Node)) Stmt {
	if isNil(s) {
		return nil
	}
	c := &cloner{on: onClone}
	return c.stmt(s)
}

type cloner struct {
	on func(old, new Node)
}

func (c *cloner) exprs(l []Expr) []Expr {
	if l == nil {
		return nil
	}
	out := make([]Expr, len(l))
	for i, e := range l {
		out[i] = c.expr(e)
	}
	return out
}

func (c *cloner) ident(id *Ident) *Ident {
	if id == nil {
		return nil
	}
	cp := *id
	if c.on != nil {
		c.on(id, &cp)
	}
	return &cp
}

func (c *cloner) expr(e Expr) (out Expr) {
	if isNil(e) {
		return nil
	}
	switch e := e.(type) {
	case *Ident:
		return c.ident(e)
	case *IntLit:
		cp := *e
		out = &cp
	case *UintLit:
		cp := *e
		out = &cp
	case *FloatLit:
		cp := *e
		out = &cp
	case *BoolLit:
		cp := *e
		out = &cp
	case *StringLit:
		cp := *e
		out = &cp
	case *CharLit:
		cp := *e
		out = &cp
	case *UnaryExpr:
		cp := *e
		cp.Expr = c.expr(e.Expr)
		out = &cp
	case *BinaryExpr:
		cp := *e
		cp.LHS, cp.RHS = c.expr(e.LHS), c.expr(e.RHS)
		out = &cp
	case *CallExpr:
		cp := *e
		cp.Func = c.expr(e.Func)
		cp.Receivers = c.exprs(e.Receivers)
		cp.Args = c.exprs(e.Args)
		out = &cp
	case *IndexExpr:
		cp := *e
		cp.Expr, cp.Index = c.expr(e.Expr), c.expr(e.Index)
		out = &cp
	case *SelectorExpr:
		cp := *e
		cp.Expr = c.expr(e.Expr)
		out = &cp
	case *ArrayLit:
		cp := *e
		cp.Elements = c.exprs(e.Elements)
		out = &cp
	case *TupleLit:
		cp := *e
		cp.Elements = c.exprs(e.Elements)
		out = &cp
	case *BlockExpr:
		cp := *e
		cp.Stmts = make([]Stmt, len(e.Stmts))
		for i, s := range e.Stmts {
			cp.Stmts[i] = c.stmt(s)
		}
		cp.Result = c.expr(e.Result)
		out = &cp
	case *CondExpr:
		cp := *e
		cp.Cond, cp.True, cp.False = c.expr(e.Cond), c.expr(e.True), c.expr(e.False)
		out = &cp
	case *CastExpr:
		cp := *e
		cp.Expr = c.expr(e.Expr)
		out = &cp
	case *AssignExpr:
		cp := *e
		cp.LHS, cp.RHS = c.expr(e.LHS), c.expr(e.RHS)
		out = &cp
	case *RangeExpr:
		cp := *e
		cp.Start, cp.Stop = c.expr(e.Start), c.expr(e.Stop)
		out = &cp
	case *LengthExpr:
		cp := *e
		cp.Expr = c.expr(e.Expr)
		out = &cp
	case *IterExpr:
		cp := *e
		cp.Iterable, cp.Body = c.expr(e.Iterable), c.expr(e.Body)
		out = &cp
	case *RepeatExpr:
		cp := *e
		cp.Cond, cp.Body = c.expr(e.Cond), c.expr(e.Body)
		out = &cp
	default:
		panic("node: cannot clone " + e.String())
	}
	if c.on != nil {
		c.on(e, out)
	}
	return
}

func (c *cloner) stmt(s Stmt) (out Stmt) {
	if isNil(s) {
		return nil
	}
	switch s := s.(type) {
	case *ExprStmt:
		out = &ExprStmt{Expr: c.expr(s.Expr)}
	case *ReturnStmt:
		cp := *s
		cp.Result = c.expr(s.Result)
		out = &cp
	case *BreakStmt:
		cp := *s
		out = &cp
	case *ContinueStmt:
		cp := *s
		out = &cp
	case *CondStmt:
		out = &CondStmt{Cond: c.expr(s.Cond), Body: c.stmt(s.Body)}
	case *VarDecl:
		cp := *s
		cp.Name = c.ident(s.Name)
		cp.Init = c.expr(s.Init)
		out = &cp
	default:
		panic("node: cannot clone " + s.String())
	}
	if c.on != nil {
		c.on(s, out)
	}
	return
}
