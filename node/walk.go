// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package node

import "reflect"

// Children returns the direct child nodes of n in source order. Declared
// names are not children: only references are.
func Children(n Node) []Node {
	var out []Node
	add := func(l ...Expr) {
		for _, e := range l {
			if e != nil {
				out = append(out, e)
			}
		}
	}

	switch n := n.(type) {
	case *UnaryExpr:
		add(n.Expr)
	case *BinaryExpr:
		add(n.LHS, n.RHS)
	case *CallExpr:
		add(n.Func)
		add(n.Receivers...)
		add(n.Args...)
	case *IndexExpr:
		add(n.Expr, n.Index)
	case *SelectorExpr:
		add(n.Expr)
	case *ArrayLit:
		add(n.Elements...)
	case *TupleLit:
		add(n.Elements...)
	case *BlockExpr:
		for _, s := range n.Stmts {
			if s != nil {
				out = append(out, s)
			}
		}
		add(n.Result)
	case *CondExpr:
		add(n.Cond, n.True, n.False)
	case *CastExpr:
		add(n.Expr)
	case *AssignExpr:
		add(n.LHS, n.RHS)
	case *RangeExpr:
		add(n.Start, n.Stop)
	case *LengthExpr:
		add(n.Expr)
	case *IterExpr:
		add(n.Iterable, n.Body)
	case *RepeatExpr:
		add(n.Cond, n.Body)
	case *ExprStmt:
		add(n.Expr)
	case *ReturnStmt:
		add(n.Result)
	case *CondStmt:
		add(n.Cond)
		if n.Body != nil {
			out = append(out, n.Body)
		}
	case *VarDecl:
		add(n.Init)
	case *FuncDecl:
		add(n.Body)
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// InspectType calls f for every array size expression in t, element types
// first.
func InspectType(t *Type, f func(Expr)) {
	if t == nil || t.Kind != ArrayType {
		return
	}
	InspectType(t.Elem, f)
	if t.Size != nil {
		f(t.Size)
	}
}

// Size returns the number of nodes of the tree rooted at n.
func Size(n Node) (size int) {
	Inspect(n, func(Node) bool {
		size++
		return true
	})
	return
}

// TypeEqual reports whether a and b denote the same type.
func TypeEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ArrayType:
		if !TypeEqual(a.Elem, b.Elem) {
			return false
		}
		if a.Size == nil || b.Size == nil {
			return a.Size == b.Size
		}
		return a.Size.String() == b.Size.String()
	case NamedType:
		return a.Name == b.Name
	}
	return a.Prim == b.Prim && a.Bits == b.Bits
}

// Equal reports whether a and b are structurally equal: same node kinds,
// same rendering and same expression types.
func Equal(a, b Node) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) == isNil(b)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || a.String() != b.String() {
		return false
	}
	ea, ok := a.(Expr)
	if !ok {
		return true
	}
	return TypeEqual(ea.Type(), b.(Expr).Type())
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
