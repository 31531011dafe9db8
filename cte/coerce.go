// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package cte

import (
	"math"

	"github.com/gad-lang/semcore/ctv"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/token"
)

// coerce converts v to type t with the wraparound semantics of fixed width
// integers. A nil t accepts any value.
func (e *Evaluator) coerce(v ctv.Value, t *node.Type) (ctv.Value, bool) {
	t = e.prog.ResolveType(t)
	if t == nil || v == nil {
		return v, true
	}

	switch t.Kind {
	case node.ArrayType:
		arr, ok := v.(ctv.Array)
		if !ok {
			return e.fail("cannot convert %s to %s", v.Kind(), t)
		}
		if t.Size != nil {
			n, ok := e.typeSize(t)
			if !ok {
				return nil, false
			}
			if n != len(arr) {
				return e.fail("array of %d elements does not fit %s", len(arr), t)
			}
		}
		out := make(ctv.Array, len(arr))
		for i, el := range arr {
			c, ok := e.coerce(el, t.Elem)
			if !ok {
				return nil, false
			}
			out[i] = c
		}
		return out, true
	case node.NamedType:
		s, ok := v.(*ctv.Struct)
		if !ok || s.Name != t.Name {
			return e.fail("cannot convert %s to %s", v.Kind(), t)
		}
		sym := e.prog.LookupTypeSymbol(e.inst, t.Name)
		td := (*node.TypeDecl)(nil)
		if sym != nil {
			td = sym.TypeDecl()
		}
		if td == nil {
			return s, true
		}
		out := &ctv.Struct{Name: s.Name, Fields: make([]ctv.Field, len(s.Fields))}
		for i, f := range s.Fields {
			ft := (*node.Type)(nil)
			if j := td.FieldIndex(f.Name); j >= 0 {
				ft = td.Fields[j].Type
			}
			c, ok := e.coerce(f.Value, ft)
			if !ok {
				return nil, false
			}
			out.Fields[i] = ctv.Field{Name: f.Name, Value: c}
		}
		return out, true
	}

	switch t.Prim {
	case node.Int:
		switch v := v.(type) {
		case ctv.Int:
			return ctv.MakeInt(v.V, t.Bits), true
		case ctv.Uint:
			return ctv.MakeInt(int64(v.V), t.Bits), true
		case ctv.Float:
			if math.IsNaN(v.V) || math.IsInf(v.V, 0) {
				return e.fail("cannot convert %s to %s", v, t)
			}
			return ctv.MakeInt(int64(v.V), t.Bits), true
		case ctv.Bool:
			if v {
				return ctv.MakeInt(1, t.Bits), true
			}
			return ctv.MakeInt(0, t.Bits), true
		}
	case node.Uint:
		switch v := v.(type) {
		case ctv.Int:
			return ctv.MakeUint(uint64(v.V), t.Bits), true
		case ctv.Uint:
			return ctv.MakeUint(v.V, t.Bits), true
		case ctv.Float:
			if math.IsNaN(v.V) || math.IsInf(v.V, 0) || v.V < 0 {
				return e.fail("cannot convert %s to %s", v, t)
			}
			return ctv.MakeUint(uint64(v.V), t.Bits), true
		case ctv.Bool:
			if v {
				return ctv.MakeUint(1, t.Bits), true
			}
			return ctv.MakeUint(0, t.Bits), true
		}
	case node.Float:
		switch v := v.(type) {
		case ctv.Int:
			return ctv.MakeFloat(float64(v.V), t.Bits), true
		case ctv.Uint:
			return ctv.MakeFloat(float64(v.V), t.Bits), true
		case ctv.Float:
			return ctv.MakeFloat(v.V, t.Bits), true
		}
	case node.Bool:
		if b, ok := ctv.Truthy(v); ok {
			return ctv.Bool(b), true
		}
	case node.String:
		if s, ok := v.(ctv.String); ok {
			return s, true
		}
	}
	return e.fail("cannot convert %s to %s", v.Kind(), t)
}

// typeSize evaluates the size expression of an array type.
func (e *Evaluator) typeSize(t *node.Type) (int, bool) {
	e.quiet++
	v, ok := e.value(t.Size)
	e.quiet--
	if !ok {
		return 0, false
	}
	n, ok := toIndex(v)
	if !ok {
		e.fail("invalid array size %s", v)
	}
	return n, ok
}

// uninitialized builds the value of a declaration without initializer:
// arrays and aggregates get uninitialized slots that assignments fill.
func (e *Evaluator) uninitialized(t *node.Type) (ctv.Value, bool) {
	t = e.prog.ResolveType(t)
	if t == nil {
		return nil, true
	}
	switch t.Kind {
	case node.ArrayType:
		if t.Size == nil {
			return nil, true
		}
		n, ok := e.typeSize(t)
		if !ok {
			return nil, false
		}
		if n > e.limits.MaxRangeLength {
			return e.fail("array of %d elements exceeds limit", n)
		}
		out := make(ctv.Array, n)
		for i := range out {
			el, ok := e.uninitialized(t.Elem)
			if !ok {
				return nil, false
			}
			out[i] = el
		}
		return out, true
	case node.NamedType:
		sym := e.prog.LookupTypeSymbol(e.inst, t.Name)
		if sym == nil || sym.TypeDecl() == nil {
			return nil, true
		}
		td := sym.TypeDecl()
		out := &ctv.Struct{Name: td.Name.Name, Fields: make([]ctv.Field, len(td.Fields))}
		for i, f := range td.Fields {
			fv, ok := e.uninitialized(f.Type)
			if !ok {
				return nil, false
			}
			out.Fields[i] = ctv.Field{Name: f.Name, Value: fv}
		}
		return out, true
	}
	return nil, true
}

type pathStep struct {
	index int
	field string
}

func (e *Evaluator) assignExpr(x *node.AssignExpr) (ctv.Value, bool) {
	rhs, ok := e.value(x.RHS)
	if !ok {
		return nil, false
	}

	if x.Token == token.Define {
		id, ok := x.LHS.(*node.Ident)
		if !ok {
			return e.fail("cannot define %s", x.LHS)
		}
		sym := e.binding(id)
		if sym == nil {
			return e.fail("unbound identifier %s", id.Name)
		}
		if !sym.Local {
			return e.fail("write to global %s", sym.Name)
		}
		if rhs, ok = e.coerce(rhs, sym.Type); !ok {
			return nil, false
		}
		e.frame()[sym] = rhs
		return rhs, true
	}

	root, steps, ok := e.lvalue(x.LHS)
	if !ok {
		return nil, false
	}
	fr := e.frame()
	cur, declared := fr[root]
	if !declared {
		return e.fail("write to %s outside the evaluated scope", root.Name)
	}

	if op := x.Token.Binary(); op != token.Illegal {
		old, ok := e.value(x.LHS)
		if !ok {
			return nil, false
		}
		if rhs, ok = e.binary(op, old, rhs); !ok {
			return nil, false
		}
	}
	if rhs, ok = e.coerce(rhs, x.LHS.Type()); !ok {
		return nil, false
	}

	updated, ok := e.setPath(ctv.Copy(cur), steps, rhs)
	if !ok {
		return nil, false
	}
	fr[root] = updated
	return rhs, true
}

// lvalue resolves an assignment target to its local root symbol and the
// access path below it.
func (e *Evaluator) lvalue(x node.Expr) (*program.Symbol, []pathStep, bool) {
	switch x := x.(type) {
	case *node.Ident:
		sym := e.binding(x)
		if sym == nil {
			e.fail("unbound identifier %s", x.Name)
			return nil, nil, false
		}
		if !sym.Local {
			e.fail("write to global %s", sym.Name)
			return nil, nil, false
		}
		return sym, nil, true
	case *node.IndexExpr:
		root, steps, ok := e.lvalue(x.Expr)
		if !ok {
			return nil, nil, false
		}
		iv, ok := e.value(x.Index)
		if !ok {
			return nil, nil, false
		}
		i, ok := toIndex(iv)
		if !ok {
			e.fail("invalid index %s", iv)
			return nil, nil, false
		}
		return root, append(steps, pathStep{index: i}), true
	case *node.SelectorExpr:
		root, steps, ok := e.lvalue(x.Expr)
		if !ok {
			return nil, nil, false
		}
		return root, append(steps, pathStep{index: -1, field: x.Sel}), true
	}
	e.fail("%s is not assignable", x)
	return nil, nil, false
}

func (e *Evaluator) setPath(cur ctv.Value, steps []pathStep, v ctv.Value) (ctv.Value, bool) {
	if len(steps) == 0 {
		return v, true
	}
	st := steps[0]
	switch c := cur.(type) {
	case ctv.Array:
		if st.index < 0 || st.index >= len(c) {
			return e.fail("index %d out of bounds [0, %d)", st.index, len(c))
		}
		nv, ok := e.setPath(c[st.index], steps[1:], v)
		if !ok {
			return nil, false
		}
		c[st.index] = nv
		return c, true
	case *ctv.Struct:
		i := c.Field(st.field)
		if st.index >= 0 || i < 0 {
			return e.fail("%s has no field %s", c.Name, st.field)
		}
		nv, ok := e.setPath(c.Fields[i].Value, steps[1:], v)
		if !ok {
			return nil, false
		}
		c.Fields[i].Value = nv
		return c, true
	case ctv.Tuple:
		i, ok := ctv.TupleField(st.field)
		if st.index >= 0 || !ok || i >= len(c) {
			return e.fail("tuple has no field %s", st.field)
		}
		nv, ok := e.setPath(c[i], steps[1:], v)
		if !ok {
			return nil, false
		}
		c[i] = nv
		return c, true
	}
	return e.fail("cannot assign into uninitialized value")
}
