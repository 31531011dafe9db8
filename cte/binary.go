// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package cte

import (
	"github.com/gad-lang/semcore/ctv"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/token"
)

func (e *Evaluator) binaryExpr(x *node.BinaryExpr) (ctv.Value, bool) {
	if x.Token == token.LAnd || x.Token == token.LOr {
		l, ok := e.cond(x.LHS)
		if !ok {
			return nil, false
		}
		if x.Token == token.LAnd && !l {
			return ctv.Bool(false), true
		}
		if x.Token == token.LOr && l {
			return ctv.Bool(true), true
		}
		r, ok := e.cond(x.RHS)
		if !ok {
			return nil, false
		}
		return ctv.Bool(r), true
	}

	l, ok := e.value(x.LHS)
	if !ok {
		return nil, false
	}
	r, ok := e.value(x.RHS)
	if !ok {
		return nil, false
	}
	return e.binary(x.Token, l, r)
}

func (e *Evaluator) binary(op token.Token, l, r ctv.Value) (ctv.Value, bool) {
	switch l := l.(type) {
	case ctv.Bool:
		if r, ok := r.(ctv.Bool); ok {
			return e.binaryBool(op, bool(l), bool(r))
		}
	case ctv.String:
		if r, ok := r.(ctv.String); ok {
			return e.binaryString(op, string(l), string(r))
		}
	case ctv.Int, ctv.Uint, ctv.Float:
		if !ctv.IsScalar(r) {
			break
		}
		if _, ok := l.(ctv.Float); ok {
			return e.binaryFloat(op, l, r)
		}
		if _, ok := r.(ctv.Float); ok {
			return e.binaryFloat(op, l, r)
		}
		return e.binaryInt(op, l, r)
	}
	if !ctv.IsScalar(l) && (op == token.Equal || op == token.NotEqual) {
		eq := ctv.Equal(l, r)
		return ctv.Bool(eq == (op == token.Equal)), true
	}
	return e.fail("operator %s not defined on %s and %s", op, l.Kind(), r.Kind())
}

func (e *Evaluator) binaryBool(op token.Token, l, r bool) (ctv.Value, bool) {
	switch op {
	case token.Equal:
		return ctv.Bool(l == r), true
	case token.NotEqual:
		return ctv.Bool(l != r), true
	case token.And, token.LAnd:
		return ctv.Bool(l && r), true
	case token.Or, token.LOr:
		return ctv.Bool(l || r), true
	case token.Xor:
		return ctv.Bool(l != r), true
	}
	return e.fail("operator %s not defined on bool", op)
}

func (e *Evaluator) binaryString(op token.Token, l, r string) (ctv.Value, bool) {
	switch op {
	case token.Add:
		return ctv.String(l + r), true
	case token.Equal:
		return ctv.Bool(l == r), true
	case token.NotEqual:
		return ctv.Bool(l != r), true
	case token.Less:
		return ctv.Bool(l < r), true
	case token.LessEq:
		return ctv.Bool(l <= r), true
	case token.Greater:
		return ctv.Bool(l > r), true
	case token.GreaterEq:
		return ctv.Bool(l >= r), true
	}
	return e.fail("operator %s not defined on string", op)
}

func intParts(v ctv.Value) (i int64, u uint64, bits int, unsigned bool, ok bool) {
	switch v := v.(type) {
	case ctv.Int:
		return v.V, uint64(v.V), v.Bits, false, true
	case ctv.Uint:
		return int64(v.V), v.V, v.Bits, true, true
	case ctv.Bool:
		if v {
			return 1, 1, 1, false, true
		}
		return 0, 0, 1, false, true
	}
	return
}

func (e *Evaluator) binaryInt(op token.Token, l, r ctv.Value) (ctv.Value, bool) {
	li, lu, lb, lunsigned, ok1 := intParts(l)
	ri, ru, rb, runsigned, ok2 := intParts(r)
	if !ok1 || !ok2 {
		return e.fail("operator %s not defined on %s and %s", op, l.Kind(), r.Kind())
	}
	bits := lb
	if rb > bits {
		bits = rb
	}

	if op == token.Shl || op == token.Shr {
		// shifts keep the left operand's type
		if !runsigned && ri < 0 {
			return e.fail("negative shift count")
		}
		n := ru
		if lunsigned {
			if n >= uint64(lb) {
				return ctv.MakeUint(0, lb), true
			}
			if op == token.Shl {
				return ctv.MakeUint(lu<<n, lb), true
			}
			return ctv.MakeUint(lu>>n, lb), true
		}
		if op == token.Shl {
			if n >= uint64(lb) {
				return ctv.MakeInt(0, lb), true
			}
			return ctv.MakeInt(li<<n, lb), true
		}
		if n >= 64 {
			n = 63
		}
		return ctv.MakeInt(li>>n, lb), true
	}

	if lunsigned || runsigned {
		a, b := ctv.WrapUint(lu, bits), ctv.WrapUint(ru, bits)
		switch op {
		case token.Add:
			return ctv.MakeUint(a+b, bits), true
		case token.Sub:
			return ctv.MakeUint(a-b, bits), true
		case token.Mul:
			return ctv.MakeUint(a*b, bits), true
		case token.Quo, token.Rem:
			if b == 0 {
				return e.fail("division by zero")
			}
			if op == token.Quo {
				return ctv.MakeUint(a/b, bits), true
			}
			return ctv.MakeUint(a%b, bits), true
		case token.And:
			return ctv.MakeUint(a&b, bits), true
		case token.Or:
			return ctv.MakeUint(a|b, bits), true
		case token.Xor:
			return ctv.MakeUint(a^b, bits), true
		case token.Equal:
			return ctv.Bool(a == b), true
		case token.NotEqual:
			return ctv.Bool(a != b), true
		case token.Less:
			return ctv.Bool(a < b), true
		case token.LessEq:
			return ctv.Bool(a <= b), true
		case token.Greater:
			return ctv.Bool(a > b), true
		case token.GreaterEq:
			return ctv.Bool(a >= b), true
		}
		return e.fail("operator %s not defined on integers", op)
	}

	a, b := li, ri
	switch op {
	case token.Add:
		return ctv.MakeInt(a+b, bits), true
	case token.Sub:
		return ctv.MakeInt(a-b, bits), true
	case token.Mul:
		return ctv.MakeInt(a*b, bits), true
	case token.Quo, token.Rem:
		if b == 0 {
			return e.fail("division by zero")
		}
		if op == token.Quo {
			return ctv.MakeInt(a/b, bits), true
		}
		return ctv.MakeInt(a%b, bits), true
	case token.And:
		return ctv.MakeInt(a&b, bits), true
	case token.Or:
		return ctv.MakeInt(a|b, bits), true
	case token.Xor:
		return ctv.MakeInt(a^b, bits), true
	case token.Equal:
		return ctv.Bool(a == b), true
	case token.NotEqual:
		return ctv.Bool(a != b), true
	case token.Less:
		return ctv.Bool(a < b), true
	case token.LessEq:
		return ctv.Bool(a <= b), true
	case token.Greater:
		return ctv.Bool(a > b), true
	case token.GreaterEq:
		return ctv.Bool(a >= b), true
	}
	return e.fail("operator %s not defined on integers", op)
}

func floatParts(v ctv.Value) (float64, int, bool) {
	switch v := v.(type) {
	case ctv.Float:
		return v.V, v.Bits, true
	case ctv.Int:
		return float64(v.V), 0, true
	case ctv.Uint:
		return float64(v.V), 0, true
	}
	return 0, 0, false
}

func (e *Evaluator) binaryFloat(op token.Token, l, r ctv.Value) (ctv.Value, bool) {
	a, ab, ok1 := floatParts(l)
	b, bb, ok2 := floatParts(r)
	if !ok1 || !ok2 {
		return e.fail("operator %s not defined on %s and %s", op, l.Kind(), r.Kind())
	}
	bits := ab
	if bb > bits {
		bits = bb
	}
	switch op {
	case token.Add:
		return ctv.MakeFloat(a+b, bits), true
	case token.Sub:
		return ctv.MakeFloat(a-b, bits), true
	case token.Mul:
		return ctv.MakeFloat(a*b, bits), true
	case token.Quo:
		if b == 0 {
			return e.fail("division by zero")
		}
		return ctv.MakeFloat(a/b, bits), true
	case token.Equal:
		return ctv.Bool(a == b), true
	case token.NotEqual:
		return ctv.Bool(a != b), true
	case token.Less:
		return ctv.Bool(a < b), true
	case token.LessEq:
		return ctv.Bool(a <= b), true
	case token.Greater:
		return ctv.Bool(a > b), true
	case token.GreaterEq:
		return ctv.Bool(a >= b), true
	}
	return e.fail("operator %s not defined on floats", op)
}

func (e *Evaluator) unary(op token.Token, v ctv.Value) (ctv.Value, bool) {
	switch op {
	case token.Sub:
		switch v := v.(type) {
		case ctv.Int:
			return ctv.MakeInt(-v.V, v.Bits), true
		case ctv.Uint:
			return ctv.MakeUint(-v.V, v.Bits), true
		case ctv.Float:
			return ctv.MakeFloat(-v.V, v.Bits), true
		}
	case token.Add:
		switch v.(type) {
		case ctv.Int, ctv.Uint, ctv.Float:
			return v, true
		}
	case token.Not:
		if b, ok := ctv.Truthy(v); ok {
			return ctv.Bool(!b), true
		}
	case token.BitNot:
		switch v := v.(type) {
		case ctv.Int:
			return ctv.MakeInt(^v.V, v.Bits), true
		case ctv.Uint:
			return ctv.MakeUint(^v.V, v.Bits), true
		}
	}
	return e.fail("unary %s not defined on %s", op, v.Kind())
}
