// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package node

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gad-lang/semcore/source"
)

// IntLit represents a signed integer literal.
type IntLit struct {
	Typed
	Value    int64
	ValuePos source.Pos
	Literal  string
}

func (e *IntLit) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *IntLit) Pos() source.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *IntLit) End() source.Pos {
	return source.Pos(int(e.ValuePos) + len(e.Literal))
}

func (e *IntLit) String() string {
	if e.Literal == "" {
		return strconv.FormatInt(e.Value, 10)
	}
	return e.Literal
}

// UintLit represents an unsigned integer literal.
type UintLit struct {
	Typed
	Value    uint64
	ValuePos source.Pos
	Literal  string
}

func (e *UintLit) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *UintLit) Pos() source.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *UintLit) End() source.Pos {
	return source.Pos(int(e.ValuePos) + len(e.Literal))
}

func (e *UintLit) String() string {
	if e.Literal == "" {
		return strconv.FormatUint(e.Value, 10) + "u"
	}
	return e.Literal
}

// FloatLit represents a floating point literal.
type FloatLit struct {
	Typed
	Value    float64
	ValuePos source.Pos
	Literal  string
}

func (e *FloatLit) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *FloatLit) Pos() source.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *FloatLit) End() source.Pos {
	return source.Pos(int(e.ValuePos) + len(e.Literal))
}

func (e *FloatLit) String() string {
	if e.Literal == "" {
		return FormatFloat(e.Value, e.Type().Is(Float) && e.Type().Bits == 32)
	}
	return e.Literal
}

// FormatFloat returns the shortest exact decimal text of v.
func FormatFloat(v float64, single bool) string {
	var d decimal.Decimal
	if single {
		d = decimal.NewFromFloat32(float32(v))
	} else {
		d = decimal.NewFromFloat(v)
	}
	s := d.String()
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}

// BoolLit represents a boolean literal.
type BoolLit struct {
	Typed
	Value    bool
	ValuePos source.Pos
}

func (e *BoolLit) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *BoolLit) Pos() source.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *BoolLit) End() source.Pos {
	return source.Pos(int(e.ValuePos) + len(e.String()))
}

func (e *BoolLit) String() string {
	return strconv.FormatBool(e.Value)
}

// StringLit represents a string literal.
type StringLit struct {
	Typed
	Value    string
	ValuePos source.Pos
}

func (e *StringLit) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *StringLit) Pos() source.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *StringLit) End() source.Pos {
	return source.Pos(int(e.ValuePos) + len(e.String()))
}

func (e *StringLit) String() string {
	return strconv.Quote(e.Value)
}

// CharLit represents a byte character literal.
type CharLit struct {
	Typed
	Value    byte
	ValuePos source.Pos
}

func (e *CharLit) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *CharLit) Pos() source.Pos {
	return e.ValuePos
}

// End returns the position of first character immediately after the node.
func (e *CharLit) End() source.Pos {
	return source.Pos(int(e.ValuePos) + len(e.String()))
}

func (e *CharLit) String() string {
	return strconv.QuoteRune(rune(e.Value))
}

// IsLiteral reports whether e is a scalar literal node.
func IsLiteral(e Expr) bool {
	switch e.(type) {
	case *IntLit, *UintLit, *FloatLit, *BoolLit, *StringLit, *CharLit:
		return true
	}
	return false
}
