// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package node

import (
	"strings"

	"github.com/gad-lang/semcore/source"
	"github.com/gad-lang/semcore/token"
)

// Ident represents an identifier.
type Ident struct {
	Typed
	Name    string
	NamePos source.Pos
}

func (e *Ident) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *Ident) Pos() source.Pos {
	return e.NamePos
}

// End returns the position of first character immediately after the node.
func (e *Ident) End() source.Pos {
	return source.Pos(int(e.NamePos) + len(e.Name))
}

func (e *Ident) String() string {
	if e != nil {
		return e.Name
	}
	return nullRep
}

// UnaryExpr represents an unary operator expression.
type UnaryExpr struct {
	Typed
	Expr     Expr
	Token    token.Token
	TokenPos source.Pos
}

func (e *UnaryExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *UnaryExpr) Pos() source.Pos {
	return e.TokenPos
}

// End returns the position of first character immediately after the node.
func (e *UnaryExpr) End() source.Pos {
	return e.Expr.End()
}

func (e *UnaryExpr) String() string {
	return "(" + e.Token.String() + e.Expr.String() + ")"
}

// BinaryExpr represents a binary operator expression.
type BinaryExpr struct {
	Typed
	LHS      Expr
	RHS      Expr
	Token    token.Token
	TokenPos source.Pos
}

func (e *BinaryExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *BinaryExpr) Pos() source.Pos {
	return e.LHS.Pos()
}

// End returns the position of first character immediately after the node.
func (e *BinaryExpr) End() source.Pos {
	return e.RHS.End()
}

func (e *BinaryExpr) String() string {
	return "(" + e.LHS.String() + " " + e.Token.String() +
		" " + e.RHS.String() + ")"
}

// CallExpr represents a call. Receivers are the reference parameters passed
// before the callee name, Args the value parameters.
type CallExpr struct {
	Typed
	Func      Expr
	Receivers []Expr
	Args      []Expr
	LParen    source.Pos
	RParen    source.Pos
}

func (e *CallExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *CallExpr) Pos() source.Pos {
	return e.Func.Pos()
}

// End returns the position of first character immediately after the node.
func (e *CallExpr) End() source.Pos {
	return e.RParen + 1
}

// Callee returns the called identifier or nil for indirect calls.
func (e *CallExpr) Callee() *Ident {
	id, _ := e.Func.(*Ident)
	return id
}

func (e *CallExpr) String() string {
	var s strings.Builder
	if len(e.Receivers) > 0 {
		s.WriteString("(" + joinExprs(e.Receivers) + ").")
	}
	s.WriteString(e.Func.String())
	s.WriteString("(" + joinExprs(e.Args) + ")")
	return s.String()
}

// IndexExpr represents an index expression.
type IndexExpr struct {
	Typed
	Expr   Expr
	Index  Expr
	LBrack source.Pos
	RBrack source.Pos
}

func (e *IndexExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *IndexExpr) Pos() source.Pos {
	return e.Expr.Pos()
}

// End returns the position of first character immediately after the node.
func (e *IndexExpr) End() source.Pos {
	return e.RBrack + 1
}

func (e *IndexExpr) String() string {
	return e.Expr.String() + "[" + e.Index.String() + "]"
}

// SelectorExpr represents a field access. Tuple fields are named __0, __1...
type SelectorExpr struct {
	Typed
	Expr   Expr
	Sel    string
	SelPos source.Pos
}

func (e *SelectorExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *SelectorExpr) Pos() source.Pos {
	return e.Expr.Pos()
}

// End returns the position of first character immediately after the node.
func (e *SelectorExpr) End() source.Pos {
	return source.Pos(int(e.SelPos) + len(e.Sel))
}

func (e *SelectorExpr) String() string {
	return e.Expr.String() + "." + e.Sel
}

// ArrayLit represents an array literal.
type ArrayLit struct {
	Typed
	Elements []Expr
	LBrack   source.Pos
	RBrack   source.Pos
}

func (e *ArrayLit) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *ArrayLit) Pos() source.Pos {
	return e.LBrack
}

// End returns the position of first character immediately after the node.
func (e *ArrayLit) End() source.Pos {
	return e.RBrack + 1
}

func (e *ArrayLit) String() string {
	return "[" + joinExprs(e.Elements) + "]"
}

// TupleLit represents a tuple literal.
type TupleLit struct {
	Typed
	Elements []Expr
	LParen   source.Pos
	RParen   source.Pos
}

func (e *TupleLit) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *TupleLit) Pos() source.Pos {
	return e.LParen
}

// End returns the position of first character immediately after the node.
func (e *TupleLit) End() source.Pos {
	return e.RParen + 1
}

func (e *TupleLit) String() string {
	return "(" + joinExprs(e.Elements) + ")"
}

// BlockExpr represents a braced statement list with an optional result
// expression.
type BlockExpr struct {
	Typed
	Stmts  []Stmt
	Result Expr
	LBrace source.Pos
	RBrace source.Pos
}

func (e *BlockExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *BlockExpr) Pos() source.Pos {
	return e.LBrace
}

// End returns the position of first character immediately after the node.
func (e *BlockExpr) End() source.Pos {
	return e.RBrace + 1
}

func (e *BlockExpr) String() string {
	var list []string
	for _, s := range e.Stmts {
		list = append(list, s.String())
	}
	if e.Result != nil {
		list = append(list, e.Result.String())
	}
	return "{" + strings.Join(list, "; ") + "}"
}

// CondExpr represents a ternary conditional expression.
type CondExpr struct {
	Typed
	Cond        Expr
	True        Expr
	False       Expr
	QuestionPos source.Pos
	ColonPos    source.Pos
}

func (e *CondExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *CondExpr) Pos() source.Pos {
	return e.Cond.Pos()
}

// End returns the position of first character immediately after the node.
func (e *CondExpr) End() source.Pos {
	return e.False.End()
}

func (e *CondExpr) String() string {
	return "(" + e.Cond.String() + " ? " + e.True.String() +
		" : " + e.False.String() + ")"
}

// CastExpr converts Expr to the type To.
type CastExpr struct {
	Typed
	Expr   Expr
	To     *Type
	CastAt source.Pos
}

func (e *CastExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *CastExpr) Pos() source.Pos {
	return e.CastAt
}

// End returns the position of first character immediately after the node.
func (e *CastExpr) End() source.Pos {
	return e.Expr.End()
}

func (e *CastExpr) String() string {
	return e.To.String() + "(" + e.Expr.String() + ")"
}

// AssignExpr represents an assignment. Token is Assign, Define or a
// compound assignment operator.
type AssignExpr struct {
	Typed
	LHS      Expr
	RHS      Expr
	Token    token.Token
	TokenPos source.Pos
}

func (e *AssignExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *AssignExpr) Pos() source.Pos {
	return e.LHS.Pos()
}

// End returns the position of first character immediately after the node.
func (e *AssignExpr) End() source.Pos {
	return e.RHS.End()
}

func (e *AssignExpr) String() string {
	return e.LHS.String() + " " + e.Token.String() + " " + e.RHS.String()
}

// RangeExpr represents the half-open integer range Start..End.
type RangeExpr struct {
	Typed
	Start    Expr
	Stop     Expr
	TokenPos source.Pos
}

func (e *RangeExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *RangeExpr) Pos() source.Pos {
	return e.Start.Pos()
}

// End returns the position of first character immediately after the node.
func (e *RangeExpr) End() source.Pos {
	return e.Stop.End()
}

func (e *RangeExpr) String() string {
	return "(" + e.Start.String() + ".." + e.Stop.String() + ")"
}

// LengthExpr represents #Expr.
type LengthExpr struct {
	Typed
	Expr     Expr
	TokenPos source.Pos
}

func (e *LengthExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *LengthExpr) Pos() source.Pos {
	return e.TokenPos
}

// End returns the position of first character immediately after the node.
func (e *LengthExpr) End() source.Pos {
	return e.Expr.End()
}

func (e *LengthExpr) String() string {
	return "#" + e.Expr.String()
}

// IterExpr evaluates Body once per element of Iterable with the element
// bound to the loop variable "_". Sorted iterates in ascending order.
type IterExpr struct {
	Typed
	Iterable    Expr
	Body        Expr
	Sorted      bool
	Annotations Annotations
	TokenPos    source.Pos
}

func (e *IterExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *IterExpr) Pos() source.Pos {
	return e.Iterable.Pos()
}

// End returns the position of first character immediately after the node.
func (e *IterExpr) End() source.Pos {
	return e.Body.End()
}

func (e *IterExpr) String() string {
	op := "@"
	if e.Sorted {
		op = "@@"
	}
	return e.Annotations.String() + e.Iterable.String() + op + e.Body.String()
}

// RepeatExpr evaluates Body while Cond holds.
type RepeatExpr struct {
	Typed
	Cond     Expr
	Body     Expr
	TokenPos source.Pos
}

func (e *RepeatExpr) ExprNode() {}

// Pos returns the position of first character belonging to the node.
func (e *RepeatExpr) Pos() source.Pos {
	return e.Cond.Pos()
}

// End returns the position of first character immediately after the node.
func (e *RepeatExpr) End() source.Pos {
	return e.Body.End()
}

func (e *RepeatExpr) String() string {
	return "(" + e.Cond.String() + ")@" + e.Body.String()
}

const nullRep = "<null>"

func joinExprs(l []Expr) string {
	s := make([]string, len(l))
	for i, e := range l {
		s[i] = e.String()
	}
	return strings.Join(s, ", ")
}
