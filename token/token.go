// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package token

import "strconv"

// Token represents an operator token carried by expression nodes.
type Token int

// List of tokens
const (
	Illegal Token = iota
	OperatorBegin_
	Add       // +
	Sub       // -
	Mul       // *
	Quo       // /
	Rem       // %
	And       // &
	Or        // |
	Xor       // ^
	Shl       // <<
	Shr       // >>
	AddAssign // +=
	SubAssign // -=
	MulAssign // *=
	QuoAssign // /=
	RemAssign // %=
	AndAssign // &=
	OrAssign  // |=
	XorAssign // ^=
	ShlAssign // <<=
	ShrAssign // >>=
	LAnd      // &&
	LOr       // ||
	Equal     // ==
	Less      // <
	Greater   // >
	Assign    // =
	Not       // !
	BitNot    // ~
	NotEqual  // !=
	LessEq    // <=
	GreaterEq // >=
	Define    // :=
	Range     // ..
	Length    // #
	Iterate   // @
	Question  // ?
	OperatorEnd_
)

var tokens = [...]string{
	Illegal:   "ILLEGAL",
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Quo:       "/",
	Rem:       "%",
	And:       "&",
	Or:        "|",
	Xor:       "^",
	Shl:       "<<",
	Shr:       ">>",
	AddAssign: "+=",
	SubAssign: "-=",
	MulAssign: "*=",
	QuoAssign: "/=",
	RemAssign: "%=",
	AndAssign: "&=",
	OrAssign:  "|=",
	XorAssign: "^=",
	ShlAssign: "<<=",
	ShrAssign: ">>=",
	LAnd:      "&&",
	LOr:       "||",
	Equal:     "==",
	Less:      "<",
	Greater:   ">",
	Assign:    "=",
	Not:       "!",
	BitNot:    "~",
	NotEqual:  "!=",
	LessEq:    "<=",
	GreaterEq: ">=",
	Define:    ":=",
	Range:     "..",
	Length:    "#",
	Iterate:   "@",
	Question:  "?",
}

func (tok Token) String() string {
	s := ""

	if 0 <= tok && tok < Token(len(tokens)) {
		s = tokens[tok]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tok)) + ")"
	}

	return s
}

// LowestPrec represents lowest operator precedence.
const LowestPrec = 0

// Precedence returns the precedence for the operator token.
func (tok Token) Precedence() int {
	switch tok {
	case LOr:
		return 1
	case LAnd:
		return 2
	case Equal, NotEqual, Less, LessEq, Greater, GreaterEq:
		return 3
	case Add, Sub, Or, Xor:
		return 4
	case Mul, Quo, Rem, Shl, Shr, And:
		return 5
	}
	return LowestPrec
}

// IsOperator returns true if the token is an operator.
func (tok Token) IsOperator() bool {
	return OperatorBegin_ < tok && tok < OperatorEnd_
}

// IsComparison reports whether token compares two operands.
func (tok Token) IsComparison() bool {
	switch tok {
	case Equal, NotEqual, Less, LessEq, Greater, GreaterEq:
		return true
	}
	return false
}

// IsBitwise reports whether token is an integer-only bitwise operator.
func (tok Token) IsBitwise() bool {
	switch tok {
	case And, Or, Xor, Shl, Shr:
		return true
	}
	return false
}

// IsBinaryOperator reports whether token is a binary operator.
func (tok Token) IsBinaryOperator() bool {
	switch tok {
	case Add,
		Sub,
		Mul,
		Quo,
		Rem,
		Less,
		LessEq,
		Greater,
		GreaterEq,
		And,
		Or,
		Xor,
		Shl,
		Shr,
		Equal,
		NotEqual,
		LAnd,
		LOr:
		return true
	}
	return false
}

// IsAssign reports whether token is a plain or compound assignment.
func (tok Token) IsAssign() bool {
	return tok == Assign || tok == Define || (AddAssign <= tok && tok <= ShrAssign)
}

// Binary returns the binary operator of a compound assignment, e.g. Add for
// AddAssign. It returns Illegal for any other token.
func (tok Token) Binary() Token {
	if AddAssign <= tok && tok <= ShrAssign {
		return Add + (tok - AddAssign)
	}
	return Illegal
}

// Is returns true if then token equals one of args.
func (tok Token) Is(other ...Token) bool {
	for _, o := range other {
		if o == tok {
			return true
		}
	}
	return false
}
