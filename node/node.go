// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package node

import (
	"strconv"
	"strings"

	"github.com/gad-lang/semcore/source"
)

// Node represents a node in the AST.
type Node interface {
	// Pos returns the position of first character belonging to the node.
	Pos() source.Pos
	// End returns the position of first character immediately after the node.
	End() source.Pos
	// String returns a string representation of the node.
	String() string
}

// Expr represents an expression node in the AST. Every expression carries
// the type assigned by the type checker.
type Expr interface {
	Node
	ExprNode()
	Type() *Type
	SetType(t *Type)
}

// Stmt represents a statement in the AST.
type Stmt interface {
	Node
	StmtNode()
}

// Decl is a top-level statement that declares a symbol.
type Decl interface {
	Stmt
	DeclName() *Ident
	Annots() Annotations
}

// IsStatement reports whether n is a statement.
func IsStatement(n Node) (ok bool) {
	_, ok = n.(Stmt)
	return
}

// Typed carries the type annotation of an expression.
type Typed struct {
	T *Type
}

// Type returns the type annotation, possibly nil.
func (t *Typed) Type() *Type { return t.T }

// SetType replaces the type annotation.
func (t *Typed) SetType(typ *Type) { t.T = typ }

// TypeKind is the shape of a Type.
type TypeKind int

const (
	PrimitiveType TypeKind = iota
	ArrayType
	NamedType
)

// Prim is a primitive type family.
type Prim int

const (
	Int Prim = iota
	Uint
	Float
	Bool
	String
)

// Type is a resolved type annotation. Primitive types carry a bit width,
// arrays an element type and size expression, named types the name of a
// type declaration.
type Type struct {
	Kind TypeKind
	Prim Prim
	Bits int
	Elem *Type
	Size Expr
	Name string
}

// IntType returns a signed integer type of the given width.
func IntType(bits int) *Type { return &Type{Kind: PrimitiveType, Prim: Int, Bits: bits} }

// UintType returns an unsigned integer type of the given width.
func UintType(bits int) *Type { return &Type{Kind: PrimitiveType, Prim: Uint, Bits: bits} }

// FloatType returns a float type of the given width (32 or 64).
func FloatType(bits int) *Type { return &Type{Kind: PrimitiveType, Prim: Float, Bits: bits} }

// BoolType returns the boolean type.
func BoolType() *Type { return &Type{Kind: PrimitiveType, Prim: Bool, Bits: 1} }

// StringType returns the string type.
func StringType() *Type { return &Type{Kind: PrimitiveType, Prim: String} }

// ArrayOf returns an array type of elem with size expression size.
func ArrayOf(elem *Type, size Expr) *Type { return &Type{Kind: ArrayType, Elem: elem, Size: size} }

// Named returns a reference to the type declaration name.
func Named(name string) *Type { return &Type{Kind: NamedType, Name: name} }

// Is reports whether t is the primitive family p.
func (t *Type) Is(p Prim) bool {
	return t != nil && t.Kind == PrimitiveType && t.Prim == p
}

func (t *Type) String() string {
	if t == nil {
		return "?"
	}
	switch t.Kind {
	case ArrayType:
		size := "?"
		if t.Size != nil {
			size = t.Size.String()
		}
		return "[" + size + "]" + t.Elem.String()
	case NamedType:
		return "#" + t.Name
	}
	switch t.Prim {
	case Int:
		return "#i" + strconv.Itoa(t.Bits)
	case Uint:
		return "#u" + strconv.Itoa(t.Bits)
	case Float:
		return "#f" + strconv.Itoa(t.Bits)
	case Bool:
		return "#b"
	}
	return "#s"
}

// Annotation is a [[name(args)]] marker attached to a declaration or loop.
type Annotation struct {
	Name    string
	Args    []string
	NamePos source.Pos
}

// Annotations is a list of annotations.
type Annotations []*Annotation

// Has reports whether an annotation with name exists.
func (a Annotations) Has(name string) bool {
	for _, an := range a {
		if an.Name == name {
			return true
		}
	}
	return false
}

func (a Annotations) String() string {
	if len(a) == 0 {
		return ""
	}
	var s []string
	for _, an := range a {
		if len(an.Args) > 0 {
			s = append(s, an.Name+"("+strings.Join(an.Args, ", ")+")")
		} else {
			s = append(s, an.Name)
		}
	}
	return "[[" + strings.Join(s, ", ") + "]] "
}
