// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package program

import (
	"strconv"

	"github.com/gad-lang/semcore/node"
)

// InstanceID identifies one specialization of a module.
type InstanceID int

// SymbolKind is the kind of declaration a symbol binds to.
type SymbolKind int

const (
	Variable SymbolKind = iota
	Constant
	Function
	TypeName
)

var symbolKinds = [...]string{
	Variable: "variable",
	Constant: "constant",
	Function: "function",
	TypeName: "type",
}

func (k SymbolKind) String() string {
	if 0 <= k && int(k) < len(symbolKinds) {
		return symbolKinds[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Symbol is a resolved declaration. Symbols are created by name resolution
// and are never modified afterwards.
type Symbol struct {
	Kind     SymbolKind
	Name     string
	Type     *node.Type
	Decl     node.Stmt
	Instance InstanceID
	Exported bool
	External bool
	Mutable  bool
	Local    bool
}

// Label returns name@instance, the stable key used in reports.
func (s *Symbol) Label() string {
	return s.Name + "@" + strconv.Itoa(int(s.Instance))
}

func (s *Symbol) String() string {
	return s.Kind.String() + " " + s.Label()
}

// IsGlobal reports whether s is a module level variable or constant.
func (s *Symbol) IsGlobal() bool {
	return !s.Local && (s.Kind == Variable || s.Kind == Constant)
}

// VarDecl returns the variable declaration or nil.
func (s *Symbol) VarDecl() *node.VarDecl {
	d, _ := s.Decl.(*node.VarDecl)
	return d
}

// FuncDecl returns the function declaration or nil.
func (s *Symbol) FuncDecl() *node.FuncDecl {
	d, _ := s.Decl.(*node.FuncDecl)
	return d
}

// TypeDecl returns the type declaration or nil.
func (s *Symbol) TypeDecl() *node.TypeDecl {
	d, _ := s.Decl.(*node.TypeDecl)
	return d
}

// Init returns the initializer of a variable symbol or nil.
func (s *Symbol) Init() node.Expr {
	if d := s.VarDecl(); d != nil {
		return d.Init
	}
	return nil
}

// Body returns the body of a function symbol or nil.
func (s *Symbol) Body() node.Expr {
	if d := s.FuncDecl(); d != nil && !d.External {
		return d.Body
	}
	return nil
}

// Annotations returns the annotations of the declaration.
func (s *Symbol) Annotations() node.Annotations {
	if d, ok := s.Decl.(node.Decl); ok {
		return d.Annots()
	}
	return nil
}

// SortSymbols orders symbols by label, then by kind.
func SortSymbols(l []*Symbol) {
	sortSymbols(l)
}
