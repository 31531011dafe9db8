// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package node

import (
	"strings"

	"github.com/gad-lang/semcore/source"
)

// ExprStmt represents an expression statement.
type ExprStmt struct {
	Expr Expr
}

func (s *ExprStmt) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *ExprStmt) Pos() source.Pos {
	return s.Expr.Pos()
}

// End returns the position of first character immediately after the node.
func (s *ExprStmt) End() source.Pos {
	return s.Expr.End()
}

func (s *ExprStmt) String() string {
	return s.Expr.String()
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	Result    Expr
	ReturnPos source.Pos
}

func (s *ReturnStmt) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *ReturnStmt) Pos() source.Pos {
	return s.ReturnPos
}

// End returns the position of first character immediately after the node.
func (s *ReturnStmt) End() source.Pos {
	if s.Result != nil {
		return s.Result.End()
	}
	return s.ReturnPos + 6
}

func (s *ReturnStmt) String() string {
	if s.Result != nil {
		return "return " + s.Result.String()
	}
	return "return"
}

// BreakStmt represents a break statement.
type BreakStmt struct {
	TokenPos source.Pos
}

func (s *BreakStmt) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *BreakStmt) Pos() source.Pos {
	return s.TokenPos
}

// End returns the position of first character immediately after the node.
func (s *BreakStmt) End() source.Pos {
	return s.TokenPos + 5
}

func (s *BreakStmt) String() string {
	return "break"
}

// ContinueStmt represents a continue statement.
type ContinueStmt struct {
	TokenPos source.Pos
}

func (s *ContinueStmt) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *ContinueStmt) Pos() source.Pos {
	return s.TokenPos
}

// End returns the position of first character immediately after the node.
func (s *ContinueStmt) End() source.Pos {
	return s.TokenPos + 8
}

func (s *ContinueStmt) String() string {
	return "continue"
}

// IsTerminal reports whether control never falls through s.
func IsTerminal(s Stmt) bool {
	switch s.(type) {
	case *ReturnStmt, *BreakStmt, *ContinueStmt:
		return true
	}
	return false
}

// CondStmt runs Body when Cond holds.
type CondStmt struct {
	Cond Expr
	Body Stmt
}

func (s *CondStmt) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *CondStmt) Pos() source.Pos {
	return s.Cond.Pos()
}

// End returns the position of first character immediately after the node.
func (s *CondStmt) End() source.Pos {
	return s.Body.End()
}

func (s *CondStmt) String() string {
	return s.Cond.String() + " -> " + s.Body.String()
}

// VarDecl declares a variable or a constant. Top-level declarations are
// globals, the others are locals.
type VarDecl struct {
	Name        *Ident
	VarType     *Type
	Init        Expr
	Mutable     bool
	Exported    bool
	Annotations Annotations
}

func (s *VarDecl) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *VarDecl) Pos() source.Pos {
	return s.Name.Pos()
}

// End returns the position of first character immediately after the node.
func (s *VarDecl) End() source.Pos {
	if s.Init != nil {
		return s.Init.End()
	}
	return s.Name.End()
}

func (s *VarDecl) DeclName() *Ident { return s.Name }

func (s *VarDecl) Annots() Annotations { return s.Annotations }

func (s *VarDecl) String() string {
	var b strings.Builder
	b.WriteString(s.Annotations.String())
	if s.Exported {
		b.WriteString("&^")
	}
	if s.Mutable {
		b.WriteString("mut ")
	}
	b.WriteString(s.Name.Name)
	if s.VarType != nil {
		b.WriteString(":" + s.VarType.String())
	}
	if s.Init != nil {
		b.WriteString(" = " + s.Init.String())
	}
	return b.String()
}

// Param is a function value parameter or reference receiver.
type Param struct {
	Name *Ident
	Type *Type
}

func (p *Param) String() string {
	return p.Name.Name + ":" + p.Type.String()
}

// FuncDecl declares a function. External functions have no body.
type FuncDecl struct {
	Name        *Ident
	Receivers   []*Param
	Params      []*Param
	Result      *Type
	Body        Expr
	External    bool
	Exported    bool
	Annotations Annotations
	FuncPos     source.Pos
}

func (s *FuncDecl) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *FuncDecl) Pos() source.Pos {
	if s.FuncPos.IsValid() {
		return s.FuncPos
	}
	return s.Name.Pos()
}

// End returns the position of first character immediately after the node.
func (s *FuncDecl) End() source.Pos {
	if s.Body != nil {
		return s.Body.End()
	}
	return s.Name.End()
}

func (s *FuncDecl) DeclName() *Ident { return s.Name }

func (s *FuncDecl) Annots() Annotations { return s.Annotations }

func (s *FuncDecl) String() string {
	var b strings.Builder
	b.WriteString(s.Annotations.String())
	switch {
	case s.External:
		b.WriteString("&!")
	case s.Exported:
		b.WriteString("&^")
	default:
		b.WriteString("&")
	}
	if len(s.Receivers) > 0 {
		b.WriteString("(" + joinParams(s.Receivers) + ")")
	}
	b.WriteString(s.Name.Name + "(" + joinParams(s.Params) + ")")
	if s.Result != nil {
		b.WriteString(" -> " + s.Result.String())
	}
	if s.Body != nil {
		b.WriteString(" " + s.Body.String())
	}
	return b.String()
}

// Field is a field of a type declaration.
type Field struct {
	Name string
	Type *Type
}

// TypeDecl declares a named aggregate type.
type TypeDecl struct {
	Name        *Ident
	Fields      []*Field
	Annotations Annotations
}

func (s *TypeDecl) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *TypeDecl) Pos() source.Pos {
	return s.Name.Pos()
}

// End returns the position of first character immediately after the node.
func (s *TypeDecl) End() source.Pos {
	return s.Name.End()
}

func (s *TypeDecl) DeclName() *Ident { return s.Name }

func (s *TypeDecl) Annots() Annotations { return s.Annotations }

// FieldIndex returns the position of field name or -1.
func (s *TypeDecl) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (s *TypeDecl) String() string {
	var fields []string
	for _, f := range s.Fields {
		fields = append(fields, f.Name+":"+f.Type.String())
	}
	return "#" + s.Name.Name + "(" + strings.Join(fields, ", ") + ")"
}

// ImportStmt records a module import. It carries no semantics here and is
// always kept.
type ImportStmt struct {
	Path      string
	ImportPos source.Pos
}

func (s *ImportStmt) StmtNode() {}

// Pos returns the position of first character belonging to the node.
func (s *ImportStmt) Pos() source.Pos {
	return s.ImportPos
}

// End returns the position of first character immediately after the node.
func (s *ImportStmt) End() source.Pos {
	return source.Pos(int(s.ImportPos) + len(s.Path) + 2)
}

func (s *ImportStmt) String() string {
	return "::" + s.Path
}

func joinParams(l []*Param) string {
	s := make([]string, len(l))
	for i, p := range l {
		s[i] = p.String()
	}
	return strings.Join(s, ", ")
}
