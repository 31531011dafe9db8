package testhelper

import (
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/token"
)

// Types used throughout the tests.
var (
	I8   = node.IntType(8)
	I32  = node.IntType(32)
	I64  = node.IntType(64)
	U8   = node.UintType(8)
	U32  = node.UintType(32)
	F32  = node.FloatType(32)
	F64  = node.FloatType(64)
	Bl   = node.BoolType()
	Strg = node.StringType()
)

// Arr returns the array type [n]elem.
func Arr(elem *node.Type, n int64) *node.Type {
	return node.ArrayOf(elem, Int(n, 64))
}

// Int returns a signed literal of width bits.
func Int(v int64, bits int) *node.IntLit {
	return &node.IntLit{Value: v, Typed: node.Typed{T: node.IntType(bits)}}
}

// I returns an #i32 literal.
func I(v int64) *node.IntLit { return Int(v, 32) }

// U returns an unsigned literal of width bits.
func U(v uint64, bits int) *node.UintLit {
	return &node.UintLit{Value: v, Typed: node.Typed{T: node.UintType(bits)}}
}

// F returns a #f64 literal.
func F(v float64) *node.FloatLit {
	return &node.FloatLit{Value: v, Typed: node.Typed{T: node.FloatType(64)}}
}

// B returns a bool literal.
func B(v bool) *node.BoolLit {
	return &node.BoolLit{Value: v, Typed: node.Typed{T: node.BoolType()}}
}

// S returns a string literal.
func S(v string) *node.StringLit {
	return &node.StringLit{Value: v, Typed: node.Typed{T: node.StringType()}}
}

// Ch returns a char literal.
func Ch(v byte) *node.CharLit {
	return &node.CharLit{Value: v, Typed: node.Typed{T: node.UintType(8)}}
}

// Id returns an identifier reference.
func Id(name string) *node.Ident { return &node.Ident{Name: name} }

// Bin returns lhs op rhs.
func Bin(lhs node.Expr, op token.Token, rhs node.Expr) *node.BinaryExpr {
	return &node.BinaryExpr{LHS: lhs, RHS: rhs, Token: op}
}

// Un returns op x.
func Un(op token.Token, x node.Expr) *node.UnaryExpr {
	return &node.UnaryExpr{Token: op, Expr: x}
}

// Call returns name(args...).
func Call(name string, args ...node.Expr) *node.CallExpr {
	return &node.CallExpr{Func: Id(name), Args: args}
}

// CallR returns (receivers...).name(args...).
func CallR(name string, receivers []node.Expr, args ...node.Expr) *node.CallExpr {
	return &node.CallExpr{Func: Id(name), Receivers: receivers, Args: args}
}

// Index returns x[i].
func Index(x, i node.Expr) *node.IndexExpr { return &node.IndexExpr{Expr: x, Index: i} }

// Sel returns x.name.
func Sel(x node.Expr, name string) *node.SelectorExpr {
	return &node.SelectorExpr{Expr: x, Sel: name}
}

// List returns an array literal.
func List(elems ...node.Expr) *node.ArrayLit { return &node.ArrayLit{Elements: elems} }

// Tuple returns a tuple literal.
func Tuple(elems ...node.Expr) *node.TupleLit { return &node.TupleLit{Elements: elems} }

// Block returns a block without result.
func Block(stmts ...node.Stmt) *node.BlockExpr { return &node.BlockExpr{Stmts: stmts} }

// BlockR returns a block with a result expression.
func BlockR(result node.Expr, stmts ...node.Stmt) *node.BlockExpr {
	return &node.BlockExpr{Stmts: stmts, Result: result}
}

// Cond returns c ? t : f.
func Cond(c, t, f node.Expr) *node.CondExpr { return &node.CondExpr{Cond: c, True: t, False: f} }

// Cast returns t(x).
func Cast(x node.Expr, t *node.Type) *node.CastExpr { return &node.CastExpr{Expr: x, To: t} }

// Assign returns lhs = rhs.
func Assign(lhs, rhs node.Expr) *node.AssignExpr {
	return &node.AssignExpr{LHS: lhs, RHS: rhs, Token: token.Assign}
}

// AssignOp returns a compound assignment such as lhs += rhs.
func AssignOp(lhs node.Expr, op token.Token, rhs node.Expr) *node.AssignExpr {
	return &node.AssignExpr{LHS: lhs, RHS: rhs, Token: op}
}

// Define returns name := rhs.
func Define(name string, rhs node.Expr) *node.AssignExpr {
	return &node.AssignExpr{LHS: Id(name), RHS: rhs, Token: token.Define}
}

// Range returns start..stop.
func Range(start, stop node.Expr) *node.RangeExpr { return &node.RangeExpr{Start: start, Stop: stop} }

// Len returns #x.
func Len(x node.Expr) *node.LengthExpr { return &node.LengthExpr{Expr: x} }

// Iter returns seq@body.
func Iter(seq, body node.Expr) *node.IterExpr { return &node.IterExpr{Iterable: seq, Body: body} }

// Repeat returns (cond)@body.
func Repeat(cond, body node.Expr) *node.RepeatExpr { return &node.RepeatExpr{Cond: cond, Body: body} }

// Do wraps x in an expression statement.
func Do(x node.Expr) *node.ExprStmt { return &node.ExprStmt{Expr: x} }

// Ret returns a return statement.
func Ret(x node.Expr) *node.ReturnStmt { return &node.ReturnStmt{Result: x} }

// Break returns a break statement.
func Break() *node.BreakStmt { return &node.BreakStmt{} }

// Continue returns a continue statement.
func Continue() *node.ContinueStmt { return &node.ContinueStmt{} }

// If returns cond -> body.
func If(cond node.Expr, body node.Stmt) *node.CondStmt { return &node.CondStmt{Cond: cond, Body: body} }

// Let declares an immutable local or global constant.
func Let(name string, t *node.Type, init node.Expr) *node.VarDecl {
	return &node.VarDecl{Name: Id(name), VarType: t, Init: init}
}

// Var declares a mutable local or global variable.
func Var(name string, t *node.Type, init node.Expr) *node.VarDecl {
	return &node.VarDecl{Name: Id(name), VarType: t, Init: init, Mutable: true}
}

// Exported marks a global as exported.
func Exported(d *node.VarDecl) *node.VarDecl {
	d.Exported = true
	return d
}

// P declares a parameter.
func P(name string, t *node.Type) *node.Param { return &node.Param{Name: Id(name), Type: t} }

// Params is a convenience for parameter lists.
func Params(p ...*node.Param) []*node.Param { return p }

// FuncBuilder configures a function declaration.
type FuncBuilder struct {
	*node.FuncDecl
}

// Fn declares a function.
func Fn(name string, params []*node.Param, result *node.Type, body node.Expr) FuncBuilder {
	return FuncBuilder{&node.FuncDecl{Name: Id(name), Params: params, Result: result, Body: body}}
}

// Extern declares an external function.
func Extern(name string, params []*node.Param, result *node.Type) FuncBuilder {
	return FuncBuilder{&node.FuncDecl{Name: Id(name), Params: params, Result: result, External: true}}
}

// Export marks the function as exported.
func (f FuncBuilder) Export() FuncBuilder {
	f.Exported = true
	return f
}

// Ann adds annotations.
func (f FuncBuilder) Ann(names ...string) FuncBuilder {
	for _, n := range names {
		f.Annotations = append(f.Annotations, &node.Annotation{Name: n})
	}
	return f
}

// Recv sets the reference receivers.
func (f FuncBuilder) Recv(p ...*node.Param) FuncBuilder {
	f.Receivers = p
	return f
}

// Decl returns the declaration.
func (f FuncBuilder) Decl() *node.FuncDecl { return f.FuncDecl }

// TypeDecl declares a named aggregate.
func TypeDecl(name string, fields ...*node.Field) *node.TypeDecl {
	return &node.TypeDecl{Name: Id(name), Fields: fields}
}

// Field declares an aggregate field.
func Field(name string, t *node.Type) *node.Field { return &node.Field{Name: name, Type: t} }
