package testhelper

import (
	"fmt"

	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/token"
)

// Builder assembles a resolved, typed program from hand written trees. It
// plays the part of the front end: it creates symbols, binds every
// identifier per instance and fills in missing expression types.
type Builder struct {
	prog    *program.Program
	modules map[string]*program.Module
	nextID  program.InstanceID
}

// NewProgram starts a program.
func NewProgram(name string) *Builder {
	return &Builder{
		prog:    program.New(name),
		modules: map[string]*program.Module{},
	}
}

// Module registers a module. FuncBuilder values are unwrapped to their
// declarations.
func (b *Builder) Module(name string, stmts ...node.Stmt) *program.Module {
	m := &program.Module{Name: name, Path: name + ".vx"}
	for _, s := range stmts {
		if fb, ok := s.(FuncBuilder); ok {
			s = fb.FuncDecl
		}
		m.Stmts = append(m.Stmts, s)
	}
	b.modules[name] = m
	b.prog.Modules = append(b.prog.Modules, m)
	return m
}

// Alias makes Name in a new instance refer to Target of instance From.
type Alias struct {
	Name   string
	From   program.InstanceID
	Target string
}

// Instance specializes module and resolves it. Aliases bind extra names,
// the way generic arguments are bound by specialization.
func (b *Builder) Instance(module string, aliases ...Alias) program.InstanceID {
	m := b.modules[module]
	if m == nil {
		panic("unknown module " + module)
	}
	in := &program.Instance{ID: b.nextID, Module: m, Symbols: map[string]*program.Symbol{}}
	b.nextID++
	b.prog.Instances = append(b.prog.Instances, in)

	r := &resolver{prog: b.prog, inst: in}
	r.declare()
	for _, a := range aliases {
		src := b.prog.Instance(a.From)
		if src == nil || src.Lookup(a.Target) == nil {
			panic(fmt.Sprintf("unknown alias target %s@%d", a.Target, a.From))
		}
		in.Symbols[a.Name] = src.Lookup(a.Target)
	}
	r.resolve()
	return in.ID
}

// Program returns the built program.
func (b *Builder) Program() *program.Program {
	return b.prog
}

// Single builds a program with one module and one instance.
func Single(stmts ...node.Stmt) *program.Program {
	b := NewProgram("main")
	b.Module("main", stmts...)
	b.Instance("main")
	return b.Program()
}

type resolver struct {
	prog   *program.Program
	inst   *program.Instance
	scopes []map[string]*program.Symbol
}

func (r *resolver) declare() {
	for _, s := range r.inst.Module.Stmts {
		var sym *program.Symbol
		switch d := s.(type) {
		case *node.VarDecl:
			kind := program.Constant
			if d.Mutable {
				kind = program.Variable
			}
			t := d.VarType
			if t == nil && d.Init != nil {
				t = d.Init.Type()
			}
			sym = &program.Symbol{Kind: kind, Name: d.Name.Name, Type: t, Decl: d,
				Exported: d.Exported, Mutable: d.Mutable}
		case *node.FuncDecl:
			sym = &program.Symbol{Kind: program.Function, Name: d.Name.Name, Type: d.Result, Decl: d,
				Exported: d.Exported, External: d.External}
		case *node.TypeDecl:
			sym = &program.Symbol{Kind: program.TypeName, Name: d.Name.Name, Type: node.Named(d.Name.Name), Decl: d}
		default:
			continue
		}
		sym.Instance = r.inst.ID
		r.inst.Symbols[sym.Name] = sym
		r.prog.Bind(r.inst.ID, s, sym)
		r.prog.Bind(r.inst.ID, s.(node.Decl).DeclName(), sym)
	}
}

func (r *resolver) resolve() {
	for _, s := range r.inst.Module.Stmts {
		switch d := s.(type) {
		case *node.VarDecl:
			r.typ(d.VarType)
			r.expr(d.Init)
			if sym := r.prog.BindingFor(r.inst.ID, d); sym.Type == nil && d.Init != nil {
				sym.Type = d.Init.Type()
			}
		case *node.FuncDecl:
			r.push()
			for _, p := range d.Receivers {
				r.param(p, true)
			}
			for _, p := range d.Params {
				r.param(p, false)
			}
			r.typ(d.Result)
			r.expr(d.Body)
			r.pop()
		case *node.TypeDecl:
			for _, f := range d.Fields {
				r.typ(f.Type)
			}
		default:
			r.stmt(s)
		}
	}
}

func (r *resolver) push() { r.scopes = append(r.scopes, map[string]*program.Symbol{}) }

func (r *resolver) pop() { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *resolver) define(id *node.Ident, sym *program.Symbol) {
	sym.Instance = r.inst.ID
	sym.Local = true
	r.scopes[len(r.scopes)-1][id.Name] = sym
	r.prog.Bind(r.inst.ID, id, sym)
}

func (r *resolver) param(p *node.Param, receiver bool) {
	r.typ(p.Type)
	r.define(p.Name, &program.Symbol{Kind: program.Variable, Name: p.Name.Name, Type: p.Type, Mutable: receiver})
}

func (r *resolver) lookup(name string) *program.Symbol {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if sym := r.scopes[i][name]; sym != nil {
			return sym
		}
	}
	if sym := r.inst.Lookup(name); sym != nil {
		return sym
	}
	panic(fmt.Sprintf("unresolved identifier %s in instance %d", name, r.inst.ID))
}

func (r *resolver) typ(t *node.Type) {
	node.InspectType(t, func(size node.Expr) { r.expr(size) })
}

func (r *resolver) stmt(s node.Stmt) {
	switch s := s.(type) {
	case *node.ExprStmt:
		r.expr(s.Expr)
	case *node.ReturnStmt:
		r.expr(s.Result)
	case *node.CondStmt:
		r.expr(s.Cond)
		r.stmt(s.Body)
	case *node.VarDecl:
		r.typ(s.VarType)
		r.expr(s.Init)
		t := s.VarType
		if t == nil && s.Init != nil {
			t = s.Init.Type()
		}
		sym := &program.Symbol{Kind: program.Variable, Name: s.Name.Name, Type: t, Decl: s, Mutable: s.Mutable}
		r.define(s.Name, sym)
		r.prog.Bind(r.inst.ID, s, sym)
	}
}

func (r *resolver) expr(x node.Expr) {
	if x == nil {
		return
	}
	switch x := x.(type) {
	case *node.Ident:
		sym := r.lookup(x.Name)
		r.prog.Bind(r.inst.ID, x, sym)
		if x.Type() == nil && sym.Kind != program.Function {
			x.SetType(sym.Type)
		}
		return
	case *node.BlockExpr:
		r.push()
		for _, s := range x.Stmts {
			r.stmt(s)
		}
		r.expr(x.Result)
		r.pop()
	case *node.AssignExpr:
		r.expr(x.RHS)
		if id, ok := x.LHS.(*node.Ident); ok && x.Token == token.Define {
			r.define(id, &program.Symbol{Kind: program.Variable, Name: id.Name, Type: x.RHS.Type(), Mutable: true})
			id.SetType(x.RHS.Type())
		} else {
			r.expr(x.LHS)
		}
	case *node.IterExpr:
		r.expr(x.Iterable)
		var elem *node.Type
		if t := x.Iterable.Type(); t != nil && t.Kind == node.ArrayType {
			elem = t.Elem
		}
		r.push()
		loopVar := &program.Symbol{Kind: program.Variable, Name: "_", Type: elem}
		r.define(&node.Ident{Name: "_"}, loopVar)
		r.prog.Bind(r.inst.ID, x, loopVar)
		r.expr(x.Body)
		r.pop()
	case *node.CastExpr:
		r.typ(x.To)
		r.expr(x.Expr)
	default:
		for _, c := range node.Children(x) {
			if ce, ok := c.(node.Expr); ok {
				r.expr(ce)
			} else {
				r.stmt(c.(node.Stmt))
			}
		}
	}
	if x.Type() == nil {
		x.SetType(r.infer(x))
	}
}

func (r *resolver) infer(x node.Expr) *node.Type {
	switch x := x.(type) {
	case *node.BinaryExpr:
		if x.Token.IsComparison() || x.Token == token.LAnd || x.Token == token.LOr {
			return node.BoolType()
		}
		return x.LHS.Type()
	case *node.UnaryExpr:
		if x.Token == token.Not {
			return node.BoolType()
		}
		return x.Expr.Type()
	case *node.CallExpr:
		if sym := r.prog.BindingFor(r.inst.ID, x.Func); sym != nil {
			return sym.Type
		}
	case *node.IndexExpr:
		if t := x.Expr.Type(); t != nil && t.Kind == node.ArrayType {
			return t.Elem
		}
		if x.Expr.Type().Is(node.String) {
			return node.UintType(8)
		}
	case *node.SelectorExpr:
		if t := x.Expr.Type(); t != nil && t.Kind == node.NamedType {
			if sym := r.prog.LookupTypeSymbol(r.inst.ID, t.Name); sym != nil {
				td := sym.TypeDecl()
				if i := td.FieldIndex(x.Sel); i >= 0 {
					return td.Fields[i].Type
				}
			}
		}
	case *node.ArrayLit:
		if len(x.Elements) > 0 {
			return node.ArrayOf(x.Elements[0].Type(), Int(int64(len(x.Elements)), 64))
		}
	case *node.CondExpr:
		return x.True.Type()
	case *node.CastExpr:
		return x.To
	case *node.AssignExpr:
		return x.LHS.Type()
	case *node.RangeExpr:
		return node.ArrayOf(x.Start.Type(), nil)
	case *node.LengthExpr:
		return node.IntType(64)
	case *node.BlockExpr:
		if x.Result != nil {
			return x.Result.Type()
		}
	}
	return nil
}
