// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package analysis

import (
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
)

type usage struct {
	a       *Analyzer
	f       *Facts
	globals []*program.Symbol
	types   []string
	decls   map[string][]*program.Symbol
}

func (u *usage) global(sym *program.Symbol) {
	if sym != nil && sym.IsGlobal() && !u.f.UsedGlobals[sym] {
		u.f.UsedGlobals[sym] = true
		u.globals = append(u.globals, sym)
	}
}

// typ notes the named types of t. Array sizes are walked like expressions.
func (u *usage) typ(inst program.InstanceID, t *node.Type) {
	for t != nil {
		switch t.Kind {
		case node.NamedType:
			if u.f.UsedTypes[t.Name] {
				return
			}
			u.f.UsedTypes[t.Name] = true
			u.types = append(u.types, t.Name)
			t = u.a.prog.Aliases[t.Name]
		case node.ArrayType:
			if t.Size != nil {
				u.a.walk(inst, t.Size, u.visit(inst))
			}
			t = t.Elem
		default:
			return
		}
	}
}

func (u *usage) visit(inst program.InstanceID) func(node.Node) {
	return func(n node.Node) {
		switch n := n.(type) {
		case *node.VarDecl:
			u.typ(inst, n.VarType)
		case *node.CastExpr:
			u.typ(inst, n.To)
		}
		x, ok := n.(node.Expr)
		if !ok {
			return
		}
		u.typ(inst, x.Type())
		if id, ok := x.(*node.Ident); ok {
			if sym := u.a.prog.BindingFor(inst, id); sym != nil {
				if sym.Kind != program.Function {
					u.typ(inst, sym.Type)
				}
				u.global(sym)
			}
		}
	}
}

// usage collects the globals and named types referenced from reachable
// code, closed over global initializers and field types.
func (a *Analyzer) usage(f *Facts) {
	defer a.trace.Leave(a.trace.Enter("usage"))

	u := &usage{a: a, f: f, decls: map[string][]*program.Symbol{}}
	for _, sym := range a.syms {
		switch {
		case sym.Kind == program.TypeName:
			u.decls[sym.Name] = append(u.decls[sym.Name], sym)
		case sym.IsGlobal() && sym.Exported:
			u.global(sym)
		}
	}

	for _, sym := range a.syms {
		fd := sym.FuncDecl()
		if sym.Kind != program.Function || fd == nil || !f.Reachable[sym] {
			continue
		}
		inst := sym.Instance
		for _, p := range fd.Receivers {
			u.typ(inst, p.Type)
		}
		for _, p := range fd.Params {
			u.typ(inst, p.Type)
		}
		u.typ(inst, fd.Result)
		a.walk(inst, sym.Body(), u.visit(inst))
	}
	for _, it := range a.stmts {
		a.walk(it.Instance, it.Stmt, u.visit(it.Instance))
	}

	for len(u.globals) > 0 || len(u.types) > 0 {
		for len(u.globals) > 0 {
			sym := u.globals[0]
			u.globals = u.globals[1:]
			d := sym.VarDecl()
			if d == nil {
				continue
			}
			u.typ(sym.Instance, d.VarType)
			a.walk(sym.Instance, d.Init, u.visit(sym.Instance))
		}
		for len(u.types) > 0 {
			name := u.types[0]
			u.types = u.types[1:]
			for _, sym := range u.decls[name] {
				for _, fl := range sym.TypeDecl().Fields {
					u.typ(sym.Instance, fl.Type)
				}
			}
		}
	}
}
