// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package semcore

import (
	"github.com/gad-lang/semcore/analysis"
	"github.com/gad-lang/semcore/diag"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
)

// Assemble merges the instances of prog and drops every top-level
// declaration the analysis did not prove live. Functions are kept when
// reachable, globals when exported or used and types when used. Other
// statements are always kept.
func Assemble(prog *program.Program, opt *optimizer.Facts, an *analysis.Facts) (*program.Merged, error) {
	if opt == nil {
		opt = optimizer.NewFacts()
	}
	merged := prog.Merge()
	out := &program.Merged{Name: merged.Name}
	for _, it := range merged.Items {
		d, ok := it.Stmt.(node.Decl)
		if !ok {
			out.Items = append(out.Items, it)
			continue
		}
		sym := prog.BindingFor(it.Instance, d)
		if sym == nil {
			return nil, diag.Internalf(diag.ErrMissingBinding, prog.Position(d.Pos()), d,
				"missing symbol binding for declaration %s", d.DeclName().Name)
		}
		var keep bool
		switch d.(type) {
		case *node.FuncDecl:
			keep = an.Reachable[sym]
		case *node.VarDecl:
			keep = sym.Exported || an.UsedGlobals[sym]
		case *node.TypeDecl:
			keep = an.UsedTypes[sym.Name]
		default:
			keep = true
		}
		if keep {
			out.Items = append(out.Items, it)
		}
	}
	if err := validatePruneLinkage(prog, opt, out); err != nil {
		return nil, err
	}
	return out, nil
}

// validatePruneLinkage checks that no kept statement calls a dropped
// function or reads a dropped global. Initializers with a compile-time
// value are not emitted and are skipped.
func validatePruneLinkage(prog *program.Program, opt *optimizer.Facts, m *program.Merged) error {
	kept := map[*program.Symbol]bool{}
	for _, it := range m.Items {
		if sym := prog.BindingFor(it.Instance, it.Stmt); sym != nil {
			kept[sym] = true
		}
	}

	var errs diag.ErrorList
	reported := map[*program.Symbol]bool{}
	for _, it := range m.Items {
		inst := it.Instance
		if sym := prog.BindingFor(inst, it.Stmt); sym != nil && opt.Inits[sym] {
			continue
		}
		analysis.Walk(opt, inst, it.Stmt, func(n node.Node) {
			id, ok := n.(*node.Ident)
			if !ok {
				return
			}
			sym := prog.BindingFor(inst, id)
			if sym == nil || kept[sym] || reported[sym] {
				return
			}
			switch {
			case sym.Kind == program.Function:
				errs.Add(diag.Internalf(diag.ErrDanglingReference, prog.Position(id.Pos()), id,
					"pruned function %s is still referenced", sym.Name))
			case sym.IsGlobal():
				errs.Add(diag.Internalf(diag.ErrDanglingReference, prog.Position(id.Pos()), id,
					"pruned global %s is still referenced", sym.Name))
			default:
				return
			}
			reported[sym] = true
		})
	}
	return errs.Err()
}
