// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package semcore

import (
	"github.com/gad-lang/semcore/analysis"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
)

// AnalyzedProgram is the result of a compilation and the only view of the
// program a backend gets. Backends read facts through it and never evaluate
// expressions themselves. Nothing in it changes after Compile returns.
type AnalyzedProgram struct {
	// Module is the pruned merged module.
	Module       *program.Merged
	Optimization *optimizer.Facts
	Analysis     *analysis.Facts

	BindingFor  func(inst program.InstanceID, n node.Node) *program.Symbol
	ResolveType func(t *node.Type) *node.Type
	// ConstexprCondition reports the decided value of a condition. A scalar
	// value of x counts as decided too.
	ConstexprCondition func(inst program.InstanceID, x node.Expr) (value bool, ok bool)
	LookupTypeSymbol   func(inst program.InstanceID, name string) *program.Symbol
}

func newAnalyzedProgram(
	prog *program.Program,
	mod *program.Merged,
	opt *optimizer.Facts,
	an *analysis.Facts,
) *AnalyzedProgram {
	return &AnalyzedProgram{
		Module:             mod,
		Optimization:       opt,
		Analysis:           an,
		BindingFor:         prog.BindingFor,
		ResolveType:        prog.ResolveType,
		ConstexprCondition: opt.ConstexprCondition,
		LookupTypeSymbol:   prog.LookupTypeSymbol,
	}
}
