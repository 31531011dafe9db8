// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package semcore

import (
	"github.com/gad-lang/semcore/analysis"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/report"
)

// Compile optimizes prog to a fixpoint, analyzes the converged tree and
// assembles the pruned module. prog is rewritten in place.
func Compile(prog *program.Program, opts Options) (*AnalyzedProgram, error) {
	p := opts.printer()
	defer p.Leave(p.Enter("compile"))

	opt, err := fixpoint(prog, opts, p, optimizer.NewResidualizer(prog, nil, opts.residualizeOptions(p)))
	if err != nil {
		return nil, err
	}

	an, err := analysis.New(prog, opt, analysis.Options{
		Config: opts.Reentrancy,
		Trace:  p,
	}).Analyze()
	if err != nil {
		return nil, err
	}

	mod, err := Assemble(prog, opt, an)
	if err != nil {
		return nil, err
	}

	if p.Enabled() {
		p.Println(report.Tree(mod))
	}
	if opts.Report != nil {
		if err := report.Write(opts.Report, mod, opt, an); err != nil {
			return nil, err
		}
	}
	return newAnalyzedProgram(prog, mod, opt, an), nil
}
