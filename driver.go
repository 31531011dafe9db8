// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package semcore

import (
	"github.com/dustin/go-humanize"

	"github.com/gad-lang/semcore/diag"
	"github.com/gad-lang/semcore/internal/trace"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/source"
)

// Rewriter rewrites a program with the facts of the last optimizer run and
// reports whether the tree changed.
type Rewriter interface {
	Rewrite(prog *program.Program, facts *optimizer.Facts) (bool, error)
}

// Optimize runs the optimizer and the residualizer until the tree no longer
// changes, then runs the optimizer once more so that the returned facts
// describe the final tree.
func Optimize(prog *program.Program, opts Options) (*optimizer.Facts, error) {
	p := opts.printer()
	return fixpoint(prog, opts, p, optimizer.NewResidualizer(prog, nil, opts.residualizeOptions(p)))
}

// OptimizeWith is like Optimize but rewrites the tree with rw.
func OptimizeWith(prog *program.Program, opts Options, rw Rewriter) (*optimizer.Facts, error) {
	return fixpoint(prog, opts, opts.printer(), rw)
}

func fixpoint(prog *program.Program, opts Options, p *trace.Printer, rw Rewriter) (*optimizer.Facts, error) {
	defer p.Leave(p.Enter("fixpoint"))

	maxCycle := opts.ResidualizeMaxCycle
	if maxCycle <= 0 {
		maxCycle = DefaultOptions().ResidualizeMaxCycle
	}
	o := optimizer.New(prog, opts.optimizerOptions(p))

	for cycle := 1; ; cycle++ {
		if cycle > maxCycle {
			return nil, diag.Internalf(diag.ErrNotConverged, source.FilePos{}, nil,
				"residualization did not converge")
		}
		p.Printf("%d. residualize", cycle)
		facts, err := o.Optimize()
		if err != nil {
			return nil, err
		}
		p.Printf("recorded %s values", humanize.Comma(int64(o.Total())))
		changed, err := rw.Rewrite(prog, facts)
		if err != nil {
			return nil, err
		}
		if !changed {
			break
		}
	}
	return o.Optimize()
}
