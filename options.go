// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package semcore

import (
	"io"
	"os"

	"github.com/xyproto/env/v2"

	"github.com/gad-lang/semcore/analysis"
	"github.com/gad-lang/semcore/cte"
	"github.com/gad-lang/semcore/internal/trace"
	"github.com/gad-lang/semcore/optimizer"
)

// Environment variables read by Options.FromEnv.
const (
	EnvTrace               = "SEMCORE_TRACE"
	EnvOptimizerMaxCycle   = "SEMCORE_OPTIMIZER_MAX_CYCLE"
	EnvResidualizeMaxCycle = "SEMCORE_RESIDUALIZE_MAX_CYCLE"
	EnvMaxEvalSteps        = "SEMCORE_MAX_EVAL_STEPS"
	EnvUnrollGrowth        = "SEMCORE_UNROLL_GROWTH"
)

type (
	// Options represents customizable options for Compile().
	Options struct {
		// Trace receives the optimizer, residualizer and analyzer trace.
		Trace io.Writer
		// Report receives the analysis report of a successful compilation.
		Report              io.Writer
		OptimizerMaxCycle   int
		ResidualizeMaxCycle int
		MaxEvalSteps        int
		UnrollGrowthFactor  int
		Reentrancy          analysis.Config
	}
)

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		OptimizerMaxCycle:   optimizer.DefaultOptions().MaxCycle,
		ResidualizeMaxCycle: 64,
		MaxEvalSteps:        cte.DefaultLimits().MaxSteps,
		UnrollGrowthFactor:  1,
		Reentrancy:          analysis.DefaultConfig(),
	}
}

// FromEnv returns a copy of o with the SEMCORE_* environment overrides
// applied. SEMCORE_TRACE=1 traces to stderr unless a trace writer is set.
func (o Options) FromEnv() Options {
	if env.Bool(EnvTrace) && o.Trace == nil {
		o.Trace = os.Stderr
	}
	o.OptimizerMaxCycle = env.Int(EnvOptimizerMaxCycle, o.OptimizerMaxCycle)
	o.ResidualizeMaxCycle = env.Int(EnvResidualizeMaxCycle, o.ResidualizeMaxCycle)
	o.MaxEvalSteps = env.Int(EnvMaxEvalSteps, o.MaxEvalSteps)
	o.UnrollGrowthFactor = env.Int(EnvUnrollGrowth, o.UnrollGrowthFactor)
	return o
}

func (o Options) printer() *trace.Printer {
	return trace.New(o.Trace)
}

func (o Options) optimizerOptions(p *trace.Printer) optimizer.Options {
	limits := cte.DefaultLimits()
	if o.MaxEvalSteps > 0 {
		limits.MaxSteps = o.MaxEvalSteps
	}
	return optimizer.Options{
		MaxCycle: o.OptimizerMaxCycle,
		Limits:   limits,
		Trace:    p,
	}
}

func (o Options) residualizeOptions(p *trace.Printer) optimizer.ResidualizeOptions {
	return optimizer.ResidualizeOptions{
		UnrollGrowthFactor: o.UnrollGrowthFactor,
		Trace:              p,
	}
}
