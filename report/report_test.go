package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gad-lang/semcore/analysis"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/report"
	. "github.com/gad-lang/semcore/test_helper"
)

const golden = `# Semcore Analysis Report
Module: demo

## Optimization Summary
- Constexpr expressions: 1,200
- Constexpr inits: 1
- Foldable functions: 1
- Constexpr conditions: 0

## Fold Skip Reasons
- main@0: exported
- tick@1: evaluation-failed-or-runtime-dependent

## Reachable Functions
- main@0
- swap@0
- tick@1

## Reentrancy Variants
- main@0: N
- tick@1: N,R

## Ref Variants
- main@0: <default>
- swap@0: MN, NN

## Variable Mutability
- K@0 -> constexpr
- counter@0 -> mutable

## Used Globals
- K@0
- counter@0

## Used Types
- P
- Q
`

func TestWrite(t *testing.T) {
	var (
		main    = &program.Symbol{Kind: program.Function, Name: "main", Exported: true}
		swap    = &program.Symbol{Kind: program.Function, Name: "swap"}
		tick    = &program.Symbol{Kind: program.Function, Name: "tick", Instance: 1}
		k       = &program.Symbol{Kind: program.Constant, Name: "K"}
		counter = &program.Symbol{Kind: program.Variable, Name: "counter", Mutable: true}
	)

	opt := optimizer.NewFacts()
	for i := 0; i < 1200; i++ {
		opt.Values[optimizer.Key{Instance: program.InstanceID(i)}] = nil
	}
	opt.Inits[k] = true
	opt.Foldable[swap] = true
	opt.SkipReasons[tick] = optimizer.ReasonEvalFailed
	opt.SkipReasons[main] = "exported"

	an := analysis.NewFacts()
	for _, sym := range []*program.Symbol{tick, swap, main} {
		an.Reachable[sym] = true
	}
	an.AddContext(main, analysis.NonReentrant)
	an.AddContext(tick, analysis.Reentrant)
	an.AddContext(tick, analysis.NonReentrant)
	an.RefVariants[main] = map[string]bool{"": true}
	an.RefVariants[swap] = map[string]bool{"NN": true, "MN": true}
	an.Mutability[counter] = analysis.Mutable
	an.Mutability[k] = analysis.Constexpr
	an.UsedGlobals[counter] = true
	an.UsedGlobals[k] = true
	an.UsedTypes["Q"] = true
	an.UsedTypes["P"] = true

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, &program.Merged{Name: "demo"}, opt, an))
	require.Empty(t, report.Diff(golden, buf.String()))

	// output does not depend on map order
	for i := 0; i < 5; i++ {
		var again bytes.Buffer
		require.NoError(t, report.Write(&again, &program.Merged{Name: "demo"}, opt, an))
		require.Equal(t, buf.String(), again.String())
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, nil, nil, nil))
	require.Contains(t, buf.String(), "- Constexpr expressions: 0\n")
	require.Contains(t, buf.String(), "\n## Used Types\n")
	require.NotContains(t, buf.String(), "Module:")
}

func TestTree(t *testing.T) {
	mod := &program.Merged{Name: "demo", Items: []program.Item{
		{Instance: 0, Stmt: Fn("main", nil, nil, Block()).Decl()},
		{Instance: 0, Stmt: Var("counter", I32, I(0))},
		{Instance: 1, Stmt: TypeDecl("P", Field("x", I32))},
		{Instance: 1, Stmt: Do(Call("main"))},
	}}
	out := report.Tree(mod)
	require.Contains(t, out, "demo\n")
	require.Contains(t, out, "instance 0")
	require.Contains(t, out, "instance 1")
	require.Contains(t, out, "[func]")
	require.Contains(t, out, "main")
	require.Contains(t, out, "[var]")
	require.Contains(t, out, "counter")
	require.Contains(t, out, "[type]")
	require.Contains(t, out, "[stmt]")
	require.Empty(t, report.Tree(nil))
}

func TestDiff(t *testing.T) {
	require.Empty(t, report.Diff("a\nb\n", "a\nb\n"))
	d := report.Diff("a\nb\n", "a\nc\n")
	require.Contains(t, d, "--- want")
	require.Contains(t, d, "+++ got")
	require.Contains(t, d, "-b")
	require.Contains(t, d, "+c")
}
