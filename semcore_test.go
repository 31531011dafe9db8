package semcore_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gad-lang/semcore"
	"github.com/gad-lang/semcore/analysis"
	"github.com/gad-lang/semcore/diag"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
	. "github.com/gad-lang/semcore/test_helper"
	"github.com/gad-lang/semcore/token"
)

func compile(t *testing.T, prog *program.Program) *semcore.AnalyzedProgram {
	t.Helper()
	ap, err := semcore.Compile(prog, semcore.DefaultOptions())
	require.NoError(t, err)
	return ap
}

func labels(l []*program.Symbol) []string {
	out := make([]string, len(l))
	for i, sym := range l {
		out[i] = sym.Label()
	}
	return out
}

// declared returns the names of the declarations left in mod.
func declared(mod *program.Merged) map[string]bool {
	out := map[string]bool{}
	for _, it := range mod.Items {
		if d, ok := it.Stmt.(node.Decl); ok {
			out[d.DeclName().Name] = true
		}
	}
	return out
}

// pruned rebuilds a program from the statements kept in mod.
func pruned(prog *program.Program, mod *program.Merged) *program.Program {
	out := program.New(prog.Name)
	out.Bindings = prog.Bindings
	out.Aliases = prog.Aliases
	for _, in := range prog.Instances {
		m := &program.Module{Name: in.Module.Name, Path: in.Module.Path}
		for _, it := range mod.Items {
			if it.Instance == in.ID {
				m.Stmts = append(m.Stmts, it.Stmt)
			}
		}
		out.Modules = append(out.Modules, m)
		out.Instances = append(out.Instances, &program.Instance{ID: in.ID, Module: m, Symbols: in.Symbols})
	}
	return out
}

func TestCompileConstantGlobal(t *testing.T) {
	prog := Single(
		Exported(Let("X", I32, Bin(I(2), token.Add, I(3)))),
		Fn("get", nil, I32, Block(Ret(Id("X")))).Export(),
	)
	ap := compile(t, prog)

	x := prog.Instances[0].Lookup("X")
	require.True(t, ap.Optimization.Inits[x])
	lit, ok := x.Init().(*node.IntLit)
	require.True(t, ok)
	require.Equal(t, int64(5), lit.Value)
	require.Equal(t, analysis.Constexpr, ap.Analysis.Mutability[x])
	require.True(t, declared(ap.Module)["X"])
}

func TestCompileDropsDeadCode(t *testing.T) {
	prog := Single(
		Fn("helper", nil, I32, Block(Ret(I(1)))),
		Fn("dead", nil, I32, Block(Ret(Call("helper")))),
		Var("unused", I32, I(0)),
		TypeDecl("Unused", Field("x", I32)),
		Extern("now", nil, I32),
		Fn("main", nil, I32, Block(Ret(Call("now")))).Export(),
	)
	ap := compile(t, prog)

	require.Equal(t, []string{"main@0", "now@0"}, labels(ap.Analysis.ReachableFunctions()))
	d := declared(ap.Module)
	require.True(t, d["main"])
	require.True(t, d["now"])
	for _, name := range []string{"helper", "dead", "unused", "Unused"} {
		require.False(t, d[name], name)
	}
}

func TestCompileReentrancyVariants(t *testing.T) {
	prog := Single(
		Extern("tick", nil, nil).Ann(analysis.AnnotReentrant),
		Fn("work", nil, nil, Block(Do(Call("tick")))),
		Fn("isr", nil, nil, Block(Do(Call("work")))).Export().Ann(analysis.AnnotReentrant),
		Fn("main", nil, nil, Block(Do(Call("work")))).Export(),
	)
	ap := compile(t, prog)

	work := prog.Instances[0].Lookup("work")
	require.Equal(t, []analysis.Context{analysis.NonReentrant, analysis.Reentrant}, ap.Analysis.Contexts(work))
}

func TestPruningIsSafe(t *testing.T) {
	prog := Single(
		Extern("read", nil, I32),
		Var("state", I32, Call("read")),
		Let("K", I32, I(4)),
		Fn("step", Params(P("x", I32)), I32, Block(Ret(Bin(Id("x"), token.Add, Id("state"))))),
		Fn("loop", nil, I32, Block(
			If(Bin(Id("K"), token.Greater, I(8)), Ret(Call("unused"))),
			Ret(Call("step", Call("read"))),
		)).Export(),
		Fn("unused", nil, I32, Block(Ret(I(0)))),
	)
	ap := compile(t, prog)
	require.False(t, declared(ap.Module)["unused"])

	again, err := analysis.New(pruned(prog, ap.Module), ap.Optimization,
		analysis.Options{Config: analysis.DefaultConfig()}).Analyze()
	require.NoError(t, err)
	require.Equal(t, labels(ap.Analysis.ReachableFunctions()), labels(again.ReachableFunctions()))
}

func TestReachabilityIsMonotonic(t *testing.T) {
	build := func(extra bool) *program.Program {
		stmts := []node.Stmt{
			Extern("io", nil, I32),
			Fn("leaf", nil, I32, Block(Ret(Call("io")))),
			Fn("main", nil, I32, Block(Ret(Call("leaf")))).Export().Decl(),
		}
		if extra {
			stmts = append(stmts, Fn("orphan", nil, I32, Block(Ret(Call("leaf")))).Decl())
		}
		return Single(stmts...)
	}
	with := compile(t, build(true))
	without := compile(t, build(false))
	require.Equal(t, labels(without.Analysis.ReachableFunctions()), labels(with.Analysis.ReachableFunctions()))
}

type flipper struct{ n int }

func (f *flipper) Rewrite(*program.Program, *optimizer.Facts) (bool, error) {
	f.n++
	return true, nil
}

type failing struct{}

func (failing) Rewrite(*program.Program, *optimizer.Facts) (bool, error) {
	return false, errors.New("rewrite failed")
}

func TestFixpointCeiling(t *testing.T) {
	prog := Single(Fn("main", nil, I32, Block(Ret(I(1)))).Export())

	opts := semcore.DefaultOptions()
	opts.ResidualizeMaxCycle = 3
	rw := &flipper{}
	_, err := semcore.OptimizeWith(prog, opts, rw)
	require.Error(t, err)
	require.True(t, errors.Is(err, diag.ErrNotConverged))
	require.Equal(t, "Internal Error: residualization did not converge", err.Error())
	require.Equal(t, 3, rw.n)

	_, err = semcore.OptimizeWith(prog, opts, failing{})
	require.EqualError(t, err, "rewrite failed")
}

func TestOptimizeConverges(t *testing.T) {
	prog := Single(
		Let("A", I32, Bin(I(6), token.Mul, I(7))),
		Fn("main", nil, I32, Block(Ret(Cond(Bin(Id("A"), token.Equal, I(42)), I(1), I(2))))).Export(),
	)
	facts, err := semcore.Optimize(prog, semcore.DefaultOptions())
	require.NoError(t, err)

	main := prog.Instances[0].Lookup("main")
	require.Equal(t, "{return 1}", main.Body().String())
	require.True(t, facts.Inits[prog.Instances[0].Lookup("A")])

	// a second run finds nothing to rewrite
	again, err := semcore.Optimize(prog, semcore.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "{return 1}", main.Body().String())
	require.Equal(t, len(facts.Inits), len(again.Inits))
}

func TestAssembleMissingBinding(t *testing.T) {
	prog := Single(Fn("main", nil, I32, Block(Ret(I(1)))).Export())
	prog.Modules[0].Stmts = append(prog.Modules[0].Stmts, Let("ghost", I32, I(1)))

	_, err := semcore.Assemble(prog, nil, analysis.NewFacts())
	require.Error(t, err)
	require.True(t, errors.Is(err, diag.ErrMissingBinding))
	require.Contains(t, err.Error(), "missing symbol binding for declaration ghost")
}

func TestAssembleDanglingReference(t *testing.T) {
	prog := Single(
		Var("G", I32, I(0)),
		Fn("helper", nil, I32, Block(Ret(Id("G")))),
		Fn("main", nil, I32, Block(Ret(Call("helper")))).Export(),
	)
	an := analysis.NewFacts()
	an.Reachable[prog.Instances[0].Lookup("main")] = true

	_, err := semcore.Assemble(prog, nil, an)
	require.Error(t, err)
	require.True(t, errors.Is(err, diag.ErrDanglingReference))
	require.Contains(t, err.Error(), "pruned function helper is still referenced")

	an.Reachable[prog.Instances[0].Lookup("helper")] = true
	_, err = semcore.Assemble(prog, nil, an)
	require.Error(t, err)
	require.Contains(t, err.Error(), "pruned global G is still referenced")

	an.UsedGlobals[prog.Instances[0].Lookup("G")] = true
	mod, err := semcore.Assemble(prog, nil, an)
	require.NoError(t, err)
	require.Len(t, mod.Items, 3)
}

func TestAnalyzedProgramQueries(t *testing.T) {
	flag := Let("DEBUG", Bl, B(false))
	cond := Bin(Id("x"), token.Greater, I(0))
	prog := Single(
		flag,
		TypeDecl("R", Field("x", I32)),
		Fn("main", Params(P("x", I32), P("h", node.Named("Handle"))), I32, Block(
			If(cond, Ret(I(1))),
			Ret(I(0)),
		)).Export(),
	)
	prog.Aliases["Handle"] = node.Named("R")
	ap := compile(t, prog)

	v, ok := ap.ConstexprCondition(0, flag.Init)
	require.True(t, ok)
	require.False(t, v)
	_, ok = ap.ConstexprCondition(1, flag.Init)
	require.False(t, ok)
	_, ok = ap.ConstexprCondition(0, cond)
	require.False(t, ok)

	require.Equal(t, "R", ap.ResolveType(node.Named("Handle")).Name)
	require.Equal(t, prog.Instances[0].Lookup("DEBUG"), ap.BindingFor(0, flag))
	require.NotNil(t, ap.LookupTypeSymbol(0, "R"))
	require.Nil(t, ap.LookupTypeSymbol(0, "DEBUG"))
	require.True(t, ap.Analysis.UsedTypes["R"])
}

func TestCompileReportAndTrace(t *testing.T) {
	prog := Single(
		Extern("now", nil, I32),
		Fn("main", nil, I32, Block(Ret(Call("now")))).Export(),
	)
	var trace, rep bytes.Buffer
	opts := semcore.DefaultOptions()
	opts.Trace = &trace
	opts.Report = &rep
	_, err := semcore.Compile(prog, opts)
	require.NoError(t, err)

	require.Contains(t, rep.String(), "# Semcore Analysis Report\nModule: main\n")
	require.Contains(t, rep.String(), "## Reachable Functions\n- main@0\n- now@0\n")
	require.Contains(t, trace.String(), "compile {")
	require.Contains(t, trace.String(), "fixpoint {")
	require.Contains(t, trace.String(), "<recorded ")
	require.Contains(t, trace.String(), "analyzer {")
	require.Contains(t, trace.String(), "instance 0")
}

func TestCompileReentrancyConfigError(t *testing.T) {
	prog := Single(Fn("main", nil, nil, Block()).Export())
	opts := semcore.DefaultOptions()
	opts.Reentrancy = analysis.Config{}
	_, err := semcore.Compile(prog, opts)
	require.Error(t, err)
	require.True(t, errors.Is(err, diag.ErrInvalidBoundary))
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv(semcore.EnvTrace, "1")
	t.Setenv(semcore.EnvResidualizeMaxCycle, "7")
	t.Setenv(semcore.EnvMaxEvalSteps, "500")
	t.Setenv(semcore.EnvUnrollGrowth, "3")

	opts := semcore.DefaultOptions().FromEnv()
	require.NotNil(t, opts.Trace)
	require.Equal(t, 7, opts.ResidualizeMaxCycle)
	require.Equal(t, 500, opts.MaxEvalSteps)
	require.Equal(t, 3, opts.UnrollGrowthFactor)
	require.Equal(t, semcore.DefaultOptions().OptimizerMaxCycle, opts.OptimizerMaxCycle)

	var buf bytes.Buffer
	opts = semcore.Options{Trace: &buf}.FromEnv()
	require.Same(t, &buf, opts.Trace)
}

func TestCompileKeepsNestedDefinitions(t *testing.T) {
	prog := Single(
		Extern("sink", Params(P("v", I32)), nil),
		Fn("f", Params(P("p", I32)), I32, Block(
			Do(Call("sink", Bin(Define("x", I(5)), token.Add, I(1)))),
			Ret(Bin(Id("x"), token.Add, Id("p"))),
		)).Export(),
	)
	compile(t, prog)
	require.Equal(t, "{sink((x := 5 + 1)); return (x + p)}", prog.Instances[0].Lookup("f").Body().String())
}
