package analysis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gad-lang/semcore/analysis"
	"github.com/gad-lang/semcore/diag"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
	. "github.com/gad-lang/semcore/test_helper"
	"github.com/gad-lang/semcore/token"
)

func analyze(t *testing.T, prog *program.Program, cfg analysis.Config) (*analysis.Facts, error) {
	t.Helper()
	opt, err := optimizer.New(prog, optimizer.DefaultOptions()).Optimize()
	require.NoError(t, err)
	return analysis.New(prog, opt, analysis.Options{Config: cfg}).Analyze()
}

func mustAnalyze(t *testing.T, prog *program.Program) *analysis.Facts {
	t.Helper()
	f, err := analyze(t, prog, analysis.DefaultConfig())
	require.NoError(t, err)
	return f
}

func labels(l []*program.Symbol) []string {
	out := make([]string, len(l))
	for i, sym := range l {
		out[i] = sym.Label()
	}
	return out
}

func recv(l ...node.Expr) []node.Expr { return l }

func TestReachability(t *testing.T) {
	prog := Single(
		Extern("rand", nil, I32),
		Fn("sq", Params(P("x", I32)), I32, Block(Ret(Bin(Id("x"), token.Mul, Id("x"))))),
		Let("S", I32, Call("sq", I(3))),
		Var("seed", I32, Call("rand")),
		Fn("boot", nil, nil, Block(Do(Call("rand")))),
		Do(Call("boot")),
		Fn("helper", nil, I32, Block(Ret(I(1)))),
		Fn("dead", nil, I32, Block(Ret(Call("helper")))),
		Fn("gone", nil, I32, Block(Ret(I(2)))),
		Fn("leaf", nil, I32, Block(Ret(I(3)))),
		Fn("main", Params(P("x", I32)), I32, Block(
			If(B(false), Ret(Call("gone"))),
			Ret(Cond(Bin(I(1), token.Less, I(2)), Call("leaf"), Call("gone"))),
		)).Export(),
	)
	f := mustAnalyze(t, prog)
	require.Equal(t, []string{"boot@0", "leaf@0", "main@0", "rand@0"}, labels(f.ReachableFunctions()))
}

func TestReentrancyVariants(t *testing.T) {
	build := func() *program.Program {
		return Single(
			Extern("tick", nil, nil).Ann(analysis.AnnotReentrant),
			Fn("work", nil, nil, Block(Do(Call("tick")))),
			Fn("a", nil, nil, Block(Do(Call("work")))).Export().Ann(analysis.AnnotReentrant),
			Fn("b", nil, nil, Block(Do(Call("work")))).Export(),
			Extern("rand", nil, I32),
			Fn("seed", nil, I32, Block(Ret(Call("rand")))),
			Var("S", I32, Call("seed")),
		)
	}
	contexts := func(f *analysis.Facts, prog *program.Program, name string) string {
		var s strings.Builder
		for _, c := range f.Contexts(prog.Instances[0].Lookup(name)) {
			s.WriteString(c.String())
		}
		return s.String()
	}

	prog := build()
	f := mustAnalyze(t, prog)
	require.Equal(t, "NR", contexts(f, prog, "work"))
	require.Equal(t, "NR", contexts(f, prog, "tick"))
	require.Equal(t, "R", contexts(f, prog, "a"))
	require.Equal(t, "N", contexts(f, prog, "b"))
	require.Equal(t, "N", contexts(f, prog, "seed"))

	cfg := analysis.DefaultConfig()
	cfg.BoundaryMode = func(sym *program.Symbol, point analysis.BoundaryPoint) analysis.BoundaryMode {
		if sym.Name == "b" && point == analysis.EntryPoint {
			return analysis.BoundaryReentrant
		}
		return analysis.BoundaryDefault
	}
	prog = build()
	f, err := analyze(t, prog, cfg)
	require.NoError(t, err)
	require.Equal(t, "R", contexts(f, prog, "work"))
	require.Equal(t, "R", contexts(f, prog, "b"))
}

func TestReentrancyErrors(t *testing.T) {
	t.Run("conflicting annotations", func(t *testing.T) {
		prog := Single(Fn("x", nil, nil, Block()).Export().Ann(analysis.AnnotReentrant, analysis.AnnotNonReentrant))
		_, err := analyze(t, prog, analysis.DefaultConfig())
		require.ErrorIs(t, err, diag.ErrInvalidBoundary)
		require.Contains(t, err.Error(), "conflicting annotations reentrant and nonreentrant on entry function x")
	})

	t.Run("reentrant path to non-reentrant external", func(t *testing.T) {
		prog := Single(
			Extern("log", nil, nil),
			Fn("c", nil, nil, Block(Do(Call("log")))).Export().Ann(analysis.AnnotReentrant),
		)
		_, err := analyze(t, prog, analysis.DefaultConfig())
		require.ErrorIs(t, err, diag.ErrInvalidBoundary)
		var ce *diag.ConfigError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, "log@0", ce.Symbol)
		require.Contains(t, err.Error(), "reentrant path through c calls non-reentrant external function log")

		cfg := analysis.DefaultConfig()
		cfg.DefaultExit = analysis.Reentrant
		_, err = analyze(t, prog, cfg)
		require.NoError(t, err)
	})

	t.Run("invalid mode", func(t *testing.T) {
		prog := Single(Fn("b", nil, nil, Block()).Export())
		cfg := analysis.DefaultConfig()
		cfg.BoundaryMode = func(*program.Symbol, analysis.BoundaryPoint) analysis.BoundaryMode {
			return analysis.BoundaryMode(7)
		}
		_, err := analyze(t, prog, cfg)
		require.ErrorIs(t, err, diag.ErrInvalidBoundary)
		var ce *diag.ConfigError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, "b@0", ce.Symbol)
		require.Contains(t, err.Error(), "invalid entry boundary mode mode(7) for b")
	})

	t.Run("unspecified default", func(t *testing.T) {
		prog := Single(Fn("b", nil, nil, Block()).Export())
		_, err := analyze(t, prog, analysis.Config{DefaultExit: analysis.NonReentrant})
		require.ErrorIs(t, err, diag.ErrInvalidBoundary)
		require.Contains(t, err.Error(), "invalid default entry context")
	})
}

func TestMutability(t *testing.T) {
	prog := Single(
		Var("counter", I32, I(0)),
		Var("idle", I32, I(0)),
		Var("hidden", I32, I(0)),
		Let("K", I32, I(1)),
		Fn("bump", nil, nil, Block(Do(AssignOp(Id("c"), token.AddAssign, I(1))))).Recv(P("c", I32)),
		Fn("pass", nil, nil, Block(Do(CallR("bump", recv(Id("d")))))).Recv(P("d", I32)),
		Fn("peek", nil, I32, Block(Ret(Id("e")))).Recv(P("e", I32)),
		Extern("ext", nil, nil).Recv(P("x", I32)),
		Fn("run", nil, I32, Block(
			Do(CallR("pass", recv(Id("counter")))),
			Ret(CallR("peek", recv(Id("idle")))),
		)).Export(),
		Fn("dead", nil, nil, Block(Do(Assign(Id("hidden"), I(1))))),
	)
	f := mustAnalyze(t, prog)
	in := prog.Instances[0]

	require.Equal(t, []bool{true}, f.ReceiverMutates[in.Lookup("bump")])
	require.Equal(t, []bool{true}, f.ReceiverMutates[in.Lookup("pass")])
	require.Equal(t, []bool{false}, f.ReceiverMutates[in.Lookup("peek")])
	require.Equal(t, []bool{true}, f.ReceiverMutates[in.Lookup("ext")])

	require.Equal(t, analysis.Mutable, f.Mutability[in.Lookup("counter")])
	require.Equal(t, analysis.Constexpr, f.Mutability[in.Lookup("idle")])
	require.Equal(t, analysis.Constexpr, f.Mutability[in.Lookup("hidden")])
	require.Equal(t, analysis.Constexpr, f.Mutability[in.Lookup("K")])
	require.Len(t, f.Mutability, 4)
}

func TestRefVariants(t *testing.T) {
	prog := Single(
		Let("K", I32, I(1)),
		Fn("peek", nil, I32, Block(Ret(Id("e")))).Recv(P("e", I32)),
		Fn("swap", nil, nil, Block()).Recv(P("a", I32), P("b", I32)),
		Fn("run", Params(P("x", I32)), I32, Block(
			Var("v", I32, I(0)),
			Do(CallR("peek", recv(Id("v")))),
			Do(CallR("peek", recv(Id("K")))),
			Do(CallR("peek", recv(Id("x")))),
			Do(CallR("peek", recv(Bin(Id("v"), token.Add, I(1))))),
			Do(CallR("swap", recv(Id("v"), Id("x")))),
			Ret(I(0)),
		)).Export(),
		Fn("unused", nil, nil, Block(Do(CallR("swap", recv(Id("K"), Id("K")))))),
	)
	f := mustAnalyze(t, prog)
	in := prog.Instances[0]
	require.Equal(t, []string{"M", "N"}, f.Variants(in.Lookup("peek")))
	require.Equal(t, []string{"MN"}, f.Variants(in.Lookup("swap")))
}

func TestUsage(t *testing.T) {
	prog := Single(
		Let("N", I32, I(3)),
		Let("M", I32, I(2)),
		Let("Base", I32, I(10)),
		Let("Derived", I32, Bin(Id("Base"), token.Add, I(1))),
		Exported(Let("Pub", I32, I(1))),
		Let("Hidden", I32, I(2)),
		Let("Pruned", I32, I(4)),
		TypeDecl("Q", Field("v", node.ArrayOf(I32, Id("M")))),
		TypeDecl("P", Field("q", node.Named("Q"))),
		TypeDecl("R", Field("v", I32)),
		TypeDecl("U", Field("v", I32)),
		Fn("get", Params(P("p", node.Named("P")), P("h", node.Named("Handle"))), I32, Block(
			Var("buf", node.ArrayOf(I32, Id("N")), nil),
			Ret(Cond(B(true), Id("Derived"), Id("Pruned"))),
		)).Export(),
		Fn("dead", nil, I32, Block(Ret(Id("Hidden")))),
	)
	prog.Aliases["Handle"] = node.Named("R")

	f := mustAnalyze(t, prog)
	require.Equal(t, []string{"Base@0", "Derived@0", "M@0", "N@0", "Pub@0"}, labels(f.Globals()))
	require.Equal(t, []string{"Handle", "P", "Q", "R"}, f.Types())
}

func TestLoadConfig(t *testing.T) {
	cfg, err := analysis.LoadConfig(strings.NewReader(`
entry: R
exit: N
boundaries:
  - {symbol: b, point: entry, mode: nonreentrant}
  - {symbol: log@0, point: exit, mode: reentrant}
  - {symbol: log, point: exit, mode: nonreentrant}
`))
	require.NoError(t, err)
	require.Equal(t, analysis.Reentrant, cfg.DefaultEntry)
	require.Equal(t, analysis.NonReentrant, cfg.DefaultExit)

	b := &program.Symbol{Kind: program.Function, Name: "b"}
	log0 := &program.Symbol{Kind: program.Function, Name: "log"}
	log1 := &program.Symbol{Kind: program.Function, Name: "log", Instance: 1}
	require.Equal(t, analysis.BoundaryNonReentrant, cfg.Mode(b, analysis.EntryPoint))
	require.Equal(t, analysis.BoundaryDefault, cfg.Mode(b, analysis.ExitPoint))
	require.Equal(t, analysis.BoundaryReentrant, cfg.Mode(log0, analysis.ExitPoint))
	require.Equal(t, analysis.BoundaryNonReentrant, cfg.Mode(log1, analysis.ExitPoint))

	cfg, err = analysis.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, analysis.DefaultConfig().DefaultEntry, cfg.DefaultEntry)
	require.Nil(t, cfg.BoundaryMode)

	for _, src := range []string{
		"entry: X\n",
		"entries: R\n",
		"boundaries:\n  - {symbol: b, point: middle, mode: default}\n",
		"boundaries:\n  - {symbol: b, point: entry, mode: sometimes}\n",
		"boundaries:\n  - {point: entry, mode: default}\n",
		"boundaries:\n  - {symbol: b, point: entry, mode: reentrant}\n  - {symbol: b, point: entry, mode: nonreentrant}\n",
	} {
		_, err := analysis.LoadConfig(strings.NewReader(src))
		require.ErrorIs(t, err, diag.ErrInvalidBoundary, src)
	}
}

func TestLoadedConfigDrivesAnalysis(t *testing.T) {
	cfg, err := analysis.LoadConfig(strings.NewReader("entry: N\nboundaries:\n  - {symbol: a, point: entry, mode: reentrant}\n"))
	require.NoError(t, err)
	prog := Single(
		Extern("tick", nil, nil).Ann(analysis.AnnotReentrant),
		Fn("a", nil, nil, Block(Do(Call("tick")))).Export(),
	)
	f, err := analyze(t, prog, cfg)
	require.NoError(t, err)
	require.Equal(t, []analysis.Context{analysis.Reentrant}, f.Contexts(prog.Instances[0].Lookup("a")))
}

func TestReentrancyThroughFoldableFunctions(t *testing.T) {
	prog := Single(
		Fn("h", Params(P("y", I32)), I32, Block(Ret(Bin(Id("y"), token.Mul, I(2))))),
		Fn("g", Params(P("x", I32)), I32, Block(Ret(Call("h", Id("x"))))),
		Fn("a", Params(P("p", I32)), I32, Block(Ret(Call("g", Id("p"))))).Export().Ann(analysis.AnnotReentrant),
	)
	in := prog.Instances[0]
	opt, err := optimizer.New(prog, optimizer.DefaultOptions()).Optimize()
	require.NoError(t, err)
	require.True(t, opt.IsFoldable(in.Lookup("g")))
	require.True(t, opt.IsFoldable(in.Lookup("h")))

	f, err := analysis.New(prog, opt, analysis.Options{Config: analysis.DefaultConfig()}).Analyze()
	require.NoError(t, err)
	require.Equal(t, []analysis.Context{analysis.Reentrant}, f.Contexts(in.Lookup("g")))
	require.Equal(t, []analysis.Context{analysis.Reentrant}, f.Contexts(in.Lookup("h")))
}

func TestReentrantPathThroughFoldableFunction(t *testing.T) {
	prog := Single(
		Extern("log", Params(P("v", I32)), nil),
		Fn("twice", Params(P("x", I32)), I32, Block(Ret(Bin(Id("x"), token.Mul, I(2))))),
		Fn("report", Params(P("v", I32)), nil, Block(Do(Call("log", Call("twice", Id("v")))))),
		Fn("isr", Params(P("p", I32)), I32, Block(Ret(Call("twice", Id("p"))))).Export().Ann(analysis.AnnotReentrant),
		Fn("main", Params(P("p", I32)), nil, Block(Do(Call("report", Id("p"))))).Export(),
	)
	f := mustAnalyze(t, prog)
	in := prog.Instances[0]
	require.Equal(t, []analysis.Context{analysis.NonReentrant, analysis.Reentrant}, f.Contexts(in.Lookup("twice")))
	require.Equal(t, []analysis.Context{analysis.NonReentrant}, f.Contexts(in.Lookup("report")))
}

func TestMutabilityIgnoresDeadInitializers(t *testing.T) {
	prog := Single(
		Extern("rand", nil, I32),
		Var("flag", I32, I(0)),
		Var("orphan", I32, Assign(Id("flag"), Call("rand"))),
		Var("seen", I32, I(0)),
		Exported(Var("live", I32, Assign(Id("seen"), Call("rand")))),
		Var("shadow", I32, I(0)),
		Var("relay", I32, Assign(Id("shadow"), Call("rand"))),
		Fn("main", nil, I32, Block(Ret(Id("relay")))).Export(),
	)
	f := mustAnalyze(t, prog)
	in := prog.Instances[0]
	require.Equal(t, analysis.Constexpr, f.Mutability[in.Lookup("flag")])
	require.Equal(t, analysis.Mutable, f.Mutability[in.Lookup("seen")])
	require.Equal(t, analysis.Mutable, f.Mutability[in.Lookup("shadow")])
}
