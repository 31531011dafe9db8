package cte_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gad-lang/semcore/cte"
	"github.com/gad-lang/semcore/ctv"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
	. "github.com/gad-lang/semcore/test_helper"
	"github.com/gad-lang/semcore/token"
)

type facts struct {
	foldable bool
	consts   map[string]ctv.Value
}

func (f facts) ConstValue(sym *program.Symbol) (ctv.Value, bool) {
	v, ok := f.consts[sym.Name]
	return v, ok
}

func (f facts) IsFoldable(*program.Symbol) bool { return f.foldable }

var pure = facts{foldable: true}

func evalInit(t *testing.T, prog *program.Program, f cte.Facts, name string) (ctv.Value, *cte.Evaluator) {
	t.Helper()
	sym := prog.Instances[0].Lookup(name)
	require.NotNil(t, sym, name)
	ev := cte.New(prog, f, cte.DefaultLimits())
	v, ok := ev.Evaluate(0, sym.Init())
	if !ok {
		return nil, ev
	}
	return v, ev
}

func expectValue(t *testing.T, want ctv.Value, stmts ...node.Stmt) {
	t.Helper()
	prog := Single(stmts...)
	v, ev := evalInit(t, prog, pure, "r")
	require.NotNil(t, v, ev.Reason())
	require.True(t, ctv.Equal(want, v), "want %s, got %s", want, v)
}

func expectFail(t *testing.T, reason string, stmts ...node.Stmt) {
	t.Helper()
	prog := Single(stmts...)
	v, ev := evalInit(t, prog, pure, "r")
	require.Nil(t, v)
	require.Contains(t, ev.Reason(), reason)
}

func TestArithmetic(t *testing.T) {
	expectValue(t, ctv.MakeInt(5, 32), Let("r", I32, Bin(I(2), token.Add, I(3))))
	expectValue(t, ctv.MakeInt(-128, 8), Let("r", I8, Bin(Int(127, 8), token.Add, Int(1, 8))))
	expectValue(t, ctv.MakeUint(4, 8), Let("r", U8, Bin(U(250, 8), token.Add, U(10, 8))))
	expectValue(t, ctv.MakeInt(-2, 32), Let("r", I32, Bin(I(-7), token.Quo, I(3))))
	expectValue(t, ctv.MakeInt(64, 32), Let("r", I32, Bin(I(1), token.Shl, I(6))))
	expectValue(t, ctv.MakeInt(3, 32), Let("r", I32, Cast(F(3.9), I32)))
	expectValue(t, ctv.MakeFloat(1.5, 64), Let("r", F64, Bin(F(3), token.Quo, F(2))))
	expectValue(t, ctv.String("ab"), Let("r", Strg, Bin(S("a"), token.Add, S("b"))))
	expectValue(t, ctv.Bool(true), Let("r", Bl, Bin(I(2), token.Less, I(3))))
	expectValue(t, ctv.MakeInt(^5, 32), Let("r", I32, Un(token.BitNot, I(5))))
}

func TestDivisionByZero(t *testing.T) {
	expectFail(t, "division by zero", Let("r", I32, Bin(I(1), token.Quo, I(0))))
	expectFail(t, "division by zero", Let("r", F64, Bin(F(1), token.Quo, F(0))))
	// short circuit never evaluates the right operand
	expectValue(t, ctv.Bool(false),
		Let("r", Bl, Bin(B(false), token.LAnd, Bin(Bin(I(1), token.Quo, I(0)), token.Equal, I(1)))))
}

func TestConditional(t *testing.T) {
	expectValue(t, ctv.MakeInt(10, 32), Let("r", I32, Cond(Bin(I(1), token.Greater, I(0)), I(10), I(20))))
	expectValue(t, ctv.MakeInt(20, 32), Let("r", I32, Cond(B(false), I(10), I(20))))
}

func TestGlobals(t *testing.T) {
	expectValue(t, ctv.MakeInt(6, 32),
		Let("a", I32, I(3)),
		Let("r", I32, Bin(Id("a"), token.Mul, I(2))),
	)
	expectFail(t, "runtime global",
		Var("g", I32, I(1)),
		Let("r", I32, Id("g")),
	)
	expectFail(t, "constant dependency cycle",
		Let("a", I32, Id("b")),
		Let("b", I32, Id("a")),
		Let("r", I32, Id("a")),
	)

	prog := Single(
		Let("a", I32, I(3)),
		Let("r", I32, Id("a")),
	)
	v, _ := evalInit(t, prog, facts{consts: map[string]ctv.Value{"a": ctv.MakeInt(9, 32)}}, "r")
	require.Equal(t, ctv.MakeInt(9, 32), v)

	var reads []string
	ev := cte.New(prog, pure, cte.DefaultLimits())
	ev.OnRead = func(sym *program.Symbol) { reads = append(reads, sym.Label()) }
	_, ok := ev.Evaluate(0, prog.Instances[0].Lookup("r").Init())
	require.True(t, ok)
	require.Equal(t, []string{"a@0"}, reads)
}

func TestFoldableCall(t *testing.T) {
	sq := Fn("sq", Params(P("x", I32)), I32, Block(Ret(Bin(Id("x"), token.Mul, Id("x")))))
	prog := Single(sq, Let("r", I32, Call("sq", I(7))))

	v, ev := evalInit(t, prog, pure, "r")
	require.Equal(t, ctv.MakeInt(49, 32), v, ev.Reason())

	v, ev = evalInit(t, prog, facts{}, "r")
	require.Nil(t, v)
	require.Equal(t, "function sq is not foldable", ev.Reason())

	prog = Single(
		Extern("ext", nil, I32),
		Let("r", I32, Call("ext")),
	)
	v, ev = evalInit(t, prog, pure, "r")
	require.Nil(t, v)
	require.Contains(t, ev.Reason(), "external")
}

func TestRecursion(t *testing.T) {
	// fact(n) = n <= 1 ? 1 : n * fact(n - 1)
	fact := Fn("fact", Params(P("n", I64)), I64, Block(Ret(
		Cond(Bin(Id("n"), token.LessEq, Int(1, 64)),
			Int(1, 64),
			Bin(Id("n"), token.Mul, Call("fact", Bin(Id("n"), token.Sub, Int(1, 64))))),
	)))
	expectValue(t, ctv.MakeInt(3628800, 64), fact, Let("r", I64, Call("fact", Int(10, 64))))

	loop := Fn("loop", nil, I64, Block(Ret(Call("loop"))))
	expectFail(t, "recursion depth exceeded", loop, Let("r", I64, Call("loop")))
}

func TestStepLimit(t *testing.T) {
	spin := Fn("spin", nil, I32, Block(
		Do(Repeat(B(true), Block())),
		Ret(I(0)),
	))
	prog := Single(spin, Let("r", I32, Call("spin")))

	limits := cte.DefaultLimits()
	limits.MaxSteps = 100
	ev := cte.New(prog, pure, limits)
	_, ok := ev.Evaluate(0, prog.Instances[0].Lookup("r").Init())
	require.False(t, ok)
	require.Equal(t, "step limit exceeded", ev.Reason())

	limits = cte.DefaultLimits()
	limits.MaxLoopIterations = 10
	ev = cte.New(prog, pure, limits)
	_, ok = ev.Evaluate(0, prog.Instances[0].Lookup("r").Init())
	require.False(t, ok)
	require.Contains(t, ev.Reason(), "loop exceeds 10 iterations")
}

func TestLoops(t *testing.T) {
	sum := Fn("sum", nil, I32, Block(
		Var("s", I32, I(0)),
		Do(Iter(Range(I(0), I(4)), AssignOp(Id("s"), token.AddAssign, Id("_")))),
		Ret(Id("s")),
	))
	expectValue(t, ctv.MakeInt(6, 32), sum, Let("r", I32, Call("sum")))

	// count up until 5, skipping the body tail on even numbers
	count := Fn("count", nil, I32, Block(
		Var("i", I32, I(0)),
		Var("odd", I32, I(0)),
		Do(Repeat(B(true), Block(
			If(Bin(Id("i"), token.GreaterEq, I(5)), Break()),
			Do(AssignOp(Id("i"), token.AddAssign, I(1))),
			If(Bin(Bin(Id("i"), token.Rem, I(2)), token.Equal, I(0)), Continue()),
			Do(AssignOp(Id("odd"), token.AddAssign, I(1))),
		))),
		Ret(Id("odd")),
	))
	expectValue(t, ctv.MakeInt(3, 32), count, Let("r", I32, Call("count")))

	// a return inside a loop leaves the function
	first := Fn("first", nil, I32, Block(
		Do(Iter(Range(I(10), I(0)), Block(If(B(true), Ret(Id("_")))))),
		Ret(I(-1)),
	))
	expectValue(t, ctv.MakeInt(10, 32), first, Let("r", I32, Call("first")))

	expectFail(t, "empty range", Let("r", nil, Range(I(1), I(1))))
}

func TestSortedIteration(t *testing.T) {
	it := Iter(List(I(3), I(1), I(2)), nil)
	it.Sorted = true
	last := Fn("last", nil, I32, Block(
		Var("l", I32, I(0)),
		Var("n", I32, I(0)),
		Do(it),
		Ret(Id("l")),
	))
	it.Body = Block(
		Do(Assign(Id("l"), Bin(Bin(Id("l"), token.Mul, I(10)), token.Add, Id("_")))),
		Do(AssignOp(Id("n"), token.AddAssign, I(1))),
	)
	expectValue(t, ctv.MakeInt(123, 32), last, Let("r", I32, Call("last")))
}

func TestLengthFallback(t *testing.T) {
	ln := Len(Id("a"))
	prog := Single(Fn("n", Params(P("a", Arr(U8, 4))), I64, Block(Ret(ln))))
	ev := cte.New(prog, pure, cte.DefaultLimits())
	v, ok := ev.Evaluate(0, ln)
	require.True(t, ok, ev.Reason())
	require.Equal(t, ctv.MakeInt(4, 64), v)

	expectValue(t, ctv.MakeInt(3, 64), Let("r", I64, Len(S("abc"))))
}

func TestAggregates(t *testing.T) {
	point := TypeDecl("P", Field("x", I32), Field("y", I32))
	mk := Fn("mk", nil, node.Named("P"), Block(
		Var("p", node.Named("P"), nil),
		Do(Assign(Sel(Id("p"), "x"), I(1))),
		Do(Assign(Sel(Id("p"), "y"), I(2))),
		Ret(Id("p")),
	))
	want := &ctv.Struct{Name: "P", Fields: []ctv.Field{
		{Name: "x", Value: ctv.MakeInt(1, 32)},
		{Name: "y", Value: ctv.MakeInt(2, 32)},
	}}
	expectValue(t, want, point, mk, Let("r", node.Named("P"), Call("mk")))
	expectValue(t, want, TypeDecl("P", Field("x", I32), Field("y", I32)),
		Let("r", node.Named("P"), Call("P", I(1), I(2))))

	half := Fn("half", nil, node.Named("P"), Block(
		Var("p", node.Named("P"), nil),
		Do(Assign(Sel(Id("p"), "x"), I(1))),
		Ret(Id("p")),
	))
	expectFail(t, "not fully initialized", TypeDecl("P", Field("x", I32), Field("y", I32)), half,
		Let("r", node.Named("P"), Call("half")))

	arr := Fn("arr", nil, I32, Block(
		Var("a", Arr(I32, 3), nil),
		Do(Assign(Index(Id("a"), I(1)), I(9))),
		Ret(Index(Id("a"), I(1))),
	))
	expectValue(t, ctv.MakeInt(9, 32), arr, Let("r", I32, Call("arr")))

	expectFail(t, "out of bounds", Let("r", I32, Index(List(I(1), I(2)), I(2))))
	expectValue(t, ctv.MakeInt(2, 32), Let("r", I32, Sel(Tuple(I(1), I(2)), "__1")))
}

func TestOnValueTopLevelOnly(t *testing.T) {
	sq := Fn("sq", Params(P("x", I32)), I32, Block(Ret(Bin(Id("x"), token.Mul, Id("x")))))
	root := Bin(Call("sq", I(3)), token.Add, I(1))
	prog := Single(sq, Let("r", I32, root))

	inside := map[node.Node]bool{}
	node.Inspect(root, func(n node.Node) bool {
		inside[n] = true
		return true
	})

	seen := map[node.Node]ctv.Value{}
	ev := cte.New(prog, pure, cte.DefaultLimits())
	ev.OnValue = func(_ program.InstanceID, e node.Expr, v ctv.Value) {
		require.True(t, inside[e], "%s reported outside the root", e)
		seen[e] = v
	}
	v, ok := ev.Evaluate(0, root)
	require.True(t, ok)
	require.Equal(t, ctv.MakeInt(10, 32), v)
	require.Len(t, seen, 4)
	require.Equal(t, ctv.MakeInt(9, 32), seen[root.LHS])
}

func TestMultipleInstances(t *testing.T) {
	b := NewProgram("main")
	b.Module("lib", Let("k", I32, I(4)), Let("r", I32, Bin(Id("k"), token.Mul, Id("n"))))
	b.Module("num", Let("n", I32, I(2)))
	two := b.Instance("num")
	b.Module("num3", Let("n", I32, I(3)))
	three := b.Instance("num3")
	a := b.Instance("lib", Alias{Name: "n", From: two, Target: "n"})
	c := b.Instance("lib", Alias{Name: "n", From: three, Target: "n"})
	prog := b.Program()

	r := prog.Instance(a).Lookup("r").Init()
	ev := cte.New(prog, pure, cte.DefaultLimits())
	v, ok := ev.Evaluate(a, r)
	require.True(t, ok)
	require.Equal(t, ctv.MakeInt(8, 32), v)
	v, ok = ev.Evaluate(c, r)
	require.True(t, ok)
	require.Equal(t, ctv.MakeInt(12, 32), v)
}

func TestEvaluateBodyAndInit(t *testing.T) {
	prog := Single(
		Fn("five", nil, I32, Block(Ret(Bin(I(2), token.Add, I(3))))),
		Fn("id", Params(P("x", I32)), I32, Block(Ret(Id("x")))),
		Let("w", I8, Bin(Int(100, 8), token.Add, Int(100, 8))),
		Let("self", I32, Bin(Id("self"), token.Add, I(1))),
	)
	in := prog.Instances[0]
	ev := cte.New(prog, pure, cte.DefaultLimits())

	var reported int
	ev.OnValue = func(program.InstanceID, node.Expr, ctv.Value) { reported++ }
	v, ok := ev.EvaluateBody(in.Lookup("five"))
	require.True(t, ok, ev.Reason())
	require.Equal(t, ctv.MakeInt(5, 32), v)
	require.Equal(t, 3, reported)

	_, ok = ev.EvaluateBody(in.Lookup("id"))
	require.False(t, ok)
	require.Equal(t, "x is a runtime value", ev.Reason())

	reported = 0
	v, ok = ev.EvaluateInit(in.Lookup("w"))
	require.True(t, ok)
	require.Equal(t, ctv.MakeInt(-56, 8), v)
	require.Zero(t, reported)

	_, ok = ev.EvaluateInit(in.Lookup("self"))
	require.False(t, ok)
	require.Equal(t, "constant dependency cycle at self", ev.Reason())
}
