// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package cte implements the compile-time evaluator. It interprets the
// expression and statement grammar over compile-time values and never
// mutates the tree: a node either reduces to a complete value or evaluation
// reports that it does not reduce.
package cte

import (
	"fmt"
	"sort"

	"github.com/gad-lang/semcore/ctv"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
)

// Facts is the part of the optimizer state the evaluator may rely on.
type Facts interface {
	// ConstValue returns the promoted value of a global constant.
	ConstValue(sym *program.Symbol) (ctv.Value, bool)
	// IsFoldable reports whether calls to sym may be evaluated.
	IsFoldable(sym *program.Symbol) bool
}

// Limits bounds the work a single evaluation may do.
type Limits struct {
	MaxSteps          int
	MaxDepth          int
	MaxLoopIterations int
	MaxRangeLength    int
}

// DefaultLimits returns the default evaluation bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxSteps:          1_000_000,
		MaxDepth:          1000,
		MaxLoopIterations: 1_000_000,
		MaxRangeLength:    1 << 16,
	}
}

type control int

const (
	ctlNone control = iota
	ctlReturn
	ctlBreak
	ctlContinue
)

type frame map[*program.Symbol]ctv.Value

// Evaluator reduces expressions to compile-time values. It is not safe for
// concurrent use.
type Evaluator struct {
	prog   *program.Program
	facts  Facts
	limits Limits

	// OnValue is called with every node that reduced while evaluating the
	// top-level expression itself (not callee bodies or global initializers).
	OnValue func(inst program.InstanceID, e node.Expr, v ctv.Value)
	// OnRead is called for every global symbol read.
	OnRead func(sym *program.Symbol)

	inst       program.InstanceID
	frames     []frame
	ctl        control
	retVal     ctv.Value
	steps      int
	depth      int
	quiet      int
	exhausted  bool
	reason     string
	cache      map[*program.Symbol]ctv.Value
	inProgress map[*program.Symbol]bool
}

// New creates an Evaluator over prog.
func New(prog *program.Program, facts Facts, limits Limits) *Evaluator {
	return &Evaluator{
		prog:       prog,
		facts:      facts,
		limits:     limits,
		cache:      map[*program.Symbol]ctv.Value{},
		inProgress: map[*program.Symbol]bool{},
	}
}

// Reason returns why the last evaluation did not reduce.
func (e *Evaluator) Reason() string {
	return e.reason
}

func (e *Evaluator) reset(inst program.InstanceID) {
	e.inst = inst
	e.frames = []frame{{}}
	e.ctl = ctlNone
	e.retVal = nil
	e.steps = 0
	e.depth = 0
	e.quiet = 0
	e.exhausted = false
	e.reason = ""
}

// Evaluate tries to reduce x as seen from instance inst.
func (e *Evaluator) Evaluate(inst program.InstanceID, x node.Expr) (ctv.Value, bool) {
	e.reset(inst)
	v, ok := e.eval(x)
	if !ok {
		return nil, false
	}
	if e.ctl != ctlNone {
		return e.fail("control flow escapes expression")
	}
	if !ctv.IsComplete(v) {
		return e.fail("value is not fully initialized")
	}
	return v, true
}

// EvaluateBody reduces the body of function sym as if it were called
// without arguments. Parameter reads do not reduce. Nodes of the body are
// reported to OnValue.
func (e *Evaluator) EvaluateBody(sym *program.Symbol) (ctv.Value, bool) {
	e.reset(sym.Instance)
	fd := sym.FuncDecl()
	if fd == nil || fd.External || fd.Body == nil {
		return e.fail("function %s has no body", sym.Name)
	}
	v, ok := e.eval(fd.Body)
	if !ok {
		return nil, false
	}
	switch e.ctl {
	case ctlReturn:
		v = e.retVal
	case ctlBreak, ctlContinue:
		return e.fail("break or continue outside loop in %s", sym.Name)
	}
	e.ctl = ctlNone
	if fd.Result != nil {
		if v, ok = e.coerce(v, fd.Result); !ok {
			return nil, false
		}
	}
	if !ctv.IsComplete(v) {
		return e.fail("result of %s is not fully initialized", sym.Name)
	}
	return v, true
}

// EvaluateInit reduces the initializer of the global sym and converts it to
// the declared type. Nothing is reported to OnValue and known values of sym
// itself are ignored.
func (e *Evaluator) EvaluateInit(sym *program.Symbol) (ctv.Value, bool) {
	e.reset(sym.Instance)
	init := sym.Init()
	if init == nil {
		return e.fail("%s has no initializer", sym.Name)
	}
	e.inProgress[sym] = true
	e.quiet++
	v, ok := e.value(init)
	if ok {
		v, ok = e.coerce(v, sym.VarDecl().VarType)
	}
	e.quiet--
	delete(e.inProgress, sym)
	if !ok {
		return nil, false
	}
	if !ctv.IsComplete(v) {
		return e.fail("%s is not fully initialized", sym.Name)
	}
	return v, true
}

func (e *Evaluator) fail(format string, args ...any) (ctv.Value, bool) {
	if e.reason == "" {
		e.reason = fmt.Sprintf(format, args...)
	}
	return nil, false
}

func (e *Evaluator) frame() frame {
	return e.frames[len(e.frames)-1]
}

func (e *Evaluator) binding(n node.Node) *program.Symbol {
	return e.prog.BindingFor(e.inst, n)
}

// value evaluates x where a plain value is required: control flow leaving x
// does not reduce.
func (e *Evaluator) value(x node.Expr) (ctv.Value, bool) {
	v, ok := e.eval(x)
	if !ok {
		return nil, false
	}
	if e.ctl != ctlNone {
		return e.fail("control flow inside expression")
	}
	if v == nil {
		return e.fail("uninitialized value")
	}
	return v, true
}

func (e *Evaluator) eval(x node.Expr) (v ctv.Value, ok bool) {
	if x == nil {
		return e.fail("missing expression")
	}
	if e.exhausted {
		return nil, false
	}
	if e.steps++; e.steps > e.limits.MaxSteps {
		e.exhausted = true
		return e.fail("step limit exceeded")
	}

	v, ok = e.evalNode(x)
	if ok && e.quiet == 0 && e.depth == 0 && e.ctl == ctlNone && v != nil && e.OnValue != nil && ctv.IsComplete(v) {
		e.OnValue(e.inst, x, v)
	}
	return
}

func (e *Evaluator) evalNode(x node.Expr) (ctv.Value, bool) {
	switch x := x.(type) {
	case *node.IntLit:
		return e.coerce(ctv.MakeInt(x.Value, 64), x.Type())
	case *node.UintLit:
		return e.coerce(ctv.MakeUint(x.Value, 64), x.Type())
	case *node.FloatLit:
		return e.coerce(ctv.MakeFloat(x.Value, 64), x.Type())
	case *node.BoolLit:
		return ctv.Bool(x.Value), true
	case *node.StringLit:
		return ctv.String(x.Value), true
	case *node.CharLit:
		return ctv.MakeUint(uint64(x.Value), 8), true
	case *node.Ident:
		return e.ident(x)
	case *node.UnaryExpr:
		v, ok := e.value(x.Expr)
		if !ok {
			return nil, false
		}
		return e.unary(x.Token, v)
	case *node.BinaryExpr:
		return e.binaryExpr(x)
	case *node.CallExpr:
		return e.call(x)
	case *node.IndexExpr:
		return e.index(x)
	case *node.SelectorExpr:
		return e.selector(x)
	case *node.ArrayLit:
		out := make(ctv.Array, len(x.Elements))
		for i, el := range x.Elements {
			v, ok := e.value(el)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return e.coerce(out, x.Type())
	case *node.TupleLit:
		out := make(ctv.Tuple, len(x.Elements))
		for i, el := range x.Elements {
			v, ok := e.value(el)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	case *node.BlockExpr:
		return e.block(x)
	case *node.CondExpr:
		c, ok := e.cond(x.Cond)
		if !ok {
			return nil, false
		}
		if c {
			return e.eval(x.True)
		}
		return e.eval(x.False)
	case *node.CastExpr:
		v, ok := e.value(x.Expr)
		if !ok {
			return nil, false
		}
		return e.coerce(v, x.To)
	case *node.AssignExpr:
		return e.assignExpr(x)
	case *node.RangeExpr:
		return e.rangeExpr(x)
	case *node.LengthExpr:
		return e.length(x)
	case *node.IterExpr:
		return e.iterate(x)
	case *node.RepeatExpr:
		return e.repeat(x)
	}
	return e.fail("unsupported expression %s", x)
}

func (e *Evaluator) cond(x node.Expr) (bool, bool) {
	v, ok := e.value(x)
	if !ok {
		return false, false
	}
	b, ok := ctv.Truthy(v)
	if !ok {
		e.fail("condition %s is not a scalar", x)
	}
	return b, ok
}

func (e *Evaluator) ident(x *node.Ident) (ctv.Value, bool) {
	sym := e.binding(x)
	if sym == nil {
		return e.fail("unbound identifier %s", x.Name)
	}
	if v, ok := e.frame()[sym]; ok {
		if v == nil {
			return e.fail("%s is not initialized", x.Name)
		}
		return v, true
	}
	if sym.Local {
		return e.fail("%s is a runtime value", x.Name)
	}
	switch sym.Kind {
	case program.Variable, program.Constant:
		if e.OnRead != nil {
			e.OnRead(sym)
		}
		return e.global(sym)
	}
	return e.fail("%s is not a value", x.Name)
}

func (e *Evaluator) global(sym *program.Symbol) (ctv.Value, bool) {
	if e.facts != nil {
		if v, ok := e.facts.ConstValue(sym); ok {
			return v, true
		}
	}
	if v, ok := e.cache[sym]; ok {
		return v, true
	}
	if sym.Kind != program.Constant || sym.Mutable || sym.External {
		return e.fail("%s is a runtime global", sym.Name)
	}
	init := sym.Init()
	if init == nil {
		return e.fail("%s has no initializer", sym.Name)
	}
	if e.inProgress[sym] {
		return e.fail("constant dependency cycle at %s", sym.Name)
	}

	e.inProgress[sym] = true
	savedInst, savedFrames, savedCtl := e.inst, e.frames, e.ctl
	e.inst, e.frames, e.ctl = sym.Instance, []frame{{}}, ctlNone
	e.quiet++

	v, ok := e.value(init)
	if ok {
		v, ok = e.coerce(v, sym.VarDecl().VarType)
	}

	e.quiet--
	e.inst, e.frames, e.ctl = savedInst, savedFrames, savedCtl
	delete(e.inProgress, sym)

	if !ok {
		return nil, false
	}
	if !ctv.IsComplete(v) {
		return e.fail("%s is not fully initialized", sym.Name)
	}
	e.cache[sym] = v
	return v, true
}

func (e *Evaluator) block(x *node.BlockExpr) (ctv.Value, bool) {
	for _, s := range x.Stmts {
		if !e.exec(s) {
			return nil, false
		}
		if e.ctl != ctlNone {
			return nil, true
		}
	}
	if x.Result != nil {
		return e.eval(x.Result)
	}
	return ctv.Unit, true
}

func (e *Evaluator) exec(s node.Stmt) bool {
	if e.exhausted {
		return false
	}
	switch s := s.(type) {
	case *node.ExprStmt:
		_, ok := e.eval(s.Expr)
		return ok
	case *node.VarDecl:
		sym := e.binding(s)
		if sym == nil {
			_, ok := e.fail("unbound declaration %s", s.Name.Name)
			return ok
		}
		if s.Init == nil {
			v, ok := e.uninitialized(s.VarType)
			if ok {
				e.frame()[sym] = v
			}
			return ok
		}
		v, ok := e.value(s.Init)
		if !ok {
			return false
		}
		if v, ok = e.coerce(v, s.VarType); ok {
			e.frame()[sym] = v
		}
		return ok
	case *node.ReturnStmt:
		var v ctv.Value = ctv.Unit
		if s.Result != nil {
			var ok bool
			if v, ok = e.value(s.Result); !ok {
				return false
			}
		}
		e.retVal = v
		e.ctl = ctlReturn
		return true
	case *node.BreakStmt:
		e.ctl = ctlBreak
		return true
	case *node.ContinueStmt:
		e.ctl = ctlContinue
		return true
	case *node.CondStmt:
		c, ok := e.cond(s.Cond)
		if !ok {
			return false
		}
		if c {
			return e.exec(s.Body)
		}
		return true
	case *node.FuncDecl, *node.TypeDecl, *node.ImportStmt:
		return true
	}
	_, ok := e.fail("unsupported statement %s", s)
	return ok
}

func (e *Evaluator) call(x *node.CallExpr) (ctv.Value, bool) {
	callee := x.Callee()
	if callee == nil {
		return e.fail("indirect call %s", x)
	}
	sym := e.binding(callee)
	if sym == nil {
		return e.fail("unbound callee %s", callee.Name)
	}

	switch sym.Kind {
	case program.TypeName:
		return e.construct(sym, x)
	case program.Function:
	default:
		return e.fail("%s is not callable", callee.Name)
	}

	fd := sym.FuncDecl()
	if fd == nil || sym.External || fd.Body == nil {
		return e.fail("call to external function %s", sym.Name)
	}
	if len(x.Receivers) > 0 || len(fd.Receivers) > 0 {
		return e.fail("call to %s passes receivers", sym.Name)
	}
	if e.facts == nil || !e.facts.IsFoldable(sym) {
		return e.fail("function %s is not foldable", sym.Name)
	}
	if len(x.Args) != len(fd.Params) {
		return e.fail("argument count mismatch calling %s", sym.Name)
	}
	if e.depth >= e.limits.MaxDepth {
		return e.fail("recursion depth exceeded in %s", sym.Name)
	}

	args := make([]ctv.Value, len(x.Args))
	for i, a := range x.Args {
		v, ok := e.value(a)
		if !ok {
			return nil, false
		}
		args[i] = v
	}

	savedInst := e.inst
	e.inst = sym.Instance
	fr := frame{}
	for i, p := range fd.Params {
		psym := e.binding(p.Name)
		if psym == nil {
			e.inst = savedInst
			return e.fail("unbound parameter %s of %s", p.Name.Name, sym.Name)
		}
		v, ok := e.coerce(args[i], p.Type)
		if !ok {
			e.inst = savedInst
			return nil, false
		}
		fr[psym] = v
	}

	e.frames = append(e.frames, fr)
	e.depth++
	v, ok := e.eval(fd.Body)
	if ok {
		switch e.ctl {
		case ctlReturn:
			v = e.retVal
		case ctlBreak, ctlContinue:
			ok = false
			e.fail("break or continue outside loop in %s", sym.Name)
		}
	}
	e.ctl = ctlNone
	e.retVal = nil
	e.depth--
	e.frames = e.frames[:len(e.frames)-1]

	if ok && fd.Result != nil {
		v, ok = e.coerce(v, fd.Result)
	}
	e.inst = savedInst
	if !ok {
		return nil, false
	}
	if !ctv.IsComplete(v) {
		return e.fail("result of %s is not fully initialized", sym.Name)
	}
	return v, true
}

func (e *Evaluator) construct(sym *program.Symbol, x *node.CallExpr) (ctv.Value, bool) {
	td := sym.TypeDecl()
	if td == nil {
		return e.fail("type %s has no declaration", sym.Name)
	}
	if len(x.Args) != len(td.Fields) || len(x.Receivers) > 0 {
		return e.fail("constructor %s expects %d fields", sym.Name, len(td.Fields))
	}
	out := &ctv.Struct{Name: td.Name.Name, Fields: make([]ctv.Field, len(td.Fields))}
	for i, a := range x.Args {
		v, ok := e.value(a)
		if !ok {
			return nil, false
		}
		if v, ok = e.coerce(v, td.Fields[i].Type); !ok {
			return nil, false
		}
		out.Fields[i] = ctv.Field{Name: td.Fields[i].Name, Value: v}
	}
	return out, true
}

func (e *Evaluator) index(x *node.IndexExpr) (ctv.Value, bool) {
	base, ok := e.value(x.Expr)
	if !ok {
		return nil, false
	}
	iv, ok := e.value(x.Index)
	if !ok {
		return nil, false
	}
	i, ok := toIndex(iv)
	if !ok {
		return e.fail("invalid index %s", iv)
	}
	switch b := base.(type) {
	case ctv.Array:
		if i >= len(b) {
			return e.fail("index %d out of bounds [0, %d)", i, len(b))
		}
		if b[i] == nil {
			return e.fail("element %d is not initialized", i)
		}
		return b[i], true
	case ctv.String:
		if i >= len(b) {
			return e.fail("index %d out of bounds [0, %d)", i, len(b))
		}
		return ctv.MakeUint(uint64(b[i]), 8), true
	}
	return e.fail("cannot index %s", base.Kind())
}

func toIndex(v ctv.Value) (int, bool) {
	switch v := v.(type) {
	case ctv.Int:
		if v.V < 0 {
			return 0, false
		}
		return int(v.V), true
	case ctv.Uint:
		if v.V > uint64(^uint(0)>>1) {
			return 0, false
		}
		return int(v.V), true
	}
	return 0, false
}

func (e *Evaluator) selector(x *node.SelectorExpr) (ctv.Value, bool) {
	base, ok := e.value(x.Expr)
	if !ok {
		return nil, false
	}
	var v ctv.Value
	switch b := base.(type) {
	case *ctv.Struct:
		i := b.Field(x.Sel)
		if i < 0 {
			return e.fail("%s has no field %s", b.Name, x.Sel)
		}
		v = b.Fields[i].Value
	case ctv.Tuple:
		i, ok := ctv.TupleField(x.Sel)
		if !ok || i >= len(b) {
			return e.fail("tuple has no field %s", x.Sel)
		}
		v = b[i]
	default:
		return e.fail("cannot select %s from %s", x.Sel, base.Kind())
	}
	if v == nil {
		return e.fail("field %s is not initialized", x.Sel)
	}
	return v, true
}

func (e *Evaluator) rangeExpr(x *node.RangeExpr) (ctv.Value, bool) {
	lo, ok := e.value(x.Start)
	if !ok {
		return nil, false
	}
	hi, ok := e.value(x.Stop)
	if !ok {
		return nil, false
	}

	var (
		start, stop int64
		mk          func(int64) ctv.Value
	)
	switch l := lo.(type) {
	case ctv.Int:
		h, ok := hi.(ctv.Int)
		if !ok {
			return e.fail("range bounds differ in type")
		}
		start, stop = l.V, h.V
		mk = func(v int64) ctv.Value { return ctv.MakeInt(v, l.Bits) }
	case ctv.Uint:
		h, ok := hi.(ctv.Uint)
		if !ok || l.V > 1<<62 || h.V > 1<<62 {
			return e.fail("range bounds are not representable")
		}
		start, stop = int64(l.V), int64(h.V)
		mk = func(v int64) ctv.Value { return ctv.MakeUint(uint64(v), l.Bits) }
	default:
		return e.fail("range bounds must be integers")
	}

	if start == stop {
		return e.fail("empty range")
	}
	n := stop - start
	step := int64(1)
	if n < 0 {
		n, step = -n, -1
	}
	if n > int64(e.limits.MaxRangeLength) {
		return e.fail("range of %d elements exceeds limit", n)
	}
	if e.steps += int(n); e.steps > e.limits.MaxSteps {
		e.exhausted = true
		return e.fail("step limit exceeded")
	}
	out := make(ctv.Array, n)
	for i := range out {
		out[i] = mk(start + int64(i)*step)
	}
	return out, true
}

func (e *Evaluator) length(x *node.LengthExpr) (ctv.Value, bool) {
	var n int
	v, ok := e.eval(x.Expr)
	switch {
	case ok && e.ctl == ctlNone && v != nil:
		switch v := v.(type) {
		case ctv.Array:
			n = len(v)
		case ctv.String:
			n = len(v)
		default:
			return e.fail("length of %s", v.Kind())
		}
	case e.exhausted || e.ctl != ctlNone:
		return e.fail("length operand does not reduce")
	default:
		t := e.prog.ResolveType(x.Expr.Type())
		if t == nil || t.Kind != node.ArrayType || t.Size == nil {
			return nil, false
		}
		// the operand is runtime only; its declared size still is constant
		e.reason = ""
		if n, ok = e.typeSize(t); !ok {
			return nil, false
		}
	}
	if t := x.Type(); t != nil {
		return e.coerce(ctv.MakeInt(int64(n), 64), t)
	}
	return ctv.MakeInt(int64(n), 64), true
}

func (e *Evaluator) iterate(x *node.IterExpr) (ctv.Value, bool) {
	seq, ok := e.value(x.Iterable)
	if !ok {
		return nil, false
	}
	var elems []ctv.Value
	switch s := seq.(type) {
	case ctv.Array:
		elems = s
	case ctv.String:
		for i := 0; i < len(s); i++ {
			elems = append(elems, ctv.MakeUint(uint64(s[i]), 8))
		}
	default:
		return e.fail("cannot iterate %s", seq.Kind())
	}
	if len(elems) > e.limits.MaxLoopIterations {
		return e.fail("iteration exceeds %d elements", e.limits.MaxLoopIterations)
	}
	if x.Sorted {
		elems = append([]ctv.Value(nil), elems...)
		sort.SliceStable(elems, func(i, j int) bool { return ctv.Less(elems[i], elems[j]) })
	}

	loopVar := e.binding(x)
	if loopVar == nil {
		return e.fail("iteration has no loop variable")
	}
	fr := e.frame()
	saved, hadSaved := fr[loopVar]
	defer func() {
		if hadSaved {
			fr[loopVar] = saved
		} else {
			delete(fr, loopVar)
		}
	}()

	for _, el := range elems {
		if el == nil {
			return e.fail("iterating uninitialized element")
		}
		fr[loopVar] = el
		if _, ok := e.eval(x.Body); !ok {
			return nil, false
		}
		if stop, ok := e.loopControl(); !ok {
			return nil, true
		} else if stop {
			break
		}
	}
	return ctv.Unit, true
}

func (e *Evaluator) repeat(x *node.RepeatExpr) (ctv.Value, bool) {
	for i := 0; ; i++ {
		if i >= e.limits.MaxLoopIterations {
			return e.fail("loop exceeds %d iterations", e.limits.MaxLoopIterations)
		}
		c, ok := e.cond(x.Cond)
		if !ok {
			return nil, false
		}
		if !c {
			break
		}
		if _, ok := e.eval(x.Body); !ok {
			return nil, false
		}
		if stop, ok := e.loopControl(); !ok {
			return nil, true
		} else if stop {
			break
		}
	}
	return ctv.Unit, true
}

// loopControl consumes break/continue after a loop body. It returns
// ok=false when a return propagates out of the loop.
func (e *Evaluator) loopControl() (stop bool, ok bool) {
	switch e.ctl {
	case ctlBreak:
		e.ctl = ctlNone
		return true, true
	case ctlContinue:
		e.ctl = ctlNone
	case ctlReturn:
		return false, false
	}
	return false, true
}
