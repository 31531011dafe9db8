// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package optimizer

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/tools/container/intsets"

	"github.com/gad-lang/semcore/cte"
	"github.com/gad-lang/semcore/ctv"
	"github.com/gad-lang/semcore/diag"
	"github.com/gad-lang/semcore/internal/trace"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
	"github.com/gad-lang/semcore/source"
)

// Options configures an Optimizer run.
type Options struct {
	// MaxCycle bounds the promote and requeue cycles of one run.
	MaxCycle int
	Limits   cte.Limits
	Trace    *trace.Printer
}

// DefaultOptions returns the default optimizer options.
func DefaultOptions() Options {
	return Options{
		MaxCycle: 64,
		Limits:   cte.DefaultLimits(),
	}
}

// Optimizer computes the compile-time facts of a program with a dependency
// tracked worklist. Expressions and roots that read a global constant are
// queued again when the value of that constant is promoted. It is not safe
// to call methods concurrently.
type Optimizer struct {
	prog  *program.Program
	opts  Options
	trace *trace.Printer
	facts *Facts
	ev    *cte.Evaluator
	col   *collection

	exprQueue  []int
	exprQueued []bool
	rootQueue  []int
	rootQueued []bool

	symIndex map[*program.Symbol]int
	exprDeps map[int]*intsets.Sparse
	rootDeps map[int]*intsets.Sparse
	unstable map[Key]bool

	// reader is the item whose evaluation is running. Negative values
	// denote roots.
	reader   int
	tracking bool
	count    int
	total    int
}

// New creates an Optimizer for prog.
func New(prog *program.Program, opts Options) *Optimizer {
	if opts.MaxCycle <= 0 {
		opts.MaxCycle = DefaultOptions().MaxCycle
	}
	if opts.Limits == (cte.Limits{}) {
		opts.Limits = cte.DefaultLimits()
	}
	return &Optimizer{
		prog:  prog,
		opts:  opts,
		trace: opts.Trace,
	}
}

// Optimize runs the optimizer to completion and returns fresh facts.
func (o *Optimizer) Optimize() (*Facts, error) {
	defer o.trace.Leave(o.trace.Enter("optimizer"))

	o.facts = NewFacts()
	o.col = collect(o.prog)
	o.symIndex = map[*program.Symbol]int{}
	o.exprDeps = map[int]*intsets.Sparse{}
	o.rootDeps = map[int]*intsets.Sparse{}
	o.unstable = map[Key]bool{}
	o.exprQueue, o.rootQueue = nil, nil
	o.exprQueued = make([]bool, len(o.col.exprs))
	o.rootQueued = make([]bool, len(o.col.roots))
	o.total = 0

	InferFoldable(o.prog, o.facts)

	o.ev = cte.New(o.prog, o.facts, o.opts.Limits)
	o.ev.OnRead = o.onRead

	for i := range o.col.roots {
		o.queueRoot(i)
	}
	for i := range o.col.exprs {
		o.queueExpr(i)
	}

	for cycle := 1; ; cycle++ {
		if cycle > o.opts.MaxCycle {
			return nil, diag.Internalf(diag.ErrNotConverged, source.FilePos{}, nil,
				"compile-time fact scheduler did not converge")
		}
		o.count = 0
		o.trace.Printf("%d. pass", cycle)
		o.drain()

		changed, err := o.promoteGlobals()
		if err != nil {
			return nil, err
		}
		o.total += o.count
		if !changed {
			break
		}
	}

	o.finalize()
	if o.trace.Enabled() {
		o.trace.Printf("Total: %s values, %s conditions, %s foldable",
			humanize.Comma(int64(len(o.facts.Values))),
			humanize.Comma(int64(len(o.facts.Conditions))),
			humanize.Comma(int64(len(o.facts.Foldable))))
	}
	return o.facts, nil
}

// Total returns the number of values recorded by the last run.
func (o *Optimizer) Total() int {
	return o.total
}

func (o *Optimizer) queueExpr(i int) {
	if !o.exprQueued[i] {
		o.exprQueued[i] = true
		o.exprQueue = append(o.exprQueue, i)
	}
}

func (o *Optimizer) queueRoot(i int) {
	if !o.rootQueued[i] {
		o.rootQueued[i] = true
		o.rootQueue = append(o.rootQueue, i)
	}
}

func (o *Optimizer) drain() {
	for len(o.rootQueue) > 0 || len(o.exprQueue) > 0 {
		for len(o.rootQueue) > 0 {
			i := o.rootQueue[0]
			o.rootQueue = o.rootQueue[1:]
			o.rootQueued[i] = false
			o.evalRoot(i)
		}
		for len(o.exprQueue) > 0 {
			i := o.exprQueue[0]
			o.exprQueue = o.exprQueue[1:]
			o.exprQueued[i] = false
			o.evalExpr(i)
		}
	}
}

func (o *Optimizer) symID(sym *program.Symbol) int {
	id, ok := o.symIndex[sym]
	if !ok {
		id = len(o.symIndex)
		o.symIndex[sym] = id
	}
	return id
}

func (o *Optimizer) onRead(sym *program.Symbol) {
	if !o.tracking {
		return
	}
	deps := o.exprDeps
	i := o.reader
	if i < 0 {
		deps, i = o.rootDeps, -i-1
	}
	id := o.symID(sym)
	s := deps[id]
	if s == nil {
		s = &intsets.Sparse{}
		deps[id] = s
	}
	s.Insert(i)
}

func (o *Optimizer) evalRoot(i int) {
	r := o.col.roots[i]
	if o.trace.Enabled() {
		defer o.trace.Leave(o.trace.Enter(r.kind.String() + " root: " + r.expr.String()))
	}

	seen := map[node.Expr]ctv.Value{}
	var order []node.Expr
	o.ev.OnValue = func(_ program.InstanceID, e node.Expr, v ctv.Value) {
		if !r.inside[e] {
			return
		}
		if _, ok := seen[e]; !ok {
			order = append(order, e)
		} else if !ctv.Equal(seen[e], v) {
			o.markUnstable(Key{Instance: r.inst, Expr: e})
		}
		seen[e] = v
	}
	o.reader, o.tracking = -i-1, true

	var ok bool
	if r.kind == funcRoot {
		_, ok = o.ev.EvaluateBody(r.sym)
		if o.facts.Foldable[r.sym] && len(r.sym.FuncDecl().Params) == 0 {
			if ok {
				delete(o.facts.SkipReasons, r.sym)
			} else {
				o.facts.SkipReasons[r.sym] = ReasonEvalFailed
			}
		}
	} else {
		_, ok = o.ev.Evaluate(r.inst, r.expr)
	}

	o.tracking = false
	o.ev.OnValue = nil
	if !ok {
		o.trace.Printf("not reduced: %s", o.ev.Reason())
		return
	}
	for _, e := range order {
		o.record(Key{Instance: r.inst, Expr: e}, seen[e])
	}
}

func (o *Optimizer) evalExpr(i int) {
	k := o.col.exprs[i]
	if o.unstable[k] {
		return
	}
	o.reader, o.tracking = i, true
	v, ok := o.ev.Evaluate(k.Instance, k.Expr)
	o.tracking = false
	if ok {
		o.record(k, v)
	}
}

func (o *Optimizer) markUnstable(k Key) {
	if !o.unstable[k] {
		o.trace.Printf("unstable: %s", k.Expr)
	}
	o.unstable[k] = true
	delete(o.facts.Values, k)
}

func (o *Optimizer) record(k Key, v ctv.Value) {
	if o.unstable[k] {
		return
	}
	if _, tuple := k.Expr.(*node.TupleLit); ctv.IsUnit(v) && !tuple {
		return
	}
	if old, ok := o.facts.Values[k]; ok {
		if !ctv.Equal(old, v) {
			o.markUnstable(k)
		}
		return
	}
	o.facts.Values[k] = v
	o.count++
	o.trace.Printf("eval: %s = %s", k.Expr, v)
}

// promoteGlobals evaluates the constant candidates and queues the readers of
// every newly promoted value.
func (o *Optimizer) promoteGlobals() (bool, error) {
	var changed bool
	for _, sym := range o.col.globals {
		v, ok := o.ev.EvaluateInit(sym)
		if !ok {
			continue
		}
		if old, known := o.facts.Known[sym]; known {
			if !ctv.Equal(old, v) {
				d := sym.VarDecl()
				return false, diag.Internalf(diag.ErrNonMonotonic, o.prog.Position(d.Pos()), d,
					"non-monotonic global constant promotion for %s", sym.Name)
			}
			continue
		}
		o.facts.Known[sym] = v
		o.trace.Printf("promote: %s = %s", sym.Label(), v)
		changed = true

		id, ok := o.symIndex[sym]
		if !ok {
			continue
		}
		if s := o.rootDeps[id]; s != nil {
			for _, i := range s.AppendTo(nil) {
				o.queueRoot(i)
			}
		}
		if s := o.exprDeps[id]; s != nil {
			for _, i := range s.AppendTo(nil) {
				o.queueExpr(i)
			}
		}
	}
	return changed, nil
}

func (o *Optimizer) finalize() {
	for _, k := range o.col.conds {
		v, ok := o.facts.Values[k]
		if !ok || writes(k.Expr) {
			continue
		}
		if b, ok := ctv.Truthy(v); ok {
			o.facts.Conditions[k] = b
		}
	}
	for sym, k := range o.col.inits {
		if _, ok := o.facts.Values[k]; ok {
			o.facts.Inits[sym] = true
		}
	}
}
