// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package optimizer computes compile-time facts for a program and rewrites
// the tree with them.
package optimizer

import (
	"github.com/gad-lang/semcore/ctv"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/program"
)

// Key identifies an expression as reached through one instance.
type Key struct {
	Instance program.InstanceID
	Expr     node.Expr
}

// Reason recorded for a foldable function without parameters whose body
// does not reduce.
const ReasonEvalFailed = "evaluation-failed-or-runtime-dependent"

// Facts holds the results of one optimizer run. Entries only grow during a
// run; a fresh run starts from empty facts.
type Facts struct {
	// Values maps reduced expressions to their value.
	Values map[Key]ctv.Value
	// Inits is the set of globals whose initializer reduced.
	Inits map[*program.Symbol]bool
	// Foldable is the set of functions whose calls may be evaluated.
	Foldable map[*program.Symbol]bool
	// Conditions maps decided branch and loop conditions.
	Conditions map[Key]bool
	// SkipReasons tells why a function is not foldable. Diagnostic only.
	SkipReasons map[*program.Symbol]string
	// Known holds the promoted values of global constants.
	Known map[*program.Symbol]ctv.Value
}

// NewFacts returns empty facts.
func NewFacts() *Facts {
	return &Facts{
		Values:      map[Key]ctv.Value{},
		Inits:       map[*program.Symbol]bool{},
		Foldable:    map[*program.Symbol]bool{},
		Conditions:  map[Key]bool{},
		SkipReasons: map[*program.Symbol]string{},
		Known:       map[*program.Symbol]ctv.Value{},
	}
}

// ConstValue returns the promoted value of a global constant.
func (f *Facts) ConstValue(sym *program.Symbol) (ctv.Value, bool) {
	v, ok := f.Known[sym]
	return v, ok
}

// IsFoldable reports whether calls to sym may be evaluated.
func (f *Facts) IsFoldable(sym *program.Symbol) bool {
	return f.Foldable[sym]
}

// Value returns the value of e in inst.
func (f *Facts) Value(inst program.InstanceID, e node.Expr) (ctv.Value, bool) {
	v, ok := f.Values[Key{Instance: inst, Expr: e}]
	return v, ok
}

// Condition returns the decided value of condition e in inst.
func (f *Facts) Condition(inst program.InstanceID, e node.Expr) (value bool, decided bool) {
	value, decided = f.Conditions[Key{Instance: inst, Expr: e}]
	return
}

// ConstexprCondition looks a condition up and falls back to a scalar value
// of e.
func (f *Facts) ConstexprCondition(inst program.InstanceID, e node.Expr) (bool, bool) {
	if b, ok := f.Condition(inst, e); ok {
		return b, true
	}
	if v, ok := f.Value(inst, e); ok {
		return ctv.Truthy(v)
	}
	return false, false
}
