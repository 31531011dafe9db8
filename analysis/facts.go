// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package analysis

import (
	"sort"

	"github.com/gad-lang/semcore/program"
)

// Mutability classifies a global variable.
type Mutability int

const (
	// Constexpr globals never change after initialization.
	Constexpr Mutability = iota
	// Mutable globals are written at runtime.
	Mutable
)

func (m Mutability) String() string {
	if m == Mutable {
		return "mutable"
	}
	return "constexpr"
}

// Context is the reentrancy tag of a call site.
type Context byte

const (
	Reentrant    Context = 'R'
	NonReentrant Context = 'N'
)

// Valid reports whether c is one of the two context tags.
func (c Context) Valid() bool {
	return c == Reentrant || c == NonReentrant
}

func (c Context) String() string {
	return string(rune(c))
}

// Facts is everything the analyzer learns about a converged program. The
// passes fill it in order and later passes read the results of earlier ones.
type Facts struct {
	Reachable       map[*program.Symbol]bool
	Reentrancy      map[*program.Symbol]map[Context]bool
	ReceiverMutates map[*program.Symbol][]bool
	Mutability      map[*program.Symbol]Mutability
	// RefVariants holds one mask per distinct call shape, a character per
	// receiver, 'M' for a mutable argument and 'N' otherwise.
	RefVariants map[*program.Symbol]map[string]bool
	UsedGlobals map[*program.Symbol]bool
	UsedTypes   map[string]bool
}

// NewFacts returns empty facts.
func NewFacts() *Facts {
	return &Facts{
		Reachable:       map[*program.Symbol]bool{},
		Reentrancy:      map[*program.Symbol]map[Context]bool{},
		ReceiverMutates: map[*program.Symbol][]bool{},
		Mutability:      map[*program.Symbol]Mutability{},
		RefVariants:     map[*program.Symbol]map[string]bool{},
		UsedGlobals:     map[*program.Symbol]bool{},
		UsedTypes:       map[string]bool{},
	}
}

// AddContext records ctx for sym and reports whether it is new.
func (f *Facts) AddContext(sym *program.Symbol, ctx Context) bool {
	set := f.Reentrancy[sym]
	if set == nil {
		set = map[Context]bool{}
		f.Reentrancy[sym] = set
	}
	if set[ctx] {
		return false
	}
	set[ctx] = true
	return true
}

// Contexts returns the sorted reentrancy tags of sym.
func (f *Facts) Contexts(sym *program.Symbol) []Context {
	out := make([]Context, 0, len(f.Reentrancy[sym]))
	for c := range f.Reentrancy[sym] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Variants returns the sorted receiver masks recorded for sym.
func (f *Facts) Variants(sym *program.Symbol) []string {
	out := make([]string, 0, len(f.RefVariants[sym]))
	for m := range f.RefVariants[sym] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ReachableFunctions returns the reachable functions sorted by label.
func (f *Facts) ReachableFunctions() []*program.Symbol {
	return sortedKeys(f.Reachable)
}

// Globals returns the used globals sorted by label.
func (f *Facts) Globals() []*program.Symbol {
	return sortedKeys(f.UsedGlobals)
}

// Types returns the used type names in order.
func (f *Facts) Types() []string {
	out := make([]string, 0, len(f.UsedTypes))
	for name := range f.UsedTypes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Symbols returns the keys of m sorted by label.
func Symbols[V any](m map[*program.Symbol]V) []*program.Symbol {
	out := make([]*program.Symbol, 0, len(m))
	for sym := range m {
		out = append(out, sym)
	}
	program.SortSymbols(out)
	return out
}

func sortedKeys(m map[*program.Symbol]bool) []*program.Symbol {
	out := make([]*program.Symbol, 0, len(m))
	for sym, ok := range m {
		if ok {
			out = append(out, sym)
		}
	}
	program.SortSymbols(out)
	return out
}
