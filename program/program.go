// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package program

import (
	"sort"

	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/source"
)

// Module is one source file as delivered by the front end.
type Module struct {
	Name  string
	Path  string
	Stmts []node.Stmt
}

// Instance is one specialization of a module with its own symbol scope.
type Instance struct {
	ID      InstanceID
	Module  *Module
	Symbols map[string]*Symbol
}

// Lookup resolves name in the instance scope.
func (in *Instance) Lookup(name string) *Symbol {
	return in.Symbols[name]
}

// BindingKey identifies a node reached through an instance.
type BindingKey struct {
	Instance InstanceID
	Node     node.Node
}

// Program is the type checked, specialized program consumed by the core.
type Program struct {
	Name      string
	Modules   []*Module
	Instances []*Instance
	Bindings  map[BindingKey]*Symbol
	// Aliases maps type alias names to their target type.
	Aliases map[string]*node.Type
	FileSet *source.FileSet
}

// New returns an empty program.
func New(name string) *Program {
	return &Program{
		Name:     name,
		Bindings: map[BindingKey]*Symbol{},
		Aliases:  map[string]*node.Type{},
		FileSet:  source.NewFileSet(),
	}
}

// BindingFor returns the symbol n refers to (or declares) in instance inst.
func (p *Program) BindingFor(inst InstanceID, n node.Node) *Symbol {
	return p.Bindings[BindingKey{Instance: inst, Node: n}]
}

// Bind records the binding of n in inst.
func (p *Program) Bind(inst InstanceID, n node.Node, sym *Symbol) {
	p.Bindings[BindingKey{Instance: inst, Node: n}] = sym
}

// Instance returns the instance with id or nil.
func (p *Program) Instance(id InstanceID) *Instance {
	for _, in := range p.Instances {
		if in.ID == id {
			return in
		}
	}
	return nil
}

// LookupTypeSymbol resolves a type name in the scope of inst.
func (p *Program) LookupTypeSymbol(inst InstanceID, name string) *Symbol {
	in := p.Instance(inst)
	if in == nil {
		return nil
	}
	if sym := in.Lookup(name); sym != nil && sym.Kind == TypeName {
		return sym
	}
	return nil
}

// ResolveType follows type aliases until a non-alias type is reached.
func (p *Program) ResolveType(t *node.Type) *node.Type {
	seen := map[string]bool{}
	for t != nil && t.Kind == node.NamedType {
		target, ok := p.Aliases[t.Name]
		if !ok || seen[t.Name] {
			break
		}
		seen[t.Name] = true
		t = target
	}
	return t
}

// Position resolves pos in the program file set.
func (p *Program) Position(pos source.Pos) source.FilePos {
	if p.FileSet == nil {
		return source.FilePos{}
	}
	return p.FileSet.Position(pos)
}

// Symbols returns every symbol bound to a top-level declaration, ordered by
// instance and then by declaration order.
func (p *Program) Symbols() []*Symbol {
	var out []*Symbol
	for _, it := range p.Merge().Items {
		if sym := p.BindingFor(it.Instance, it.Stmt); sym != nil {
			out = append(out, sym)
		}
	}
	return out
}

// Item is a top-level statement tagged with its instance.
type Item struct {
	Instance InstanceID
	Stmt     node.Stmt
}

// Merged is the flat list of every instance's top-level statements.
type Merged struct {
	Name  string
	Items []Item
}

// Merge flattens all instances in instance order.
func (p *Program) Merge() *Merged {
	m := &Merged{Name: p.Name}
	for _, in := range p.Instances {
		if in.Module == nil {
			continue
		}
		for _, s := range in.Module.Stmts {
			m.Items = append(m.Items, Item{Instance: in.ID, Stmt: s})
		}
	}
	return m
}

func sortSymbols(l []*Symbol) {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Instance != b.Instance {
			return a.Instance < b.Instance
		}
		return a.Kind < b.Kind
	})
}
