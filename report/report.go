// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package report renders the facts of a compilation as deterministic text
// for golden tests and tooling.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/xlab/treeprint"

	"github.com/gad-lang/semcore/analysis"
	"github.com/gad-lang/semcore/node"
	"github.com/gad-lang/semcore/optimizer"
	"github.com/gad-lang/semcore/program"
)

const defaultMask = "<default>"

// Write writes the analysis report of a pruned module to w. Every section
// lists one entry per line, sorted by symbol label or name.
func Write(w io.Writer, mod *program.Merged, opt *optimizer.Facts, an *analysis.Facts) error {
	if opt == nil {
		opt = optimizer.NewFacts()
	}
	if an == nil {
		an = analysis.NewFacts()
	}

	var b strings.Builder
	b.WriteString("# Semcore Analysis Report\n")
	if mod != nil {
		b.WriteString("Module: " + mod.Name + "\n")
	}

	section(&b, "Optimization Summary", []string{
		"Constexpr expressions: " + humanize.Comma(int64(len(opt.Values))),
		"Constexpr inits: " + humanize.Comma(int64(count(opt.Inits))),
		"Foldable functions: " + humanize.Comma(int64(count(opt.Foldable))),
		"Constexpr conditions: " + humanize.Comma(int64(len(opt.Conditions))),
	})

	var lines []string
	for _, sym := range analysis.Symbols(opt.SkipReasons) {
		lines = append(lines, sym.Label()+": "+opt.SkipReasons[sym])
	}
	section(&b, "Fold Skip Reasons", lines)

	section(&b, "Reachable Functions", labels(an.ReachableFunctions()))

	lines = lines[:0]
	for _, sym := range analysis.Symbols(an.Reentrancy) {
		var tags []string
		for _, c := range an.Contexts(sym) {
			tags = append(tags, c.String())
		}
		lines = append(lines, sym.Label()+": "+strings.Join(tags, ","))
	}
	section(&b, "Reentrancy Variants", lines)

	lines = lines[:0]
	for _, sym := range analysis.Symbols(an.RefVariants) {
		masks := an.Variants(sym)
		for i, m := range masks {
			if m == "" {
				masks[i] = defaultMask
			}
		}
		lines = append(lines, sym.Label()+": "+strings.Join(masks, ", "))
	}
	section(&b, "Ref Variants", lines)

	lines = lines[:0]
	for _, sym := range analysis.Symbols(an.Mutability) {
		lines = append(lines, sym.Label()+" -> "+an.Mutability[sym].String())
	}
	section(&b, "Variable Mutability", lines)

	section(&b, "Used Globals", labels(an.Globals()))
	section(&b, "Used Types", an.Types())

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string, lines []string) {
	b.WriteString("\n## " + title + "\n")
	for _, l := range lines {
		b.WriteString("- " + l + "\n")
	}
}

func labels(syms []*program.Symbol) []string {
	out := make([]string, 0, len(syms))
	for _, sym := range syms {
		out = append(out, sym.Label())
	}
	return out
}

func count(m map[*program.Symbol]bool) (n int) {
	for _, ok := range m {
		if ok {
			n++
		}
	}
	return
}

// Tree renders mod as a tree with one branch per instance, in merge order.
func Tree(mod *program.Merged) string {
	if mod == nil {
		return ""
	}
	root := treeprint.NewWithRoot(mod.Name)
	var (
		branch treeprint.Tree
		inst   = program.InstanceID(-1)
	)
	for _, it := range mod.Items {
		if branch == nil || it.Instance != inst {
			inst = it.Instance
			branch = root.AddBranch("instance " + strconv.Itoa(int(inst)))
		}
		switch s := it.Stmt.(type) {
		case *node.FuncDecl:
			branch.AddMetaNode("func", s.Name.Name)
		case *node.VarDecl:
			branch.AddMetaNode("var", s.Name.Name)
		case *node.TypeDecl:
			branch.AddMetaNode("type", s.Name.Name)
		default:
			branch.AddMetaNode("stmt", fmt.Sprint(it.Stmt))
		}
	}
	return root.String()
}

// Diff returns a unified diff of want and got, or "" if they are equal.
func Diff(want, got string) string {
	if want == got {
		return ""
	}
	d, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return d
}
