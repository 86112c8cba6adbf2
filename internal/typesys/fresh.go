package typesys

import (
	"fmt"

	"github.com/inspirecore/inspire/internal/ir"
	"github.com/samber/lo"
)

// FreshNamer mints names disjoint from a caller-supplied "used" set, for
// renaming every TypeVariable/VariableIntTypeParam in a subtree before
// composing two generic functions.
type FreshNamer struct {
	used   map[string]bool
	prefix string
	next   int
}

func NewFreshNamer(used map[string]bool, prefix string) *FreshNamer {
	return &FreshNamer{used: used, prefix: prefix}
}

func (f *FreshNamer) Next() string {
	for {
		name := fmt.Sprintf("%s%d", f.prefix, f.next)
		f.next++
		if !f.used[name] {
			f.used[name] = true
			return name
		}
	}
}

// RenameFresh renames every TypeVariable and VariableIntTypeParam in node
// to a name disjoint from used, returning the rewritten node and the
// substitution that performed the renaming (so callers can apply the same
// renaming to sibling trees, e.g. a function's parameter list and body).
func RenameFresh(m *ir.Manager, node *ir.Node, used map[string]bool) (*ir.Node, *Substitution, error) {
	vars := collectVars(node)
	typeNamer := NewFreshNamer(used, "t")
	intNamer := NewFreshNamer(used, "n")

	sub := NewSubstitution()
	for _, v := range vars {
		var fresh *ir.Node
		var err error
		if v.Kind == ir.KindVariableIntTypeParam {
			fresh, err = m.VariableIntTypeParam(intNamer.Next())
		} else {
			fresh, err = m.TypeVariable(typeNamer.Next())
		}
		if err != nil {
			return nil, nil, err
		}
		sub.Bind(v, fresh)
	}
	renamed, err := Apply(m, sub, node)
	if err != nil {
		return nil, nil, err
	}
	return renamed, sub, nil
}

func collectVars(node *ir.Node) []*ir.Node {
	var vars []*ir.Node
	seen := map[*ir.Node]bool{}
	var walk func(*ir.Node)
	walk = func(n *ir.Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		if n.Kind == ir.KindTypeVariable || n.Kind == ir.KindVariableIntTypeParam {
			vars = append(vars, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(node)
	return lo.Uniq(vars)
}
