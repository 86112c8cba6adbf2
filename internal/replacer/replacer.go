// Package replacer implements the Node Replacer: structural
// substitution over hash-consed IR, in four modes, plus the address-based
// single-occurrence replaceNode operation. Every rebuilt node migrates the
// annotations of the node it replaces before being handed back.
package replacer

import (
	"github.com/inspirecore/inspire/internal/diag"
	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/typesys"
	"github.com/inspirecore/inspire/internal/visitor"
)

// Map is a substitution keyed by node identity — hash-consing makes
// pointer equality the correct notion of "the same node" here.
type Map map[*ir.Node]*ir.Node

// rebuild reconstructs n with its children replaced by newChildren (which
// must be the same length, pairwise substituted or identical), migrating
// n's annotations onto the rebuilt node. If no child actually changed, n
// itself is returned unchanged — this is what keeps ReplaceAll from
// needlessly walking past a subtree that contains none of the keys.
func rebuild(m *ir.Manager, n *ir.Node, newChildren []*ir.Node) (*ir.Node, error) {
	changed := false
	for i, c := range newChildren {
		if c != n.Children[i] {
			changed = true
			break
		}
	}
	if !changed {
		return n, nil
	}
	out, err := m.Get(n.Kind, n.Payload, newChildren...)
	if err != nil {
		return nil, err
	}
	if out != n {
		out.MigrateAnnotationsFrom(n)
	}
	return out, nil
}

// isTypeOnlySubst reports whether every key in subst is a type-category
// node — the precondition for the walker to prune entire type subtrees
// when none of them is a substitution target.
func isTypeOnlySubst(subst Map) bool {
	for k := range subst {
		if k.Category() != ir.CategoryType {
			return false
		}
	}
	return true
}

// ReplaceAll implements mode 1: multi-map substitution. Every node in root
// equal (by identity) to a key in subst is replaced by the corresponding
// value; ancestors are rebuilt bottom-up with annotations migrated. When
// every key is a type node, type subtrees that cannot contain a key are
// pruned outright rather than walked.
func ReplaceAll(m *ir.Manager, root *ir.Node, subst Map) (*ir.Node, error) {
	pruneTypes := len(subst) > 0 && isTypeOnlySubst(subst)
	memo := make(map[*ir.Node]*ir.Node)

	var walk func(n *ir.Node) (*ir.Node, error)
	walk = func(n *ir.Node) (*ir.Node, error) {
		if n == nil {
			return nil, nil
		}
		if v, ok := subst[n]; ok {
			return v, nil
		}
		if out, ok := memo[n]; ok {
			return out, nil
		}
		if pruneTypes && n.Category() == ir.CategoryType && !containsAny(n, subst) {
			memo[n] = n
			return n, nil
		}
		newChildren := make([]*ir.Node, len(n.Children))
		for i, c := range n.Children {
			nc, err := walk(c)
			if err != nil {
				return nil, err
			}
			newChildren[i] = nc
		}
		out, err := rebuild(m, n, newChildren)
		if err != nil {
			return nil, err
		}
		memo[n] = out
		return out, nil
	}
	return walk(root)
}

// containsAny reports whether any key of subst occurs anywhere in n's
// subtree (visit-once, since a shared subtree containing a key need only
// be discovered once).
func containsAny(n *ir.Node, subst Map) bool {
	found := false
	visitor.Interruptible(n, visitor.Prefix, func(c *ir.Node) bool {
		if _, ok := subst[c]; ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// Replace implements mode 2: the single-substitution fast path of
// ReplaceAll.
func Replace(m *ir.Manager, root *ir.Node, old, new *ir.Node) (*ir.Node, error) {
	return ReplaceAll(m, root, Map{old: new})
}

// ReplaceVariablesScoped implements mode 3: variable substitution that
// stops descending at lambda boundaries, so a replacement never crosses
// into a nested function's own scope. subst's keys must all be Variable
// nodes.
func ReplaceVariablesScoped(m *ir.Manager, root *ir.Node, subst Map) (*ir.Node, error) {
	memo := make(map[*ir.Node]*ir.Node)
	var walk func(n *ir.Node) (*ir.Node, error)
	walk = func(n *ir.Node) (*ir.Node, error) {
		if n == nil {
			return nil, nil
		}
		if v, ok := subst[n]; ok {
			return v, nil
		}
		if n.Kind == ir.KindLambdaExpr {
			// Lambda boundary: the lambda is returned as is, type child
			// included; its params and body belong to the nested scope.
			memo[n] = n
			return n, nil
		}
		if out, ok := memo[n]; ok {
			return out, nil
		}
		newChildren := make([]*ir.Node, len(n.Children))
		for i, c := range n.Children {
			nc, err := walk(c)
			if err != nil {
				return nil, err
			}
			newChildren[i] = nc
		}
		out, err := rebuild(m, n, newChildren)
		if err != nil {
			return nil, err
		}
		memo[n] = out
		return out, nil
	}
	return walk(root)
}

// ReplaceVariablesRecursive implements mode 4: like ReplaceVariablesScoped,
// but every CallExpr whose argument types changed as a result of the
// substitution has its return type re-deduced and the node
// rebuilt with the new return type — necessary because a replaced
// variable's type can differ from the one it replaces, which can change
// what a call enclosing it should return. Unlike mode 3, this mode does
// not stop at lambda boundaries: the whole point is resolving a mutually
// recursive SCC's placeholder variables, which reach into nested lambdas.
func ReplaceVariablesRecursive(m *ir.Manager, root *ir.Node, subst Map, collector *diag.Collector) (*ir.Node, error) {
	memo := make(map[*ir.Node]*ir.Node)
	var walk func(n *ir.Node) (*ir.Node, error)
	walk = func(n *ir.Node) (*ir.Node, error) {
		if n == nil {
			return nil, nil
		}
		if v, ok := subst[n]; ok {
			return v, nil
		}
		if out, ok := memo[n]; ok {
			return out, nil
		}
		newChildren := make([]*ir.Node, len(n.Children))
		for i, c := range n.Children {
			nc, err := walk(c)
			if err != nil {
				return nil, err
			}
			newChildren[i] = nc
		}
		if n.Kind == ir.KindCallExpr {
			out, err := rebuildCallWithDeducedReturn(m, n, newChildren, collector)
			if err != nil {
				return nil, err
			}
			memo[n] = out
			return out, nil
		}
		out, err := rebuild(m, n, newChildren)
		if err != nil {
			return nil, err
		}
		memo[n] = out
		return out, nil
	}
	return walk(root)
}

// rebuildCallWithDeducedReturn rebuilds a CallExpr node whose function or
// argument children may have changed, re-deducing the return type from
// scratch rather than trusting the old one.
func rebuildCallWithDeducedReturn(m *ir.Manager, n *ir.Node, newChildren []*ir.Node, collector *diag.Collector) (*ir.Node, error) {
	sameChildren := true
	for i, c := range newChildren {
		if c != n.Children[i] {
			sameChildren = false
			break
		}
	}
	if sameChildren {
		return n, nil
	}

	fn := newChildren[1]
	args := newChildren[2:]
	fnType := resultType(fn)
	argTypes := make([]*ir.Node, len(args))
	for i, a := range args {
		argTypes[i] = resultType(a)
	}
	retType, err := typesys.DeduceReturnType(m, fnType, argTypes, diag.SourceLocation{}, collector)
	if err != nil {
		return nil, err
	}
	rebuilt := append([]*ir.Node{retType}, newChildren[1:]...)
	out, err := m.Get(ir.KindCallExpr, n.Payload, rebuilt...)
	if err != nil {
		return nil, err
	}
	if out != n {
		out.MigrateAnnotationsFrom(n)
	}
	return out, nil
}

// resultType mirrors builder.ResultType for the small set of kinds the
// replacer needs to inspect, without importing internal/ir/builder (which
// itself depends on typesys and would create an import cycle through this
// package's use of typesys.DeduceReturnType).
func resultType(n *ir.Node) *ir.Node {
	switch n.Kind {
	case ir.KindLiteral:
		return n.Child(0)
	case ir.KindVariable:
		return ir.VariableType(n)
	case ir.KindCallExpr:
		return ir.CallExprReturnType(n)
	case ir.KindLambdaExpr:
		return ir.LambdaExprType(n)
	case ir.KindCastExpr:
		return ir.CastExprTargetType(n)
	case ir.KindStructExpr:
		return ir.StructExprType(n)
	case ir.KindVectorExpr:
		return ir.VectorExprType(n)
	case ir.KindJobExpr:
		return ir.JobExprType(n)
	case ir.KindMarkerExpr:
		return resultType(ir.MarkerExprInner(n))
	default:
		return nil
	}
}

// ReplaceNode implements address-based replacement: rebuilds the path from
// the node at addr up to root, replacing exactly that occurrence with v and
// migrating annotations at every step. Unlike ReplaceAll, this is
// path-unique — a node reachable through two addresses is only replaced at
// the addressed one.
func ReplaceNode(m *ir.Manager, root *ir.Node, addr visitor.Address, v *ir.Node) (*ir.Node, error) {
	if len(addr) == 0 {
		return v, nil
	}
	idx := addr[0]
	child := root.Child(idx)
	if child == nil {
		return nil, diag.New(diag.IllFormedNode, diag.SourceLocation{}, "address %s: child index %d out of range", addr, idx)
	}
	newChild, err := ReplaceNode(m, child, addr[1:], v)
	if err != nil {
		return nil, err
	}
	newChildren := append([]*ir.Node{}, root.Children...)
	newChildren[idx] = newChild
	return rebuild(m, root, newChildren)
}
