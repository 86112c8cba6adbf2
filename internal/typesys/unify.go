package typesys

import (
	"fmt"

	"github.com/inspirecore/inspire/internal/ir"
)

type pair struct{ a, b *ir.Node }

// Unify returns the most general substitution unifying a and b, or an
// error if none exists. The result is canonical: the swap
// rule in step 2 ensures type variables only ever appear on the left-hand
// side of a binding.
func Unify(m *ir.Manager, a, b *ir.Node) (*Substitution, error) {
	work := []pair{{a, b}}
	sub := NewSubstitution()

	for len(work) > 0 {
		p := work[0]
		work = work[1:]

		x, err := Apply(m, sub, p.a)
		if err != nil {
			return nil, err
		}
		y, err := Apply(m, sub, p.b)
		if err != nil {
			return nil, err
		}

		if x == y {
			continue
		}

		if isVar(y) && !isVar(x) {
			x, y = y, x
		}

		if isVar(x) {
			if occurs(x, y) {
				return nil, fmt.Errorf("occurs check failed: %s occurs in %s", ir.Print(x), ir.Print(y))
			}
			sub, err = Compose(m, sub, NewSubstitution().Bind(x, y))
			if err != nil {
				return nil, err
			}
			continue
		}

		if x.Kind != y.Kind {
			return nil, fmt.Errorf("unification failure: kind mismatch %s vs %s", x.Kind, y.Kind)
		}

		switch x.Kind {
		case ir.KindGenericType:
			if x.Payload.Text != y.Payload.Text {
				return nil, fmt.Errorf("unification failure: family mismatch %q vs %q", x.Payload.Text, y.Payload.Text)
			}
			if len(x.Children) != len(y.Children) {
				return nil, fmt.Errorf("unification failure: %q arity mismatch", x.Payload.Text)
			}
			for i := range x.Children {
				work = append(work, pair{x.Children[i], y.Children[i]})
			}
		case ir.KindConcreteIntTypeParam:
			if x.Payload.Int != y.Payload.Int {
				return nil, fmt.Errorf("unification failure: distinct int-params %d vs %d", x.Payload.Int, y.Payload.Int)
			}
		case ir.KindRecType:
			return nil, fmt.Errorf("unification failure: distinct recursive types are not unified structurally")
		default:
			if len(x.Children) != len(y.Children) {
				return nil, fmt.Errorf("unification failure: %s arity mismatch", x.Kind)
			}
			for i := range x.Children {
				work = append(work, pair{x.Children[i], y.Children[i]})
			}
		}
	}
	return sub, nil
}

func isVar(n *ir.Node) bool {
	return n.Kind == ir.KindTypeVariable || n.Kind == ir.KindVariableIntTypeParam
}

// occurs reports whether v appears anywhere in t's subtree.
func occurs(v, t *ir.Node) bool {
	if t == v {
		return true
	}
	for _, c := range t.Children {
		if occurs(v, c) {
			return true
		}
	}
	return false
}
