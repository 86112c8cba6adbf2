package typesys

import (
	"fmt"

	"github.com/inspirecore/inspire/internal/ir"
)

// Join returns the smallest common super-type of a and b, found by walking
// the ascending super-type chain from each side until the chains intersect.
// Join is symmetric. The manager is needed to intern the result when the
// answer is neither input (a mid-ladder common ancestor).
func Join(m *ir.Manager, a, b *ir.Node) (*ir.Node, error) {
	if a == b {
		return a, nil
	}
	if r, ok := vectorArrayJoinMeet(a, b, true); ok {
		return r, nil
	}
	ka, okA := numericWidthKey(a)
	kb, okB := numericWidthKey(b)
	if okA && okB && ka.family == kb.family {
		chainA := superTypeClosure(ka)
		chainB := superTypeClosure(kb)
		if common, ok := firstCommon(chainA, chainB); ok {
			return widthKeyNode(m, common)
		}
	}
	return nil, fmt.Errorf("no join exists for %s and %s", ir.Print(a), ir.Print(b))
}

// Meet returns the largest common sub-type (the dual of Join). Meet is
// symmetric.
func Meet(m *ir.Manager, a, b *ir.Node) (*ir.Node, error) {
	if a == b {
		return a, nil
	}
	if r, ok := vectorArrayJoinMeet(a, b, false); ok {
		return r, nil
	}
	ka, okA := numericWidthKey(a)
	kb, okB := numericWidthKey(b)
	if okA && okB && ka.family == kb.family {
		if reachable(ka, kb) {
			return a, nil
		}
		if reachable(kb, ka) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no meet exists for %s and %s", ir.Print(a), ir.Print(b))
}

// vectorArrayJoinMeet implements the explicit rule: join(Vector(T,n),
// Array(T)) = Array(T); dually, meet(Vector(T,n), Array(T)) = Vector(T,n).
func vectorArrayJoinMeet(a, b *ir.Node, wantJoin bool) (*ir.Node, bool) {
	vec, arr := pickVectorArray(a, b)
	if vec == nil || arr == nil {
		return nil, false
	}
	if vec.Child(0) != arr.Child(0) {
		return nil, false
	}
	if wantJoin {
		return arr, true
	}
	return vec, true
}

func pickVectorArray(a, b *ir.Node) (vector *ir.Node, array *ir.Node) {
	if a.Kind == ir.KindVectorType && b.Kind == ir.KindArrayType {
		return a, b
	}
	if b.Kind == ir.KindVectorType && a.Kind == ir.KindArrayType {
		return b, a
	}
	return nil, nil
}

func firstCommon(a, b []widthKey) (widthKey, bool) {
	set := make(map[widthKey]bool, len(b))
	for _, k := range b {
		set[k] = true
	}
	for _, k := range a {
		if set[k] {
			return k, true
		}
	}
	return widthKey{}, false
}

// widthKeyNode interns the GenericType node for k through m.
func widthKeyNode(m *ir.Manager, k widthKey) (*ir.Node, error) {
	p, err := m.ConcreteIntTypeParam(k.width)
	if err != nil {
		return nil, err
	}
	return m.GenericType(k.family, nil, []*ir.Node{p}, nil)
}
