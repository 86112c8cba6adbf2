package typesys

import "github.com/inspirecore/inspire/internal/ir"

// widthKey identifies one rung of a numeric family's width ladder, e.g.
// ("int", 4) for int<4>.
type widthKey struct {
	family string
	width  int64
}

// directSuperTypes is the fixed table of direct super-type edges for the
// primitive integer/real families, grounded on the width ladder the
// original compiler's type table encodes (int<4> <= int<8> <= int<16>,
// and so on) rather than a derived numeric comparison — two families never
// compare across each other directly.
var directSuperTypes = buildLadder(map[string][]int64{
	"int":  {1, 2, 4, 8, 16},
	"uint": {1, 2, 4, 8, 16},
	"real": {4, 8},
})

func buildLadder(widths map[string][]int64) map[widthKey]widthKey {
	edges := make(map[widthKey]widthKey)
	for family, ladder := range widths {
		for i := 0; i+1 < len(ladder); i++ {
			edges[widthKey{family, ladder[i]}] = widthKey{family, ladder[i+1]}
		}
	}
	return edges
}

func numericWidthKey(n *ir.Node) (widthKey, bool) {
	if n.Kind != ir.KindGenericType {
		return widthKey{}, false
	}
	switch n.Payload.Text {
	case "int", "uint", "real":
	default:
		return widthKey{}, false
	}
	_, intParams, _ := ir.GenericTypeParams(n)
	if len(intParams) != 1 || intParams[0].Kind != ir.KindConcreteIntTypeParam {
		return widthKey{}, false
	}
	return widthKey{family: n.Payload.Text, width: intParams[0].Payload.Int}, true
}

// IsSubType reports whether A is a subtype of B: reflexive
// and transitive over the primitive-family lattice, extended with
// Vector(T,n) <= Array(T), function contravariance/covariance, and nominal
// (structural) equality for everything else.
func IsSubType(a, b *ir.Node) bool {
	if a == b {
		return true
	}
	if ka, ok := numericWidthKey(a); ok {
		if kb, ok := numericWidthKey(b); ok {
			return reachable(ka, kb)
		}
		return false
	}
	if a.Kind == ir.KindVectorType && b.Kind == ir.KindArrayType {
		return a.Child(0) == b.Child(0)
	}
	if a.Kind == ir.KindFunctionType && b.Kind == ir.KindFunctionType {
		aParams, bParams := ir.FunctionTypeParams(a), ir.FunctionTypeParams(b)
		if len(aParams) != len(bParams) {
			return false
		}
		// Contravariant in parameters: b's params must be subtypes of a's.
		for i := range aParams {
			if !IsSubType(bParams[i], aParams[i]) {
				return false
			}
		}
		// Covariant in return.
		return IsSubType(ir.FunctionTypeReturn(a), ir.FunctionTypeReturn(b))
	}
	return false
}

// reachable performs a BFS over directSuperTypes from a to see if b is in
// its reflexive-transitive closure.
func reachable(a, b widthKey) bool {
	if a == b {
		return true
	}
	visited := map[widthKey]bool{a: true}
	queue := []widthKey{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		next, ok := directSuperTypes[cur]
		if !ok {
			continue
		}
		if next == b {
			return true
		}
		if !visited[next] {
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

// superTypeClosure returns the reflexive-transitive closure of direct
// super-types reachable from k, used by Join to intersect the two chains.
func superTypeClosure(k widthKey) []widthKey {
	closure := []widthKey{k}
	cur := k
	for {
		next, ok := directSuperTypes[cur]
		if !ok {
			return closure
		}
		closure = append(closure, next)
		cur = next
	}
}
