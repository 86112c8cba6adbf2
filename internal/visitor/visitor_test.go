package visitor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inspirecore/inspire/internal/ir"
	"github.com/inspirecore/inspire/internal/visitor"
)

// buildShared builds a small tree with one node (elem) shared by two
// parents, so visit-once and pointer-identity behavior is exercised.
func buildShared(t *testing.T, m *ir.Manager) (root *ir.Node, elem *ir.Node) {
	t.Helper()
	p, err := m.ConcreteIntTypeParam(4)
	require.NoError(t, err)
	elem, err = m.GenericType("int", nil, []*ir.Node{p}, nil)
	require.NoError(t, err)
	arr, err := m.ArrayType(elem)
	require.NoError(t, err)
	vec, err := m.VectorType(elem, 3)
	require.NoError(t, err)
	tuple, err := m.TupleType([]*ir.Node{arr, vec})
	require.NoError(t, err)
	return tuple, elem
}

func TestRecursiveRevisitsSharedSubtree(t *testing.T) {
	m := ir.NewManager()
	root, elem := buildShared(t, m)

	count := 0
	visitor.Recursive(root, visitor.Prefix, func(n *ir.Node) {
		if n == elem {
			count++
		}
	})
	// elem is the element type of both ArrayType and VectorType, so it is
	// reached through two distinct occurrences.
	require.Equal(t, 2, count)
}

func TestVisitOnceVisitsSharedNodeExactlyOnce(t *testing.T) {
	m := ir.NewManager()
	root, elem := buildShared(t, m)

	count := 0
	visitor.VisitOnce(root, visitor.Prefix, func(n *ir.Node) {
		if n == elem {
			count++
		}
	})
	require.Equal(t, 1, count)
}

func TestInterruptibleHaltsOnFalse(t *testing.T) {
	m := ir.NewManager()
	root, _ := buildShared(t, m)

	visited := 0
	visitor.Interruptible(root, visitor.Prefix, func(n *ir.Node) bool {
		visited++
		return visited < 2
	})
	require.Equal(t, 2, visited)
}

func TestPrunableSkipsChildrenWhenDeclined(t *testing.T) {
	m := ir.NewManager()
	root, elem := buildShared(t, m)

	var visitedElem bool
	visitor.Prunable(root, visitor.Prefix, func(n *ir.Node) bool {
		if n == elem {
			visitedElem = true
		}
		return n.Kind != ir.KindArrayType
	})
	require.True(t, visitedElem)
}

func TestPrunableReachesSharedNodeThroughUnprunedParent(t *testing.T) {
	m := ir.NewManager()
	root, _ := buildShared(t, m)

	var sawConcreteIntParam bool
	visitor.Prunable(root, visitor.Prefix, func(n *ir.Node) bool {
		if n.Kind == ir.KindConcreteIntTypeParam {
			sawConcreteIntParam = true
		}
		return n.Kind != ir.KindVectorType
	})
	// VectorType is pruned, but its element type (and that type's
	// ConcreteIntTypeParam child) is shared with ArrayType, which is not
	// pruned, so the int-param is still reached through ArrayType.
	require.True(t, sawConcreteIntParam)
}

func TestRecursiveAddrProducesDistinctAddresses(t *testing.T) {
	m := ir.NewManager()
	root, elem := buildShared(t, m)

	var addrs []visitor.Address
	visitor.RecursiveAddr(root, visitor.Prefix, func(addr visitor.Address, n *ir.Node) {
		if n == elem {
			addrs = append(addrs, addr)
		}
	})
	require.Len(t, addrs, 2)
	require.NotEqual(t, addrs[0].String(), addrs[1].String())
}

func TestAddressAtRoundTrips(t *testing.T) {
	m := ir.NewManager()
	root, elem := buildShared(t, m)

	var addr visitor.Address
	visitor.RecursiveAddr(root, visitor.Prefix, func(a visitor.Address, n *ir.Node) {
		if n == elem && addr == nil {
			addr = a
		}
	})
	require.NotNil(t, addr)
	require.Same(t, elem, visitor.At(root, addr))
}

func TestInspectFindsNodesByKind(t *testing.T) {
	m := ir.NewManager()
	root, _ := buildShared(t, m)

	var vectorTypes int
	visitor.Inspect(root, func(n *ir.Node) bool {
		if n.Kind == ir.KindVectorType {
			vectorTypes++
		}
		return true
	})
	require.Equal(t, 1, vectorTypes)
}
