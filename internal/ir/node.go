package ir

import "fmt"

// Payload carries the non-structural leaf data of a node: family/identifier
// names, literal text, the integer value of a concrete int-type-param, a
// fresh variable id, or a boolean flag (e.g. FunctionType.plain). Exactly
// which fields are meaningful depends on the node's Kind; unused fields are
// left at their zero value and participate in the structural key regardless
// so that, say, a GenericType with no int-param is never confused with one
// whose Int field happens to coincide with another kind's Text field.
type Payload struct {
	Text string
	Int  int64
	Flag bool
}

// Node is an immutable, hash-consed IR entity — invariants I1 and I2 of the
// core design. Only the Node Manager that produced it may construct one;
// callers always go through the per-kind constructors in this package (or
// the typed smart constructors in internal/ir/builder).
type Node struct {
	Kind     Kind
	Children []*Node
	Payload  Payload

	id   uint64 // manager-assigned serial, used only to build structural keys
	hash uint64

	anns *annotationMap
}

// Category returns the node's fixed category.
func (n *Node) Category() Category {
	return n.Kind.Category()
}

// Child returns the i-th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Arity returns the number of children.
func (n *Node) Arity() int {
	return len(n.Children)
}

// Hash returns the precomputed structural hash. It is derived only from
// Kind, Payload and the identities of Children — never from annotations
// (invariant: annotation transparency).
func (n *Node) Hash() uint64 {
	return n.hash
}

// structKey is the map key used by the Node Manager's hash-cons cache. Since
// every child is already a canonical, interned *Node, its manager-assigned
// id stands in for "structural content" — two nodes with the same Kind,
// Payload and sequence of child ids are the same node by construction.
type structKey struct {
	kind     Kind
	payload  Payload
	children string
}

func childKey(children []*Node) string {
	// Hex id plus a trailing separator keeps the encoding collision-free
	// without extra allocation per child.
	buf := make([]byte, 0, len(children)*8)
	for _, c := range children {
		buf = append(buf, fmt.Sprintf("%x|", c.id)...)
	}
	return string(buf)
}

func makeKey(kind Kind, payload Payload, children []*Node) structKey {
	return structKey{kind: kind, payload: payload, children: childKey(children)}
}
