package ir

// Tree is a plain, comparable snapshot of a node's shape, used in tests
// with google/go-cmp where a reference-equality check isn't expressive
// enough (e.g. asserting two independently-built subtrees have the same
// structure without caring whether they share a Manager).
type Tree struct {
	Kind     Kind
	Payload  Payload
	Children []Tree
}

// Dump converts n into a Tree snapshot suitable for cmp.Diff.
func Dump(n *Node) Tree {
	if n == nil {
		return Tree{}
	}
	children := make([]Tree, len(n.Children))
	for i, c := range n.Children {
		children[i] = Dump(c)
	}
	return Tree{Kind: n.Kind, Payload: n.Payload, Children: children}
}
