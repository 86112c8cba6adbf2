package ir

// EntryPoint wraps a single top-level expression (almost always a
// LambdaExpr) exposed by a Program, carrying whether it is the program's
// designated `main`.
func (m *Manager) EntryPoint(expr *Node, isMain bool) (*Node, error) {
	return m.Get(KindEntryPoint, Payload{Flag: isMain}, expr)
}

func EntryPointExpr(n *Node) *Node  { return n.Child(0) }
func EntryPointIsMain(n *Node) bool { return n.Payload.Flag }

// Program constructs the root node exposed to downstream analyses:
// an ordered list of entry points.
func (m *Manager) Program(entryPoints []*Node) (*Node, error) {
	return m.Get(KindProgram, Payload{}, entryPoints...)
}

func ProgramEntryPoints(n *Node) []*Node { return n.Children }

// ProgramMain returns the entry point marked as main, or nil.
func ProgramMain(n *Node) *Node {
	for _, ep := range n.Children {
		if EntryPointIsMain(ep) {
			return ep
		}
	}
	return nil
}
