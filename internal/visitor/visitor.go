package visitor

import "github.com/inspirecore/inspire/internal/ir"

// Recursive walks every occurrence of every node in the tree rooted at
// root, depth-first, in the given order. Shared subtrees are revisited
// once per occurrence — the naive mode, useful when the callback's cost
// is dominated by the node itself rather than its subtree.
func Recursive(root *ir.Node, order Order, visit func(n *ir.Node)) {
	if root == nil {
		return
	}
	if order == Prefix {
		visit(root)
	}
	for _, c := range root.Children {
		Recursive(c, order, visit)
	}
	if order == Postfix {
		visit(root)
	}
}

// RecursiveAddr is Recursive's address-aware flavor: visit additionally
// receives the path from root to the current occurrence.
func RecursiveAddr(root *ir.Node, order Order, visit func(addr Address, n *ir.Node)) {
	var walk func(addr Address, n *ir.Node)
	walk = func(addr Address, n *ir.Node) {
		if n == nil {
			return
		}
		if order == Prefix {
			visit(addr, n)
		}
		for i, c := range n.Children {
			walk(addr.Child(i), c)
		}
		if order == Postfix {
			visit(addr, n)
		}
	}
	walk(nil, root)
}

// VisitOnce walks the tree rooted at root, visiting each distinct node
// (by pointer identity) exactly once regardless of how many occurrences
// it has — the natural mode for hash-consed IR, since a shared subtree's
// cost should be paid once.
func VisitOnce(root *ir.Node, order Order, visit func(n *ir.Node)) {
	seen := make(map[*ir.Node]bool)
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		if order == Prefix {
			visit(n)
		}
		for _, c := range n.Children {
			walk(c)
		}
		if order == Postfix {
			visit(n)
		}
	}
	walk(root)
}

// VisitOnceAddr combines address-awareness with visit-once descent: visit
// is called for every occurrence the walk reaches, with its address, but a
// node already visited through an earlier occurrence is not traversed into
// again, so occurrences inside its subtree are not offered a second time.
func VisitOnceAddr(root *ir.Node, order Order, visit func(addr Address, n *ir.Node)) {
	seen := make(map[*ir.Node]bool)
	var walk func(addr Address, n *ir.Node)
	walk = func(addr Address, n *ir.Node) {
		if n == nil {
			return
		}
		if seen[n] {
			visit(addr, n)
			return
		}
		seen[n] = true
		if order == Prefix {
			visit(addr, n)
		}
		for i, c := range n.Children {
			walk(addr.Child(i), c)
		}
		if order == Postfix {
			visit(addr, n)
		}
	}
	walk(nil, root)
}

// Interruptible walks the tree visit-once, halting entirely the first time
// visit returns false.
func Interruptible(root *ir.Node, order Order, visit func(n *ir.Node) bool) {
	seen := make(map[*ir.Node]bool)
	halted := false
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil || halted || seen[n] {
			return
		}
		seen[n] = true
		if order == Prefix {
			if !visit(n) {
				halted = true
				return
			}
		}
		for _, c := range n.Children {
			if halted {
				return
			}
			walk(c)
		}
		if order == Postfix && !halted {
			if !visit(n) {
				halted = true
			}
		}
	}
	walk(root)
}

// InterruptibleAddr is Interruptible's address-aware flavor.
func InterruptibleAddr(root *ir.Node, order Order, visit func(addr Address, n *ir.Node) bool) {
	seen := make(map[*ir.Node]bool)
	halted := false
	var walk func(addr Address, n *ir.Node)
	walk = func(addr Address, n *ir.Node) {
		if n == nil || halted || seen[n] {
			return
		}
		seen[n] = true
		if order == Prefix {
			if !visit(addr, n) {
				halted = true
				return
			}
		}
		for i, c := range n.Children {
			if halted {
				return
			}
			walk(addr.Child(i), c)
		}
		if order == Postfix && !halted {
			if !visit(addr, n) {
				halted = true
			}
		}
	}
	walk(nil, root)
}

// Prunable walks the tree visit-once; visit is called the first time a
// node's identity is reached and returns whether to descend into its
// children. A later occurrence of the same node (reached via sharing)
// reuses the first call's descend decision instead of calling visit again
// — the pointer-identity counterpart of PrunableAddr, which decides per
// occurrence instead.
func Prunable(root *ir.Node, order Order, visit func(n *ir.Node) (descend bool)) {
	decision := make(map[*ir.Node]bool)
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil {
			return
		}
		descend, seen := decision[n]
		if !seen {
			if order == Prefix {
				descend = visit(n)
			} else {
				descend = true
			}
			decision[n] = descend
		}
		if descend {
			for _, c := range n.Children {
				walk(c)
			}
		}
		if order == Postfix && !seen {
			visit(n)
		}
	}
	walk(root)
}

// PrunableAddr is Prunable's address-aware flavor: every occurrence is
// offered independently, since whether to cut a shared subtree away can
// legitimately differ by the path taken to reach it.
func PrunableAddr(root *ir.Node, order Order, visit func(addr Address, n *ir.Node) (descend bool)) {
	var walk func(addr Address, n *ir.Node)
	walk = func(addr Address, n *ir.Node) {
		if n == nil {
			return
		}
		var descend bool
		if order == Prefix {
			descend = visit(addr, n)
		} else {
			descend = true
		}
		if descend {
			for i, c := range n.Children {
				walk(addr.Child(i), c)
			}
		}
		if order == Postfix {
			visit(addr, n)
		}
	}
	walk(nil, root)
}

// Inspect is the Prunable-mode convenience wrapper in the style of
// go/ast.Inspect: f is called for n and each distinct descendant once
// (prefix order); if f returns false, Inspect skips n's children.
func Inspect(root *ir.Node, f func(n *ir.Node) bool) {
	Prunable(root, Prefix, f)
}
