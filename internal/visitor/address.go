// Package visitor implements the four traversal modes of the visitor
// framework: Recursive, VisitOnce, Interruptible and Prunable, each in a
// pointer-identity flavor and an address-aware (occurrence-tracking)
// flavor, following the go/ast Walk/Inspect pattern — a Visitor whose
// Visit callback decides whether to keep descending, rather than a
// reflection-driven field walk.
package visitor

import (
	"strconv"
	"strings"

	"github.com/inspirecore/inspire/internal/ir"
)

// Address identifies one occurrence of a node by the sequence of child
// indices from the traversal root — the same node value reached through
// two different paths is two distinct Addresses, which is the whole point
// of carrying them: hash-consing makes *ir.Node identity occurrence-blind.
type Address []int

func (a Address) String() string {
	if len(a) == 0 {
		return "/"
	}
	parts := make([]string, len(a))
	for i, idx := range a {
		parts[i] = strconv.Itoa(idx)
	}
	return "/" + strings.Join(parts, "/")
}

// Child returns a new Address one level deeper, at child index i. The
// receiver is never mutated.
func (a Address) Child(i int) Address {
	next := make(Address, len(a)+1)
	copy(next, a)
	next[len(a)] = i
	return next
}

// At resolves an Address against root, or returns nil if any step is out
// of range.
func At(root *ir.Node, addr Address) *ir.Node {
	n := root
	for _, idx := range addr {
		n = n.Child(idx)
		if n == nil {
			return nil
		}
	}
	return n
}

// Order selects prefix (visit node, then children) or postfix (children,
// then node) traversal order.
type Order int

const (
	Prefix Order = iota
	Postfix
)
