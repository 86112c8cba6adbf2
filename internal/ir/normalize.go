package ir

// Normalize renders n the same way Print does, but renumbers Variable
// fresh-ids deterministically by first pre-order occurrence instead of by
// their process-global construction order. Tests that pin exact variable
// names should compare Normalize output, not Print output — the raw
// fresh-id numbering is order-dependent across runs and is not a contract
// this package makes to callers.
func Normalize(n *Node) string {
	renumbered, seen := map[int64]int64{}, map[int64]bool{}
	var next int64 = 1
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur == nil {
			return
		}
		if cur.Kind == KindVariable {
			id := VariableFreshID(cur)
			if !seen[id] {
				seen[id] = true
				renumbered[id] = next
				next++
			}
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return Print(remapVariables(n, renumbered))
}

// remapVariables returns a structurally equivalent tree where every
// Variable's Payload.Int has been replaced per remap. It does not intern
// through a Manager — it builds throwaway nodes purely for printing, since
// normalized output is for display/comparison, not for further conversion.
func remapVariables(n *Node, remap map[int64]int64) *Node {
	if n == nil {
		return nil
	}
	children := make([]*Node, len(n.Children))
	changed := false
	for i, c := range n.Children {
		nc := remapVariables(c, remap)
		children[i] = nc
		if nc != c {
			changed = true
		}
	}
	if n.Kind == KindVariable {
		newID, ok := remap[VariableFreshID(n)]
		if ok && newID != n.Payload.Int {
			return &Node{Kind: n.Kind, Children: children, Payload: Payload{Int: newID}, anns: n.anns}
		}
	}
	if !changed {
		return n
	}
	return &Node{Kind: n.Kind, Children: children, Payload: n.Payload, anns: n.anns}
}
