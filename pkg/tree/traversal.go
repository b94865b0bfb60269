package tree

// Traversal over the accessible sequence: the nodes reachable with arrow
// keys given the current expansion frontier. Collapsed branches are
// opaque; their subtrees do not exist for these walks. All functions treat
// the synthetic root as the fixed boundary and never return it.

// visibleChildren reports whether id's children are on the accessible
// frontier.
func (t *Tree) visibleChildren(expanded IDSet, id string) bool {
	return expanded.Has(id) && len(t.ChildIDs(id)) > 0
}

// FirstAccessible returns the first top-level node, the entry point of the
// accessible sequence. False only for an empty tree.
func (t *Tree) FirstAccessible() (string, bool) {
	if len(t.roots) == 0 {
		return "", false
	}
	return t.roots[0], true
}

// NextAccessible returns the node after id in the accessible sequence:
// the first child when id's subtree is visible, otherwise the nearest
// following sibling walking up the ancestor chain. ("", false) past the
// last accessible node.
func (t *Tree) NextAccessible(expanded IDSet, id string) (string, bool) {
	if t.visibleChildren(expanded, id) {
		return t.ChildIDs(id)[0], true
	}
	cur := id
	for {
		sibs := t.siblings(cur)
		idx := indexOf(sibs, cur)
		if idx < 0 {
			panic(corrupt("node " + cur + " missing from its sibling order"))
		}
		if idx+1 < len(sibs) {
			return sibs[idx+1], true
		}
		parent, ok := t.Parent(cur)
		if !ok {
			return "", false // last top-level subtree exhausted
		}
		cur = parent
	}
}

// PreviousAccessible returns the node before id: the previous sibling's
// deepest visible descendant, or the parent when id is a first child.
// ("", false) at the first top-level node.
func (t *Tree) PreviousAccessible(expanded IDSet, id string) (string, bool) {
	sibs := t.siblings(id)
	idx := indexOf(sibs, id)
	if idx < 0 {
		panic(corrupt("node " + id + " missing from its sibling order"))
	}
	if idx == 0 {
		return t.Parent(id)
	}
	return t.deepestVisible(expanded, sibs[idx-1]), true
}

// deepestVisible descends along last children while subtrees stay
// visible.
func (t *Tree) deepestVisible(expanded IDSet, id string) string {
	cur := id
	for t.visibleChildren(expanded, cur) {
		children := t.ChildIDs(cur)
		cur = children[len(children)-1]
	}
	return cur
}

// LastAccessible returns the final node of the accessible sequence. False
// only for an empty tree.
func (t *Tree) LastAccessible(expanded IDSet) (string, bool) {
	if len(t.roots) == 0 {
		return "", false
	}
	return t.deepestVisible(expanded, t.roots[len(t.roots)-1]), true
}

// Descendants returns id's whole subtree below id in preorder, regardless
// of expansion. This is the scope for selection propagation and collapse
// cascades.
func (t *Tree) Descendants(id string) []string {
	var out []string
	var walk func(string)
	walk = func(cur string) {
		for _, child := range t.ChildIDs(cur) {
			out = append(out, child)
			walk(child)
		}
	}
	walk(id)
	return out
}

// AccessibleIDs returns the full accessible sequence in order.
func (t *Tree) AccessibleIDs(expanded IDSet) []string {
	id, ok := t.FirstAccessible()
	if !ok {
		return nil
	}
	out := []string{id}
	for {
		id, ok = t.NextAccessible(expanded, id)
		if !ok {
			return out
		}
		out = append(out, id)
	}
}

// AccessibleRange returns the inclusive accessible sequence between a and
// b in document order, whichever of the two comes first. One forward walk
// from a decides the orientation: if it exhausts without meeting b, then b
// precedes a and the walk is redone from b. Unknown ids yield nil.
func (t *Tree) AccessibleRange(expanded IDSet, a, b string) []string {
	if !t.Has(a) || !t.Has(b) {
		return nil
	}
	if a == b {
		return []string{a}
	}
	if r := t.walkTo(expanded, a, b); r != nil {
		return r
	}
	return t.walkTo(expanded, b, a)
}

// walkTo collects from from to to inclusive, nil if to is not ahead.
func (t *Tree) walkTo(expanded IDSet, from, to string) []string {
	out := []string{from}
	cur := from
	for {
		next, ok := t.NextAccessible(expanded, cur)
		if !ok {
			return nil
		}
		out = append(out, next)
		if next == to {
			return out
		}
		cur = next
	}
}
