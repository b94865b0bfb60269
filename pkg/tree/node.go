// Package tree implements the state engine behind treeline's tree widget:
// a flat, validated node index with accessible traversal, tri-state
// selection with configurable propagation, controlled/uncontrolled
// reconciliation, and a keyboard command interpreter.
//
// The engine is headless. It owns selection, expansion and focus state and
// exposes them as immutable snapshots; rendering lives elsewhere (pkg/ui
// consumes the engine for the terminal front-end). All operations are
// synchronous and single-goroutine: one dispatched action settles fully
// before the next begins, and observers only ever see settled snapshots.
package tree

import (
	"fmt"
	"strings"
)

// Node is one entry of the flat tree description handed to New. Children
// are referenced by id in display order. A node with no children may still
// be a branch by carrying IsBranch, the marker for subtrees whose children
// arrive later through lazy loading.
type Node struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Children []string          `json:"children,omitempty" yaml:"children,omitempty"`
	IsBranch bool              `json:"branch,omitempty" yaml:"branch,omitempty"`
	Notes    string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	Meta     map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NestedNode is the literal-friendly nested form accepted by Flatten.
// The top-level value acts as an anonymous container: only its Children
// are emitted, mirroring the synthetic root of a built Tree.
type NestedNode struct {
	ID       string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string            `json:"name" yaml:"name"`
	IsBranch bool              `json:"branch,omitempty" yaml:"branch,omitempty"`
	Notes    string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	Meta     map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	Children []NestedNode      `json:"children,omitempty" yaml:"children,omitempty"`
}

// entry is the per-node index record. Parent is "" for top-level nodes,
// which hang off the synthetic root; the root itself is never stored.
type entry struct {
	node   Node
	parent string
	depth  int
}

// Tree is an immutable, validated node index. Construction derives parent
// links and depths from the child lists and guarantees that every node is
// reachable from exactly one place, so traversal never has to re-check
// structure. The synthetic root (parent of the top-level nodes) is implied
// and never appears in lookups, state fields or traversal results.
type Tree struct {
	entries map[string]*entry
	order   []string // preorder over all nodes, roots first
	roots   []string // top-level ids in input order
}

// New builds a Tree from a flat node list. It fails on empty or duplicate
// ids, on child references to missing nodes, on a node claimed as child by
// more than one parent, and on nodes unreachable from any top-level node
// (which covers both cycles and disconnected fragments).
func New(nodes []Node) (*Tree, error) {
	t := &Tree{entries: make(map[string]*entry, len(nodes))}

	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("node %d (%q) has an empty id", i, n.Name)
		}
		if _, ok := t.entries[n.ID]; ok {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		// Own the child slice so later caller mutations cannot reach in.
		n.Children = append([]string(nil), n.Children...)
		t.entries[n.ID] = &entry{node: n}
	}

	claimed := make(map[string]string, len(nodes))
	for _, n := range nodes {
		for _, child := range n.Children {
			if _, ok := t.entries[child]; !ok {
				return nil, fmt.Errorf("child %q of node %q not found", child, n.ID)
			}
			if owner, ok := claimed[child]; ok {
				return nil, fmt.Errorf("node %q claimed as child by both %q and %q", child, owner, n.ID)
			}
			claimed[child] = n.ID
		}
	}

	for _, n := range nodes {
		if _, ok := claimed[n.ID]; !ok {
			t.roots = append(t.roots, n.ID)
		}
	}
	if len(nodes) > 0 && len(t.roots) == 0 {
		return nil, fmt.Errorf("no top-level nodes: every node is claimed as a child (cycle)")
	}

	t.order = make([]string, 0, len(nodes))
	for _, id := range t.roots {
		t.index(id, "", 0)
	}
	if len(t.order) != len(nodes) {
		seen := make(map[string]bool, len(t.order))
		for _, id := range t.order {
			seen[id] = true
		}
		for _, n := range nodes {
			if !seen[n.ID] {
				return nil, fmt.Errorf("node %q unreachable from any top-level node", n.ID)
			}
		}
	}
	return t, nil
}

// index assigns parent and depth in preorder. Reachability is bounded by
// the single-parent check in New, so no visited set is needed.
func (t *Tree) index(id, parent string, depth int) {
	e := t.entries[id]
	e.parent = parent
	e.depth = depth
	t.order = append(t.order, id)
	for _, child := range e.node.Children {
		t.index(child, id, depth+1)
	}
}

// Flatten converts a nested literal into the flat form New accepts. The
// container's own identity is dropped; its Children become top-level
// nodes. Nodes without an explicit ID get their name path ("a/b/c"), so
// sibling names must be unique unless ids are given.
func Flatten(container NestedNode) []Node {
	var out []Node
	for i := range container.Children {
		flattenInto(&out, container.Children[i], "")
	}
	return out
}

func flattenInto(out *[]Node, n NestedNode, prefix string) string {
	id := n.ID
	if id == "" {
		id = n.Name
		if prefix != "" {
			id = prefix + "/" + n.Name
		}
	}
	node := Node{ID: id, Name: n.Name, IsBranch: n.IsBranch, Notes: n.Notes, Meta: n.Meta}
	slot := len(*out)
	*out = append(*out, node)
	for i := range n.Children {
		childID := flattenInto(out, n.Children[i], id)
		(*out)[slot].Children = append((*out)[slot].Children, childID)
	}
	return id
}

// Len returns the number of nodes, the synthetic root excluded.
func (t *Tree) Len() int { return len(t.entries) }

// Has reports whether id names a node in the tree.
func (t *Tree) Has(id string) bool {
	_, ok := t.entries[id]
	return ok
}

// Get returns the node for id.
func (t *Tree) Get(id string) (Node, bool) {
	e, ok := t.entries[id]
	if !ok {
		return Node{}, false
	}
	return e.node, true
}

// Parent returns the parent id of id. Top-level nodes (children of the
// synthetic root) and unknown ids report ("", false).
func (t *Tree) Parent(id string) (string, bool) {
	e, ok := t.entries[id]
	if !ok || e.parent == "" {
		return "", false
	}
	return e.parent, true
}

// ChildIDs returns id's children in display order. The returned slice is
// shared; callers must not modify it.
func (t *Tree) ChildIDs(id string) []string {
	e, ok := t.entries[id]
	if !ok {
		return nil
	}
	return e.node.Children
}

// IsBranch reports whether id is a branch: it has children, or it is
// declared one for lazy loading.
func (t *Tree) IsBranch(id string) bool {
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	return e.node.IsBranch || len(e.node.Children) > 0
}

// Depth returns id's depth, 0 for top-level nodes and -1 for unknown ids.
func (t *Tree) Depth(id string) int {
	e, ok := t.entries[id]
	if !ok {
		return -1
	}
	return e.depth
}

// Roots returns the top-level ids in input order. Shared slice, read-only.
func (t *Tree) Roots() []string { return t.roots }

// IDs returns every id in document order (preorder). Shared, read-only.
func (t *Tree) IDs() []string { return t.order }

// AncestorIDs returns id's ancestors nearest-first, the synthetic root
// excluded. Top-level nodes have none.
func (t *Tree) AncestorIDs(id string) []string {
	var out []string
	cur, ok := t.Parent(id)
	for ok {
		out = append(out, cur)
		cur, ok = t.Parent(cur)
	}
	return out
}

// siblings returns the ordered child list id belongs to: the parent's
// children, or the top-level list under the synthetic root.
func (t *Tree) siblings(id string) []string {
	e, ok := t.entries[id]
	if !ok {
		panic(corrupt("unknown id " + id))
	}
	if e.parent == "" {
		return t.roots
	}
	p, ok := t.entries[e.parent]
	if !ok {
		panic(corrupt("missing parent " + e.parent + " of " + id))
	}
	return p.node.Children
}

// corrupt formats the panic message for structural violations. These are
// unreachable for trees built through New; they exist so traversal bugs
// fail loudly instead of masquerading as an exhausted iteration.
func corrupt(detail string) string {
	return "treeline: corrupt tree: " + detail
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// String renders a compact ASCII outline, handy in test failures.
func (t *Tree) String() string {
	var b strings.Builder
	for _, id := range t.order {
		e := t.entries[id]
		b.WriteString(strings.Repeat("  ", e.depth))
		b.WriteString(e.node.Name)
		if e.node.Name == "" {
			b.WriteString(id)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
