package tree_test

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// genNodes draws a random forest: every node picks a parent among the
// nodes before it, or none. Parents always precede children, so the
// result is acyclic and New never rejects it.
func genNodes(t *rapid.T) []tree.Node {
	n := rapid.IntRange(1, 24).Draw(t, "nodes")
	children := make([][]string, n)
	for i := 1; i < n; i++ {
		p := rapid.IntRange(-1, i-1).Draw(t, fmt.Sprintf("parent-%d", i))
		if p >= 0 {
			children[p] = append(children[p], fmt.Sprintf("n%d", i))
		}
	}
	nodes := make([]tree.Node, n)
	for i := range nodes {
		nodes[i] = tree.Node{
			ID:       fmt.Sprintf("n%d", i),
			Name:     fmt.Sprintf("Node %d", i),
			Children: children[i],
		}
	}
	return nodes
}

func drawEngine(t *rapid.T, cfg tree.Config) *tree.Engine {
	e, err := tree.NewEngine(genNodes(t), cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// checkStateInvariants asserts the structural facts every settled
// snapshot promises: the selection sets are disjoint, half-selection and
// expansion hold only branches, and focus names a live node.
func checkStateInvariants(t *rapid.T, e *tree.Engine) {
	s := e.State()
	tr := e.Tree()
	for _, id := range s.SelectedIDs.Values() {
		if s.HalfSelectedIDs.Has(id) {
			t.Fatalf("%s is both selected and half-selected", id)
		}
		if !tr.Has(id) {
			t.Fatalf("selected id %s not in tree", id)
		}
	}
	for _, id := range s.HalfSelectedIDs.Values() {
		if !tr.IsBranch(id) {
			t.Fatalf("half-selected id %s is not a branch", id)
		}
	}
	for _, id := range s.ExpandedIDs.Values() {
		if !tr.IsBranch(id) {
			t.Fatalf("expanded id %s is not a branch", id)
		}
	}
	if tr.Len() > 0 && !tr.Has(s.TabbableID) {
		t.Fatalf("tabbable id %q not in tree", s.TabbableID)
	}
}

func TestPropStateInvariantsUnderRandomActions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := tree.Config{
			MultiSelect:            true,
			PropagateSelect:        true,
			PropagateSelectUpwards: true,
			TogglableSelect:        true,
			PropagateCollapse:      rapid.Bool().Draw(t, "propagate-collapse"),
		}
		e := drawEngine(t, cfg)
		ids := e.Tree().IDs()

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(t, "target")
			switch rapid.IntRange(0, 5).Draw(t, "op") {
			case 0:
				e.SelectNode(id)
			case 1:
				e.Dispatch(tree.ToggleExpand{ID: id})
			case 2:
				e.Dispatch(tree.Focus{ID: id})
			case 3:
				e.HandleKey(tree.KeyEvent{Key: tree.KeyArrowDown, Shift: rapid.Bool().Draw(t, "shift")})
			case 4:
				e.HandleKey(tree.KeyEvent{Key: tree.KeyEnter})
			case 5:
				e.Blur()
			}
			checkStateInvariants(t, e)
		}
	})
}

// With upward propagation on and nothing disabled, every settled snapshot
// must agree with the derived tri-state of each branch: all children
// selected means selected, a partial subtree means half-selected, an
// empty one means neither.
func TestPropTriStateAgreesWithChildren(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := tree.Config{
			MultiSelect:            true,
			PropagateSelect:        true,
			PropagateSelectUpwards: true,
			TogglableSelect:        true,
		}
		e := drawEngine(t, cfg)
		ids := e.Tree().IDs()

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			e.SelectNode(rapid.SampledFrom(ids).Draw(t, "target"))

			s := e.State()
			tr := e.Tree()
			for _, id := range ids {
				children := tr.ChildIDs(id)
				if len(children) == 0 {
					continue
				}
				selected, marked := 0, 0
				for _, c := range children {
					if s.SelectedIDs.Has(c) {
						selected++
						marked++
					} else if s.HalfSelectedIDs.Has(c) {
						marked++
					}
				}
				switch {
				case selected == len(children):
					if !s.SelectedIDs.Has(id) {
						t.Fatalf("%s: all children selected but branch is not", id)
					}
				case marked > 0:
					if !s.HalfSelectedIDs.Has(id) {
						t.Fatalf("%s: partial subtree but branch not half-selected", id)
					}
				default:
					if s.SelectedIDs.Has(id) || s.HalfSelectedIDs.Has(id) {
						t.Fatalf("%s: empty subtree but branch carries a marker", id)
					}
				}
			}
		}
	})
}

// The accessible sequence walked forward must be the backward walk
// reversed, for any expansion frontier.
func TestPropAccessibleWalkInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr, err := tree.New(genNodes(t))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		var branches []string
		for _, id := range tr.IDs() {
			if tr.IsBranch(id) {
				branches = append(branches, id)
			}
		}
		var expandedIDs []string
		for _, id := range branches {
			if rapid.Bool().Draw(t, "expand-"+id) {
				expandedIDs = append(expandedIDs, id)
			}
		}
		expanded := tree.NewIDSet(expandedIDs...)

		forward := tr.AccessibleIDs(expanded)
		last, ok := tr.LastAccessible(expanded)
		if !ok {
			t.Fatalf("empty accessible sequence for non-empty tree")
		}
		if forward[len(forward)-1] != last {
			t.Fatalf("forward walk ends at %s, LastAccessible says %s", forward[len(forward)-1], last)
		}

		backward := []string{last}
		for cur := last; ; {
			prev, ok := tr.PreviousAccessible(expanded, cur)
			if !ok {
				break
			}
			backward = append(backward, prev)
			cur = prev
		}
		if len(backward) != len(forward) {
			t.Fatalf("forward %d nodes, backward %d", len(forward), len(backward))
		}
		for i, id := range forward {
			if backward[len(backward)-1-i] != id {
				t.Fatalf("walks disagree at %d: %s vs %s", i, id, backward[len(backward)-1-i])
			}
		}
	})
}

// Without toggling, re-selecting a node is idempotent.
func TestPropSelectIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := tree.Config{
			MultiSelect:            true,
			PropagateSelect:        true,
			PropagateSelectUpwards: true,
		}
		e := drawEngine(t, cfg)
		id := rapid.SampledFrom(e.Tree().IDs()).Draw(t, "target")

		first := e.SelectNode(id)
		second := e.SelectNode(id)
		if !first.SelectedIDs.Equal(second.SelectedIDs) {
			t.Fatalf("selection drifted: %v vs %v",
				first.SelectedIDs.Values(), second.SelectedIDs.Values())
		}
		if !first.HalfSelectedIDs.Equal(second.HalfSelectedIDs) {
			t.Fatalf("half-selection drifted: %v vs %v",
				first.HalfSelectedIDs.Values(), second.HalfSelectedIDs.Values())
		}
		if first.TabbableID != second.TabbableID {
			t.Fatalf("focus drifted: %q vs %q", first.TabbableID, second.TabbableID)
		}
	})
}

// Reconciliation converges: repeating the same external value changes
// nothing and fires nothing.
func TestPropControlledSelectionConverges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := tree.Config{
			MultiSelect:            true,
			PropagateSelect:        true,
			PropagateSelectUpwards: true,
		}
		e := drawEngine(t, cfg)
		ids := e.Tree().IDs()
		want := rapid.SliceOfDistinct(rapid.SampledFrom(ids), rapid.ID[string]).Draw(t, "controlled")

		first := e.SetControlledSelection(want)
		for _, id := range want {
			if !first.SelectedIDs.Has(id) {
				t.Fatalf("%s not selected after reconciliation", id)
			}
		}

		events := 0
		e.OnSelectionChange(func(tree.NodeEvent) { events++ })
		second := e.SetControlledSelection(want)
		if events != 0 {
			t.Fatalf("repeat reconciliation fired %d events", events)
		}
		if !first.SelectedIDs.Equal(second.SelectedIDs) {
			t.Fatalf("repeat reconciliation changed selection")
		}
	})
}
