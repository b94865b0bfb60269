package tree

import (
	"fmt"

	"github.com/vanderheijden86/treeline/pkg/debug"
)

// NodeEvent is the payload for selection-changed and expansion-changed
// observers: the toggled node with its flags under the settled state.
type NodeEvent struct {
	Node           Node
	IsBranch       bool
	IsExpanded     bool
	IsSelected     bool
	IsDisabled     bool
	IsHalfSelected bool
	State          State
}

// ManualSelectEvent reports a direct user selection toggle (never a
// propagation- or reconciliation-origin change).
type ManualSelectEvent struct {
	Node       Node
	IsBranch   bool
	IsSelected bool
	State      State
}

// LoadRequest asks the owner to fetch children for a branch that just
// entered the expanded set. The engine fires it and moves on; a typical
// handler spawns a goroutine and later calls SetNodes with the grown
// tree.
type LoadRequest struct {
	Node  Node
	State State
}

// BlurEvent reports focus leaving the widget as a whole. Dispatch lets
// the handler push a follow-up transition without holding the Engine.
type BlurEvent struct {
	State    State
	Dispatch func(Action)
}

// Engine owns a Tree and the widget State evolving over it. It is
// synchronous and single-goroutine: each public entry point runs its
// transitions and propagation to a settled state, then notifies observers
// exactly once per toggled id. Observers therefore never see a snapshot
// where selection and half-selection disagree.
type Engine struct {
	tree *Tree
	cfg  Config

	state State

	// Previous external values for reconciliation. Diffing against these
	// rather than internal state is what keeps the engine's own writes
	// from re-triggering a cycle.
	prevControlledSelected IDSet
	prevControlledExpanded IDSet

	onSelectionChange func(NodeEvent)
	onNodeSelect      func(ManualSelectEvent)
	onExpansionChange func(NodeEvent)
	onLoadData        func(LoadRequest)
	onBlur            func(BlurEvent)
}

// NewEngine validates nodes and cfg and seeds initial state. Initial id
// sets (default and controlled alike) are taken exactly as given;
// propagation begins with the first transition, and the controlled values
// seed the previous-value references reconciliation diffs against.
func NewEngine(nodes []Node, cfg Config) (*Engine, error) {
	t, err := New(nodes)
	if err != nil {
		return nil, fmt.Errorf("building tree: %w", err)
	}
	if err := cfg.validate(t); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		tree:                   t,
		cfg:                    cfg,
		state:                  initialState(t, cfg),
		prevControlledSelected: NewIDSet(cfg.ControlledSelectedIDs...),
		prevControlledExpanded: NewIDSet(cfg.ControlledExpandedIDs...),
	}, nil
}

// State returns the current settled snapshot.
func (e *Engine) State() State { return e.state }

// Tree returns the current node index.
func (e *Engine) Tree() *Tree { return e.tree }

// Config returns the engine's fixed configuration.
func (e *Engine) Config() Config { return e.cfg }

// Observer registration. A nil handler unregisters. Handlers run
// synchronously at the end of a cycle, after state has settled.

func (e *Engine) OnSelectionChange(fn func(NodeEvent)) { e.onSelectionChange = fn }

func (e *Engine) OnNodeSelect(fn func(ManualSelectEvent)) { e.onNodeSelect = fn }

func (e *Engine) OnExpansionChange(fn func(NodeEvent)) { e.onExpansionChange = fn }

func (e *Engine) OnLoadData(fn func(LoadRequest)) { e.onLoadData = fn }

func (e *Engine) OnBlur(fn func(BlurEvent)) { e.onBlur = fn }

// Dispatch runs a single action as one full cycle and returns the settled
// state.
func (e *Engine) Dispatch(a Action) State {
	begin := e.state
	e.apply(a)
	e.finish(begin)
	return e.state
}

// Blur reports that focus left the widget.
func (e *Engine) Blur() State { return e.Dispatch(Blur{}) }

// apply runs one reduce without settling or notifying. Cycle entry points
// compose several applies and then call finish exactly once.
func (e *Engine) apply(a Action) {
	e.state = reduce(e.tree, e.state, a, e.cfg)
}

// finish settles upward propagation for the cycle and notifies observers
// off the begin-to-settled diff.
func (e *Engine) finish(begin State) {
	e.state = e.settleUp(begin, e.state)
	e.notify(begin)
}

// settleUp runs the ancestor climb when the cycle changed selection.
// Gating on the begin-to-current diff rather than the final action kind
// keeps compound cycles honest: Enter on a branch may end in a
// ToggleExpand, but the selection it changed still has to settle.
func (e *Engine) settleUp(begin, cur State) State {
	if !e.cfg.propagatesUp() {
		return cur
	}
	changed := begin.SelectedIDs.SymmetricDiff(cur.SelectedIDs)
	if len(changed) == 0 {
		return cur
	}
	return settleUpwards(e.tree, cur, changed, cur.LastInteractedWith, e.cfg)
}

// notify fires observers for everything that toggled between begin and
// the settled state. Ids that vanished with a data swap are skipped: node
// removal is not a selection interaction.
func (e *Engine) notify(begin State) {
	cur := e.state

	if e.onSelectionChange != nil {
		for _, id := range begin.SelectedIDs.SymmetricDiff(cur.SelectedIDs) {
			if ev, ok := e.nodeEvent(id); ok {
				e.onSelectionChange(ev)
			}
		}
	}

	if id := cur.LastManuallyToggled; id != "" {
		if e.onNodeSelect != nil {
			if node, ok := e.tree.Get(id); ok {
				e.onNodeSelect(ManualSelectEvent{
					Node:       node,
					IsBranch:   e.tree.IsBranch(id),
					IsSelected: cur.SelectedIDs.Has(id),
					State:      cur,
				})
			}
		}
		e.apply(ClearManualToggle{})
		cur = e.state
	}

	if e.onExpansionChange != nil {
		for _, id := range begin.ExpandedIDs.SymmetricDiff(cur.ExpandedIDs) {
			if ev, ok := e.nodeEvent(id); ok {
				e.onExpansionChange(ev)
			}
		}
	}

	if e.onLoadData != nil {
		for _, id := range cur.ExpandedIDs.Diff(begin.ExpandedIDs).Values() {
			if node, ok := e.tree.Get(id); ok {
				debug.Log("load requested for %s", id)
				e.onLoadData(LoadRequest{Node: node, State: cur})
			}
		}
	}

	if begin.IsFocused && !cur.IsFocused && e.onBlur != nil {
		e.onBlur(BlurEvent{State: cur, Dispatch: func(a Action) { e.Dispatch(a) }})
	}
}

func (e *Engine) nodeEvent(id string) (NodeEvent, bool) {
	node, ok := e.tree.Get(id)
	if !ok {
		return NodeEvent{}, false
	}
	s := e.state
	return NodeEvent{
		Node:           node,
		IsBranch:       e.tree.IsBranch(id),
		IsExpanded:     s.ExpandedIDs.Has(id),
		IsSelected:     s.SelectedIDs.Has(id),
		IsDisabled:     s.DisabledIDs.Has(id),
		IsHalfSelected: s.HalfSelectedIDs.Has(id),
		State:          s,
	}, true
}

// SelectNode runs the primary selection gesture on id, exactly as
// Enter/Space do on the focused node: toggle or set selection, propagated
// over the subtree when configured.
func (e *Engine) SelectNode(id string) State {
	begin := e.state
	e.primarySelect(id)
	e.finish(begin)
	return e.state
}

// primarySelect is the shared Enter/Space/click selection path.
func (e *Engine) primarySelect(id string) {
	if !e.tree.Has(id) || e.state.DisabledIDs.Has(id) {
		return
	}
	target := true
	if e.cfg.TogglableSelect && e.state.SelectedIDs.Has(id) {
		target = false
	}
	if e.cfg.propagatesDown() && e.tree.IsBranch(id) {
		e.apply(SelectMany{
			IDs:      propagationScope(e.tree, e.state, id),
			Selected: target,
			From:     id,
			Toggled:  id,
		})
		return
	}
	if target {
		e.apply(Select{ID: id})
	} else {
		e.apply(Deselect{ID: id})
	}
}

// SetNodes swaps the underlying data. Surviving ids keep their state,
// vanished ids are pruned and focus re-anchors; see DataChanged.
func (e *Engine) SetNodes(nodes []Node) error {
	t, err := New(nodes)
	if err != nil {
		return fmt.Errorf("building tree: %w", err)
	}
	begin := e.state
	e.tree = t
	e.apply(DataChanged{})
	debug.Log("tree data swapped: %d nodes, tabbable %q", t.Len(), e.state.TabbableID)
	e.notify(begin)
	return nil
}

// SetControlledSelection reconciles an externally-owned selection set.
// The diff runs against the previous external value, so repeating the
// same value is an exact no-op and the engine's own writes can never
// oscillate back. The new set replaces selection wholesale; downward
// propagation then re-applies per newly-selected branch.
func (e *Engine) SetControlledSelection(ids []string) State {
	requested := NewIDSet(ids...)
	if requested.Equal(e.prevControlledSelected) {
		return e.state
	}
	added := requested.Diff(e.prevControlledSelected)
	e.prevControlledSelected = requested

	begin := e.state
	e.apply(ControlledSelectMany{IDs: ids})
	if e.cfg.propagatesDown() {
		for _, id := range added.Values() {
			if e.tree.IsBranch(id) {
				e.apply(SelectMany{IDs: propagationScope(e.tree, e.state, id), Selected: true, From: id})
			}
		}
	}
	e.finish(begin)
	return e.state
}

// SetControlledExpansion reconciles an externally-owned expansion set.
// Removed ids collapse, cascading over expanded descendants when collapse
// propagation is on; added ids expand together with their parent so the
// target row is actually visible.
func (e *Engine) SetControlledExpansion(ids []string) State {
	requested := NewIDSet(ids...)
	prev := e.prevControlledExpanded
	if requested.Equal(prev) {
		return e.state
	}
	e.prevControlledExpanded = requested

	begin := e.state
	if removed := prev.Diff(requested); removed.Len() > 0 {
		var collapse []string
		for _, id := range removed.Values() {
			if e.cfg.PropagateCollapse {
				collapse = append(collapse, collapseScope(e.tree, e.state, id)...)
			} else {
				collapse = append(collapse, id)
			}
		}
		e.apply(CollapseMany{IDs: collapse})
	}
	if added := requested.Diff(prev); added.Len() > 0 {
		var expand []string
		for _, id := range added.Values() {
			expand = append(expand, id)
			if parent, ok := e.tree.Parent(id); ok {
				expand = append(expand, parent)
			}
		}
		e.apply(ExpandMany{IDs: expand})
	}
	e.notify(begin)
	return e.state
}
