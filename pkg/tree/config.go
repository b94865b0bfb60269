package tree

import "fmt"

// ClickAction selects what a pointer click (or the UI's primary action)
// does to a node.
type ClickAction string

const (
	// SelectOnClick toggles or sets selection, the default.
	SelectOnClick ClickAction = "select"
	// FocusOnClick only moves focus; selection stays put.
	FocusOnClick ClickAction = "focus"
)

// DisabledBranchPolicy decides how upward propagation classifies a branch
// whose every child is disabled.
type DisabledBranchPolicy int

const (
	// AggregateDisabled classifies over the disabled children's frozen
	// selection state, so a fully pre-selected disabled subtree still
	// reads as ALL.
	AggregateDisabled DisabledBranchPolicy = iota
	// SkipDisabled leaves such a branch's own selection untouched and
	// stops the climb there.
	SkipDisabled
)

// Config fixes the widget's behavior for the lifetime of an Engine.
type Config struct {
	// MultiSelect allows more than one selected node. Required by every
	// propagation flag.
	MultiSelect bool

	// PropagateSelect applies a selection value to a branch's whole
	// non-disabled subtree.
	PropagateSelect bool

	// PropagateSelectUpwards re-derives ancestor tri-state (ALL selects,
	// SOME half-selects, NONE deselects) after selection changes.
	PropagateSelectUpwards bool

	// PropagateCollapse collapses a branch's expanded descendants along
	// with the branch.
	PropagateCollapse bool

	// TogglableSelect makes the primary action toggle selection instead
	// of always selecting.
	TogglableSelect bool

	// ExpandOnKeyboardSelect additionally toggles a branch's expansion
	// when Enter or Space selects it.
	ExpandOnKeyboardSelect bool

	// ClickAction is the primary pointer behavior. Empty means
	// SelectOnClick.
	ClickAction ClickAction

	// AllDisabledPolicy resolves tri-state classification for branches
	// whose children are all disabled.
	AllDisabledPolicy DisabledBranchPolicy

	// Default* seed uncontrolled state once at construction.
	DefaultSelectedIDs []string
	DefaultExpandedIDs []string
	DefaultDisabledIDs []string

	// Controlled* hand ownership of a set to an external source. nil
	// means uncontrolled; an empty non-nil slice is controlled-empty.
	// Later values arrive through SetControlledSelection and
	// SetControlledExpansion.
	ControlledSelectedIDs []string
	ControlledExpandedIDs []string
}

// validate rejects flag combinations the engine cannot honor and id lists
// referencing unknown nodes, before any state is built from them.
func (c Config) validate(t *Tree) error {
	if !c.MultiSelect {
		switch {
		case c.PropagateSelect:
			return fmt.Errorf("propagate select requires multi select")
		case c.PropagateSelectUpwards:
			return fmt.Errorf("propagate select upwards requires multi select")
		}
	}
	switch c.ClickAction {
	case "", SelectOnClick, FocusOnClick:
	default:
		return fmt.Errorf("unknown click action %q", c.ClickAction)
	}
	for _, group := range []struct {
		name string
		ids  []string
	}{
		{"default selected", c.DefaultSelectedIDs},
		{"default expanded", c.DefaultExpandedIDs},
		{"default disabled", c.DefaultDisabledIDs},
		{"controlled selected", c.ControlledSelectedIDs},
		{"controlled expanded", c.ControlledExpandedIDs},
	} {
		for _, id := range group.ids {
			if !t.Has(id) {
				return fmt.Errorf("%s id %q not in tree", group.name, id)
			}
		}
	}
	return nil
}

// clickAction returns the effective ClickAction with the default applied.
func (c Config) clickAction() ClickAction {
	if c.ClickAction == "" {
		return SelectOnClick
	}
	return c.ClickAction
}

// propagatesDown reports whether subtree selection propagation is active.
func (c Config) propagatesDown() bool {
	return c.PropagateSelect && c.MultiSelect
}

// propagatesUp reports whether ancestor tri-state propagation is active.
func (c Config) propagatesUp() bool {
	return c.PropagateSelectUpwards && c.MultiSelect
}
