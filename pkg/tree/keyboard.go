package tree

import (
	"unicode"
	"unicode/utf8"
)

// Key identifies the non-printable keys the interpreter understands.
// Printable characters arrive as KeyRune with the rune set.
type Key int

const (
	KeyRune Key = iota
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyHome
	KeyEnd
	KeyEnter
	KeySpace
)

// KeyEvent is one decoded key press with its modifiers. Terminal or GUI
// front-ends translate their own key types into this before calling
// HandleKey.
type KeyEvent struct {
	Key   Key
	Rune  rune
	Shift bool
	Ctrl  bool
}

// HandleKey interprets one key event against the focused node and runs
// the resulting transitions as a single cycle: observers fire once, after
// everything (including propagation) has settled.
//
// Bindings follow the accessible tree-view pattern: arrows move over the
// expanded frontier, Right expands or enters, Left collapses or leaves,
// Home/End jump, Shift extends selection along arrow moves, Ctrl+Shift+
// Home/End select ranges, Ctrl+A toggles select-all, `*` expands sibling
// branches, Enter and Space run the primary selection gesture, and any
// other printable character type-ahead-focuses the next matching name.
func (e *Engine) HandleKey(ev KeyEvent) State {
	begin := e.state
	e.handleKey(ev)
	e.finish(begin)
	return e.state
}

func (e *Engine) handleKey(ev KeyEvent) {
	id := e.state.TabbableID
	if id == "" {
		return // empty tree
	}

	switch ev.Key {
	case KeyArrowDown:
		target, ok := e.nextOf(id)
		e.moveFocus(ev, target, ok)
	case KeyArrowUp:
		target, ok := e.prevOf(id)
		e.moveFocus(ev, target, ok)
	case KeyArrowRight:
		e.expandOrEnter(id)
	case KeyArrowLeft:
		e.collapseOrLeave(id)
	case KeyHome:
		if first, ok := e.tree.FirstAccessible(); ok {
			e.jumpFocus(ev, id, first)
		}
	case KeyEnd:
		if last, ok := e.tree.LastAccessible(e.state.ExpandedIDs); ok {
			e.jumpFocus(ev, id, last)
		}
	case KeyEnter:
		e.primarySelectKeyboard(id)
	case KeySpace:
		e.primarySelectKeyboard(id)
	case KeyRune:
		switch {
		case ev.Ctrl && (ev.Rune == 'a' || ev.Rune == 'A'):
			e.selectAllOrNone()
		case ev.Rune == '*':
			e.expandSiblingBranches(id)
		case !ev.Ctrl && unicode.IsPrint(ev.Rune):
			e.typeAhead(id, ev.Rune)
		}
	}
}

func (e *Engine) nextOf(id string) (string, bool) {
	return e.tree.NextAccessible(e.state.ExpandedIDs, id)
}

func (e *Engine) prevOf(id string) (string, bool) {
	return e.tree.PreviousAccessible(e.state.ExpandedIDs, id)
}

// moveFocus advances focus one step; with Shift held the newly focused
// node is also selected, unless it is disabled or clicks are focus-only.
func (e *Engine) moveFocus(ev KeyEvent, target string, ok bool) {
	if !ok {
		return
	}
	e.apply(Focus{ID: target})
	if ev.Shift && e.cfg.clickAction() != FocusOnClick && !e.state.DisabledIDs.Has(target) {
		e.apply(Select{ID: target, KeepFocus: true})
	}
}

// jumpFocus moves focus to a boundary; with Ctrl+Shift the accessible
// range from the old focus is selected too.
func (e *Engine) jumpFocus(ev KeyEvent, from, target string) {
	e.apply(Focus{ID: target})
	if ev.Ctrl && ev.Shift && e.cfg.MultiSelect && e.cfg.clickAction() != FocusOnClick {
		ids := e.tree.AccessibleRange(e.state.ExpandedIDs, from, target)
		e.apply(SelectMany{IDs: ids, Selected: true, From: target})
	}
}

// expandOrEnter implements ArrowRight: a collapsed branch expands without
// moving focus; an expanded branch hands focus to its first child; a leaf
// does nothing.
func (e *Engine) expandOrEnter(id string) {
	if !e.tree.IsBranch(id) {
		return
	}
	if !e.state.ExpandedIDs.Has(id) {
		e.apply(Expand{ID: id})
		return
	}
	if children := e.tree.ChildIDs(id); len(children) > 0 {
		e.apply(Focus{ID: children[0]})
	}
}

// collapseOrLeave implements ArrowLeft: an expanded branch collapses
// (cascading when configured); anything else hands focus to its parent.
func (e *Engine) collapseOrLeave(id string) {
	if e.tree.IsBranch(id) && e.state.ExpandedIDs.Has(id) {
		if e.cfg.PropagateCollapse {
			e.apply(Focus{ID: id})
			e.apply(CollapseMany{IDs: collapseScope(e.tree, e.state, id), From: id})
			return
		}
		e.apply(Collapse{ID: id})
		return
	}
	if parent, ok := e.tree.Parent(id); ok {
		e.apply(Focus{ID: parent})
	}
}

// primarySelectKeyboard runs the Enter/Space gesture, optionally toggling
// the branch's expansion afterwards.
func (e *Engine) primarySelectKeyboard(id string) {
	if e.state.DisabledIDs.Has(id) {
		return
	}
	e.primarySelect(id)
	if e.cfg.ExpandOnKeyboardSelect && e.tree.IsBranch(id) {
		e.apply(ToggleExpand{ID: id})
	}
}

// selectAllOrNone implements Ctrl+A: select every enabled node, or
// deselect everything when the enabled set is already fully selected.
func (e *Engine) selectAllOrNone() {
	if !e.cfg.MultiSelect {
		return
	}
	enabled := make([]string, 0, e.tree.Len())
	for _, id := range e.tree.IDs() {
		if !e.state.DisabledIDs.Has(id) {
			enabled = append(enabled, id)
		}
	}
	if len(enabled) == 0 {
		return
	}
	e.apply(SelectMany{IDs: enabled, Selected: e.state.SelectedIDs.Len() != len(enabled)})
}

// expandSiblingBranches implements `*`: every branch sharing the focused
// node's parent expands at once.
func (e *Engine) expandSiblingBranches(id string) {
	sibs := e.tree.siblings(id)
	branches := make([]string, 0, len(sibs))
	for _, sib := range sibs {
		if e.tree.IsBranch(sib) {
			branches = append(branches, sib)
		}
	}
	if len(branches) > 0 {
		e.apply(ExpandMany{IDs: branches, From: id})
	}
}

// typeAhead focuses the next accessible node (wrapping past the end)
// whose name starts with r, case-insensitively.
func (e *Engine) typeAhead(id string, r rune) {
	want := unicode.ToLower(r)
	cur := id
	for i := 0; i < e.tree.Len(); i++ {
		next, ok := e.nextOf(cur)
		if !ok {
			next, ok = e.tree.FirstAccessible()
			if !ok {
				return
			}
		}
		if next == id {
			return // wrapped all the way around
		}
		if node, ok := e.tree.Get(next); ok && node.Name != "" {
			first, _ := utf8.DecodeRuneInString(node.Name)
			if unicode.ToLower(first) == want {
				e.apply(Focus{ID: next})
				return
			}
		}
		cur = next
	}
}
