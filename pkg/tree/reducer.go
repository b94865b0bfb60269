package tree

// reduce is the pure transition function: one State in, one State out,
// nothing shared mutated. Unknown ids, disabled targets and impossible
// combinations reduce to the unchanged input state rather than erroring;
// construction-time validation has already rejected everything fatal.
func reduce(t *Tree, s State, a Action, cfg Config) State {
	switch a := a.(type) {
	case Select:
		return reduceSelect(t, s, a, cfg)
	case Deselect:
		return reduceDeselect(t, s, a)
	case ToggleSelect:
		return reduceToggleSelect(t, s, a, cfg)
	case SelectMany:
		return reduceSelectMany(t, s, a, cfg)
	case HalfSelect:
		return reduceHalfSelect(t, s, a)
	case Expand:
		return reduceExpand(t, s, a.ID, ActionExpand)
	case Collapse:
		return reduceCollapse(t, s, a.ID, ActionCollapse)
	case ToggleExpand:
		if s.ExpandedIDs.Has(a.ID) {
			return reduceCollapse(t, s, a.ID, ActionToggleExpand)
		}
		return reduceExpand(t, s, a.ID, ActionToggleExpand)
	case ExpandMany:
		return reduceExpandMany(t, s, a)
	case CollapseMany:
		return reduceCollapseMany(t, s, a)
	case Focus:
		return reduceFocus(t, s, a)
	case Blur:
		next := s
		next.IsFocused = false
		next.LastAction = ActionBlur
		return next
	case ControlledSelectMany:
		return reduceControlledSelectMany(t, s, a)
	case DataChanged:
		return reduceDataChanged(t, s)
	case ClearManualToggle:
		next := s
		next.LastManuallyToggled = ""
		return next
	default:
		return s
	}
}

// finishSelection applies the bookkeeping shared by the single-id
// selection kinds: LastAction, focus, interaction tracking. User-origin
// toggles additionally record the manual-toggle marker consumed by the
// node-select observer.
func finishSelection(next *State, id, from string, notUser, keepFocus bool, kind ActionKind) {
	next.LastAction = kind
	next.IsFocused = true
	if !keepFocus {
		next.TabbableID = id
	}
	switch {
	case from != "":
		next.LastInteractedWith = from
	case !notUser:
		next.LastInteractedWith = id
	}
	if !notUser {
		next.LastUserSelect = id
		next.LastManuallyToggled = id
	}
}

func reduceSelect(t *Tree, s State, a Select, cfg Config) State {
	if !t.Has(a.ID) || s.DisabledIDs.Has(a.ID) {
		return s
	}
	next := s
	if cfg.MultiSelect {
		next.SelectedIDs = s.SelectedIDs.With(a.ID)
	} else {
		next.SelectedIDs = NewIDSet(a.ID)
	}
	next.HalfSelectedIDs = s.HalfSelectedIDs.Without(a.ID)
	finishSelection(&next, a.ID, a.From, a.NotUserAction, a.KeepFocus, ActionSelect)
	return next
}

func reduceDeselect(t *Tree, s State, a Deselect) State {
	if !t.Has(a.ID) || s.DisabledIDs.Has(a.ID) {
		return s
	}
	next := s
	next.SelectedIDs = s.SelectedIDs.Without(a.ID)
	next.HalfSelectedIDs = s.HalfSelectedIDs.Without(a.ID)
	finishSelection(&next, a.ID, a.From, a.NotUserAction, a.KeepFocus, ActionDeselect)
	return next
}

func reduceToggleSelect(t *Tree, s State, a ToggleSelect, cfg Config) State {
	if !t.Has(a.ID) || s.DisabledIDs.Has(a.ID) {
		return s
	}
	next := s
	switch {
	case s.SelectedIDs.Has(a.ID):
		next.SelectedIDs = s.SelectedIDs.Without(a.ID)
	case cfg.MultiSelect:
		next.SelectedIDs = s.SelectedIDs.With(a.ID)
	default:
		next.SelectedIDs = NewIDSet(a.ID)
	}
	next.HalfSelectedIDs = s.HalfSelectedIDs.Without(a.ID)
	finishSelection(&next, a.ID, "", false, a.KeepFocus, ActionToggleSelect)
	return next
}

func reduceSelectMany(t *Tree, s State, a SelectMany, cfg Config) State {
	if !cfg.MultiSelect {
		return s
	}
	ids := make([]string, 0, len(a.IDs))
	for _, id := range a.IDs {
		if t.Has(id) && !s.DisabledIDs.Has(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return s
	}
	next := s
	if a.Selected {
		next.SelectedIDs = s.SelectedIDs.With(ids...)
	} else {
		next.SelectedIDs = s.SelectedIDs.Without(ids...)
	}
	next.HalfSelectedIDs = s.HalfSelectedIDs.Without(ids...)
	next.LastAction = ActionSelectMany
	next.IsFocused = true
	if a.From != "" {
		next.LastInteractedWith = a.From
	}
	if a.Toggled != "" {
		next.LastManuallyToggled = a.Toggled
		next.LastUserSelect = a.Toggled
	}
	return next
}

func reduceHalfSelect(t *Tree, s State, a HalfSelect) State {
	if !t.Has(a.ID) || s.DisabledIDs.Has(a.ID) || !t.IsBranch(a.ID) {
		return s
	}
	next := s
	next.HalfSelectedIDs = s.HalfSelectedIDs.With(a.ID)
	next.SelectedIDs = s.SelectedIDs.Without(a.ID)
	next.LastAction = ActionHalfSelect
	if a.From != "" {
		next.LastInteractedWith = a.From
	}
	return next
}

func reduceExpand(t *Tree, s State, id string, kind ActionKind) State {
	if !t.Has(id) || !t.IsBranch(id) {
		return s
	}
	next := s
	next.ExpandedIDs = s.ExpandedIDs.With(id)
	next.TabbableID = id
	next.IsFocused = true
	next.LastInteractedWith = id
	next.LastAction = kind
	return next
}

func reduceCollapse(t *Tree, s State, id string, kind ActionKind) State {
	if !t.Has(id) || !t.IsBranch(id) {
		return s
	}
	next := s
	next.ExpandedIDs = s.ExpandedIDs.Without(id)
	next.TabbableID = id
	next.IsFocused = true
	next.LastInteractedWith = id
	next.LastAction = kind
	return next
}

func reduceExpandMany(t *Tree, s State, a ExpandMany) State {
	ids := branchIDs(t, a.IDs)
	if len(ids) == 0 {
		return s
	}
	next := s
	next.ExpandedIDs = s.ExpandedIDs.With(ids...)
	next.LastAction = ActionExpandMany
	if a.From != "" {
		next.LastInteractedWith = a.From
	}
	return next
}

func reduceCollapseMany(t *Tree, s State, a CollapseMany) State {
	ids := branchIDs(t, a.IDs)
	if len(ids) == 0 {
		return s
	}
	next := s
	next.ExpandedIDs = s.ExpandedIDs.Without(ids...)
	next.LastAction = ActionCollapseMany
	if a.From != "" {
		next.LastInteractedWith = a.From
	}
	return next
}

func branchIDs(t *Tree, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if t.Has(id) && t.IsBranch(id) {
			out = append(out, id)
		}
	}
	return out
}

func reduceFocus(t *Tree, s State, a Focus) State {
	if !t.Has(a.ID) {
		return s
	}
	next := s
	next.TabbableID = a.ID
	next.IsFocused = true
	next.LastInteractedWith = a.ID
	next.LastAction = ActionFocus
	return next
}

func reduceControlledSelectMany(t *Tree, s State, a ControlledSelectMany) State {
	ids := make([]string, 0, len(a.IDs))
	for _, id := range a.IDs {
		if t.Has(id) {
			ids = append(ids, id)
		}
	}
	next := s
	next.SelectedIDs = NewIDSet(ids...)
	next.ControlledIDs = NewIDSet(ids...)
	next.HalfSelectedIDs = s.HalfSelectedIDs.Without(ids...)
	next.LastAction = ActionControlledSelectMany
	return next
}

// reduceDataChanged intersects every id-valued field with the new tree.
// Surviving ids carry over untouched; vanished ones fall back to their
// defaults. Half-selection and expansion additionally require the
// survivor to still be a branch.
func reduceDataChanged(t *Tree, s State) State {
	keep := t.Has
	keepBranch := func(id string) bool { return t.Has(id) && t.IsBranch(id) }

	next := s
	next.SelectedIDs = s.SelectedIDs.Filter(keep)
	next.HalfSelectedIDs = s.HalfSelectedIDs.Filter(keepBranch)
	next.ExpandedIDs = s.ExpandedIDs.Filter(keepBranch)
	next.DisabledIDs = s.DisabledIDs.Filter(keep)
	next.ControlledIDs = s.ControlledIDs.Filter(keep)
	if !t.Has(s.TabbableID) {
		next.TabbableID = ""
		if first, ok := t.FirstAccessible(); ok {
			next.TabbableID = first
		}
	}
	if s.LastInteractedWith != "" && !t.Has(s.LastInteractedWith) {
		next.LastInteractedWith = ""
	}
	if s.LastManuallyToggled != "" && !t.Has(s.LastManuallyToggled) {
		next.LastManuallyToggled = ""
	}
	if s.LastUserSelect != "" && !t.Has(s.LastUserSelect) {
		next.LastUserSelect = ""
	}
	next.LastAction = ActionDataChanged
	return next
}
