package tree

// childSelection classifies a branch's children for upward propagation.
type childSelection int

const (
	noneSelected childSelection = iota
	someSelected
	allSelected
	frozenSelection // policy says leave the branch alone
)

// classifyChildren derives a branch's tri-state from its children.
// Disabled children are excluded from the count unless every child is
// disabled, in which case the configured policy decides whether their
// frozen state still aggregates or the branch is left untouched.
func classifyChildren(t *Tree, s State, id string, policy DisabledBranchPolicy) childSelection {
	children := t.ChildIDs(id)
	if len(children) == 0 {
		return frozenSelection
	}
	considered := children[:0:0]
	for _, c := range children {
		if !s.DisabledIDs.Has(c) {
			considered = append(considered, c)
		}
	}
	if len(considered) == 0 {
		if policy == SkipDisabled {
			return frozenSelection
		}
		considered = children
	}

	selected, half := 0, 0
	for _, c := range considered {
		if s.SelectedIDs.Has(c) {
			selected++
		} else if s.HalfSelectedIDs.Has(c) {
			half++
		}
	}
	switch {
	case selected == len(considered):
		return allSelected
	case selected > 0 || half > 0:
		return someSelected
	default:
		return noneSelected
	}
}

// settleUpwards re-derives ancestor tri-state after a selection change.
// For each changed id it climbs toward the root, mapping ALL to select,
// SOME to half-select and NONE to deselect. Each climb stops as soon as
// an ancestor already matches its derived state (the fixed point) or is
// disabled; climbs are bounded by depth and each step is idempotent, so
// termination is structural. The injected transitions carry the
// originating interaction id and keep focus where it was.
func settleUpwards(t *Tree, s State, changed []string, from string, cfg Config) State {
	for _, id := range changed {
		s = climbFrom(t, s, id, from, cfg)
	}
	return s
}

func climbFrom(t *Tree, s State, id, from string, cfg Config) State {
	cur := id
	for {
		parent, ok := t.Parent(cur)
		if !ok {
			return s // reached a top-level node
		}
		if s.DisabledIDs.Has(parent) {
			return s // frozen, nothing above can change either
		}
		switch classifyChildren(t, s, parent, cfg.AllDisabledPolicy) {
		case allSelected:
			if s.SelectedIDs.Has(parent) {
				return s
			}
			s = reduce(t, s, Select{ID: parent, From: from, NotUserAction: true, KeepFocus: true}, cfg)
		case someSelected:
			if s.HalfSelectedIDs.Has(parent) {
				return s
			}
			s = reduce(t, s, HalfSelect{ID: parent, From: from}, cfg)
		case noneSelected:
			if !s.SelectedIDs.Has(parent) && !s.HalfSelectedIDs.Has(parent) {
				return s
			}
			s = reduce(t, s, Deselect{ID: parent, From: from, NotUserAction: true, KeepFocus: true}, cfg)
		case frozenSelection:
			return s
		}
		cur = parent
	}
}

// propagationScope is the id set a propagating selection applies to: the
// target plus every descendant not currently disabled, in preorder.
func propagationScope(t *Tree, s State, id string) []string {
	scope := []string{id}
	for _, d := range t.Descendants(id) {
		if !s.DisabledIDs.Has(d) {
			scope = append(scope, d)
		}
	}
	return scope
}

// collapseScope is the id set a propagating collapse removes from the
// expanded set: the branch plus its currently expanded descendants.
func collapseScope(t *Tree, s State, id string) []string {
	scope := []string{id}
	for _, d := range t.Descendants(id) {
		if s.ExpandedIDs.Has(d) {
			scope = append(scope, d)
		}
	}
	return scope
}
