package tree

import "sort"

// IDSet is an immutable-by-convention string set with value semantics.
// The zero value is an empty set. Mutating helpers (With, Without, Filter)
// return fresh sets and never touch the receiver, which is what lets State
// snapshots share sets safely across transitions.
type IDSet struct {
	m map[string]struct{}
}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	if len(ids) == 0 {
		return IDSet{}
	}
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return IDSet{m: m}
}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	_, ok := s.m[id]
	return ok
}

// Len returns the number of members.
func (s IDSet) Len() int { return len(s.m) }

// Values returns the members sorted, for deterministic iteration.
func (s IDSet) Values() []string {
	out := make([]string, 0, len(s.m))
	for id := range s.m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s IDSet) clone(extra int) map[string]struct{} {
	m := make(map[string]struct{}, len(s.m)+extra)
	for id := range s.m {
		m[id] = struct{}{}
	}
	return m
}

// With returns a copy of s with ids added.
func (s IDSet) With(ids ...string) IDSet {
	if len(ids) == 0 {
		return s
	}
	m := s.clone(len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return IDSet{m: m}
}

// Without returns a copy of s with ids removed.
func (s IDSet) Without(ids ...string) IDSet {
	if len(ids) == 0 || len(s.m) == 0 {
		return s
	}
	m := s.clone(0)
	for _, id := range ids {
		delete(m, id)
	}
	return IDSet{m: m}
}

// Filter returns the members for which keep is true.
func (s IDSet) Filter(keep func(string) bool) IDSet {
	m := make(map[string]struct{}, len(s.m))
	for id := range s.m {
		if keep(id) {
			m[id] = struct{}{}
		}
	}
	return IDSet{m: m}
}

// Diff returns s \ o.
func (s IDSet) Diff(o IDSet) IDSet {
	m := make(map[string]struct{}, len(s.m))
	for id := range s.m {
		if !o.Has(id) {
			m[id] = struct{}{}
		}
	}
	return IDSet{m: m}
}

// SymmetricDiff returns the members in exactly one of s and o, sorted.
func (s IDSet) SymmetricDiff(o IDSet) []string {
	var out []string
	for id := range s.m {
		if !o.Has(id) {
			out = append(out, id)
		}
	}
	for id := range o.m {
		if !s.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Equal reports whether s and o hold the same members.
func (s IDSet) Equal(o IDSet) bool {
	if len(s.m) != len(o.m) {
		return false
	}
	for id := range s.m {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

// State is one immutable snapshot of the widget. Every transition builds a
// new State; nothing mutates one in place. Consumers may hold a State
// across transitions and compare fields freely.
//
// Invariants, maintained by the reducer:
//   - SelectedIDs and HalfSelectedIDs never intersect.
//   - HalfSelectedIDs contains only branch ids.
//   - TabbableID names a live node whenever the tree is non-empty.
//   - The synthetic root appears in no field.
type State struct {
	SelectedIDs     IDSet
	HalfSelectedIDs IDSet
	ExpandedIDs     IDSet
	DisabledIDs     IDSet

	// ControlledIDs records which ids the last external reconciliation
	// wrote, so consumers can tell externally-owned selection apart from
	// user selection.
	ControlledIDs IDSet

	// TabbableID is the single keyboard-reachable node (roving focus).
	TabbableID string

	// IsFocused is true while focus sits anywhere inside the widget.
	IsFocused bool

	// LastInteractedWith is the node of the most recent interaction.
	// Propagation-origin transitions carry the originating user action's
	// node here, never their own target.
	LastInteractedWith string

	// LastManuallyToggled is set by direct user selection toggles and
	// cleared once the node-select observer has run.
	LastManuallyToggled string

	// LastUserSelect is the node of the most recent user-origin
	// selection change, surviving propagation and focus moves.
	LastUserSelect string

	// LastAction tags the transition that produced this snapshot.
	LastAction ActionKind
}

// initialState seeds state from config. Controlled id lists take priority
// over defaults, mirroring how an external owner overrides local state.
func initialState(t *Tree, cfg Config) State {
	selected := cfg.DefaultSelectedIDs
	if cfg.ControlledSelectedIDs != nil {
		selected = cfg.ControlledSelectedIDs
	}
	expanded := cfg.DefaultExpandedIDs
	if cfg.ControlledExpandedIDs != nil {
		expanded = cfg.ControlledExpandedIDs
	}

	s := State{
		SelectedIDs: NewIDSet(selected...),
		ExpandedIDs: NewIDSet(expanded...),
		DisabledIDs: NewIDSet(cfg.DefaultDisabledIDs...),
	}
	if cfg.ControlledSelectedIDs != nil {
		s.ControlledIDs = NewIDSet(cfg.ControlledSelectedIDs...)
	}
	if roots := t.Roots(); len(roots) > 0 {
		s.TabbableID = roots[0]
	}
	return s
}
