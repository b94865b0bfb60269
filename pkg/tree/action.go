package tree

// ActionKind tags the transition recorded in State.LastAction.
type ActionKind string

const (
	ActionNone                 ActionKind = ""
	ActionSelect               ActionKind = "select"
	ActionDeselect             ActionKind = "deselect"
	ActionToggleSelect         ActionKind = "toggle-select"
	ActionSelectMany           ActionKind = "select-many"
	ActionControlledSelectMany ActionKind = "controlled-select-many"
	ActionHalfSelect           ActionKind = "half-select"
	ActionExpand               ActionKind = "expand"
	ActionCollapse             ActionKind = "collapse"
	ActionToggleExpand         ActionKind = "toggle-expand"
	ActionExpandMany           ActionKind = "expand-many"
	ActionCollapseMany         ActionKind = "collapse-many"
	ActionFocus                ActionKind = "focus"
	ActionBlur                 ActionKind = "blur"
	ActionDataChanged          ActionKind = "data-changed"
	ActionClearManualToggle    ActionKind = "clear-manual-toggle"
)

// Action is a state transition request. Each kind is its own struct so the
// reducer can switch on type; dispatch them through Engine.Dispatch or the
// higher-level entry points (HandleKey, SetControlledSelection, ...).
type Action interface {
	Kind() ActionKind
}

// Select adds ID to the selection (or replaces it without MultiSelect).
// Propagation-origin selects carry NotUserAction with From naming the
// originating interaction, and KeepFocus so they never move TabbableID.
type Select struct {
	ID            string
	From          string
	NotUserAction bool
	KeepFocus     bool
}

// Deselect removes ID from the selection. Flags as on Select.
type Deselect struct {
	ID            string
	From          string
	NotUserAction bool
	KeepFocus     bool
}

// ToggleSelect flips ID's selection membership.
type ToggleSelect struct {
	ID        string
	KeepFocus bool
}

// SelectMany applies one target value to many ids at once (subtree
// propagation, range selection, select-all). Disabled ids are skipped.
// Toggled, when set, marks the id reported as manually toggled.
type SelectMany struct {
	IDs      []string
	Selected bool
	From     string
	Toggled  string
}

// HalfSelect marks a branch partially selected. Propagation-origin only.
type HalfSelect struct {
	ID   string
	From string
}

// Expand adds ID to the expanded set.
type Expand struct {
	ID string
}

// Collapse removes ID from the expanded set.
type Collapse struct {
	ID string
}

// ToggleExpand flips ID's expansion.
type ToggleExpand struct {
	ID string
}

// ExpandMany adds IDs to the expanded set without moving focus.
type ExpandMany struct {
	IDs  []string
	From string
}

// CollapseMany removes IDs from the expanded set without moving focus.
type CollapseMany struct {
	IDs  []string
	From string
}

// Focus moves TabbableID. Unknown ids are ignored.
type Focus struct {
	ID string
}

// Blur clears IsFocused, leaving everything else alone.
type Blur struct{}

// ControlledSelectMany is the reconciliation-origin bulk write: selection
// becomes exactly IDs and ControlledIDs records them.
type ControlledSelectMany struct {
	IDs []string
}

// DataChanged re-anchors id-valued state after the underlying tree was
// swapped. Dispatched internally by Engine.SetNodes.
type DataChanged struct{}

// ClearManualToggle resets LastManuallyToggled after the node-select
// observer has run. Leaves LastAction untouched.
type ClearManualToggle struct{}

func (Select) Kind() ActionKind               { return ActionSelect }
func (Deselect) Kind() ActionKind             { return ActionDeselect }
func (ToggleSelect) Kind() ActionKind         { return ActionToggleSelect }
func (SelectMany) Kind() ActionKind           { return ActionSelectMany }
func (HalfSelect) Kind() ActionKind           { return ActionHalfSelect }
func (Expand) Kind() ActionKind               { return ActionExpand }
func (Collapse) Kind() ActionKind             { return ActionCollapse }
func (ToggleExpand) Kind() ActionKind         { return ActionToggleExpand }
func (ExpandMany) Kind() ActionKind           { return ActionExpandMany }
func (CollapseMany) Kind() ActionKind         { return ActionCollapseMany }
func (Focus) Kind() ActionKind                { return ActionFocus }
func (Blur) Kind() ActionKind                 { return ActionBlur }
func (ControlledSelectMany) Kind() ActionKind { return ActionControlledSelectMany }
func (DataChanged) Kind() ActionKind          { return ActionDataChanged }
func (ClearManualToggle) Kind() ActionKind    { return ActionClearManualToggle }
