package tree_test

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// demoNodes returns the flat fixture shared by the engine and keyboard
// tests:
//
//	docs
//	├── guide
//	│   ├── intro
//	│   └── setup
//	└── api
//	src
//	├── core
//	│   ├── engine
//	│   └── state
//	└── util
//	readme
func demoNodes() []tree.Node {
	return []tree.Node{
		{ID: "docs", Name: "Documentation", Children: []string{"guide", "api"}},
		{ID: "guide", Name: "Guides", Children: []string{"intro", "setup"}},
		{ID: "intro", Name: "Introduction"},
		{ID: "setup", Name: "Setup"},
		{ID: "api", Name: "API Reference"},
		{ID: "src", Name: "Sources", Children: []string{"core", "util"}},
		{ID: "core", Name: "Core", Children: []string{"engine", "state"}},
		{ID: "engine", Name: "Engine"},
		{ID: "state", Name: "State"},
		{ID: "util", Name: "Utilities"},
		{ID: "readme", Name: "Readme"},
	}
}

func newEngine(t *testing.T, cfg tree.Config) *tree.Engine {
	t.Helper()
	e, err := tree.NewEngine(demoNodes(), cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// recorder collects every observer callback so tests can assert exact
// event counts per cycle.
type recorder struct {
	selection []string
	manual    []string
	expansion []string
	loads     []string
	blurs     int
}

func record(e *tree.Engine) *recorder {
	r := &recorder{}
	e.OnSelectionChange(func(ev tree.NodeEvent) { r.selection = append(r.selection, ev.Node.ID) })
	e.OnNodeSelect(func(ev tree.ManualSelectEvent) { r.manual = append(r.manual, ev.Node.ID) })
	e.OnExpansionChange(func(ev tree.NodeEvent) { r.expansion = append(r.expansion, ev.Node.ID) })
	e.OnLoadData(func(req tree.LoadRequest) { r.loads = append(r.loads, req.Node.ID) })
	e.OnBlur(func(tree.BlurEvent) { r.blurs++ })
	return r
}

func (r *recorder) reset() { *r = recorder{} }

func count(ids []string, id string) int {
	n := 0
	for _, got := range ids {
		if got == id {
			n++
		}
	}
	return n
}

func propagatingConfig() tree.Config {
	return tree.Config{
		MultiSelect:            true,
		PropagateSelect:        true,
		PropagateSelectUpwards: true,
	}
}

func TestEngineDownwardPropagation(t *testing.T) {
	e := newEngine(t, propagatingConfig())
	r := record(e)

	s := e.SelectNode("docs")
	for _, id := range []string{"docs", "guide", "intro", "setup", "api"} {
		if !s.SelectedIDs.Has(id) {
			t.Errorf("%s not selected after branch select", id)
		}
	}
	if s.SelectedIDs.Has("src") || s.SelectedIDs.Has("readme") {
		t.Errorf("selection leaked outside the subtree: %v", s.SelectedIDs.Values())
	}
	if len(r.selection) != 5 {
		t.Errorf("selection events = %v, want one per subtree node", r.selection)
	}
	if len(r.manual) != 1 || r.manual[0] != "docs" {
		t.Errorf("manual select events = %v, want [docs]", r.manual)
	}
	if s.LastManuallyToggled != "" {
		t.Errorf("manual marker must be consumed by the cycle, got %q", s.LastManuallyToggled)
	}
}

func TestEngineUpwardCompletion(t *testing.T) {
	e := newEngine(t, propagatingConfig())
	r := record(e)

	s := e.SelectNode("intro")
	if !s.HalfSelectedIDs.Has("guide") || !s.HalfSelectedIDs.Has("docs") {
		t.Fatalf("ancestors not half-selected: %v", s.HalfSelectedIDs.Values())
	}
	if len(r.selection) != 1 || r.selection[0] != "intro" {
		t.Fatalf("half-selection must not fire selection events: %v", r.selection)
	}

	r.reset()
	s = e.SelectNode("setup")
	if !s.SelectedIDs.Has("guide") {
		t.Fatalf("guide should complete: %v", s.SelectedIDs.Values())
	}
	if !s.HalfSelectedIDs.Has("docs") {
		t.Errorf("docs should stay half while api is unselected")
	}
	if got := count(r.selection, "guide"); got != 1 {
		t.Errorf("guide toggled %d times in one cycle, want exactly 1 (events: %v)", got, r.selection)
	}
	if got := count(r.selection, "setup"); got != 1 {
		t.Errorf("setup events = %d, want 1", got)
	}
	if len(r.selection) != 2 {
		t.Errorf("selection events = %v, want [guide setup] in some order", r.selection)
	}
	if len(r.manual) != 1 || r.manual[0] != "setup" {
		t.Errorf("propagation must not raise manual events: %v", r.manual)
	}
}

func TestEngineTogglableBranchSelect(t *testing.T) {
	cfg := propagatingConfig()
	cfg.TogglableSelect = true
	e := newEngine(t, cfg)

	e.SelectNode("guide")
	s := e.SelectNode("guide")
	for _, id := range []string{"guide", "intro", "setup"} {
		if s.SelectedIDs.Has(id) {
			t.Errorf("%s still selected after toggle off", id)
		}
	}
	if s.HalfSelectedIDs.Has("docs") {
		t.Errorf("docs should settle back to unselected, half=%v", s.HalfSelectedIDs.Values())
	}
}

func TestEngineSingleSelectReplaces(t *testing.T) {
	e := newEngine(t, tree.Config{})
	r := record(e)

	e.SelectNode("intro")
	s := e.SelectNode("api")
	if s.SelectedIDs.Len() != 1 || !s.SelectedIDs.Has("api") {
		t.Errorf("single select should hold one id, got %v", s.SelectedIDs.Values())
	}
	// Second cycle toggles intro off and api on.
	if count(r.selection, "intro") != 2 || count(r.selection, "api") != 1 {
		t.Errorf("selection events = %v", r.selection)
	}
}

func TestEngineDisabledNodes(t *testing.T) {
	cfg := propagatingConfig()
	cfg.DefaultDisabledIDs = []string{"setup"}
	e := newEngine(t, cfg)
	r := record(e)

	if s := e.SelectNode("setup"); s.SelectedIDs.Len() != 0 || len(r.selection) != 0 {
		t.Fatalf("selecting a disabled node must be inert: sel=%v events=%v",
			s.SelectedIDs.Values(), r.selection)
	}

	s := e.SelectNode("guide")
	if !s.SelectedIDs.Has("guide") || !s.SelectedIDs.Has("intro") {
		t.Errorf("enabled subtree not selected: %v", s.SelectedIDs.Values())
	}
	if s.SelectedIDs.Has("setup") {
		t.Errorf("propagation crossed a disabled node")
	}
	// setup is excluded from guide's aggregate, so guide counts as fully
	// selected and docs as partially.
	if s.HalfSelectedIDs.Has("guide") {
		t.Errorf("guide should aggregate to fully selected")
	}
	if !s.HalfSelectedIDs.Has("docs") {
		t.Errorf("docs should be half-selected")
	}
}

func TestEngineControlledSelection(t *testing.T) {
	cfg := propagatingConfig()
	cfg.ControlledSelectedIDs = []string{"intro"}
	e := newEngine(t, cfg)
	r := record(e)

	if s := e.State(); !s.SelectedIDs.Has("intro") || s.SelectedIDs.Len() != 1 {
		t.Fatalf("initial controlled selection not seeded: %v", s.SelectedIDs.Values())
	}
	if s := e.State(); s.HalfSelectedIDs.Len() != 0 {
		t.Fatalf("initial seed must not propagate: half=%v", s.HalfSelectedIDs.Values())
	}

	// Repeating the current external value is an exact no-op.
	e.SetControlledSelection([]string{"intro"})
	if len(r.selection) != 0 {
		t.Fatalf("no-op reconciliation fired events: %v", r.selection)
	}

	// A genuinely new value replaces the selection wholesale and
	// propagates over newly-selected branches.
	s := e.SetControlledSelection([]string{"core"})
	for _, id := range []string{"core", "engine", "state"} {
		if !s.SelectedIDs.Has(id) {
			t.Errorf("%s missing after controlled branch select", id)
		}
	}
	if s.SelectedIDs.Has("intro") {
		t.Errorf("replaced id intro still selected")
	}
	if len(r.manual) != 0 {
		t.Errorf("reconciliation must not raise manual events: %v", r.manual)
	}

	// Clearing works through the same path.
	r.reset()
	s = e.SetControlledSelection(nil)
	if s.SelectedIDs.Len() != 0 {
		t.Errorf("clear left %v", s.SelectedIDs.Values())
	}
	if len(r.selection) == 0 {
		t.Errorf("clearing a live selection should notify")
	}
}

func TestEngineControlledLeafNotifiesOnce(t *testing.T) {
	e := newEngine(t, propagatingConfig())
	r := record(e)

	s := e.SetControlledSelection([]string{"intro"})
	if got := r.selection; len(got) != 1 || got[0] != "intro" {
		t.Fatalf("selection events = %v, want exactly [intro]", got)
	}
	if !s.HalfSelectedIDs.Has("guide") || !s.HalfSelectedIDs.Has("docs") {
		t.Fatalf("ancestors of a lone selected leaf should be half-selected: %v",
			s.HalfSelectedIDs.Values())
	}
	if len(r.manual) != 0 {
		t.Errorf("reconciliation raised manual events: %v", r.manual)
	}
}

func TestEngineControlledExpansion(t *testing.T) {
	cfg := propagatingConfig()
	cfg.PropagateCollapse = true
	e := newEngine(t, cfg)
	r := record(e)

	s := e.SetControlledExpansion([]string{"guide"})
	if !s.ExpandedIDs.Has("guide") || !s.ExpandedIDs.Has("docs") {
		t.Fatalf("expanding guide must also expand its parent: %v", s.ExpandedIDs.Values())
	}
	if count(r.loads, "guide") != 1 || count(r.loads, "docs") != 1 {
		t.Errorf("load requests = %v, want one per newly expanded branch", r.loads)
	}

	r.reset()
	e.SetControlledExpansion([]string{"guide"})
	if len(r.expansion) != 0 || len(r.loads) != 0 {
		t.Fatalf("no-op reconciliation fired events: %v %v", r.expansion, r.loads)
	}

	// Removing guide collapses only guide; docs was a courtesy expansion
	// and is not owned by the controlled set.
	s = e.SetControlledExpansion(nil)
	if s.ExpandedIDs.Has("guide") {
		t.Errorf("guide still expanded")
	}
	if !s.ExpandedIDs.Has("docs") {
		t.Errorf("docs should stay expanded")
	}
}

func TestEngineLoadOnExpand(t *testing.T) {
	nodes := []tree.Node{
		{ID: "root", Name: "Root", Children: []string{"remote"}},
		{ID: "remote", Name: "Remote", IsBranch: true},
	}
	e, err := tree.NewEngine(nodes, tree.Config{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	var loads []string
	e.OnLoadData(func(req tree.LoadRequest) { loads = append(loads, req.Node.ID) })

	s := e.Dispatch(tree.Expand{ID: "remote"})
	if !s.ExpandedIDs.Has("remote") {
		t.Fatalf("remote not expanded")
	}
	if len(loads) != 1 || loads[0] != "remote" {
		t.Fatalf("load requests = %v, want [remote]", loads)
	}

	// The owner fetched children; the grown tree keeps remote expanded.
	grown := append(nodes[:len(nodes):len(nodes)],
		tree.Node{ID: "leaf-a", Name: "Leaf A"},
		tree.Node{ID: "leaf-b", Name: "Leaf B"},
	)
	grown[1].Children = []string{"leaf-a", "leaf-b"}
	if err := e.SetNodes(grown); err != nil {
		t.Fatalf("SetNodes: %v", err)
	}
	s = e.State()
	if !s.ExpandedIDs.Has("remote") {
		t.Errorf("expansion lost across data swap")
	}
	if got := e.Tree().ChildIDs("remote"); len(got) != 2 {
		t.Errorf("remote children = %v", got)
	}
}

func TestEngineDataSwapKeepsSurvivors(t *testing.T) {
	e := newEngine(t, propagatingConfig())
	e.SelectNode("util")
	e.Dispatch(tree.Focus{ID: "util"})
	r := record(e)

	// util vanishes; intro survives as a top-level leaf.
	err := e.SetNodes([]tree.Node{
		{ID: "docs", Name: "Documentation", Children: []string{"intro"}},
		{ID: "intro", Name: "Introduction"},
	})
	if err != nil {
		t.Fatalf("SetNodes: %v", err)
	}
	s := e.State()
	if s.SelectedIDs.Len() != 0 {
		t.Errorf("selection should be pruned with util gone: %v", s.SelectedIDs.Values())
	}
	if len(r.selection) != 0 {
		t.Errorf("vanished ids must not fire selection events: %v", r.selection)
	}
	if s.TabbableID != "docs" {
		t.Errorf("focus should re-anchor to the first node, got %q", s.TabbableID)
	}
}

func TestEngineBlur(t *testing.T) {
	e := newEngine(t, tree.Config{})
	var events []tree.BlurEvent
	e.OnBlur(func(ev tree.BlurEvent) { events = append(events, ev) })

	e.Dispatch(tree.Focus{ID: "src"})
	s := e.Blur()
	if s.IsFocused {
		t.Fatalf("still focused after blur")
	}
	if len(events) != 1 {
		t.Fatalf("blur events = %d, want 1", len(events))
	}
	if events[0].State.IsFocused {
		t.Errorf("blur event carries a focused state")
	}
	// Blurring an already blurred widget is silent.
	e.Blur()
	if len(events) != 1 {
		t.Errorf("repeated blur fired again")
	}
}

func TestEngineRejectsInvalidSetup(t *testing.T) {
	_, err := tree.NewEngine(demoNodes(), tree.Config{PropagateSelect: true})
	if err == nil || !strings.Contains(err.Error(), "multi select") {
		t.Errorf("propagate without multi select: err = %v", err)
	}

	_, err = tree.NewEngine(demoNodes(), tree.Config{DefaultSelectedIDs: []string{"ghost"}})
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("unknown default id: err = %v", err)
	}

	_, err = tree.NewEngine([]tree.Node{{ID: "a", Children: []string{"b"}}}, tree.Config{})
	if err == nil || !strings.Contains(err.Error(), "building tree") {
		t.Errorf("bad nodes: err = %v", err)
	}
}
