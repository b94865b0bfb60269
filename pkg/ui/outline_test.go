package ui_test

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/treeline/pkg/tree"
	"github.com/vanderheijden86/treeline/pkg/ui"
)

// newTestOutline builds an outline pane over the standard fixture with
// every branch expanded, for rendering assertions over the full frontier.
func newTestOutline(t *testing.T) (*tree.Engine, ui.OutlineModel) {
	t.Helper()
	cfg := outlineTestConfig()
	cfg.DefaultExpandedIDs = []string{"docs", "guide", "src"}
	eng, err := tree.NewEngine(outlineTestNodes(), cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng, ui.NewOutlineModel(eng, ui.TestTheme())
}

// newCollapsedOutline builds an outline pane with everything collapsed.
func newCollapsedOutline(t *testing.T) (*tree.Engine, ui.OutlineModel) {
	t.Helper()
	eng, err := tree.NewEngine(outlineTestNodes(), outlineTestConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng, ui.NewOutlineModel(eng, ui.TestTheme())
}

// TestOutlineFrontierSkipsCollapsedSubtrees verifies the row list hides
// everything inside collapsed branches and grows when one expands.
func TestOutlineFrontierSkipsCollapsedSubtrees(t *testing.T) {
	eng, o := newCollapsedOutline(t)

	if got := strings.Join(o.Frontier(), " "); got != "docs src readme" {
		t.Fatalf("expected collapsed frontier 'docs src readme', got %q", got)
	}

	eng.Dispatch(tree.Expand{ID: "docs"})
	o.Sync()
	if got := strings.Join(o.Frontier(), " "); got != "docs guide api src readme" {
		t.Errorf("expected frontier with docs open, got %q", got)
	}
}

// TestOutlineViewShowsHeaderTitle verifies the header row carries the
// source title.
func TestOutlineViewShowsHeaderTitle(t *testing.T) {
	_, o := newCollapsedOutline(t)
	o.SetTitle("outline.jsonl")

	if view := o.View(); !strings.Contains(view, "outline.jsonl") {
		t.Error("expected the title in the header row")
	}
}

// TestOutlineExpanderGlyphs verifies branch rows show collapse arrows and
// leaves show a dot.
func TestOutlineExpanderGlyphs(t *testing.T) {
	eng, o := newCollapsedOutline(t)

	view := o.View()
	if !strings.Contains(view, "▸") {
		t.Error("expected collapsed-branch arrows")
	}
	if !strings.Contains(view, "•") {
		t.Error("expected a leaf dot for readme")
	}
	if strings.Contains(view, "▾") {
		t.Error("expected no expanded-branch arrow while collapsed")
	}

	eng.Dispatch(tree.Expand{ID: "docs"})
	o.Sync()
	if !strings.Contains(o.View(), "▾") {
		t.Error("expected an expanded-branch arrow after expanding docs")
	}
}

// TestOutlineTriStateCheckboxes verifies the three checkbox states render
// together: selected leaf, half-selected ancestors, untouched sibling.
func TestOutlineTriStateCheckboxes(t *testing.T) {
	eng, o := newTestOutline(t)

	eng.SelectNode("intro")
	o.Sync()

	view := o.View()
	if !strings.Contains(view, "[x]") {
		t.Error("expected a checked box for intro")
	}
	if !strings.Contains(view, "[~]") {
		t.Error("expected partial boxes for guide and docs")
	}
	if !strings.Contains(view, "[ ]") {
		t.Error("expected unchecked boxes for untouched rows")
	}
}

// TestOutlineGuideToggle verifies branch guides render by default and turn
// into plain indentation when switched off.
func TestOutlineGuideToggle(t *testing.T) {
	_, o := newTestOutline(t)

	view := o.View()
	if !strings.Contains(view, "├── ") || !strings.Contains(view, "└── ") {
		t.Error("expected branch and corner connectors with guides on")
	}
	if !strings.Contains(view, "│") {
		t.Error("expected vertical guides for continuing levels")
	}

	o.SetShowGuides(false)
	view = o.View()
	if strings.Contains(view, "├──") || strings.Contains(view, "└──") || strings.Contains(view, "│") {
		t.Error("expected no guide characters with guides off")
	}
}

// TestOutlineNotesMarker verifies rows with notes carry the marker.
func TestOutlineNotesMarker(t *testing.T) {
	_, o := newTestOutline(t)
	if !strings.Contains(o.View(), "≡") {
		t.Error("expected a notes marker on the intro row")
	}

	_, collapsed := newCollapsedOutline(t)
	if strings.Contains(collapsed.View(), "≡") {
		t.Error("expected no notes marker while intro is hidden")
	}
}

// TestOutlineFocusedRowHighlighted verifies the focused row carries the
// left border marker.
func TestOutlineFocusedRowHighlighted(t *testing.T) {
	_, o := newCollapsedOutline(t)
	if !strings.Contains(o.View(), "┃") {
		t.Error("expected the focus border on the focused row")
	}
}

// TestOutlineWindowFollowsFocus verifies windowed rendering: rows outside
// the pane stay unrendered and the window moves with focus.
func TestOutlineWindowFollowsFocus(t *testing.T) {
	eng, o := newTestOutline(t)
	o.SetSize(80, 6)

	view := o.View()
	if !strings.Contains(view, "Documentation") {
		t.Fatal("expected the top row on the first screen")
	}
	if strings.Contains(view, "Readme") {
		t.Error("expected the last row off the first screen")
	}
	if !strings.Contains(view, "of 9") {
		t.Error("expected the position indicator while scrolling")
	}

	eng.HandleKey(tree.KeyEvent{Key: tree.KeyEnd})
	o.Sync()

	view = o.View()
	if !strings.Contains(view, "Readme") {
		t.Error("expected the last row on screen after End")
	}
	if strings.Contains(view, "Documentation") {
		t.Error("expected the top row scrolled out after End")
	}
}

// TestOutlinePositionIndicatorOnlyWhenScrolling verifies the indicator
// stays hidden while every row fits.
func TestOutlinePositionIndicatorOnlyWhenScrolling(t *testing.T) {
	_, o := newTestOutline(t)
	o.SetSize(80, 20)

	if strings.Contains(o.View(), "of 9") {
		t.Error("expected no position indicator when all rows fit")
	}
}

// TestOutlineIDColumnOnWidePanes verifies the id column appears on wide
// panes and drops off narrow ones.
func TestOutlineIDColumnOnWidePanes(t *testing.T) {
	_, o := newCollapsedOutline(t)

	o.SetSize(80, 20)
	if !strings.Contains(o.View(), "readme") {
		t.Error("expected the id column on a wide pane")
	}

	o.SetSize(50, 20)
	view := o.View()
	if strings.Contains(view, "readme") {
		t.Error("expected no id column on a narrow pane")
	}
	if !strings.Contains(view, "Readme") {
		t.Error("expected the name still rendered on a narrow pane")
	}
}
