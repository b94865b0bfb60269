package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treeline/pkg/metrics"
	"github.com/vanderheijden86/treeline/pkg/tree"
)

// OutlineModel renders the engine's accessible frontier as a scrollable
// outline pane. It owns presentation state only (window offset, guide
// toggle, dimensions); selection, expansion and focus all live in the
// engine, and Sync pulls a fresh frontier after every dispatch.
type OutlineModel struct {
	engine *tree.Engine
	theme  Theme
	title  string

	// frontier is the accessible id list in display order, rebuilt by
	// Sync from the engine state.
	frontier []string

	width          int
	height         int
	viewportOffset int

	showGuides bool
}

// NewOutlineModel creates an outline pane over the engine.
func NewOutlineModel(engine *tree.Engine, theme Theme) OutlineModel {
	o := OutlineModel{
		engine:     engine,
		theme:      theme,
		title:      "Outline",
		width:      80,
		height:     20,
		showGuides: true,
	}
	o.Sync()
	return o
}

// SetTitle sets the header label, usually the outline source name.
func (o *OutlineModel) SetTitle(title string) {
	if title != "" {
		o.title = title
	}
}

// SetSize updates the pane dimensions.
func (o *OutlineModel) SetSize(width, height int) {
	o.width = width
	o.height = height
	o.ensureFocusVisible()
}

// SetShowGuides toggles the branch guide lines.
func (o *OutlineModel) SetShowGuides(show bool) {
	o.showGuides = show
}

// Sync rebuilds the frontier from the engine state and scrolls the
// focused row into view. Call after every engine dispatch.
func (o *OutlineModel) Sync() {
	st := o.engine.State()
	o.frontier = o.engine.Tree().AccessibleIDs(st.ExpandedIDs)
	o.ensureFocusVisible()
}

// Frontier returns the ids currently in display order, top to bottom.
func (o *OutlineModel) Frontier() []string {
	return o.frontier
}

// focusIndex returns the frontier position of the engine's tabbable node,
// or -1 when the focused node is hidden inside a collapsed branch.
func (o *OutlineModel) focusIndex() int {
	id := o.engine.State().TabbableID
	for i, v := range o.frontier {
		if v == id {
			return i
		}
	}
	return -1
}

// effectiveVisibleCount returns how many rows fit below the header.
func (o *OutlineModel) effectiveVisibleCount() int {
	visibleCount := o.height - 1 // header row
	if visibleCount <= 0 {
		visibleCount = 19
	}
	// Reserve 1 more line for the position indicator when scrolling is needed
	if len(o.frontier) > visibleCount {
		visibleCount--
	}
	if visibleCount < 1 {
		visibleCount = 1
	}
	return visibleCount
}

// ensureFocusVisible adjusts viewportOffset so the focused row stays on
// screen, scrolling just enough to bring it back to an edge.
func (o *OutlineModel) ensureFocusVisible() {
	if len(o.frontier) == 0 {
		o.viewportOffset = 0
		return
	}

	cursor := o.focusIndex()
	if cursor < 0 {
		cursor = 0
	}
	visibleCount := o.effectiveVisibleCount()

	if cursor < o.viewportOffset {
		o.viewportOffset = cursor
	}
	if cursor >= o.viewportOffset+visibleCount {
		o.viewportOffset = cursor - visibleCount + 1
	}

	maxOffset := len(o.frontier) - visibleCount
	if maxOffset < 0 {
		maxOffset = 0
	}
	if o.viewportOffset > maxOffset {
		o.viewportOffset = maxOffset
	}
	if o.viewportOffset < 0 {
		o.viewportOffset = 0
	}
}

// visibleRange returns the [start, end) frontier window for the current
// offset and height.
func (o *OutlineModel) visibleRange() (start, end int) {
	if len(o.frontier) == 0 {
		return 0, 0
	}

	visibleCount := o.effectiveVisibleCount()

	start = o.viewportOffset
	if start < 0 {
		start = 0
	}
	end = start + visibleCount
	if end > len(o.frontier) {
		end = len(o.frontier)
		start = end - visibleCount
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func (o *OutlineModel) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if len(o.frontier) == 0 {
		return o.renderEmptyState()
	}

	var sb strings.Builder

	sb.WriteString(o.renderHeader())
	sb.WriteString("\n")

	st := o.engine.State()
	cursor := o.focusIndex()
	start, end := o.visibleRange()

	// Render only visible rows (windowed rendering)
	for i := start; i < end; i++ {
		id := o.frontier[i]
		line := o.renderRow(id, st, i == cursor)

		if i == cursor {
			line = o.theme.Focused.Render(line)
		} else if st.DisabledIDs.Has(id) {
			line = o.theme.DisabledText.Render(line)
		}

		sb.WriteString(line)
		sb.WriteString("\n")
	}

	// Position indicator only when there are more rows than fit
	if len(o.frontier) > o.height-1 && o.height > 0 {
		sb.WriteString(o.renderPositionIndicator(start, end))
	}

	return sb.String()
}

// renderHeader returns the styled header row for the outline pane.
func (o *OutlineModel) renderHeader() string {
	width := o.width
	if width <= 0 {
		width = 80
	}
	headerStyle := o.theme.Renderer.NewStyle().
		Background(o.theme.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Width(width)

	return headerStyle.Render(" " + truncate(o.title, width-2))
}

// renderPositionIndicator renders the scroll position line below the rows.
func (o *OutlineModel) renderPositionIndicator(start, end int) string {
	total := len(o.frontier)
	indicator := fmt.Sprintf(" %d-%d of %d", start+1, end, total)
	return o.theme.MutedText.Render(indicator)
}

// renderEmptyState renders the view when the tree has no nodes.
func (o *OutlineModel) renderEmptyState() string {
	r := o.theme.Renderer

	titleStyle := r.NewStyle().
		Foreground(o.theme.Primary).
		Bold(true)
	mutedStyle := r.NewStyle().
		Foreground(o.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(o.title))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("No nodes to display."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Point treeline at an outline file or directory:"))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("  treeline -data outline.jsonl"))

	return sb.String()
}

// renderRow renders one frontier row:
// [guides][expander] [checkbox] name [notes-mark] ... id
func (o *OutlineModel) renderRow(id string, st tree.State, isFocused bool) string {
	node, ok := o.engine.Tree().Get(id)
	if !ok {
		return ""
	}

	width := o.width
	if width <= 0 {
		width = 80
	}
	// Reduce width by 1 to prevent terminal wrapping on the exact edge
	width--

	var leftSide strings.Builder

	// ── Guide prefix (indentation + branch characters) ──
	prefix := o.buildGuidePrefix(id)
	leftSide.WriteString(o.theme.GuideText.Render(prefix))
	prefixWidth := lipgloss.Width(prefix)

	// ── Expand/collapse indicator ──
	indicator := o.expandIndicator(id, st)
	leftSide.WriteString(o.theme.ExpanderText.Render(indicator))
	leftSide.WriteString(" ")

	// ── Tri-state checkbox ──
	selected := st.SelectedIDs.Has(id)
	half := st.HalfSelectedIDs.Has(id)
	box := checkboxGlyph(selected, half)
	leftSide.WriteString(o.theme.CheckboxStyle(selected, half).Render(box))
	leftSide.WriteString(" ")

	// prefix + indicator(1) + space(1) + box(3) + space(1)
	fixedWidth := prefixWidth + 1 + 1 + 3 + 1

	// ── Right side: id column on wide panes ──
	rightWidth := 0
	var rightParts []string
	if width > 60 {
		idStr := truncateRunesHelper(id, 24, "…")
		rightParts = append(rightParts, o.theme.MutedText.Render(idStr))
		rightWidth = lipgloss.Width(idStr) + 1
	}

	// ── Notes marker ──
	notesMark := ""
	if node.Notes != "" {
		notesMark = o.theme.NotesMark.Render("≡")
		rightWidth += 2
	}

	// ── Name (fills remaining space) ──
	nameWidth := width - fixedWidth - rightWidth - 2
	if nameWidth < 5 {
		nameWidth = 5
	}
	name := truncateRunesHelper(node.Name, nameWidth, "…")
	currentNameWidth := lipgloss.Width(name)
	if currentNameWidth < nameWidth {
		name = name + strings.Repeat(" ", nameWidth-currentNameWidth)
	}

	nameStyle := o.theme.Base
	if isFocused {
		nameStyle = nameStyle.Bold(true)
	}
	leftSide.WriteString(nameStyle.Render(name))

	if notesMark != "" {
		leftSide.WriteString(" ")
		leftSide.WriteString(notesMark)
	}
	for _, part := range rightParts {
		leftSide.WriteString(" ")
		leftSide.WriteString(part)
	}

	return leftSide.String()
}

// checkboxGlyph returns the tri-state checkbox for a row.
func checkboxGlyph(selected, half bool) string {
	switch {
	case selected:
		return "[x]"
	case half:
		return "[~]"
	default:
		return "[ ]"
	}
}

// expandIndicator returns the expander glyph for a row: collapsed and
// expanded branches get arrows, leaves a dot.
func (o *OutlineModel) expandIndicator(id string, st tree.State) string {
	if !o.engine.Tree().IsBranch(id) {
		return "•"
	}
	if st.ExpandedIDs.Has(id) {
		return "▾"
	}
	return "▸"
}

// buildGuidePrefix builds the tree-drawing prefix for a row. Each ancestor
// level contributes a vertical guide when siblings continue below it, and
// the row itself gets a branch or corner connector.
func (o *OutlineModel) buildGuidePrefix(id string) string {
	t := o.engine.Tree()

	// Ancestors root-first, then the node itself
	chain := t.AncestorIDs(id)
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	var parts []string
	for _, ancestor := range chain {
		if o.showGuides && o.hasSiblingsBelow(ancestor) {
			parts = append(parts, "│   ")
		} else {
			parts = append(parts, "    ")
		}
	}

	if !o.showGuides {
		return strings.Join(parts, "")
	}
	if o.isLastSibling(id) {
		parts = append(parts, "└── ")
	} else {
		parts = append(parts, "├── ")
	}
	return strings.Join(parts, "")
}

// hasSiblingsBelow reports whether more siblings follow id in its parent's
// child list (or in the top-level list for roots).
func (o *OutlineModel) hasSiblingsBelow(id string) bool {
	t := o.engine.Tree()
	sibs := t.Roots()
	if parent, ok := t.Parent(id); ok {
		sibs = t.ChildIDs(parent)
	}
	for i, sib := range sibs {
		if sib == id {
			return i < len(sibs)-1
		}
	}
	return false
}

// isLastSibling reports whether id closes its parent's child list.
func (o *OutlineModel) isLastSibling(id string) bool {
	return !o.hasSiblingsBelow(id)
}
