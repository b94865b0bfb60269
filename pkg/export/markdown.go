package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// GenerateMarkdown renders the outline and its selection state as a markdown
// document: a summary table, the outline as a nested task list, and a Mermaid
// diagram of the structure. Selected nodes render as checked items; partially
// selected branches use the [-] marker most outliners understand; disabled
// nodes are annotated inline.
func GenerateMarkdown(t *tree.Tree, st *tree.State, title string) (string, error) {
	if t == nil || t.Len() == 0 {
		return "", fmt.Errorf("no outline to export")
	}

	var sb strings.Builder

	if strings.TrimSpace(title) == "" {
		title = "Outline"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", time.Now().Format(time.RFC1123)))

	// Summary Statistics
	sb.WriteString("## Summary\n\n")

	branches, leaves := 0, 0
	selected, partial, disabled, expanded := 0, 0, 0, 0
	for _, id := range t.IDs() {
		if t.IsBranch(id) {
			branches++
		} else {
			leaves++
		}
		if st == nil {
			continue
		}
		if st.SelectedIDs.Has(id) {
			selected++
		}
		if st.HalfSelectedIDs.Has(id) {
			partial++
		}
		if st.DisabledIDs.Has(id) {
			disabled++
		}
		if st.ExpandedIDs.Has(id) {
			expanded++
		}
	}

	sb.WriteString("| Metric | Count |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| **Total** | %d |\n", t.Len()))
	sb.WriteString(fmt.Sprintf("| Branches | %d |\n", branches))
	sb.WriteString(fmt.Sprintf("| Leaves | %d |\n", leaves))
	sb.WriteString(fmt.Sprintf("| Selected | %d |\n", selected))
	sb.WriteString(fmt.Sprintf("| Partially selected | %d |\n", partial))
	sb.WriteString(fmt.Sprintf("| Disabled | %d |\n", disabled))
	sb.WriteString(fmt.Sprintf("| Expanded | %d |\n\n", expanded))

	// The outline itself, one task-list item per node
	sb.WriteString("## Outline\n\n")
	for _, id := range t.IDs() {
		node, _ := t.Get(id)
		indent := strings.Repeat("  ", t.Depth(id))

		sb.WriteString(fmt.Sprintf("%s- %s %s", indent, checkboxMarker(st, id), node.Name))
		if st != nil && st.DisabledIDs.Has(id) {
			sb.WriteString(" *(disabled)*")
		}
		sb.WriteString("\n")

		if node.Notes != "" {
			for _, line := range strings.Split(node.Notes, "\n") {
				sb.WriteString(fmt.Sprintf("%s  > %s\n", indent, line))
			}
		}
	}
	sb.WriteString("\n---\n\n")

	// Structure Diagram (Mermaid)
	sb.WriteString("## Structure\n\n")
	sb.WriteString("```mermaid\n")
	sb.WriteString(GenerateMermaidOutline(t, st, MermaidConfig{ShowEmptyNode: true}))
	sb.WriteString("```\n")

	return sb.String(), nil
}

// checkboxMarker returns the task-list marker for a node. Strict GFM renders
// only [ ] and [x]; the [-] partial marker degrades to plain text there.
func checkboxMarker(st *tree.State, id string) string {
	if st == nil {
		return "[ ]"
	}
	switch {
	case st.SelectedIDs.Has(id):
		return "[x]"
	case st.HalfSelectedIDs.Has(id):
		return "[-]"
	default:
		return "[ ]"
	}
}
