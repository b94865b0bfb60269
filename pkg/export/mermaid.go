package export

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// MermaidConfig configures Mermaid outline generation.
type MermaidConfig struct {
	VisibleOnly   bool // render only rows reachable through expanded branches
	ShowEmptyNode bool // emit a placeholder node for an empty outline
}

// GenerateMermaidOutline renders the outline as a Mermaid flowchart: one node
// per row (branches square, leaves rounded) and one edge per parent/child
// pair. Selected, partially selected, and disabled nodes get style classes;
// unselected nodes keep the renderer default.
func GenerateMermaidOutline(t *tree.Tree, st *tree.State, cfg MermaidConfig) string {
	var sb strings.Builder

	sb.WriteString("graph TD\n")
	sb.WriteString("    classDef selected fill:#50FA7B,stroke:#333,color:#000\n")
	sb.WriteString("    classDef partial fill:#F1FA8C,stroke:#333,color:#000\n")
	sb.WriteString("    classDef disabled fill:#6272A4,stroke:#333,color:#fff\n")
	sb.WriteString("\n")

	if t == nil || t.Len() == 0 {
		if cfg.ShowEmptyNode {
			sb.WriteString("    Empty[\"Empty outline\"]\n")
		}
		return sb.String()
	}

	ids := t.IDs()
	if cfg.VisibleOnly && st != nil {
		ids = t.AccessibleIDs(st.ExpandedIDs)
	}

	// Build deterministic, collision-free Mermaid IDs.
	safeIDMap := make(map[string]string, len(ids))
	usedSafe := make(map[string]bool, len(ids))

	getSafeID := func(orig string) string {
		if safe, ok := safeIDMap[orig]; ok {
			return safe
		}
		base := sanitizeMermaidID(orig)
		safe := base
		if usedSafe[safe] {
			// Collision: derive stable hash-based suffix
			h := fnv.New32a()
			_, _ = h.Write([]byte(orig))
			safe = fmt.Sprintf("%s_%x", base, h.Sum32())
		}
		usedSafe[safe] = true
		safeIDMap[orig] = safe
		return safe
	}

	// Pre-calculate all safe IDs so edges and nodes agree
	for _, id := range ids {
		getSafeID(id)
	}

	included := make(map[string]bool, len(ids))
	for _, id := range ids {
		included[id] = true
	}

	// Nodes in row order
	for _, id := range ids {
		node, _ := t.Get(id)
		safeID := getSafeID(id)
		label := sanitizeMermaidText(node.Name)

		if t.IsBranch(id) {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, label))
		} else {
			sb.WriteString(fmt.Sprintf("    %s(\"%s\")\n", safeID, label))
		}

		var class string
		if st != nil {
			switch {
			case st.DisabledIDs.Has(id):
				class = "disabled"
			case st.SelectedIDs.Has(id):
				class = "selected"
			case st.HalfSelectedIDs.Has(id):
				class = "partial"
			}
		}
		if class != "" {
			sb.WriteString(fmt.Sprintf("    class %s %s\n", safeID, class))
		}
	}

	sb.WriteString("\n")

	// Edges, parent to child in row order
	for _, id := range ids {
		parent, ok := t.Parent(id)
		if !ok || parent == "" || !included[parent] {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", getSafeID(parent), getSafeID(id)))
	}

	return sb.String()
}

// sanitizeMermaidID ensures an ID is valid for Mermaid diagrams.
// Mermaid node IDs must be alphanumeric with hyphens/underscores.
func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	result := sb.String()
	if result == "" {
		return "node"
	}
	return result
}

// sanitizeMermaidText prepares text for use in Mermaid node labels.
// Removes/escapes characters that break Mermaid syntax.
func sanitizeMermaidText(text string) string {
	replacer := strings.NewReplacer(
		"\"", "'",
		"[", "(",
		"]", ")",
		"{", "(",
		"}", ")",
		"<", "&lt;",
		">", "&gt;",
		"|", "/",
		"`", "'",
		"\n", " ",
		"\r", "",
	)
	result := replacer.Replace(text)

	// Remove any remaining control characters
	result = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)

	result = strings.TrimSpace(result)

	// Truncate if too long (UTF-8 safe using runes)
	runes := []rune(result)
	if len(runes) > 40 {
		result = string(runes[:37]) + "..."
	}

	return result
}
