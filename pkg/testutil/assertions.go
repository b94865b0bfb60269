package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// AssertNodeCount verifies the expected number of nodes.
func AssertNodeCount(t *testing.T, nodes []tree.Node, expected int) {
	t.Helper()
	if len(nodes) != expected {
		t.Errorf("expected %d nodes, got %d", expected, len(nodes))
	}
}

// AssertNoDuplicateIDs verifies all node IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, nodes []tree.Node) {
	t.Helper()
	seen := make(map[string]bool)
	for _, node := range nodes {
		if seen[node.ID] {
			t.Errorf("duplicate node ID: %s", node.ID)
		}
		seen[node.ID] = true
	}
}

// AssertValidOutline verifies the nodes build into a tree and returns it.
func AssertValidOutline(t *testing.T, nodes []tree.Node) *tree.Tree {
	t.Helper()
	tr, err := tree.New(nodes)
	if err != nil {
		t.Fatalf("expected valid outline, got: %v", err)
	}
	return tr
}

// AssertInvalidOutline verifies the nodes are rejected at construction.
func AssertInvalidOutline(t *testing.T, nodes []tree.Node) {
	t.Helper()
	if _, err := tree.New(nodes); err == nil {
		t.Error("expected outline construction to fail, but it succeeded")
	}
}

// AssertChildOf verifies that child is recorded under parent.
// Pass "" as parent to assert the child is a top-level node.
func AssertChildOf(t *testing.T, tr *tree.Tree, parent, child string) {
	t.Helper()
	if !tr.Has(child) {
		t.Errorf("node %s not found", child)
		return
	}
	got, _ := tr.Parent(child)
	if got != parent {
		t.Errorf("expected parent of %s to be %q, got %q", child, parent, got)
	}
}

// AssertDepth verifies a node's depth. Top-level nodes sit at depth 0.
func AssertDepth(t *testing.T, tr *tree.Tree, id string, expected int) {
	t.Helper()
	got := tr.Depth(id)
	if got < 0 {
		t.Errorf("node %s not found", id)
		return
	}
	if got != expected {
		t.Errorf("expected depth %d for %s, got %d", expected, id, got)
	}
}

// AssertPreorder verifies the full traversal order of the tree.
func AssertPreorder(t *testing.T, tr *tree.Tree, expected ...string) {
	t.Helper()
	got := tr.IDs()
	if len(got) != len(expected) {
		t.Errorf("expected order %v, got %v", expected, got)
		return
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("traversal differs at index %d: expected %s, got %s (full: %v)", i, expected[i], got[i], got)
			return
		}
	}
}

// Selection state assertions

// AssertSelected verifies each id is fully selected.
func AssertSelected(t *testing.T, st *tree.State, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if !st.SelectedIDs.Has(id) {
			t.Errorf("expected %s to be selected", id)
		}
	}
}

// AssertNotSelected verifies each id is neither selected nor half-selected.
func AssertNotSelected(t *testing.T, st *tree.State, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if st.SelectedIDs.Has(id) {
			t.Errorf("expected %s to not be selected", id)
		}
		if st.HalfSelectedIDs.Has(id) {
			t.Errorf("expected %s to not be half-selected", id)
		}
	}
}

// AssertHalfSelected verifies each id is half-selected.
func AssertHalfSelected(t *testing.T, st *tree.State, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if !st.HalfSelectedIDs.Has(id) {
			t.Errorf("expected %s to be half-selected", id)
		}
	}
}

// AssertExpanded verifies each id is expanded.
func AssertExpanded(t *testing.T, st *tree.State, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if !st.ExpandedIDs.Has(id) {
			t.Errorf("expected %s to be expanded", id)
		}
	}
}

// AssertCollapsed verifies each id is collapsed.
func AssertCollapsed(t *testing.T, st *tree.State, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if st.ExpandedIDs.Has(id) {
			t.Errorf("expected %s to be collapsed", id)
		}
	}
}

// AssertSelectionDisjoint verifies no node sits in both the selected and
// half-selected sets. Every state transition must preserve this.
func AssertSelectionDisjoint(t *testing.T, st *tree.State) {
	t.Helper()
	for _, id := range st.SelectedIDs.Values() {
		if st.HalfSelectedIDs.Has(id) {
			t.Errorf("node %s is both selected and half-selected", id)
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		// Update golden file
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	// Compare against golden file
	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		// Find first difference for helpful error message
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s\n\nFull diff (expected vs actual):\n%s\nvs\n%s",
					i+1, expLine, actLine, string(expected), actual)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}

// TempDir helpers

// TempOutlineDir creates a temporary directory with a .treeline subdirectory
// and returns the path. The directory is cleaned up after the test.
func TempOutlineDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	outlineDir := filepath.Join(dir, ".treeline")
	if err := os.MkdirAll(outlineDir, 0755); err != nil {
		t.Fatalf("failed to create .treeline dir: %v", err)
	}
	return dir
}

// WriteOutlineFile writes nodes to an outline.jsonl file in the given
// directory's .treeline subdirectory, where discovery looks for it.
func WriteOutlineFile(t *testing.T, dir string, nodes []tree.Node) string {
	t.Helper()

	outlinePath := filepath.Join(dir, ".treeline", "outline.jsonl")
	content := ToJSONL(nodes)

	if err := os.WriteFile(outlinePath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write outline file: %v", err)
	}
	return outlinePath
}

// WriteNodesFile writes nodes to a custom path.
func WriteNodesFile(t *testing.T, path string, nodes []tree.Node) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	content := ToJSONL(nodes)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write nodes file: %v", err)
	}
}

// Node lookup helpers

// BuildNodeMap creates a map from ID to Node for quick lookups.
func BuildNodeMap(nodes []tree.Node) map[string]*tree.Node {
	m := make(map[string]*tree.Node, len(nodes))
	for i := range nodes {
		m[nodes[i].ID] = &nodes[i]
	}
	return m
}

// FindNode returns the node with the given ID, or nil if not found.
func FindNode(nodes []tree.Node, id string) *tree.Node {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
	}
	return nil
}

// CountByDepth returns a map of depth -> node count.
func CountByDepth(tr *tree.Tree) map[int]int {
	counts := make(map[int]int)
	for _, id := range tr.IDs() {
		counts[tr.Depth(id)]++
	}
	return counts
}

// GetIDs returns a slice of all node IDs in input order.
func GetIDs(nodes []tree.Node) []string {
	ids := make([]string, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID
	}
	return ids
}

// NodeID generates a standard test node ID with the given index.
// Format: "test-{index}" for consistency across tests.
func NodeID(index int) string {
	return fmt.Sprintf("test-%d", index)
}
