package datasource_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/treeline/internal/datasource"
	"github.com/vanderheijden86/treeline/pkg/tree"
)

func TestParseFlat_Basic(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"fruits","name":"Fruits","children":["apple","pear"]}`,
		`{"id":"apple","name":"Apple"}`,
		`{"id":"pear","name":"Pear","notes":"seasonal"}`,
	}, "\n")

	nodes, err := datasource.ParseFlat(strings.NewReader(input), datasource.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseFlat: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	if nodes[0].ID != "fruits" || len(nodes[0].Children) != 2 {
		t.Errorf("first node = %+v", nodes[0])
	}
	if nodes[2].Notes != "seasonal" {
		t.Errorf("notes not parsed: %+v", nodes[2])
	}

	// The parsed list builds a valid tree.
	if _, err := tree.New(nodes); err != nil {
		t.Errorf("parsed nodes rejected: %v", err)
	}
}

func TestParseFlat_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"a","name":"A"}`,
		`{not json`,
		``,
		`{"name":"missing id"}`,
		`{"id":"b","name":"B"}`,
	}, "\n")

	var warnings []string
	nodes, err := datasource.ParseFlat(strings.NewReader(input), datasource.ParseOptions{
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatalf("ParseFlat: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("got %d nodes, want 2 (a, b)", len(nodes))
	}
	if len(warnings) != 2 {
		t.Errorf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
	for _, w := range warnings {
		if !strings.Contains(w, "line") {
			t.Errorf("warning without line number: %q", w)
		}
	}
}

func TestParseFlat_StripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBF" + `{"id":"a","name":"A"}`
	nodes, err := datasource.ParseFlat(strings.NewReader(input), datasource.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseFlat: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "a" {
		t.Errorf("BOM handling broke parsing: %+v", nodes)
	}
}

func TestParseFlat_Filter(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"a","name":"A"}`,
		`{"id":"b","name":"B","meta":{"hidden":"true"}}`,
	}, "\n")

	nodes, err := datasource.ParseFlat(strings.NewReader(input), datasource.ParseOptions{
		NodeFilter: func(n *tree.Node) bool { return n.Meta["hidden"] != "true" },
	})
	if err != nil {
		t.Fatalf("ParseFlat: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "a" {
		t.Errorf("filter result = %+v", nodes)
	}
}

func TestParseNested_Document(t *testing.T) {
	input := `[
		{"name": "Fruits", "children": [
			{"name": "Apple"},
			{"id": "custom-pear", "name": "Pear"}
		]},
		{"name": "Drinks"}
	]`

	nodes, err := datasource.ParseNested(strings.NewReader(input), datasource.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseNested: %v", err)
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	want := []string{"Fruits", "Fruits/Apple", "custom-pear", "Drinks"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestParseNested_Malformed(t *testing.T) {
	_, err := datasource.ParseNested(strings.NewReader(`{"not":"an array"`), datasource.ParseOptions{})
	if err == nil || !strings.Contains(err.Error(), "malformed outline document") {
		t.Errorf("err = %v", err)
	}
}

func TestParseNested_EmptyDocument(t *testing.T) {
	nodes, err := datasource.ParseNested(strings.NewReader("  \n"), datasource.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseNested: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("empty document produced %v", nodes)
	}
}

func TestReadNodesFile_PicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "outline.json")
	os.WriteFile(jsonPath, []byte(`[{"name":"Root","children":[{"name":"Leaf"}]}]`), 0644)
	jsonlPath := filepath.Join(dir, "outline.jsonl")
	os.WriteFile(jsonlPath, []byte(`{"id":"root","name":"Root"}`+"\n"), 0644)

	nested, err := datasource.ReadNodesFile(jsonPath)
	if err != nil {
		t.Fatalf("ReadNodesFile(json): %v", err)
	}
	if len(nested) != 2 || nested[1].ID != "Root/Leaf" {
		t.Errorf("nested parse = %+v", nested)
	}

	flat, err := datasource.ReadNodesFile(jsonlPath)
	if err != nil {
		t.Fatalf("ReadNodesFile(jsonl): %v", err)
	}
	if len(flat) != 1 || flat[0].ID != "root" {
		t.Errorf("flat parse = %+v", flat)
	}
}

func TestReadNodesFile_Missing(t *testing.T) {
	_, err := datasource.ReadNodesFile(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil || !strings.Contains(err.Error(), "no outline found") {
		t.Errorf("err = %v", err)
	}
}
