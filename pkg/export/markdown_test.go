package export

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

func TestGenerateMarkdown_EmptyOutline(t *testing.T) {
	if _, err := GenerateMarkdown(nil, nil, "Outline"); err == nil {
		t.Fatalf("expected error for nil tree")
	}

	empty, buildErr := tree.New(nil)
	if buildErr != nil {
		t.Fatalf("build empty outline: %v", buildErr)
	}
	if _, err := GenerateMarkdown(empty, nil, "Outline"); err == nil {
		t.Fatalf("expected error for empty tree")
	}
}

func TestGenerateMarkdown_Checkboxes(t *testing.T) {
	doc, err := GenerateMarkdown(outlineFixture(t), selectionFixture(), "Reading List")
	if err != nil {
		t.Fatalf("GenerateMarkdown error: %v", err)
	}

	for _, want := range []string{
		"# Reading List",
		"- [-] Library",          // half-selected root, no indent
		"  - [-] Fiction",        // half-selected branch, one level in
		"    - [x] Dune",         // selected leaf, two levels in
		"    - [ ] Emma",         // unselected leaf
		"  - [ ] Science *(disabled)*", // disabled leaf annotated
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("expected %q in markdown:\n%s", want, doc)
		}
	}
}

func TestGenerateMarkdown_SummaryTable(t *testing.T) {
	doc, err := GenerateMarkdown(outlineFixture(t), selectionFixture(), "Reading List")
	if err != nil {
		t.Fatalf("GenerateMarkdown error: %v", err)
	}

	for _, want := range []string{
		"| **Total** | 5 |",
		"| Branches | 2 |",
		"| Leaves | 3 |",
		"| Selected | 1 |",
		"| Partially selected | 2 |",
		"| Disabled | 1 |",
		"| Expanded | 1 |",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("expected summary row %q in markdown", want)
		}
	}
}

func TestGenerateMarkdown_Notes(t *testing.T) {
	tr, err := tree.New([]tree.Node{
		{ID: "trip", Name: "Trip", Children: []string{"packing"}},
		{ID: "packing", Name: "Packing", Notes: "bring a coat\ncheck the weather"},
	})
	if err != nil {
		t.Fatalf("build outline: %v", err)
	}

	doc, err := GenerateMarkdown(tr, nil, "Trip")
	if err != nil {
		t.Fatalf("GenerateMarkdown error: %v", err)
	}

	if !strings.Contains(doc, "    > bring a coat\n") {
		t.Errorf("expected first note line quoted under its node:\n%s", doc)
	}
	if !strings.Contains(doc, "    > check the weather\n") {
		t.Errorf("expected second note line quoted under its node:\n%s", doc)
	}
}

func TestGenerateMarkdown_MermaidSection(t *testing.T) {
	doc, err := GenerateMarkdown(outlineFixture(t), selectionFixture(), "Reading List")
	if err != nil {
		t.Fatalf("GenerateMarkdown error: %v", err)
	}

	if !strings.Contains(doc, "## Structure") {
		t.Errorf("expected Structure section")
	}
	if !strings.Contains(doc, "```mermaid\ngraph TD") {
		t.Errorf("expected embedded mermaid diagram")
	}
	if !strings.Contains(doc, "library --> fiction") {
		t.Errorf("expected outline edges in embedded diagram")
	}
}

func TestGenerateMarkdown_DefaultTitle(t *testing.T) {
	doc, err := GenerateMarkdown(outlineFixture(t), nil, "  ")
	if err != nil {
		t.Fatalf("GenerateMarkdown error: %v", err)
	}

	if !strings.HasPrefix(doc, "# Outline\n") {
		t.Errorf("expected default title, got:\n%s", doc[:40])
	}
}

func TestGenerateMarkdown_NilState(t *testing.T) {
	doc, err := GenerateMarkdown(outlineFixture(t), nil, "Reading List")
	if err != nil {
		t.Fatalf("GenerateMarkdown error: %v", err)
	}

	if strings.Contains(doc, "[x]") || strings.Contains(doc, "[-]") {
		t.Errorf("nil state should render every node unchecked:\n%s", doc)
	}
	if !strings.Contains(doc, "| Selected | 0 |") {
		t.Errorf("expected zero selected count")
	}
}
