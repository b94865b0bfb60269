package export

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

func renderFixtureSVG(t *testing.T, opts OutlineSnapshotOptions) string {
	t.Helper()
	tmp := t.TempDir()
	out := filepath.Join(tmp, "outline.svg")
	opts.Path = out
	opts.Format = "svg"
	if err := SaveOutlineSnapshot(opts); err != nil {
		t.Fatalf("SaveOutlineSnapshot error: %v", err)
	}
	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(content)
}

func TestSVG_ValidXMLStructure(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{
		Tree:  outlineFixture(t),
		State: selectionFixture(),
	})

	var doc interface{}
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		t.Errorf("SVG is not valid XML: %v\nContent:\n%s", err, content)
	}
}

func TestSVG_HasSVGRootElement(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: outlineFixture(t)})

	if !strings.Contains(content, "<svg") {
		t.Errorf("output missing <svg> root element")
	}
	if !strings.Contains(content, "</svg>") {
		t.Errorf("output missing closing </svg>")
	}
}

func TestSVG_RowRectanglesRendered(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: outlineFixture(t)})

	// backdrop + header + legend box + 4 swatches + 5 rows
	if got := strings.Count(content, "<rect"); got < 7 {
		t.Errorf("expected at least 7 rect elements, got %d", got)
	}
}

func TestSVG_RowLabelsPresent(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: outlineFixture(t)})

	for _, name := range []string{"Library", "Fiction", "Dune", "Emma", "Science"} {
		if !strings.Contains(content, name) {
			t.Errorf("expected row label %q in SVG", name)
		}
	}
}

func TestSVG_SelectionColorsApplied(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{
		Tree:  outlineFixture(t),
		State: selectionFixture(),
	})

	for _, want := range []string{css(colorSelected), css(colorPartial), css(colorDisabled)} {
		if !strings.Contains(content, want) {
			t.Errorf("expected selection color %s in SVG", want)
		}
	}
}

func TestSVG_GuidesRenderedAsLines(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: outlineFixture(t)})

	// two line segments per parent/child link, four links in the fixture
	if got := strings.Count(content, "<line"); got != 8 {
		t.Errorf("expected 8 guide line segments, got %d", got)
	}
}

func TestSVG_LegendPresent(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: outlineFixture(t)})

	for _, label := range []string{"Legend", "Selected", "Partially selected", "Unselected", "Disabled"} {
		if !strings.Contains(content, label) {
			t.Errorf("expected legend label %q in SVG", label)
		}
	}
}

func TestSVG_SummaryBlockPresent(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{
		Tree:   outlineFixture(t),
		State:  selectionFixture(),
		Title:  "Reading List",
		Source: "/data/library.jsonl",
	})

	for _, want := range []string{
		"Reading List",
		"source: /data/library.jsonl",
		"nodes: 5  branches: 2  max depth: 2",
		"selected: 1  partially selected: 2",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("expected summary line %q in SVG", want)
		}
	}
}

func TestSVG_DefaultTitleWhenEmpty(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: outlineFixture(t)})

	if !strings.Contains(content, "Outline Snapshot") {
		t.Errorf("expected default title in SVG")
	}
	if !strings.Contains(content, "source: n/a") {
		t.Errorf("expected n/a source line in SVG")
	}
}

func TestSVG_BranchBadges(t *testing.T) {
	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: outlineFixture(t)})

	if !strings.Contains(content, "(2)") {
		t.Errorf("expected child-count badge (2) in SVG")
	}
}

func TestSVG_SpecialCharactersEscaped(t *testing.T) {
	tr, err := tree.New([]tree.Node{
		{ID: "snacks", Name: `Cookies & "Cream" <special>`},
	})
	if err != nil {
		t.Fatalf("build outline: %v", err)
	}

	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: tr})

	var doc interface{}
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		t.Errorf("SVG with special characters is not valid XML: %v", err)
	}
}

func TestSVG_UnicodeCharacters(t *testing.T) {
	tr, err := tree.New([]tree.Node{
		{ID: "greeting", Name: "こんにちは世界"},
	})
	if err != nil {
		t.Fatalf("build outline: %v", err)
	}

	content := renderFixtureSVG(t, OutlineSnapshotOptions{Tree: tr})

	if !strings.Contains(content, "こんにちは世界") {
		t.Errorf("expected unicode label in SVG")
	}
	var doc interface{}
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		t.Errorf("SVG with unicode is not valid XML: %v", err)
	}
}

func TestSVG_WriterDirect(t *testing.T) {
	layout := buildOutlineLayout(OutlineSnapshotOptions{
		Tree:  outlineFixture(t),
		State: selectionFixture(),
	})

	var buf bytes.Buffer
	if err := renderOutlineSVGToWriter(&buf, layout); err != nil {
		t.Fatalf("renderOutlineSVGToWriter error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("no SVG output written")
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Errorf("writer output missing <svg> element")
	}
}
