package datasource_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treeline/internal/datasource"
	"github.com/vanderheijden86/treeline/pkg/tree"
)

// createOutlineDB builds a small outline database:
//
//	projects
//	├── alpha
//	└── beta
//	archive
func createOutlineDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	schema := `CREATE TABLE nodes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		is_branch INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		meta TEXT,
		updated_at TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	insert := func(id, name string, parent any, position, isBranch int, notes, meta any, updated time.Time) {
		t.Helper()
		_, err := db.Exec(
			`INSERT INTO nodes (id, name, parent_id, position, is_branch, notes, meta, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, name, parent, position, isBranch, notes, meta, updated,
		)
		if err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	insert("projects", "Projects", nil, 0, 0, nil, `{"kind":"folder"}`, at)
	insert("archive", "Archive", nil, 1, 1, "cold storage", nil, at.Add(time.Hour))
	// Positions deliberately out of insert order.
	insert("beta", "Beta", "projects", 1, 0, nil, nil, at)
	insert("alpha", "Alpha", "projects", 0, 0, nil, nil, at)
}

func sqliteSource(t *testing.T) datasource.DataSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outline.db")
	createOutlineDB(t, path)
	return datasource.DataSource{Type: datasource.SourceTypeSQLite, Path: path}
}

func TestSQLiteReader_LoadNodes(t *testing.T) {
	reader, err := datasource.NewSQLiteReader(sqliteSource(t))
	if err != nil {
		t.Fatalf("NewSQLiteReader: %v", err)
	}
	defer reader.Close()

	nodes, err := reader.LoadNodes()
	if err != nil {
		t.Fatalf("LoadNodes: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(nodes))
	}

	byID := make(map[string]tree.Node)
	for _, n := range nodes {
		byID[n.ID] = n
	}

	// Children derive from parent_id in position order, despite insert
	// order.
	projects := byID["projects"]
	if len(projects.Children) != 2 || projects.Children[0] != "alpha" || projects.Children[1] != "beta" {
		t.Errorf("projects children = %v, want [alpha beta]", projects.Children)
	}
	if projects.Meta["kind"] != "folder" {
		t.Errorf("meta not parsed: %+v", projects.Meta)
	}
	if !byID["archive"].IsBranch || byID["archive"].Notes != "cold storage" {
		t.Errorf("archive flags = %+v", byID["archive"])
	}

	// Loaded nodes build a valid tree with roots in position order.
	tr, err := tree.New(nodes)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	roots := tr.Roots()
	if len(roots) != 2 || roots[0] != "projects" || roots[1] != "archive" {
		t.Errorf("roots = %v", roots)
	}
}

func TestSQLiteReader_CountAndLookup(t *testing.T) {
	reader, err := datasource.NewSQLiteReader(sqliteSource(t))
	if err != nil {
		t.Fatalf("NewSQLiteReader: %v", err)
	}
	defer reader.Close()

	count, err := reader.CountNodes()
	if err != nil || count != 4 {
		t.Errorf("CountNodes = %d, %v", count, err)
	}

	node, err := reader.NodeByID("beta")
	if err != nil {
		t.Fatalf("NodeByID: %v", err)
	}
	if node.Name != "Beta" {
		t.Errorf("node = %+v", node)
	}

	if _, err := reader.NodeByID("ghost"); err == nil {
		t.Errorf("expected error for unknown id")
	}
}

func TestSQLiteReader_LastModified(t *testing.T) {
	reader, err := datasource.NewSQLiteReader(sqliteSource(t))
	if err != nil {
		t.Fatalf("NewSQLiteReader: %v", err)
	}
	defer reader.Close()

	got, err := reader.GetLastModified()
	if err != nil {
		t.Fatalf("GetLastModified: %v", err)
	}
	want := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	if got.Sub(want) > time.Second || want.Sub(got) > time.Second {
		t.Errorf("last modified = %v, want ~%v", got, want)
	}
}

func TestSQLiteReader_RejectsWrongType(t *testing.T) {
	_, err := datasource.NewSQLiteReader(datasource.DataSource{
		Type: datasource.SourceTypeJSON,
		Path: "whatever.json",
	})
	if err == nil {
		t.Errorf("expected error for non-sqlite source")
	}
}

func TestLoadFromSource_SQLite(t *testing.T) {
	nodes, err := datasource.LoadFromSource(sqliteSource(t))
	if err != nil {
		t.Fatalf("LoadFromSource: %v", err)
	}
	if len(nodes) != 4 {
		t.Errorf("got %d nodes", len(nodes))
	}
}

func TestValidateSource_SQLite(t *testing.T) {
	src := sqliteSource(t)
	if err := datasource.ValidateSource(&src); err != nil {
		t.Fatalf("ValidateSource: %v", err)
	}
	if !src.Valid || src.NodeCount != 4 {
		t.Errorf("source after validation = %+v", src)
	}

	garbage := datasource.DataSource{
		Type: datasource.SourceTypeSQLite,
		Path: filepath.Join(t.TempDir(), "junk.db"),
	}
	writeFile(t, filepath.Dir(garbage.Path), "junk.db", "not a database")
	if err := datasource.ValidateSource(&garbage); err == nil {
		t.Errorf("garbage database validated")
	}
	if garbage.Valid || garbage.ValidationError == "" {
		t.Errorf("garbage source = %+v", garbage)
	}
}
