package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treeline/pkg/metrics"
	"github.com/vanderheijden86/treeline/pkg/tree"
)

// SQLiteReader provides read access to an outline database. The expected
// schema is a nodes table with id, name, parent_id and position columns;
// is_branch, notes, meta and updated_at are optional.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens an outline database for reading.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_journal_mode=WAL", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Read-performance pragmas, best effort.
	pragmas := []string{
		"PRAGMA cache_size = -64000",
		"PRAGMA mmap_size = 268435456",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		_, _ = db.Exec(pragma)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadNodes reads all nodes from the database in outline order.
func (r *SQLiteReader) LoadNodes() ([]tree.Node, error) {
	return r.LoadNodesFiltered(nil)
}

// row is the scanned shape before children are derived from parent_id.
type row struct {
	node   tree.Node
	parent string
}

// LoadNodesFiltered reads nodes matching the filter function. Children
// are derived from parent_id relations, ordered by the position column,
// so the stored form never duplicates the child lists.
func (r *SQLiteReader) LoadNodesFiltered(filter func(*tree.Node) bool) ([]tree.Node, error) {
	defer metrics.Timer(metrics.SQLiteLoad)()

	query := `
		SELECT id, name, parent_id, is_branch, notes, meta
		FROM nodes
		ORDER BY parent_id NULLS FIRST, position
	`

	dbRows, err := r.db.Query(query)
	if err != nil {
		// Fall back for databases without the optional columns.
		return r.loadNodesSimple(filter)
	}
	defer dbRows.Close()

	var rows []row
	for dbRows.Next() {
		var rec row
		var parent, notes, meta sql.NullString
		var isBranch sql.NullInt64

		if err := dbRows.Scan(&rec.node.ID, &rec.node.Name, &parent, &isBranch, &notes, &meta); err != nil {
			continue
		}
		if parent.Valid {
			rec.parent = parent.String
		}
		rec.node.IsBranch = isBranch.Valid && isBranch.Int64 != 0
		if notes.Valid {
			rec.node.Notes = notes.String
		}
		if meta.Valid {
			rec.node.Meta = parseMeta(meta.String)
		}
		rows = append(rows, rec)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return assembleNodes(rows, filter), nil
}

// loadNodesSimple is a fallback for databases with only the core columns.
func (r *SQLiteReader) loadNodesSimple(filter func(*tree.Node) bool) ([]tree.Node, error) {
	query := `SELECT id, name, parent_id FROM nodes ORDER BY parent_id NULLS FIRST, id`

	dbRows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer dbRows.Close()

	var rows []row
	for dbRows.Next() {
		var rec row
		var parent sql.NullString
		if err := dbRows.Scan(&rec.node.ID, &rec.node.Name, &parent); err != nil {
			continue
		}
		if parent.Valid {
			rec.parent = parent.String
		}
		rows = append(rows, rec)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return assembleNodes(rows, filter), nil
}

// assembleNodes wires Children from the parent relation, preserving the
// scanned child order, then applies the filter.
func assembleNodes(rows []row, filter func(*tree.Node) bool) []tree.Node {
	childrenOf := make(map[string][]string)
	for _, rec := range rows {
		if rec.parent != "" {
			childrenOf[rec.parent] = append(childrenOf[rec.parent], rec.node.ID)
		}
	}

	var nodes []tree.Node
	for _, rec := range rows {
		node := rec.node
		node.Children = childrenOf[node.ID]
		if filter != nil && !filter(&node) {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// CountNodes returns the number of nodes in the database.
func (r *SQLiteReader) CountNodes() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// NodeByID retrieves a single node.
func (r *SQLiteReader) NodeByID(id string) (*tree.Node, error) {
	nodes, err := r.LoadNodesFiltered(func(n *tree.Node) bool { return n.ID == id })
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return &nodes[0], nil
}

// GetLastModified returns the most recent node update time, zero when the
// database does not track one. Selecting the column directly instead of
// MAX() keeps the declared type visible to the driver, which otherwise
// hands the aggregate back as an unparsed string.
func (r *SQLiteReader) GetLastModified() (time.Time, error) {
	var updatedAt sql.NullTime
	err := r.db.QueryRow("SELECT updated_at FROM nodes ORDER BY updated_at DESC LIMIT 1").Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if !updatedAt.Valid {
		return time.Time{}, nil
	}
	return updatedAt.Time, nil
}

// parseMeta parses the meta column, a JSON object of string pairs.
// Malformed values degrade to nil rather than failing the row.
func parseMeta(s string) map[string]string {
	if s == "" || s == "null" || s == "{}" {
		return nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(s), &meta); err != nil {
		return nil
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
