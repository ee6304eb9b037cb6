// Package search provides full-text search over extracted book content.
// It keeps an in-memory SQLite FTS5 index so callers can search a book
// without writing anything to disk.
package search

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `CREATE VIRTUAL TABLE sections USING fts5(file UNINDEXED, section_id UNINDEXED, title, body)`

// Index is a full-text index over the sections of one book.
// It is not safe for concurrent use.
type Index struct {
	conn *sqlite.Conn
}

// Hit is one search result. Rank is the bm25 score from FTS5; lower
// (more negative) means more relevant. Snippet is the matching text with
// terms wrapped in [ ].
type Hit struct {
	File      string
	SectionID string
	Title     string
	Snippet   string
	Rank      float64
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	conn, err := sqlite.OpenConn(":memory:", sqlite.OpenReadWrite, sqlite.OpenMemory)
	if err != nil {
		return nil, fmt.Errorf("open in-memory db: %w", err)
	}
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create fts table: %w", err)
	}
	return &Index{conn: conn}, nil
}

// Add indexes one section's text under its containing file and section id.
func (ix *Index) Add(file, sectionID, title, body string) error {
	err := sqlitex.Execute(ix.conn,
		`INSERT INTO sections (file, section_id, title, body) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{file, sectionID, title, body}})
	if err != nil {
		return fmt.Errorf("index section %s: %w", sectionID, err)
	}
	return nil
}

// Search runs an FTS5 match query and returns up to limit hits ordered by
// relevance. The query uses FTS5 syntax, so phrases can be quoted and
// terms combined with AND, OR and NOT.
func (ix *Index) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	var hits []Hit
	err := sqlitex.Execute(ix.conn,
		`SELECT file, section_id, title, snippet(sections, 3, '[', ']', '...', 12), rank
		 FROM sections WHERE sections MATCH ? ORDER BY rank LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{query, limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				hits = append(hits, Hit{
					File:      stmt.ColumnText(0),
					SectionID: stmt.ColumnText(1),
					Title:     stmt.ColumnText(2),
					Snippet:   stmt.ColumnText(3),
					Rank:      stmt.ColumnFloat(4),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return hits, nil
}

// Len reports the number of indexed sections.
func (ix *Index) Len() (int, error) {
	var n int
	err := sqlitex.Execute(ix.conn, `SELECT count(*) FROM sections`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		}})
	if err != nil {
		return 0, fmt.Errorf("count sections: %w", err)
	}
	return n, nil
}

// Close releases the underlying connection.
func (ix *Index) Close() error {
	return ix.conn.Close()
}
