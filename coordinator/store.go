package coordinator

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"docindex/lexical"
	"docindex/logging"
	"docindex/pagestore"
	"docindex/vector"
)

// Coordinator owns indexes/index.sqlite3 (files, pages tables) and the
// three downstream stores it keeps in sync, grounded on the teacher's
// doclib/indexer.go orchestration of parser + bleve + embeddings,
// generalized to the spec's scope/file/page/node-id shape.
type Coordinator struct {
	db        *sql.DB
	pageStore *pagestore.Store
	lex       *lexical.Store
	vec       *vector.Store
	log       interface {
		Debug(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
	}
}

// Open opens or creates the coordinator DB at path (typically
// indexes/index.sqlite3), wiring together the already-open downstream
// stores it must keep consistent with it.
func Open(path string, pageStore *pagestore.Store, lex *lexical.Store, vec *vector.Store) (*Coordinator, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("coordinator: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	c := &Coordinator{db: db, pageStore: pageStore, lex: lex, vec: vec, log: logging.Named("coordinator")}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Coordinator) Close() error { return c.db.Close() }

func (c *Coordinator) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			scope TEXT NOT NULL,
			path TEXT NOT NULL,
			hash TEXT NOT NULL,
			UNIQUE(scope, path)
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pdf_hash TEXT NOT NULL,
			page_index INTEGER NOT NULL,
			hash TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS files_hash ON files(hash)`,
		`CREATE INDEX IF NOT EXISTS pages_pdf_hash ON pages(pdf_hash)`,
		`CREATE INDEX IF NOT EXISTS pages_hash ON pages(hash)`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("coordinator: migrate: %w", err)
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, so the per-event write
// path (ProcessEvent, ingestPipeline, releasePipeline) can run every
// coordinator-table statement against one *sql.Tx while read-only helpers
// used outside an event (the query engine's lookups) keep using c.db
// directly.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func countFilesByHash(q querier, hash string) (int, error) {
	var n int
	err := q.QueryRow(`SELECT COUNT(*) FROM files WHERE hash = ?`, hash).Scan(&n)
	return n, err
}

func countPagesByHash(q querier, hash string) (int, error) {
	var n int
	err := q.QueryRow(`SELECT COUNT(*) FROM pages WHERE hash = ?`, hash).Scan(&n)
	return n, err
}

func pagesForPdf(q querier, pdfHash string) ([]PageRow, error) {
	rows, err := q.Query(`SELECT pdf_hash, page_index, hash FROM pages WHERE pdf_hash = ? ORDER BY page_index ASC`, pdfHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PageRow
	for rows.Next() {
		var r PageRow
		if err := rows.Scan(&r.PdfHash, &r.PageIndex, &r.PageHash); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func deletePagesForPdf(q querier, pdfHash string) error {
	_, err := q.Exec(`DELETE FROM pages WHERE pdf_hash = ?`, pdfHash)
	return err
}

// fileHash returns the pdf_hash tracked for (scope, path), and whether a
// row existed.
func fileHash(q querier, scope, path string) (string, bool, error) {
	var hash string
	err := q.QueryRow(`SELECT hash FROM files WHERE scope = ? AND path = ?`, scope, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}
