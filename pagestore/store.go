package pagestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"docindex/docerr"
	"docindex/logging"
	"docindex/pdfparse"
)

// Store is the page store: pages.sqlite3 (pdfs, pages tables) plus
// pages/ and temp/ on disk, grounded on the teacher's PositionsState
// (doclib/positions_store.go) generalized from a single flat directory of
// per-document files to a content-addressed, refcounted cache shared
// across documents.
type Store struct {
	db        *sql.DB
	root      string // parser/pdf_cache
	tempRoot  string // workspace/temp
	splitter  pdfparse.Splitter
	extractor pdfparse.Extractor
	log       interface {
		Debug(msg string, args ...interface{})
		Error(msg string, args ...interface{})
	}
}

// Open opens or creates the page store rooted at `root` (typically
// workspace/parser/pdf_cache), with scratch directories under `tempRoot`
// (workspace/temp).
func Open(root, tempRoot string, splitter pdfparse.Splitter, extractor pdfparse.Extractor) (*Store, error) {
	if err := os.MkdirAll(root, 0o777); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(root, "pages"), 0o777); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(tempRoot, 0o777); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(root, "pages.sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("pagestore: open %q: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{
		db: db, root: root, tempRoot: tempRoot,
		splitter: splitter, extractor: extractor,
		log: logging.Named("pagestore"),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pdfs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hash TEXT NOT NULL UNIQUE,
			meta TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pdf_id INTEGER NOT NULL REFERENCES pdfs(id),
			hash TEXT NOT NULL,
			idx INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS pages_hash ON pages(hash)`,
		`CREATE INDEX IF NOT EXISTS pages_pdf_idx ON pages(pdf_id, idx)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("pagestore: migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) pagesDir() string { return filepath.Join(s.root, "pages") }

func (s *Store) pdfPath(hash string) string        { return filepath.Join(s.pagesDir(), hash+".pdf") }
func (s *Store) snapshotPath(hash string) string    { return filepath.Join(s.pagesDir(), hash+".snapshot.txt") }
func (s *Store) annotationPath(hash string) string   { return filepath.Join(s.pagesDir(), hash+".annotation.json") }

// refcount returns how many `pages` rows reference `pageHash`.
func (s *Store) refcount(pageHash string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pages WHERE hash = ?`, pageHash).Scan(&n)
	return n, err
}

func checkCancel(cancel CancelFunc) error {
	if cancel != nil && cancel() {
		return docerr.Cancelled
	}
	return nil
}

// CancelFunc reports whether the caller has requested cancellation.
type CancelFunc func() bool
