package scanner

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"docindex/logging"
)

// Store is the scanner's persistent state: scanner.sqlite3 (spec.md §6),
// tables scopes, files, events.
type Store struct {
	db  *sql.DB
	log interface {
		Debug(msg string, args ...interface{})
		Error(msg string, args ...interface{})
	}
}

// Open opens (creating if necessary) the scanner store at `path`. Use
// ":memory:" for an in-memory store, matching database/sql convention.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("scanner: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-writer sqlite file; avoid SQLITE_BUSY storms
	s := &Store{db: db, log: logging.Named("scanner")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scopes (
			name TEXT PRIMARY KEY,
			path TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scope TEXT NOT NULL,
			path TEXT NOT NULL,
			is_dir INTEGER NOT NULL,
			mtime INTEGER NOT NULL,
			children TEXT,
			UNIQUE(scope, path)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			target TEXT NOT NULL,
			scope TEXT NOT NULL,
			path TEXT NOT NULL,
			mtime INTEGER NOT NULL,
			UNIQUE(scope, path, target)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("scanner: migrate: %w", err)
		}
	}
	return nil
}

func encodeChildren(children []string) sql.NullString {
	if children == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.Join(children, "/"), Valid: true}
}

func decodeChildren(ns sql.NullString) []string {
	if !ns.Valid {
		return nil
	}
	if ns.String == "" {
		return []string{}
	}
	return strings.Split(ns.String, "/")
}

// Scopes returns all committed scopes.
func (s *Store) Scopes() ([]Scope, error) {
	rows, err := s.db.Query(`SELECT name, path FROM scopes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Scope
	for rows.Next() {
		var sc Scope
		if err := rows.Scan(&sc.Name, &sc.AbsPath); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) getRecord(scope, path string) (*FileRecord, bool, error) {
	row := s.db.QueryRow(`SELECT is_dir, mtime, children FROM files WHERE scope = ? AND path = ?`,
		scope, path)
	var isDir int
	var mtime int64
	var children sql.NullString
	err := row.Scan(&isDir, &mtime, &children)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &FileRecord{
		Scope: scope, RelativePath: path, IsDir: isDir != 0, Mtime: mtime,
		Children: decodeChildren(children),
	}, true, nil
}

func (s *Store) upsertRecord(scope, path string, isDir bool, mtime int64, children []string) error {
	_, err := s.db.Exec(`
		INSERT INTO files (scope, path, is_dir, mtime, children) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(scope, path) DO UPDATE SET is_dir = excluded.is_dir,
			mtime = excluded.mtime, children = excluded.children`,
		scope, path, boolInt(isDir), mtime, encodeChildren(children))
	return err
}

func (s *Store) deleteRecord(scope, path string) error {
	_, err := s.db.Exec(`DELETE FROM files WHERE scope = ? AND path = ?`, scope, path)
	return err
}

// descendantsOf returns every FileRecord whose path is a strict descendant
// of `path` within `scope` ("/"-prefixed child hierarchy).
func (s *Store) descendantsOf(scope, path string) ([]FileRecord, error) {
	prefix := path
	if prefix != "" {
		prefix += "/"
	}
	rows, err := s.db.Query(`SELECT path, is_dir, mtime, children FROM files
		WHERE scope = ? AND path LIKE ? ESCAPE '\'`,
		scope, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FileRecord
	for rows.Next() {
		var rec FileRecord
		var isDir int
		var children sql.NullString
		if err := rows.Scan(&rec.RelativePath, &isDir, &rec.Mtime, &children); err != nil {
			return nil, err
		}
		if prefix != "" && !strings.HasPrefix(rec.RelativePath, prefix) {
			continue
		}
		rec.Scope = scope
		rec.IsDir = isDir != 0
		rec.Children = decodeChildren(children)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func join(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "/" + child
}
