package lexical

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"docindex/logging"
	"docindex/segment"
)

// Store is the FTS5-backed lexical index: index_fts5.sqlite3's `contents`
// virtual table plus `nodes` side table (spec.md §6), grounded on the
// teacher's bleve-index wrapper (doclib/bleve_index.go) generalized from a
// page-level index to the spec's multi-node-type IndexNode shape, and
// re-targeted onto a literal FTS5 schema as required by spec.md §6 — see
// DESIGN.md for why bleve itself could not serve this role.
type Store struct {
	db  *sql.DB
	tok func(string) []string
	log interface {
		Debug(msg string, args ...interface{})
		Error(msg string, args ...interface{})
	}
}

// Open opens or creates the lexical index at path (typically
// index_fts5.sqlite3). Binaries importing this package must be built with
// `-tags sqlite_fts5` so mattn/go-sqlite3 compiles SQLite's FTS5 extension
// in; see cmd/docindex's build notes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("lexical: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, tok: segment.Tokenize, log: logging.Named("lexical")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS contents USING fts5(
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			node_id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			metadata TEXT NOT NULL,
			segments TEXT NOT NULL,
			content_id INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("lexical: migrate: %w", err)
		}
	}
	return nil
}

// Save tokenizes each segment's text, writes the space-joined concatenation
// to the FT table, and records the node's metadata and encoded segment
// ranges in the side table. Overwrites any prior row for the same node_id.
func (s *Store) Save(node Node) error {
	tokensPerSegment := make([][]string, len(node.Segments))
	var all []string
	for i, seg := range node.Segments {
		toks := s.tok(seg.Text)
		tokensPerSegment[i] = toks
		all = append(all, toks...)
	}
	content := strings.Join(all, " ")
	encoded := encodeSegments(node.Segments, tokensPerSegment)

	metaJSON, err := json.Marshal(node.Metadata)
	if err != nil {
		return fmt.Errorf("lexical: encode metadata for %s: %w", node.NodeID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.removeTx(tx, node.NodeID); err != nil {
		return err
	}

	res, err := tx.Exec(`INSERT INTO contents (content) VALUES (?)`, content)
	if err != nil {
		return fmt.Errorf("lexical: insert content for %s: %w", node.NodeID, err)
	}
	contentID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO nodes (node_id, type, metadata, segments, content_id) VALUES (?, ?, ?, ?, ?)`,
		node.NodeID, string(node.NodeType), string(metaJSON), encoded, contentID,
	); err != nil {
		return fmt.Errorf("lexical: insert node %s: %w", node.NodeID, err)
	}
	return tx.Commit()
}

// Remove deletes a node_id and its FT row, a no-op if absent.
func (s *Store) Remove(nodeID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.removeTx(tx, nodeID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) removeTx(tx *sql.Tx, nodeID string) error {
	var contentID int64
	err := tx.QueryRow(`SELECT content_id FROM nodes WHERE node_id = ?`, nodeID).Scan(&contentID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM nodes WHERE node_id = ?`, nodeID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM contents WHERE rowid = ?`, contentID); err != nil {
		return err
	}
	return nil
}

func decodeMetadata(raw string) (map[string]string, error) {
	var m map[string]string
	if raw == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}
