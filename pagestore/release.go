package pagestore

import (
	"database/sql"
	"errors"
	"fmt"
)

// Release drops the pdfs row (and its pages rows) for pdfHash, then deletes
// the on-disk shared files for every page_hash whose refcount drops to zero
// as a result — spec.md §4.3's reverse of Ingest, grounded on the same
// refcounted-cache shape as the teacher's PositionsState cleanup.
func (s *Store) Release(pdfHash string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var pdfID int64
	err = tx.QueryRow(`SELECT id FROM pdfs WHERE hash = ?`, pdfHash).Scan(&pdfID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pagestore: release %s: %w", pdfHash, err)
	}

	rows, err := tx.Query(`SELECT DISTINCT hash FROM pages WHERE pdf_id = ?`, pdfID)
	if err != nil {
		return err
	}
	var pageHashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return err
		}
		pageHashes = append(pageHashes, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if _, err := tx.Exec(`DELETE FROM pages WHERE pdf_id = ?`, pdfID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pdfs WHERE id = ?`, pdfID); err != nil {
		return err
	}

	var orphaned []string
	for _, h := range pageHashes {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM pages WHERE hash = ?`, h).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			orphaned = append(orphaned, h)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, h := range orphaned {
		s.removeIfExists(s.pdfPath(h))
		s.removeIfExists(s.snapshotPath(h))
		s.removeIfExists(s.annotationPath(h))
	}
	return nil
}
