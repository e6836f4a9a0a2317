package coordinator

import (
	"context"
	"os"
	"strings"

	"docindex/hashid"
	"docindex/metrics"
	"docindex/scanner"
)

func eventOp(k scanner.Kind) string {
	switch k {
	case scanner.Added:
		return "create"
	case scanner.Updated:
		return "update"
	case scanner.Removed:
		return "remove"
	default:
		return "unknown"
	}
}

// ProcessEvent implements spec.md §4.6's per-File-event reconciliation:
// directory events and non-.pdf files are ignored; otherwise every
// coordinator-table write this event causes (the `files` row, and any
// `pages` rows the ingest pipeline registers) runs inside one *sql.Tx,
// committed only once the whole event has reconciled successfully, and the
// ingest/release pipelines are triggered depending on whether this
// observation is the first or last reference to a pdf_hash.
func (c *Coordinator) ProcessEvent(ctx context.Context, cancel CancelFunc, ev scanner.Event, absPath string, report ProgressFunc) (err error) {
	if ev.Target != scanner.File {
		return nil
	}
	if !strings.HasSuffix(strings.ToLower(ev.RelativePath), ".pdf") {
		return nil
	}

	op := eventOp(ev.Kind)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.EventsProcessed.WithLabelValues(op, outcome).Inc()
	}()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	oldHash, hadOld, err := fileHash(tx, ev.Scope, ev.RelativePath)
	if err != nil {
		return err
	}

	var newHash string
	if ev.Kind == scanner.Removed {
		if hadOld {
			if _, err = tx.Exec(`DELETE FROM files WHERE scope = ? AND path = ?`, ev.Scope, ev.RelativePath); err != nil {
				return err
			}
		}
	} else {
		newHash, err = hashFile(absPath)
		if err != nil {
			return err
		}
		if _, err = tx.Exec(
			`INSERT INTO files (type, scope, path, hash) VALUES ('pdf', ?, ?, ?)
			 ON CONFLICT(scope, path) DO UPDATE SET hash = excluded.hash`,
			ev.Scope, ev.RelativePath, newHash,
		); err != nil {
			return err
		}
	}

	if newHash != "" {
		var n int
		n, err = countFilesByHash(tx, newHash)
		if err != nil {
			return err
		}
		if n == 1 && newHash != oldHash {
			if err = c.ingestPipeline(ctx, tx, cancel, newHash, absPath, report); err != nil {
				return err
			}
		}
	}

	if hadOld && oldHash != newHash {
		var n int
		n, err = countFilesByHash(tx, oldHash)
		if err != nil {
			return err
		}
		if n == 0 {
			c.releasePipeline(ctx, tx, oldHash)
		}
	}

	return tx.Commit()
}

func hashFile(absPath string) (string, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return hashid.SumReader(f)
}
