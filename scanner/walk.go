package scanner

import (
	"os"
	"path/filepath"
	"sort"

	"docindex/docerr"
)

// CancelFunc reports whether the caller has requested cancellation; the
// scanner calls it between subdirectories (spec.md §5 suspension points).
// A nil CancelFunc means "never cancelled".
type CancelFunc func() bool

// Scan performs a breadth-first walk of every committed scope's root,
// diffing on-disk state against the last-known FileRecord snapshot and
// appending events to the log (spec.md §4.2). It returns the number of
// paths visited; call Events() afterward to drain the resulting log.
func (s *Store) Scan(cancel CancelFunc) (int, error) {
	scopes, err := s.Scopes()
	if err != nil {
		return 0, err
	}
	visited := 0
	for _, sc := range scopes {
		n, err := s.scanScope(sc, cancel)
		visited += n
		if err != nil {
			return visited, err
		}
	}
	return visited, nil
}

func (s *Store) scanScope(sc Scope, cancel CancelFunc) (int, error) {
	visited := 0
	queue := []string{""}
	for len(queue) > 0 {
		if cancel != nil && cancel() {
			return visited, docerr.Cancelled
		}
		relPath := queue[0]
		queue = queue[1:]

		children, isDir, err := s.visitPath(sc, relPath)
		if err != nil {
			return visited, err
		}
		visited++
		if isDir {
			for _, child := range children {
				queue = append(queue, join(relPath, child))
			}
		}
	}
	return visited, nil
}

// visitPath compares one path's on-disk state against its FileRecord and
// applies spec.md §4.2's rules. It returns the directory's on-disk
// children (nil for files or absent paths) so the caller can continue the
// BFS.
func (s *Store) visitPath(sc Scope, relPath string) (children []string, isDir bool, err error) {
	absPath := sc.AbsPath
	if relPath != "" {
		absPath = filepath.Join(sc.AbsPath, filepath.FromSlash(relPath))
	}

	fi, statErr := os.Lstat(absPath)
	existsOnDisk := statErr == nil
	rec, hasRec, err := s.getRecord(sc.Name, relPath)
	if err != nil {
		return nil, false, err
	}

	switch {
	case !existsOnDisk && !hasRec:
		return nil, false, nil

	case existsOnDisk && !hasRec:
		isDir = fi.IsDir()
		if isDir {
			children, err = listChildren(absPath)
			if err != nil {
				return nil, false, err
			}
		}
		mtime := fi.ModTime().UnixNano()
		if err := s.upsertRecord(sc.Name, relPath, isDir, mtime, children); err != nil {
			return nil, false, err
		}
		if err := s.emitEvent(sc.Name, relPath, targetFor(isDir), Added, mtime); err != nil {
			return nil, false, err
		}
		return children, isDir, nil

	case !existsOnDisk && hasRec:
		if err := s.removeRecordTree(sc.Name, relPath, *rec); err != nil {
			return nil, false, err
		}
		return nil, false, nil

	default:
		return s.visitExisting(sc, relPath, absPath, fi, *rec)
	}
}

func (s *Store) visitExisting(sc Scope, relPath, absPath string, fi os.FileInfo, rec FileRecord) (
	children []string, isDir bool, err error) {

	isDir = fi.IsDir()
	mtime := fi.ModTime().UnixNano()

	if rec.IsDir == isDir && rec.Mtime == mtime {
		// Identical; no event, children treated as unchanged (resumable no-op).
		return rec.Children, isDir, nil
	}

	if rec.IsDir != isDir {
		if err := s.emitEvent(sc.Name, relPath, targetFor(rec.IsDir), Removed, rec.Mtime); err != nil {
			return nil, false, err
		}
		if rec.IsDir {
			if err := s.removeDescendants(sc.Name, relPath); err != nil {
				return nil, false, err
			}
		}
		if isDir {
			children, err = listChildren(absPath)
			if err != nil {
				return nil, false, err
			}
		}
		if err := s.upsertRecord(sc.Name, relPath, isDir, mtime, children); err != nil {
			return nil, false, err
		}
		if err := s.emitEvent(sc.Name, relPath, targetFor(isDir), Added, mtime); err != nil {
			return nil, false, err
		}
		return children, isDir, nil
	}

	// Same kind, mtime differs: Updated.
	if !isDir {
		if err := s.upsertRecord(sc.Name, relPath, false, mtime, nil); err != nil {
			return nil, false, err
		}
		return nil, false, s.emitEvent(sc.Name, relPath, File, Updated, mtime)
	}

	newChildren, err := listChildren(absPath)
	if err != nil {
		return nil, false, err
	}
	for _, vanished := range setDiff(rec.Children, newChildren) {
		if err := s.removeChildTree(sc.Name, join(relPath, vanished)); err != nil {
			return nil, false, err
		}
	}
	if err := s.upsertRecord(sc.Name, relPath, true, mtime, newChildren); err != nil {
		return nil, false, err
	}
	if err := s.emitEvent(sc.Name, relPath, Directory, Updated, mtime); err != nil {
		return nil, false, err
	}
	return newChildren, true, nil
}

// removeRecordTree deletes rec (which no longer exists on disk) and, if it
// was a directory, every descendant FileRecord, emitting Removed for each.
func (s *Store) removeRecordTree(scope, relPath string, rec FileRecord) error {
	if err := s.emitEvent(scope, relPath, targetFor(rec.IsDir), Removed, rec.Mtime); err != nil {
		return err
	}
	if err := s.deleteRecord(scope, relPath); err != nil {
		return err
	}
	if rec.IsDir {
		return s.removeDescendants(scope, relPath)
	}
	return nil
}

// removeChildTree is removeRecordTree for a child subtree that vanished
// from its parent's children list; the child record may or may not still
// be present (it always should be, but tolerate its absence).
func (s *Store) removeChildTree(scope, relPath string) error {
	rec, ok, err := s.getRecord(scope, relPath)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return s.removeRecordTree(scope, relPath, *rec)
}

// removeDescendants emits Removed for and deletes every FileRecord
// strictly under relPath, deepest first is not required since each row is
// independent.
func (s *Store) removeDescendants(scope, relPath string) error {
	descendants, err := s.descendantsOf(scope, relPath)
	if err != nil {
		return err
	}
	for _, d := range descendants {
		if err := s.emitEvent(scope, d.RelativePath, targetFor(d.IsDir), Removed, d.Mtime); err != nil {
			return err
		}
		if err := s.deleteRecord(scope, d.RelativePath); err != nil {
			return err
		}
	}
	return nil
}

func listChildren(absDir string) ([]string, error) {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// setDiff returns the elements of `oldSet` that are absent from `newSet`.
func setDiff(oldSet, newSet []string) []string {
	present := make(map[string]struct{}, len(newSet))
	for _, n := range newSet {
		present[n] = struct{}{}
	}
	var out []string
	for _, o := range oldSet {
		if _, ok := present[o]; !ok {
			out = append(out, o)
		}
	}
	return out
}
