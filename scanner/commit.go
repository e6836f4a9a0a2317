package scanner

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// CommitSources reconciles scope rows against `roots`, a {scope name: root
// path or glob pattern} mapping. Glob patterns are expanded with
// doublestar (grounded on the teacher's utils/file_utils.go
// PatternsToPaths, pack: standardbeagle-lci go.mod); a pattern matching
// more than one directory is an error — scope roots are 1:1 handles, so
// disambiguating a multi-match pattern is left to the caller, not guessed.
//
// Dropping a previously-committed scope synthesizes Removed events for
// every FileRecord previously observed under it (spec.md §3).
func (s *Store) CommitSources(roots map[string]string) error {
	existing, err := s.Scopes()
	if err != nil {
		return err
	}
	existingByName := make(map[string]Scope, len(existing))
	for _, sc := range existing {
		existingByName[sc.Name] = sc
	}

	for name, pattern := range roots {
		if name == "" {
			return fmt.Errorf("scanner: scope name must not be empty")
		}
		abs, err := resolveRoot(pattern)
		if err != nil {
			return fmt.Errorf("scanner: scope %q: %w", name, err)
		}
		if _, err := s.db.Exec(`
			INSERT INTO scopes (name, path) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET path = excluded.path`, name, abs); err != nil {
			return err
		}
		delete(existingByName, name)
	}

	for name := range existingByName {
		if err := s.dropScope(name); err != nil {
			return err
		}
	}
	return nil
}

func resolveRoot(pattern string) (string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return pattern, nil // malformed glob pattern, treat as a literal path
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob %q: %w", pattern, err)
	}
	switch len(matches) {
	case 0:
		return pattern, nil // no match yet; treated as a literal path that doesn't exist yet
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("pattern %q matches %d directories, expected exactly one", pattern, len(matches))
	}
}

// dropScope deletes `name`'s scope row and every FileRecord under it,
// emitting a Removed event per record.
func (s *Store) dropScope(name string) error {
	recs, err := s.descendantsOf(name, "")
	if err != nil {
		return err
	}
	root, hasRoot, err := s.getRecord(name, "")
	if err != nil {
		return err
	}
	if hasRoot {
		recs = append(recs, *root)
	}
	for _, rec := range recs {
		if err := s.emitEvent(name, rec.RelativePath, targetFor(rec.IsDir), Removed, rec.Mtime); err != nil {
			return err
		}
		if err := s.deleteRecord(name, rec.RelativePath); err != nil {
			return err
		}
	}
	_, err = s.db.Exec(`DELETE FROM scopes WHERE name = ?`, name)
	return err
}
