package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustTouch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func setMtime(t *testing.T, path string, when time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, when, when))
}

func drain(t *testing.T, s *Store) []Event {
	t.Helper()
	cur, err := s.Events()
	require.NoError(t, err)
	defer cur.Close()
	var out []Event
	for {
		pe, err := cur.Next()
		require.NoError(t, err)
		if pe == nil {
			break
		}
		out = append(out, pe.Event)
		require.NoError(t, pe.Close())
	}
	return out
}

func summarize(events []Event) map[string]int {
	counts := map[string]int{}
	for _, e := range events {
		counts[string(e.Kind)+":"+e.RelativePath]++
	}
	return counts
}

// TestScanInsertModifyDelete implements spec.md §8 scenario 1.
func TestScanInsertModifyDelete(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"earth", "universe/sun", "universe/moon"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	mustTouch(t, filepath.Join(root, "foobar"))
	mustTouch(t, filepath.Join(root, "earth", "land"))
	mustTouch(t, filepath.Join(root, "earth", "sea"))
	mustTouch(t, filepath.Join(root, "universe", "sun", "sun1"))
	mustTouch(t, filepath.Join(root, "universe", "sun", "sun2"))
	mustTouch(t, filepath.Join(root, "universe", "moon", "moon1"))

	s, err := Open(filepath.Join(t.TempDir(), "scanner.sqlite3"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CommitSources(map[string]string{"corpus": root}))
	_, err = s.Scan(nil)
	require.NoError(t, err)

	first := drain(t, s)
	require.Len(t, first, 11) // root + 6 files + 4 directories

	paths := make([]string, 0, len(first))
	for _, e := range first {
		require.Equal(t, Added, e.Kind)
		paths = append(paths, e.RelativePath)
	}
	sort.Strings(paths)
	require.Equal(t, []string{
		"", "earth", "earth/land", "earth/sea", "foobar",
		"universe", "universe/moon", "universe/moon/moon1",
		"universe/sun", "universe/sun/sun1", "universe/sun/sun2",
	}, paths)

	// Modify foobar, add universe/moon/moon{2,3}, remove universe/sun/sun2.
	time.Sleep(10 * time.Millisecond)
	later := time.Now().Add(time.Hour)
	setMtime(t, filepath.Join(root, "foobar"), later)
	mustTouch(t, filepath.Join(root, "universe", "moon", "moon2"))
	mustTouch(t, filepath.Join(root, "universe", "moon", "moon3"))
	setMtime(t, filepath.Join(root, "universe", "moon"), later)
	require.NoError(t, os.Remove(filepath.Join(root, "universe", "sun", "sun2")))
	setMtime(t, filepath.Join(root, "universe", "sun"), later)

	_, err = s.Scan(nil)
	require.NoError(t, err)
	second := drain(t, s)
	counts := summarize(second)

	require.Equal(t, 1, counts["Added:universe/moon/moon2"])
	require.Equal(t, 1, counts["Added:universe/moon/moon3"])
	require.Equal(t, 1, counts["Updated:foobar"])
	require.Equal(t, 1, counts["Updated:universe/moon"])
	require.Equal(t, 1, counts["Updated:universe/sun"])
	require.Equal(t, 1, counts["Removed:universe/sun/sun2"])

	// Delete universe/ entirely.
	require.NoError(t, os.RemoveAll(filepath.Join(root, "universe")))
	_, err = s.Scan(nil)
	require.NoError(t, err)
	third := drain(t, s)
	counts = summarize(third)
	require.Equal(t, 1, counts["Updated:"]) // root directory's children changed
	require.Equal(t, 7, len(third)-1)       // Removed for universe + 6 descendants
}

// TestScanResumableNoOp implements the §8 round-trip property: an
// unchanged filesystem yields zero events on a second scan.
func TestScanResumableNoOp(t *testing.T) {
	root := t.TempDir()
	mustTouch(t, filepath.Join(root, "a.pdf"))

	s, err := Open(filepath.Join(t.TempDir(), "scanner.sqlite3"))
	require.NoError(t, err)
	defer s.Close()

	sources := map[string]string{"corpus": root}
	require.NoError(t, s.CommitSources(sources))
	_, err = s.Scan(nil)
	require.NoError(t, err)
	drain(t, s)

	require.NoError(t, s.CommitSources(sources))
	_, err = s.Scan(nil)
	require.NoError(t, err)
	require.Empty(t, drain(t, s))
}

// TestEventLogUniqueness implements the §8 invariant: at most one event
// per (scope, path, target) at any time.
func TestEventLogUniqueness(t *testing.T) {
	root := t.TempDir()
	mustTouch(t, filepath.Join(root, "a.pdf"))

	s, err := Open(filepath.Join(t.TempDir(), "scanner.sqlite3"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.CommitSources(map[string]string{"corpus": root}))
	_, err = s.Scan(nil)
	require.NoError(t, err)

	// Two rapid updates before consumption collapse into one Updated row.
	time.Sleep(10 * time.Millisecond)
	setMtime(t, filepath.Join(root, "a.pdf"), time.Now().Add(time.Hour))
	_, err = s.Scan(nil)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	setMtime(t, filepath.Join(root, "a.pdf"), time.Now().Add(2*time.Hour))
	_, err = s.Scan(nil)
	require.NoError(t, err)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE scope = ? AND path = ?`,
		"corpus", "a.pdf").Scan(&count))
	require.Equal(t, 1, count)
}
