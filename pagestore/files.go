package pagestore

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// atomicWriteSet writes each (path, bytes) pair atomically as a group: all
// files are first written inside a fresh UUID-named scratch directory
// under temp/, then renamed into place one by one. If any write fails, the
// scratch directory is removed and nothing in `pagesDir` is touched
// (spec.md §5: "written atomically per file (write-then-rename inside a
// temp directory; temp directories are UUID-named and removed on
// success)").
func (s *Store) atomicWriteSet(files map[string][]byte) error {
	scratch := filepath.Join(s.tempRoot, uuid.NewString())
	if err := os.MkdirAll(scratch, 0o777); err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	staged := make(map[string]string, len(files))
	i := 0
	for dest, data := range files {
		tmp := filepath.Join(scratch, filepath.Base(dest)+".tmp")
		if err := os.WriteFile(tmp, data, 0o666); err != nil {
			return err
		}
		staged[dest] = tmp
		i++
	}
	for dest, tmp := range staged {
		if err := os.Rename(tmp, dest); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) removeIfExists(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
