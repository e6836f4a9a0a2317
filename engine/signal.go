package engine

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const forceExitWindow = 12 * time.Second

// dirtyMarkerName is the marker spec.md §5/§7 says the engine writes before
// a forced exit, so the next `docindex run` (via IsDirty) can warn that a
// rebuild is recommended.
const dirtyMarkerName = ".dirty"

// WatchSignals installs the SIGINT escalation policy of spec.md §5: the
// first Ctrl-C politely requests interrupt, a second within the force-exit
// window warns, and past the window the process force-exits after writing
// workspaceDir/.dirty. Returns a stop function that restores default
// signal handling.
func (e *Engine) WatchSignals(ctx context.Context, workspaceDir string) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		var firstAt time.Time
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ch:
				now := time.Now()
				if firstAt.IsZero() {
					firstAt = now
					e.log.Info("interrupt requested, finishing in-flight work")
					e.Interrupt()
					continue
				}
				if now.Sub(firstAt) <= forceExitWindow {
					e.log.Warn("second interrupt received, an interrupt after the 12s window will force-exit and may corrupt data")
					continue
				}
				e.log.Error("force-exit requested, data may be corrupted")
				e.markDirty(workspaceDir)
				os.Exit(1)
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func (e *Engine) markDirty(workspaceDir string) {
	path := filepath.Join(workspaceDir, dirtyMarkerName)
	if err := os.WriteFile(path, []byte(time.Now().UTC().Format(time.RFC3339)), 0o644); err != nil {
		e.log.Error("failed to write dirty marker", "path", path, "err", err)
	}
}

// IsDirty reports whether workspaceDir carries a .dirty marker from a prior
// forced exit, and removes it so the check is one-shot.
func IsDirty(workspaceDir string) bool {
	path := filepath.Join(workspaceDir, dirtyMarkerName)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	_ = os.Remove(path)
	return true
}
