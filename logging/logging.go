// Package logging provides the engine's leveled, named loggers.
//
// Every component gets its own named sub-logger (scanner, pagestore,
// lexical, vector, coordinator, progress, workerpool, engine, cli) in the style
// of the teacher's global common.Log, but structured and per-component
// instead of a single package-level logger.
package logging

import (
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	mu   sync.Mutex
	root hclog.Logger
)

// Configure sets the root logger level. Call once during startup; safe to
// call more than once, later calls replace the root logger.
func Configure(level string) {
	mu.Lock()
	defer mu.Unlock()
	root = hclog.New(&hclog.LoggerOptions{
		Name:            "docindex",
		Level:           hclog.LevelFromString(level),
		Output:          os.Stderr,
		IncludeLocation: false,
	})
}

// Named returns a sub-logger for `component`, creating the root logger with
// INFO level if Configure was never called.
func Named(component string) hclog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = hclog.New(&hclog.LoggerOptions{
			Name:   "docindex",
			Level:  hclog.Info,
			Output: os.Stderr,
		})
	}
	return root.Named(component)
}
