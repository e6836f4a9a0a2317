// Package progress implements the typed event bus of spec.md §4.8: a
// thread-safe stream with a small enumerated schema, replay-on-subscribe
// for late joiners, and a 5s per-subscriber heartbeat.
package progress

// Kind enumerates the bus's event schema.
type Kind string

const (
	Scanning             Kind = "Scanning"
	ScanCompleted        Kind = "ScanCompleted"
	StartHandlingFile    Kind = "StartHandlingFile"
	ParseProgress        Kind = "ParseProgress"
	IndexProgress        Kind = "IndexProgress"
	CompleteHandlingFile Kind = "CompleteHandlingFile"
	Completed            Kind = "Completed"
	Interrupting         Kind = "Interrupting"
	Interrupted          Kind = "Interrupted"
	Failure              Kind = "Failure"
	Heartbeat            Kind = "Heartbeat"
)

// Event is one bus message. Fields not relevant to Kind are zero-valued.
type Event struct {
	Kind Kind

	Count int    // ScanCompleted
	Path  string // StartHandlingFile, ParseProgress, IndexProgress, CompleteHandlingFile
	Op    string // StartHandlingFile: "create" | "update" | "remove"
	I, N  int    // ParseProgress, IndexProgress
	Msg   string // Failure
}
