// Package metrics holds the engine's ambient prometheus/client_golang
// instrumentation. Nothing here exposes an HTTP endpoint (spec.md's
// Non-goals exclude a metrics server) — the registry exists so that the
// counters and histograms themselves are available to anything embedding
// this module, the way a library exposes its own default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the module's private collector registry. Embedding
// applications that want to expose these over HTTP can register it into
// their own promhttp handler; this package never starts a server itself.
var Registry = prometheus.NewRegistry()

var (
	FilesScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "docindex",
		Subsystem: "scanner",
		Name:      "files_scanned_total",
		Help:      "Paths (files and directories) visited by scans, summed over all scans.",
	})

	EventsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docindex",
		Subsystem: "coordinator",
		Name:      "events_processed_total",
		Help:      "Scanner events processed by the coordinator, by outcome.",
	}, []string{"op", "outcome"})

	PagesExtracted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "docindex",
		Subsystem: "pagestore",
		Name:      "pages_extracted_total",
		Help:      "Pages whose text and annotations were freshly extracted (refcount was zero).",
	})

	PagesDeduped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "docindex",
		Subsystem: "pagestore",
		Name:      "pages_deduped_total",
		Help:      "Pages whose content was already present and only had its refcount bumped.",
	})

	IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docindex",
		Subsystem: "pagestore",
		Name:      "ingest_duration_seconds",
		Help:      "Wall time of one PDF's Ingest call.",
		Buckets:   prometheus.DefBuckets,
	})

	QueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docindex",
		Subsystem: "query",
		Name:      "query_duration_seconds",
		Help:      "Wall time of one Query Engine call, by phase.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})

	ActiveWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "docindex",
		Subsystem: "workerpool",
		Name:      "active_workers",
		Help:      "Worker goroutines currently executing a task.",
	})
)

func init() {
	Registry.MustRegister(
		FilesScanned,
		EventsProcessed,
		PagesExtracted,
		PagesDeduped,
		IngestDuration,
		QueryDuration,
		ActiveWorkers,
	)
}
