// Package engine wires the Scanner, Worker Pool, Index Coordinator, Query
// Engine and Progress Bus into the single top-level Run loop of spec.md §5,
// including the SIGINT escalation policy.
package engine

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"docindex/coordinator"
	"docindex/logging"
	"docindex/metrics"
	"docindex/progress"
	"docindex/query"
	"docindex/scanner"
	"docindex/workerpool"
)

// Engine owns one run's collaborators. All workers share the stores passed
// to New: the pool is started without WorkerInit/WorkerDispose hooks, so no
// worker opens database connections of its own.
type Engine struct {
	scanner *scanner.Store
	coord   *coordinator.Coordinator
	query   *query.Engine
	bus     *progress.Bus
	workers int

	interrupted int32
	poolMu      sync.Mutex
	activePool  *workerpool.Pool
	log         interface {
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
	}
}

// New wires an Engine to its already-open collaborators.
func New(scan *scanner.Store, coord *coordinator.Coordinator, qe *query.Engine, bus *progress.Bus, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{scanner: scan, coord: coord, query: qe, bus: bus, workers: workers, log: logging.Named("engine")}
}

// Bus exposes the progress bus for callers that want to Subscribe.
func (e *Engine) Bus() *progress.Bus { return e.bus }

// Query delegates to the wired Query Engine.
func (e *Engine) Query(ctx context.Context, text string, limit int) (query.Result, error) {
	return e.query.Query(ctx, text, limit)
}

func (e *Engine) cancelled() bool {
	return atomic.LoadInt32(&e.interrupted) != 0
}

// Interrupt requests cooperative cancellation of the in-flight Run.
func (e *Engine) Interrupt() {
	if atomic.CompareAndSwapInt32(&e.interrupted, 0, 1) {
		e.bus.Publish(progress.Event{Kind: progress.Interrupting})
	}
	e.poolMu.Lock()
	pool := e.activePool
	e.poolMu.Unlock()
	if pool != nil {
		pool.Interrupt()
	}
}

// Run performs one full scan-and-reconcile cycle: walk every committed
// scope, then drive each resulting event through the coordinator on a
// bounded worker pool (spec.md §4.6, §5).
func (e *Engine) Run(ctx context.Context) (workerpool.State, error) {
	atomic.StoreInt32(&e.interrupted, 0)
	e.bus.Publish(progress.Event{Kind: progress.Scanning})

	scopes, err := e.scanner.Scopes()
	if err != nil {
		e.bus.Publish(progress.Event{Kind: progress.Failure, Msg: err.Error()})
		return workerpool.RaisedException, err
	}
	rootOf := make(map[string]string, len(scopes))
	for _, sc := range scopes {
		rootOf[sc.Name] = sc.AbsPath
	}

	count, err := e.scanner.Scan(e.cancelled)
	if err != nil {
		e.bus.Publish(progress.Event{Kind: progress.Failure, Msg: err.Error()})
		return workerpool.RaisedException, err
	}
	metrics.FilesScanned.Add(float64(count))
	e.bus.Publish(progress.Event{Kind: progress.ScanCompleted, Count: count})

	pool := workerpool.New(e.workers, nil, nil)
	e.poolMu.Lock()
	e.activePool = pool
	e.poolMu.Unlock()
	defer func() {
		e.poolMu.Lock()
		e.activePool = nil
		e.poolMu.Unlock()
	}()

	cur, err := e.scanner.Events()
	if err != nil {
		e.bus.Publish(progress.Event{Kind: progress.Failure, Msg: err.Error()})
		return workerpool.RaisedException, err
	}
	defer cur.Close()

	for {
		if e.cancelled() {
			break
		}
		pe, err := cur.Next()
		if err != nil {
			e.bus.Publish(progress.Event{Kind: progress.Failure, Msg: err.Error()})
			pool.Interrupt()
			break
		}
		if pe == nil {
			break
		}
		ev := pe.Event
		absPath := filepath.Join(rootOf[ev.Scope], ev.RelativePath)

		accepted := pool.Push(func(tc *workerpool.TaskContext) error {
			metrics.ActiveWorkers.Inc()
			defer metrics.ActiveWorkers.Dec()

			op := opName(ev.Kind)
			e.bus.Publish(progress.Event{Kind: progress.StartHandlingFile, Path: ev.RelativePath, Op: op})
			report := func(kind progress.Kind, i, n int) {
				e.bus.Publish(progress.Event{Kind: kind, Path: ev.RelativePath, I: i, N: n})
			}
			if err := e.coord.ProcessEvent(ctx, tc.Cancelled, ev, absPath, report); err != nil {
				return err
			}
			if err := pe.Close(); err != nil {
				return err
			}
			e.bus.Publish(progress.Event{Kind: progress.CompleteHandlingFile, Path: ev.RelativePath})
			return nil
		})
		if !accepted {
			break
		}
	}

	state := pool.Complete()
	switch state {
	case workerpool.Success:
		if e.cancelled() {
			e.bus.Publish(progress.Event{Kind: progress.Interrupted})
			return workerpool.Interrupted, nil
		}
		e.bus.Publish(progress.Event{Kind: progress.Completed})
	case workerpool.Interrupted:
		e.bus.Publish(progress.Event{Kind: progress.Interrupted})
	case workerpool.RaisedException:
		msg := ""
		if poolErr := pool.Err(); poolErr != nil {
			msg = poolErr.Error()
		}
		e.bus.Publish(progress.Event{Kind: progress.Failure, Msg: msg})
	}
	return state, pool.Err()
}

func opName(k scanner.Kind) string {
	switch k {
	case scanner.Added:
		return "create"
	case scanner.Updated:
		return "update"
	case scanner.Removed:
		return "remove"
	default:
		return ""
	}
}
