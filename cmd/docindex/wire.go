package main

import (
	"fmt"
	"path/filepath"

	"docindex/coordinator"
	"docindex/config"
	"docindex/embedder"
	"docindex/engine"
	"docindex/lexical"
	"docindex/pagestore"
	"docindex/pdfparse"
	"docindex/progress"
	"docindex/query"
	"docindex/scanner"
	"docindex/segment"
	"docindex/vector"
)

// app holds every open collaborator for the process lifetime of one CLI
// invocation; Close releases them in reverse wiring order.
type app struct {
	cfg   config.Config
	scan  *scanner.Store
	ps    *pagestore.Store
	lex   *lexical.Store
	vec   *vector.Store
	coord *coordinator.Coordinator
	eng   *engine.Engine
}

func wire(cfg config.Config) (*app, error) {
	ws := cfg.WorkspaceDir

	scan, err := scanner.Open(filepath.Join(ws, "scanner.sqlite3"))
	if err != nil {
		return nil, fmt.Errorf("open scanner: %w", err)
	}

	splitter := pdfparse.NewSplitter()
	extractor := pdfparse.NewExtractor()
	ps, err := pagestore.Open(filepath.Join(ws, "parser", "pdf_cache"), filepath.Join(ws, "temp"), splitter, extractor)
	if err != nil {
		return nil, fmt.Errorf("open page store: %w", err)
	}

	lex, err := lexical.Open(filepath.Join(ws, "index_fts5.sqlite3"))
	if err != nil {
		return nil, fmt.Errorf("open lexical index: %w", err)
	}

	emb := embedder.NewHashingEmbedder(cfg.EmbeddingModelID, 256)
	vec, err := vector.Open(filepath.Join(ws, "vector_db"), embedder.Metric(cfg.VectorMetric), emb)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	coord, err := coordinator.Open(filepath.Join(ws, "indexes", "index.sqlite3"), ps, lex, vec)
	if err != nil {
		return nil, fmt.Errorf("open coordinator: %w", err)
	}

	qe := query.New(lex, vec, coord, segment.Get(), emb)
	bus := progress.New()
	eng := engine.New(scan, coord, qe, bus, cfg.WorkerCount)

	return &app{cfg: cfg, scan: scan, ps: ps, lex: lex, vec: vec, coord: coord, eng: eng}, nil
}

func (a *app) Close() {
	a.coord.Close()
	a.lex.Close()
	a.ps.Close()
	a.scan.Close()
}
