// Command docindex is the CLI front end for the personal PDF indexing
// engine: commit source directories, run a scan-and-index cycle, or run a
// one-shot query against the indexes.
//
// Build with: go build -tags sqlite_fts5 ./cmd/docindex
// (the lexical index's FTS5 virtual table requires the sqlite_fts5 build
// tag on the mattn/go-sqlite3 driver; without it, Store.Open's
// CREATE VIRTUAL TABLE ... USING fts5 statement fails at runtime.)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"docindex/config"
	"docindex/engine"
	"docindex/logging"
	"docindex/scanner"
)

var cli struct {
	Config string `help:"Path to a config file (YAML/TOML/JSON understood by viper)." type:"path"`
	Log    string `help:"Log level." default:"info" enum:"trace,debug,info,warn,error"`

	Commit struct {
		Name string `arg:"" help:"Scope name."`
		Path string `arg:"" help:"Absolute path of the directory this scope watches." type:"path"`
	} `cmd:"" help:"Register or update one committed source directory."`

	Scan struct{} `cmd:"" help:"Run one scan-and-index cycle over all committed scopes, then exit."`

	Run struct{} `cmd:"" help:"Run one scan-and-index cycle with the SIGINT/SIGTERM escalation policy installed, then exit."`

	Query struct {
		Text  string `arg:"" help:"Query text."`
		Limit int    `help:"Candidate limit for the lexical phases and for the similarity phase; results are not truncated per category." default:"20"`
	} `cmd:"" help:"Run a single query against the existing indexes."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("docindex"),
		kong.Description("Personal PDF search engine: scan, index, query."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Configure(cli.Log)
	log := logging.Named("cli")

	if err := os.MkdirAll(cfg.WorkspaceDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a, err := wire(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()

	switch kctx.Command() {
	case "commit <name> <path>":
		var scopes []scanner.Scope
		scopes, err = a.scan.Scopes()
		if err == nil {
			roots := make(map[string]string, len(scopes)+1)
			for _, sc := range scopes {
				roots[sc.Name] = sc.AbsPath
			}
			roots[cli.Commit.Name] = cli.Commit.Path
			err = a.scan.CommitSources(roots)
		}
	case "scan":
		err = runOnce(ctx, a, log)
	case "run":
		err = runWatched(ctx, a, cfg, log)
	case "query <text>":
		err = runQuery(ctx, a, cli.Query.Text, cli.Query.Limit)
	default:
		err = fmt.Errorf("unhandled command %q", kctx.Command())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, a *app, log interface {
	Info(msg string, args ...interface{})
}) error {
	state, err := a.eng.Run(ctx)
	log.Info("scan complete", "state", state)
	return err
}

func runWatched(ctx context.Context, a *app, cfg config.Config, log interface {
	Warn(msg string, args ...interface{})
}) error {
	if engine.IsDirty(cfg.WorkspaceDir) {
		log.Warn("workspace was left dirty by a prior forced exit, rebuilding indexes is recommended")
	}
	stop := a.eng.WatchSignals(ctx, cfg.WorkspaceDir)
	defer stop()

	_, err := a.eng.Run(ctx)
	return err
}

func runQuery(ctx context.Context, a *app, text string, limit int) error {
	result, err := a.eng.Query(ctx, text, limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
