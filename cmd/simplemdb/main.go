// Command simplemdb is a thin illustrative wiring of the pool, schema
// analyzer, and backup orchestrator — not a scoped deliverable (§1's
// Non-goals keep CLI entry points as an external collaborator). It exists
// to show the pieces working end to end, in the same small-flags-struct
// shape sqldef's own cmd/*def binaries use.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/imransaadullah/SimpleMDB-sub000/analyzer"
	"github.com/imransaadullah/SimpleMDB-sub000/backup"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
	"github.com/imransaadullah/SimpleMDB-sub000/driver"
	"github.com/imransaadullah/SimpleMDB-sub000/pool"
)

type options struct {
	BackupDir string `long:"backup-dir" default:"./backups" description:"local storage directory for backup artifacts"`

	Backup struct {
		Name string `long:"name" required:"true"`
	} `command:"backup"`
	List struct{} `command:"list"`
	Verify struct {
		ID string `long:"id" required:"true"`
	} `command:"verify"`
	Restore struct {
		ID           string `long:"id" required:"true"`
		DropExisting bool   `long:"drop-existing"`
		DryRun       bool   `long:"dry-run"`
	} `command:"restore"`
}

// initLogging points slog's default logger at LOG_LEVEL (debug/info/warn/
// error), falling back to info when unset or unrecognized.
func initLogging() {
	raw, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		return
	}
	level := slog.LevelInfo
	switch strings.ToLower(raw) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	initLogging()
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	args, err := parser.Parse()
	if err != nil {
		os.Exit(1)
	}
	_ = args

	cfg, err := pool.FromEnv()
	if err != nil {
		slog.Error("load pool config from environment", "err", err)
		os.Exit(1)
	}
	p, err := pool.New(cfg)
	if err != nil {
		slog.Error("open connection pool", "err", err)
		os.Exit(1)
	}
	defer p.Close()

	conn, err := p.Conn("SELECT 1", false)
	if err != nil {
		slog.Error("acquire connection", "err", err)
		os.Exit(1)
	}

	tablesFn := tablesFnFor(conn)
	storage := backup.NewLocalStorage(opts.BackupDir)
	orch := backup.New(conn, storage, tablesFn).WithLogger(func(format string, a ...any) {
		slog.Warn(fmt.Sprintf(format, a...))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch parser.Active.Name {
	case "backup":
		runBackup(ctx, orch, opts.Backup.Name)
	case "list":
		runList(ctx, orch)
	case "verify":
		runVerify(ctx, orch, opts.Verify.ID)
	case "restore":
		runRestore(ctx, orch, opts.Restore.ID, opts.Restore.DropExisting, opts.Restore.DryRun)
	}
}

// tablesFnFor picks the dialect-appropriate catalog reader and returns a
// closure that reflects every table currently visible to conn, the shape
// backup.New's tablesFn parameter expects.
func tablesFnFor(conn *driver.Conn) func(ctx context.Context) ([]analyzer.Table, error) {
	switch conn.Dialect.Kind() {
	case dialect.Postgres:
		az := analyzer.NewPostgres(conn)
		return func(ctx context.Context) ([]analyzer.Table, error) { return reflectAll(ctx, az) }
	default:
		az := analyzer.NewMySQL(conn)
		return func(ctx context.Context) ([]analyzer.Table, error) { return reflectAllMySQL(ctx, az) }
	}
}

func reflectAllMySQL(ctx context.Context, az *analyzer.MySQL) ([]analyzer.Table, error) {
	names, err := az.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]analyzer.Table, 0, len(names))
	for _, name := range names {
		t, err := az.Reflect(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return analyzer.TopologicalOrder(tables, slog.Default()), nil
}

func reflectAll(ctx context.Context, az *analyzer.Postgres) ([]analyzer.Table, error) {
	names, err := az.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]analyzer.Table, 0, len(names))
	for _, name := range names {
		t, err := az.Reflect(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return analyzer.TopologicalOrder(tables, slog.Default()), nil
}

func runBackup(ctx context.Context, orch *backup.Orchestrator, name string) {
	res := orch.Backup(ctx, name, backup.BackupOptions{Type: backup.Full, ChunkSize: 1000})
	if !res.Success {
		slog.Error("backup failed", "err", res.Error)
		os.Exit(1)
	}
	fmt.Printf("backup %s created: id=%s size=%d checksum=%s\n", name, res.Record.ID, res.Record.Size, res.Record.Checksum)
}

func runList(ctx context.Context, orch *backup.Orchestrator) {
	records, err := orch.List(ctx)
	if err != nil {
		slog.Error("list backups", "err", err)
		os.Exit(1)
	}
	for _, r := range records {
		fmt.Printf("%s\t%s\t%s\t%d bytes\t%s\n", r.ID, r.Name, r.Type, r.Size, r.CreatedAt.Format(time.RFC3339))
	}
}

func runVerify(ctx context.Context, orch *backup.Orchestrator, id string) {
	ok, err := orch.Verify(ctx, id)
	if err != nil {
		slog.Error("verify backup", "err", err)
		os.Exit(1)
	}
	fmt.Printf("backup %s verify: %v\n", id, ok)
}

func runRestore(ctx context.Context, orch *backup.Orchestrator, id string, dropExisting, dryRun bool) {
	res := orch.Restore(ctx, id, backup.RestoreOptions{DropExisting: dropExisting, DryRun: dryRun})
	if !res.Success {
		slog.Error("restore failed", "err", res.Error)
		os.Exit(1)
	}
	if res.SnapshotID != "" {
		fmt.Printf("pre-restore snapshot: %s\n", res.SnapshotID)
	}
	fmt.Printf("restore %s: tables=%v\n", id, res.TablesRestored)
	for _, stmt := range res.Statements {
		fmt.Println(stmt)
	}
}
