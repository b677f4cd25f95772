// Package backup implements a backup orchestrator that drives
// the schema builder, query builder, and connection driver to produce
// checksummed, optionally encrypted and compressed backup artifacts, and
// restores them back into a (possibly renamed) target database. The
// pack's original_source/ content for this spec was filtered down to zero
// kept files, so this package is grounded directly on spec.md plus the
// teacher's own storage/compose style (database/*.go's adapter-per-engine
// layout) rather than on a prior implementation.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imransaadullah/SimpleMDB-sub000/analyzer"
	"github.com/imransaadullah/SimpleMDB-sub000/cache"
	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/driver"
	"github.com/imransaadullah/SimpleMDB-sub000/migration"
	"github.com/imransaadullah/SimpleMDB-sub000/query"
	"github.com/imransaadullah/SimpleMDB-sub000/schema"
)

// Type enumerates the backup types.
type Type int

const (
	Full Type = iota
	SchemaOnly
	DataOnly
	Incremental
	Differential
)

func (t Type) String() string {
	switch t {
	case Full:
		return "full"
	case SchemaOnly:
		return "schema_only"
	case DataOnly:
		return "data_only"
	case Incremental:
		return "incremental"
	case Differential:
		return "differential"
	default:
		return "unknown"
	}
}

// Record is one row of the metadata table
type Record struct {
	ID          string
	Name        string
	Database    string
	Type        Type
	Size        int64
	Checksum    string
	StorageKind string
	StoragePath string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Result is the outcome of a Backup call
type Result struct {
	Success bool
	Record  Record
	Error   string
}

const metadataTable = "_simplemdb_backups"

// Orchestrator drives backup/restore
type Orchestrator struct {
	conn    *driver.Conn
	storage Storage
	tables  func(ctx context.Context) ([]analyzer.Table, error)

	mu         sync.Mutex
	listCache  *cache.Memory
	bootstrapped bool

	logf func(format string, args ...any)
}

// New builds an Orchestrator. tablesFn supplies the reflected schema (the
// analyzer's Reflect per table, already assembled into a slice) for backup
// and for migration-based schema capture.
func New(conn *driver.Conn, storage Storage, tablesFn func(ctx context.Context) ([]analyzer.Table, error)) *Orchestrator {
	return &Orchestrator{
		conn:      conn,
		storage:   storage,
		tables:    tablesFn,
		listCache: cache.NewMemory(),
	}
}

// WithLogger attaches a sink for non-fatal warnings, e.g. migration
// generation failures during a backup, which are logged while the backup
// itself still succeeds.
func (o *Orchestrator) WithLogger(logf func(format string, args ...any)) *Orchestrator {
	o.logf = logf
	return o
}

func (o *Orchestrator) logWarn(format string, args ...any) {
	if o.logf != nil {
		o.logf(format, args...)
	}
}

// bootstrap idempotently creates the metadata table
func (o *Orchestrator) bootstrap(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bootstrapped {
		return nil
	}

	tbl := schema.NewTable(o.conn.Dialect, metadataTable)
	tbl.Varchar("id", 36)
	tbl.Varchar("name", 255)
	tbl.Varchar("database_name", 255)
	tbl.Varchar("backup_type", 32)
	tbl.BigInt("size")
	tbl.Varchar("checksum", 64)
	tbl.Varchar("storage_kind", 32)
	tbl.Text("storage_path")
	tbl.Text("metadata_json").Nullable()
	tbl.Timestamp("created_at").UseCurrent()
	tbl.PrimaryKey("id")
	tbl.IfNotExists()

	stmts, err := tbl.CreateTable()
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := o.execRaw(ctx, stmt); err != nil {
			return err
		}
	}
	o.bootstrapped = true
	return nil
}

func (o *Orchestrator) execRaw(ctx context.Context, sqlText string, params ...any) (driver.Result, error) {
	stmt, err := o.conn.Prepare(ctx, sqlText)
	if err != nil {
		return driver.Result{}, err
	}
	defer stmt.Close()
	return stmt.Execute(ctx, params...)
}

// BackupOptions configures a single Backup call.
type BackupOptions struct {
	Type      Type
	Streaming bool // force the streaming strategy regardless of Type
	ChunkSize int
	Tables    []string // empty means every reflected table
	Encrypt   *EncryptionKey
	Compress  Compressor
}

// EncryptionKey carries the caller-supplied AES-256 key for an encrypted
// artifact
type EncryptionKey struct {
	Key [32]byte
}

// Backup produces a new artifact named name `backup(name)`
// operation. On any failure after a partial artifact write, the partial
// artifact is best-effort deleted and no Record is persisted.
func (o *Orchestrator) Backup(ctx context.Context, name string, opts BackupOptions) Result {
	if err := o.bootstrap(ctx); err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	tables, err := o.tables(ctx)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	tables = filterTables(tables, opts.Tables)

	id := uuid.NewString()

	strategy := o.strategyFor(opts)
	payload, err := strategy.Dump(ctx, o.conn, tables, opts)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	if opts.Compress != nil {
		payload, err = opts.Compress.Compress(payload)
		if err != nil {
			return Result{Success: false, Error: (&dberrors.StorageError{Op: "compress", Err: err}).Error()}
		}
	}

	storeAdapter := o.storage
	if opts.Encrypt != nil {
		storeAdapter = NewEncryptedStorage(storeAdapter, opts.Encrypt.Key)
	}

	if err := storeAdapter.Store(ctx, id, payload); err != nil {
		_ = storeAdapter.Delete(ctx, id)
		return Result{Success: false, Error: err.Error()}
	}

	// Checksum and size are taken from the base store, i.e. the bytes as
	// they actually sit on disk (ciphertext when Encrypt is set), since
	// that is what Verify reads back through o.storage. Hashing the
	// decrypted round-trip through storeAdapter would never match.
	stored, err := o.storage.Retrieve(ctx, id)
	if err != nil {
		_ = storeAdapter.Delete(ctx, id)
		return Result{Success: false, Error: err.Error()}
	}
	checksum := sha256Hex(stored)

	rec := Record{
		ID:          id,
		Name:        name,
		Database:    o.conn.Config.Database,
		Type:        opts.Type,
		Size:        int64(len(stored)),
		Checksum:    checksum,
		StorageKind: storeAdapter.Kind(),
		StoragePath: id,
		Metadata:    map[string]any{},
		CreatedAt:   time.Now(),
	}

	if err := o.insertRecord(ctx, rec); err != nil {
		_ = storeAdapter.Delete(ctx, id)
		return Result{Success: false, Error: err.Error()}
	}

	o.invalidateList()
	return Result{Success: true, Record: rec}
}

func (o *Orchestrator) strategyFor(opts BackupOptions) Strategy {
	if opts.Streaming || opts.Type == Incremental || opts.Type == Differential {
		return &StreamingStrategy{ChunkSize: opts.ChunkSize}
	}
	return &FullDumpStrategy{}
}

func (o *Orchestrator) insertRecord(ctx context.Context, rec Record) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return &dberrors.MetadataError{Reason: err.Error()}
	}
	ins := query.NewInsert(metadataTable, "id", "name", "database_name", "backup_type",
		"size", "checksum", "storage_kind", "storage_path", "metadata_json", "created_at")
	ins.Values(rec.ID, rec.Name, rec.Database, rec.Type.String(), rec.Size, rec.Checksum,
		rec.StorageKind, rec.StoragePath, string(metaJSON), rec.CreatedAt)

	sqlText, err := ins.ToSQL(o.conn.Dialect)
	if err != nil {
		return err
	}
	bindings, err := ins.Bindings(o.conn.Dialect)
	if err != nil {
		return err
	}
	_, err = o.execRaw(ctx, sqlText, bindings...)
	return err
}

// List returns every backup record ordered by created-at descending, per
// Results are cached in memory and invalidated on any write.
func (o *Orchestrator) List(ctx context.Context) ([]Record, error) {
	const cacheKey = "backup:list"
	if cached, ok := o.listCache.Get(cacheKey); ok {
		var records []Record
		if err := json.Unmarshal(cached, &records); err == nil {
			return records, nil
		}
	}

	if err := o.bootstrap(ctx); err != nil {
		return nil, err
	}

	sel := query.NewSelect("id", "name", "database_name", "backup_type", "size",
		"checksum", "storage_kind", "storage_path", "metadata_json", "created_at").
		From(metadataTable).
		OrderBy("created_at", "DESC")

	records, err := o.query(ctx, sel)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(records); err == nil {
		o.listCache.Set(cacheKey, encoded, 5*time.Minute)
	}
	return records, nil
}

// GetByID returns the record with the given id
func (o *Orchestrator) GetByID(ctx context.Context, id string) (Record, bool, error) {
	records, err := o.List(ctx)
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// Delete removes a record's metadata row and its stored artifact.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	rec, ok, err := o.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &dberrors.MetadataError{Reason: fmt.Sprintf("backup %q not found", id)}
	}

	del := query.NewDelete(metadataTable).Where("id = ?", rec.ID)
	sqlText, err := del.ToSQL(o.conn.Dialect)
	if err != nil {
		return err
	}
	bindings, err := del.Bindings(o.conn.Dialect)
	if err != nil {
		return err
	}
	if _, err := o.execRaw(ctx, sqlText, bindings...); err != nil {
		return err
	}

	if err := o.storage.Delete(ctx, rec.StoragePath); err != nil {
		return err
	}
	o.invalidateList()
	return nil
}

// Verify recomputes SHA-256 over the retrieved bytes and compares against
// the stored checksum /.
func (o *Orchestrator) Verify(ctx context.Context, id string) (bool, error) {
	rec, ok, err := o.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	data, err := o.storage.Retrieve(ctx, rec.StoragePath)
	if err != nil {
		return false, nil
	}
	return sha256Hex(data) == rec.Checksum, nil
}

// Prune deletes every record older than olderThan, keeping at least the
// keepLast most recent regardless of age — a natural operational
// complement to List/Delete for long-running deployments.
func (o *Orchestrator) Prune(ctx context.Context, olderThan time.Time, keepLast int) (int, error) {
	records, err := o.List(ctx)
	if err != nil {
		return 0, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })

	deleted := 0
	for i, rec := range records {
		if i < keepLast {
			continue
		}
		if rec.CreatedAt.After(olderThan) {
			continue
		}
		if err := o.Delete(ctx, rec.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// GenerateMigration captures the current schema as migration artifacts
// alongside a backup. Failures here are logged and do not fail the
// backup itself failure semantics.
func (o *Orchestrator) GenerateMigration(ctx context.Context, opts migration.Options) []migration.File {
	tables, err := o.tables(ctx)
	if err != nil {
		o.logWarn("backup: migration generation skipped: %v", err)
		return nil
	}
	gen := migration.NewGenerator(o.conn.Dialect).WithLogger(o.logf)
	files, err := gen.Generate(tables, opts)
	if err != nil {
		o.logWarn("backup: migration generation failed: %v", err)
		return nil
	}
	return files
}

func (o *Orchestrator) invalidateList() {
	o.listCache.Delete("backup:list")
}

func filterTables(tables []analyzer.Table, names []string) []analyzer.Table {
	if len(names) == 0 {
		return tables
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []analyzer.Table
	for _, t := range tables {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// query runs sel against the connection and decodes rows into Records.
func (o *Orchestrator) query(ctx context.Context, sel *query.Select) ([]Record, error) {
	sqlText, err := sel.ToSQL(o.conn.Dialect)
	if err != nil {
		return nil, err
	}
	bindings, err := sel.Bindings(o.conn.Dialect)
	if err != nil {
		return nil, err
	}
	stmt, err := o.conn.Prepare(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(ctx, bindings...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	raw, err := rows.FetchAll(driver.FetchAssoc)
	if err != nil {
		return nil, err
	}
	maps, _ := raw.([]map[string]any)

	out := make([]Record, 0, len(maps))
	for _, m := range maps {
		out = append(out, recordFromRow(m))
	}
	return out, nil
}

func recordFromRow(m map[string]any) Record {
	meta := map[string]any{}
	if raw, ok := m["metadata_json"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			_ = json.Unmarshal([]byte(s), &meta)
		}
	}
	return Record{
		ID:          asString(m["id"]),
		Name:        asString(m["name"]),
		Database:    asString(m["database_name"]),
		Type:        typeFromString(asString(m["backup_type"])),
		Size:        asInt64(m["size"]),
		Checksum:    asString(m["checksum"]),
		StorageKind: asString(m["storage_kind"]),
		StoragePath: asString(m["storage_path"]),
		Metadata:    meta,
		CreatedAt:   asTime(m["created_at"]),
	}
}

func typeFromString(s string) Type {
	switch s {
	case "schema_only":
		return SchemaOnly
	case "data_only":
		return DataOnly
	case "incremental":
		return Incremental
	case "differential":
		return Differential
	default:
		return Full
	}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}
