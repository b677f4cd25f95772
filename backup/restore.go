package backup

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
	"github.com/imransaadullah/SimpleMDB-sub000/driver"
)

// RowFilter reports whether a decoded data row should survive a restore's
// per-table filtering. row holds the literal tokens of one VALUES tuple in
// column order, exactly as written in the artifact: string literals keep
// their surrounding single quotes (e.g. 'active').
type RowFilter func(row []string) bool

// RestoreOptions configures a single Restore call, the `restore(id)`
// builder operation of .
type RestoreOptions struct {
	// TargetConn restores into a different connection than the one the
	// Orchestrator was built with (nil restores in place).
	TargetConn *driver.Conn

	Tables        []string // empty restores every table present in the artifact
	ExcludeTables []string

	// DataFilter, keyed by source table name, drops rows that do not
	// satisfy the predicate before they are replayed.
	DataFilter map[string]RowFilter

	SkipSchema bool
	SkipData   bool

	// RenameTables maps a source table name to the name it should be
	// restored as; every DDL and DML statement touching that table is
	// rewritten to reference the new name.
	RenameTables map[string]string
	DropExisting bool

	PreSQL  []string
	PostSQL []string

	// Snapshot takes a full backup of the orchestrator's own connection
	// before replaying anything. Only honored when TargetConn is nil,
	// since the orchestrator has no schema reflector for an arbitrary
	// external connection.
	Snapshot bool

	// PointInTime, together with BinlogPath, replays a plain-text binlog
	// dump after the base artifact. A statement whose "-- AT" timestamp
	// marker is after PointInTime is skipped and replay continues with
	// the next one; statements without a marker are always replayed.
	PointInTime *time.Time
	BinlogPath  string

	Decrypt    *EncryptionKey
	Decompress Compressor

	// DryRun replays every statement against an in-memory recorder instead
	// of the target connection; RestoreResult.Statements carries what
	// would have run.
	DryRun bool
}

// RestoreResult is the outcome of a Restore call.
type RestoreResult struct {
	Success        bool
	SnapshotID     string
	TablesRestored []string
	Statements     []string // populated only when RestoreOptions.DryRun is set
	Error          string
}

// parsedStatement is one artifact statement tagged with the table it
// belongs to and whether it is schema DDL or a data INSERT, derived while
// scanning the artifact rather than by re-parsing SQL generically: the
// strategies in strategy.go always emit one table's statements
// contiguously (schema first, then data), so a "current table" cursor is
// enough to attribute trailing index/constraint statements to the table
// whose CREATE TABLE or INSERT INTO opened the run.
type parsedStatement struct {
	table string
	kind  string // "schema" or "data"
	sql   string
}

// parseArtifact splits a rendered backup payload back into its statements.
func parseArtifact(payload []byte, d dialect.Dialect) []parsedStatement {
	raw := strings.Split(string(payload), ";\n")
	out := make([]parsedStatement, 0, len(raw))
	currentTable := ""
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		kind := "schema"
		switch {
		case hasPrefixFold(s, "INSERT INTO"):
			kind = "data"
			if t, ok := identifierAfter(s, d, "INSERT INTO"); ok {
				currentTable = t
			}
		case hasPrefixFold(s, "CREATE TABLE IF NOT EXISTS"):
			if t, ok := identifierAfter(s, d, "CREATE TABLE IF NOT EXISTS"); ok {
				currentTable = t
			}
		case hasPrefixFold(s, "CREATE TABLE"):
			if t, ok := identifierAfter(s, d, "CREATE TABLE"); ok {
				currentTable = t
			}
		}
		out = append(out, parsedStatement{table: currentTable, kind: kind, sql: s})
	}
	return out
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// identifierAfter parses the identifier token immediately following prefix,
// stripping the dialect's quote characters if present.
func identifierAfter(stmt string, d dialect.Dialect, prefix string) (string, bool) {
	if !hasPrefixFold(stmt, prefix) {
		return "", false
	}
	rest := strings.TrimSpace(stmt[len(prefix):])
	end := len(rest)
	for i, r := range rest {
		if r == ' ' || r == '(' || r == '\n' || r == '\t' {
			end = i
			break
		}
	}
	token := rest[:end]
	if token == "" {
		return "", false
	}
	return unquoteIdentifier(token, d), true
}

func unquoteIdentifier(token string, d dialect.Dialect) string {
	q := d.Quote("x")
	lead, trail := q[:1], q[len(q)-1:]
	if len(token) >= 2 && strings.HasPrefix(token, lead) && strings.HasSuffix(token, trail) {
		return token[1 : len(token)-1]
	}
	return token
}

// filterStatements applies table inclusion/exclusion and skip-schema/
// skip-data to a parsed artifact.
func filterStatements(stmts []parsedStatement, opts RestoreOptions) []parsedStatement {
	want := make(map[string]bool, len(opts.Tables))
	for _, t := range opts.Tables {
		want[t] = true
	}
	exclude := make(map[string]bool, len(opts.ExcludeTables))
	for _, t := range opts.ExcludeTables {
		exclude[t] = true
	}

	out := make([]parsedStatement, 0, len(stmts))
	for _, s := range stmts {
		if s.table != "" {
			if len(want) > 0 && !want[s.table] {
				continue
			}
			if exclude[s.table] {
				continue
			}
		}
		if opts.SkipSchema && s.kind == "schema" {
			continue
		}
		if opts.SkipData && s.kind == "data" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func renamedTable(table string, renames map[string]string) string {
	if newName, ok := renames[table]; ok {
		return newName
	}
	return table
}

// rewriteTableReferences substitutes a statement's quoted source table
// names with their renamed counterparts.
func rewriteTableReferences(stmt string, d dialect.Dialect, renames map[string]string) string {
	for oldName, newName := range renames {
		stmt = strings.ReplaceAll(stmt, d.Quote(oldName), d.Quote(newName))
	}
	return stmt
}

// filterInsertRow drops VALUES tuples that fail filter, rebuilding the
// statement text with only the surviving tuples. keep is false when every
// tuple was dropped, meaning the statement should not be replayed at all.
func filterInsertRow(stmt string, filter RowFilter) (rewritten string, keep bool) {
	upper := strings.ToUpper(stmt)
	idx := strings.Index(upper, " VALUES ")
	if idx < 0 {
		return stmt, true
	}
	head := stmt[:idx]
	tail := stmt[idx+len(" VALUES "):]

	tuples := splitTuples(tail)
	kept := make([]string, 0, len(tuples))
	for _, tuple := range tuples {
		inner := strings.TrimSuffix(strings.TrimPrefix(tuple, "("), ")")
		row := splitCSVRespectingQuotes(inner)
		if filter(row) {
			kept = append(kept, tuple)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return head + " VALUES " + strings.Join(kept, ", "), true
}

// splitTuples splits a "(...), (...), (...)" VALUES list at its top-level
// parenthesis boundaries, ignoring parens and commas inside quoted string
// literals. It only needs to invert the literal, function-free rendering
// strategy.go's renderInlineInsert produces, not arbitrary SQL.
func splitTuples(s string) []string {
	var tuples []string
	depth := 0
	inQuote := false
	start := -1
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inQuote = !inQuote
		case s[i] == '(' && !inQuote:
			if depth == 0 {
				start = i
			}
			depth++
		case s[i] == ')' && !inQuote:
			depth--
			if depth == 0 && start >= 0 {
				tuples = append(tuples, s[start:i+1])
				start = -1
			}
		}
	}
	return tuples
}

func splitCSVRespectingQuotes(s string) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			inQuote = !inQuote
		}
		if s[i] == ',' && !inQuote {
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func execRawOn(ctx context.Context, conn *driver.Conn, sqlText string) (driver.Result, error) {
	stmt, err := conn.Prepare(ctx, sqlText)
	if err != nil {
		return driver.Result{}, err
	}
	defer stmt.Close()
	return stmt.Execute(ctx)
}

// Restore replays a stored artifact against the target connection, the
// `restore(id)` operation of .
func (o *Orchestrator) Restore(ctx context.Context, id string, opts RestoreOptions) RestoreResult {
	rec, ok, err := o.GetByID(ctx, id)
	if err != nil {
		return RestoreResult{Error: err.Error()}
	}
	if !ok {
		return RestoreResult{Error: (&dberrors.MetadataError{Reason: fmt.Sprintf("backup %q not found", id)}).Error()}
	}

	var result RestoreResult

	if opts.Snapshot {
		if opts.TargetConn != nil {
			o.logWarn("backup: restore snapshot skipped for %s: TargetConn has no schema reflector", id)
		} else {
			snap := o.Backup(ctx, "pre-restore-"+id, BackupOptions{Type: Full})
			if !snap.Success {
				return RestoreResult{Error: fmt.Sprintf("pre-restore snapshot failed: %s", snap.Error)}
			}
			result.SnapshotID = snap.Record.ID
		}
	}

	storageAdapter := o.storage
	if opts.Decrypt != nil {
		storageAdapter = NewEncryptedStorage(storageAdapter, opts.Decrypt.Key)
	}
	payload, err := storageAdapter.Retrieve(ctx, rec.StoragePath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if opts.Decompress != nil {
		payload, err = opts.Decompress.Decompress(payload)
		if err != nil {
			result.Error = (&dberrors.RestoreError{Op: "decompress", Err: err}).Error()
			return result
		}
	}

	target := o.conn
	if opts.TargetConn != nil {
		target = opts.TargetConn
	}

	execConn := target
	var dryRec *driver.DryRunConn
	if opts.DryRun {
		dc, rc, err := driver.NewDryRunConn(target.Dialect)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		execConn = dc
		dryRec = rc
	}

	stmts := filterStatements(parseArtifact(payload, execConn.Dialect), opts)

	restored := make(map[string]bool)
	for _, s := range stmts {
		if s.table != "" {
			restored[renamedTable(s.table, opts.RenameTables)] = true
		}
	}

	for _, sqlText := range opts.PreSQL {
		if _, err := execRawOn(ctx, execConn, sqlText); err != nil {
			result.Error = (&dberrors.RestoreError{Op: "pre-sql", Err: err}).Error()
			return result
		}
	}

	if opts.DropExisting {
		for table := range restored {
			dropSQL := "DROP TABLE IF EXISTS " + execConn.Dialect.Quote(table)
			if _, err := execRawOn(ctx, execConn, dropSQL); err != nil {
				result.Error = (&dberrors.RestoreError{Op: "drop-existing", Err: err}).Error()
				return result
			}
		}
	}

	for _, s := range stmts {
		stmtText := rewriteTableReferences(s.sql, execConn.Dialect, opts.RenameTables)
		if s.kind == "data" {
			if filter, ok := opts.DataFilter[s.table]; ok {
				filtered, keep := filterInsertRow(stmtText, filter)
				if !keep {
					continue
				}
				stmtText = filtered
			}
		}
		if _, err := execRawOn(ctx, execConn, stmtText); err != nil {
			result.Error = (&dberrors.RestoreError{Op: "replay", Err: err}).Error()
			return result
		}
	}

	if opts.PointInTime != nil && opts.BinlogPath != "" {
		if err := replayBinlog(ctx, execConn, opts.BinlogPath, *opts.PointInTime); err != nil {
			result.Error = (&dberrors.RestoreError{Op: "binlog-replay", Err: err}).Error()
			return result
		}
	}

	for _, sqlText := range opts.PostSQL {
		if _, err := execRawOn(ctx, execConn, sqlText); err != nil {
			result.Error = (&dberrors.RestoreError{Op: "post-sql", Err: err}).Error()
			return result
		}
	}

	result.Success = true
	result.TablesRestored = make([]string, 0, len(restored))
	for t := range restored {
		result.TablesRestored = append(result.TablesRestored, t)
	}
	sort.Strings(result.TablesRestored)
	if dryRec != nil {
		result.Statements = dryRec.Statements()
	}
	return result
}

// replayBinlog replays a plain-text binlog dump: bare SQL statements run
// unconditionally, while a statement preceded by a "-- AT <RFC3339>"
// marker line only runs when that timestamp is at or before pointInTime.
// This mirrors the text operators already get out of
// `mysqlbinlog --base64-output=DECODE-ROWS`; a real binlog parser
// (github.com/go-mysql-org/go-mysql) isn't part of this module's
// dependency set.
func replayBinlog(ctx context.Context, conn *driver.Conn, path string, pointInTime time.Time) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &dberrors.RestoreError{Op: "binlog-read", Err: err}
	}

	var pendingAt *time.Time
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-- AT ") {
			if ts, err := time.Parse(time.RFC3339, strings.TrimPrefix(line, "-- AT ")); err == nil {
				pendingAt = &ts
			}
			continue
		}
		if pendingAt != nil && pendingAt.After(pointInTime) {
			pendingAt = nil
			continue
		}
		pendingAt = nil
		if _, err := execRawOn(ctx, conn, strings.TrimSuffix(line, ";")); err != nil {
			return err
		}
	}
	return nil
}
