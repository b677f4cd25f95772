package driver

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// FetchMode selects how a result set is shaped when scanned
type FetchMode int

const (
	FetchAssoc FetchMode = iota
	FetchPositional
	FetchObject
	FetchColumn
	FetchKeyPair
	FetchKeyPairArray
	FetchGroup
	FetchGroupColumn
	FetchGroupObject
)

// Conn wraps a single *sql.DB connection (or connection pool entry) and
// exposes the prepare/execute/fetch surface from It never
// interpolates user data into SQL text; all values flow through
// database/sql's parameter binding.
type Conn struct {
	Dialect dialect.Dialect
	Config  ConnConfig
	db      *sql.DB
	inTx    *sql.Tx
}

// Open establishes a *sql.DB for the given config. The connection is not
// validated until first use (database/sql's usual lazy-dial behavior);
// pool.Pool calls Ping during its own health check instead.
func Open(cfg ConnConfig) (*Conn, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	d, err := dialect.For(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.DriverName(), dsn)
	if err != nil {
		return nil, &dberrors.ConnectionError{Err: err}
	}
	return &Conn{Dialect: d, Config: cfg, db: db}, nil
}

// DB exposes the underlying *sql.DB, e.g. for analyzer catalog queries that
// don't need the fetch-mode abstraction.
func (c *Conn) DB() *sql.DB { return c.db }

// NewConnFromDB wraps an already-open *sql.DB, letting other packages'
// tests drive a *Conn against a go-sqlmock database without dialing a
// real server.
func NewConnFromDB(d dialect.Dialect, db *sql.DB) *Conn {
	return &Conn{Dialect: d, db: db}
}

// Ping validates connectivity, used by pool.Pool's health check.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return classify(c.Dialect.Kind(), err)
	}
	return nil
}

// Close closes the underlying connection pool handle.
func (c *Conn) Close() error { return c.db.Close() }

// Stmt wraps a prepared statement.
type Stmt struct {
	stmt   *sql.Stmt
	dbKind dialect.Kind
	sql    string
}

// Prepare compiles sql via database/sql's Prepare, which on every stock
// driver in this stack (go-sql-driver/mysql, lib/pq) produces a true
// server-side (or client-side emulated) prepared statement bound by
// position — never string interpolation.
func (c *Conn) Prepare(ctx context.Context, sqlText string) (*Stmt, error) {
	bound := Rebind(c.Dialect.Kind(), sqlText)
	var (
		s   *sql.Stmt
		err error
	)
	if c.inTx != nil {
		s, err = c.inTx.PrepareContext(ctx, bound)
	} else {
		s, err = c.db.PrepareContext(ctx, bound)
	}
	if err != nil {
		return nil, classify(c.Dialect.Kind(), err, sqlText)
	}
	return &Stmt{stmt: s, dbKind: c.Dialect.Kind(), sql: sqlText}, nil
}

func (s *Stmt) Close() error { return s.stmt.Close() }

// Result wraps the outcome of a non-SELECT execution.
type Result struct {
	res sql.Result
}

func (r Result) AffectedRows() (int64, error) { return r.res.RowsAffected() }
func (r Result) LastInsertID() (int64, error) { return r.res.LastInsertId() }

// Execute runs stmt with the given positional params and returns a Result
// handle exposing AffectedRows/LastInsertID
func (s *Stmt) Execute(ctx context.Context, params ...any) (Result, error) {
	res, err := s.stmt.ExecContext(ctx, params...)
	if err != nil {
		return Result{}, classify(s.dbKind, err, s.sql)
	}
	return Result{res: res}, nil
}

// Rows wraps *sql.Rows plus the fetch-mode decoding logic.
type Rows struct {
	rows   *sql.Rows
	dbKind dialect.Kind
	sql    string
}

// Query runs stmt and returns a Rows handle ready for Fetch/FetchAll.
func (s *Stmt) Query(ctx context.Context, params ...any) (*Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, params...)
	if err != nil {
		return nil, classify(s.dbKind, err, s.sql)
	}
	return &Rows{rows: rows, dbKind: s.dbKind, sql: s.sql}, nil
}

func (r *Rows) Close() error { return r.rows.Close() }

// FetchOne decodes the next row according to mode. It returns
// (nil, false, nil) when there are no more rows.
func (r *Rows) FetchOne(mode FetchMode) (any, bool, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, false, classify(r.dbKind, err, r.sql)
		}
		return nil, false, nil
	}
	row, err := r.scanRow()
	if err != nil {
		return nil, false, err
	}
	return shapeRow(mode, row), true, nil
}

// FetchAll decodes every remaining row according to mode, combining rows
// per the grouped/key-pair modes where applicable.
func (r *Rows) FetchAll(mode FetchMode) (any, error) {
	var rawRows []scannedRow
	for r.rows.Next() {
		row, err := r.scanRow()
		if err != nil {
			return nil, err
		}
		rawRows = append(rawRows, row)
	}
	if err := r.rows.Err(); err != nil {
		return nil, classify(r.dbKind, err, r.sql)
	}
	return shapeAll(mode, rawRows), nil
}

type scannedRow struct {
	columns []string
	values  []any
}

func (r *Rows) scanRow() (scannedRow, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return scannedRow{}, classify(r.dbKind, err, r.sql)
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return scannedRow{}, classify(r.dbKind, err, r.sql)
	}
	return scannedRow{columns: cols, values: values}, nil
}

// shapeRow applies a single row's fetch-mode shaping
// enumerated modes.
func shapeRow(mode FetchMode, row scannedRow) any {
	switch mode {
	case FetchPositional:
		return append([]any(nil), row.values...)
	case FetchColumn:
		if len(row.values) == 0 {
			return nil
		}
		return row.values[0]
	case FetchObject, FetchAssoc:
		m := make(map[string]any, len(row.columns))
		for i, c := range row.columns {
			m[c] = row.values[i]
		}
		return m
	default:
		m := make(map[string]any, len(row.columns))
		for i, c := range row.columns {
			m[c] = row.values[i]
		}
		return m
	}
}

// shapeAll applies the whole-result-set fetch modes: key-pair (2-column
// rows keyed by the first column), key-pair-array (first column maps to
// the rest of the row), grouped (rows grouped by first column value into
// slices), grouped-column, and grouped-object.
func shapeAll(mode FetchMode, rows []scannedRow) any {
	switch mode {
	case FetchKeyPair:
		out := make(map[any]any, len(rows))
		for _, row := range rows {
			if len(row.values) >= 2 {
				out[row.values[0]] = row.values[1]
			}
		}
		return out
	case FetchKeyPairArray:
		out := make(map[any]map[string]any, len(rows))
		for _, row := range rows {
			if len(row.values) == 0 {
				continue
			}
			rest := make(map[string]any, len(row.columns)-1)
			for i := 1; i < len(row.columns); i++ {
				rest[row.columns[i]] = row.values[i]
			}
			out[row.values[0]] = rest
		}
		return out
	case FetchGroup:
		out := make(map[any][]map[string]any)
		for _, row := range rows {
			if len(row.values) == 0 {
				continue
			}
			key := row.values[0]
			out[key] = append(out[key], shapeRow(FetchAssoc, row).(map[string]any))
		}
		return out
	case FetchGroupColumn:
		out := make(map[any][]any)
		for _, row := range rows {
			if len(row.values) < 2 {
				continue
			}
			key := row.values[0]
			out[key] = append(out[key], row.values[1])
		}
		return out
	case FetchGroupObject:
		out := make(map[any][]map[string]any)
		for _, row := range rows {
			if len(row.values) == 0 {
				continue
			}
			key := row.values[0]
			out[key] = append(out[key], shapeRow(FetchObject, row).(map[string]any))
		}
		return out
	default:
		out := make([]any, len(rows))
		for i, row := range rows {
			out[i] = shapeRow(mode, row)
		}
		return out
	}
}

// BeginTransaction pins the connection for the transaction's lifetime: a
// transaction begun on a pooled connection pins that connection for its
// entire lifetime; nested transactions are not supported.
func (c *Conn) BeginTransaction(ctx context.Context) error {
	if c.inTx != nil {
		return fmt.Errorf("driver: nested transactions are not supported")
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(c.Dialect.Kind(), err)
	}
	c.inTx = tx
	return nil
}

func (c *Conn) Commit() error {
	if c.inTx == nil {
		return fmt.Errorf("driver: no transaction in progress")
	}
	err := c.inTx.Commit()
	c.inTx = nil
	return err
}

func (c *Conn) Rollback() error {
	if c.inTx == nil {
		return fmt.Errorf("driver: no transaction in progress")
	}
	err := c.inTx.Rollback()
	c.inTx = nil
	return err
}

func (c *Conn) InTransaction() bool { return c.inTx != nil }
