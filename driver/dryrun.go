package driver

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// DryRunConn records statements instead of executing them against a real
// database. It is adapted from sqldef's database/dry_run.go, which
// registers a fake database/sql driver so migration previews and "what
// would restore do" checks can run through the exact same driver.Conn/Stmt
// code paths as a live connection, without touching the database. Here it
// backs backup restore dry-runs instead of sqldef's own DDL-apply preview.
type DryRunConn struct {
	mu         sync.Mutex
	statements []string
}

var dryRunRegistry = struct {
	mu      sync.Mutex
	counter int
}{}

// NewDryRunConn opens a *Conn backed by an in-memory recorder: Execute
// appends the statement to Statements() and returns a zero-row, zero-
// affected-rows result; Query returns an empty result set.
func NewDryRunConn(d dialect.Dialect) (*Conn, *DryRunConn, error) {
	rec := &DryRunConn{}

	dryRunRegistry.mu.Lock()
	dryRunRegistry.counter++
	name := fmt.Sprintf("simplemdb-dryrun-%d", dryRunRegistry.counter)
	dryRunRegistry.mu.Unlock()

	sql.Register(name, &dryRunDriver{rec: rec})

	db, err := sql.Open(name, "dry-run")
	if err != nil {
		return nil, nil, err
	}

	return &Conn{Dialect: d, db: db}, rec, nil
}

// Statements returns every SQL text recorded so far, in execution order.
func (r *DryRunConn) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statements...)
}

func (r *DryRunConn) record(sql string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, sql)
}

type dryRunDriver struct {
	rec *DryRunConn
}

func (d *dryRunDriver) Open(name string) (driver.Conn, error) {
	return &dryRunDBConn{rec: d.rec}, nil
}

type dryRunDBConn struct {
	rec *DryRunConn
}

func (c *dryRunDBConn) Prepare(query string) (driver.Stmt, error) {
	return &dryRunStmt{rec: c.rec, query: query}, nil
}

func (c *dryRunDBConn) Close() error { return nil }

func (c *dryRunDBConn) Begin() (driver.Tx, error) {
	return dryRunTx{}, nil
}

type dryRunTx struct{}

func (dryRunTx) Commit() error   { return nil }
func (dryRunTx) Rollback() error { return nil }

type dryRunStmt struct {
	rec   *DryRunConn
	query string
}

func (s *dryRunStmt) Close() error  { return nil }
func (s *dryRunStmt) NumInput() int { return -1 }

func (s *dryRunStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.rec.record(s.query)
	return dryRunResult{}, nil
}

func (s *dryRunStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.rec.record(s.query)
	return &dryRunRows{}, nil
}

type dryRunResult struct{}

func (dryRunResult) LastInsertId() (int64, error) { return 0, nil }
func (dryRunResult) RowsAffected() (int64, error) { return 0, nil }

type dryRunRows struct{}

func (*dryRunRows) Columns() []string { return nil }
func (*dryRunRows) Close() error      { return nil }
func (*dryRunRows) Next(dest []driver.Value) error {
	return io.EOF
}
