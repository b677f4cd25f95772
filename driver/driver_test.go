package driver

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

func newMockConn(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &Conn{Dialect: dialect.NewMySQL(), db: db}, mock
}

func TestFetchModes(t *testing.T) {
	conn, mock := newMockConn(t)
	defer conn.db.Close()

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(1, "alice").
		AddRow(2, "bob")
	mock.ExpectPrepare("SELECT").ExpectQuery().WillReturnRows(rows)

	stmt, err := conn.Prepare(context.Background(), "SELECT id, name FROM users")
	require.NoError(t, err)
	r, err := stmt.Query(context.Background())
	require.NoError(t, err)
	defer r.Close()

	all, err := r.FetchAll(FetchAssoc)
	require.NoError(t, err)
	list := all.([]any)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].(map[string]any)["id"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchKeyPair(t *testing.T) {
	conn, mock := newMockConn(t)
	defer conn.db.Close()

	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "alice").AddRow(2, "bob")
	mock.ExpectPrepare("SELECT").ExpectQuery().WillReturnRows(rows)

	stmt, err := conn.Prepare(context.Background(), "SELECT id, name FROM users")
	require.NoError(t, err)
	r, err := stmt.Query(context.Background())
	require.NoError(t, err)
	defer r.Close()

	all, err := r.FetchAll(FetchKeyPair)
	require.NoError(t, err)
	m := all.(map[any]any)
	assert.Equal(t, "alice", m[int64(1)])
	assert.Equal(t, "bob", m[int64(2)])
}

func TestExecuteAffectedRows(t *testing.T) {
	conn, mock := newMockConn(t)
	defer conn.db.Close()

	mock.ExpectPrepare("UPDATE").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 3))

	stmt, err := conn.Prepare(context.Background(), "UPDATE users SET active = ? WHERE id > ?")
	require.NoError(t, err)
	res, err := stmt.Execute(context.Background(), true, 5)
	require.NoError(t, err)

	affected, err := res.AffectedRows()
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
}

func TestClassifyMySQLIntegrityError(t *testing.T) {
	conn, mock := newMockConn(t)
	defer conn.db.Close()

	mock.ExpectPrepare("INSERT").ExpectExec().
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'PRIMARY'"})

	stmt, err := conn.Prepare(context.Background(), "INSERT INTO users (id) VALUES (?)")
	require.NoError(t, err)
	_, err = stmt.Execute(context.Background(), 1)
	require.Error(t, err)

	var integrityErr *dberrors.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestClassifyMySQLTransientError(t *testing.T) {
	conn, mock := newMockConn(t)
	defer conn.db.Close()

	mock.ExpectPrepare("SELECT").ExpectQuery().
		WillReturnError(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})

	stmt, err := conn.Prepare(context.Background(), "SELECT 1")
	require.NoError(t, err)
	_, err = stmt.Query(context.Background())
	require.Error(t, err)

	var transientErr *dberrors.TransientError
	require.ErrorAs(t, err, &transientErr)
}

func TestTransactionPinsConnection(t *testing.T) {
	conn, mock := newMockConn(t)
	defer conn.db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, conn.BeginTransaction(context.Background()))
	assert.True(t, conn.InTransaction())
	require.NoError(t, conn.Commit())
	assert.False(t, conn.InTransaction())
}

func TestNestedTransactionRejected(t *testing.T) {
	conn, mock := newMockConn(t)
	defer conn.db.Close()

	mock.ExpectBegin()
	require.NoError(t, conn.BeginTransaction(context.Background()))
	err := conn.BeginTransaction(context.Background())
	require.Error(t, err)
}

func TestDryRunRecordsStatementsWithoutExecuting(t *testing.T) {
	conn, rec, err := NewDryRunConn(dialect.NewMySQL())
	require.NoError(t, err)
	defer conn.Close()

	stmt, err := conn.Prepare(context.Background(), "CREATE TABLE users (id INT)")
	require.NoError(t, err)
	_, err = stmt.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"CREATE TABLE users (id INT)"}, rec.Statements())
}
