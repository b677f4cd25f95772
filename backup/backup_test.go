package backup

import (
	"context"
	"errors"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imransaadullah/SimpleMDB-sub000/analyzer"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
	"github.com/imransaadullah/SimpleMDB-sub000/driver"
)

var errNotStored = errors.New("memStorage: id not found")

// memStorage is an in-memory Storage fake, standing in for LocalStorage/S3
// Storage/FTPStorage in tests that only care about the orchestrator's own
// logic.
type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{data: map[string][]byte{}} }

func (m *memStorage) Store(ctx context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = append([]byte(nil), data...)
	return nil
}

func (m *memStorage) Retrieve(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[id]
	if !ok {
		return nil, errNotStored
	}
	return append([]byte(nil), data...), nil
}

func (m *memStorage) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok, nil
}

func (m *memStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *memStorage) Kind() string { return "memory" }

func usersTable() []analyzer.Table {
	return []analyzer.Table{
		{
			Name: "users",
			Columns: []analyzer.Column{
				{Name: "id", DataType: "int", BaseType: "integer"},
				{Name: "status", DataType: "varchar", BaseType: "string", Length: 20},
			},
		},
	}
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, sqlmock.Sqlmock, *memStorage) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn := driver.NewConnFromDB(dialect.NewMySQL(), db)
	storage := newMemStorage()
	tablesFn := func(ctx context.Context) ([]analyzer.Table, error) { return usersTable(), nil }
	return New(conn, storage, tablesFn), mock, storage
}

func TestBackupListGetByIDRoundTrip(t *testing.T) {
	orch, mock, _ := newTestOrchestrator(t)
	ctx := context.Background()

	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0)) // bootstrap
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1)) // insertRecord

	res := orch.Backup(ctx, "nightly", BackupOptions{Type: Full})
	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.Record.ID)
	assert.Equal(t, "nightly", res.Record.Name)
	assert.NotEmpty(t, res.Record.Checksum)

	metaRows := sqlmock.NewRows([]string{"id", "name", "database_name", "backup_type", "size",
		"checksum", "storage_kind", "storage_path", "metadata_json", "created_at"}).
		AddRow(res.Record.ID, res.Record.Name, res.Record.Database, res.Record.Type.String(),
			res.Record.Size, res.Record.Checksum, res.Record.StorageKind, res.Record.StoragePath, "{}", res.Record.CreatedAt)
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(metaRows)

	found, ok, err := orch.GetByID(ctx, res.Record.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res.Record.ID, found.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyDetectsChecksumMismatch(t *testing.T) {
	orch, mock, storage := newTestOrchestrator(t)
	ctx := context.Background()

	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))

	res := orch.Backup(ctx, "nightly", BackupOptions{Type: Full})
	require.True(t, res.Success, res.Error)

	metaRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "database_name", "backup_type", "size",
			"checksum", "storage_kind", "storage_path", "metadata_json", "created_at"}).
			AddRow(res.Record.ID, res.Record.Name, res.Record.Database, res.Record.Type.String(),
				res.Record.Size, res.Record.Checksum, res.Record.StorageKind, res.Record.StoragePath, "{}", res.Record.CreatedAt)
	}
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(metaRows())

	ok, err := orch.Verify(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	storage.data[res.Record.StoragePath] = []byte("corrupted")
	// The record lookup is now served from List's in-memory cache, which
	// the first Verify filled, so no metadata query is expected here.
	ok, err = orch.Verify(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEncryptedBackupVerifySucceeds(t *testing.T) {
	orch, mock, _ := newTestOrchestrator(t)
	ctx := context.Background()

	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))

	var key [32]byte
	copy(key[:], "0123456789abcdef0123456789abcdef")
	res := orch.Backup(ctx, "nightly", BackupOptions{Type: Full, Encrypt: &EncryptionKey{Key: key}})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Record.StorageKind, "aes256cbc")

	metaRows := sqlmock.NewRows([]string{"id", "name", "database_name", "backup_type", "size",
		"checksum", "storage_kind", "storage_path", "metadata_json", "created_at"}).
		AddRow(res.Record.ID, res.Record.Name, res.Record.Database, res.Record.Type.String(),
			res.Record.Size, res.Record.Checksum, res.Record.StorageKind, res.Record.StoragePath, "{}", res.Record.CreatedAt)
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(metaRows)

	// Verify never sees the encryption key; it must still match because the
	// checksum was taken over the same ciphertext bytes o.storage holds.
	ok, err := orch.Verify(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreDryRunReplaysArtifactWithoutTouchingTargetConn(t *testing.T) {
	orch, mock, _ := newTestOrchestrator(t)
	ctx := context.Background()

	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))

	res := orch.Backup(ctx, "nightly", BackupOptions{Type: Full})
	require.True(t, res.Success, res.Error)

	metaRows := sqlmock.NewRows([]string{"id", "name", "database_name", "backup_type", "size",
		"checksum", "storage_kind", "storage_path", "metadata_json", "created_at"}).
		AddRow(res.Record.ID, res.Record.Name, res.Record.Database, res.Record.Type.String(),
			res.Record.Size, res.Record.Checksum, res.Record.StorageKind, res.Record.StoragePath, "{}", res.Record.CreatedAt)
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(metaRows)

	rres := orch.Restore(ctx, res.Record.ID, RestoreOptions{DryRun: true})
	require.True(t, rres.Success, rres.Error)
	assert.Contains(t, rres.TablesRestored, "users")
	assert.NotEmpty(t, rres.Statements)

	// DryRun must never touch the real connection beyond the GetByID/List
	// lookup above: no further expectations were queued, so a leftover
	// expectation here would fail this check.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreReturnsErrorForUnknownID(t *testing.T) {
	orch, mock, _ := newTestOrchestrator(t)
	ctx := context.Background()

	mock.ExpectPrepare(".*").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0)) // bootstrap
	mock.ExpectPrepare(".*").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{
		"id", "name", "database_name", "backup_type", "size",
		"checksum", "storage_kind", "storage_path", "metadata_json", "created_at",
	}))

	rres := orch.Restore(ctx, "does-not-exist", RestoreOptions{DryRun: true})
	assert.False(t, rres.Success)
	assert.NotEmpty(t, rres.Error)

	require.NoError(t, mock.ExpectationsWereMet())
}
