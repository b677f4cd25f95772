package backup

import (
	"context"
	"os"
	"path/filepath"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
)

// Storage is the external storage adapter interface from /
// §6: store, retrieve, exists, delete, keyed by artifact id. Adapters
// compose — EncryptedStorage wraps any Storage.
type Storage interface {
	Store(ctx context.Context, id string, data []byte) error
	Retrieve(ctx context.Context, id string) ([]byte, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	// Kind names the storage backend for BackupRecord.StorageKind.
	Kind() string
}

// LocalStorage stores artifacts as flat files in Dir
// "flat directory; filename = backup id, opaque content."
type LocalStorage struct {
	Dir string
}

func NewLocalStorage(dir string) *LocalStorage { return &LocalStorage{Dir: dir} }

func (l *LocalStorage) path(id string) string { return filepath.Join(l.Dir, id) }

func (l *LocalStorage) Store(ctx context.Context, id string, data []byte) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return &dberrors.StorageError{Op: "mkdir", Err: err}
	}
	if err := os.WriteFile(l.path(id), data, 0o644); err != nil {
		return &dberrors.StorageError{Op: "store", Err: err}
	}
	return nil
}

func (l *LocalStorage) Retrieve(ctx context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(l.path(id))
	if err != nil {
		return nil, &dberrors.StorageError{Op: "retrieve", Err: err}
	}
	return data, nil
}

func (l *LocalStorage) Exists(ctx context.Context, id string) (bool, error) {
	_, err := os.Stat(l.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &dberrors.StorageError{Op: "exists", Err: err}
}

func (l *LocalStorage) Delete(ctx context.Context, id string) error {
	if err := os.Remove(l.path(id)); err != nil && !os.IsNotExist(err) {
		return &dberrors.StorageError{Op: "delete", Err: err}
	}
	return nil
}

func (l *LocalStorage) Kind() string { return "local" }
