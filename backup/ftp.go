package backup

import (
	"bytes"
	"context"
	"io"

	"github.com/jlaffaye/ftp"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
)

// FTPStorage stores backup artifacts on a remote FTP server under Dir, per
// remote storage adapter option. Grounded on jlaffaye/ftp,
// the FTP client already present in the retrieved pack.
type FTPStorage struct {
	Addr     string
	Username string
	Password string
	Dir      string
}

func NewFTPStorage(addr, username, password, dir string) *FTPStorage {
	return &FTPStorage{Addr: addr, Username: username, Password: password, Dir: dir}
}

func (f *FTPStorage) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(f.Addr, ftp.DialWithContext(ctx))
	if err != nil {
		return nil, &dberrors.StorageError{Op: "ftp dial", Err: err}
	}
	if err := conn.Login(f.Username, f.Password); err != nil {
		conn.Quit()
		return nil, &dberrors.StorageError{Op: "ftp login", Err: err}
	}
	return conn, nil
}

func (f *FTPStorage) path(id string) string {
	if f.Dir == "" {
		return id
	}
	return f.Dir + "/" + id
}

func (f *FTPStorage) Store(ctx context.Context, id string, data []byte) error {
	conn, err := f.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()
	if err := conn.Stor(f.path(id), bytes.NewReader(data)); err != nil {
		return &dberrors.StorageError{Op: "ftp store", Err: err}
	}
	return nil
}

func (f *FTPStorage) Retrieve(ctx context.Context, id string) ([]byte, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit()
	r, err := conn.Retr(f.path(id))
	if err != nil {
		return nil, &dberrors.StorageError{Op: "ftp retrieve", Err: err}
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &dberrors.StorageError{Op: "ftp retrieve", Err: err}
	}
	return data, nil
}

func (f *FTPStorage) Exists(ctx context.Context, id string) (bool, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Quit()
	size, err := conn.FileSize(f.path(id))
	if err != nil {
		return false, nil
	}
	return size >= 0, nil
}

func (f *FTPStorage) Delete(ctx context.Context, id string) error {
	conn, err := f.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()
	if err := conn.Delete(f.path(id)); err != nil {
		return &dberrors.StorageError{Op: "ftp delete", Err: err}
	}
	return nil
}

func (f *FTPStorage) Kind() string { return "ftp" }
