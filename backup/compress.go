package backup

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
)

// Compressor is a symmetric compress/decompress pair applied to a backup
// artifact before storage.C10.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// GzipCompressor uses the standard library's compress/gzip — sqldef
// itself has no compression concern, so this follows the ecosystem's
// overwhelming default for a format everyone already has tooling for.
type GzipCompressor struct{}

func (GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, &dberrors.StorageError{Op: "gzip", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &dberrors.StorageError{Op: "gzip", Err: err}
	}
	return buf.Bytes(), nil
}

func (GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &dberrors.StorageError{Op: "gunzip", Err: err}
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &dberrors.StorageError{Op: "gunzip", Err: err}
	}
	return out, nil
}

// Bzip2Compressor uses dsnet/compress/bzip2, which — unlike the standard
// library's read-only compress/bzip2 — implements a writer. Not present
// in any example repo's go.mod, so this is named rather than grounded,
// per the out-of-pack-dependency allowance: no pack library offers a
// bzip2 writer.
type Bzip2Compressor struct{}

func (Bzip2Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, nil)
	if err != nil {
		return nil, &dberrors.StorageError{Op: "bzip2", Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return nil, &dberrors.StorageError{Op: "bzip2", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &dberrors.StorageError{Op: "bzip2", Err: err}
	}
	return buf.Bytes(), nil
}

func (Bzip2Compressor) Decompress(data []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, &dberrors.StorageError{Op: "bunzip2", Err: err}
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &dberrors.StorageError{Op: "bunzip2", Err: err}
	}
	return out, nil
}
