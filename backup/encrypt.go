package backup

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
)

// EncryptedStorage wraps another Storage, encrypting with AES-256-CBC and
// a fresh random IV per artifact, prepended to the ciphertext. Checksum is
// computed over the encrypted bytes as stored, so Verify never needs the
// key — callers hash what Retrieve returns, which is already ciphertext.
type EncryptedStorage struct {
	inner Storage
	key   [32]byte
}

func NewEncryptedStorage(inner Storage, key [32]byte) *EncryptedStorage {
	return &EncryptedStorage{inner: inner, key: key}
}

func (e *EncryptedStorage) Store(ctx context.Context, id string, data []byte) error {
	block, err := aes.NewCipher(e.key[:])
	if err != nil {
		return &dberrors.CryptoError{Op: "encrypt", Err: err}
	}

	padded := pkcs7Pad(data, block.BlockSize())
	iv := make([]byte, block.BlockSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return &dberrors.CryptoError{Op: "encrypt", Err: err}
	}

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	out := append(append([]byte{}, iv...), ciphertext...)
	return e.inner.Store(ctx, id, out)
}

func (e *EncryptedStorage) Retrieve(ctx context.Context, id string) ([]byte, error) {
	raw, err := e.inner.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(e.key[:])
	if err != nil {
		return nil, &dberrors.CryptoError{Op: "decrypt", Err: err}
	}
	blockSize := block.BlockSize()
	if len(raw) < blockSize || (len(raw)-blockSize)%blockSize != 0 {
		return nil, &dberrors.CryptoError{Op: "decrypt", Err: errShortCiphertext}
	}
	iv, ciphertext := raw[:blockSize], raw[blockSize:]

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	unpadded, err := pkcs7Unpad(plain, blockSize)
	if err != nil {
		return nil, &dberrors.CryptoError{Op: "decrypt", Err: err}
	}
	return unpadded, nil
}

func (e *EncryptedStorage) Exists(ctx context.Context, id string) (bool, error) {
	return e.inner.Exists(ctx, id)
}

func (e *EncryptedStorage) Delete(ctx context.Context, id string) error {
	return e.inner.Delete(ctx, id)
}

func (e *EncryptedStorage) Kind() string { return e.inner.Kind() + "+aes256cbc" }

var errShortCiphertext = cryptoErrString("ciphertext shorter than one block or not block-aligned")
var errBadPadding = cryptoErrString("invalid PKCS#7 padding")

type cryptoErrString string

func (e cryptoErrString) Error() string { return string(e) }

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errBadPadding
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errBadPadding
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errBadPadding
		}
	}
	return data[:len(data)-padLen], nil
}
