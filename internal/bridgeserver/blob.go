package bridgeserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrBlobNotFound is returned by BlobStore.Get for unknown keys.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore holds the encrypted content of stored files, keyed by file id.
type BlobStore interface {
	// Put stores size bytes read from r under key. r is seekable so
	// implementations may re-read it.
	Put(ctx context.Context, key string, r io.ReadSeeker, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// FSBlobStore keeps blobs as files below a root directory.
type FSBlobStore struct {
	root string
}

var _ BlobStore = (*FSBlobStore)(nil)

// NewFSBlobStore creates root with 0700 if needed.
func NewFSBlobStore(root string) (*FSBlobStore, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("bridgeserver: create blob directory: %w", err)
	}
	return &FSBlobStore{root: root}, nil
}

// path shards blobs by the first two characters of the key. Keys are
// server generated hex ids, never user input.
func (s *FSBlobStore) path(key string) string {
	if len(key) < 2 {
		return filepath.Join(s.root, "_", key)
	}
	return filepath.Join(s.root, key[:2], key)
}

func (s *FSBlobStore) Put(ctx context.Context, key string, r io.ReadSeeker, size int64) error {
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".blob-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if n != size {
		return fmt.Errorf("write blob %s: wrote %d of %d bytes", key, n, size)
	}
	return os.Rename(tmp.Name(), dst)
}

func (s *FSBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	return f, err
}

func (s *FSBlobStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// OpenBlobStore picks a store by kind: "fs" (the default) under dir, or "s3".
func OpenBlobStore(ctx context.Context, kind, dir string, s3opts S3Options) (BlobStore, error) {
	switch kind {
	case "", "fs":
		return NewFSBlobStore(dir)
	case "s3":
		return NewS3BlobStore(ctx, s3opts)
	default:
		return nil, fmt.Errorf("bridgeserver: unknown blob store %q (want fs or s3)", kind)
	}
}
