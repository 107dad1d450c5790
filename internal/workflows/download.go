package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/storjcli/internal/audit"
	"github.com/PolarWolf314/storjcli/internal/bridge"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/PolarWolf314/storjcli/internal/keyring"
	"github.com/PolarWolf314/storjcli/internal/resolver"
	"github.com/PolarWolf314/storjcli/internal/secrets"
)

// StreamOptions identifies a remote file to decrypt.
type StreamOptions struct {
	// Bucket is a bucket name or id.
	Bucket string

	// Filename is a filename or file id within Bucket.
	Filename string

	KeyRingAccess
}

type openedStream struct {
	io.ReadCloser
	bucketID string
	fileID   string
}

func openStream(ctx context.Context, client bridge.Client, opts StreamOptions) (*openedStream, error) {
	bucketID, err := resolver.BucketID(ctx, client, opts.Bucket)
	if err != nil {
		return nil, err
	}

	fileID, err := resolver.FileID(ctx, client, bucketID, opts.Filename)
	if err != nil {
		return nil, err
	}

	var secret secrets.Secret
	err = opts.with(func(kr *keyring.KeyRing) error {
		var err error
		secret, err = kr.Get(fileID)
		return err
	})
	if err != nil {
		return nil, err
	}

	remote, err := client.CreateFileStream(ctx, bucketID, fileID)
	if err != nil {
		return nil, err
	}

	plain, err := secrets.DecryptReadCloser(secret, remote)
	if err != nil {
		remote.Close()
		return nil, err
	}
	return &openedStream{ReadCloser: plain, bucketID: bucketID, fileID: fileID}, nil
}

// OpenStream resolves a bucket and file, fetches the file's secret from the
// keyring and returns the decrypted remote content. Nothing is transferred
// until the caller reads; the caller must Close the stream.
//
// Returns ErrSecretNotFound if the keyring has no secret for the file. The
// bridge is not asked for the content in that case.
func OpenStream(ctx context.Context, client bridge.Client, opts StreamOptions) (io.ReadCloser, error) {
	s, err := openStream(ctx, client, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Cat copies the decrypted content of a remote file to w.
func Cat(ctx context.Context, client bridge.Client, opts StreamOptions, w io.Writer) (int64, error) {
	s, err := openStream(ctx, client, opts)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	n, err := io.Copy(w, s)
	if err != nil {
		return n, fmt.Errorf("streaming %s: %w", opts.Filename, err)
	}

	entry := audit.New(audit.OpStream)
	entry.Bucket, entry.BucketID = opts.Bucket, s.bucketID
	entry.File, entry.FileID, entry.Size = opts.Filename, s.fileID, n
	audit.Log(opts.DataDir, entry)

	return n, nil
}

// DownloadOptions configures the download workflow.
type DownloadOptions struct {
	StreamOptions

	// Output is the local destination. Defaults to the remote filename in the
	// working directory. An existing directory receives the remote filename.
	Output string

	// Overwrite replaces an existing Output.
	Overwrite bool
}

// DownloadResult contains the outcome of a download.
type DownloadResult struct {
	Path     string
	Size     int64
	BucketID string
	FileID   string
}

// Download decrypts a remote file to a local path. Content is written to a
// temp file next to the destination and renamed into place on success.
//
// Returns ErrOutputExists if the destination exists and Overwrite is false.
func Download(ctx context.Context, client bridge.Client, opts DownloadOptions) (*DownloadResult, error) {
	s, err := openStream(ctx, client, opts.StreamOptions)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	dest, err := downloadPath(ctx, client, s.bucketID, s.fileID, opts)
	if err != nil {
		return nil, err
	}

	n, err := writeAtomically(dest, s)
	if err != nil {
		return nil, err
	}

	entry := audit.New(audit.OpDownload)
	entry.Bucket, entry.BucketID = opts.Bucket, s.bucketID
	entry.File, entry.FileID, entry.Size = opts.Filename, s.fileID, n
	entry.Output = dest
	audit.Log(opts.DataDir, entry)

	return &DownloadResult{Path: dest, Size: n, BucketID: s.bucketID, FileID: s.fileID}, nil
}

func downloadPath(ctx context.Context, client bridge.Client, bucketID, fileID string, opts DownloadOptions) (string, error) {
	dest := opts.Output
	if dest == "" || isDir(dest) {
		name, err := remoteName(ctx, client, bucketID, fileID, opts.Filename)
		if err != nil {
			return "", err
		}
		dest = filepath.Join(dest, name)
	}

	if _, err := os.Stat(dest); err == nil && !opts.Overwrite {
		return "", fmt.Errorf("%w: %s", kerrors.ErrOutputExists, dest)
	}
	return dest, nil
}

// remoteName picks a safe local filename for a remote file.
func remoteName(ctx context.Context, client bridge.Client, bucketID, fileID, ref string) (string, error) {
	name := ref
	if resolver.IsID(ref) {
		files, err := client.ListFilesInBucket(ctx, bucketID)
		if err != nil {
			return "", err
		}
		for _, f := range files {
			if f.ID == fileID {
				name = f.Filename
				break
			}
		}
	}

	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		name = fileID
	}
	return name, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// writeAtomically copies r to a temp file beside dest and renames it into place.
func writeAtomically(dest string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("creating temp file for %s: %w", dest, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		var pathErr *os.PathError
		if errors.As(copyErr, &pathErr) {
			return n, fmt.Errorf("writing %s: %w", dest, copyErr)
		}
		return n, kerrors.Transport("read file stream", copyErr)
	case closeErr != nil:
		return n, fmt.Errorf("writing %s: %w", dest, closeErr)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return n, fmt.Errorf("moving download into place: %w", err)
	}
	return n, nil
}
