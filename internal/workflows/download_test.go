package workflows

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/PolarWolf314/storjcli/internal/keyring"
	"github.com/PolarWolf314/storjcli/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploaded stores content as name in bucket and returns the file id.
func (fx *fixture) uploaded(t *testing.T, bucket, name, content string) string {
	t.Helper()
	src := fx.writeFile(t, filepath.Join("src", name), content)
	res, err := Upload(context.Background(), fx.client, UploadOptions{Bucket: bucket, Path: src, CreateBucket: true, KeyRingAccess: fx.access})
	require.NoError(t, err)
	return res.File.ID
}

func TestOpenStreamMissingSecret(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := fx.uploaded(t, "docs", "a.txt", "secret text")

	// Drop the secret behind the workflow's back.
	require.NoError(t, keyring.With(fx.access.DataDir, fx.access.Password, nil, func(kr *keyring.KeyRing) error {
		return kr.Delete(id)
	}))

	_, err := OpenStream(ctx, fx.client, StreamOptions{Bucket: "docs", Filename: "a.txt", KeyRingAccess: fx.access})
	assert.ErrorIs(t, err, kerrors.ErrSecretNotFound)
	assert.NotErrorIs(t, err, kerrors.ErrTransport)
	assert.Zero(t, fx.bridge.count("CreateFileStream"))
}

func TestOpenStreamResolutionErrors(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.uploaded(t, "docs", "a.txt", "x")

	_, err := OpenStream(ctx, fx.client, StreamOptions{Bucket: "nope", Filename: "a.txt", KeyRingAccess: fx.access})
	assert.ErrorIs(t, err, kerrors.ErrBucketNotFound)

	_, err = OpenStream(ctx, fx.client, StreamOptions{Bucket: "docs", Filename: "b.txt", KeyRingAccess: fx.access})
	assert.ErrorIs(t, err, kerrors.ErrFileNotFound)
}

func TestOpenStreamByIDs(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fileID := fx.uploaded(t, "docs", "a.txt", "by id")
	bucketID := fx.bridge.buckets[0].ID
	listsBefore := fx.bridge.count("ListBuckets") + fx.bridge.count("ListFilesInBucket")

	stream, err := OpenStream(ctx, fx.client, StreamOptions{Bucket: bucketID, Filename: fileID, KeyRingAccess: fx.access})
	require.NoError(t, err)
	stream.Close()

	assert.Equal(t, listsBefore, fx.bridge.count("ListBuckets")+fx.bridge.count("ListFilesInBucket"))
}

func TestCat(t *testing.T) {
	fx := newFixture(t)
	fx.uploaded(t, "docs", "a.txt", "hello from the bridge")

	var out bytes.Buffer
	n, err := Cat(context.Background(), fx.client, StreamOptions{Bucket: "docs", Filename: "a.txt", KeyRingAccess: fx.access}, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(out.Len()), n)
	assert.Equal(t, "hello from the bridge", out.String())
}

func TestDownloadDefaultsToRemoteName(t *testing.T) {
	fx := newFixture(t)
	fileID := fx.uploaded(t, "docs", "notes.md", "# notes")
	outDir := filepath.Join(fx.dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0755))

	// A file id reference still lands under the remote filename.
	res, err := Download(context.Background(), fx.client, DownloadOptions{
		StreamOptions: StreamOptions{Bucket: "docs", Filename: fileID, KeyRingAccess: fx.access},
		Output:        outDir,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "notes.md"), res.Path)
	assert.Equal(t, int64(7), res.Size)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "# notes", string(data))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no partial files left behind")
}

func TestDownloadRefusesToOverwrite(t *testing.T) {
	fx := newFixture(t)
	fx.uploaded(t, "docs", "a.txt", "new")
	dest := fx.writeFile(t, "a.txt", "old")

	opts := DownloadOptions{
		StreamOptions: StreamOptions{Bucket: "docs", Filename: "a.txt", KeyRingAccess: fx.access},
		Output:        dest,
	}
	_, err := Download(context.Background(), fx.client, opts)
	assert.ErrorIs(t, err, kerrors.ErrOutputExists)

	data, _ := os.ReadFile(dest)
	assert.Equal(t, "old", string(data))

	opts.Overwrite = true
	_, err = Download(context.Background(), fx.client, opts)
	require.NoError(t, err)
	data, _ = os.ReadFile(dest)
	assert.Equal(t, "new", string(data))
}

func TestRemoteNameIsSanitised(t *testing.T) {
	fx := newFixture(t)
	name, err := remoteName(context.Background(), fx.client, "b", "f", "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "passwd", name)
}

func TestDecryptWithWrongSecretIsGarbage(t *testing.T) {
	fx := newFixture(t)
	fileID := fx.uploaded(t, "docs", "a.txt", "plaintext")

	other, err := secrets.NewSecret()
	require.NoError(t, err)
	require.NoError(t, keyring.With(fx.access.DataDir, fx.access.Password, nil, func(kr *keyring.KeyRing) error {
		return kr.Set(fileID, other)
	}))

	var out bytes.Buffer
	_, err = Cat(context.Background(), fx.client, StreamOptions{Bucket: "docs", Filename: "a.txt", KeyRingAccess: fx.access}, &out)
	require.NoError(t, err)
	assert.NotEqual(t, "plaintext", out.String())
}
