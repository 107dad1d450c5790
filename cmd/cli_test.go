package cmd

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringInitAndList(t *testing.T) {
	_, dataDir := setupCLI(t)

	out, _, err := runCLI(t, "keyring", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created keyring")
	assert.FileExists(t, filepath.Join(dataDir, "keyring.db"))
	assert.FileExists(t, filepath.Join(dataDir, "config.toml"))

	out, _, err = runCLI(t, "keyring", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "unlocked, 0 secrets stored")

	out, _, err = runCLI(t, "keyring", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no secrets yet")
}

func TestKeyringWrongPassword(t *testing.T) {
	setupCLI(t)
	_, _, err := runCLI(t, "keyring", "init")
	require.NoError(t, err)

	t.Setenv("STORJ_KEYPASS", "not it")
	out, _, err := runCLI(t, "keyring", "list")
	assert.ErrorIs(t, err, kerrors.ErrWrongPassword)
	assert.True(t, isReported(err))
	assert.Contains(t, out, "Wrong keyring password")
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	workDir, _ := setupCLI(t)
	content := "meow meow\n"
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "cat.txt"), []byte(content), 0600))

	out, _, err := runCLI(t, "files", "upload", "photos", "cat.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Created bucket 'photos'")
	assert.Contains(t, out, "Uploaded")
	assert.Contains(t, out, "1 files uploaded")
	assert.NoFileExists(t, filepath.Join(workDir, "cat.txt.crypt"))

	out, _, err = runCLI(t, "buckets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "photos")
	assert.Contains(t, out, "30 GB")

	out, _, err = runCLI(t, "files", "list", "photos")
	require.NoError(t, err)
	assert.Contains(t, out, "cat.txt")
	assert.Contains(t, out, "text/plain")

	out, _, err = runCLI(t, "files", "cat", "photos", "cat.txt")
	require.NoError(t, err)
	assert.Equal(t, content, out)

	out, _, err = runCLI(t, "files", "download", "photos", "cat.txt", "-o", "copy.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Downloaded")
	got, err := os.ReadFile(filepath.Join(workDir, "copy.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	out, _, err = runCLI(t, "files", "download", "photos", "cat.txt", "-o", "copy.txt")
	assert.ErrorIs(t, err, kerrors.ErrOutputExists)
	assert.Contains(t, out, "--force")

	_, _, err = runCLI(t, "files", "download", "photos", "cat.txt", "-o", "copy.txt", "--force")
	require.NoError(t, err)

	out, _, err = runCLI(t, "keyring", "list")
	require.NoError(t, err)
	assert.Regexp(t, `[0-9a-f]{24}`, out)

	out, _, err = runCLI(t, "files", "remove", "photos", "cat.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "secret forgotten")

	out, _, err = runCLI(t, "log", "--op", "upload,download")
	require.NoError(t, err)
	assert.Contains(t, out, "upload")
	assert.Contains(t, out, "download")
	assert.NotContains(t, out, "remove-file")
}

func TestUploadNoCreate(t *testing.T) {
	workDir, _ := setupCLI(t)
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "a.txt"), []byte("a"), 0600))

	out, _, err := runCLI(t, "files", "upload", "missing", "a.txt", "--no-create")
	assert.ErrorIs(t, err, kerrors.ErrNoBuckets)
	assert.Contains(t, out, "no buckets")
}

func TestCatMissingSecretReportsOnStderr(t *testing.T) {
	setupCLI(t)

	_, _, err := runCLI(t, "buckets", "create", "docs")
	require.NoError(t, err)

	out, errOut, err := runCLI(t, "files", "cat", "docs", "nothing.txt")
	assert.ErrorIs(t, err, kerrors.ErrNoFilesInBucket)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "The bucket is empty")
}

func TestBucketCreateRejectsIDLikeName(t *testing.T) {
	setupCLI(t)
	out, _, err := runCLI(t, "buckets", "create", "0123456789abcdef01234567")
	assert.ErrorIs(t, err, kerrors.ErrInvalidBucketName)
	assert.Contains(t, out, "invalid bucket name")
}

func TestBucketRemove(t *testing.T) {
	setupCLI(t)
	_, _, err := runCLI(t, "buckets", "create", "tmp", "--storage", "5")
	require.NoError(t, err)

	out, _, err := runCLI(t, "buckets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "5 GB")

	out, _, err = runCLI(t, "buckets", "remove", "tmp")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed bucket 'tmp'")

	out, _, err = runCLI(t, "buckets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No buckets yet")
}

func TestWrongBridgeCredentials(t *testing.T) {
	setupCLI(t)
	t.Setenv("BRIDGE_PASS", "wrong")

	out, _, err := runCLI(t, "buckets", "list")
	assert.ErrorIs(t, err, kerrors.ErrUnauthorized)
	assert.Contains(t, out, "rejected your credentials")
}

func TestUnreachableBridge(t *testing.T) {
	setupCLI(t)
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	out, _, err := runCLI(t, "--bridge-url", url, "buckets", "list")
	assert.ErrorIs(t, err, kerrors.ErrTransport)
	assert.Contains(t, out, "Could not talk to the bridge at "+url)
}

func TestLogInvalidDate(t *testing.T) {
	setupCLI(t)
	_, _, err := runCLI(t, "keyring", "init")
	require.NoError(t, err)

	_, _, err = runCLI(t, "log", "--since", "yesterday")
	assert.ErrorIs(t, err, kerrors.ErrInvalidDateFormat)
}

func TestBridgeServeNeedsCredentials(t *testing.T) {
	setupCLI(t)
	t.Setenv("BRIDGE_USER", "")

	_, _, err := runCLI(t, "bridge", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set")
	assert.False(t, isReported(err))
}

func TestStoreFlag(t *testing.T) {
	var s storeKind
	require.NoError(t, s.Set("s3"))
	assert.Equal(t, "s3", s.String())
	assert.Error(t, s.Set("tape"))
}

func TestFormatErrorDistinguishesClasses(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		err  error
		want string
	}{
		{kerrors.ErrUnauthorized, "rejected your credentials"},
		{kerrors.Transport("list buckets", errors.New("refused")), "Could not talk to the bridge"},
		{kerrors.KeyRing(kerrors.ErrKeyRingLocked), "in use by another storjcli process"},
		{kerrors.KeyRing(kerrors.ErrEmptyPassword), "STORJ_KEYPASS"},
		{fmt.Errorf("x: %w", kerrors.ErrSecretNotFound), "not in the keyring"},
		{fmt.Errorf("%w: %q", kerrors.ErrBucketNotFound, "b"), "Bucket not found"},
		{fmt.Errorf("%w: %q", kerrors.ErrFileNotFound, "f"), "File not found"},
		{kerrors.ErrSecretNotSaved, "cannot be decrypted"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Contains(t, formatError(tt.err), tt.want)
		})
	}
}
