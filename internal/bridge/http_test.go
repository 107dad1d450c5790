package bridge_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/PolarWolf314/storjcli/internal/bridgeserver"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "alice@example.com"
	testPass = "hunter2"
)

func startBridge(t *testing.T) string {
	t.Helper()
	meta, err := bridgeserver.OpenMetaStore(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })
	blobs, err := bridgeserver.NewFSBlobStore(t.TempDir())
	require.NoError(t, err)

	srv, err := bridgeserver.New(bridgeserver.Options{
		Users:  map[string]string{testUser: testPass},
		Secret: []byte("secret"),
		Meta:   meta,
		Blobs:  blobs,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func newClient(url, password string) *bridge.HTTPClient {
	return bridge.NewClient(bridge.Options{
		BaseURL:  url + "/",
		User:     testUser,
		Password: password,
		RetryMax: -1,
	})
}

func TestHashPassword(t *testing.T) {
	assert.Equal(t, "f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7", bridge.HashPassword("hunter2"))
}

func TestNewClientDefaults(t *testing.T) {
	c := bridge.NewClient(bridge.Options{})
	assert.Equal(t, bridge.DefaultBaseURL, c.BaseURL())

	c = bridge.NewClient(bridge.Options{BaseURL: "  http://localhost:8080/ "})
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newClient(startBridge(t), testPass)

	buckets, err := client.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)

	b, err := client.CreateBucket(ctx, bridge.BucketInfo{Name: "photos", Storage: 5, Transfer: 2})
	require.NoError(t, err)
	assert.Equal(t, "photos", b.Name)
	assert.Equal(t, 5, b.Storage)

	src := filepath.Join(t.TempDir(), "blob.crypt")
	require.NoError(t, os.WriteFile(src, []byte("opaque bytes"), 0600))

	tok, err := client.CreateToken(ctx, b.ID, bridge.OperationPush)
	require.NoError(t, err)
	assert.Equal(t, bridge.OperationPush, tok.Operation)

	f, err := client.StoreFileInBucket(ctx, b.ID, tok.Token, src, bridge.FileMeta{Filename: "cat & dog 100%.jpg", Mimetype: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "cat & dog 100%.jpg", f.Filename)
	assert.Equal(t, "image/jpeg", f.Mimetype)
	assert.Equal(t, int64(12), f.Size)

	files, err := client.ListFilesInBucket(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, f.ID, files[0].ID)

	rc, err := client.CreateFileStream(ctx, b.ID, f.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "opaque bytes", string(data))

	require.NoError(t, client.DeleteFile(ctx, b.ID, f.ID))
	require.NoError(t, client.DeleteBucket(ctx, b.ID))

	buckets, err = client.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestStatusMapping(t *testing.T) {
	ctx := context.Background()
	url := startBridge(t)
	client := newClient(url, testPass)

	_, err := newClient(url, "wrong").ListBuckets(ctx)
	assert.ErrorIs(t, err, kerrors.ErrUnauthorized)
	assert.NotErrorIs(t, err, kerrors.ErrTransport)

	_, err = client.ListFilesInBucket(ctx, "0123456789abcdef01234567")
	assert.ErrorIs(t, err, kerrors.ErrRemoteNotFound)

	b, err := client.CreateBucket(ctx, bridge.BucketInfo{Name: "docs"})
	require.NoError(t, err)
	src := filepath.Join(t.TempDir(), "x")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0600))

	_, err = client.StoreFileInBucket(ctx, b.ID, "forged", src, bridge.FileMeta{Filename: "x"})
	assert.ErrorIs(t, err, kerrors.ErrInvalidToken)
	assert.Contains(t, err.Error(), "invalid transfer token")

	_, err = client.CreateFileStream(ctx, b.ID, "0123456789abcdef01234567")
	assert.ErrorIs(t, err, kerrors.ErrRemoteNotFound)
}

func TestServerErrorsAreTransport(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"upstream down"}`)
	}))
	defer ts.Close()

	_, err := newClient(ts.URL, testPass).ListBuckets(context.Background())
	assert.ErrorIs(t, err, kerrors.ErrTransport)
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, int32(1), hits.Load())
}

func TestRetriesOnlyRepeatableCalls(t *testing.T) {
	var mu sync.Mutex
	hits := make(map[string]int)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		hits[r.Method]++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := bridge.NewClient(bridge.Options{
		BaseURL:   ts.URL,
		User:      testUser,
		Password:  testPass,
		RetryMax:  2,
		RetryWait: time.Millisecond,
	})
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0600))

	_, err := client.StoreFileInBucket(ctx, "0123456789abcdef01234567", "tok", src, bridge.FileMeta{Filename: "a.txt"})
	assert.ErrorIs(t, err, kerrors.ErrTransport)
	_, err = client.CreateBucket(ctx, bridge.BucketInfo{Name: "photos"})
	assert.ErrorIs(t, err, kerrors.ErrTransport)
	_, err = client.ListBuckets(ctx)
	assert.ErrorIs(t, err, kerrors.ErrTransport)
	err = client.DeleteBucket(ctx, "0123456789abcdef01234567")
	assert.ErrorIs(t, err, kerrors.ErrTransport)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits[http.MethodPut], "store must not be repeated")
	assert.Equal(t, 1, hits[http.MethodPost], "create must not be repeated")
	assert.Equal(t, 3, hits[http.MethodGet])
	assert.Equal(t, 3, hits[http.MethodDelete])
}

func TestRetriesCreateWhenConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	var attempts atomic.Int32
	client := bridge.NewClient(bridge.Options{
		BaseURL:    url,
		RetryMax:   1,
		RetryWait:  time.Millisecond,
		HTTPClient: &http.Client{Transport: countingTransport{n: &attempts, next: http.DefaultTransport}},
	})
	_, err := client.CreateBucket(context.Background(), bridge.BucketInfo{Name: "photos"})
	var te *kerrors.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "create bucket", te.Op)
	assert.Equal(t, int32(2), attempts.Load())
}

type countingTransport struct {
	n    *atomic.Int32
	next http.RoundTripper
}

func (c countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return c.next.RoundTrip(r)
}

func TestUnreachableBridgeIsTransport(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := newClient(url, testPass).ListBuckets(context.Background())
	var te *kerrors.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "list buckets", te.Op)
}

func TestBasicAuthSendsHash(t *testing.T) {
	var gotUser, gotPass string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		_, _ = io.WriteString(w, "[]")
	}))
	defer ts.Close()

	_, err := newClient(ts.URL, testPass).ListBuckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testUser, gotUser)
	assert.Equal(t, bridge.HashPassword(testPass), gotPass)
}

func TestStoreMissingLocalFile(t *testing.T) {
	_, err := newClient("http://127.0.0.1:1", testPass).StoreFileInBucket(context.Background(), "b", "t", filepath.Join(t.TempDir(), "none"), bridge.FileMeta{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
