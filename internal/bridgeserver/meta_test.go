package bridgeserver

import (
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMeta(t *testing.T) *MetaStore {
	t.Helper()
	m, err := OpenMetaStore(filepath.Join(t.TempDir(), "bridge", "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNewIDFormat(t *testing.T) {
	m := openMeta(t)
	a, b := m.NewFileID(), m.NewFileID()
	assert.Regexp(t, `^[0-9a-f]{24}$`, a)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "ids allocated in one second sort in order")
}

func TestBucketsAreScopedToOwner(t *testing.T) {
	m := openMeta(t)

	a, err := m.CreateBucket("alice", bridge.BucketInfo{Name: "photos", Storage: 30, Transfer: 10})
	require.NoError(t, err)
	_, err = m.CreateBucket("bob", bridge.BucketInfo{Name: "photos"})
	require.NoError(t, err)

	buckets, err := m.ListBuckets("alice")
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, a.ID, buckets[0].ID)
	assert.Equal(t, 30, buckets[0].Storage)

	_, err = m.GetBucket("bob", a.ID)
	assert.ErrorIs(t, err, ErrBucketNotFound)
}

func TestListBucketsEmptyIsNotNil(t *testing.T) {
	buckets, err := openMeta(t).ListBuckets("nobody")
	require.NoError(t, err)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}

func TestDuplicateNamesListInCreationOrder(t *testing.T) {
	m := openMeta(t)
	first, err := m.CreateBucket("u", bridge.BucketInfo{Name: "dup"})
	require.NoError(t, err)
	second, err := m.CreateBucket("u", bridge.BucketInfo{Name: "dup"})
	require.NoError(t, err)

	buckets, err := m.ListBuckets("u")
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, first.ID, buckets[0].ID)
	assert.Equal(t, second.ID, buckets[1].ID)
}

func TestFilesLifecycle(t *testing.T) {
	m := openMeta(t)
	b, err := m.CreateBucket("u", bridge.BucketInfo{Name: "docs"})
	require.NoError(t, err)

	f, err := m.PutFile("u", bridge.File{ID: m.NewFileID(), Bucket: b.ID, Filename: "a.txt", Size: 3})
	require.NoError(t, err)
	assert.False(t, f.Created.IsZero())

	got, err := m.GetFile("u", b.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Filename)

	files, err := m.ListFiles("u", b.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, m.DeleteFile("u", b.ID, f.ID))
	assert.ErrorIs(t, m.DeleteFile("u", b.ID, f.ID), ErrFileNotFound)
	_, err = m.GetFile("u", b.ID, f.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestPutFileUnknownBucket(t *testing.T) {
	m := openMeta(t)
	_, err := m.PutFile("u", bridge.File{ID: m.NewFileID(), Bucket: "missing"})
	assert.ErrorIs(t, err, ErrBucketNotFound)
}

func TestDeleteBucketReturnsFileIDs(t *testing.T) {
	m := openMeta(t)
	b, err := m.CreateBucket("u", bridge.BucketInfo{Name: "docs"})
	require.NoError(t, err)
	f1, _ := m.PutFile("u", bridge.File{ID: m.NewFileID(), Bucket: b.ID, Filename: "1"})
	f2, _ := m.PutFile("u", bridge.File{ID: m.NewFileID(), Bucket: b.ID, Filename: "2"})

	ids, err := m.DeleteBucket("u", b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f1.ID, f2.ID}, ids)

	_, err = m.ListFiles("u", b.ID)
	assert.ErrorIs(t, err, ErrBucketNotFound)
	_, err = m.DeleteBucket("u", b.ID)
	assert.ErrorIs(t, err, ErrBucketNotFound)
}
