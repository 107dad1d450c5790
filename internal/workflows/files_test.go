package workflows

import (
	"context"
	"testing"

	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFiles(t *testing.T) {
	fx := newFixture(t)
	fx.uploaded(t, "docs", "a.txt", "a")
	fx.uploaded(t, "docs", "b.txt", "bb")

	res, err := ListFiles(context.Background(), fx.client, "docs")
	require.NoError(t, err)
	assert.Equal(t, fx.bridge.buckets[0].ID, res.BucketID)
	require.Len(t, res.Files, 2)
	assert.Equal(t, "a.txt", res.Files[0].Filename)
}

func TestListFilesUnknownBucket(t *testing.T) {
	fx := newFixture(t)
	fx.bucket(t, "docs")

	_, err := ListFiles(context.Background(), fx.client, "nope")
	assert.ErrorIs(t, err, kerrors.ErrBucketNotFound)
}

func TestRemoveFile(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := fx.uploaded(t, "docs", "a.txt", "a")

	res, err := RemoveFile(ctx, fx.client, RemoveFileOptions{Bucket: "docs", File: "a.txt", KeyRingAccess: fx.access})
	require.NoError(t, err)
	assert.Equal(t, id, res.FileID)
	assert.True(t, res.SecretRemoved)

	ids, err := KeyringList(ctx, KeyringListOptions{KeyRingAccess: fx.access})
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = RemoveFile(ctx, fx.client, RemoveFileOptions{Bucket: "docs", File: "a.txt", KeyRingAccess: fx.access})
	assert.ErrorIs(t, err, kerrors.ErrNoFilesInBucket)
}

func TestRemoveFileKeepSecret(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id := fx.uploaded(t, "docs", "a.txt", "a")

	res, err := RemoveFile(ctx, fx.client, RemoveFileOptions{Bucket: "docs", File: id, KeepSecret: true, KeyRingAccess: fx.access})
	require.NoError(t, err)
	assert.False(t, res.SecretRemoved)

	ids, err := KeyringList(ctx, KeyringListOptions{KeyRingAccess: fx.access})
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestRemoveFileWrongPasswordKeepsRemote(t *testing.T) {
	fx := newFixture(t)
	fx.uploaded(t, "docs", "a.txt", "a")

	wrong := fx.access
	wrong.Password = "nope"
	_, err := RemoveFile(context.Background(), fx.client, RemoveFileOptions{Bucket: "docs", File: "a.txt", KeyRingAccess: wrong})
	assert.ErrorIs(t, err, kerrors.ErrWrongPassword)
	assert.Zero(t, fx.bridge.count("DeleteFile"))
}
