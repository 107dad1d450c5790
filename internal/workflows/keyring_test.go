package workflows

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/storjcli/internal/audit"
	"github.com/PolarWolf314/storjcli/internal/configs"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringInitCreatesThenValidates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	res, err := KeyringInit(ctx, KeyringInitOptions{KeyRingAccess: fx.access})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.ConfigCreated)
	assert.Equal(t, filepath.Join(fx.access.DataDir, "keyring.db"), res.Path)
	assert.FileExists(t, filepath.Join(fx.access.DataDir, configs.ConfigFileName))

	res, err = KeyringInit(ctx, KeyringInitOptions{KeyRingAccess: fx.access})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.ConfigCreated)
	assert.Zero(t, res.Secrets)

	entries, err := audit.ReadEntries(fx.access.DataDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OpKeyringInit, entries[0].Operation)
}

func TestKeyringInitWrongPassword(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := KeyringInit(ctx, KeyringInitOptions{KeyRingAccess: fx.access})
	require.NoError(t, err)

	wrong := fx.access
	wrong.Password = "nope"
	_, err = KeyringInit(ctx, KeyringInitOptions{KeyRingAccess: wrong})
	assert.ErrorIs(t, err, kerrors.ErrWrongPassword)
	assert.ErrorIs(t, err, kerrors.ErrKeyRing)
}

func TestKeyringInitEmptyPassword(t *testing.T) {
	fx := newFixture(t)
	access := fx.access
	access.Password = ""

	_, err := KeyringInit(context.Background(), KeyringInitOptions{KeyRingAccess: access})
	assert.ErrorIs(t, err, kerrors.ErrEmptyPassword)
	_, statErr := os.Stat(filepath.Join(access.DataDir, "keyring.db"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestKeyringListAfterUploads(t *testing.T) {
	fx := newFixture(t)
	a := fx.uploaded(t, "docs", "a.txt", "a")
	b := fx.uploaded(t, "docs", "b.txt", "b")

	ids, err := KeyringList(context.Background(), KeyringListOptions{KeyRingAccess: fx.access})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, ids)
}
