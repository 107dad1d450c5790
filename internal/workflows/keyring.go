package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/storjcli/internal/audit"
	"github.com/PolarWolf314/storjcli/internal/configs"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/PolarWolf314/storjcli/internal/keyring"
)

// KeyRingAccess locates and unlocks the local keyring.
type KeyRingAccess struct {
	// DataDir holds keyring.db.
	DataDir string

	// Password unlocks the keyring.
	Password string

	// LockTimeout bounds the wait for another storjcli process.
	// Zero uses keyring.DefaultLockTimeout.
	LockTimeout time.Duration
}

func (a KeyRingAccess) open() (*keyring.KeyRing, error) {
	return keyring.Open(a.DataDir, a.Password, &keyring.Options{LockTimeout: a.LockTimeout})
}

func (a KeyRingAccess) with(fn func(*keyring.KeyRing) error) error {
	return keyring.With(a.DataDir, a.Password, &keyring.Options{LockTimeout: a.LockTimeout}, fn)
}

// KeyringInitOptions configures the keyring init workflow.
type KeyringInitOptions struct {
	KeyRingAccess
}

// KeyringInitResult contains the outcome of keyring init.
type KeyringInitResult struct {
	// Path is the keyring database file.
	Path string

	// Created is true when the keyring did not exist before.
	Created bool

	// ConfigCreated is true when a default config.toml was written.
	ConfigCreated bool

	// Secrets is the number of secrets already stored.
	Secrets int
}

// KeyringInit creates the keyring on first use, or checks the password
// against an existing one. It also writes a default config.toml if missing.
//
// Returns ErrWrongPassword (wrapped in a KeyRingError) if the password does
// not unlock an existing keyring.
func KeyringInit(ctx context.Context, opts KeyringInitOptions) (*KeyringInitResult, error) {
	path := filepath.Join(opts.DataDir, keyring.FileName)
	_, statErr := os.Stat(path)

	result := &KeyringInitResult{
		Path:    path,
		Created: errors.Is(statErr, os.ErrNotExist),
	}

	err := opts.with(func(kr *keyring.KeyRing) error {
		ids, err := kr.IDs()
		if err != nil {
			return err
		}
		result.Secrets = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := configs.EnsureFileConfig(opts.DataDir)
	if err != nil {
		return nil, err
	}
	result.ConfigCreated = created

	if result.Created {
		audit.Log(opts.DataDir, audit.New(audit.OpKeyringInit))
	}
	return result, nil
}

// KeyringListOptions configures the keyring list workflow.
type KeyringListOptions struct {
	KeyRingAccess
}

// KeyringList returns the ids of every file with a stored secret.
func KeyringList(ctx context.Context, opts KeyringListOptions) ([]string, error) {
	var ids []string
	err := opts.with(func(kr *keyring.KeyRing) error {
		var err error
		ids, err = kr.IDs()
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// forgetSecrets removes the secrets for ids, ignoring ids with none stored.
func forgetSecrets(kr *keyring.KeyRing, ids ...string) (int, error) {
	removed := 0
	for _, id := range ids {
		err := kr.Delete(id)
		if errors.Is(err, kerrors.ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
