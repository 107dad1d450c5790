package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/PolarWolf314/storjcli/internal/secrets"
	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// FileName is the keyring database inside the data directory.
const FileName = "keyring.db"

// DefaultLockTimeout is how long Open waits for another process to release the keyring.
const DefaultLockTimeout = 5 * time.Second

var (
	bucketMeta    = []byte("meta")
	bucketSecrets = []byte("secrets")

	keySalt     = []byte("salt")
	keyVerifier = []byte("verifier")
)

const (
	saltSize  = 16
	nonceSize = 24
)

// Options tunes Open. The zero value is usable.
type Options struct {
	LockTimeout time.Duration
}

// KeyRing is an open, unlocked keyring.
type KeyRing struct {
	db   *bbolt.DB
	key  [32]byte
	path string
}

// EnsureDataDir creates dir with 0700 if it does not exist yet.
func EnsureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}

// deriveKey stretches the password with argon2id.
func deriveKey(password string, salt []byte) [32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32))
	return key
}

func makeVerifier(key [32]byte) []byte {
	sum := sha256.Sum256(key[:])
	return sum[:]
}

// Open unlocks the keyring in dir, creating it on first use.
// Every failure is returned as a *errors.KeyRingError.
func Open(dir, password string, opts *Options) (*KeyRing, error) {
	if password == "" {
		return nil, kerrors.KeyRing(kerrors.ErrEmptyPassword)
	}
	if err := EnsureDataDir(dir); err != nil {
		return nil, kerrors.KeyRing(err)
	}

	timeout := DefaultLockTimeout
	if opts != nil && opts.LockTimeout > 0 {
		timeout = opts.LockTimeout
	}

	path := filepath.Join(dir, FileName)
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: timeout})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, kerrors.KeyRing(kerrors.ErrKeyRingLocked)
	}
	if err != nil {
		return nil, kerrors.KeyRing(fmt.Errorf("open %s: %w", path, err))
	}

	kr := &KeyRing{db: db, path: path}
	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("create bucket %q: %w", bucketMeta, err)
		}
		if _, err := tx.CreateBucketIfNotExists(bucketSecrets); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucketSecrets, err)
		}

		salt := meta.Get(keySalt)
		if salt == nil {
			salt = make([]byte, saltSize)
			if _, err := io.ReadFull(rand.Reader, salt); err != nil {
				return fmt.Errorf("generate salt: %w", err)
			}
			kr.key = deriveKey(password, salt)
			if err := meta.Put(keySalt, salt); err != nil {
				return err
			}
			return meta.Put(keyVerifier, makeVerifier(kr.key))
		}

		kr.key = deriveKey(password, salt)
		if subtle.ConstantTimeCompare(meta.Get(keyVerifier), makeVerifier(kr.key)) != 1 {
			return kerrors.ErrWrongPassword
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, kerrors.KeyRing(err)
	}

	return kr, nil
}

// With opens the keyring, runs fn and closes it again, releasing the file lock.
func With(dir, password string, opts *Options, fn func(*KeyRing) error) error {
	kr, err := Open(dir, password, opts)
	if err != nil {
		return err
	}
	fnErr := fn(kr)
	closeErr := kr.Close()
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}

// Path returns the database file location.
func (k *KeyRing) Path() string { return k.path }

// Close releases the keyring lock.
func (k *KeyRing) Close() error {
	if err := k.db.Close(); err != nil {
		return kerrors.KeyRing(err)
	}
	return nil
}

// Get returns the secret stored for fileID, or errors.ErrSecretNotFound.
func (k *KeyRing) Get(fileID string) (secrets.Secret, error) {
	var s secrets.Secret
	err := k.db.View(func(tx *bbolt.Tx) error {
		sealed := tx.Bucket(bucketSecrets).Get([]byte(fileID))
		if sealed == nil {
			return fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, fileID)
		}
		if len(sealed) < nonceSize+secretbox.Overhead {
			return kerrors.KeyRing(fmt.Errorf("corrupt secret for %s", fileID))
		}

		var nonce [nonceSize]byte
		copy(nonce[:], sealed[:nonceSize])
		plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &k.key)
		if !ok {
			return kerrors.KeyRing(fmt.Errorf("failed to unseal secret for %s", fileID))
		}
		if err := s.UnmarshalBinary(plain); err != nil {
			return kerrors.KeyRing(err)
		}
		return nil
	})
	if err != nil {
		return secrets.Secret{}, err
	}
	return s, nil
}

// Set seals and stores the secret for fileID, replacing any previous one.
func (k *KeyRing) Set(fileID string, s secrets.Secret) error {
	plain, err := s.MarshalBinary()
	if err != nil {
		return kerrors.KeyRing(err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return kerrors.KeyRing(fmt.Errorf("generate nonce: %w", err))
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &k.key)

	err = k.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSecrets).Put([]byte(fileID), sealed)
	})
	if err != nil {
		return kerrors.KeyRing(fmt.Errorf("store secret for %s: %w", fileID, err))
	}
	return nil
}

// Delete removes the secret for fileID.
func (k *KeyRing) Delete(fileID string) error {
	return k.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSecrets)
		if b.Get([]byte(fileID)) == nil {
			return fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, fileID)
		}
		if err := b.Delete([]byte(fileID)); err != nil {
			return kerrors.KeyRing(err)
		}
		return nil
	})
}

// IDs lists every file id with a stored secret, in byte order.
func (k *KeyRing) IDs() ([]string, error) {
	var ids []string
	err := k.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSecrets).ForEach(func(key, _ []byte) error {
			ids = append(ids, string(key))
			return nil
		})
	})
	if err != nil {
		return nil, kerrors.KeyRing(err)
	}
	return ids, nil
}
