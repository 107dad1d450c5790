// Package keyring stores per-file secrets in a password-protected local database.
//
// The keyring lives at <DATA_DIR>/keyring.db (bbolt). On first open a random
// salt and a password verifier are written; the password is stretched with
// argon2id and each secret is sealed with NaCl secretbox under the derived
// key. A wrong password is reported as errors.ErrWrongPassword wrapped in a
// *errors.KeyRingError.
//
// # Locking
//
// bbolt holds an exclusive file lock while the database is open, so only one
// storjcli process can use the keyring at a time. Open waits up to
// Options.LockTimeout before failing with errors.ErrKeyRingLocked. Use With
// to keep the lock for as short as possible.
package keyring
