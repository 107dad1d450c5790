package errors

import (
	"errors"
	"fmt"
)

// Class errors group the concrete errors below so the CLI layer can tell
// "not found" apart from "transport failure" and "wrong credentials".
var (
	// ErrNotFound is matched by every name-resolution failure.
	ErrNotFound = errors.New("not found")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("bridge transport failure")

	// ErrKeyRing is matched by every *KeyRingError.
	ErrKeyRing = errors.New("keyring failure")
)

// Resolution errors indicate a bucket or file reference could not be mapped to an id.
var (
	// ErrNoBuckets indicates the account owns no buckets at all.
	ErrNoBuckets = errors.New("no buckets found for this account")

	// ErrBucketNotFound indicates no bucket carries the requested name.
	ErrBucketNotFound = &notFound{msg: "bucket not found"}

	// ErrNoFilesInBucket indicates the bucket is empty.
	ErrNoFilesInBucket = errors.New("no files in bucket")

	// ErrFileNotFound indicates no file in the bucket carries the requested name.
	ErrFileNotFound = &notFound{msg: "file not found"}
)

// Keyring errors indicate the local secret store could not serve a request.
var (
	// ErrWrongPassword indicates the keyring password does not match the stored verifier.
	ErrWrongPassword = errors.New("wrong keyring password")

	// ErrKeyRingLocked indicates another process holds the keyring.
	ErrKeyRingLocked = errors.New("keyring is locked by another process")

	// ErrSecretNotFound indicates the keyring has no secret for a file id.
	// The file was never uploaded through this tool or the keyring was regenerated.
	ErrSecretNotFound = errors.New("file secret not found in keyring")

	// ErrEmptyPassword indicates no keyring password was supplied.
	ErrEmptyPassword = errors.New("keyring password must not be empty")
)

// Bridge errors indicate the remote side rejected a request.
var (
	// ErrUnauthorized indicates the bridge rejected the supplied credentials.
	ErrUnauthorized = errors.New("bridge rejected credentials")

	// ErrRemoteNotFound indicates the bridge answered 404 for a resource.
	ErrRemoteNotFound = &notFound{msg: "resource not found on bridge"}

	// ErrInvalidToken indicates a transfer token was missing, expired, or scoped elsewhere.
	ErrInvalidToken = errors.New("invalid transfer token")
)

// File errors indicate issues with local paths.
var (
	// ErrNoFilesMatched indicates no local file matched the provided patterns.
	ErrNoFilesMatched = errors.New("no matching local files")

	// ErrLocalFileNotFound indicates a literal local path does not exist.
	ErrLocalFileNotFound = errors.New("local file not found")

	// ErrOutputExists indicates a download target already exists.
	ErrOutputExists = errors.New("output file already exists")
)

// Workflow errors indicate a request was rejected before or after talking to the bridge.
var (
	// ErrInvalidBucketName indicates a name that is empty, contains a path
	// separator, or looks like a bucket id.
	ErrInvalidBucketName = errors.New("invalid bucket name")

	// ErrSecretNotSaved indicates an upload succeeded but its secret could not be
	// written to the keyring. The remote file cannot be decrypted and should be removed.
	ErrSecretNotSaved = errors.New("file uploaded but its secret was not saved")

	// ErrInvalidDateFormat indicates a --since or --until value is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

type notFound struct{ msg string }

func (e *notFound) Error() string { return e.msg }

func (e *notFound) Is(target error) bool { return target == ErrNotFound }

// TransportError wraps a failure talking to the bridge.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Transport returns a *TransportError for op, or nil if err is nil.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// KeyRingError wraps any failure opening or reading the keyring.
type KeyRingError struct {
	Err error
}

func (e *KeyRingError) Error() string {
	return fmt.Sprintf("keyring: %v", e.Err)
}

func (e *KeyRingError) Unwrap() error { return e.Err }

func (e *KeyRingError) Is(target error) bool { return target == ErrKeyRing }

// KeyRing returns a *KeyRingError wrapping err, or nil if err is nil.
func KeyRing(err error) error {
	if err == nil {
		return nil
	}
	return &KeyRingError{Err: err}
}
