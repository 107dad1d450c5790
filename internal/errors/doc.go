// Package errors provides typed error values for storjcli.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
// Errors are grouped into classes that the CLI renders differently:
//
//   - Not found: ErrBucketNotFound, ErrFileNotFound, ErrRemoteNotFound (all match ErrNotFound)
//   - Empty listings: ErrNoBuckets, ErrNoFilesInBucket
//   - Transport: *TransportError (matches ErrTransport)
//   - Keyring: *KeyRingError (matches ErrKeyRing), ErrWrongPassword, ErrSecretNotFound
//   - Credentials: ErrUnauthorized
//
// # Usage
//
// Return errors from internal packages:
//
//	if len(buckets) == 0 {
//	    return "", errors.ErrNoBuckets
//	}
//
// Handle errors in the CLI layer:
//
//	id, err := resolver.BucketID(ctx, client, ref)
//	if errors.Is(err, kerrors.ErrNotFound) {
//	    // Show user-friendly message
//	}
//
// Wrap bridge failures so they keep their class:
//
//	return nil, kerrors.Transport("list buckets", err)
package errors
