// Package bridgeserver is a small local storage bridge that speaks the same
// HTTP API as the public one.
//
// Bucket and file metadata live in a bbolt database; file content goes to a
// BlobStore, either a directory on disk (FSBlobStore) or an S3 bucket
// (S3BlobStore). Every route except /health requires basic auth with the
// sha256 hex of the account password. Transfer routes additionally require
// an x-token issued by POST /buckets/{id}/tokens; tokens are HS256 JWTs
// scoped to one user, one bucket and one operation.
//
// The server never sees plaintext: storjcli encrypts before PUT and decrypts
// after GET.
package bridgeserver
