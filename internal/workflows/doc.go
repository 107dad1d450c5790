// Package workflows provides high-level orchestration for storjcli commands.
//
// Workflows coordinate the bridge client, the resolver, the keyring and the
// audit log to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Builds a bridge client and calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Resolving bucket and file names to ids
//   - Unlocking the keyring
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Upload, UploadMany: encrypt local files and store them in a bucket
//   - OpenStream, Cat, Download: fetch and decrypt a remote file
//   - CreateBucket, EnsureBucket, ListBuckets, RemoveBucket
//   - ListFiles, RemoveFile
//   - KeyringInit, KeyringList
//   - History: read the audit log
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	_, err := workflows.Download(ctx, client, opts)
//	if errors.Is(err, kerrors.ErrSecretNotFound) {
//	    // The file was not uploaded from this keyring
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// Bridge calls inherit it, so cancelling it aborts in-flight requests.
package workflows
