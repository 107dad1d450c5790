// Package audit records storjcli operations in a local history file.
//
// Every operation that changes remote state or touches a secret (upload,
// download, cat, bucket and file removal, keyring init) appends one entry.
// `storjcli log` prints the history.
//
// # Log Format
//
// The log is stored as JSON Lines (one JSON object per line) at:
//
//	<DATA_DIR>/audit.jsonl
//
// Each entry contains:
//   - A random UUID and a timestamp (RFC3339 with microseconds, UTC)
//   - The local user and host
//   - Operation name
//   - Operation-specific details (bucket, file, ids, size)
//
// # Usage
//
//	entry := audit.New(audit.OpUpload)
//	entry.Bucket, entry.FileID = bucketRef, file.ID
//	audit.Log(dataDir, entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If writing fails the operation continues
// without error.
//
// # Reading Logs
//
// Use ReadEntries() to parse the log for display. Malformed entries are
// silently skipped to handle partial writes.
package audit
