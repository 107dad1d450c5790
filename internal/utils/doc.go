// Package utils provides shared helpers for storjcli.
//
// # File Resolution
//
// ResolveFiles expands upload arguments (files, directories, doublestar
// globs) into a deduplicated list of regular files. Leftover .crypt temp
// files and the data directory are skipped.
//
// # Content Types
//
// ContentType guesses a mimetype from a file extension, falling back to
// application/octet-stream.
//
// # Terminal Utilities
//
// ReadPassphrase, ReadPassphraseFromTTY and PromptPassphrase read the keyring
// password without echo. IsTerminal and IsStdoutTerminal detect TTYs.
//
// # System Utilities
//
// GetUsername and GetHostname feed the audit log.
package utils
