// Package configs resolves storjcli settings.
//
// Settings are layered, later sources winning:
//
//   - Built-in defaults (Defaults)
//   - <DATA_DIR>/config.toml (FileConfig)
//   - A .env file in the working directory (never overrides set variables)
//   - The process environment (DATA_DIR, BRIDGE_URL, BRIDGE_USER, ...)
//   - Command-line flags (Overrides)
//
// # Config File
//
// config.toml is optional. It carries the bridge URL, the client log level,
// request timeout and retry count, the default bucket quotas under [bucket],
// and the local bridge server options under [server]. EnsureFileConfig
// writes one with the defaults filled in.
//
// Credentials (BRIDGE_USER, BRIDGE_PASS, STORJ_KEYPASS, BRIDGE_SERVER_SECRET,
// S3 keys) are read from the environment only and never written to disk.
package configs
