// Package bridge is the storage bridge client used by storjcli.
//
// Client is the full contract the rest of the tool depends on: list and
// create buckets, list files, request transfer tokens, store a local file
// and open a remote read stream. HTTPClient implements it over the bridge's
// JSON/HTTP API, MockClient is a function-field double for tests.
//
// # Construction
//
// NewClient never fails. It builds a zap logger at the requested level
// (silent by default) and a retrying HTTP client:
//
//	client := bridge.NewClient(bridge.Options{
//	    BaseURL:  "https://api.storj.io",
//	    User:     "me@example.com",
//	    Password: "hunter2",
//	    LogLevel: "debug",
//	})
//
// # Errors
//
// Network failures and 5xx answers are returned as *errors.TransportError.
// 401 maps to errors.ErrUnauthorized, 403 to errors.ErrInvalidToken and
// 404 to errors.ErrRemoteNotFound.
package bridge
