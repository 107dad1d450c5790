// Package secrets provides the per-file cipher used by storjcli.
//
// Every uploaded file gets its own random Secret: a 256-bit key and a
// 192-bit IV driving an XChaCha20 keystream. Files are streamed through the
// cipher, so arbitrarily large files never sit in memory.
//
// # Stream Contract
//
//	EncryptStream(secret, plaintext) -> ciphertext
//	DecryptStream(secret, ciphertext) -> plaintext
//
// Uploads write the ciphertext to a sibling <file>.crypt temp file before
// handing it to the bridge. Downloads decrypt the remote stream on the fly.
//
// # Secret Storage
//
// Secrets marshal to 56 bytes (key || iv) and are sealed into the local
// keyring by package keyring. Losing the keyring loses the ability to
// decrypt the remote files; there is no recovery path.
//
// # Security Considerations
//
// The stream is unauthenticated: integrity rests on the bridge. A fresh
// Secret is generated per upload, so a key/IV pair is never reused.
package secrets
