// Package handshake implements the per-session RSA key exchange that protects payloads
// in transit between a client and the vault.
//
// A user initiates a session and receives a fresh server public key. The client answers
// with its own public key, completing the session. From then on the client encrypts
// request fields toward the server key and the server encrypts responses toward the
// client key. Initiating again supersedes any active session of the same user.
//
// Server private keys never reach storage in the clear: they are wrapped with
// rsacrypto.KeyWrapper before the row is written.
package handshake
