// Package storagecipher encrypts values before they are written to storage.
//
// Tokens are base64(salt || iv || ciphertext) where salt and iv are 16 random bytes each
// and the ciphertext is AES-256-CBC with PKCS#7 padding. The AES key is SHA-256 of the
// configured master secret and is derived once, at construction.
//
// Empty input passes through unchanged in both directions.
//
// Environment:
// - VAULT_STORAGE_MASTER_KEY: master secret (required, at least 16 bytes).
package storagecipher
